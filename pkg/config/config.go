package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL" envDefault:"sqlite:///./data/reservations.db"`
	SeedAdmins  bool   `env:"SEED_ADMINS" envDefault:"true"`

	// FCM
	FCMProjectID          string `env:"FCM_PROJECT_ID" envDefault:"okshouse"`
	FCMServiceAccountJSON string `env:"FCM_SERVICE_ACCOUNT_JSON"`
	FCMServiceAccountPath string `env:"FCM_SERVICE_ACCOUNT_PATH"`
	FCMEndpoint           string `env:"FCM_ENDPOINT" envDefault:"https://fcm.googleapis.com"`
	FCMTransport          string `env:"FCM_TRANSPORT" envDefault:"http"` // "http" or "sdk"
	FCMPruneInvalidTokens bool   `env:"FCM_PRUNE_INVALID_TOKENS" envDefault:"false"`

	// Reservation notification text
	NotificationBrand       string `env:"NOTIFICATION_BRAND" envDefault:"OksHouse"`
	NotificationClickAction string `env:"NOTIFICATION_CLICK_ACTION" envDefault:"/OksHouse-Admin"`

	// Pub/Sub intake, disabled when the project is empty
	PubSubProjectID    string `env:"PUBSUB_PROJECT_ID"`
	PubSubTopic        string `env:"PUBSUB_TOPIC" envDefault:"reservation-events"`
	PubSubSubscription string `env:"PUBSUB_SUBSCRIPTION"`
	GoogleCredentials  string `env:"GOOGLE_APPLICATION_CREDENTIALS"`

	OpsAddr   string `env:"OPS_ADDR"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.PubSubSubscription == "" {
		cfg.PubSubSubscription = cfg.PubSubTopic + "-sub" // Convention: topic-sub
	}

	switch cfg.FCMTransport {
	case "http", "sdk":
	default:
		return nil, fmt.Errorf("unsupported FCM_TRANSPORT %q (want http or sdk)", cfg.FCMTransport)
	}

	return &cfg, nil
}
