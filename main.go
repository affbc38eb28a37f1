package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	api "okshouse-backend/cmd/api"
	admindomain "okshouse-backend/internal/admin/domain"
	adminRepo "okshouse-backend/internal/admin/repository"
	"okshouse-backend/internal/reservation/subscriber"
	reservationUsecase "okshouse-backend/internal/reservation/usecase"
	"okshouse-backend/pkg/config"
	"okshouse-backend/pkg/database"
	"okshouse-backend/pkg/fcm"
	"okshouse-backend/pkg/logging"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger := logging.Logger()
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log := logging.Component("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close(db)

	if err := database.InitializeSchema(ctx, db, &admindomain.Admin{}, &admindomain.FCMToken{}); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize schema")
	}

	// Initialize repositories (dependency injection)
	adminRepository := adminRepo.NewAdminRepository(db)
	fcmTokenRepo := adminRepo.NewFCMTokenRepository(db)

	if cfg.SeedAdmins {
		seeded, err := adminRepository.SeedIfEmpty(ctx, adminRepo.DefaultAdmins())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to seed admins")
		}
		if seeded > 0 {
			log.Info().Int("count", seeded).Msg("seeded admins")
		}
	}

	// Initialize FCM dispatcher
	credentials := fcm.NewServiceAccountProvider(fcm.CredentialsConfig{
		JSON: cfg.FCMServiceAccountJSON,
		Path: cfg.FCMServiceAccountPath,
	})

	sender, err := fcm.NewSender(ctx, cfg.FCMTransport, cfg.FCMEndpoint, cfg.FCMProjectID, credentials)
	if err != nil {
		log.Fatal().Err(err).Str("transport", cfg.FCMTransport).Msg("failed to initialize FCM sender")
	}
	fcmClient := fcm.NewClient(credentials, sender)

	notifier := reservationUsecase.NewReservationNotifier(fcmTokenRepo, fcmClient, reservationUsecase.NotifierConfig{
		Brand:              cfg.NotificationBrand,
		ClickAction:        cfg.NotificationClickAction,
		PruneInvalidTokens: cfg.FCMPruneInvalidTokens,
	})

	var wg sync.WaitGroup

	// Reservation event intake, only when a Pub/Sub project is configured
	if cfg.PubSubProjectID != "" {
		var opts []option.ClientOption
		if cfg.GoogleCredentials != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.GoogleCredentials))
		}
		pubsubClient, err := pubsub.NewClient(ctx, cfg.PubSubProjectID, opts...)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub client")
		}
		defer pubsubClient.Close()

		sub := subscriber.New(pubsubClient, cfg.PubSubTopic, cfg.PubSubSubscription, notifier)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sub.Start(ctx); err != nil {
				log.Error().Err(err).Msg("reservation subscriber stopped")
				stop()
			}
		}()
	} else {
		log.Warn().Msg("PUBSUB_PROJECT_ID not configured, reservation event intake disabled")
	}

	if cfg.OpsAddr != "" {
		handler := api.NewHandler(db)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := handler.Start(ctx, cfg.OpsAddr); err != nil {
				log.Error().Err(err).Msg("ops server stopped")
				stop()
			}
		}()
	}

	log.Info().Msg("admin notification backend started")
	<-ctx.Done()
	wg.Wait()
	log.Info().Msg("shutdown complete")
}
