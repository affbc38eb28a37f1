package fcm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"okshouse-backend/pkg/logging"
	"okshouse-backend/pkg/metrics"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// MessagingScope is the OAuth2 scope required by the FCM v1 send endpoint
const MessagingScope = "https://www.googleapis.com/auth/firebase.messaging"

// DefaultServiceAccountPaths are tried, in order, when no configured key file exists
var DefaultServiceAccountPaths = []string{
	"service-account-key.json",
	"firebase-service-account.json",
	"../service-account-key.json",
}

var (
	ErrNoCredentials        = errors.New("fcm service account credentials not found")
	ErrMalformedCredentials = errors.New("malformed fcm service account credentials")
)

// TokenProvider supplies bearer tokens for the FCM API
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

type CredentialsConfig struct {
	// JSON is a service-account key blob. When set, no file is consulted.
	JSON string
	// Path is checked before FallbackPaths
	Path string
	// FallbackPaths defaults to DefaultServiceAccountPaths when nil
	FallbackPaths []string
}

// ServiceAccountProvider exchanges a service-account key for access tokens
// and caches each token until the provider-declared expiry. Loading is
// serialized by mu.
type ServiceAccountProvider struct {
	cfg CredentialsConfig
	log zerolog.Logger

	mu     sync.Mutex
	source oauth2.TokenSource
}

func NewServiceAccountProvider(cfg CredentialsConfig) *ServiceAccountProvider {
	if cfg.FallbackPaths == nil {
		cfg.FallbackPaths = DefaultServiceAccountPaths
	}
	return &ServiceAccountProvider{
		cfg: cfg,
		log: logging.Component("fcm.credentials"),
	}
}

// AccessToken returns a valid access token, loading credentials on first use.
// A failed load is retried on the next call.
func (p *ServiceAccountProvider) AccessToken(ctx context.Context) (string, error) {
	ts, err := p.TokenSource(ctx)
	if err != nil {
		return "", err
	}

	// ReuseTokenSource guards its cached token with its own lock
	token, err := ts.Token()
	if err != nil {
		metrics.FCMAccessTokenErrors.Inc()
		p.log.Error().Err(err).Msg("failed to refresh FCM access token")
		return "", fmt.Errorf("failed to refresh fcm access token: %w", err)
	}
	return token.AccessToken, nil
}

// TokenSource returns the cached token source, building it from the
// configured credentials when needed.
func (p *ServiceAccountProvider) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.source != nil {
		return p.source, nil
	}

	keyJSON, origin, err := p.readKey()
	if err != nil {
		metrics.FCMAccessTokenErrors.Inc()
		p.log.Error().Err(err).Msg("FCM service account key unavailable")
		return nil, err
	}

	conf, err := google.JWTConfigFromJSON(keyJSON, MessagingScope)
	if err != nil {
		metrics.FCMAccessTokenErrors.Inc()
		p.log.Error().Err(err).Str("source", origin).Msg("failed to parse FCM service account key")
		return nil, fmt.Errorf("%w: %v", ErrMalformedCredentials, err)
	}

	// The source outlives this call; keep ctx values but drop its cancellation
	p.source = oauth2.ReuseTokenSource(nil, conf.TokenSource(context.WithoutCancel(ctx)))
	p.log.Info().Str("source", origin).Str("client_email", conf.Email).Msg("FCM service account loaded")
	return p.source, nil
}

func (p *ServiceAccountProvider) readKey() ([]byte, string, error) {
	if p.cfg.JSON != "" {
		data := []byte(p.cfg.JSON)
		if !json.Valid(data) {
			return nil, "env", fmt.Errorf("%w: FCM_SERVICE_ACCOUNT_JSON is not valid JSON", ErrMalformedCredentials)
		}
		return data, "env", nil
	}

	path := ResolveServiceAccountPath(p.cfg.Path, p.cfg.FallbackPaths)
	if path == "" {
		return nil, "", ErrNoCredentials
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("failed to read service account key %s: %w", path, err)
	}
	return data, path, nil
}

// ResolveServiceAccountPath returns configured if it exists, otherwise the
// first existing fallback, otherwise "".
func ResolveServiceAccountPath(configured string, fallbacks []string) string {
	if configured != "" && fileExists(configured) {
		return configured
	}
	for _, path := range fallbacks {
		if fileExists(path) {
			return path
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
