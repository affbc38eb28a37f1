package fcm

import (
	"context"

	"okshouse-backend/pkg/logging"
	"okshouse-backend/pkg/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Result is the delivery outcome for one device token
type Result struct {
	Token      string `json:"token"`
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code,omitempty"`
	Error      string `json:"error,omitempty"`
	// Invalid marks tokens the provider rejected as malformed or unregistered
	Invalid bool `json:"invalid,omitempty"`
}

// Report aggregates one SendNotification call
type Report struct {
	ID           string   `json:"id"`
	Success      bool     `json:"success"`
	Total        int      `json:"total"`
	SuccessCount int      `json:"success_count"`
	Message      string   `json:"message,omitempty"`
	Results      []Result `json:"results,omitempty"`
}

// FailureReport is returned when nothing could be attempted
func FailureReport(message string) *Report {
	return &Report{
		ID:      uuid.NewString(),
		Success: false,
		Message: message,
	}
}

// InvalidTokens lists tokens the provider rejected as invalid
func (r *Report) InvalidTokens() []string {
	if r == nil {
		return nil
	}
	var tokens []string
	for _, res := range r.Results {
		if res.Invalid {
			tokens = append(tokens, res.Token)
		}
	}
	return tokens
}

// Client wraps Firebase Cloud Messaging functionality
type Client struct {
	tokens TokenProvider
	sender Sender
	log    zerolog.Logger
}

// NewClient creates a dispatcher that authenticates with tokens and delivers through sender
func NewClient(tokens TokenProvider, sender Sender) *Client {
	return &Client{
		tokens: tokens,
		sender: sender,
		log:    logging.Component("fcm"),
	}
}

// SendNotification sends the notification to each device token in order.
// A failure for one token is recorded and the remaining tokens are still
// attempted. The report is successful when at least one token succeeded.
func (c *Client) SendNotification(ctx context.Context, tokens []string, notification NotificationData) *Report {
	if len(tokens) == 0 {
		return FailureReport("no device tokens")
	}

	accessToken, err := c.tokens.AccessToken(ctx)
	if err != nil || accessToken == "" {
		c.log.Warn().Err(err).Int("total", len(tokens)).Msg("no FCM access token, notification not sent")
		return FailureReport("failed to obtain access token")
	}

	report := &Report{
		ID:      uuid.NewString(),
		Total:   len(tokens),
		Results: make([]Result, 0, len(tokens)),
	}
	data := notification.payload()

	for _, token := range tokens {
		res := c.sender.Send(ctx, accessToken, token, data)
		metrics.RecordDelivery(res.Success)
		if res.Success {
			report.SuccessCount++
		} else {
			c.log.Warn().
				Str("batch_id", report.ID).
				Str("token", logging.TokenPrefix(token)).
				Int("status", res.StatusCode).
				Str("error", res.Error).
				Msg("failed to send FCM message")
		}
		report.Results = append(report.Results, res)
	}

	report.Success = report.SuccessCount > 0
	c.log.Info().
		Str("batch_id", report.ID).
		Int("total", report.Total).
		Int("success_count", report.SuccessCount).
		Msg("FCM batch sent")
	return report
}
