package subscriber

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"okshouse-backend/internal/reservation/domain"
	"okshouse-backend/internal/reservation/usecase"
	"okshouse-backend/pkg/logging"

	"cloud.google.com/go/pubsub"
	"github.com/rs/zerolog"
)

// Subscriber relays reservation events from Pub/Sub to the admin notifier
type Subscriber struct {
	pubsubClient *pubsub.Client
	notifier     usecase.ReservationNotifier
	topicName    string
	subName      string
	log          zerolog.Logger
}

// New creates a Subscriber. The client is owned by the caller.
func New(client *pubsub.Client, topicName, subName string, notifier usecase.ReservationNotifier) *Subscriber {
	return &Subscriber{
		pubsubClient: client,
		notifier:     notifier,
		topicName:    topicName,
		subName:      subName,
		log:          logging.Component("reservation.subscriber"),
	}
}

// Start ensures the subscription exists and blocks receiving messages until
// ctx is cancelled.
func (s *Subscriber) Start(ctx context.Context) error {
	sub, err := s.ensureSubscription(ctx)
	if err != nil {
		return err
	}

	s.log.Info().Str("topic", s.topicName).Str("subscription", s.subName).Msg("listening for reservation events")
	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		s.HandleMessage(ctx, msg.Data)
		msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to receive reservation events: %w", err)
	}
	return nil
}

func (s *Subscriber) ensureSubscription(ctx context.Context) (*pubsub.Subscription, error) {
	sub := s.pubsubClient.Subscription(s.subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check subscription %s: %w", s.subName, err)
	}
	if exists {
		return sub, nil
	}

	topic := s.pubsubClient.Topic(s.topicName)
	topicExists, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check topic %s: %w", s.topicName, err)
	}
	if !topicExists {
		return nil, fmt.Errorf("topic %s does not exist, cannot create subscription", s.topicName)
	}

	sub, err = s.pubsubClient.CreateSubscription(ctx, s.subName, pubsub.SubscriptionConfig{
		Topic:       topic,
		AckDeadline: 30 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create subscription %s: %w", s.subName, err)
	}
	s.log.Info().Str("subscription", s.subName).Msg("created subscription")
	return sub, nil
}

// HandleMessage decodes one reservation event and notifies admins.
// Undecodable payloads are logged and dropped.
func (s *Subscriber) HandleMessage(ctx context.Context, data []byte) {
	var event domain.Event
	if err := json.Unmarshal(data, &event); err != nil {
		s.log.Error().Err(err).Msg("failed to unmarshal reservation event")
		return
	}
	if event.Action == "" {
		event.Action = domain.ChangeOther
	}

	report := s.notifier.Notify(ctx, event.Reservation, event.Action)
	if report == nil {
		return
	}
	s.log.Info().
		Int64("reservation_id", event.Reservation.ID).
		Str("action", string(event.Action)).
		Bool("success", report.Success).
		Int("total", report.Total).
		Int("success_count", report.SuccessCount).
		Msg("reservation event relayed")
}
