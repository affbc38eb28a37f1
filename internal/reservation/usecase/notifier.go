package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	adminrepo "okshouse-backend/internal/admin/repository"
	"okshouse-backend/internal/reservation/domain"
	"okshouse-backend/pkg/fcm"
	"okshouse-backend/pkg/logging"
	"okshouse-backend/pkg/metrics"

	"github.com/rs/zerolog"
)

const defaultGuestName = "손님"

// ReservationNotifier pushes reservation changes to every registered admin device
type ReservationNotifier interface {
	// Notify returns the dispatch report, a failure report when the tokens
	// could not be read or the text could not be built, or nil when no admin
	// device is registered.
	Notify(ctx context.Context, reservation domain.Reservation, change domain.ChangeType) *fcm.Report
}

// Dispatcher sends one notification to a list of device tokens
type Dispatcher interface {
	SendNotification(ctx context.Context, tokens []string, notification fcm.NotificationData) *fcm.Report
}

type NotifierConfig struct {
	// Brand prefixes every title, e.g. "[OksHouse] 예약 변경 알림"
	Brand string
	// ClickAction is opened when the admin taps the notification
	ClickAction string
	// PruneInvalidTokens deletes tokens the provider reports as invalid
	PruneInvalidTokens bool
}

type reservationNotifier struct {
	tokens     adminrepo.FCMTokenRepository
	dispatcher Dispatcher
	cfg        NotifierConfig
	now        func() time.Time
	log        zerolog.Logger
}

func NewReservationNotifier(tokens adminrepo.FCMTokenRepository, dispatcher Dispatcher, cfg NotifierConfig) ReservationNotifier {
	return &reservationNotifier{
		tokens:     tokens,
		dispatcher: dispatcher,
		cfg:        cfg,
		now:        time.Now,
		log:        logging.Component("reservation.notifier"),
	}
}

func (n *reservationNotifier) Notify(ctx context.Context, reservation domain.Reservation, change domain.ChangeType) (report *fcm.Report) {
	log := n.log.With().Int64("reservation_id", reservation.ID).Str("action", string(change)).Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("reservation notification aborted")
			metrics.ReservationNotifications.WithLabelValues(change.Label(), "failed").Inc()
			report = fcm.FailureReport(fmt.Sprintf("reservation notification aborted: %v", r))
		}
	}()

	tokens, err := n.tokens.ListAllTokens(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to load admin FCM tokens")
		metrics.ReservationNotifications.WithLabelValues(change.Label(), "failed").Inc()
		return fcm.FailureReport(err.Error())
	}
	if len(tokens) == 0 {
		log.Info().Msg("no registered admin tokens, skipping push notification")
		metrics.ReservationNotifications.WithLabelValues(change.Label(), "skipped").Inc()
		return nil
	}

	title, body, err := n.compose(reservation, change)
	if err != nil {
		log.Error().Err(err).Msg("failed to build reservation notification")
		metrics.ReservationNotifications.WithLabelValues(change.Label(), "failed").Inc()
		return fcm.FailureReport(err.Error())
	}

	report = n.dispatcher.SendNotification(ctx, tokens, fcm.NotificationData{
		Title:       title,
		Body:        body,
		ClickAction: n.cfg.ClickAction,
		Data: map[string]string{
			"type":           "reservation",
			"action":         string(change),
			"reservation_id": strconv.FormatInt(reservation.ID, 10),
			"guest_name":     guestName(reservation),
			"timestamp":      n.now().Format(time.RFC3339),
		},
	})

	if n.cfg.PruneInvalidTokens {
		n.prune(ctx, report)
	}

	outcome := "failed"
	if report != nil && report.Success {
		outcome = "sent"
	}
	metrics.ReservationNotifications.WithLabelValues(change.Label(), outcome).Inc()
	return report
}

func (n *reservationNotifier) compose(r domain.Reservation, change domain.ChangeType) (string, string, error) {
	guest := guestName(r)

	var headline string
	switch change {
	case domain.ChangeNew:
		headline = "새로운 예약 등록 알림"
	case domain.ChangeUpdate:
		headline = "예약 변경 알림"
	case domain.ChangeDelete:
		headline = "예약 삭제 알림"
	default:
		return n.title("예약 알림"), fmt.Sprintf("%s님의 예약 관련 알림", guest), nil
	}

	nights, err := r.Nights()
	if err != nil {
		return "", "", err
	}
	body := fmt.Sprintf("%s, %d박 %d일\n%s ~ %s", guest, nights, nights+1, r.StartDate, r.EndDate)
	return n.title(headline), body, nil
}

func (n *reservationNotifier) title(headline string) string {
	if n.cfg.Brand == "" {
		return headline
	}
	return fmt.Sprintf("[%s] %s", n.cfg.Brand, headline)
}

// prune removes tokens the provider confirmed as invalid
func (n *reservationNotifier) prune(ctx context.Context, report *fcm.Report) {
	for _, token := range report.InvalidTokens() {
		removed, err := n.tokens.DeleteToken(ctx, token)
		if err != nil {
			n.log.Error().Err(err).Str("token", logging.TokenPrefix(token)).Msg("failed to prune invalid FCM token")
			continue
		}
		if removed > 0 {
			metrics.FCMTokensPruned.Add(float64(removed))
			n.log.Info().Str("token", logging.TokenPrefix(token)).Msg("pruned invalid FCM token")
		}
	}
}

func guestName(r domain.Reservation) string {
	if r.Name == "" {
		return defaultGuestName
	}
	return r.Name
}
