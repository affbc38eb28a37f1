package domain

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the calendar date format reservations use
const DateLayout = "2006-01-02"

var ErrUnknownDuration = errors.New("reservation duration cannot be determined")

// ChangeType tags why a reservation notification is sent
type ChangeType string

const (
	ChangeNew    ChangeType = "new"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
	ChangeOther  ChangeType = "other"
)

// Reservation is the subset of a booking the admin notification needs
type Reservation struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	// Duration is the number of nights. Nil means derive it from the dates.
	Duration *int `json:"duration,omitempty"`
}

// Label maps c onto the fixed set of change types, so unknown values share "other".
func (c ChangeType) Label() string {
	switch c {
	case ChangeNew, ChangeUpdate, ChangeDelete:
		return string(c)
	default:
		return string(ChangeOther)
	}
}

// Nights returns Duration, or the day difference between EndDate and StartDate
// when Duration is not set. A same-day stay is zero nights.
func (r Reservation) Nights() (int, error) {
	if r.Duration != nil {
		if *r.Duration < 0 {
			return 0, fmt.Errorf("%w: negative duration %d", ErrUnknownDuration, *r.Duration)
		}
		return *r.Duration, nil
	}

	start, err := time.Parse(DateLayout, r.StartDate)
	if err != nil {
		return 0, fmt.Errorf("%w: start_date %q: %v", ErrUnknownDuration, r.StartDate, err)
	}
	end, err := time.Parse(DateLayout, r.EndDate)
	if err != nil {
		return 0, fmt.Errorf("%w: end_date %q: %v", ErrUnknownDuration, r.EndDate, err)
	}

	nights := int(end.Sub(start).Hours() / 24)
	if nights < 0 {
		return 0, fmt.Errorf("%w: end_date %s is before start_date %s", ErrUnknownDuration, r.EndDate, r.StartDate)
	}
	return nights, nil
}

// Event is a reservation change published by the booking service
type Event struct {
	Action      ChangeType  `json:"action"`
	Reservation Reservation `json:"reservation"`
}
