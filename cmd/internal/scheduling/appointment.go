package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidRange      = errors.New("start time must be before end time")
	ErrInvalidRecurrence = errors.New("recurrence must end on or after the first occurrence")
	ErrRecurrenceTooLong = errors.New("recurrence produces too many occurrences")
	ErrOverlapConflict   = errors.New("appointment overlaps with an existing one")
	ErrNotFound          = errors.New("appointment not found")
)

// PersistenceError wraps a failure of the Store. Written is the number of
// records that had already been stored when a multi-record create failed;
// those records are not removed.
type PersistenceError struct {
	Op      string
	Written int
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("scheduling: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

type Recurrence struct {
	Frequency Frequency
	// RepeatUntil is compared by calendar date only.
	RepeatUntil time.Time
}

type Appointment struct {
	ID          string
	Owner       string
	Title       string
	Description string
	Location    string
	Range       TimeRange
	IsRecurring bool
	Recurrence  *Recurrence
	// SeriesID is shared by every instance materialized from one seed.
	SeriesID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Fields holds the replaceable part of an appointment.
type Fields struct {
	Title       string
	Description string
	Location    string
	Range       TimeRange
}

// Store is the persistence port. Lookups return nil (or false) without an
// error when nothing matches.
type Store interface {
	FindOverlapping(ctx context.Context, owner string, r TimeRange, excludeID string) (*Appointment, error)
	Insert(ctx context.Context, appt *Appointment) error
	FindByID(ctx context.Context, owner, id string) (*Appointment, error)
	UpdateFields(ctx context.Context, owner, id string, fields Fields) (*Appointment, error)
	DeleteByID(ctx context.Context, owner, id string) (bool, error)
	FindByOwner(ctx context.Context, owner string) ([]*Appointment, error)
	FindBetween(ctx context.Context, owner string, window TimeRange) ([]*Appointment, error)
}
