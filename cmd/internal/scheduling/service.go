package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Options struct {
	// MaxOccurrences caps how many records one create may produce.
	MaxOccurrences int
	// CheckOverlapOnUpdate rejects updates whose new range overlaps another
	// appointment of the same owner. Off by default: only create enforces
	// the non-overlap rule.
	CheckOverlapOnUpdate bool
}

type CreateInput struct {
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	IsRecurring bool
	Recurrence  *Recurrence
}

type UpdateInput struct {
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
}

// Service orchestrates appointment writes: overlap check, recurrence
// expansion and persistence. It keeps no appointment state between calls.
type Service struct {
	store         Store
	checker       *OverlapChecker
	expander      *Expander
	locks         *ownerLocks
	checkOnUpdate bool
}

func NewService(store Store, opts Options) *Service {
	return &Service{
		store:         store,
		checker:       NewOverlapChecker(store),
		expander:      &Expander{MaxOccurrences: opts.MaxOccurrences},
		locks:         newOwnerLocks(),
		checkOnUpdate: opts.CheckOverlapOnUpdate,
	}
}

// Create stores a new appointment and, for a daily rule, every following
// instance. The seed is returned. Creation is not atomic: when an insert
// fails the records already written stay, and the returned
// *PersistenceError reports how many there are.
func (s *Service) Create(ctx context.Context, owner string, in CreateInput) (*Appointment, error) {
	r, err := NewTimeRange(in.Start, in.End)
	if err != nil {
		return nil, err
	}

	seed := Appointment{
		Owner:       owner,
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		Range:       r,
		IsRecurring: in.IsRecurring,
	}

	if in.IsRecurring {
		if in.Recurrence == nil {
			return nil, ErrInvalidRecurrence
		}
		if civilDate(in.Recurrence.RepeatUntil).Before(civilDate(r.Start())) {
			return nil, ErrInvalidRecurrence
		}
		rec := *in.Recurrence
		seed.Recurrence = &rec
		seed.SeriesID = uuid.NewString()

		if s.expander.Count(seed) > s.expander.maxOccurrences() {
			return nil, ErrRecurrenceTooLong
		}
	}

	unlock := s.locks.lock(owner)
	defer unlock()

	conflict, err := s.checker.CheckConflict(ctx, owner, r, "")
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, ErrOverlapConflict
	}

	var first *Appointment
	written := 0
	for inst := range s.expander.Expand(seed) {
		if err := s.store.Insert(ctx, &inst); err != nil {
			return nil, &PersistenceError{Op: "insert", Written: written, Err: err}
		}
		written++
		if first == nil {
			first = &inst
		}
	}
	return first, nil
}

// Update replaces the title, description, location and range of a single
// appointment. Sibling instances of a series are left alone.
func (s *Service) Update(ctx context.Context, owner, id string, in UpdateInput) (*Appointment, error) {
	r, err := NewTimeRange(in.Start, in.End)
	if err != nil {
		return nil, err
	}

	if s.checkOnUpdate {
		unlock := s.locks.lock(owner)
		defer unlock()

		existing, err := s.store.FindByID(ctx, owner, id)
		if err != nil {
			return nil, &PersistenceError{Op: "find", Err: err}
		}
		if existing == nil {
			return nil, ErrNotFound
		}

		conflict, err := s.checker.CheckConflict(ctx, owner, r, id)
		if err != nil {
			return nil, err
		}
		if conflict {
			return nil, ErrOverlapConflict
		}
	}

	updated, err := s.store.UpdateFields(ctx, owner, id, Fields{
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		Range:       r,
	})
	if err != nil {
		return nil, &PersistenceError{Op: "update", Err: err}
	}
	if updated == nil {
		return nil, ErrNotFound
	}
	return updated, nil
}

// Delete removes exactly one appointment.
func (s *Service) Delete(ctx context.Context, owner, id string) error {
	deleted, err := s.store.DeleteByID(ctx, owner, id)
	if err != nil {
		return &PersistenceError{Op: "delete", Err: err}
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

func (s *Service) Get(ctx context.Context, owner, id string) (*Appointment, error) {
	appt, err := s.store.FindByID(ctx, owner, id)
	if err != nil {
		return nil, &PersistenceError{Op: "find", Err: err}
	}
	if appt == nil {
		return nil, ErrNotFound
	}
	return appt, nil
}

// List returns every appointment of owner ordered by start time.
func (s *Service) List(ctx context.Context, owner string) ([]*Appointment, error) {
	appts, err := s.store.FindByOwner(ctx, owner)
	if err != nil {
		return nil, &PersistenceError{Op: "list", Err: err}
	}
	return appts, nil
}

// ListBetween returns owner's appointments overlapping window, ordered by
// start time.
func (s *Service) ListBetween(ctx context.Context, owner string, window TimeRange) ([]*Appointment, error) {
	appts, err := s.store.FindBetween(ctx, owner, window)
	if err != nil {
		return nil, &PersistenceError{Op: "list between", Err: err}
	}
	return appts, nil
}
