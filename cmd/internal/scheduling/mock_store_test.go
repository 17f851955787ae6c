package scheduling

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// memStore is an in-memory Store. failAfter, when positive, makes Insert
// fail once that many records have been inserted. order holds inserted IDs
// in insertion order.
type memStore struct {
	mu        sync.Mutex
	appts     map[string]*Appointment
	order     []string
	seq       int
	inserts   int
	failAfter int
	findErr   error
}

func newMemStore() *memStore {
	return &memStore{appts: make(map[string]*Appointment)}
}

func (m *memStore) FindOverlapping(_ context.Context, owner string, r TimeRange, excludeID string) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, a := range m.appts {
		if a.Owner == owner && a.ID != excludeID && Overlaps(a.Range, r) {
			c := *a
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memStore) Insert(_ context.Context, appt *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAfter > 0 && m.inserts >= m.failAfter {
		return fmt.Errorf("disk full")
	}
	m.seq++
	m.inserts++
	appt.ID = fmt.Sprintf("appt-%d", m.seq)
	appt.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	appt.UpdatedAt = appt.CreatedAt
	c := *appt
	m.appts[appt.ID] = &c
	m.order = append(m.order, appt.ID)
	return nil
}

func (m *memStore) FindByID(_ context.Context, owner, id string) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok || a.Owner != owner {
		return nil, nil
	}
	c := *a
	return &c, nil
}

func (m *memStore) UpdateFields(_ context.Context, owner, id string, f Fields) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok || a.Owner != owner {
		return nil, nil
	}
	a.Title = f.Title
	a.Description = f.Description
	a.Location = f.Location
	a.Range = f.Range
	a.UpdatedAt = a.UpdatedAt.Add(time.Minute)
	c := *a
	return &c, nil
}

func (m *memStore) DeleteByID(_ context.Context, owner, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok || a.Owner != owner {
		return false, nil
	}
	delete(m.appts, id)
	return true, nil
}

func (m *memStore) FindByOwner(ctx context.Context, owner string) ([]*Appointment, error) {
	return m.filter(func(a *Appointment) bool { return a.Owner == owner }), nil
}

func (m *memStore) FindBetween(_ context.Context, owner string, window TimeRange) ([]*Appointment, error) {
	return m.filter(func(a *Appointment) bool {
		return a.Owner == owner && Overlaps(a.Range, window)
	}), nil
}

func (m *memStore) filter(keep func(*Appointment) bool) []*Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Appointment
	for _, a := range m.appts {
		if keep(a) {
			c := *a
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Range.Start().Before(out[j].Range.Start())
	})
	return out
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.appts)
}
