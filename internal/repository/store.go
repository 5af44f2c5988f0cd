// Package repository owns the registration state: the in-memory
// RegistrationStore and ActivityLog, plus the Journal that mirrors committed
// changes into PostgreSQL.
//
// Store and log are not safe for concurrent use on their own. The service
// layer serialises every access behind a single lock so that quota checks
// and the mutations they guard happen in one critical section.
package repository

import (
	"errors"
	"sort"
	"time"

	"github.com/Shivanand-hulikatti/team-registration/internal/model"
)

// ErrNotFound is returned when a requested registration does not exist.
var ErrNotFound = errors.New("registration not found")

// RegistrationStore maps registration ids to registrations, with secondary
// lookups by case-folded name and by owner.
type RegistrationStore struct {
	regs   map[int64]model.Registration
	order  []int64 // ascending ids, i.e. insertion order
	byName map[string]int64
	nextID int64
	now    func() time.Time
}

// NewRegistrationStore constructs an empty store whose ids start at 1.
func NewRegistrationStore(now func() time.Time) *RegistrationStore {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &RegistrationStore{
		regs:   make(map[int64]model.Registration),
		byName: make(map[string]int64),
		nextID: 1,
		now:    now,
	}
}

// Seed loads previously persisted registrations. nextID is raised past the
// largest loaded id so ids are never reused.
func (s *RegistrationStore) Seed(regs []model.Registration, nextID int64) {
	for _, reg := range regs {
		s.put(reg)
		if reg.ID >= nextID {
			nextID = reg.ID + 1
		}
	}
	if nextID > s.nextID {
		s.nextID = nextID
	}
}

// List returns all registrations in insertion order.
func (s *RegistrationStore) List() []model.Registration {
	out := make([]model.Registration, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.regs[id])
	}
	return out
}

// Len reports the number of registrations.
func (s *RegistrationStore) Len() int { return len(s.regs) }

// Get returns the registration with the given id.
func (s *RegistrationStore) Get(id int64) (model.Registration, bool) {
	reg, ok := s.regs[id]
	return reg, ok
}

// FindByName looks a registration up by name, ignoring case.
func (s *RegistrationStore) FindByName(name string) (model.Registration, bool) {
	id, ok := s.byName[model.NameKey(name)]
	if !ok {
		return model.Registration{}, false
	}
	return s.regs[id], true
}

// ListByOwner returns the owner's registrations in insertion order.
func (s *RegistrationStore) ListByOwner(ownerID string) []model.Registration {
	var out []model.Registration
	for _, id := range s.order {
		if reg := s.regs[id]; reg.OwnerID == ownerID {
			out = append(out, reg)
		}
	}
	return out
}

// TotalCount sums the participant count over all registrations. It is
// recomputed on every call rather than maintained incrementally.
func (s *RegistrationStore) TotalCount() int {
	total := 0
	for _, reg := range s.regs {
		total += reg.Count
	}
	return total
}

// Insert stores a new registration under the next id and stamps its
// registration time.
func (s *RegistrationStore) Insert(data model.NewRegistration) model.Registration {
	reg := model.Registration{
		ID:           s.nextID,
		Name:         data.Name,
		Count:        data.Count,
		OwnerID:      data.OwnerID,
		OwnerLabel:   data.OwnerLabel,
		RegisteredAt: s.now(),
	}
	s.nextID++
	s.put(reg)
	return reg
}

// MutateCount replaces the count of an existing registration. No other
// field changes.
func (s *RegistrationStore) MutateCount(id int64, count int) (model.Registration, bool) {
	reg, ok := s.regs[id]
	if !ok {
		return model.Registration{}, false
	}
	reg.Count = count
	s.regs[id] = reg
	return reg, true
}

// Remove deletes the registration and reports whether it existed.
func (s *RegistrationStore) Remove(id int64) bool {
	reg, ok := s.regs[id]
	if !ok {
		return false
	}
	delete(s.regs, id)
	delete(s.byName, model.NameKey(reg.Name))
	i := sort.Search(len(s.order), func(i int) bool { return s.order[i] >= id })
	s.order = append(s.order[:i], s.order[i+1:]...)
	return true
}

// Restore puts back a registration removed by Remove, keeping its id and
// position. Used to undo a delete whose persistence failed.
func (s *RegistrationStore) Restore(reg model.Registration) {
	if _, ok := s.regs[reg.ID]; ok {
		return
	}
	s.put(reg)
}

func (s *RegistrationStore) put(reg model.Registration) {
	s.regs[reg.ID] = reg
	s.byName[model.NameKey(reg.Name)] = reg.ID
	i := sort.Search(len(s.order), func(i int) bool { return s.order[i] >= reg.ID })
	s.order = append(s.order, 0)
	copy(s.order[i+1:], s.order[i:])
	s.order[i] = reg.ID
}
