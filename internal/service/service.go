// Package service implements the registration engine: the only component
// that writes registration state. Each write evaluates the quota policy,
// mutates the store, appends to the activity log and persists the change in
// one critical section.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/Shivanand-hulikatti/team-registration/internal/model"
	"github.com/Shivanand-hulikatti/team-registration/internal/quota"
	"github.com/Shivanand-hulikatti/team-registration/internal/repository"
)

var (
	// ErrInvalidInput is returned for malformed requests that never reach
	// the quota policy.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPersistence is returned when the journal failed; the in-memory
	// change has been undone.
	ErrPersistence = errors.New("persist registration change")
)

// CreateParams describes a new registration request.
type CreateParams struct {
	Name       string
	Count      int
	OwnerID    string
	OwnerLabel string
	Privileged bool
}

// RegistrationEngine orchestrates RegistrationStore, quota.Policy and
// ActivityLog. Writes hold mu exclusively; reads share it.
type RegistrationEngine struct {
	mu       sync.RWMutex
	store    *repository.RegistrationStore
	activity *repository.ActivityLog
	policy   quota.Policy
	config   model.EventConfig
	journal  repository.Journal
	logger   *slog.Logger
}

// Option configures a RegistrationEngine.
type Option func(*RegistrationEngine)

// WithJournal persists every committed change through j.
func WithJournal(j repository.Journal) Option {
	return func(e *RegistrationEngine) { e.journal = j }
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *RegistrationEngine) { e.logger = l }
}

// NewRegistrationEngine constructs an engine over store and activity.
func NewRegistrationEngine(
	store *repository.RegistrationStore,
	activity *repository.ActivityLog,
	cfg model.EventConfig,
	opts ...Option,
) *RegistrationEngine {
	e := &RegistrationEngine{
		store:    store,
		activity: activity,
		policy:   quota.DefaultPolicy(),
		config:   cfg,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Restore rehydrates the engine from the journal. A persisted event config
// replaces the one passed to the constructor; otherwise the constructor's
// config is written to the journal.
func (e *RegistrationEngine) Restore(ctx context.Context) error {
	if e.journal == nil {
		return nil
	}
	snap, err := e.journal.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.store.Seed(snap.Registrations, snap.NextRegistrationID)
	e.activity.Seed(snap.Activity, snap.NextActivityID)
	if snap.Config != nil {
		e.config = *snap.Config
	} else if err := e.journal.SaveConfig(ctx, e.config); err != nil {
		return fmt.Errorf("save initial config: %w", err)
	}
	e.logger.Info("state restored",
		"registrations", e.store.Len(),
		"activity", e.activity.Len(),
		"max_capacity", e.config.MaxCapacity)
	return nil
}

// Create admits a new registration or returns a *quota.Rejection.
func (e *RegistrationEngine) Create(ctx context.Context, p CreateParams) (*model.Registration, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if p.OwnerID == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrInvalidInput)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !p.Privileged && len(e.store.ListByOwner(p.OwnerID)) >= 1 {
		return nil, e.rejected("create", p.Name, quota.OwnerAlreadyRegistered())
	}
	proposal := quota.Proposal{Name: p.Name, OwnerID: p.OwnerID, Count: p.Count}
	if err := e.policy.Evaluate(e.store.List(), proposal, e.config.MaxCapacity); err != nil {
		return nil, e.rejected("create", p.Name, err)
	}

	reg := e.store.Insert(model.NewRegistration{
		Name:       p.Name,
		Count:      p.Count,
		OwnerID:    p.OwnerID,
		OwnerLabel: p.OwnerLabel,
	})
	entry := e.activity.Append(model.NewActivity{
		Type:           model.ActivityRegister,
		OldCount:       model.IntPtr(0),
		NewCount:       model.IntPtr(reg.Count),
		RegistrationID: model.Int64Ptr(reg.ID),
		Name:           reg.Name,
	})
	if err := e.persist(ctx, repository.Change{Op: repository.OpInsert, Registration: reg, Entry: entry}); err != nil {
		e.store.Remove(reg.ID)
		e.activity.Revert(entry.ID)
		return nil, err
	}

	e.logger.Info("registration created",
		"id", reg.ID, "name", reg.Name, "count", reg.Count, "owner", reg.OwnerID)
	return &reg, nil
}

// Update changes a registration's count. It returns repository.ErrNotFound
// for unknown ids and a *quota.Rejection when the new count is refused.
func (e *RegistrationEngine) Update(ctx context.Context, id int64, count int) (*model.Registration, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	existing, ok := e.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("update %d: %w", id, repository.ErrNotFound)
	}
	proposal := quota.Proposal{Name: existing.Name, OwnerID: existing.OwnerID, Count: count, UpdateID: id}
	if err := e.policy.Evaluate(e.store.List(), proposal, e.config.MaxCapacity); err != nil {
		return nil, e.rejected("update", existing.Name, err)
	}

	reg, _ := e.store.MutateCount(id, count)
	entry := e.activity.Append(model.NewActivity{
		Type:           model.ActivityUpdate,
		OldCount:       model.IntPtr(existing.Count),
		NewCount:       model.IntPtr(count),
		RegistrationID: model.Int64Ptr(id),
		Name:           existing.Name,
	})
	if err := e.persist(ctx, repository.Change{Op: repository.OpUpdateCount, Registration: reg, Entry: entry}); err != nil {
		e.store.MutateCount(id, existing.Count)
		e.activity.Revert(entry.ID)
		return nil, err
	}

	e.logger.Info("registration updated",
		"id", id, "name", reg.Name, "old_count", existing.Count, "new_count", count)
	return &reg, nil
}

// Delete removes a registration unconditionally. Deleting an id that does
// not exist, including one already deleted, returns repository.ErrNotFound.
func (e *RegistrationEngine) Delete(ctx context.Context, id int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	existing, ok := e.store.Get(id)
	if !ok {
		return fmt.Errorf("delete %d: %w", id, repository.ErrNotFound)
	}

	e.store.Remove(id)
	entry := e.activity.Append(model.NewActivity{
		Type:           model.ActivityCancel,
		OldCount:       model.IntPtr(existing.Count),
		NewCount:       model.IntPtr(0),
		RegistrationID: model.Int64Ptr(id),
		Name:           existing.Name,
	})
	if err := e.persist(ctx, repository.Change{Op: repository.OpDelete, Registration: existing, Entry: entry}); err != nil {
		e.store.Restore(existing)
		e.activity.Revert(entry.ID)
		return err
	}

	e.logger.Info("registration cancelled", "id", id, "name", existing.Name, "count", existing.Count)
	return nil
}

func (e *RegistrationEngine) persist(ctx context.Context, c repository.Change) error {
	if e.journal == nil {
		return nil
	}
	if err := e.journal.Commit(ctx, c); err != nil {
		e.logger.Error("journal commit failed",
			"op", c.Op.String(), "id", c.Registration.ID, "error", err)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

func (e *RegistrationEngine) rejected(op, name string, err error) error {
	if rej, ok := quota.AsRejection(err); ok {
		e.logger.Debug("registration rejected",
			"op", op, "name", name, "kind", rej.Kind.String(), "remaining", rej.Remaining)
	}
	return err
}

// List returns every registration in insertion order.
func (e *RegistrationEngine) List() []model.Registration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.List()
}

// Get returns one registration or repository.ErrNotFound.
func (e *RegistrationEngine) Get(id int64) (*model.Registration, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	reg, ok := e.store.Get(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &reg, nil
}

// FindByName looks a registration up by name, ignoring case.
func (e *RegistrationEngine) FindByName(name string) (*model.Registration, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	reg, ok := e.store.FindByName(strings.TrimSpace(name))
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &reg, nil
}

// ListByOwner returns the owner's registrations.
func (e *RegistrationEngine) ListByOwner(ownerID string) []model.Registration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.ListByOwner(ownerID)
}

// RecentActivity returns up to limit log entries, newest first.
func (e *RegistrationEngine) RecentActivity(limit int) []model.ActivityLogEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.activity.Recent(limit)
}

// Stats summarises capacity from current state.
func (e *RegistrationEngine) Stats() model.Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	current := e.store.TotalCount()
	return model.Stats{
		TotalRegistrations: e.store.Len(),
		CurrentCount:       current,
		AvailableSpots:     e.config.MaxCapacity - current,
		MaxCapacity:        e.config.MaxCapacity,
	}
}

// Config returns the current event configuration.
func (e *RegistrationEngine) Config() model.EventConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.config
}

// UpdateConfig applies a partial config change. Capacity may not drop
// below the participants already registered.
func (e *RegistrationEngine) UpdateConfig(ctx context.Context, patch model.EventConfigPatch) (model.EventConfig, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.config
	if patch.MaxCapacity != nil {
		if *patch.MaxCapacity <= 0 {
			return e.config, fmt.Errorf("%w: max capacity must be positive", ErrInvalidInput)
		}
		if total := e.store.TotalCount(); *patch.MaxCapacity < total {
			return e.config, fmt.Errorf("%w: max capacity %d is below the %d participants already registered",
				ErrInvalidInput, *patch.MaxCapacity, total)
		}
		next.MaxCapacity = *patch.MaxCapacity
	}
	if patch.EventName != nil {
		next.EventName = strings.TrimSpace(*patch.EventName)
	}
	if patch.ServerID != nil {
		next.ServerID = *patch.ServerID
	}
	if patch.ServerLabel != nil {
		next.ServerLabel = *patch.ServerLabel
	}

	if e.journal != nil {
		if err := e.journal.SaveConfig(ctx, next); err != nil {
			e.logger.Error("save config failed", "error", err)
			return e.config, fmt.Errorf("%w: %w", ErrPersistence, err)
		}
	}
	e.config = next
	e.logger.Info("event config updated", "max_capacity", next.MaxCapacity, "event", next.EventName)
	return next, nil
}
