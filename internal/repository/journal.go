package repository

import (
	"context"

	"github.com/Shivanand-hulikatti/team-registration/internal/model"
)

// ChangeOp identifies how a Change affects the registration row.
type ChangeOp int

const (
	OpInsert ChangeOp = iota + 1
	OpUpdateCount
	OpDelete
)

func (op ChangeOp) String() string {
	switch op {
	case OpInsert:
		return "insert"
	case OpUpdateCount:
		return "update_count"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Change is one committed engine write: the registration as it stands
// after the operation (or as it stood before, for deletes) and the activity
// entry describing it.
type Change struct {
	Op           ChangeOp
	Registration model.Registration
	Entry        model.ActivityLogEntry
}

// Snapshot is the persisted state used to rehydrate the in-memory store
// and log at startup.
type Snapshot struct {
	Registrations      []model.Registration
	Activity           []model.ActivityLogEntry
	Config             *model.EventConfig
	NextRegistrationID int64
	NextActivityID     int64
}

// Journal persists committed changes. It is called synchronously inside
// the engine's critical section; a returned error means nothing was
// persisted and the in-memory change must be undone.
type Journal interface {
	Commit(ctx context.Context, c Change) error
	SaveConfig(ctx context.Context, cfg model.EventConfig) error
	Load(ctx context.Context) (*Snapshot, error)
}
