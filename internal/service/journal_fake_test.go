package service

import (
	"context"
	"sync"

	"github.com/Shivanand-hulikatti/team-registration/internal/model"
	"github.com/Shivanand-hulikatti/team-registration/internal/repository"
)

// fakeJournal records commits in memory and can be told to fail.
type fakeJournal struct {
	mu        sync.Mutex
	changes   []repository.Change
	configs   []model.EventConfig
	snapshot  *repository.Snapshot
	commitErr error
	configErr error
}

func newFakeJournal() *fakeJournal {
	return &fakeJournal{snapshot: &repository.Snapshot{NextRegistrationID: 1, NextActivityID: 1}}
}

func (j *fakeJournal) WithCommitError(err error) *fakeJournal {
	j.mu.Lock()
	j.commitErr = err
	j.mu.Unlock()
	return j
}

func (j *fakeJournal) WithConfigError(err error) *fakeJournal {
	j.mu.Lock()
	j.configErr = err
	j.mu.Unlock()
	return j
}

func (j *fakeJournal) Commit(ctx context.Context, c repository.Change) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.commitErr != nil {
		return j.commitErr
	}
	j.changes = append(j.changes, c)
	return nil
}

func (j *fakeJournal) SaveConfig(ctx context.Context, cfg model.EventConfig) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.configErr != nil {
		return j.configErr
	}
	j.configs = append(j.configs, cfg)
	return nil
}

func (j *fakeJournal) Load(ctx context.Context) (*repository.Snapshot, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.snapshot, nil
}

func (j *fakeJournal) Changes() []repository.Change {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]repository.Change(nil), j.changes...)
}
