package repository

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/team-registration/internal/database"
	"github.com/Shivanand-hulikatti/team-registration/internal/logging"
	"github.com/Shivanand-hulikatti/team-registration/internal/model"
)

// setupPostgres returns a journal over a freshly migrated and emptied
// database. It skips unless TEAMREG_TEST_DATABASE_URL is set.
func setupPostgres(t *testing.T) *PostgresJournal {
	t.Helper()
	dsn := os.Getenv("TEAMREG_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEAMREG_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	require.NoError(t, database.Migrate(dsn))
	pool, err := database.NewPool(ctx, dsn, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `TRUNCATE registrations, activity_logs, event_config, id_counters`)
	require.NoError(t, err)
	return NewPostgresJournal(pool)
}

func commitInsert(t *testing.T, j *PostgresJournal, s *RegistrationStore, l *ActivityLog, name, owner string, count int) model.Registration {
	t.Helper()
	reg := s.Insert(model.NewRegistration{Name: name, Count: count, OwnerID: owner, OwnerLabel: owner})
	entry := l.Append(model.NewActivity{
		Type:           model.ActivityRegister,
		OldCount:       model.IntPtr(0),
		NewCount:       model.IntPtr(count),
		RegistrationID: model.Int64Ptr(reg.ID),
		Name:           name,
	})
	require.NoError(t, j.Commit(context.Background(), Change{Op: OpInsert, Registration: reg, Entry: entry}))
	return reg
}

func commitUpdate(t *testing.T, j *PostgresJournal, s *RegistrationStore, l *ActivityLog, id int64, count int) {
	t.Helper()
	old, ok := s.Get(id)
	require.True(t, ok)
	reg, _ := s.MutateCount(id, count)
	entry := l.Append(model.NewActivity{
		Type:           model.ActivityUpdate,
		OldCount:       model.IntPtr(old.Count),
		NewCount:       model.IntPtr(count),
		RegistrationID: model.Int64Ptr(id),
		Name:           reg.Name,
	})
	require.NoError(t, j.Commit(context.Background(), Change{Op: OpUpdateCount, Registration: reg, Entry: entry}))
}

func TestPostgresJournal_RoundTrip(t *testing.T) {
	j := setupPostgres(t)
	ctx := context.Background()
	store, log := NewRegistrationStore(fixedClock()), NewActivityLog(fixedClock())

	owls := commitInsert(t, j, store, log, "Owls", "u1", 4)
	larks := commitInsert(t, j, store, log, "Larks", "u2", 3)
	commitUpdate(t, j, store, log, owls.ID, 7)

	store.Remove(larks.ID)
	entry := log.Append(model.NewActivity{
		Type:           model.ActivityCancel,
		OldCount:       model.IntPtr(larks.Count),
		NewCount:       model.IntPtr(0),
		RegistrationID: model.Int64Ptr(larks.ID),
		Name:           larks.Name,
	})
	require.NoError(t, j.Commit(ctx, Change{Op: OpDelete, Registration: larks, Entry: entry}))

	snap, err := j.Load(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Registrations, 1)
	assert.Equal(t, owls.ID, snap.Registrations[0].ID)
	assert.Equal(t, 7, snap.Registrations[0].Count)
	assert.True(t, owls.RegisteredAt.Equal(snap.Registrations[0].RegisteredAt))

	// The deleted registration's id stays consumed.
	assert.Equal(t, int64(3), snap.NextRegistrationID)
	assert.Equal(t, int64(5), snap.NextActivityID)

	require.Len(t, snap.Activity, 4)
	assert.Equal(t, model.ActivityCancel, snap.Activity[0].Type)
	assert.Equal(t, "Larks", snap.Activity[0].Name)
	assert.Equal(t, model.ActivityRegister, snap.Activity[3].Type)
	assert.Nil(t, snap.Config)

	restored := NewRegistrationStore(nil)
	restored.Seed(snap.Registrations, snap.NextRegistrationID)
	assert.Equal(t, int64(3), restored.Insert(model.NewRegistration{Name: "Crows", Count: 1, OwnerID: "u3"}).ID)
}

func TestPostgresJournal_UpdateMissingRegistration(t *testing.T) {
	j := setupPostgres(t)
	log := NewActivityLog(fixedClock())

	entry := log.Append(model.NewActivity{Type: model.ActivityUpdate, Name: "Ghost"})
	err := j.Commit(context.Background(), Change{
		Op:           OpUpdateCount,
		Registration: model.Registration{ID: 42, Name: "Ghost", Count: 2},
		Entry:        entry,
	})
	require.ErrorIs(t, err, ErrNotFound)

	snap, err := j.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Activity, "failed commit must roll back the activity row")
}

func TestPostgresJournal_PrunesActivity(t *testing.T) {
	j := setupPostgres(t)
	store, log := NewRegistrationStore(fixedClock()), NewActivityLog(fixedClock())

	owls := commitInsert(t, j, store, log, "Owls", "u1", 1)
	for i := 0; i < ActivityLogCapacity+4; i++ {
		commitUpdate(t, j, store, log, owls.ID, i%model.MaxTeamSize+1)
	}

	snap, err := j.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Activity, ActivityLogCapacity)
	assert.Equal(t, int64(ActivityLogCapacity+5), snap.Activity[0].ID)
	assert.Equal(t, int64(6), snap.Activity[ActivityLogCapacity-1].ID)
	assert.Equal(t, int64(ActivityLogCapacity+6), snap.NextActivityID)
}

func TestPostgresJournal_SaveConfig(t *testing.T) {
	j := setupPostgres(t)
	ctx := context.Background()

	cfg := model.EventConfig{MaxCapacity: 96, EventName: "Gaming Event", ServerLabel: "Discord Server"}
	require.NoError(t, j.SaveConfig(ctx, cfg))
	cfg.MaxCapacity = 50
	cfg.ServerID = "srv-1"
	require.NoError(t, j.SaveConfig(ctx, cfg))

	snap, err := j.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap.Config)
	assert.Equal(t, cfg, *snap.Config)
}
