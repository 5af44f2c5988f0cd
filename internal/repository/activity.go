package repository

import (
	"sort"
	"time"

	"github.com/Shivanand-hulikatti/team-registration/internal/model"
)

const (
	// ActivityLogCapacity is the number of entries the log retains.
	ActivityLogCapacity = 100
	// DefaultRecentLimit is used by Recent when no positive limit is given.
	DefaultRecentLimit = 10
)

// ActivityLog is the bounded, append-only history of registration
// transitions. Once the log is full, each append evicts the oldest entry.
type ActivityLog struct {
	entries []model.ActivityLogEntry
	nextID  int64
	now     func() time.Time

	// lastID and lastEvicted describe the most recent Append so it can be
	// reverted when the surrounding write fails to persist.
	lastID      int64
	lastEvicted []model.ActivityLogEntry
}

// NewActivityLog constructs an empty log whose ids start at 1.
func NewActivityLog(now func() time.Time) *ActivityLog {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &ActivityLog{nextID: 1, now: now}
}

// Seed loads previously persisted entries, trimming to capacity.
func (l *ActivityLog) Seed(entries []model.ActivityLogEntry, nextID int64) {
	for _, e := range entries {
		l.entries = append(l.entries, e)
		if e.ID >= nextID {
			nextID = e.ID + 1
		}
	}
	if nextID > l.nextID {
		l.nextID = nextID
	}
	l.evict()
}

// Append records a new entry, assigning its id and timestamp.
func (l *ActivityLog) Append(a model.NewActivity) model.ActivityLogEntry {
	entry := model.ActivityLogEntry{
		ID:             l.nextID,
		Type:           a.Type,
		OldCount:       a.OldCount,
		NewCount:       a.NewCount,
		RegistrationID: a.RegistrationID,
		Name:           a.Name,
		Timestamp:      l.now(),
	}
	l.nextID++
	l.entries = append(l.entries, entry)
	l.lastID = entry.ID
	l.lastEvicted = l.evict()
	return entry
}

// Revert undoes the most recent Append, restoring anything it evicted.
// It reports false if id is not the most recent append.
func (l *ActivityLog) Revert(id int64) bool {
	if id == 0 || id != l.lastID {
		return false
	}
	for i, e := range l.entries {
		if e.ID == id {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			break
		}
	}
	l.entries = append(l.lastEvicted, l.entries...)
	l.lastID = 0
	l.lastEvicted = nil
	return true
}

// Recent returns up to limit entries, newest first.
func (l *ActivityLog) Recent(limit int) []model.ActivityLogEntry {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	out := make([]model.ActivityLogEntry, len(l.entries))
	copy(out, l.entries)
	sort.Slice(out, func(i, j int) bool { return newer(out[i], out[j]) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Len reports the number of retained entries.
func (l *ActivityLog) Len() int { return len(l.entries) }

// evict drops the oldest entries beyond capacity and returns them.
func (l *ActivityLog) evict() []model.ActivityLogEntry {
	if len(l.entries) <= ActivityLogCapacity {
		return nil
	}
	sort.Slice(l.entries, func(i, j int) bool { return newer(l.entries[j], l.entries[i]) })
	n := len(l.entries) - ActivityLogCapacity
	evicted := make([]model.ActivityLogEntry, n)
	copy(evicted, l.entries[:n])
	l.entries = append(l.entries[:0], l.entries[n:]...)
	return evicted
}

// newer orders by timestamp, breaking ties by id.
func newer(a, b model.ActivityLogEntry) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.After(b.Timestamp)
	}
	return a.ID > b.ID
}
