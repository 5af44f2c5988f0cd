package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/team-registration/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	counterRegistrations = "registrations"
	counterActivity      = "activity_logs"
)

// PostgresJournal mirrors engine writes into PostgreSQL using pgx directly.
type PostgresJournal struct {
	db *pgxpool.Pool
}

// NewPostgresJournal constructs a PostgresJournal.
func NewPostgresJournal(db *pgxpool.Pool) *PostgresJournal {
	return &PostgresJournal{db: db}
}

var _ Journal = (*PostgresJournal)(nil)

// Commit applies the registration change and the activity entry in one
// transaction, then prunes activity rows outside the retained window.
func (j *PostgresJournal) Commit(ctx context.Context, c Change) (err error) {
	tx, err := j.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	reg := c.Registration
	switch c.Op {
	case OpInsert:
		_, err = tx.Exec(ctx,
			`INSERT INTO registrations (id, name, count, owner_id, owner_label, registered_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			reg.ID, reg.Name, reg.Count, reg.OwnerID, reg.OwnerLabel, reg.RegisteredAt,
		)
	case OpUpdateCount:
		var tag pgconn.CommandTag
		tag, err = tx.Exec(ctx,
			`UPDATE registrations SET count = $2 WHERE id = $1`,
			reg.ID, reg.Count,
		)
		if err == nil && tag.RowsAffected() == 0 {
			err = ErrNotFound
		}
	case OpDelete:
		_, err = tx.Exec(ctx, `DELETE FROM registrations WHERE id = $1`, reg.ID)
	default:
		err = fmt.Errorf("unknown change op %d", c.Op)
	}
	if err != nil {
		return fmt.Errorf("%s registration: %w", c.Op, err)
	}

	e := c.Entry
	_, err = tx.Exec(ctx,
		`INSERT INTO activity_logs (id, type, old_count, new_count, registration_id, name, timestamp)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, string(e.Type), e.OldCount, e.NewCount, e.RegistrationID, e.Name, e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}

	if err = bumpCounter(ctx, tx, counterRegistrations, reg.ID+1); err != nil {
		return err
	}
	if err = bumpCounter(ctx, tx, counterActivity, e.ID+1); err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`DELETE FROM activity_logs
		 WHERE id NOT IN (
		     SELECT id FROM activity_logs ORDER BY timestamp DESC, id DESC LIMIT $1
		 )`,
		ActivityLogCapacity,
	)
	if err != nil {
		return fmt.Errorf("prune activity: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// SaveConfig upserts the singleton event config row.
func (j *PostgresJournal) SaveConfig(ctx context.Context, cfg model.EventConfig) error {
	_, err := j.db.Exec(ctx,
		`INSERT INTO event_config (id, max_capacity, event_name, server_id, server_label)
		 VALUES (1, $1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET
		     max_capacity = EXCLUDED.max_capacity,
		     event_name = EXCLUDED.event_name,
		     server_id = EXCLUDED.server_id,
		     server_label = EXCLUDED.server_label`,
		cfg.MaxCapacity, cfg.EventName, cfg.ServerID, cfg.ServerLabel,
	)
	if err != nil {
		return fmt.Errorf("save event config: %w", err)
	}
	return nil
}

// Load reads the persisted registrations, retained activity, config and id
// counters.
func (j *PostgresJournal) Load(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{NextRegistrationID: 1, NextActivityID: 1}

	rows, err := j.db.Query(ctx,
		`SELECT id, name, count, owner_id, owner_label, registered_at
		 FROM registrations
		 ORDER BY id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	for rows.Next() {
		var r model.Registration
		if err := rows.Scan(&r.ID, &r.Name, &r.Count, &r.OwnerID, &r.OwnerLabel, &r.RegisteredAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		snap.Registrations = append(snap.Registrations, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}

	rows, err = j.db.Query(ctx,
		`SELECT id, type, old_count, new_count, registration_id, name, timestamp
		 FROM activity_logs
		 ORDER BY timestamp DESC, id DESC
		 LIMIT $1`,
		ActivityLogCapacity,
	)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	for rows.Next() {
		var (
			e   model.ActivityLogEntry
			typ string
		)
		if err := rows.Scan(&e.ID, &typ, &e.OldCount, &e.NewCount, &e.RegistrationID, &e.Name, &e.Timestamp); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		e.Type = model.ActivityType(typ)
		snap.Activity = append(snap.Activity, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}

	// Ids of deleted registrations are gone from the tables, so the next
	// ids come from id_counters.
	rows, err = j.db.Query(ctx, `SELECT name, next_id FROM id_counters`)
	if err != nil {
		return nil, fmt.Errorf("read id counters: %w", err)
	}
	for rows.Next() {
		var (
			name string
			next int64
		)
		if err := rows.Scan(&name, &next); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan id counter: %w", err)
		}
		switch name {
		case counterRegistrations:
			snap.NextRegistrationID = next
		case counterActivity:
			snap.NextActivityID = next
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read id counters: %w", err)
	}

	var cfg model.EventConfig
	err = j.db.QueryRow(ctx,
		`SELECT max_capacity, event_name, server_id, server_label FROM event_config WHERE id = 1`,
	).Scan(&cfg.MaxCapacity, &cfg.EventName, &cfg.ServerID, &cfg.ServerLabel)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("get event config: %w", err)
	default:
		snap.Config = &cfg
	}

	return snap, nil
}

func bumpCounter(ctx context.Context, tx pgx.Tx, name string, next int64) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO id_counters (name, next_id) VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE SET next_id = GREATEST(id_counters.next_id, EXCLUDED.next_id)`,
		name, next,
	)
	if err != nil {
		return fmt.Errorf("bump %s counter: %w", name, err)
	}
	return nil
}
