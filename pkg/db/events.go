package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urmzd/nxbridge/pkg/device"
)

// DefaultEventLimit caps List when the filter sets no limit.
const DefaultEventLimit = 100

// EventRecord is a stored change event.
type EventRecord struct {
	Seq     int64  `json:"seq"`
	Session string `json:"session,omitempty"`
	device.Event
}

// EventFilter narrows List. Zero fields match everything.
type EventFilter struct {
	Kind      device.Kind
	ID        int
	Attribute string
	Since     time.Time
	Limit     int
}

// EventStore keeps the history of delivered change events.
type EventStore interface {
	Record(ctx context.Context, session string, ev device.Event) error
	List(ctx context.Context, f EventFilter) ([]*EventRecord, error)
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// Events returns an EventStore for this database.
func (db *DB) Events() EventStore {
	return &eventStore{db: db}
}

type eventStore struct {
	db *DB
}

func (s *eventStore) Record(ctx context.Context, session string, ev device.Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (session, kind, device_id, attribute, value, ts)
		VALUES (?, ?, ?, ?, ?, ?)
	`, session, string(ev.Kind), ev.ID, ev.Attribute, ev.Value, ev.Timestamp.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

// List returns matching events, newest first.
func (s *eventStore) List(ctx context.Context, f EventFilter) ([]*EventRecord, error) {
	var (
		where []string
		args  []any
	)
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(f.Kind))
	}
	if f.ID > 0 {
		where = append(where, "device_id = ?")
		args = append(args, f.ID)
	}
	if f.Attribute != "" {
		where = append(where, "attribute = ?")
		args = append(args, f.Attribute)
	}
	if !f.Since.IsZero() {
		where = append(where, "ts >= ?")
		args = append(args, f.Since.UnixNano())
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultEventLimit
	}

	query := `SELECT id, session, kind, device_id, attribute, value, ts FROM events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY ts DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var events []*EventRecord
	for rows.Next() {
		e := &EventRecord{}
		var ts int64
		if err := rows.Scan(&e.Seq, &e.Session, &e.Kind, &e.ID, &e.Attribute, &e.Value, &ts); err != nil {
			return nil, err
		}
		e.Timestamp = time.Unix(0, ts).UTC()
		events = append(events, e)
	}
	return events, rows.Err()
}

// Prune deletes events older than before and returns how many were removed.
func (s *eventStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE ts < ?`, before.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to prune events: %w", err)
	}
	return result.RowsAffected()
}
