package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/urmzd/nxbridge/pkg/device"
)

// Label is the friendly name of one zone or partition.
type Label struct {
	Kind      device.Kind
	ID        int
	Name      string
	UpdatedAt time.Time
}

// LabelStore provides label CRUD operations.
type LabelStore interface {
	Get(ctx context.Context, kind device.Kind, id int) (*Label, error)
	List(ctx context.Context, kind device.Kind) ([]*Label, error)
	Set(ctx context.Context, kind device.Kind, id int, name string) error
	Delete(ctx context.Context, kind device.Kind, id int) error
}

// Labels returns a LabelStore for this database.
func (db *DB) Labels() LabelStore {
	return &labelStore{db: db}
}

type labelStore struct {
	db *DB
}

func (s *labelStore) Get(ctx context.Context, kind device.Kind, id int) (*Label, error) {
	l := &Label{}
	var updatedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT kind, device_id, name, updated_at
		FROM labels WHERE kind = ? AND device_id = ?
	`, string(kind), id).Scan(&l.Kind, &l.ID, &l.Name, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLabelNotFound
	}
	if err != nil {
		return nil, err
	}
	l.UpdatedAt, _ = time.Parse(time.DateTime, updatedAt)
	return l, nil
}

// List returns labels ordered by kind and id. An empty kind lists every label.
func (s *labelStore) List(ctx context.Context, kind device.Kind) ([]*Label, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, device_id, name, updated_at
		FROM labels WHERE ? = '' OR kind = ?
		ORDER BY kind DESC, device_id
	`, string(kind), string(kind))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var labels []*Label
	for rows.Next() {
		l := &Label{}
		var updatedAt string
		if err := rows.Scan(&l.Kind, &l.ID, &l.Name, &updatedAt); err != nil {
			return nil, err
		}
		l.UpdatedAt, _ = time.Parse(time.DateTime, updatedAt)
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

func (s *labelStore) Set(ctx context.Context, kind device.Kind, id int, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidLabel)
	}
	if id < 1 {
		return fmt.Errorf("%w: id %d", ErrInvalidLabel, id)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO labels (kind, device_id, name) VALUES (?, ?, ?)
		ON CONFLICT (kind, device_id) DO UPDATE SET name = excluded.name, updated_at = datetime('now')
	`, string(kind), id, name)
	if err != nil {
		return fmt.Errorf("failed to set label: %w", err)
	}
	return nil
}

func (s *labelStore) Delete(ctx context.Context, kind device.Kind, id int) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM labels WHERE kind = ? AND device_id = ?`, string(kind), id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrLabelNotFound
	}
	return nil
}
