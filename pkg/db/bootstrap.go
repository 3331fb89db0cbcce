package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/urmzd/nxbridge/pkg/device"
	"github.com/urmzd/nxbridge/pkg/nx587e"
)

// Bootstrap seeds a default label for every configured zone and partition.
// Existing labels are left untouched, so raising the limits later only
// fills in the new devices.
func (db *DB) Bootstrap(ctx context.Context, limits nx587e.Limits) error {
	return db.Tx(ctx, func(tx *sql.Tx) error {
		for _, kind := range device.Kinds {
			highest, err := limits.Max(kind)
			if err != nil {
				return err
			}
			for id := 1; id <= highest; id++ {
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO labels (kind, device_id, name) VALUES (?, ?, ?)
					ON CONFLICT (kind, device_id) DO NOTHING
				`, string(kind), id, DefaultLabel(kind, id)); err != nil {
					return fmt.Errorf("failed to seed label for %s %d: %w", kind, id, err)
				}
			}
		}
		return nil
	})
}

// DefaultLabel returns the seeded name of a device, e.g. "Zone 3".
func DefaultLabel(kind device.Kind, id int) string {
	k := string(kind)
	if k == "" {
		return fmt.Sprintf("Device %d", id)
	}
	return fmt.Sprintf("%s%s %d", strings.ToUpper(k[:1]), k[1:], id)
}

// NeedsBootstrap returns true if no labels have been stored yet.
func (db *DB) NeedsBootstrap(ctx context.Context) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM labels`).Scan(&count)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}
