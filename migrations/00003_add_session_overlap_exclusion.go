package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upAddSessionOverlapExclusion, downAddSessionOverlapExclusion)
}

// The exclusion constraint is the database-side guard against two active
// sessions for the same creator occupying overlapping windows. The service
// also serializes check-then-insert per creator; this constraint covers
// writers on other instances.
func upAddSessionOverlapExclusion(ctx context.Context, tx *sql.Tx) error {
	query := `
		CREATE EXTENSION IF NOT EXISTS btree_gist;

		ALTER TABLE sessions ADD CONSTRAINT sessions_no_active_overlap
			EXCLUDE USING gist (
				creator_id WITH =,
				tstzrange(scheduled_at, scheduled_at + (duration_minutes * interval '1 minute')) WITH &&
			)
			WHERE (status IN ('confirmed', 'in_progress'));
	`

	_, err := tx.ExecContext(ctx, query)

	if err != nil {
		return err
	}

	return nil
}

func downAddSessionOverlapExclusion(ctx context.Context, tx *sql.Tx) error {
	query := `ALTER TABLE sessions DROP CONSTRAINT IF EXISTS sessions_no_active_overlap;`
	_, err := tx.ExecContext(ctx, query)

	if err != nil {
		return err
	}

	return nil
}
