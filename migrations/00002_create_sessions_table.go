package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateSessionsTable, downCreateSessionsTable)
}

func upCreateSessionsTable(ctx context.Context, tx *sql.Tx) error {
	query := `
		CREATE TABLE sessions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			consumer_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			creator_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			scheduled_at TIMESTAMP WITH TIME ZONE NOT NULL,
			duration_minutes INT NOT NULL CHECK (duration_minutes >= 15),
			status TEXT NOT NULL DEFAULT 'pending'
				CHECK (status IN ('pending', 'confirmed', 'in_progress', 'completed', 'cancelled')),
			video_provider TEXT,
			room_id TEXT,
			join_url TEXT,
			price NUMERIC(10, 2),
			currency CHAR(3),
			student_notes TEXT,
			creator_notes TEXT,
			cancel_reason TEXT,
			started_at TIMESTAMP WITH TIME ZONE,
			ended_at TIMESTAMP WITH TIME ZONE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT now()
		);

		CREATE INDEX idx_sessions_consumer ON sessions (consumer_id, scheduled_at);
		CREATE INDEX idx_sessions_creator ON sessions (creator_id, scheduled_at);
	`

	_, err := tx.ExecContext(ctx, query)

	if err != nil {
		return err
	}

	return nil
}

func downCreateSessionsTable(ctx context.Context, tx *sql.Tx) error {
	query := `DROP TABLE IF EXISTS sessions;`
	_, err := tx.ExecContext(ctx, query)

	if err != nil {
		return err
	}

	return nil
}
