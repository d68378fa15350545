package repository

import (
	"booking-service/internal/model"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

// IsOverlapViolation reports whether err is the sessions_no_active_overlap
// exclusion constraint firing, i.e. a concurrent writer won the window.
func IsOverlapViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}

// SessionUpdate is a partial update applied with UpdateFields. Nil fields
// are left untouched.
type SessionUpdate struct {
	Status        *model.SessionStatus
	VideoProvider *model.VideoProvider
	RoomID        *string
	JoinURL       *string
	CreatorNotes  *string
	CancelReason  *string
	StartedAt     *time.Time
	EndedAt       *time.Time
}

type SessionRepository interface {
	Insert(ctx context.Context, session *model.Session) (*model.Session, error)
	FindByID(ctx context.Context, sessionID uuid.UUID) (*model.Session, error)
	FindByConsumer(ctx context.Context, consumerID uuid.UUID) ([]model.Session, error)
	FindByCreator(ctx context.Context, creatorID uuid.UUID) ([]model.Session, error)
	FindUpcomingByConsumer(ctx context.Context, consumerID uuid.UUID, after time.Time) ([]model.Session, error)
	FindActiveOverlapping(ctx context.Context, creatorID uuid.UUID, start, end time.Time) ([]model.Session, error)
	FindInWindow(ctx context.Context, creatorID uuid.UUID, from, to time.Time) ([]model.Session, error)
	UpdateFields(ctx context.Context, sessionID uuid.UUID, update SessionUpdate) (*model.Session, error)
}

type postgresSessionRepository struct {
	db *sqlx.DB
}

func NewPostgresSessionRepository(db *sqlx.DB) SessionRepository {
	return &postgresSessionRepository{db: db}
}

func (r *postgresSessionRepository) Insert(ctx context.Context, session *model.Session) (*model.Session, error) {
	query := `
		INSERT INTO sessions (consumer_id, creator_id, scheduled_at, duration_minutes, status, price, currency, student_notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	row := r.db.QueryRowxContext(ctx, query,
		session.ConsumerID, session.CreatorID, session.ScheduledAt, session.DurationMinutes,
		session.Status, session.Price, session.Currency, session.StudentNotes,
	)
	err := row.Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)

	if err != nil {
		return nil, err
	}

	return session, nil
}

func (r *postgresSessionRepository) FindByID(ctx context.Context, sessionID uuid.UUID) (*model.Session, error) {
	var session model.Session
	query := `SELECT * FROM sessions WHERE id = $1`
	err := r.db.GetContext(ctx, &session, query, sessionID)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	return &session, nil
}

func (r *postgresSessionRepository) FindByConsumer(ctx context.Context, consumerID uuid.UUID) ([]model.Session, error) {
	return r.selectSessions(ctx,
		`SELECT * FROM sessions WHERE consumer_id = $1 ORDER BY scheduled_at DESC`, consumerID)
}

func (r *postgresSessionRepository) FindByCreator(ctx context.Context, creatorID uuid.UUID) ([]model.Session, error) {
	return r.selectSessions(ctx,
		`SELECT * FROM sessions WHERE creator_id = $1 ORDER BY scheduled_at DESC`, creatorID)
}

func (r *postgresSessionRepository) FindUpcomingByConsumer(ctx context.Context, consumerID uuid.UUID, after time.Time) ([]model.Session, error) {
	query := `
		SELECT * FROM sessions
		WHERE consumer_id = $1 AND status = 'confirmed' AND scheduled_at > $2
		ORDER BY scheduled_at ASC
	`
	return r.selectSessions(ctx, query, consumerID, after)
}

func (r *postgresSessionRepository) FindActiveOverlapping(ctx context.Context, creatorID uuid.UUID, start, end time.Time) ([]model.Session, error) {
	// Half-open window comparison: a stored session [s, e) overlaps the
	// proposal [start, end) iff s < end AND start < e.
	query := `
		SELECT * FROM sessions
		WHERE creator_id = $1
		  AND status IN ('confirmed', 'in_progress')
		  AND scheduled_at < $3
		  AND scheduled_at + (duration_minutes * interval '1 minute') > $2
	`
	return r.selectSessions(ctx, query, creatorID, start, end)
}

func (r *postgresSessionRepository) FindInWindow(ctx context.Context, creatorID uuid.UUID, from, to time.Time) ([]model.Session, error) {
	query := `
		SELECT * FROM sessions
		WHERE creator_id = $1
		  AND scheduled_at < $3
		  AND scheduled_at + (duration_minutes * interval '1 minute') > $2
		ORDER BY scheduled_at ASC
	`
	return r.selectSessions(ctx, query, creatorID, from, to)
}

func (r *postgresSessionRepository) selectSessions(ctx context.Context, query string, args ...interface{}) ([]model.Session, error) {
	var sessions []model.Session
	err := r.db.SelectContext(ctx, &sessions, query, args...)
	if err != nil {
		return nil, err
	}

	if sessions == nil {
		sessions = []model.Session{}
	}

	return sessions, nil
}

func (r *postgresSessionRepository) UpdateFields(ctx context.Context, sessionID uuid.UUID, update SessionUpdate) (*model.Session, error) {
	sets := []string{"updated_at = now()"}
	args := []interface{}{}
	argID := 1

	addSet := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argID))
		args = append(args, value)
		argID++
	}

	if update.Status != nil {
		addSet("status", *update.Status)
	}
	if update.VideoProvider != nil {
		addSet("video_provider", *update.VideoProvider)
	}
	if update.RoomID != nil {
		addSet("room_id", *update.RoomID)
	}
	if update.JoinURL != nil {
		addSet("join_url", *update.JoinURL)
	}
	if update.CreatorNotes != nil {
		addSet("creator_notes", *update.CreatorNotes)
	}
	if update.CancelReason != nil {
		addSet("cancel_reason", *update.CancelReason)
	}
	if update.StartedAt != nil {
		addSet("started_at", *update.StartedAt)
	}
	if update.EndedAt != nil {
		addSet("ended_at", *update.EndedAt)
	}

	query := fmt.Sprintf(
		`UPDATE sessions SET %s WHERE id = $%d RETURNING *`,
		strings.Join(sets, ", "), argID,
	)
	args = append(args, sessionID)

	var session model.Session
	err := r.db.GetContext(ctx, &session, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	return &session, nil
}
