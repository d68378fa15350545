package model

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionStatusPending    SessionStatus = "pending"
	SessionStatusConfirmed  SessionStatus = "confirmed"
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusCancelled  SessionStatus = "cancelled"
)

// Active statuses block overlapping bookings for the same creator.
// Pending requests are non-binding and never block.
func (s SessionStatus) Active() bool {
	return s == SessionStatusConfirmed || s == SessionStatusInProgress
}

func (s SessionStatus) Terminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusCancelled
}

type VideoProvider string

const (
	VideoProviderJitsi VideoProvider = "jitsi"
	VideoProviderDaily VideoProvider = "daily"
)

type Session struct {
	ID              uuid.UUID     `db:"id" json:"id"`
	ConsumerID      uuid.UUID     `db:"consumer_id" json:"consumer_id"`
	CreatorID       uuid.UUID     `db:"creator_id" json:"creator_id"`
	ScheduledAt     time.Time     `db:"scheduled_at" json:"scheduled_at"`
	DurationMinutes int           `db:"duration_minutes" json:"duration_minutes"`
	Status          SessionStatus `db:"status" json:"status"`

	// Video metadata is absent until the session is confirmed and
	// immutable afterwards.
	VideoProvider *VideoProvider `db:"video_provider" json:"video_provider,omitempty"`
	RoomID        *string        `db:"room_id" json:"room_id,omitempty"`
	JoinURL       *string        `db:"join_url" json:"join_url,omitempty"`

	Price    *float64 `db:"price" json:"price,omitempty"`
	Currency *string  `db:"currency" json:"currency,omitempty"`

	StudentNotes *string `db:"student_notes" json:"student_notes,omitempty"`
	CreatorNotes *string `db:"creator_notes" json:"creator_notes,omitempty"`
	CancelReason *string `db:"cancel_reason" json:"cancel_reason,omitempty"`

	StartedAt *time.Time `db:"started_at" json:"started_at,omitempty"`
	EndedAt   *time.Time `db:"ended_at" json:"ended_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// EndAt returns the exclusive end of the session's window. It is always
// derived from scheduled_at + duration, never stored.
func (s *Session) EndAt() time.Time {
	return s.ScheduledAt.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

// Overlaps reports whether the session's window intersects the half-open
// interval [start, end). Touching endpoints do not overlap, so back-to-back
// bookings are allowed.
func (s *Session) Overlaps(start, end time.Time) bool {
	return s.ScheduledAt.Before(end) && start.Before(s.EndAt())
}

// IsParticipant reports whether userID is either party on the session.
func (s *Session) IsParticipant(userID uuid.UUID) bool {
	return userID == s.ConsumerID || userID == s.CreatorID
}
