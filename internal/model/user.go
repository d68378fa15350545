package model

import (
	"time"

	"github.com/google/uuid"
)

// User rows exist only as foreign-key targets for session participants.
// Registration and login live in the identity service.
type User struct {
	ID        uuid.UUID `db:"id"`
	Email     string    `db:"email"`
	Name      string    `db:"name"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
