package models

import "time"

// RefreshToken is an issued refresh token. Logout deletes it; refresh requires it.
type RefreshToken struct {
	ID        string    `db:"id"`
	Token     string    `db:"token"`
	UserID    string    `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
}
