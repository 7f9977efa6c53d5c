package models

import "time"

// RefreshToken is a server-side session handle. Access tokens are stateless
// JWTs; revocation works by deleting rows from this table.
type RefreshToken struct {
	UserID    string
	Token     string
	Expires   time.Time
	CreatedAt time.Time
}
