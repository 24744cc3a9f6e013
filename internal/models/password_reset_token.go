package models

import "time"

// PasswordResetToken is one issued reset code. Only the sha256 of the code is
// stored; the plain code exists in the outbound email alone.
type PasswordResetToken struct {
	ID        string
	Email     string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token can no longer be redeemed at now.
func (t *PasswordResetToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
