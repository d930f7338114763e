package models

import (
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
)

// Account represents an identity record at the identity provider.
// It carries authentication material and provider-side metadata only;
// the application-level name and role live on the Profile document
// joined by email.
type Account struct {
	// UID is the provider-assigned unique identifier.
	UID string `gorm:"primaryKey;size:36"`
	// Email is the account's email address, the join key to profiles.
	Email string `gorm:"uniqueIndex;size:255;not null"`
	// Password is the Argon2id hashed password (empty for OIDC accounts).
	Password string `gorm:"size:255"`
	// DisplayName is the provider-side display name.
	DisplayName string `gorm:"size:100"`
	// PhoneNumber is the provider-side phone number, if set.
	PhoneNumber string `gorm:"size:32"`
	// Disabled blocks sign-in when true.
	Disabled bool
	// EmailVerified indicates the address has been confirmed.
	EmailVerified bool
	// ExternalID is the external subject identifier for OIDC accounts.
	ExternalID string `gorm:"size:255"`
	// LastSignInAt is the timestamp of the most recent successful sign-in.
	LastSignInAt *time.Time
	// CreatedAt is the timestamp when the account was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the account was last updated (managed by GORM).
	UpdatedAt time.Time
}

// HashPassword hashes a plaintext password using the Argon2id algorithm.
// It uses the default Argon2id parameters for secure password hashing.
func HashPassword(password string) string {
	hashedPassword, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		log.Fatal().Msgf("failed to hash password: %v", err)
	}

	return hashedPassword
}

// VerifyPassword verifies a plaintext password against the account's stored hashed password.
// It uses constant-time comparison to prevent timing attacks.
// Returns true if the password matches, false otherwise.
func (a *Account) VerifyPassword(password string) bool {
	match, err := argon2id.ComparePasswordAndHash(password, a.Password)
	if err != nil {
		log.Error().Msgf("failed to verify password: %v", err)
		return false
	}

	return match
}
