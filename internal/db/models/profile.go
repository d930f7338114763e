package models

import "time"

// Profile is the application-level document associated with an identity
// by email match. It is created on registration and mutated only by the
// admin operations facade.
type Profile struct {
	// ID is the unique document identifier.
	ID uint64 `gorm:"primaryKey"`
	// Email joins the profile to an identity. Not unique at the schema
	// level: the resolution order for duplicates is defined by the
	// profile controller.
	Email string `gorm:"index;size:255;not null"`
	// Name is the user's display name.
	Name string `gorm:"size:100"`
	// Role is the application role granted to this profile.
	Role Role `gorm:"type:varchar(20);not null;default:'user'"`
	// CreatedAt is the timestamp when the profile was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the profile was last updated (managed by GORM).
	UpdatedAt time.Time
}
