package users

import (
	"time"

	"github.com/GoUserDesk/GoUserDesk/internal/db/models"
)

// placeholder values for fields without data
const (
	unknownName   = "Unknown"
	notSetPhone   = "Not set"
	neverSignedIn = "Never"
)

// User is the merged view of an account and its profile document as
// returned by the listing API.
type User struct {
	UID           string      `json:"uid"`
	Email         string      `json:"email"`
	Name          string      `json:"name"`
	Role          models.Role `json:"role"`
	PhoneNumber   string      `json:"phoneNumber"`
	Disabled      bool        `json:"disabled"`
	EmailVerified bool        `json:"emailVerified"`
	CreatedAt     string      `json:"createdAt"`
	LastSignIn    string      `json:"lastSignIn"`
}

// Format merges an account with its profile document, substituting
// readable placeholders for missing data. A nil profile degrades to the
// plain user role and the account's display name.
func Format(account *models.Account, profile *models.Profile) User {
	u := User{
		UID:           account.UID,
		Email:         account.Email,
		Name:          account.DisplayName,
		Role:          models.RoleUser,
		PhoneNumber:   account.PhoneNumber,
		Disabled:      account.Disabled,
		EmailVerified: account.EmailVerified,
		CreatedAt:     account.CreatedAt.Format(time.RFC3339),
		LastSignIn:    neverSignedIn,
	}

	if profile != nil {
		u.Role = profile.Role

		if profile.Name != "" {
			u.Name = profile.Name
		}
	}

	if u.Name == "" {
		u.Name = unknownName
	}

	if u.PhoneNumber == "" {
		u.PhoneNumber = notSetPhone
	}

	if account.LastSignInAt != nil {
		u.LastSignIn = account.LastSignInAt.Format(time.RFC3339)
	}

	return u
}
