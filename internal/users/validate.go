package users

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/GoUserDesk/GoUserDesk/internal/db/models"
)

const maxNameLength = 50

var validate = validator.New()

// Update carries the fields an administrator may change on a user.
// Nil fields are left untouched.
type Update struct {
	Name        *string `json:"name"`
	Role        *string `json:"role"`
	Email       *string `json:"email"`
	PhoneNumber *string `json:"phoneNumber"`
	Disabled    *bool   `json:"disabled"`
}

// ValidationError reports every problem found in an update at once.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, ", ")
}

// ValidateUpdate checks every provided field and collects all problems
// instead of stopping at the first, so the caller can report them
// together.
func ValidateUpdate(u *Update) error {
	var problems []string

	if u.Name != nil {
		switch {
		case strings.TrimSpace(*u.Name) == "":
			problems = append(problems, "Name must be a non-empty string")
		case len(*u.Name) > maxNameLength:
			problems = append(problems, "Name must be less than 50 characters")
		}
	}

	if u.Role != nil {
		if r, ok := models.ParseRole(*u.Role); !ok || r == models.RoleGuest {
			problems = append(problems, `Role must be either "user" or "admin"`)
		}
	}

	if u.Email != nil {
		if err := validate.Var(*u.Email, "required,email"); err != nil {
			problems = append(problems, "Email must be a valid email address")
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}

	return nil
}
