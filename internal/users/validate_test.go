package users

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestValidateUpdateAllValid(t *testing.T) {
	u := &Update{
		Name:  strPtr("Alice"),
		Role:  strPtr("admin"),
		Email: strPtr("alice@example.com"),
	}

	assert.NoError(t, ValidateUpdate(u))
}

func TestValidateUpdateEmptyIsValid(t *testing.T) {
	// nothing provided, nothing to complain about
	assert.NoError(t, ValidateUpdate(&Update{}))
}

func TestValidateUpdateNameAtLimitIsValid(t *testing.T) {
	// exactly 50 characters is still allowed
	assert.NoError(t, ValidateUpdate(&Update{Name: strPtr(strings.Repeat("A", maxNameLength))}))
}

func TestValidateUpdateCollectsAllProblems(t *testing.T) {
	u := &Update{
		Name: strPtr(""),
		Role: strPtr("owner"),
	}

	err := ValidateUpdate(u)
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Len(t, vErr.Problems, 2)
	assert.Equal(t, "Name must be a non-empty string", vErr.Problems[0])
	assert.Equal(t, `Role must be either "user" or "admin"`, vErr.Problems[1])
}

func TestValidateUpdateFieldProblems(t *testing.T) {
	tests := []struct {
		name    string
		update  Update
		problem string
	}{
		{
			name:    "blank name",
			update:  Update{Name: strPtr("   ")},
			problem: "Name must be a non-empty string",
		},
		{
			name:    "name too long",
			update:  Update{Name: strPtr(strings.Repeat("A", 51))},
			problem: "Name must be less than 50 characters",
		},
		{
			name:    "guest role not assignable",
			update:  Update{Role: strPtr("guest")},
			problem: `Role must be either "user" or "admin"`,
		},
		{
			name:    "bad email",
			update:  Update{Email: strPtr("not-an-email")},
			problem: "Email must be a valid email address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpdate(&tt.update)
			require.Error(t, err)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			require.Len(t, vErr.Problems, 1)
			assert.Equal(t, tt.problem, vErr.Problems[0])
		})
	}
}
