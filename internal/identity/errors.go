package identity

import "github.com/pkg/errors"

var (
	// ErrInvalidCredentials indicates the email or password did not match.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountDisabled indicates the account exists but is blocked from signing in.
	ErrAccountDisabled = errors.New("account is disabled")
	// ErrAccountNotFound indicates no account matches the given identifier.
	ErrAccountNotFound = errors.New("account not found")
	// ErrEmailTaken indicates an account with this email already exists.
	ErrEmailTaken = errors.New("email is already registered")
	// ErrNoIDToken is returned when the OIDC token response carries no id_token.
	ErrNoIDToken = errors.New("no id_token in token response")
)
