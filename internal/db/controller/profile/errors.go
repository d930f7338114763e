package profile

import "github.com/pkg/errors"

// ErrProfileNotFound indicates that no profile document matches the query.
var ErrProfileNotFound = errors.New("profile not found")
