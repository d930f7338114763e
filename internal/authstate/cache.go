// Package authstate tracks the authentication state of every active
// session: the resolved role, email and display name, a persisted cache
// for instant state on the next request, and a one-shot readiness
// signal navigations can wait on.
package authstate

import (
	"time"

	"github.com/gofiber/storage"
	"github.com/pkg/errors"

	"github.com/GoUserDesk/GoUserDesk/internal/db/models"
)

var (
	// ErrCacheMiss indicates no cached state exists for the session.
	ErrCacheMiss = errors.New("no cached auth state for session")
	// ErrCacheCorrupt indicates the cached state exists but cannot be
	// trusted, for example an unknown role value.
	ErrCacheCorrupt = errors.New("cached auth state is corrupt")
)

// cache key suffixes, one entry per cached field
const (
	keyRole  = ":role"
	keyEmail = ":email"
	keyName  = ":name"

	cachePrefix = "authstate:"
)

// State is the authentication state of one session as seen by the
// route guard and the page handlers.
type State struct {
	Role  models.Role
	Email string
	Name  string
}

// Guest is the state of a session without a signed-in identity.
func Guest() State {
	return State{Role: models.RoleGuest}
}

// Cache persists per-session auth state in a storage backend so that a
// session keeps its last known role across process restarts.
type Cache struct {
	storage storage.Storage
	expiry  time.Duration
}

// NewCache creates a cache on the given storage backend. Entries expire
// together with the session they belong to.
func NewCache(st storage.Storage, expiry time.Duration) *Cache {
	return &Cache{storage: st, expiry: expiry}
}

// Load reads the cached state for a session. It returns ErrCacheMiss
// when nothing is cached and ErrCacheCorrupt when the cached role is
// not a known value; the caller decides how to degrade.
func (c *Cache) Load(sessionID string) (State, error) {
	rawRole, err := c.storage.Get(cachePrefix + sessionID + keyRole)
	if err != nil {
		return Guest(), errors.Wrap(err, "failed to read cached role")
	}

	if len(rawRole) == 0 {
		return Guest(), ErrCacheMiss
	}

	role, ok := models.ParseRole(string(rawRole))
	if !ok {
		return Guest(), ErrCacheCorrupt
	}

	email, err := c.storage.Get(cachePrefix + sessionID + keyEmail)
	if err != nil {
		return Guest(), errors.Wrap(err, "failed to read cached email")
	}

	name, err := c.storage.Get(cachePrefix + sessionID + keyName)
	if err != nil {
		return Guest(), errors.Wrap(err, "failed to read cached name")
	}

	return State{Role: role, Email: string(email), Name: string(name)}, nil
}

// Save writes the session's state to the cache.
func (c *Cache) Save(sessionID string, s State) error {
	if err := c.storage.Set(cachePrefix+sessionID+keyRole, []byte(s.Role), c.expiry); err != nil {
		return errors.Wrap(err, "failed to cache role")
	}

	if err := c.storage.Set(cachePrefix+sessionID+keyEmail, []byte(s.Email), c.expiry); err != nil {
		return errors.Wrap(err, "failed to cache email")
	}

	if err := c.storage.Set(cachePrefix+sessionID+keyName, []byte(s.Name), c.expiry); err != nil {
		return errors.Wrap(err, "failed to cache name")
	}

	return nil
}

// Clear removes the session's cached state.
func (c *Cache) Clear(sessionID string) error {
	for _, suffix := range []string{keyRole, keyEmail, keyName} {
		if err := c.storage.Delete(cachePrefix + sessionID + suffix); err != nil {
			return errors.Wrap(err, "failed to clear cached auth state")
		}
	}

	return nil
}
