package authstate

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/GoUserDesk/GoUserDesk/internal/db/controller/profile"
	"github.com/GoUserDesk/GoUserDesk/internal/db/models"
	"github.com/GoUserDesk/GoUserDesk/internal/identity"
)

// ProfileLookup resolves the profile document matching an email
// address. It returns profile.ErrProfileNotFound when no document
// matches.
type ProfileLookup func(email string) (*models.Profile, error)

// Store holds the auth state of a single session. Identity change
// events mutate it through Apply; everything else only reads. Readiness
// is signalled exactly once per store by closing the ready channel, so
// any number of waiting navigations unblock together.
type Store struct {
	sessionID string
	cache     *Cache
	lookup    ProfileLookup

	mu          sync.Mutex
	state       State
	appliedSeq  uint64
	initialized bool

	ready     chan struct{}
	readyOnce sync.Once
}

// NewStore creates the state store for one session, starting as an
// uninitialized guest.
func NewStore(sessionID string, cache *Cache, lookup ProfileLookup) *Store {
	return &Store{
		sessionID: sessionID,
		cache:     cache,
		lookup:    lookup,
		state:     Guest(),
		ready:     make(chan struct{}),
	}
}

// LoadCachedState primes the store from the persisted cache. The cached
// role is provisional: it does not mark the store initialized, it only
// lets pages render the last known state while the real resolution
// runs. A corrupt entry is cleared and ignored.
func (s *Store) LoadCachedState() {
	cached, err := s.cache.Load(s.sessionID)

	switch {
	case errors.Is(err, ErrCacheMiss):
		return
	case errors.Is(err, ErrCacheCorrupt):
		log.Warn().Str("session", s.sessionID).Msg("clearing corrupt auth state cache entry")

		if err := s.cache.Clear(s.sessionID); err != nil {
			log.Error().Err(err).Str("session", s.sessionID).Msg("failed to clear auth state cache")
		}

		return
	case err != nil:
		log.Error().Err(err).Str("session", s.sessionID).Msg("failed to load cached auth state")

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		s.state = cached
	}
}

// Apply processes one identity change event for this session. The
// profile resolution runs without the lock held; if a newer event has
// been applied in the meantime the stale result is discarded.
func (s *Store) Apply(ev identity.Event) {
	if ev.Identity == nil {
		s.applySignedOut(ev.Seq)

		return
	}

	resolved, ok := s.resolve(ev.Identity)

	s.mu.Lock()

	if ev.Seq <= s.appliedSeq {
		s.mu.Unlock()
		log.Debug().Str("session", s.sessionID).Uint64("seq", ev.Seq).
			Msg("discarding stale identity resolution")

		return
	}

	s.appliedSeq = ev.Seq
	if ok {
		s.state = resolved
	}
	s.mu.Unlock()

	if ok {
		if err := s.cache.Save(s.sessionID, resolved); err != nil {
			log.Error().Err(err).Str("session", s.sessionID).Msg("failed to cache auth state")
		}
	}

	s.markInitialized()
}

func (s *Store) applySignedOut(seq uint64) {
	s.mu.Lock()

	if seq <= s.appliedSeq {
		s.mu.Unlock()

		return
	}

	s.appliedSeq = seq
	s.state = Guest()
	s.mu.Unlock()

	if err := s.cache.Clear(s.sessionID); err != nil {
		log.Error().Err(err).Str("session", s.sessionID).Msg("failed to clear auth state cache")
	}

	s.markInitialized()
}

// resolve builds the state for a signed-in identity. When no profile
// document matches, or the lookup fails, no state is produced and the
// store keeps whatever the cache or defaults provided; a role is never
// invented for an identity without a profile.
func (s *Store) resolve(ident *identity.Identity) (State, bool) {
	p, err := s.lookup(ident.Email)

	switch {
	case errors.Is(err, profile.ErrProfileNotFound):
		log.Warn().Str("email", ident.Email).
			Msg("no profile for signed-in identity, keeping current state")

		return State{}, false
	case err != nil:
		log.Error().Err(err).Str("email", ident.Email).
			Msg("profile lookup failed, keeping current state")

		return State{}, false
	}

	resolved := State{
		Role:  p.Role,
		Email: ident.Email,
		Name:  ident.DisplayName,
	}

	if p.Name != "" {
		resolved.Name = p.Name
	}

	return resolved, true
}

// MarkInitialized signals readiness without an identity event. It is
// used for fresh sessions that have no identity to wait for.
func (s *Store) MarkInitialized() {
	s.markInitialized()
}

func (s *Store) markInitialized() {
	s.readyOnce.Do(func() {
		s.mu.Lock()
		s.initialized = true
		s.mu.Unlock()

		close(s.ready)
	})
}

// Ready returns a channel that is closed once the store has applied its
// first definitive state. Waiters select on it together with a timeout.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Initialized reports whether the first definitive state has been applied.
func (s *Store) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.initialized
}

// Current returns the session's current auth state.
func (s *Store) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}
