package authstate

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoUserDesk/GoUserDesk/internal/db/controller/profile"
	"github.com/GoUserDesk/GoUserDesk/internal/db/models"
	"github.com/GoUserDesk/GoUserDesk/internal/identity"
)

func lookupFrom(profiles map[string]*models.Profile) ProfileLookup {
	return func(email string) (*models.Profile, error) {
		p, ok := profiles[email]
		if !ok {
			return nil, profile.ErrProfileNotFound
		}

		return p, nil
	}
}

func adminLookup() ProfileLookup {
	return lookupFrom(map[string]*models.Profile{
		"admin@example.com": {Email: "admin@example.com", Name: "Admin", Role: models.RoleAdmin},
	})
}

func testCache() *Cache {
	return NewCache(newMemStorage(), time.Hour)
}

func TestStoreStartsAsUninitializedGuest(t *testing.T) {
	s := NewStore("sess-1", testCache(), adminLookup())

	assert.False(t, s.Initialized())
	assert.Equal(t, Guest(), s.Current())

	select {
	case <-s.Ready():
		t.Fatal("ready channel closed before initialization")
	default:
	}
}

func TestApplySignInResolvesProfile(t *testing.T) {
	s := NewStore("sess-1", testCache(), adminLookup())

	s.Apply(identity.Event{
		Seq:       1,
		SessionID: "sess-1",
		Identity:  &identity.Identity{UID: "u1", Email: "admin@example.com", DisplayName: "ignored"},
	})

	assert.True(t, s.Initialized())

	state := s.Current()
	assert.Equal(t, models.RoleAdmin, state.Role)
	assert.Equal(t, "admin@example.com", state.Email)
	assert.Equal(t, "Admin", state.Name)

	select {
	case <-s.Ready():
	default:
		t.Fatal("ready channel not closed after first definitive state")
	}
}

func TestApplyWithoutProfileStaysGuest(t *testing.T) {
	s := NewStore("sess-1", testCache(), lookupFrom(nil))

	s.Apply(identity.Event{
		Seq:       1,
		SessionID: "sess-1",
		Identity:  &identity.Identity{UID: "u1", Email: "new@example.com", DisplayName: "Newcomer"},
	})

	// an identity without a matching profile never gains a role
	assert.Equal(t, Guest(), s.Current())
	assert.True(t, s.Initialized())
}

func TestApplyLookupFailureKeepsCurrentState(t *testing.T) {
	cache := testCache()
	require.NoError(t, cache.Save("sess-1", State{
		Role: models.RoleAdmin, Email: "admin@example.com", Name: "Admin",
	}))

	failing := ProfileLookup(func(string) (*models.Profile, error) {
		return nil, errors.New("database is down")
	})

	s := NewStore("sess-1", cache, failing)
	s.LoadCachedState()

	s.Apply(identity.Event{
		Seq:       1,
		SessionID: "sess-1",
		Identity:  &identity.Identity{UID: "u1", Email: "admin@example.com"},
	})

	// a profile-store outage leaves the cached state untouched
	assert.Equal(t, models.RoleAdmin, s.Current().Role)
	assert.True(t, s.Initialized())
}

func TestApplyNilIdentityClearsToGuest(t *testing.T) {
	cache := testCache()
	s := NewStore("sess-1", cache, adminLookup())

	s.Apply(identity.Event{
		Seq:       1,
		SessionID: "sess-1",
		Identity:  &identity.Identity{UID: "u1", Email: "admin@example.com"},
	})
	require.Equal(t, models.RoleAdmin, s.Current().Role)

	s.Apply(identity.Event{Seq: 2, SessionID: "sess-1"})

	assert.Equal(t, Guest(), s.Current())

	// sign-out also clears the persisted cache
	_, err := cache.Load("sess-1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestApplyDiscardsStaleEvent(t *testing.T) {
	s := NewStore("sess-1", testCache(), adminLookup())

	// newer sign-out lands first
	s.Apply(identity.Event{Seq: 2, SessionID: "sess-1"})

	// the older sign-in result must not overwrite it
	s.Apply(identity.Event{
		Seq:       1,
		SessionID: "sess-1",
		Identity:  &identity.Identity{UID: "u1", Email: "admin@example.com"},
	})

	assert.Equal(t, Guest(), s.Current())
}

func TestInitializedExactlyOnce(t *testing.T) {
	s := NewStore("sess-1", testCache(), adminLookup())

	s.Apply(identity.Event{
		Seq:       1,
		SessionID: "sess-1",
		Identity:  &identity.Identity{UID: "u1", Email: "admin@example.com"},
	})
	s.Apply(identity.Event{Seq: 2, SessionID: "sess-1"})
	s.MarkInitialized()

	// a second transition must not panic on a re-closed channel and the
	// state must reflect the latest event
	assert.True(t, s.Initialized())
	assert.Equal(t, Guest(), s.Current())
}

func TestApplyWritesCache(t *testing.T) {
	cache := testCache()
	s := NewStore("sess-1", cache, adminLookup())

	s.Apply(identity.Event{
		Seq:       1,
		SessionID: "sess-1",
		Identity:  &identity.Identity{UID: "u1", Email: "admin@example.com"},
	})

	cached, err := cache.Load("sess-1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, cached.Role)
	assert.Equal(t, "admin@example.com", cached.Email)
}

func TestLoadCachedStateIsProvisional(t *testing.T) {
	cache := testCache()
	require.NoError(t, cache.Save("sess-1", State{
		Role: models.RoleAdmin, Email: "admin@example.com", Name: "Admin",
	}))

	s := NewStore("sess-1", cache, adminLookup())
	s.LoadCachedState()

	// cached state renders immediately but does not count as initialized
	assert.Equal(t, models.RoleAdmin, s.Current().Role)
	assert.False(t, s.Initialized())
}

func TestLoadCachedStateClearsCorruptEntry(t *testing.T) {
	st := newMemStorage()
	cache := NewCache(st, time.Hour)
	require.NoError(t, st.Set("authstate:sess-1:role", []byte("bogus"), 0))

	s := NewStore("sess-1", cache, adminLookup())
	s.LoadCachedState()

	assert.Equal(t, Guest(), s.Current())

	raw, err := st.Get("authstate:sess-1:role")
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestManagerFreshIsInitializedGuest(t *testing.T) {
	m := NewManager(testCache(), adminLookup())

	s := m.Fresh("sess-1")

	assert.True(t, s.Initialized())
	assert.Equal(t, Guest(), s.Current())
}

func TestManagerResumeLoadsCacheAndRestores(t *testing.T) {
	cache := testCache()
	require.NoError(t, cache.Save("sess-1", State{
		Role: models.RoleAdmin, Email: "admin@example.com", Name: "Admin",
	}))

	m := NewManager(cache, adminLookup())

	restored := make(chan string, 1)
	m.SetRestoreFunc(func(sessionID string) { restored <- sessionID })

	s := m.Resume("sess-1")

	assert.Equal(t, models.RoleAdmin, s.Current().Role)
	assert.False(t, s.Initialized())

	select {
	case sid := <-restored:
		assert.Equal(t, "sess-1", sid)
	case <-time.After(time.Second):
		t.Fatal("restore hook not invoked")
	}

	// resuming again reuses the store and does not restore twice
	again := m.Resume("sess-1")
	assert.Same(t, s, again)
}

func TestManagerDispatchReachesStore(t *testing.T) {
	m := NewManager(testCache(), adminLookup())

	m.Dispatch(identity.Event{
		Seq:       1,
		SessionID: "sess-1",
		Identity:  &identity.Identity{UID: "u1", Email: "admin@example.com"},
	})

	s, ok := m.Get("sess-1")
	require.True(t, ok)

	select {
	case <-s.Ready():
	case <-time.After(time.Second):
		t.Fatal("store never became ready")
	}

	assert.Equal(t, models.RoleAdmin, s.Current().Role)
}

func TestManagerDrop(t *testing.T) {
	m := NewManager(testCache(), adminLookup())

	m.Fresh("sess-1")
	m.Drop("sess-1")

	_, ok := m.Get("sess-1")
	assert.False(t, ok)
}
