// Package identity implements the identity provider: local email/password
// accounts, optional OIDC sign-in, and the identity-change event stream
// that per-session auth state stores subscribe to.
package identity

// Identity is the resolved identity of a signed-in account as published
// on the event stream. A nil *Identity on an Event means signed out.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
}

// Event is a single identity change for one session. Seq increases
// monotonically across all events published by one Service, so a
// consumer can discard results that belong to an older event than the
// last one it applied.
type Event struct {
	Seq       uint64
	SessionID string
	Identity  *Identity
}

// Subscriber receives identity change events. Handlers are invoked in
// publish order; a handler that needs to do slow work should hand the
// event off and return.
type Subscriber func(Event)
