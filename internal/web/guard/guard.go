// Package guard provides the role-based navigation guard middleware.
//
// Every page request passes through the guard. Requests to restricted
// paths wait, bounded by a timeout, until the session's auth state is
// initialized, then either proceed, bounce guests to the login page
// with the original destination preserved, or send insufficient roles
// back to the home page.
package guard

import (
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoUserDesk/GoUserDesk/internal/authstate"
	"github.com/GoUserDesk/GoUserDesk/internal/db/models"
)

// LocalsStateKey is the fiber.Locals key under which the guard exposes
// the session's auth state to downstream handlers.
const LocalsStateKey = "AuthState"

// Config wires the guard to its collaborators.
type Config struct {
	Policy      Policy
	States      *authstate.Manager
	WaitTimeout time.Duration
	LoginPath   string
	HomePath    string
}

// New creates the guard middleware.
func New(cfg Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		roles, restricted := cfg.Policy.Allowed(c.Path())

		sessionID := c.Cookies("session")

		// unrestricted paths never wait on state resolution, but a
		// known session still gets its state exposed when available
		if !restricted {
			if sessionID != "" {
				if store, ok := cfg.States.Get(sessionID); ok {
					c.Locals(LocalsStateKey, store.Current())
				}
			}

			return c.Next()
		}

		// no session at all: definitively a guest
		if sessionID == "" {
			return redirectToLogin(c, cfg.LoginPath)
		}

		store := cfg.States.Resume(sessionID)

		select {
		case <-store.Ready():
		case <-time.After(cfg.WaitTimeout):
			log.Warn().Str("path", c.Path()).
				Msg("auth state not initialized within wait timeout, using last known state")
		}

		state := store.Current()

		if !state.Role.In(roles) {
			if state.Role != models.RoleGuest {
				// signed in but not privileged enough
				return c.Redirect(cfg.HomePath)
			}

			return redirectToLogin(c, cfg.LoginPath)
		}

		c.Locals(LocalsStateKey, state)

		return c.Next()
	}
}

func redirectToLogin(c *fiber.Ctx, loginPath string) error {
	target := loginPath + "?redirect=" + url.QueryEscape(c.OriginalURL())

	return c.Redirect(target)
}
