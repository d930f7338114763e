// Package logout provides the sign-out endpoint.
package logout

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoUserDesk/GoUserDesk/internal/authstate"
	"github.com/GoUserDesk/GoUserDesk/internal/config"
	"github.com/GoUserDesk/GoUserDesk/internal/identity"
	"github.com/GoUserDesk/GoUserDesk/internal/web/handler"
	"github.com/GoUserDesk/GoUserDesk/internal/web/handler/login"
	"github.com/GoUserDesk/GoUserDesk/internal/web/session"
)

// Service is the logout handler service.
type Service struct {
	cfg      *config.Config
	identity *identity.Service
	states   *authstate.Manager
}

// Handler is the logout handler.
var Handler = Service{}

// Init initializes the logout handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, ident *identity.Service,
	states *authstate.Manager,
) {
	if app == nil || cfg == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.identity = ident
	s.states = states

	// logout route (outside guard protection)
	app.Get(handler.RootPath+"logout", s.Logout)
	app.Post(handler.RootPath+"logout", s.Logout)
}

// Logout signs the session out: the identity service publishes the
// signed-out event, the session record is removed and the cookie is
// cleared.
func (s *Service) Logout(c *fiber.Ctx) error {
	sessionID := c.Cookies("session")
	if sessionID != "" {
		s.identity.SignOut(sessionID)
		s.states.Drop(sessionID)

		// Delete session from store
		if err := session.Store.Storage.Delete(sessionID); err != nil {
			log.Error().Err(err).Msg("failed to delete session")
		}
	}

	// Clear the session cookie
	c.Cookie(&fiber.Cookie{
		Name:     "session",
		Value:    "",
		MaxAge:   -1,
		Secure:   true,
		HTTPOnly: true,
		SameSite: "Lax",
	})

	return c.Redirect(login.Path)
}
