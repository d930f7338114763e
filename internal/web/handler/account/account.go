// Package account serves the signed-in user's own account page data.
package account

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"github.com/GoUserDesk/GoUserDesk/internal/authstate"
	"github.com/GoUserDesk/GoUserDesk/internal/config"
	"github.com/GoUserDesk/GoUserDesk/internal/web/guard"
	"github.com/GoUserDesk/GoUserDesk/internal/web/handler"
)

// Path is the path to the account page.
const Path = handler.RootPath + "account"

// Service is the account handler service.
type Service struct {
	cfg *config.Config
}

// Handler is the account handler.
var Handler = Service{}

// Init initializes the account handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config) error {
	if app == nil || cfg == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg

	app.Get(Path, s.Get)

	return nil
}

// Get serves the caller's own auth state. The guard has already
// resolved it and rejected guests before this handler runs.
func (s *Service) Get(c *fiber.Ctx) error {
	state := authstate.Guest()
	if v, ok := c.Locals(guard.LocalsStateKey).(authstate.State); ok {
		state = v
	}

	return c.JSON(fiber.Map{
		"title": s.cfg.Title,
		"role":  state.Role,
		"email": state.Email,
		"name":  state.Name,
	})
}
