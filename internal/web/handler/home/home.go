// Package home provides the public landing endpoint.
package home

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"github.com/GoUserDesk/GoUserDesk/internal/authstate"
	"github.com/GoUserDesk/GoUserDesk/internal/config"
	"github.com/GoUserDesk/GoUserDesk/internal/web/guard"
	"github.com/GoUserDesk/GoUserDesk/internal/web/handler"
)

// Path is the path to the home page.
const Path = handler.RootPath

// Service is the home handler service.
type Service struct {
	cfg *config.Config
}

// Handler is the home handler.
var Handler = Service{}

// Init initializes the home handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config) error {
	if app == nil || cfg == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg

	app.Get(Path, s.Get)
	app.Get(handler.RootPath+"home", s.Get)

	return nil
}

// Get serves the landing page data. The guard exposes the session's
// auth state when one is known; guests get a guest view.
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
