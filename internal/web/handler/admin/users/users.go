// Package users provides the admin user management page. Access is
// restricted to administrators by the route guard.
package users

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/GoUserDesk/GoUserDesk/internal/config"
	"github.com/GoUserDesk/GoUserDesk/internal/users"
	"github.com/GoUserDesk/GoUserDesk/internal/web/handler"
)

// Path is the path to the admin user management page.
const Path = handler.RootPath + "admin/users"

// Service is the admin users handler service.
type Service struct {
	cfg   *config.Config
	users *users.Service
}

// Handler is the admin users handler.
var Handler = Service{}

// Init initializes the admin users handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, usersSvc *users.Service) error {
	if app == nil || cfg == nil || usersSvc == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.users = usersSvc

	app.Get(Path, s.Get)

	return nil
}

// Get serves the user listing for the management page.
func (s *Service) Get(c *fiber.Ctx) error {
	list, err := s.users.List()
	if err != nil {
		log.Error().Err(err).Msg("failed to list users")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "internal server error",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"users":   list,
	})
}
