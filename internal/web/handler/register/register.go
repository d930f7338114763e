// Package register provides the account registration endpoint.
// Registration creates the account together with its profile document
// and signs the new user in right away.
package register

import (
	"github.com/gofiber/fiber/v2"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/GoUserDesk/GoUserDesk/internal/config"
	"github.com/GoUserDesk/GoUserDesk/internal/db/models"
	"github.com/GoUserDesk/GoUserDesk/internal/identity"
	"github.com/GoUserDesk/GoUserDesk/internal/token"
	"github.com/GoUserDesk/GoUserDesk/internal/web/handler"
	"github.com/GoUserDesk/GoUserDesk/internal/web/session"
)

// Path is the path to the registration endpoint.
const Path = "/register"

var validate = validator.New()

// Service is the registration handler service.
type Service struct {
	cfg      *config.Config
	identity *identity.Service
	tokens   *token.JWTManager
}

// Handler is the registration handler.
var Handler = Service{}

// Init initializes the registration handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, ident *identity.Service,
	tokens *token.JWTManager,
) error {
	if app == nil || cfg == nil || ident == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.identity = ident
	s.tokens = tokens

	app.Post(Path, s.Post)

	return nil
}

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name"     validate:"required,max=50"`
	Role     string `json:"role"     validate:"omitempty,oneof=user admin"`
}

// Post handles the registration request.
func (s *Service) Post(c *fiber.Ctx) error {
	req := new(registerRequest)

	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid request body",
		})
	}

	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "email, password and name are required; role must be user or admin",
		})
	}

	sessionID, err := session.GenerateSessionID()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate session ID")

		return internalError(c)
	}

	ident, err := s.identity.SignUp(sessionID, req.Email, req.Password, req.Name,
		models.Role(req.Role))
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"success": false,
				"error":   identity.ErrEmailTaken.Error(),
			})
		}

		log.Error().Err(err).Msg("registration failed")

		return internalError(c)
	}

	userSession := &session.Data{UID: ident.UID, Email: ident.Email}
	if err = userSession.Write(sessionID, s.cfg.Webserver.Session.ExpiryTime); err != nil {
		log.Error().Err(err).Msg("failed to write session")

		return internalError(c)
	}

	idToken, err := s.tokens.Generate(ident.UID, ident.Email)
	if err != nil {
		log.Error().Err(err).Msg("failed to issue id token")

		return internalError(c)
	}

	cookieSettings := &fiber.Cookie{
		Name:     "session",
		Value:    sessionID,
		MaxAge:   int(s.cfg.Webserver.Session.ExpiryTime.Seconds()),
		Secure:   true,
		HTTPOnly: true,
		SameSite: "Lax",
	}

	if s.cfg.DevMode {
		cookieSettings.Secure = false
	}

	c.Cookie(cookieSettings)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":  true,
		"idToken":  idToken,
		"redirect": "/",
	})
}

func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"error":   "internal server error",
	})
}
