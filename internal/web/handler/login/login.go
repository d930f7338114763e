// Package login provides the sign-in endpoint. A successful sign-in
// establishes the session, issues the API ID token and tells the client
// where to navigate next, honoring the redirect parameter the route
// guard attached when it bounced the navigation here.
package login

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/GoUserDesk/GoUserDesk/internal/config"
	"github.com/GoUserDesk/GoUserDesk/internal/identity"
	"github.com/GoUserDesk/GoUserDesk/internal/token"
	"github.com/GoUserDesk/GoUserDesk/internal/web/handler"
	"github.com/GoUserDesk/GoUserDesk/internal/web/session"
)

const (
	// Path is the path to the login endpoint.
	Path = "/login"

	// DefaultRedirect is where a sign-in lands without a redirect parameter.
	DefaultRedirect = "/"
)

// Service is the login handler service.
type Service struct {
	cfg      *config.Config
	identity *identity.Service
	tokens   *token.JWTManager
}

// Handler is the login handler.
var Handler = Service{}

// Init initializes the login handler.
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

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Post handles the sign-in request.
func (s *Service) Post(c *fiber.Ctx) error {
	req := new(loginRequest)

	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid request body",
		})
	}

	sessionID, err := session.GenerateSessionID()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate session ID")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "internal server error",
		})
	}

	ident, err := s.identity.SignIn(sessionID, req.Email, req.Password)
	if err != nil {
		status := fiber.StatusUnauthorized
		if !errors.Is(err, identity.ErrInvalidCredentials) && !errors.Is(err, identity.ErrAccountDisabled) {
			log.Error().Err(err).Msg("sign-in failed")

			status = fiber.StatusInternalServerError
		}

		return c.Status(status).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid email or password",
		})
	}

	userSession := &session.Data{UID: ident.UID, Email: ident.Email}
	if err = userSession.Write(sessionID, s.cfg.Webserver.Session.ExpiryTime); err != nil {
		log.Error().Err(err).Msg("failed to write session")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "internal server error",
		})
	}

	idToken, err := s.tokens.Generate(ident.UID, ident.Email)
	if err != nil {
		log.Error().Err(err).Msg("failed to issue id token")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "internal server error",
		})
	}

	// set login cookie
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

	return c.JSON(fiber.Map{
		"success":  true,
		"idToken":  idToken,
		"redirect": redirectTarget(c.Query("redirect")),
	})
}

// redirectTarget validates the guard-provided redirect parameter.
// Only local paths are honored to keep the redirect on this site.
func redirectTarget(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") {
		return DefaultRedirect
	}

	return raw
}
