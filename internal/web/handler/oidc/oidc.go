// Package oidc provides sign-in through a remote OpenID Connect provider.
package oidc

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoUserDesk/GoUserDesk/internal/config"
	"github.com/GoUserDesk/GoUserDesk/internal/identity"
	"github.com/GoUserDesk/GoUserDesk/internal/web/handler"
	"github.com/GoUserDesk/GoUserDesk/internal/web/session"
)

const (
	// LoginPath is the path to initiate OIDC login.
	LoginPath = handler.RootPath + "auth/oidc/login"

	// CallbackPath is the path for OIDC callback.
	CallbackPath = handler.RootPath + "auth/oidc/callback"

	stateExpiry     = 5 * time.Minute
	cleanupInterval = time.Minute
)

// Service is the OIDC handler service.
type Service struct {
	cfg      *config.Config
	provider *identity.OIDCProvider

	mu         sync.Mutex
	stateStore map[string]time.Time // state tokens pending callback
}

// Handler is the OIDC handler.
var Handler = Service{
	stateStore: make(map[string]time.Time),
}

// Init initializes the OIDC handler. When OIDC is disabled or the
// provider cannot be reached the routes stay unregistered and the rest
// of the application runs without OIDC.
func (s *Service) Init(app *fiber.App, cfg *config.Config, ident *identity.Service) {
	if app == nil || cfg == nil || ident == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg

	if !cfg.Auth.OIDC.Enabled {
		return
	}

	provider, err := identity.NewOIDCProvider(context.Background(), &cfg.Auth.OIDC, ident)
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize OIDC provider, OIDC sign-in disabled")

		return
	}

	s.provider = provider

	log.Info().Msg("OIDC authentication provider initialized")

	app.Get(LoginPath, s.Login)
	app.Get(CallbackPath, s.Callback)

	go s.cleanupStates()
}

// Login initiates the OIDC login flow.
func (s *Service) Login(c *fiber.Ctx) error {
	state := identity.GenerateStateToken()

	s.mu.Lock()
	s.stateStore[state] = time.Now().Add(stateExpiry)
	s.mu.Unlock()

	return c.Redirect(s.provider.GetAuthURL(state))
}

// Callback handles the OIDC callback and signs the session in.
func (s *Service) Callback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")

	if code == "" || state == "" {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid callback parameters")
	}

	if !s.consumeState(state) {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid state token")
	}

	sessionID, err := session.GenerateSessionID()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate session ID")

		return c.Status(fiber.StatusInternalServerError).SendString("Internal server error")
	}

	ident, err := s.provider.HandleCallback(c.Context(), sessionID, code)
	if err != nil {
		log.Error().Err(err).Msg("OIDC authentication failed")

		return c.Status(fiber.StatusUnauthorized).SendString("Authentication failed")
	}

	userSession := &session.Data{UID: ident.UID, Email: ident.Email}
	if err = userSession.Write(sessionID, s.cfg.Webserver.Session.ExpiryTime); err != nil {
		log.Error().Err(err).Msg("failed to write session")

		return c.Status(fiber.StatusInternalServerError).SendString("Internal server error")
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

	log.Info().Str("uid", ident.UID).Msg("signed in via OIDC")

	return c.Redirect("/")
}

// consumeState checks and invalidates a state token in one step.
func (s *Service) consumeState(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiration, exists := s.stateStore[state]
	if !exists {
		return false
	}

	delete(s.stateStore, state)

	return time.Now().Before(expiration)
}

// cleanupStates periodically removes expired state tokens.
func (s *Service) cleanupStates() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()

		s.mu.Lock()
		for state, expiration := range s.stateStore {
			if now.After(expiration) {
				delete(s.stateStore, state)
			}
		}
		s.mu.Unlock()
	}
}
