// Package api implements the JSON operations API. Every endpoint is a
// POST carrying a JSON body, authenticated by a bearer ID token and
// answered with a {success, ...} envelope, so browser clients and
// scripts share one calling convention.
package api

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/GoUserDesk/GoUserDesk/internal/config"
	"github.com/GoUserDesk/GoUserDesk/internal/mailer"
	"github.com/GoUserDesk/GoUserDesk/internal/token"
	"github.com/GoUserDesk/GoUserDesk/internal/users"
	"github.com/GoUserDesk/GoUserDesk/internal/web/handler"
)

const (
	// Path is the base path of the operations API.
	Path = handler.RootPath + "api"

	// localsClaimsKey carries the verified token claims through the
	// request context.
	localsClaimsKey = "TokenClaims"

	// sendTimeout bounds one email delivery attempt.
	sendTimeout = 30 * time.Second
)

// Service is the operations API handler service.
type Service struct {
	cfg    *config.Config
	users  *users.Service
	tokens *token.JWTManager
}

// Handler is the operations API handler.
var Handler = Service{}

// Init initializes the operations API handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, usersSvc *users.Service,
	tokens *token.JWTManager,
) error {
	if app == nil || cfg == nil || usersSvc == nil || tokens == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.users = usersSvc
	s.tokens = tokens

	app.Route(Path, func(router fiber.Router) {
		router.Use(s.requireAuth, s.requireAdmin)

		router.Post("/getAllUsers", s.GetAllUsers)
		router.Post("/updateUser", s.UpdateUser)
		router.Post("/deleteUser", s.DeleteUser)
		router.Post("/sendEmailWithAttachments", s.SendEmail)
	})

	return nil
}

// requireAuth verifies the bearer ID token and stores its claims in the
// request context.
func (s *Service) requireAuth(c *fiber.Ctx) error {
	auth := c.Get(fiber.HeaderAuthorization)

	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return fail(c, CodeUnauthenticated, "")
	}

	claims, err := s.tokens.Verify(strings.TrimPrefix(auth, prefix))
	if err != nil {
		return fail(c, CodeUnauthenticated, "")
	}

	c.Locals(localsClaimsKey, claims)

	return c.Next()
}

// requireAdmin allows only callers whose profile carries the admin role.
func (s *Service) requireAdmin(c *fiber.Ctx) error {
	claims, ok := c.Locals(localsClaimsKey).(*token.Claims)
	if !ok {
		return fail(c, CodeUnauthenticated, "")
	}

	if !s.users.IsAdmin(claims.Email) {
		return fail(c, CodePermissionDenied, "")
	}

	return c.Next()
}

// GetAllUsers returns every user merged with their profile document.
func (s *Service) GetAllUsers(c *fiber.Ctx) error {
	list, err := s.users.List()
	if err != nil {
		log.Error().Err(err).Msg("failed to list users")

		return fail(c, CodeInternal, "")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"users":   list,
		"total":   len(list),
	})
}

type updateUserRequest struct {
	UID     string       `json:"uid"`
	Updates users.Update `json:"updates"`
}

// UpdateUser applies validated changes to a user's account and profile.
func (s *Service) UpdateUser(c *fiber.Ctx) error {
	req := new(updateUserRequest)

	if err := c.BodyParser(req); err != nil || req.UID == "" {
		return fail(c, CodeInvalidArgument, "A user id is required")
	}

	result, err := s.users.Update(req.UID, &req.Updates)
	if err != nil {
		var vErr *users.ValidationError
		switch {
		case errors.As(err, &vErr):
			return fail(c, CodeInvalidArgument, strings.Join(vErr.Problems, ", "))
		case errors.Is(err, users.ErrUserNotFound):
			return fail(c, CodeNotFound, "")
		default:
			log.Error().Err(err).Str("uid", req.UID).Msg("failed to update user")

			return fail(c, CodeInternal, "")
		}
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"message":       "User updated successfully",
		"updateResults": result,
	})
}

type deleteUserRequest struct {
	UID string `json:"uid"`
}

// DeleteUser removes a user's account together with their profile documents.
func (s *Service) DeleteUser(c *fiber.Ctx) error {
	req := new(deleteUserRequest)

	if err := c.BodyParser(req); err != nil || req.UID == "" {
		return fail(c, CodeInvalidArgument, "A user id is required")
	}

	result, err := s.users.Delete(req.UID)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return fail(c, CodeNotFound, "")
		}

		log.Error().Err(err).Str("uid", req.UID).Msg("failed to delete user")

		return fail(c, CodeInternal, "")
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"message":       "User deleted successfully",
		"deletedUser":   fiber.Map{"uid": result.UID, "email": result.Email},
		"deleteResults": result,
	})
}

type sendEmailRequest struct {
	To          []string            `json:"to"`
	Subject     string              `json:"subject"`
	Text        string              `json:"text"`
	Attachments []mailer.Attachment `json:"attachments"`
}

// SendEmail broadcasts a message with optional attachments.
func (s *Service) SendEmail(c *fiber.Ctx) error {
	req := new(sendEmailRequest)

	if err := c.BodyParser(req); err != nil {
		return fail(c, CodeInvalidArgument, "invalid request body")
	}

	if len(req.To) == 0 || strings.TrimSpace(req.Subject) == "" || strings.TrimSpace(req.Text) == "" {
		return fail(c, CodeInvalidArgument, "Recipients, subject and text are required")
	}

	ctx, cancel := context.WithTimeout(c.Context(), sendTimeout)
	defer cancel()

	messageID, err := s.users.Broadcast(ctx, &mailer.Message{
		To:          req.To,
		Subject:     req.Subject,
		Text:        req.Text,
		Attachments: req.Attachments,
	})
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return fail(c, CodeDeadlineExceeded, "")
		case errors.Is(err, mailer.ErrInvalidAttachment),
			errors.Is(err, mailer.ErrAttachmentTooLarge),
			errors.Is(err, mailer.ErrNoRecipients):
			return fail(c, CodeInvalidArgument, err.Error())
		default:
			log.Error().Err(err).Msg("failed to send email")

			return fail(c, CodeInternal, "")
		}
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "Email sent successfully",
		"messageId": messageID,
	})
}
