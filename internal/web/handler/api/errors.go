package api

import "github.com/gofiber/fiber/v2"

// error codes returned in the response envelope
const (
	CodeUnauthenticated  = "unauthenticated"
	CodePermissionDenied = "permission-denied"
	CodeNotFound         = "not-found"
	CodeInvalidArgument  = "invalid-argument"
	CodeInternal         = "internal"
	CodeDeadlineExceeded = "deadline-exceeded"
)

// codeMessages are the fixed human readable messages per error code.
var codeMessages = map[string]string{
	CodeUnauthenticated:  "Authentication required. Please sign in again.",
	CodePermissionDenied: "Admin access required. Only administrators can send emails.",
	CodeNotFound:         "User not found.",
	CodeInternal:         "Server error. Please try again later.",
	CodeDeadlineExceeded: "Request timed out. Please try again.",
}

// codeStatus maps error codes to HTTP status codes.
var codeStatus = map[string]int{
	CodeUnauthenticated:  fiber.StatusUnauthorized,
	CodePermissionDenied: fiber.StatusForbidden,
	CodeNotFound:         fiber.StatusNotFound,
	CodeInvalidArgument:  fiber.StatusBadRequest,
	CodeInternal:         fiber.StatusInternalServerError,
	CodeDeadlineExceeded: fiber.StatusGatewayTimeout,
}

// fail writes the error envelope for a code. An explicit message
// overrides the fixed one, which invalid-argument responses use to
// report the collected validation problems.
func fail(c *fiber.Ctx, code, message string) error {
	if message == "" {
		message = codeMessages[code]
	}

	return c.Status(codeStatus[code]).JSON(fiber.Map{
		"success": false,
		"code":    code,
		"message": message,
	})
}
