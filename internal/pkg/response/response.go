// Package response writes the studio API's JSON envelope. Every reply carries a top-level
// "status" of "success" or "error"; errors nest their message and HTTP code under "error".
package response

import (
	"github.com/gofiber/fiber/v2"
)

type SuccessBody struct {
	Status   string      `json:"status"`
	Message  string      `json:"message"`
	Data     interface{} `json:"data"`
	Metadata interface{} `json:"metadata,omitempty"`
}

type ErrorBody struct {
	Status string      `json:"status"`
	Error  ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Message    string      `json:"message"`
	StatusCode int         `json:"statusCode"`
	Details    interface{} `json:"details,omitempty"`
}

const (
	statusSuccess = "success"
	statusError   = "error"

	// Fallbacks for the admin guards when the caller has nothing more specific to say.
	msgSignInRequired = "Studio admin sign-in required"
	msgAdminOnly      = "Only studio admins can do that"
)

func empty(v interface{}) interface{} {
	if v == nil {
		return map[string]interface{}{}
	}
	return v
}

func success(c *fiber.Ctx, code int, message string, data, metadata interface{}) error {
	return c.Status(code).JSON(SuccessBody{
		Status:   statusSuccess,
		Message:  message,
		Data:     data,
		Metadata: empty(metadata),
	})
}

// Success answers 200.
func Success(c *fiber.Ctx, message string, data interface{}, metadata interface{}) error {
	return success(c, fiber.StatusOK, message, data, metadata)
}

// SuccessCreated answers 201, used when a booking is submitted.
func SuccessCreated(c *fiber.Ctx, message string, data interface{}, metadata interface{}) error {
	return success(c, fiber.StatusCreated, message, data, metadata)
}

func Error(c *fiber.Ctx, message string, statusCode int, details interface{}) error {
	return c.Status(statusCode).JSON(ErrorBody{
		Status: statusError,
		Error: ErrorDetail{
			Message:    message,
			StatusCode: statusCode,
			Details:    empty(details),
		},
	})
}

// Unauthorized answers 401 for requests without an admin session.
func Unauthorized(c *fiber.Ctx, message string) error {
	if message == "" {
		message = msgSignInRequired
	}
	return Error(c, message, fiber.StatusUnauthorized, nil)
}

// Forbidden answers 403 for a signed-in user who lacks the admin role, or a bad ops key.
func Forbidden(c *fiber.Ctx, message string) error {
	if message == "" {
		message = msgAdminOnly
	}
	return Error(c, message, fiber.StatusForbidden, nil)
}
