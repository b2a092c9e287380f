package types

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("%d: %s [type: %s]", e.Code, e.Message, e.Type)
}

// Unauthorized is deliberately generic: callers must not be able to tell
// which credential sub-check failed.
func Unauthorized(errorType string) *CustomError {
	return &CustomError{
		Code:    fiber.StatusUnauthorized,
		Message: "Not authenticated",
		Type:    errorType,
	}
}

func Forbidden(message, errorType string) *CustomError {
	return &CustomError{
		Code:    fiber.StatusForbidden,
		Message: message,
		Type:    errorType,
	}
}

func NotFound(message, errorType string) *CustomError {
	return &CustomError{
		Code:    fiber.StatusNotFound,
		Message: message,
		Type:    errorType,
	}
}

func Conflict(message, errorType string) *CustomError {
	return &CustomError{
		Code:    fiber.StatusConflict,
		Message: message,
		Type:    errorType,
	}
}

func Validation(message, errorType string) *CustomError {
	return &CustomError{
		Code:    fiber.StatusBadRequest,
		Message: message,
		Type:    errorType,
	}
}

// AsCustomError unwraps err into a *CustomError if possible.
func AsCustomError(err error) (*CustomError, bool) {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
