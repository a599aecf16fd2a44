package api

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/statusled/internal/led"
)

// ledError maps LED control errors onto HTTP problems.
func ledError(err error) error {
	var e *led.Error
	if !errors.As(err, &e) {
		return huma.Error500InternalServerError("LED operation failed", err)
	}

	switch e.Code {
	case led.ErrCodeUnknownLED:
		return huma.Error404NotFound(e.Message)
	case led.ErrCodeUnknownPattern, led.ErrCodeInvalidPattern:
		return huma.Error422UnprocessableEntity(e.Message)
	case led.ErrCodeNotInitialized:
		return huma.Error409Conflict(e.Message)
	default:
		return huma.Error500InternalServerError(e.Message, err)
	}
}
