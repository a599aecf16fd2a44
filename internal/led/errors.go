package led

import (
	"errors"
	"fmt"
)

// Error codes returned by drivers and the manager.
const (
	ErrCodeNotInitialized          = "NOT_INITIALIZED"
	ErrCodeAlreadyInitialized      = "ALREADY_INITIALIZED"
	ErrCodeInvalidPinConfiguration = "INVALID_PIN_CONFIGURATION"
	ErrCodeTimerAllocationFailed   = "TIMER_ALLOCATION_FAILED"
	ErrCodeInvalidPattern          = "INVALID_PATTERN"
	ErrCodeUnknownLED              = "UNKNOWN_LED"
	ErrCodeUnknownPattern          = "UNKNOWN_PATTERN"
)

// Error is an LED control error carrying a stable code.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same code, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinel errors for errors.Is comparisons.
var (
	ErrNotInitialized          = &Error{Code: ErrCodeNotInitialized, Message: "LED driver not initialized"}
	ErrAlreadyInitialized      = &Error{Code: ErrCodeAlreadyInitialized, Message: "LED driver already initialized"}
	ErrInvalidPinConfiguration = &Error{Code: ErrCodeInvalidPinConfiguration, Message: "pin cannot be configured as output"}
	ErrTimerAllocationFailed   = &Error{Code: ErrCodeTimerAllocationFailed, Message: "pattern timer could not be created"}
	ErrInvalidPattern          = &Error{Code: ErrCodeInvalidPattern, Message: "pattern has no intervals"}
	ErrUnknownLED              = &Error{Code: ErrCodeUnknownLED, Message: "no LED with that name"}
	ErrUnknownPattern          = &Error{Code: ErrCodeUnknownPattern, Message: "no pattern with that name"}
)

func newError(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsAlreadyInitialized reports whether err only signals a repeated Init call.
func IsAlreadyInitialized(err error) bool {
	return errors.Is(err, ErrAlreadyInitialized)
}
