//go:build !linux

package led

import "errors"

var errUnsupportedPlatform = errors.New("GPIO backends are only available on Linux")

// NewGPIOCdev is not available on this platform.
func NewGPIOCdev(_ string) (Output, error) {
	return nil, errUnsupportedPlatform
}

// NewRPIO is not available on this platform.
func NewRPIO() (Output, error) {
	return nil, errUnsupportedPlatform
}
