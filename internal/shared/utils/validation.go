package utils

import (
	"errors"
	"fmt"
	"regexp"
)

// MaxNameLength bounds process and component names
const MaxNameLength = 64

// SafeNamePattern allows alphanumeric, hyphens, underscores
var SafeNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ErrInvalidName is returned for names that cannot address a process
var ErrInvalidName = errors.New("invalid name")

// ValidateName checks that name can be used as a process or bus address
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrInvalidName, len(name), MaxNameLength)
	}
	if !SafeNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q must be alphanumeric with - or _", ErrInvalidName, name)
	}
	return nil
}
