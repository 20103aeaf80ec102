package services

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument marks caller input the services refuse to act on.
var ErrInvalidArgument = errors.New("invalid argument")

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// IsInvalidArgument reports whether err was caused by bad caller input.
func IsInvalidArgument(err error) bool { return errors.Is(err, ErrInvalidArgument) }

func requireOwner(ownerID string) error {
	if ownerID == "" {
		return invalid("owner id is required")
	}
	return nil
}
