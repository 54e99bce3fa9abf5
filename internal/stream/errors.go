package stream

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned for operations on an unknown or closed session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidMessageType is returned by Dispatch for unknown message types.
	ErrInvalidMessageType = errors.New("invalid message type")
	// ErrRegistryClosed is returned by Connect after Shutdown.
	ErrRegistryClosed = errors.New("registry is shut down")
)

// DeliveryError reports an outbound write that failed after all retries.
type DeliveryError struct {
	SessionID string
	Attempts  int
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to session %s failed after %d attempts: %v", e.SessionID, e.Attempts, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
