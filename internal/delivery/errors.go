package delivery

import (
	"errors"
	"fmt"
)

var (
	ErrGuildNotFound      = errors.New("guild not found")
	ErrChannelNotFound    = errors.New("channel not found")
	ErrChannelNotSendable = errors.New("channel is not text-based")

	// ErrCanceled is surfaced by the channel path only; the DM path reports
	// cancellation in its Report instead of failing.
	ErrCanceled = errors.New("canceled")
)

// PlatformError wraps an opaque transport/platform failure. Nothing in the
// engine retries it; a single attempt is final.
type PlatformError struct {
	Op  string
	Err error
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("platform: %s: %v", e.Op, e.Err)
}

func (e *PlatformError) Unwrap() error { return e.Err }

func platformErr(op string, err error) error {
	return &PlatformError{Op: op, Err: err}
}
