package cantype

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidID      = errors.New("identifier out of range")
	ErrInvalidLength  = errors.New("invalid data length")
	ErrClosed         = errors.New("device closed")
	ErrDroppedFrame   = errors.New("adapter incoming channel full")
	ErrSendTimeout    = errors.New("timeout sending frame")
	ErrChannelClosed  = errors.New("response channel closed")
	ErrAdapterUnknown = errors.New("unknown adapter")
)

type TimeoutError struct {
	Timeout int64
	Frames  []uint32
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout (%dms) waiting for frame 0x%03X", e.Timeout, e.Frames)
}

type unrecoverableError struct {
	error
}

func (e unrecoverableError) Error() string {
	if e.error == nil {
		return "unrecoverable error"
	}
	return e.error.Error()
}

func (e unrecoverableError) Unwrap() error {
	return e.error
}

// Unrecoverable marks an error as not worth retrying.
func Unrecoverable(err error) error {
	return unrecoverableError{err}
}

// IsRecoverable reports whether err may be retried.
func IsRecoverable(err error) bool {
	var u unrecoverableError
	return !errors.As(err, &u)
}
