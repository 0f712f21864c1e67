package isotp

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyPDU   = errors.New("empty pdu")
	ErrInvalidPDU = errors.New("invalid pdu")
	// ErrOverload is returned when the receiver answers a first frame
	// with an overflow flow status.
	ErrOverload = errors.New("flow control overload")
	// ErrTimeout is returned when a flow control or consecutive frame
	// does not arrive in time.
	ErrTimeout = errors.New("transfer timed out")
	ErrClosed  = errors.New("transport closed")
)

// LengthError reports a payload that does not fit the frame carrying it.
type LengthError struct {
	Actual int
	Expect int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("invalid length %d, at most %d", e.Actual, e.Expect)
}

// SequenceError reports an out of order consecutive frame.
type SequenceError struct {
	Actual uint8
	Expect uint8
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("sequence number %d, expected %d", e.Actual, e.Expect)
}

// StateError reports a frame that is not valid in the current transfer
// state, for example a consecutive frame with no first frame before it.
type StateError struct {
	Found State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("unexpected frame in state %s", e.Found)
}
