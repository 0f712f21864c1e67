package isotp

import (
	"strings"
	"sync"
)

// State tracks where a transfer stands. It is a bit set because a
// sender can be mid transmission and waiting for flow control at the
// same time.
type State uint8

const (
	StateIdle         State = 0
	StateSending      State = 1 << 0
	StateWaitSingle   State = 1 << 1
	StateWaitFirst    State = 1 << 2
	StateWaitFlowCtrl State = 1 << 3
	StateWaitData     State = 1 << 4
	StateWaitBusy     State = 1 << 5
	StateFault        State = 1 << 7
)

func (s State) String() string {
	if s == StateIdle {
		return "Idle"
	}
	var parts []string
	for _, e := range []struct {
		bit  State
		name string
	}{
		{StateSending, "Sending"},
		{StateWaitSingle, "WaitSingle"},
		{StateWaitFirst, "WaitFirst"},
		{StateWaitFlowCtrl, "WaitFlowCtrl"},
		{StateWaitData, "WaitData"},
		{StateWaitBusy, "WaitBusy"},
		{StateFault, "Fault"},
	} {
		if s&e.bit != 0 {
			parts = append(parts, e.name)
		}
	}
	return strings.Join(parts, "|")
}

// EventType tags the notifications a transport emits while a transfer
// progresses.
type EventType uint8

const (
	// EventWait means the peer asked us to hold off via flow control.
	EventWait EventType = iota
	// EventFirstFrame means a segmented response started arriving.
	EventFirstFrame
	// EventData carries a fully reassembled message.
	EventData
	// EventError carries a protocol error, the transfer is aborted.
	EventError
)

// Event is one notification from the transport.
type Event struct {
	Type EventType
	// Data is the reassembled payload for EventData.
	Data []byte
	// Length is the announced message length for EventFirstFrame.
	Length uint32
	// Err is set for EventError.
	Err error
}

// Listener receives transport events as they happen. Implementations
// must not block.
type Listener interface {
	OnEvent(Event)
}

// transfer is the reassembly context for the receive direction and the
// pacing context for the send direction.
type transfer struct {
	mu       sync.Mutex
	state    State
	sequence uint8
	haveSeq  bool
	length   uint32
	buffer   []byte
}

func (t *transfer) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = StateIdle
	t.haveSeq = false
	t.length = 0
	t.buffer = nil
}

func (t *transfer) currentState() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *transfer) stateContains(flags State) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if flags == StateIdle {
		return t.state == StateIdle
	}
	return t.state&flags != 0
}

func (t *transfer) stateAppend(flags State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if flags == StateFault {
		t.state = StateFault
		return
	}
	t.state |= flags
}

func (t *transfer) stateRemove(flags State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state &^= flags
}

// onFirstFrame primes the reassembly buffer from a first frame.
func (t *transfer) onFirstFrame(length uint32, data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.length = length
	t.buffer = append(t.buffer[:0], data...)
	t.sequence = ConsecutiveSequenceStart
	t.haveSeq = true
	t.state = StateWaitData
}

// onConsecutive appends a consecutive frame, checking the sequence
// counter. It reports whether the message is now complete, and returns
// the payload when it is.
func (t *transfer) onConsecutive(sequence uint8, data []byte) (bool, []byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.haveSeq {
		return false, nil, &StateError{Found: t.state}
	}
	if sequence != t.sequence {
		return false, nil, &SequenceError{Actual: sequence, Expect: t.sequence}
	}
	if t.sequence >= 0x0F {
		t.sequence = 0
	} else {
		t.sequence++
	}

	remain := int(t.length) - len(t.buffer)
	if remain <= len(data) {
		t.buffer = append(t.buffer, data[:remain]...)
		payload := t.buffer
		t.buffer = nil
		t.haveSeq = false
		t.state = StateIdle
		return true, payload, nil
	}
	t.buffer = append(t.buffer, data...)
	return false, nil, nil
}
