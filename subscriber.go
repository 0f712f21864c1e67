package cantype

import (
	"context"
	"sync"
	"time"
)

// Sub is a live subscription to frames matching a set of identifiers.
type Sub struct {
	cl           *Client
	identifiers  map[uint32]struct{}
	filterCount  int
	responseChan chan *Message
	closeOnce    sync.Once
}

// Close unregisters the subscription and closes its channel. Safe to call
// more than once.
func (s *Sub) Close() {
	s.cl.fh.unregisterSub(s)
}

// Chan returns the delivery channel. It is closed when the subscription
// or the client goes away.
func (s *Sub) Chan() <-chan *Message {
	return s.responseChan
}

// Wait blocks for the next frame, the timeout or context cancellation.
func (s *Sub) Wait(ctx context.Context, timeout time.Duration) (*Message, error) {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.C:
		ids := make([]uint32, 0, len(s.identifiers))
		for id := range s.identifiers {
			ids = append(ids, id)
		}
		return nil, &TimeoutError{Timeout: timeout.Milliseconds(), Frames: ids}
	case frame, ok := <-s.responseChan:
		if !ok {
			return nil, ErrChannelClosed
		}
		return frame, nil
	}
}
