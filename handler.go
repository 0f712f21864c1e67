package cantype

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// handler fans incoming frames out to subscriptions.
type handler struct {
	adapter Adapter
	log     *zap.SugaredLogger

	close     chan struct{}
	closeOnce sync.Once

	mu         sync.RWMutex
	submap     map[uint32]map[*Sub]struct{}
	globalSubs []*Sub
}

func newHandler(adapter Adapter, log *zap.SugaredLogger) *handler {
	return &handler{
		adapter: adapter,
		log:     log,
		close:   make(chan struct{}),
		submap:  make(map[uint32]map[*Sub]struct{}),
	}
}

func (h *handler) registerSub(sub *Sub) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub.filterCount == 0 {
		h.globalSubs = append(h.globalSubs, sub)
		return
	}
	for id := range sub.identifiers {
		if _, ok := h.submap[id]; !ok {
			h.submap[id] = make(map[*Sub]struct{})
		}
		h.submap[id][sub] = struct{}{}
	}
}

func (h *handler) unregisterSub(sub *Sub) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub.filterCount == 0 {
		for i, s := range h.globalSubs {
			if s == sub {
				h.globalSubs = append(h.globalSubs[:i], h.globalSubs[i+1:]...)
				break
			}
		}
		closeSub(sub)
		return
	}
	for id := range sub.identifiers {
		if subs, ok := h.submap[id]; ok {
			if _, exists := subs[sub]; exists {
				delete(subs, sub)
				if len(subs) == 0 {
					delete(h.submap, id)
				}
			}
		}
	}
	closeSub(sub)
}

func (h *handler) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, subs := range h.submap {
		for sub := range subs {
			closeSub(sub)
		}
		delete(h.submap, id)
	}
	for _, sub := range h.globalSubs {
		closeSub(sub)
	}
	h.globalSubs = nil
}

// closeSub must be called with the write lock held so a send in deliver
// cannot race the close.
func closeSub(sub *Sub) {
	sub.closeOnce.Do(func() {
		close(sub.responseChan)
	})
}

func (h *handler) run(ctx context.Context, onFrame func(*Message)) error {
	recvChan := h.adapter.Recv()
	defer h.closeAll()
	for {
		select {
		case <-h.close:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case frame, ok := <-recvChan:
			if !ok {
				h.log.Debug("incoming channel closed")
				return nil
			}
			// onFrame stamps direction and channel on the message, so
			// it has to run before the frame is fanned out to readers.
			if onFrame != nil {
				onFrame(frame)
			}
			h.deliver(frame)
		}
	}
}

// NOTE: deliver sends while holding RLock. unregisterSub takes the write
// lock before closing sub channels, so a channel cannot be closed mid-send.
func (h *handler) deliver(frame *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.globalSubs {
		select {
		case sub.responseChan <- frame:
		default:
			h.log.Warnw("failed to deliver", "id", frame.ID().Hex())
		}
	}
	if subs, ok := h.submap[frame.ID().Raw()]; ok {
		for sub := range subs {
			select {
			case sub.responseChan <- frame:
			default:
				h.log.Warnw("failed to deliver", "id", frame.ID().Hex())
			}
		}
	}
}

func (h *handler) Close() {
	h.closeOnce.Do(func() {
		close(h.close)
	})
}
