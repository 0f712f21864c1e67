package cantype

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Listener receives transmit confirmations and incoming frames. Register
// one on a Client for protocol layers that want callbacks instead of
// subscription channels.
type Listener interface {
	OnFrameTransmitted(id ID, channel string)
	OnFrameReceived(frames []*Message, channel string)
}

// Client drives an Adapter: it runs the receive fan-out in the background
// and offers both fire-and-forget transmit and blocking request helpers.
type Client struct {
	cfg     *Config
	adapter Adapter
	fh      *handler
	log     *zap.SugaredLogger

	mu        sync.RWMutex
	listeners map[string]Listener

	g         *errgroup.Group
	closeOnce sync.Once
	closed    chan struct{}
}

// NewClient opens the adapter and starts the receive loop. The context
// bounds the whole client lifetime.
func NewClient(ctx context.Context, adapter Adapter, cfg *Config) (*Client, error) {
	if adapter == nil {
		return nil, fmt.Errorf("new client: nil adapter")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	log := cfg.Log()
	c := &Client{
		cfg:       cfg,
		adapter:   adapter,
		fh:        newHandler(adapter, log),
		log:       log,
		listeners: make(map[string]Listener),
		closed:    make(chan struct{}),
	}
	if err := adapter.Open(ctx); err != nil {
		return nil, fmt.Errorf("open adapter %s: %w", adapter.Name(), err)
	}
	g, gctx := errgroup.WithContext(ctx)
	c.g = g
	g.Go(func() error {
		return c.fh.run(gctx, c.onReceived)
	})
	g.Go(func() error {
		return c.watchErrors(gctx)
	})
	return c, nil
}

func (c *Client) watchErrors(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.closed:
			return nil
		case err, ok := <-c.adapter.Err():
			if !ok {
				return nil
			}
			if err == nil {
				continue
			}
			c.log.Warnw("adapter error", "adapter", c.adapter.Name(), "error", err)
		}
	}
}

// Log exposes the client's logger for protocol layers built on top.
func (c *Client) Log() *zap.SugaredLogger {
	return c.log
}

// Adapter returns the underlying adapter.
func (c *Client) Adapter() Adapter {
	return c.adapter
}

// Send transmits a frame. The frame is stamped with the configured channel
// and the transmit direction before it is handed to the adapter.
func (c *Client) Send(msg *Message) error {
	msg.SetDirection(Tx)
	if msg.Channel() == "" {
		msg.SetChannel(c.cfg.Channel)
	}
	select {
	case <-c.closed:
		return ErrClosed
	case c.adapter.Send() <- msg:
	case <-time.After(5 * time.Second):
		return ErrSendTimeout
	}
	c.onTransmitted(msg.ID())
	return nil
}

// SendFrame builds and transmits a data frame from raw parts.
func (c *Client) SendFrame(identifier uint32, data []byte) error {
	msg, err := NewMessage(IDFromBits(identifier, identifier > MaskStandard), data)
	if err != nil {
		return err
	}
	return c.Send(msg)
}

// Subscribe returns a subscription delivering frames that match any of the
// given raw identifiers. No identifiers means all frames.
func (c *Client) Subscribe(ctx context.Context, identifiers ...uint32) *Sub {
	sub := &Sub{
		cl:           c,
		identifiers:  make(map[uint32]struct{}, len(identifiers)),
		filterCount:  len(identifiers),
		responseChan: make(chan *Message, 64),
	}
	for _, id := range identifiers {
		sub.identifiers[id] = struct{}{}
	}
	c.fh.registerSub(sub)
	context.AfterFunc(ctx, sub.Close)
	return sub
}

// Poll does a one-shot blocking receive of the next matching frame.
func (c *Client) Poll(ctx context.Context, timeout time.Duration, identifiers ...uint32) (*Message, error) {
	sub := c.Subscribe(ctx, identifiers...)
	defer sub.Close()
	return sub.Wait(ctx, timeout)
}

// RegisterListener adds a named listener. It reports false when the name
// is taken.
func (c *Client) RegisterListener(name string, l Listener) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, found := c.listeners[name]; found {
		return false
	}
	c.listeners[name] = l
	return true
}

// UnregisterListener removes a named listener and reports whether it was
// registered.
func (c *Client) UnregisterListener(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, found := c.listeners[name]; !found {
		return false
	}
	delete(c.listeners, name)
	return true
}

// UnregisterAll removes every listener.
func (c *Client) UnregisterAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.listeners)
}

// ListenerNames returns the registered listener names sorted.
func (c *Client) ListenerNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.listeners))
	for name := range c.listeners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// snapshotListeners copies the registered listeners so callbacks run
// without holding c.mu. A listener may call back into the client (Send,
// RegisterListener) and a nested read lock would wedge behind a pending
// writer.
func (c *Client) snapshotListeners() []Listener {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.listeners) == 0 {
		return nil
	}
	ls := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		ls = append(ls, l)
	}
	return ls
}

func (c *Client) onTransmitted(id ID) {
	for _, l := range c.snapshotListeners() {
		l.OnFrameTransmitted(id, c.cfg.Channel)
	}
}

func (c *Client) onReceived(frame *Message) {
	frame.SetDirection(Rx)
	if frame.Channel() == "" {
		frame.SetChannel(c.cfg.Channel)
	}
	for _, l := range c.snapshotListeners() {
		l.OnFrameReceived([]*Message{frame}, frame.Channel())
	}
}

// Close stops the receive loop and closes the adapter.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		c.fh.Close()
		err = c.adapter.Close()
		_ = c.g.Wait()
	})
	return err
}
