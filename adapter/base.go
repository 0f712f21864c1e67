// Package adapter holds the concrete CAN bus adapters. Importing it for
// side effects registers them with the cantype registry.
package adapter

import (
	"sync"

	"github.com/cantype/cantype"
	"go.uber.org/zap"
)

// Base carries the channel plumbing every adapter embeds.
type Base struct {
	name string
	cfg  *cantype.Config
	log  *zap.SugaredLogger

	sendChan, recvChan chan *cantype.Message

	errChan chan error

	closeOnce sync.Once
	closeChan chan struct{}
}

func NewBase(name string, cfg *cantype.Config) *Base {
	return &Base{
		name:      name,
		cfg:       cfg,
		log:       cfg.Log(),
		sendChan:  make(chan *cantype.Message, 40),
		recvChan:  make(chan *cantype.Message, 1024),
		errChan:   make(chan error, 10),
		closeChan: make(chan struct{}),
	}
}

func (base *Base) Name() string {
	return base.name
}

func (base *Base) Send() chan<- *cantype.Message {
	return base.sendChan
}

func (base *Base) Recv() <-chan *cantype.Message {
	return base.recvChan
}

func (base *Base) Err() <-chan error {
	return base.errChan
}

func (base *Base) CloseBase() {
	base.closeOnce.Do(func() {
		close(base.closeChan)
	})
}

// SetError queues an adapter error without blocking the I/O loops.
func (base *Base) SetError(err error) {
	select {
	case base.errChan <- err:
	default:
		base.log.Warnw("adapter error channel full", "adapter", base.name, "error", err)
	}
}

// Deliver places a received frame on the recv channel, dropping it when
// the consumer lags.
func (base *Base) Deliver(msg *cantype.Message) {
	select {
	case base.recvChan <- msg:
	default:
		base.SetError(cantype.ErrDroppedFrame)
	}
}
