package adapter

import (
	"context"

	"github.com/cantype/cantype"
)

func init() {
	if err := cantype.RegisterAdapter(&cantype.AdapterInfo{
		Name:               "loopback",
		Description:        "in-process echo adapter for tests and examples",
		RequiresSerialPort: false,
		New:                NewLoopback,
	}); err != nil {
		panic(err)
	}
}

// Loopback echoes every sent frame back on the receive channel. Two
// loopbacks can be wired into a pair to emulate both ends of a bus.
type Loopback struct {
	*Base
	peer *Loopback
}

func NewLoopback(cfg *cantype.Config) (cantype.Adapter, error) {
	return &Loopback{Base: NewBase("loopback", cfg)}, nil
}

// NewLoopbackPair returns two connected adapters, frames sent on one
// arrive on the other. Useful for exercising request/response protocols.
func NewLoopbackPair(cfg *cantype.Config) (*Loopback, *Loopback) {
	a := &Loopback{Base: NewBase("loopback", cfg)}
	b := &Loopback{Base: NewBase("loopback", cfg)}
	a.peer = b
	b.peer = a
	return a, b
}

func (l *Loopback) Open(ctx context.Context) error {
	go l.sendManager(ctx)
	return nil
}

func (l *Loopback) Close() error {
	l.CloseBase()
	return nil
}

func (l *Loopback) sendManager(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.closeChan:
			return
		case frame := <-l.sendChan:
			echo, err := cantype.NewMessage(frame.ID(), frame.Data())
			if err != nil {
				l.SetError(err)
				continue
			}
			echo.SetDirection(cantype.Rx)
			echo.SetChannel(frame.Channel())
			echo.SetTimestamp(frame.Timestamp())
			if frame.IsFD() {
				if err := echo.SetFD(true); err != nil {
					l.SetError(err)
					continue
				}
			}
			if l.peer != nil {
				l.peer.Deliver(echo)
				continue
			}
			l.Deliver(echo)
		}
	}
}
