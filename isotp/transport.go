package isotp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cantype/cantype"
)

// Options tunes a Transport. The zero value is usable for classic CAN
// with standard timings.
type Options struct {
	// FD enables CAN FD framing with the larger payload sizes.
	FD bool
	// Padding fills unused payload bytes, cantype.DefaultPadding when
	// zero value semantics are wanted use NewTransport which applies it.
	Padding byte
	// BlockSize is advertised to the peer in our flow control frames,
	// zero means unlimited.
	BlockSize uint8
	// STmin is the raw separation time advertised to the peer.
	STmin uint8
	// FlowControlTimeout bounds the wait for the peer's flow control
	// after a first frame.
	FlowControlTimeout time.Duration
	// ResponseTimeout bounds Request's wait for the full response.
	ResponseTimeout time.Duration
	// MaxWaits is how many flow control wait frames we tolerate before
	// giving up on a transmission.
	MaxWaits int
	// Progress, when set, is called from Write after every frame on the
	// bus with the cumulative payload bytes sent and the total.
	Progress func(sent, total int)
}

func (o *Options) withDefaults() Options {
	out := Options{Padding: cantype.DefaultPadding, FlowControlTimeout: time.Second, ResponseTimeout: 2 * time.Second, MaxWaits: 8}
	if o == nil {
		return out
	}
	out.FD = o.FD
	out.BlockSize = o.BlockSize
	out.STmin = o.STmin
	out.Progress = o.Progress
	if o.Padding != 0 {
		out.Padding = o.Padding
	}
	if o.FlowControlTimeout > 0 {
		out.FlowControlTimeout = o.FlowControlTimeout
	}
	if o.ResponseTimeout > 0 {
		out.ResponseTimeout = o.ResponseTimeout
	}
	if o.MaxWaits > 0 {
		out.MaxWaits = o.MaxWaits
	}
	return out
}

// Transport is one ISO-TP endpoint bound to a Client. It registers
// itself as a frame listener, reassembles incoming transfers and paces
// outgoing ones according to the peer's flow control.
type Transport struct {
	client *cantype.Client
	addr   Address
	opts   Options
	log    *zap.SugaredLogger

	tf     *transfer
	flowCh chan FlowControl
	// blockRecv counts consecutive frames since the last flow control we
	// sent, only touched from the receive goroutine.
	blockRecv int

	mu       sync.Mutex
	listener Listener
	events   chan Event

	closeOnce sync.Once
	closed    chan struct{}
}

// NewTransport binds an ISO-TP endpoint to the client. Close it to
// detach the frame listener again.
func NewTransport(client *cantype.Client, addr Address, opts *Options) (*Transport, error) {
	if client == nil {
		return nil, fmt.Errorf("new transport: nil client")
	}
	t := &Transport{
		client: client,
		addr:   addr,
		opts:   opts.withDefaults(),
		log:    client.Log(),
		tf:     &transfer{},
		flowCh: make(chan FlowControl, 4),
		events: make(chan Event, 16),
		closed: make(chan struct{}),
	}
	if !client.RegisterListener(t.listenerName(), t) {
		return nil, fmt.Errorf("new transport: listener %q already registered", t.listenerName())
	}
	return t, nil
}

func (t *Transport) listenerName() string {
	return "isotp-" + t.addr.TxID.Hex()
}

// SetListener installs a callback for transport events. Pass nil to
// remove it again.
func (t *Transport) SetListener(l Listener) {
	t.mu.Lock()
	t.listener = l
	t.mu.Unlock()
}

// Events exposes the transport notifications as a channel. Slow readers
// lose events rather than stalling the bus.
func (t *Transport) Events() <-chan Event {
	return t.events
}

func (t *Transport) emit(ev Event) {
	t.mu.Lock()
	l := t.listener
	t.mu.Unlock()
	if l != nil {
		l.OnEvent(ev)
	}
	select {
	case t.events <- ev:
	default:
		t.log.Debugw("event dropped", "type", ev.Type)
	}
}

// OnFrameTransmitted implements cantype.Listener.
func (t *Transport) OnFrameTransmitted(id cantype.ID, channel string) {
	if id.Raw() == t.addr.TxID.Raw() {
		t.tf.stateRemove(StateSending)
	}
}

// OnFrameReceived implements cantype.Listener.
func (t *Transport) OnFrameReceived(frames []*cantype.Message, channel string) {
	for _, f := range frames {
		if f.ID().Raw() != t.addr.RxID.Raw() || f.IsRemote() || f.IsErrorFrame() {
			continue
		}
		fr, err := Decode(f.Data())
		if err != nil {
			t.fail(err)
			continue
		}
		switch fr.Type {
		case FrameTypeSingle:
			t.onSingle(fr)
		case FrameTypeFirst:
			t.onFirst(fr)
		case FrameTypeConsecutive:
			t.onConsecutive(fr)
		case FrameTypeFlowControl:
			t.onFlowControl(fr)
		}
	}
}

func (t *Transport) onSingle(fr Frame) {
	t.tf.stateRemove(StateWaitSingle | StateWaitFirst)
	t.emit(Event{Type: EventData, Data: fr.Data})
}

func (t *Transport) onFirst(fr Frame) {
	t.tf.onFirstFrame(fr.Length, fr.Data)
	t.blockRecv = 0
	t.emit(Event{Type: EventFirstFrame, Length: fr.Length})
	fc := NewFlowControl(FlowContinue, t.opts.BlockSize, t.opts.STmin)
	if err := t.send(fc); err != nil {
		t.fail(fmt.Errorf("flow control: %w", err))
	}
}

func (t *Transport) onConsecutive(fr Frame) {
	if !t.tf.stateContains(StateWaitData) {
		t.fail(&StateError{Found: t.tf.currentState()})
		return
	}
	done, payload, err := t.tf.onConsecutive(fr.Sequence, fr.Data)
	if err != nil {
		t.fail(err)
		return
	}
	if done {
		t.emit(Event{Type: EventData, Data: payload})
		return
	}
	// clear the sender for the next block
	if t.opts.BlockSize > 0 {
		t.blockRecv++
		if t.blockRecv >= int(t.opts.BlockSize) {
			t.blockRecv = 0
			fc := NewFlowControl(FlowContinue, t.opts.BlockSize, t.opts.STmin)
			if err := t.send(fc); err != nil {
				t.fail(fmt.Errorf("flow control: %w", err))
			}
		}
	}
}

func (t *Transport) onFlowControl(fr Frame) {
	switch fr.Flow.State {
	case FlowOverload:
		t.fail(ErrOverload)
		return
	case FlowWait:
		t.tf.stateAppend(StateWaitBusy)
		t.emit(Event{Type: EventWait})
	case FlowContinue:
		t.tf.stateRemove(StateWaitBusy | StateWaitFlowCtrl)
	}
	select {
	case t.flowCh <- fr.Flow:
	default:
	}
}

func (t *Transport) fail(err error) {
	t.tf.stateAppend(StateFault)
	t.log.Debugw("transfer aborted", "id", t.addr.RxID.Hex(), "error", err)
	t.emit(Event{Type: EventError, Err: err})
	t.tf.reset()
}

// send encodes one protocol frame and puts it on the bus.
func (t *Transport) send(fr Frame) error {
	return t.sendTo(t.addr.TxID, fr)
}

func (t *Transport) sendTo(id cantype.ID, fr Frame) error {
	payload, err := fr.Encode(t.opts.FD, t.opts.Padding)
	if err != nil {
		return err
	}
	msg, err := cantype.NewMessage(id, payload)
	if err != nil {
		return err
	}
	if t.opts.FD {
		if err := msg.SetFD(true); err != nil {
			return err
		}
	}
	return t.client.Send(msg)
}

// Write transmits a full message, segmenting and pacing it per the
// peer's flow control. With functional set the single frame goes out on
// the functional identifier instead of the physical one.
func (t *Transport) Write(ctx context.Context, functional bool, data []byte) error {
	select {
	case <-t.closed:
		return ErrClosed
	default:
	}

	frames, err := Segment(data, t.opts.FD)
	if err != nil {
		return err
	}
	if functional && len(frames) > 1 {
		return &LengthError{Actual: len(data), Expect: singleFrameSize(t.opts.FD)}
	}

	txID := t.addr.TxID
	if functional {
		txID = t.addr.FuncID
	}

	if len(frames) == 1 {
		if err := t.sendTo(txID, frames[0]); err != nil {
			return err
		}
		t.progress(len(data), len(data))
		return nil
	}

	t.drainFlow()
	t.tf.stateAppend(StateSending | StateWaitFlowCtrl)
	defer t.tf.stateRemove(StateSending | StateWaitFlowCtrl | StateWaitBusy)

	if err := t.sendTo(txID, frames[0]); err != nil {
		return err
	}
	sent := len(frames[0].Data)
	t.progress(sent, len(data))
	fc, err := t.waitFlow(ctx)
	if err != nil {
		return err
	}

	inBlock := 0
	for _, fr := range frames[1:] {
		if fc.BlockSize > 0 && inBlock >= int(fc.BlockSize) {
			t.tf.stateAppend(StateWaitFlowCtrl)
			if fc, err = t.waitFlow(ctx); err != nil {
				return err
			}
			inBlock = 0
		}
		if err := t.sendTo(txID, fr); err != nil {
			return err
		}
		sent += len(fr.Data)
		t.progress(sent, len(data))
		inBlock++
		if st := STminDuration(fc.STmin); st > 0 {
			select {
			case <-time.After(st):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

func (t *Transport) progress(sent, total int) {
	if t.opts.Progress != nil {
		t.opts.Progress(sent, total)
	}
}

func (t *Transport) drainFlow() {
	for {
		select {
		case <-t.flowCh:
		default:
			return
		}
	}
}

// waitFlow blocks until the peer clears us to continue, honoring wait
// frames up to the configured limit.
func (t *Transport) waitFlow(ctx context.Context) (FlowControl, error) {
	waits := 0
	for {
		select {
		case fc := <-t.flowCh:
			switch fc.State {
			case FlowContinue:
				return fc, nil
			case FlowWait:
				waits++
				if waits > t.opts.MaxWaits {
					return FlowControl{}, fmt.Errorf("%d wait frames: %w", waits, ErrTimeout)
				}
			case FlowOverload:
				return FlowControl{}, ErrOverload
			}
		case <-time.After(t.opts.FlowControlTimeout):
			return FlowControl{}, fmt.Errorf("flow control: %w", ErrTimeout)
		case <-ctx.Done():
			return FlowControl{}, ctx.Err()
		case <-t.closed:
			return FlowControl{}, ErrClosed
		}
	}
}

// Request writes a message on the physical identifier and waits for the
// peer's reassembled response.
func (t *Transport) Request(ctx context.Context, data []byte) ([]byte, error) {
	t.drainEvents()
	if err := t.Write(ctx, false, data); err != nil {
		return nil, err
	}

	deadline := time.NewTimer(t.opts.ResponseTimeout)
	defer deadline.Stop()
	for {
		select {
		case ev := <-t.events:
			switch ev.Type {
			case EventData:
				return ev.Data, nil
			case EventError:
				return nil, ev.Err
			case EventFirstFrame:
				// segmented response underway, extend the deadline
				if !deadline.Stop() {
					<-deadline.C
				}
				deadline.Reset(t.opts.ResponseTimeout)
			}
		case <-deadline.C:
			return nil, fmt.Errorf("response: %w", ErrTimeout)
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.closed:
			return nil, ErrClosed
		}
	}
}

func (t *Transport) drainEvents() {
	for {
		select {
		case <-t.events:
		default:
			return
		}
	}
}

// Close detaches the transport from the client.
func (t *Transport) Close() {
	t.closeOnce.Do(func() {
		close(t.closed)
		t.client.UnregisterListener(t.listenerName())
		t.tf.reset()
	})
}
