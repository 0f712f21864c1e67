package cantype_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cantype/cantype"
	"github.com/cantype/cantype/adapter"
)

func newPair(t *testing.T) (*cantype.Client, *cantype.Client) {
	t.Helper()
	ctx := context.Background()
	devA, devB := adapter.NewLoopbackPair(&cantype.Config{Channel: "test"})

	a, err := cantype.NewClient(ctx, devA, nil)
	require.NoError(t, err)
	b, err := cantype.NewClient(ctx, devB, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})
	return a, b
}

func TestClientSendReceive(t *testing.T) {
	a, b := newPair(t)

	sub := b.Subscribe(context.Background(), 0x123)
	defer sub.Close()

	msg, err := cantype.NewMessage(cantype.StandardID(0x123), []byte{0x01, 0x02})
	require.NoError(t, err)
	require.NoError(t, a.Send(msg))

	got, err := sub.Wait(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x123), got.ID().Raw())
	assert.Equal(t, []byte{0x01, 0x02}, got.Data())
	assert.Equal(t, cantype.Rx, got.Direction())
	assert.Equal(t, "test", got.Channel())
}

func TestClientGlobalSubscription(t *testing.T) {
	a, b := newPair(t)

	sub := b.Subscribe(context.Background())
	defer sub.Close()

	for _, id := range []uint16{0x100, 0x200} {
		msg, err := cantype.NewMessage(cantype.StandardID(id), []byte{byte(id >> 8)})
		require.NoError(t, err)
		require.NoError(t, a.Send(msg))
	}

	first, err := sub.Wait(context.Background(), time.Second)
	require.NoError(t, err)
	second, err := sub.Wait(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x100), first.ID().Raw())
	assert.Equal(t, uint32(0x200), second.ID().Raw())
}

func TestClientPollTimeout(t *testing.T) {
	_, b := newPair(t)

	_, err := b.Poll(context.Background(), 50*time.Millisecond, 0x7FF)
	var te *cantype.TimeoutError
	require.ErrorAs(t, err, &te)
}

func TestClientSendFrame(t *testing.T) {
	a, b := newPair(t)

	sub := b.Subscribe(context.Background(), 0x18DAF110)
	defer sub.Close()

	require.NoError(t, a.SendFrame(0x18DAF110, []byte{0xCA, 0xFE}))
	got, err := sub.Wait(context.Background(), time.Second)
	require.NoError(t, err)
	assert.True(t, got.IsExtended())
}

// echoListener answers every frame it sees on id+8, the way a protocol
// layer stacked on the client does.
type echoListener struct {
	cl *cantype.Client
}

func (e *echoListener) OnFrameTransmitted(id cantype.ID, channel string) {}

func (e *echoListener) OnFrameReceived(frames []*cantype.Message, channel string) {
	for _, f := range frames {
		_ = e.cl.SendFrame(f.ID().Raw()+8, f.Data())
	}
}

// A listener must be able to send from inside its callback while other
// goroutines register and unregister listeners.
func TestClientSendFromListener(t *testing.T) {
	a, b := newPair(t)

	require.True(t, b.RegisterListener("echo", &echoListener{cl: b}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			b.RegisterListener("churn", &recordingListener{})
			b.UnregisterListener("churn")
		}
	}()

	sub := a.Subscribe(context.Background(), 0x7E8)
	defer sub.Close()

	for i := 0; i < 20; i++ {
		require.NoError(t, a.SendFrame(0x7E0, []byte{byte(i)}))
		got, err := sub.Wait(context.Background(), time.Second)
		require.NoError(t, err)
		assert.Equal(t, []byte{byte(i)}, got.Data())
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("listener registration blocked")
	}
}

type recordingListener struct {
	mu       sync.Mutex
	sent     []uint32
	received []uint32
}

func (r *recordingListener) OnFrameTransmitted(id cantype.ID, channel string) {
	r.mu.Lock()
	r.sent = append(r.sent, id.Raw())
	r.mu.Unlock()
}

func (r *recordingListener) OnFrameReceived(frames []*cantype.Message, channel string) {
	r.mu.Lock()
	for _, f := range frames {
		r.received = append(r.received, f.ID().Raw())
	}
	r.mu.Unlock()
}

func TestClientListeners(t *testing.T) {
	a, b := newPair(t)

	la := &recordingListener{}
	lb := &recordingListener{}
	require.True(t, a.RegisterListener("rec", la))
	require.True(t, b.RegisterListener("rec", lb))
	assert.False(t, b.RegisterListener("rec", lb))

	msg, err := cantype.NewMessage(cantype.StandardID(0x55), []byte{0x01})
	require.NoError(t, err)
	require.NoError(t, a.Send(msg))

	assert.Eventually(t, func() bool {
		lb.mu.Lock()
		defer lb.mu.Unlock()
		return len(lb.received) == 1 && lb.received[0] == 0x55
	}, time.Second, 10*time.Millisecond)

	la.mu.Lock()
	assert.Equal(t, []uint32{0x55}, la.sent)
	la.mu.Unlock()

	require.True(t, b.UnregisterListener("rec"))
	assert.False(t, b.UnregisterListener("rec"))
}
