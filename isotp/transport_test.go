package isotp

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cantype/cantype"
	"github.com/cantype/cantype/adapter"
)

func newTransportPair(t *testing.T, opts *Options) (*Transport, *Transport) {
	t.Helper()
	ctx := context.Background()
	devA, devB := adapter.NewLoopbackPair(&cantype.Config{Channel: "test"})

	clientA, err := cantype.NewClient(ctx, devA, nil)
	require.NoError(t, err)
	clientB, err := cantype.NewClient(ctx, devB, nil)
	require.NoError(t, err)

	tester := Address{
		TxID:   cantype.StandardID(0x7E0),
		RxID:   cantype.StandardID(0x7E8),
		FuncID: cantype.StandardID(0x7DF),
	}
	ecu := Address{
		TxID:   cantype.StandardID(0x7E8),
		RxID:   cantype.StandardID(0x7E0),
		FuncID: cantype.StandardID(0x7DF),
	}

	a, err := NewTransport(clientA, tester, opts)
	require.NoError(t, err)
	b, err := NewTransport(clientB, ecu, opts)
	require.NoError(t, err)

	t.Cleanup(func() {
		a.Close()
		b.Close()
		clientA.Close()
		clientB.Close()
	})
	return a, b
}

// echoResponder answers every received request with fn(request).
func echoResponder(t *testing.T, tr *Transport, fn func([]byte) []byte) {
	t.Helper()
	go func() {
		for ev := range tr.Events() {
			if ev.Type != EventData {
				continue
			}
			if err := tr.Write(context.Background(), false, fn(ev.Data)); err != nil {
				t.Errorf("responder write: %v", err)
				return
			}
		}
	}()
}

func TestTransportSingleFrameRequest(t *testing.T) {
	a, b := newTransportPair(t, nil)
	echoResponder(t, b, func(req []byte) []byte {
		return append([]byte{req[0] + 0x40}, req[1:]...)
	})

	resp, err := a.Request(context.Background(), []byte{0x10, 0x01})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x50, 0x01}, resp)
}

func TestTransportSegmentedResponse(t *testing.T) {
	a, b := newTransportPair(t, nil)
	payload := make([]byte, 150)
	for i := range payload {
		payload[i] = byte(i)
	}
	echoResponder(t, b, func([]byte) []byte { return payload })

	resp, err := a.Request(context.Background(), []byte{0x22, 0xF1, 0x90})
	require.NoError(t, err)
	assert.Equal(t, payload, resp)
}

func TestTransportSegmentedWrite(t *testing.T) {
	a, b := newTransportPair(t, nil)
	payload := bytes.Repeat([]byte{0x5A}, 64)

	require.NoError(t, a.Write(context.Background(), false, payload))

	select {
	case ev := <-b.Events():
		require.Equal(t, EventFirstFrame, ev.Type)
		assert.Equal(t, uint32(64), ev.Length)
	case <-time.After(time.Second):
		t.Fatal("no first frame event")
	}
	select {
	case ev := <-b.Events():
		require.Equal(t, EventData, ev.Type)
		assert.Equal(t, payload, ev.Data)
	case <-time.After(time.Second):
		t.Fatal("no data event")
	}
}

func TestTransportBlockSize(t *testing.T) {
	// the receiver asks for flow control every 4 consecutive frames
	a, b := newTransportPair(t, &Options{BlockSize: 4})
	payload := bytes.Repeat([]byte{0x42}, 100)

	require.NoError(t, a.Write(context.Background(), false, payload))

	deadline := time.After(time.Second)
	for {
		select {
		case ev := <-b.Events():
			if ev.Type == EventData {
				assert.Equal(t, payload, ev.Data)
				return
			}
		case <-deadline:
			t.Fatal("transfer did not finish")
		}
	}
}

func TestTransportWriteProgress(t *testing.T) {
	var mu sync.Mutex
	var counts []int
	a, _ := newTransportPair(t, &Options{
		Progress: func(sent, total int) {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, 64, total)
			counts = append(counts, sent)
		},
	})

	require.NoError(t, a.Write(context.Background(), false, bytes.Repeat([]byte{0x5A}, 64)))

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, counts)
	for i := 1; i < len(counts); i++ {
		assert.Greater(t, counts[i], counts[i-1])
	}
	assert.Equal(t, 64, counts[len(counts)-1])
}

func TestTransportFunctionalMultiFrame(t *testing.T) {
	a, _ := newTransportPair(t, nil)
	err := a.Write(context.Background(), true, bytes.Repeat([]byte{0x01}, 20))
	var le *LengthError
	require.ErrorAs(t, err, &le)
}

func TestTransportFlowControlTimeout(t *testing.T) {
	ctx := context.Background()
	dev, err := adapter.NewLoopback(&cantype.Config{})
	require.NoError(t, err)
	client, err := cantype.NewClient(ctx, dev, nil)
	require.NoError(t, err)
	defer client.Close()

	// nobody answers on the receive identifier
	tr, err := NewTransport(client, DefaultAddress(), &Options{FlowControlTimeout: 50 * time.Millisecond})
	require.NoError(t, err)
	defer tr.Close()

	err = tr.Write(ctx, false, bytes.Repeat([]byte{0x01}, 20))
	require.ErrorIs(t, err, ErrTimeout)
}

func TestTransportClosed(t *testing.T) {
	a, _ := newTransportPair(t, nil)
	a.Close()
	err := a.Write(context.Background(), false, []byte{0x01})
	require.ErrorIs(t, err, ErrClosed)
}

func TestTransportlistenerNameCollision(t *testing.T) {
	ctx := context.Background()
	dev, err := adapter.NewLoopback(&cantype.Config{})
	require.NoError(t, err)
	client, err := cantype.NewClient(ctx, dev, nil)
	require.NoError(t, err)
	defer client.Close()

	tr, err := NewTransport(client, DefaultAddress(), nil)
	require.NoError(t, err)
	defer tr.Close()

	_, err = NewTransport(client, DefaultAddress(), nil)
	require.Error(t, err)
}
