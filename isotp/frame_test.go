package isotp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeSingle(t *testing.T) {
	fr, err := NewSingle([]byte{0x3E, 0x00}, false)
	require.NoError(t, err)

	out, err := fr.Encode(false, 0xAA)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0x3E, 0x00, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA}, out)
}

func TestEncodeSingleEscape(t *testing.T) {
	payload := bytes.Repeat([]byte{0x11}, 20)
	fr, err := NewSingle(payload, true)
	require.NoError(t, err)

	out, err := fr.Encode(true, 0xAA)
	require.NoError(t, err)
	// two PCI bytes then the payload, padded to the 24 byte FD size
	require.Len(t, out, 24)
	assert.Equal(t, byte(0x00), out[0])
	assert.Equal(t, byte(20), out[1])
	assert.Equal(t, payload, out[2:22])

	// classic CAN cannot carry it
	_, err = fr.Encode(false, 0xAA)
	require.Error(t, err)
}

func TestSingleTooLong(t *testing.T) {
	_, err := NewSingle(bytes.Repeat([]byte{0x11}, 8), false)
	var le *LengthError
	require.ErrorAs(t, err, &le)

	_, err = NewSingle(nil, false)
	require.ErrorIs(t, err, ErrEmptyPDU)
}

func TestEncodeFirst(t *testing.T) {
	fr := Frame{Type: FrameTypeFirst, Length: 0x123, Data: bytes.Repeat([]byte{0x22}, 6)}
	out, err := fr.Encode(false, 0xAA)
	require.NoError(t, err)
	assert.Equal(t, byte(0x11), out[0])
	assert.Equal(t, byte(0x23), out[1])
	require.Len(t, out, 8)
}

func TestEncodeFlowControl(t *testing.T) {
	out, err := NewFlowControl(FlowContinue, 8, 0x14).Encode(false, 0x00)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x30, 0x08, 0x14, 0, 0, 0, 0, 0}, out)

	out, err = NewFlowControl(FlowWait, 0, 0).Encode(false, 0x00)
	require.NoError(t, err)
	assert.Equal(t, byte(0x31), out[0])
}

func TestDecodeSingle(t *testing.T) {
	fr, err := Decode([]byte{0x02, 0x3E, 0x00, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA})
	require.NoError(t, err)
	assert.Equal(t, FrameTypeSingle, fr.Type)
	assert.Equal(t, []byte{0x3E, 0x00}, fr.Data)
}

func TestDecodeSingleEscape(t *testing.T) {
	in := append([]byte{0x00, 0x0A}, bytes.Repeat([]byte{0x55}, 10)...)
	fr, err := Decode(in)
	require.NoError(t, err)
	assert.Equal(t, FrameTypeSingle, fr.Type)
	assert.Len(t, fr.Data, 10)
}

func TestDecodeFirst(t *testing.T) {
	in := []byte{0x11, 0x23, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06}
	fr, err := Decode(in)
	require.NoError(t, err)
	assert.Equal(t, FrameTypeFirst, fr.Type)
	assert.Equal(t, uint32(0x123), fr.Length)
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}, fr.Data)
}

func TestDecodeConsecutive(t *testing.T) {
	fr, err := Decode([]byte{0x21, 0xDE, 0xAD})
	require.NoError(t, err)
	assert.Equal(t, FrameTypeConsecutive, fr.Type)
	assert.Equal(t, uint8(1), fr.Sequence)
	assert.Equal(t, []byte{0xDE, 0xAD}, fr.Data)
}

func TestDecodeFlowControl(t *testing.T) {
	fr, err := Decode([]byte{0x30, 0x08, 0x14})
	require.NoError(t, err)
	assert.Equal(t, FrameTypeFlowControl, fr.Type)
	assert.Equal(t, FlowContinue, fr.Flow.State)
	assert.Equal(t, uint8(8), fr.Flow.BlockSize)
	assert.Equal(t, uint8(0x14), fr.Flow.STmin)

	// reserved flow status
	_, err = Decode([]byte{0x3F, 0x00, 0x00})
	require.ErrorIs(t, err, ErrInvalidPDU)
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode(nil)
	require.ErrorIs(t, err, ErrEmptyPDU)
	_, err = Decode([]byte{0x40})
	require.ErrorIs(t, err, ErrInvalidPDU)
	_, err = Decode([]byte{0x05, 0x01})
	require.ErrorIs(t, err, ErrInvalidPDU)
}

func TestRoundTripChain(t *testing.T) {
	for _, fr := range []Frame{
		{Type: FrameTypeSingle, Data: []byte{0x01}},
		{Type: FrameTypeConsecutive, Sequence: 0x0F, Data: bytes.Repeat([]byte{0x33}, 7)},
		NewFlowControl(FlowOverload, 0, 0),
	} {
		out, err := fr.Encode(false, 0xAA)
		require.NoError(t, err)
		back, err := Decode(out)
		require.NoError(t, err)
		assert.Equal(t, fr.Type, back.Type)
	}
}

func TestSegmentSingle(t *testing.T) {
	frames, err := Segment([]byte{0x01, 0x02}, false)
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, FrameTypeSingle, frames[0].Type)
}

func TestSegmentMultiFrame(t *testing.T) {
	payload := make([]byte, 300)
	for i := range payload {
		payload[i] = byte(i)
	}
	frames, err := Segment(payload, false)
	require.NoError(t, err)

	require.Equal(t, FrameTypeFirst, frames[0].Type)
	assert.Equal(t, uint32(300), frames[0].Length)
	assert.Len(t, frames[0].Data, 6)
	// 294 remaining bytes in 7 byte chunks
	require.Len(t, frames, 1+42)

	assert.Equal(t, uint8(1), frames[1].Sequence)
	// the counter wraps after 15
	assert.Equal(t, uint8(0x0F), frames[15].Sequence)
	assert.Equal(t, uint8(0), frames[16].Sequence)

	// reassemble and compare
	var got []byte
	got = append(got, frames[0].Data...)
	for _, fr := range frames[1:] {
		got = append(got, fr.Data...)
	}
	assert.Equal(t, payload, got[:300])
}

func TestSegmentEmpty(t *testing.T) {
	_, err := Segment(nil, false)
	require.ErrorIs(t, err, ErrEmptyPDU)
}
