// Package isotp implements the ISO 15765-2 transport layer on top of the
// cantype frame and device layer: segmentation into single, first and
// consecutive frames, flow control handling and payload reassembly.
package isotp

import (
	"fmt"

	"github.com/cantype/cantype"
)

// FrameType is the high nibble of the first PCI byte.
type FrameType uint8

const (
	FrameTypeSingle      FrameType = 0x00
	FrameTypeFirst       FrameType = 0x10
	FrameTypeConsecutive FrameType = 0x20
	FrameTypeFlowControl FrameType = 0x30
)

func (t FrameType) String() string {
	switch t {
	case FrameTypeSingle:
		return "single"
	case FrameTypeFirst:
		return "first"
	case FrameTypeConsecutive:
		return "consecutive"
	case FrameTypeFlowControl:
		return "flow control"
	default:
		return "invalid"
	}
}

// FlowState is the flow status of a flow control frame.
type FlowState uint8

const (
	FlowContinue FlowState = 0
	FlowWait     FlowState = 1
	FlowOverload FlowState = 2
)

// FlowControl carries the receiver's transmission parameters.
type FlowControl struct {
	State FlowState
	// BlockSize is the number of consecutive frames allowed between flow
	// control frames, zero means no limit.
	BlockSize uint8
	// STmin is the raw minimum separation time byte, see STminDuration.
	STmin uint8
}

// Message size limits. The 2004 edition tops out at 4095 bytes, the 2016
// escape encodings carry a 32-bit length.
const (
	MaxLength2004 = 0xFFF
	MaxLength2016 = 0xFFFFFFFF

	// ConsecutiveSequenceStart is the sequence number of the first
	// consecutive frame after a first frame.
	ConsecutiveSequenceStart = 1
)

// Frame is one ISO-TP protocol frame. Type selects which of the other
// fields are meaningful.
type Frame struct {
	Type FrameType
	// Length is the full message length announced by a first frame.
	Length uint32
	// Sequence is the 0..15 counter of a consecutive frame.
	Sequence uint8
	// Data is the payload chunk of single, first and consecutive frames.
	Data []byte
	// Flow holds the parameters of a flow control frame.
	Flow FlowControl
}

// NewSingle builds a single frame holding the whole payload.
func NewSingle(data []byte, fd bool) (Frame, error) {
	if len(data) == 0 {
		return Frame{}, ErrEmptyPDU
	}
	if len(data) > singleFrameSize(fd) {
		return Frame{}, &LengthError{Actual: len(data), Expect: singleFrameSize(fd)}
	}
	return Frame{Type: FrameTypeSingle, Data: data}, nil
}

// NewFlowControl builds a flow control frame.
func NewFlowControl(state FlowState, blockSize, stMin uint8) Frame {
	return Frame{
		Type: FrameTypeFlowControl,
		Flow: FlowControl{State: state, BlockSize: blockSize, STmin: stMin},
	}
}

func singleFrameSize(fd bool) int {
	if fd {
		// escape form, two PCI bytes
		return cantype.MaxFDFrameSize - 2
	}
	return cantype.MaxFrameSize - 1
}

func firstFrameSize(fd bool, escape bool) int {
	max := cantype.MaxFrameSize
	if fd {
		max = cantype.MaxFDFrameSize
	}
	if escape {
		return max - 6
	}
	return max - 2
}

func consecutiveFrameSize(fd bool) int {
	if fd {
		return cantype.MaxFDFrameSize - 1
	}
	return cantype.MaxFrameSize - 1
}

// Encode renders the frame to CAN payload bytes, padded with pad up to
// the full classic frame or the nearest CAN FD size.
func (f Frame) Encode(fd bool, pad byte) ([]byte, error) {
	var out []byte
	switch f.Type {
	case FrameTypeSingle:
		if len(f.Data) == 0 {
			return nil, ErrEmptyPDU
		}
		if len(f.Data) <= cantype.MaxFrameSize-1 {
			out = append(out, byte(FrameTypeSingle)|byte(len(f.Data)))
			out = append(out, f.Data...)
		} else {
			if !fd || len(f.Data) > singleFrameSize(fd) {
				return nil, &LengthError{Actual: len(f.Data), Expect: singleFrameSize(fd)}
			}
			// escape form, length in the second PCI byte
			out = append(out, byte(FrameTypeSingle), byte(len(f.Data)))
			out = append(out, f.Data...)
		}
	case FrameTypeFirst:
		if f.Length <= MaxLength2004 {
			out = append(out, byte(FrameTypeFirst)|byte(f.Length>>8&0x0F), byte(f.Length))
		} else {
			// escape form, 32-bit length
			out = append(out, byte(FrameTypeFirst), 0x00,
				byte(f.Length>>24), byte(f.Length>>16), byte(f.Length>>8), byte(f.Length))
		}
		out = append(out, f.Data...)
	case FrameTypeConsecutive:
		if f.Sequence > 0x0F {
			return nil, &SequenceError{Actual: f.Sequence, Expect: 0x0F}
		}
		out = append(out, byte(FrameTypeConsecutive)|f.Sequence)
		out = append(out, f.Data...)
	case FrameTypeFlowControl:
		out = append(out, byte(FrameTypeFlowControl)|byte(f.Flow.State), f.Flow.BlockSize, f.Flow.STmin)
	default:
		return nil, fmt.Errorf("frame type %02X: %w", uint8(f.Type), ErrInvalidPDU)
	}

	size := cantype.MaxFrameSize
	if fd {
		var err error
		if size, err = cantype.FDSize(len(out)); err != nil {
			return nil, &LengthError{Actual: len(out), Expect: cantype.MaxFDFrameSize}
		}
	}
	if len(out) > size {
		return nil, &LengthError{Actual: len(out), Expect: size}
	}
	for len(out) < size {
		out = append(out, pad)
	}
	return out, nil
}

// Decode parses the payload of a received CAN frame.
func Decode(data []byte) (Frame, error) {
	if len(data) == 0 {
		return Frame{}, ErrEmptyPDU
	}
	byte0 := data[0]
	switch FrameType(byte0 & 0xF0) {
	case FrameTypeSingle:
		return decodeSingle(data, byte0)
	case FrameTypeFirst:
		return decodeFirst(data, byte0)
	case FrameTypeConsecutive:
		if len(data) < 2 {
			return Frame{}, fmt.Errorf("consecutive frame %d bytes: %w", len(data), ErrInvalidPDU)
		}
		return Frame{
			Type:     FrameTypeConsecutive,
			Sequence: byte0 & 0x0F,
			Data:     data[1:],
		}, nil
	case FrameTypeFlowControl:
		if len(data) < 3 {
			return Frame{}, fmt.Errorf("flow control frame %d bytes: %w", len(data), ErrInvalidPDU)
		}
		state := FlowState(byte0 & 0x0F)
		if state > FlowOverload {
			return Frame{}, fmt.Errorf("flow status %d: %w", state, ErrInvalidPDU)
		}
		return NewFlowControl(state, data[1], data[2]), nil
	default:
		return Frame{}, fmt.Errorf("pci byte %02X: %w", byte0, ErrInvalidPDU)
	}
}

func decodeSingle(data []byte, byte0 byte) (Frame, error) {
	if len(data) > cantype.MaxFDFrameSize {
		return Frame{}, &LengthError{Actual: len(data), Expect: cantype.MaxFDFrameSize}
	}
	pduLen := int(byte0 & 0x0F)
	if pduLen > 0 {
		if len(data) < pduLen+1 {
			return Frame{}, fmt.Errorf("single frame %d bytes, pci says %d: %w", len(data), pduLen, ErrInvalidPDU)
		}
		return Frame{Type: FrameTypeSingle, Data: data[1 : 1+pduLen]}, nil
	}
	// escape form
	if len(data) < 2 {
		return Frame{}, ErrInvalidPDU
	}
	pduLen = int(data[1])
	if pduLen == 0 || len(data) < pduLen+2 {
		return Frame{}, fmt.Errorf("single frame %d bytes, pci says %d: %w", len(data), pduLen, ErrInvalidPDU)
	}
	return Frame{Type: FrameTypeSingle, Data: data[2 : 2+pduLen]}, nil
}

func decodeFirst(data []byte, byte0 byte) (Frame, error) {
	if len(data) != cantype.MaxFrameSize && len(data) != cantype.MaxFDFrameSize {
		return Frame{}, &LengthError{Actual: len(data), Expect: cantype.MaxFrameSize}
	}
	length := uint32(byte0&0x0F)<<8 | uint32(data[1])
	if length > 0 {
		return Frame{Type: FrameTypeFirst, Length: length, Data: data[2:]}, nil
	}
	// escape form, 32-bit length
	if len(data) < 7 {
		return Frame{}, ErrInvalidPDU
	}
	length = uint32(data[2])<<24 | uint32(data[3])<<16 | uint32(data[4])<<8 | uint32(data[5])
	return Frame{Type: FrameTypeFirst, Length: length, Data: data[6:]}, nil
}

// Segment splits a full message into the frame chain to transmit: one
// single frame when it fits, otherwise a first frame followed by
// consecutive frames with wrapping sequence numbers.
func Segment(data []byte, fd bool) ([]Frame, error) {
	length := len(data)
	switch {
	case length == 0:
		return nil, ErrEmptyPDU
	case length <= singleFrameSize(fd):
		return []Frame{{Type: FrameTypeSingle, Data: data}}, nil
	case uint64(length) > MaxLength2016:
		return nil, &LengthError{Actual: length, Expect: MaxLength2016}
	}

	escape := length > MaxLength2004
	headSize := firstFrameSize(fd, escape)
	frames := []Frame{{
		Type:   FrameTypeFirst,
		Length: uint32(length),
		Data:   data[:headSize],
	}}

	cfSize := consecutiveFrameSize(fd)
	sequence := uint8(ConsecutiveSequenceStart)
	for offset := headSize; offset < length; offset += cfSize {
		end := offset + cfSize
		if end > length {
			end = length
		}
		frames = append(frames, Frame{
			Type:     FrameTypeConsecutive,
			Sequence: sequence,
			Data:     data[offset:end],
		})
		if sequence >= 0x0F {
			sequence = 0
		} else {
			sequence++
		}
	}
	return frames, nil
}
