package cantype

import (
	"encoding/binary"
	"fmt"
)

// SocketCAN frame sizes and flag bits, fixed by the kernel ABI.
const (
	frameSize   = 16
	fdFrameSize = 72

	fdFlagBRS = 0x01
	fdFlagESI = 0x02
)

// MarshalBinary encodes the frame to the Linux SocketCAN layout, the
// 16 byte can_frame for classic frames and the 72 byte canfd_frame for FD.
//
// Classic layout (little-endian):
//
//	0..3  can_id with EFF/RTR/ERR flag bits
//	4     data length code
//	5..7  padding, zero
//	8..15 data
func (m *Message) MarshalBinary() ([]byte, error) {
	id := m.id.Raw()
	if m.IsExtended() {
		id |= FlagExtended
	}
	if m.remote {
		id |= FlagRemote
	}
	if m.errFrame {
		id |= FlagError
	}

	if m.fd {
		if len(m.data) > MaxFDFrameSize {
			return nil, ErrInvalidLength
		}
		buf := make([]byte, fdFrameSize)
		binary.LittleEndian.PutUint32(buf[0:4], id)
		buf[4] = byte(len(m.data))
		if m.brs {
			buf[5] |= fdFlagBRS
		}
		if m.esi {
			buf[5] |= fdFlagESI
		}
		copy(buf[8:], m.data)
		return buf, nil
	}

	if len(m.data) > MaxFrameSize {
		return nil, ErrInvalidLength
	}
	buf := make([]byte, frameSize)
	binary.LittleEndian.PutUint32(buf[0:4], id)
	buf[4] = byte(len(m.data))
	copy(buf[8:16], m.data)
	return buf, nil
}

// UnmarshalBinary decodes a SocketCAN can_frame or canfd_frame, selected
// by input size.
func (m *Message) UnmarshalBinary(data []byte) error {
	switch {
	case len(data) >= fdFrameSize:
		return m.unmarshalFD(data)
	case len(data) >= frameSize:
		return m.unmarshalClassic(data)
	default:
		return fmt.Errorf("socketcan frame %d bytes: %w", len(data), ErrInvalidLength)
	}
}

func (m *Message) unmarshalClassic(data []byte) error {
	id := binary.LittleEndian.Uint32(data[0:4])
	length := int(data[4])
	if length > MaxFrameSize {
		return ErrInvalidLength
	}
	m.id = IDFromBits(id&MaskExtended, id&FlagExtended != 0)
	m.remote = id&FlagRemote != 0
	m.errFrame = id&FlagError != 0
	m.fd = false
	m.brs = false
	m.esi = false
	m.data = make([]byte, length)
	copy(m.data, data[8:8+length])
	return nil
}

func (m *Message) unmarshalFD(data []byte) error {
	id := binary.LittleEndian.Uint32(data[0:4])
	length := int(data[4])
	if length > MaxFDFrameSize {
		return ErrInvalidLength
	}
	m.id = IDFromBits(id&MaskExtended, id&FlagExtended != 0)
	m.remote = false
	m.errFrame = id&FlagError != 0
	m.fd = true
	m.brs = data[5]&fdFlagBRS != 0
	m.esi = data[5]&fdFlagESI != 0
	m.data = make([]byte, length)
	copy(m.data, data[8:8+length])
	return nil
}
