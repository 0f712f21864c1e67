package cantype

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

// Direction tells whether a frame was transmitted or received.
type Direction uint8

const (
	Rx Direction = iota
	Tx
)

func (d Direction) String() string {
	if d == Tx {
		return "Tx"
	}
	return "Rx"
}

// Frame is the capability shared by everything that can travel over a CAN
// bus connection: classic frames, CAN FD frames and J1939 messages alike.
type Frame interface {
	ID() ID
	Data() []byte
	// DLC is the data length code as it appears on the wire.
	DLC() int
	// Length is the payload length in bytes.
	Length() int
	IsExtended() bool
	IsRemote() bool
	IsFD() bool
	IsBitrateSwitch() bool
	IsErrorFrame() bool
	// IsESI reports the error state indicator of a CAN FD frame.
	IsESI() bool
	Direction() Direction
	// Timestamp is milliseconds since the capture epoch, zero when the
	// adapter does not timestamp.
	Timestamp() uint64
	// Channel names the bus the frame belongs to, typically the network
	// interface or serial port.
	Channel() string
}

var _ Frame = (*Message)(nil)

// Message is a single CAN or CAN FD frame.
type Message struct {
	id        ID
	data      []byte
	remote    bool
	fd        bool
	brs       bool
	errFrame  bool
	esi       bool
	direction Direction
	timestamp uint64
	channel   string
}

// NewMessage creates a data frame and copies the payload. Payloads above 8
// bytes implicitly make the frame CAN FD.
func NewMessage(id ID, data []byte) (*Message, error) {
	if len(data) > MaxFDFrameSize {
		return nil, fmt.Errorf("payload %d bytes: %w", len(data), ErrInvalidLength)
	}
	d := make([]byte, len(data))
	copy(d, data)
	return &Message{id: id, data: d, fd: len(data) > MaxFrameSize}, nil
}

// NewRemote creates a remote transmission request for length bytes.
func NewRemote(id ID, length int) (*Message, error) {
	if length < 0 || length > MaxFrameSize {
		return nil, fmt.Errorf("rtr length %d: %w", length, ErrInvalidLength)
	}
	return &Message{id: id, data: make([]byte, length), remote: true}, nil
}

func (m *Message) ID() ID {
	return m.id
}

func (m *Message) Data() []byte {
	return m.data
}

func (m *Message) DLC() int {
	dlc, err := DLC(len(m.data))
	if err != nil {
		return 0
	}
	return int(dlc)
}

func (m *Message) Length() int {
	return len(m.data)
}

func (m *Message) IsExtended() bool {
	return m.id.IsExtended()
}

func (m *Message) IsRemote() bool {
	return m.remote
}

func (m *Message) IsFD() bool {
	return m.fd
}

// SetFD marks the frame as CAN FD and pads the payload up to the nearest
// valid FD size. Turning FD off on an oversized payload is rejected.
func (m *Message) SetFD(v bool) error {
	if !v && len(m.data) > MaxFrameSize {
		return fmt.Errorf("payload %d bytes: %w", len(m.data), ErrInvalidLength)
	}
	if v {
		size, err := FDSize(len(m.data))
		if err != nil {
			return err
		}
		for len(m.data) < size {
			m.data = append(m.data, DefaultPadding)
		}
	}
	m.fd = v
	return nil
}

func (m *Message) IsBitrateSwitch() bool {
	return m.brs
}

func (m *Message) SetBitrateSwitch(v bool) {
	m.brs = v
}

func (m *Message) IsErrorFrame() bool {
	return m.errFrame
}

func (m *Message) SetErrorFrame(v bool) {
	m.errFrame = v
}

func (m *Message) IsESI() bool {
	return m.esi
}

func (m *Message) SetESI(v bool) {
	m.esi = v
}

func (m *Message) Direction() Direction {
	return m.direction
}

func (m *Message) SetDirection(d Direction) {
	m.direction = d
}

func (m *Message) Timestamp() uint64 {
	return m.timestamp
}

func (m *Message) SetTimestamp(ts uint64) {
	m.timestamp = ts
}

func (m *Message) Channel() string {
	return m.channel
}

func (m *Message) SetChannel(ch string) {
	m.channel = ch
}

var (
	yellow = color.New(color.FgHiBlue).SprintfFunc()
	red    = color.New(color.FgRed).SprintfFunc()
	green  = color.New(color.FgGreen).SprintfFunc()
)

func (m *Message) String() string {
	var out strings.Builder
	out.WriteString("0x" + m.id.Hex() + " || ")
	out.WriteString(strconv.Itoa(len(m.data)) + " || ")
	out.WriteString(fmt.Sprintf("%-23s", hexView(m.data)))
	out.WriteString(" || ")
	out.WriteString(onlyPrintable(m.data))
	return out.String()
}

// ColorString renders the frame for terminal monitors.
func (m *Message) ColorString() string {
	var out strings.Builder
	out.WriteString(green("0x%s", m.id.Hex()) + " || ")
	out.WriteString(strconv.Itoa(len(m.data)) + " || ")
	out.WriteString(red("%-23s", hexView(m.data)))
	out.WriteString(" || ")
	out.WriteString(yellow(onlyPrintable(m.data)))
	return out.String()
}

func hexView(data []byte) string {
	var out strings.Builder
	for i, b := range data {
		out.WriteString(fmt.Sprintf("%02X", b))
		if i != len(data)-1 {
			out.WriteString(" ")
		}
	}
	return out.String()
}

func onlyPrintable(data []byte) string {
	var out strings.Builder
	for _, b := range data {
		if b < 32 || b > 127 {
			out.WriteString(".")
		} else {
			out.WriteByte(b)
		}
	}
	return out.String()
}
