package adapter

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/avast/retry-go"
	"github.com/cantype/cantype"
	"go.bug.st/serial"
)

func init() {
	if err := cantype.RegisterAdapter(&cantype.AdapterInfo{
		Name:               "slcan",
		Description:        "Lawicel/CANable serial line CAN adapter",
		RequiresSerialPort: true,
		New:                NewSLCan,
	}); err != nil {
		panic(err)
	}
}

// SLCan speaks the Lawicel ASCII protocol over a serial port. Classic
// frames only, the protocol has no CAN FD records.
type SLCan struct {
	*Base
	port   serial.Port
	closed bool
}

func NewSLCan(cfg *cantype.Config) (cantype.Adapter, error) {
	if cfg.Port == "" {
		return nil, errors.New("slcan: no serial port configured")
	}
	return &SLCan{Base: NewBase("slcan", cfg)}, nil
}

var slcanRates = map[int]string{
	10000:   "S0",
	20000:   "S1",
	50000:   "S2",
	100000:  "S3",
	125000:  "S4",
	250000:  "S5",
	500000:  "S6",
	800000:  "S7",
	1000000: "S8",
}

func (sl *SLCan) Open(ctx context.Context) error {
	mode := &serial.Mode{
		BaudRate: sl.cfg.PortBaudrate,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
	err := retry.Do(func() error {
		p, err := serial.Open(sl.cfg.Port, mode)
		if err != nil {
			return fmt.Errorf("failed to open com port %q: %w", sl.cfg.Port, err)
		}
		sl.port = p
		return nil
	},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.OnRetry(func(n uint, err error) {
			sl.log.Debugw("retrying com port open", "attempt", n, "error", err)
		}),
	)
	if err != nil {
		return err
	}
	sl.port.SetReadTimeout(1 * time.Millisecond)
	sl.port.ResetOutputBuffer()
	sl.port.ResetInputBuffer()

	rate, found := slcanRates[sl.cfg.BitRate]
	if !found {
		sl.port.Close()
		return fmt.Errorf("slcan: unsupported bitrate %d", sl.cfg.BitRate)
	}
	sl.port.Write([]byte("C\r"))
	time.Sleep(10 * time.Millisecond)
	sl.port.Write([]byte(rate + "\r"))
	time.Sleep(10 * time.Millisecond)
	sl.port.Write([]byte("O\r"))

	go sl.sendManager(ctx)
	go sl.recvManager(ctx)
	return nil
}

func (sl *SLCan) Close() error {
	sl.closed = true
	sl.CloseBase()
	if sl.port == nil {
		return nil
	}
	time.Sleep(10 * time.Millisecond)
	sl.port.Write([]byte("C\r"))
	time.Sleep(10 * time.Millisecond)
	return sl.port.Close()
}

func (sl *SLCan) sendManager(ctx context.Context) {
	f := bytes.NewBuffer(nil)
	for {
		select {
		case <-ctx.Done():
			return
		case <-sl.closeChan:
			return
		case msg := <-sl.sendChan:
			sl.encodeFrame(f, msg)
			if _, err := sl.port.Write(f.Bytes()); err != nil {
				sl.SetError(fmt.Errorf("failed to write to com port: %s, %w", f.String(), err))
			}
			if sl.cfg.Debug {
				sl.log.Debugw("slcan tx", "cmd", f.String())
			}
			f.Reset()
		}
	}
}

func (sl *SLCan) encodeFrame(f *bytes.Buffer, msg *cantype.Message) {
	switch {
	case msg.IsRemote() && msg.IsExtended():
		f.WriteString("R" + fmt.Sprintf("%08X", msg.ID().Raw()) + strconv.Itoa(msg.Length()))
	case msg.IsRemote():
		f.WriteString("r" + fmt.Sprintf("%03X", msg.ID().Raw()) + strconv.Itoa(msg.Length()))
	case msg.IsExtended():
		f.WriteString("T" + fmt.Sprintf("%08X", msg.ID().Raw()) +
			strconv.Itoa(msg.Length()) + hex.EncodeToString(msg.Data()))
	default:
		f.WriteString("t" + fmt.Sprintf("%03X", msg.ID().Raw()) +
			strconv.Itoa(msg.Length()) + hex.EncodeToString(msg.Data()))
	}
	f.WriteByte(0x0D)
}

func (sl *SLCan) recvManager(ctx context.Context) {
	buff := bytes.NewBuffer(nil)
	readBuffer := make([]byte, 16)
	for {
		select {
		case <-ctx.Done():
			return
		case <-sl.closeChan:
			return
		default:
		}
		n, err := sl.port.Read(readBuffer)
		if err != nil {
			if !sl.closed {
				sl.SetError(fmt.Errorf("failed to read com port: %w", err))
			}
			return
		}
		if n == 0 {
			continue
		}
		sl.parse(buff, readBuffer[:n])
	}
}

func (sl *SLCan) parse(buff *bytes.Buffer, readBuffer []byte) {
	for _, b := range readBuffer {
		if b != 0x0D {
			if b != 0x07 {
				buff.WriteByte(b)
				continue
			}
			// bell, last command was unknown
			sl.SetError(errors.New("slcan: unknown command"))
			continue
		}
		if buff.Len() == 0 {
			continue
		}
		by := buff.Bytes()
		switch by[0] {
		case 't', 'T', 'r', 'R':
			if sl.cfg.Debug {
				sl.log.Debugw("slcan rx", "cmd", buff.String())
			}
			msg, err := decodeFrame(by)
			if err != nil {
				sl.SetError(fmt.Errorf("failed to decode frame %X: %w", by, err))
				buff.Reset()
				continue
			}
			msg.SetChannel(sl.cfg.Channel)
			sl.Deliver(msg)
		case 'z', 'Z':
			// transmit ack
		default:
			sl.log.Debugw("slcan unknown response", "cmd", buff.String())
		}
		buff.Reset()
	}
}

func decodeFrame(buff []byte) (*cantype.Message, error) {
	extended := buff[0] == 'T' || buff[0] == 'R'
	remote := buff[0] == 'r' || buff[0] == 'R'

	idLen := 3
	if extended {
		idLen = 8
	}
	if len(buff) < 1+idLen+1 {
		return nil, cantype.ErrInvalidLength
	}
	id, err := cantype.TryParseID(string(buff[1:1+idLen]), extended)
	if err != nil {
		return nil, fmt.Errorf("failed to decode identifier: %w", err)
	}
	length, err := strconv.Atoi(string(buff[1+idLen : 1+idLen+1]))
	if err != nil {
		return nil, fmt.Errorf("failed to decode length: %w", err)
	}
	if remote {
		return cantype.NewRemote(id, length)
	}
	data, err := hex.DecodeString(string(buff[1+idLen+1:]))
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame body: %w", err)
	}
	if len(data) != length {
		return nil, cantype.ErrInvalidLength
	}
	return cantype.NewMessage(id, data)
}
