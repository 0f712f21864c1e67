//go:build linux

package adapter

import (
	"context"
	"fmt"
	"net"

	"github.com/cantype/cantype"
	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"
)

func init() {
	if err := cantype.RegisterAdapter(&cantype.AdapterInfo{
		Name:               "socketcan",
		Description:        "Linux SocketCAN raw socket",
		RequiresSerialPort: false,
		New:                NewSocketCAN,
	}); err != nil {
		panic(err)
	}
}

// SocketCAN talks to a CAN network interface through a raw AF_CAN socket.
// The interface is brought up over rtnetlink when it is down.
type SocketCAN struct {
	*Base
	iface *net.Interface
	fd    int
}

func NewSocketCAN(cfg *cantype.Config) (cantype.Adapter, error) {
	if cfg.Channel == "" {
		return nil, fmt.Errorf("socketcan: no interface configured")
	}
	return &SocketCAN{Base: NewBase("socketcan", cfg), fd: -1}, nil
}

func (sc *SocketCAN) Open(ctx context.Context) error {
	iface, err := net.InterfaceByName(sc.cfg.Channel)
	if err != nil {
		return fmt.Errorf("socketcan: interface %q: %w", sc.cfg.Channel, err)
	}
	sc.iface = iface

	if iface.Flags&net.FlagUp == 0 {
		if err := sc.setLink(unix.IFF_UP); err != nil {
			return fmt.Errorf("socketcan: link up %q: %w", sc.cfg.Channel, err)
		}
	}

	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW, unix.CAN_RAW)
	if err != nil {
		return fmt.Errorf("socketcan: socket: %w", err)
	}
	sc.fd = fd

	// accept CAN FD payloads as well
	if err := unix.SetsockoptInt(fd, unix.SOL_CAN_RAW, unix.CAN_RAW_FD_FRAMES, 1); err != nil {
		sc.log.Debugw("socketcan: no CAN FD support", "error", err)
	}

	if len(sc.cfg.Filters) > 0 {
		filters := make([]unix.CanFilter, 0, len(sc.cfg.Filters))
		for _, id := range sc.cfg.Filters {
			mask := cantype.MaskStandard
			if id > cantype.MaskStandard {
				mask = cantype.MaskExtended
			}
			filters = append(filters, unix.CanFilter{Id: id, Mask: mask})
		}
		if err := unix.SetsockoptCanRawFilter(fd, unix.SOL_CAN_RAW, unix.CAN_RAW_FILTER, filters); err != nil {
			unix.Close(fd)
			return fmt.Errorf("socketcan: set filters: %w", err)
		}
	}

	if err := unix.Bind(fd, &unix.SockaddrCAN{Ifindex: iface.Index}); err != nil {
		unix.Close(fd)
		return fmt.Errorf("socketcan: bind %q: %w", sc.cfg.Channel, err)
	}

	go sc.sendManager(ctx)
	go sc.recvManager(ctx)
	return nil
}

func (sc *SocketCAN) Close() error {
	sc.CloseBase()
	if sc.fd < 0 {
		return nil
	}
	return unix.Close(sc.fd)
}

func (sc *SocketCAN) setLink(flags uint32) error {
	conn, err := netlink.Dial(unix.NETLINK_ROUTE, nil)
	if err != nil {
		return fmt.Errorf("dial netlink: %w", err)
	}
	defer conn.Close()

	// struct ifinfomsg: family(1) pad(1) type(2) index(4) flags(4) change(4)
	msg := make([]byte, unix.SizeofIfInfomsg)
	msg[0] = unix.AF_UNSPEC
	putUint32(msg[4:8], uint32(sc.iface.Index))
	putUint32(msg[8:12], flags)
	putUint32(msg[12:16], unix.IFF_UP)

	req := netlink.Message{
		Header: netlink.Header{
			Type:  unix.RTM_NEWLINK,
			Flags: netlink.Request | netlink.Acknowledge,
		},
		Data: msg,
	}
	if _, err := conn.Execute(req); err != nil {
		return fmt.Errorf("rtnetlink newlink: %w", err)
	}
	return nil
}

func putUint32(b []byte, v uint32) {
	// rtnetlink is native endian; Linux CAN hosts in this corpus are
	// little-endian
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func (sc *SocketCAN) sendManager(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sc.closeChan:
			return
		case msg := <-sc.sendChan:
			buf, err := msg.MarshalBinary()
			if err != nil {
				sc.SetError(err)
				continue
			}
			if _, err := unix.Write(sc.fd, buf); err != nil {
				sc.SetError(fmt.Errorf("socketcan: write: %w", err))
			}
		}
	}
}

func (sc *SocketCAN) recvManager(ctx context.Context) {
	buf := make([]byte, 72)
	for {
		select {
		case <-ctx.Done():
			return
		case <-sc.closeChan:
			return
		default:
		}
		n, err := unix.Read(sc.fd, buf)
		if err != nil {
			select {
			case <-sc.closeChan:
			default:
				sc.SetError(fmt.Errorf("socketcan: read: %w", err))
			}
			return
		}
		var msg cantype.Message
		if err := msg.UnmarshalBinary(buf[:n]); err != nil {
			sc.SetError(err)
			continue
		}
		msg.SetChannel(sc.cfg.Channel)
		sc.Deliver(&msg)
	}
}
