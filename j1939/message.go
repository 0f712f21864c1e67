package j1939

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/cantype/cantype"
)

// PDUType selects how the 64 payload bits of a message are interpreted.
type PDUType uint8

const (
	// PDUData is plain parameter group data.
	PDUData PDUType = iota
	// PDUName is a J1939 NAME field, as carried by address claim
	// messages.
	PDUName
)

// PDU is the 64-bit payload of a J1939 message.
type PDU struct {
	typ  PDUType
	bits uint64
}

// DataField wraps 64 bits of generic parameter group data.
func DataField(bits uint64) PDU {
	return PDU{typ: PDUData, bits: bits}
}

// NameField wraps a 64-bit J1939 NAME.
func NameField(bits uint64) PDU {
	return PDU{typ: PDUName, bits: bits}
}

// PDUFromHex reads a 64-bit payload from hex, yielding zero on bad input.
func PDUFromHex(hexStr string, typ PDUType) PDU {
	bits, _ := strconv.ParseUint(hexStr, 16, 64)
	return PDU{typ: typ, bits: bits}
}

// TryPDUFromHex reads a 64-bit payload from hex, rejecting bad syntax.
func TryPDUFromHex(hexStr string, typ PDUType) (PDU, error) {
	bits, err := strconv.ParseUint(hexStr, 16, 64)
	if err != nil {
		return PDU{}, fmt.Errorf("parse pdu %q: %w", hexStr, cantype.ErrInvalidLength)
	}
	return PDU{typ: typ, bits: bits}, nil
}

// Type returns the payload interpretation.
func (p PDU) Type() PDUType {
	return p.typ
}

// Bits returns the raw 64 payload bits.
func (p PDU) Bits() uint64 {
	return p.bits
}

// Bytes returns the payload big-endian, the order the NAME field is
// documented in.
func (p PDU) Bytes() []byte {
	var out [8]byte
	binary.BigEndian.PutUint64(out[:], p.bits)
	return out[:]
}

// NAME field accessors, SAE J1939-81 layout from bit 63 down:
// arbitrary address capable (1), industry group (3), vehicle system
// instance (4), vehicle system (7), reserved (1), function (8), function
// instance (5), ECU instance (3), manufacturer code (11), identity
// number (21).

func (p PDU) ArbitraryAddressCapable() bool {
	return p.bits>>63&0x1 == 1
}

func (p PDU) IndustryGroup() uint8 {
	return uint8(p.bits >> 60 & 0x7)
}

func (p PDU) VehicleSystemInstance() uint8 {
	return uint8(p.bits >> 56 & 0xF)
}

func (p PDU) VehicleSystem() uint8 {
	return uint8(p.bits >> 49 & 0x7F)
}

func (p PDU) Function() uint8 {
	return uint8(p.bits >> 40 & 0xFF)
}

func (p PDU) FunctionInstance() uint8 {
	return uint8(p.bits >> 35 & 0x1F)
}

func (p PDU) ECUInstance() uint8 {
	return uint8(p.bits >> 32 & 0x7)
}

func (p PDU) ManufacturerCode() uint16 {
	return uint16(p.bits >> 21 & 0x7FF)
}

func (p PDU) IdentityNumber() uint32 {
	return uint32(p.bits & 0x1FFFFF)
}

// Message is a J1939 frame: a 29-bit identifier and 64 bits of payload.
type Message struct {
	id  ID
	pdu PDU
}

// NewMessage assembles a message from an identifier and payload.
func NewMessage(id ID, pdu PDU) Message {
	return Message{id: id, pdu: pdu}
}

// MessageFromBits builds a message from raw identifier and payload bits.
func MessageFromBits(idBits uint32, pduBits uint64, typ PDUType) Message {
	return Message{id: FromBits(idBits), pdu: PDU{typ: typ, bits: pduBits}}
}

// TryMessageFromBits builds a message, rejecting out of range identifiers.
func TryMessageFromBits(idBits uint32, pduBits uint64, typ PDUType) (Message, error) {
	id, err := TryFromBits(idBits)
	if err != nil {
		return Message{}, err
	}
	return Message{id: id, pdu: PDU{typ: typ, bits: pduBits}}, nil
}

// MessageFromHex builds a message from hexadecimal identifier and payload.
func MessageFromHex(hexID, hexPDU string, typ PDUType) Message {
	return Message{id: FromHex(hexID), pdu: PDUFromHex(hexPDU, typ)}
}

// TryMessageFromHex builds a message, rejecting bad input.
func TryMessageFromHex(hexID, hexPDU string, typ PDUType) (Message, error) {
	id, err := TryFromHex(hexID)
	if err != nil {
		return Message{}, err
	}
	pdu, err := TryPDUFromHex(hexPDU, typ)
	if err != nil {
		return Message{}, err
	}
	return Message{id: id, pdu: pdu}, nil
}

// ID returns the 29-bit identifier.
func (m Message) ID() ID {
	return m.id
}

// PDU returns the payload.
func (m Message) PDU() PDU {
	return m.pdu
}

// Frame converts the message into a transmittable CAN frame on the given
// channel.
func (m Message) Frame(channel string) (*cantype.Message, error) {
	msg, err := cantype.NewMessage(m.id.CANID(), m.pdu.Bytes())
	if err != nil {
		return nil, err
	}
	msg.SetChannel(channel)
	return msg, nil
}
