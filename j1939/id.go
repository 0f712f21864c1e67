// Package j1939 models SAE J1939 identifiers, source addresses and
// messages on top of the cantype frame layer.
package j1939

import (
	"fmt"
	"strconv"

	"github.com/cantype/cantype"
)

// ID is a 29-bit J1939 identifier.
//
// Bit layout, ID-28 down to ID-0:
//
//	28..26 priority
//	25     reserved (extended data page)
//	24     data page
//	23..16 PDU format
//	15..8  PDU specific
//	7..0   source address
type ID uint32

// FromBits builds an identifier, masking excess bits.
func FromBits(bits uint32) ID {
	return ID(bits & cantype.MaskExtended)
}

// TryFromBits builds an identifier, rejecting out of range values.
func TryFromBits(bits uint32) (ID, error) {
	if bits > cantype.MaskExtended {
		return 0, fmt.Errorf("j1939 id 0x%X: %w", bits, cantype.ErrInvalidID)
	}
	return ID(bits), nil
}

// FromHex reads a hexadecimal identifier, yielding zero on bad input.
func FromHex(hexStr string) ID {
	bits, _ := strconv.ParseUint(hexStr, 16, 32)
	return FromBits(uint32(bits))
}

// TryFromHex reads a hexadecimal identifier, rejecting bad syntax and out
// of range values.
func TryFromHex(hexStr string) (ID, error) {
	bits, err := strconv.ParseUint(hexStr, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("parse j1939 id %q: %w", hexStr, cantype.ErrInvalidID)
	}
	return TryFromBits(uint32(bits))
}

// FromParts assembles an identifier from its fields. Priority must fit in
// three bits.
func FromParts(priority uint8, reserved, dataPage bool, pduFormat, pduSpecific, sourceAddr uint8) (ID, error) {
	if priority > 0x7 {
		return 0, fmt.Errorf("j1939 priority %d: %w", priority, cantype.ErrInvalidID)
	}
	bits := uint32(priority) << 26
	if reserved {
		bits |= 1 << 25
	}
	if dataPage {
		bits |= 1 << 24
	}
	bits |= uint32(pduFormat) << 16
	bits |= uint32(pduSpecific) << 8
	bits |= uint32(sourceAddr)
	return ID(bits), nil
}

// Priority returns the three priority bits, zero is highest.
func (id ID) Priority() uint8 {
	return uint8(id >> 26 & 0x7)
}

// Reserved returns the reserved (extended data page) flag.
func (id ID) Reserved() bool {
	return id>>25&0x1 == 1
}

// DataPage returns the data page flag.
func (id ID) DataPage() bool {
	return id>>24&0x1 == 1
}

// PDUFormat returns the PDU format byte.
func (id ID) PDUFormat() uint8 {
	return uint8(id >> 16)
}

// PDUSpecific returns the PDU specific byte: a destination address for
// PDU1, a group extension for PDU2.
func (id ID) PDUSpecific() uint8 {
	return uint8(id >> 8)
}

// SourceAddress returns the source address of the sending controller.
func (id ID) SourceAddress() SourceAddress {
	return SomeSource(uint8(id))
}

// IsPDU1 reports whether the identifier addresses a specific destination
// (PDU format < 240).
func (id ID) IsPDU1() bool {
	return id.PDUFormat() < 240
}

// DestinationAddress returns the destination for PDU1 identifiers. PDU2
// identifiers are broadcast and carry none.
func (id ID) DestinationAddress() DestinationAddress {
	if id.IsPDU1() {
		return SomeDestination(id.PDUSpecific())
	}
	return NoDestination()
}

// PGN returns the parameter group number. For PDU1 the PDU specific byte
// is not part of the PGN.
func (id ID) PGN() uint32 {
	pgn := uint32(id) >> 8 & 0x3FF00
	if !id.IsPDU1() {
		pgn |= uint32(id.PDUSpecific())
	}
	return pgn
}

// Bits returns the raw identifier.
func (id ID) Bits() uint32 {
	return uint32(id)
}

// Hex renders the identifier as eight upper-case hex digits.
func (id ID) Hex() string {
	return fmt.Sprintf("%08X", uint32(id))
}

// CANID bridges to the generic identifier type.
func (id ID) CANID() cantype.ID {
	return cantype.J1939ID(uint32(id))
}

func (id ID) String() string {
	return fmt.Sprintf("%s p%d pgn %d sa 0x%02X", id.Hex(), id.Priority(), id.PGN(), uint8(id))
}
