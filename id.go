package cantype

import (
	"fmt"
	"strconv"
)

// IDKind selects how the raw identifier bits are interpreted.
type IDKind uint8

const (
	// Standard is an 11-bit CAN 2.0A identifier.
	Standard IDKind = iota
	// Extended is a 29-bit CAN 2.0B identifier.
	Extended
	// J1939 is a 29-bit identifier with SAE J1939 PGN structure. The
	// j1939 package knows how to pick it apart.
	J1939
)

func (k IDKind) String() string {
	switch k {
	case Standard:
		return "CAN 2.0A"
	case Extended:
		return "CAN 2.0B"
	case J1939:
		return "J1939"
	default:
		return "unknown"
	}
}

// ID is a CAN bus identifier of any flavor.
type ID struct {
	raw  uint32
	kind IDKind
}

// StandardID builds an 11-bit identifier, masking excess bits.
func StandardID(bits uint16) ID {
	return ID{raw: uint32(bits) & MaskStandard, kind: Standard}
}

// TryStandardID builds an 11-bit identifier and rejects out of range values.
func TryStandardID(bits uint16) (ID, error) {
	if uint32(bits) > MaskStandard {
		return ID{}, fmt.Errorf("standard id 0x%X: %w", bits, ErrInvalidID)
	}
	return ID{raw: uint32(bits), kind: Standard}, nil
}

// ExtendedID builds a 29-bit identifier, masking excess bits.
func ExtendedID(bits uint32) ID {
	return ID{raw: bits & MaskExtended, kind: Extended}
}

// TryExtendedID builds a 29-bit identifier and rejects out of range values.
func TryExtendedID(bits uint32) (ID, error) {
	if bits > MaskExtended {
		return ID{}, fmt.Errorf("extended id 0x%X: %w", bits, ErrInvalidID)
	}
	return ID{raw: bits, kind: Extended}, nil
}

// J1939ID builds a 29-bit J1939 identifier, masking excess bits.
func J1939ID(bits uint32) ID {
	return ID{raw: bits & MaskExtended, kind: J1939}
}

// TryJ1939ID builds a 29-bit J1939 identifier and rejects out of range values.
func TryJ1939ID(bits uint32) (ID, error) {
	if bits > MaskExtended {
		return ID{}, fmt.Errorf("j1939 id 0x%X: %w", bits, ErrInvalidID)
	}
	return ID{raw: bits, kind: J1939}, nil
}

// IDFromBits picks standard or extended interpretation based on the flag.
func IDFromBits(bits uint32, extended bool) ID {
	if extended {
		return ExtendedID(bits)
	}
	return StandardID(uint16(bits & MaskStandard))
}

// ParseID reads a hexadecimal identifier. Unparsable input yields the zero
// identifier, mirroring the forgiving constructors.
func ParseID(hexStr string, extended bool) ID {
	bits, _ := strconv.ParseUint(hexStr, 16, 32)
	return IDFromBits(uint32(bits), extended)
}

// TryParseID reads a hexadecimal identifier, rejecting bad syntax and out
// of range values.
func TryParseID(hexStr string, extended bool) (ID, error) {
	bits, err := strconv.ParseUint(hexStr, 16, 32)
	if err != nil {
		return ID{}, fmt.Errorf("parse id %q: %w", hexStr, ErrInvalidID)
	}
	if extended {
		return TryExtendedID(uint32(bits))
	}
	if bits > uint64(MaskStandard) {
		return ID{}, fmt.Errorf("standard id 0x%X: %w", bits, ErrInvalidID)
	}
	return TryStandardID(uint16(bits))
}

// Raw returns the identifier bits without flags.
func (id ID) Raw() uint32 {
	return id.raw
}

// Kind returns the identifier flavor.
func (id ID) Kind() IDKind {
	return id.kind
}

// IsExtended reports whether the identifier needs the 29-bit format on the
// wire. A 29-bit flavor holding a value that fits in 11 bits reports false.
func (id ID) IsExtended() bool {
	if id.kind == Standard {
		return false
	}
	return id.raw&^MaskStandard > 0
}

// StandardID returns the base identifier, bits ID-28..ID-18 for the
// extended flavors and the identifier itself for standard ones.
func (id ID) StandardID() ID {
	if id.kind == Standard {
		return id
	}
	return StandardID(uint16(id.raw >> 18))
}

// Hex renders the identifier as fixed width upper-case hex, three digits
// for standard and eight for the 29-bit flavors.
func (id ID) Hex() string {
	if id.kind == Standard {
		return fmt.Sprintf("%03X", id.raw)
	}
	return fmt.Sprintf("%08X", id.raw)
}

func (id ID) String() string {
	return id.Hex()
}
