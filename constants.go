package cantype

const (
	// MaskStandard covers the 11 identifier bits of a CAN 2.0A frame.
	MaskStandard uint32 = 0x7FF
	// MaskExtended covers the 29 identifier bits of a CAN 2.0B frame.
	MaskExtended uint32 = 0x1FFFFFFF

	// SocketCAN id flag bits, use the kernel values so the binary codec
	// stays a plain copy.
	FlagExtended uint32 = 0x80000000
	FlagRemote   uint32 = 0x40000000
	FlagError    uint32 = 0x20000000

	// MaxFrameSize is the payload limit for classic CAN.
	MaxFrameSize = 8
	// MaxFDFrameSize is the payload limit for CAN FD.
	MaxFDFrameSize = 64

	// DefaultPadding fills unused payload bytes, 0xAA keeps the bus
	// bit-stuffing friendly.
	DefaultPadding = 0xAA
)

// fdSizes is the set of payload lengths a CAN FD frame can carry above 8
// bytes, one per DLC value 9..15.
var fdSizes = [...]int{12, 16, 20, 24, 32, 48, 64}

// FDSize rounds length up to the nearest valid CAN FD payload size.
// Lengths of 8 or less are returned unchanged.
func FDSize(length int) (int, error) {
	if length < 0 || length > MaxFDFrameSize {
		return 0, ErrInvalidLength
	}
	if length <= MaxFrameSize {
		return length, nil
	}
	for _, s := range fdSizes {
		if length <= s {
			return s, nil
		}
	}
	return 0, ErrInvalidLength
}

// DLC returns the data length code for a payload length. For classic CAN
// the DLC equals the length; CAN FD lengths above 8 map to codes 9..15.
func DLC(length int) (uint8, error) {
	if length < 0 || length > MaxFDFrameSize {
		return 0, ErrInvalidLength
	}
	if length <= MaxFrameSize {
		return uint8(length), nil
	}
	for i, s := range fdSizes {
		if length <= s {
			return uint8(9 + i), nil
		}
	}
	return 0, ErrInvalidLength
}

// LengthFromDLC is the inverse of DLC.
func LengthFromDLC(dlc uint8) (int, error) {
	if dlc <= MaxFrameSize {
		return int(dlc), nil
	}
	if dlc <= 15 {
		return fdSizes[dlc-9], nil
	}
	return 0, ErrInvalidLength
}
