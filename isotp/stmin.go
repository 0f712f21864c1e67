package isotp

import "time"

// STminDuration converts a raw STmin byte to the separation time it
// encodes. 0x00..0x7F are milliseconds, 0xF1..0xF9 are 100..900
// microseconds. Reserved values fall back to the maximum of 127 ms as
// the standard requires.
func STminDuration(raw uint8) time.Duration {
	switch {
	case raw <= 0x7F:
		return time.Duration(raw) * time.Millisecond
	case raw >= 0xF1 && raw <= 0xF9:
		return time.Duration(raw-0xF0) * 100 * time.Microsecond
	default:
		return 127 * time.Millisecond
	}
}

// EncodeSTmin converts a separation time to the nearest raw STmin byte.
func EncodeSTmin(d time.Duration) uint8 {
	switch {
	case d <= 0:
		return 0x00
	case d < time.Millisecond:
		n := d / (100 * time.Microsecond)
		if n == 0 {
			n = 1
		}
		return 0xF0 | uint8(n)
	case d >= 127*time.Millisecond:
		return 0x7F
	default:
		return uint8(d / time.Millisecond)
	}
}
