package isotp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSTminDuration(t *testing.T) {
	assert.Equal(t, time.Duration(0), STminDuration(0x00))
	assert.Equal(t, 20*time.Millisecond, STminDuration(0x14))
	assert.Equal(t, 127*time.Millisecond, STminDuration(0x7F))
	assert.Equal(t, 100*time.Microsecond, STminDuration(0xF1))
	assert.Equal(t, 900*time.Microsecond, STminDuration(0xF9))

	// reserved values fall back to the maximum
	assert.Equal(t, 127*time.Millisecond, STminDuration(0x80))
	assert.Equal(t, 127*time.Millisecond, STminDuration(0xFA))
}

func TestEncodeSTmin(t *testing.T) {
	assert.Equal(t, uint8(0x00), EncodeSTmin(0))
	assert.Equal(t, uint8(0x14), EncodeSTmin(20*time.Millisecond))
	assert.Equal(t, uint8(0x7F), EncodeSTmin(time.Second))
	assert.Equal(t, uint8(0xF3), EncodeSTmin(300*time.Microsecond))
	assert.Equal(t, uint8(0xF1), EncodeSTmin(50*time.Microsecond))
}

func TestSTminRoundTrip(t *testing.T) {
	for _, raw := range []uint8{0x00, 0x01, 0x14, 0x7F, 0xF1, 0xF5, 0xF9} {
		assert.Equal(t, raw, EncodeSTmin(STminDuration(raw)), "raw %#x", raw)
	}
}
