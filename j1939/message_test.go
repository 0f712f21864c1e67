package j1939

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cantype/cantype"
)

func TestNameFieldAccessors(t *testing.T) {
	name := NameField(0x8100008180005B2D)

	assert.True(t, name.ArbitraryAddressCapable())
	assert.Equal(t, uint8(0), name.IndustryGroup())
	assert.Equal(t, PDUName, name.Type())

	// field extraction against a hand-packed value
	packed := uint64(1)<<63 | // arbitrary address capable
		uint64(2)<<60 | // industry group
		uint64(3)<<56 | // vehicle system instance
		uint64(0x11)<<49 | // vehicle system
		uint64(0x81)<<40 | // function
		uint64(0x05)<<35 | // function instance
		uint64(0x02)<<32 | // ecu instance
		uint64(0x2D9)<<21 | // manufacturer code
		uint64(0x15E0F) // identity number
	n := NameField(packed)
	assert.True(t, n.ArbitraryAddressCapable())
	assert.Equal(t, uint8(2), n.IndustryGroup())
	assert.Equal(t, uint8(3), n.VehicleSystemInstance())
	assert.Equal(t, uint8(0x11), n.VehicleSystem())
	assert.Equal(t, uint8(0x81), n.Function())
	assert.Equal(t, uint8(0x05), n.FunctionInstance())
	assert.Equal(t, uint8(0x02), n.ECUInstance())
	assert.Equal(t, uint16(0x2D9), n.ManufacturerCode())
	assert.Equal(t, uint32(0x15E0F), n.IdentityNumber())
}

func TestPDUBytes(t *testing.T) {
	pdu := DataField(0x0102030405060708)
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}, pdu.Bytes())
	assert.Equal(t, PDUData, pdu.Type())
}

func TestMessageFromHex(t *testing.T) {
	msg, err := TryMessageFromHex("18EEFF00", "8100008180005B2D", PDUName)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x18EEFF00), msg.ID().Bits())
	assert.Equal(t, uint64(0x8100008180005B2D), msg.PDU().Bits())

	_, err = TryMessageFromHex("zz", "00", PDUData)
	require.Error(t, err)
	_, err = TryMessageFromHex("18EEFF00", "zz", PDUData)
	require.Error(t, err)
}

func TestMessageFrame(t *testing.T) {
	msg := NewMessage(FromBits(0x18FEF100), DataField(0xA1A2A3A4A5A6A7A8))
	frame, err := msg.Frame("can0")
	require.NoError(t, err)
	assert.Equal(t, cantype.J1939, frame.ID().Kind())
	assert.Equal(t, 8, frame.Length())
	assert.Equal(t, byte(0xA1), frame.Data()[0])
	assert.Equal(t, "can0", frame.Channel())
}

func TestAddressNames(t *testing.T) {
	assert.True(t, Brakes.Known())
	assert.Contains(t, Brakes.String(), "Brakes")
	assert.Equal(t, "Unknown(2)", Address(2).String())
}
