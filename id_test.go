package cantype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardID(t *testing.T) {
	id := StandardID(0x145)
	assert.Equal(t, uint32(0x145), id.Raw())
	assert.Equal(t, Standard, id.Kind())
	assert.False(t, id.IsExtended())
	assert.Equal(t, "145", id.Hex())

	// excess bits are masked
	assert.Equal(t, uint32(0x7FF), StandardID(0xFFFF).Raw())

	_, err := TryStandardID(0x800)
	require.ErrorIs(t, err, ErrInvalidID)
}

func TestExtendedID(t *testing.T) {
	id := ExtendedID(0x18DAF110)
	assert.Equal(t, uint32(0x18DAF110), id.Raw())
	assert.Equal(t, Extended, id.Kind())
	assert.True(t, id.IsExtended())
	assert.Equal(t, "18DAF110", id.Hex())

	_, err := TryExtendedID(0x20000000)
	require.ErrorIs(t, err, ErrInvalidID)

	// a 29-bit flavor holding a small value still fits 11 bits on the wire
	assert.False(t, ExtendedID(0x123).IsExtended())
}

func TestStandardIDOfExtended(t *testing.T) {
	id := ExtendedID(0x18DAF110)
	assert.Equal(t, uint32(0x18DAF110>>18), id.StandardID().Raw())
	assert.Equal(t, Standard, id.StandardID().Kind())

	std := StandardID(0x7E0)
	assert.Equal(t, std, std.StandardID())
}

func TestParseID(t *testing.T) {
	id, err := TryParseID("7E0", false)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x7E0), id.Raw())

	id, err = TryParseID("18DAF110", true)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x18DAF110), id.Raw())

	_, err = TryParseID("nope", false)
	require.ErrorIs(t, err, ErrInvalidID)
	_, err = TryParseID("800", false)
	require.ErrorIs(t, err, ErrInvalidID)

	// the forgiving variant never fails
	assert.Equal(t, uint32(0), ParseID("nope", true).Raw())
}

func TestJ1939Kind(t *testing.T) {
	id := J1939ID(0x18FEF100)
	assert.Equal(t, J1939, id.Kind())
	assert.True(t, id.IsExtended())
	assert.Equal(t, "J1939", id.Kind().String())
}
