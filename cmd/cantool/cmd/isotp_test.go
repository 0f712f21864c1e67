package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadPayloadHexString(t *testing.T) {
	data, err := readPayload("22 F1 90")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x22, 0xF1, 0x90}, data)
}

func TestReadPayloadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payload.hex")
	require.NoError(t, os.WriteFile(path, []byte("DE AD\nBE EF\n"), 0o644))

	data, err := readPayload(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, data)
}

func TestReadPayloadInvalid(t *testing.T) {
	_, err := readPayload("not hex")
	require.Error(t, err)

	_, err = readPayload("")
	require.Error(t, err)
}
