package tftpwire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalRRQ(t *testing.T) {
	buf := MarshalRRQ("firmware.bin")
	f, err := Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, OpRRQ, f.Opcode)
	assert.Equal(t, "firmware.bin", f.Filename)
	assert.Equal(t, modeOctet, f.Mode)
}

func TestMarshalUnmarshalWRQ(t *testing.T) {
	buf := MarshalWRQ("file.LUR")
	f, err := Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, OpWRQ, f.Opcode)
	assert.Equal(t, "file.LUR", f.Filename)
}

func TestMarshalUnmarshalDATA(t *testing.T) {
	payload := make([]byte, 300)
	for i := range payload {
		payload[i] = byte(i)
	}
	buf := MarshalDATA(7, payload)
	f, err := Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, OpDATA, f.Opcode)
	assert.EqualValues(t, 7, f.Block)
	assert.Equal(t, payload, f.Data)
}

func TestMarshalUnmarshalACK(t *testing.T) {
	buf := MarshalACK(3)
	f, err := Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, OpACK, f.Opcode)
	assert.EqualValues(t, 3, f.Block)
}

func TestMarshalUnmarshalERROR(t *testing.T) {
	buf := MarshalERROR(1, "file not found")
	f, err := Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, OpERROR, f.Opcode)
	assert.EqualValues(t, 1, f.ErrorCode)
	assert.Equal(t, "file not found", f.ErrorMsg)
}

func TestUnmarshalRejectsShortPackets(t *testing.T) {
	_, err := Unmarshal([]byte{0})
	require.Error(t, err)

	_, err = Unmarshal([]byte{0, byte(OpDATA), 0})
	require.Error(t, err)

	_, err = Unmarshal([]byte{0, byte(OpACK), 0})
	require.Error(t, err)
}

func TestUnmarshalRejectsUnknownOpcode(t *testing.T) {
	_, err := Unmarshal([]byte{0, 99})
	require.Error(t, err)
}

func TestUnmarshalRejectsUnterminatedRequest(t *testing.T) {
	buf := make([]byte, 2)
	buf[1] = byte(OpRRQ)
	buf = append(buf, "nofilenameterminator"...)
	_, err := Unmarshal(buf)
	require.Error(t, err)
}

func TestDataBlockShorterThanBlockSizeIsFinal(t *testing.T) {
	buf := MarshalDATA(1, []byte("short"))
	f, err := Unmarshal(buf)
	require.NoError(t, err)
	assert.Less(t, len(f.Data), BlockSize)
}
