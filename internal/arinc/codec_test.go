package arinc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeLUIRoundTrip(t *testing.T) {
	buf, err := EncodeLUI(StatusAcceptedNotStarted, "load accepted")
	require.NoError(t, err)
	require.Len(t, buf, LUISize)

	rec, err := DecodeLUI(buf)
	require.NoError(t, err)
	assert.Equal(t, StatusAcceptedNotStarted, rec.Status)
	assert.Equal(t, "load accepted", rec.Description)
}

func TestEncodeLUITruncatesLongDescription(t *testing.T) {
	long := strings.Repeat("x", 400)
	buf, err := EncodeLUI(StatusRejected, long)
	require.NoError(t, err)
	require.Len(t, buf, LUISize)

	rec, err := DecodeLUI(buf)
	require.NoError(t, err)
	assert.Len(t, rec.Description, maxDescriptionLen)
	// the 256th description byte must remain the NUL terminator
	assert.Equal(t, byte(0), buf[LUISize-1])
}

func TestEncodeDecodeLUSRoundTrip(t *testing.T) {
	buf, err := EncodeLUS(StatusInProgress, "uploading", 1, "050")
	require.NoError(t, err)
	require.Len(t, buf, LUSSize)

	rec, err := DecodeLUS(buf)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, rec.Status)
	assert.Equal(t, "uploading", rec.Description)
	assert.EqualValues(t, 1, rec.Counter)
	assert.Equal(t, "050", rec.LoadListRatio)
}

func TestEncodeLUSRejectsBadRatio(t *testing.T) {
	_, err := EncodeLUS(StatusInProgress, "", 0, "5")
	require.Error(t, err)
	var cerr *CodecError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, ErrBadArgument, cerr.Type)

	_, err = EncodeLUS(StatusInProgress, "", 0, "101")
	require.Error(t, err)

	_, err = EncodeLUS(StatusInProgress, "", 0, "abc")
	require.Error(t, err)
}

func TestParseLURRejectsZeroHeaderFiles(t *testing.T) {
	rec := &LURRecord{
		FileLength:     1024,
		NumHeaderFiles: 0,
		HeaderFilename: "HDR001.LUH",
		LoadPartNumber: "PN-0001",
	}
	_, err := EncodeLUR(rec)
	require.Error(t, err)

	buf := make([]byte, lurMinHeaderBytes)
	buf[7] = 0
	_, err = ParseLUR(buf)
	require.Error(t, err)
	var cerr *CodecError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, ErrMalformed, cerr.Type)
}

func TestEncodeParseLURRoundTrip(t *testing.T) {
	rec := &LURRecord{
		FileLength:      2048,
		ProtocolVersion: [2]byte{'A', '4'},
		NumHeaderFiles:  1,
		HeaderFilename:  "HDR001.LUH",
		LoadPartNumber:  "PN-0001-A",
	}
	buf, err := EncodeLUR(rec)
	require.NoError(t, err)

	got, err := ParseLUR(buf)
	require.NoError(t, err)
	assert.Equal(t, rec.FileLength, got.FileLength)
	assert.Equal(t, rec.ProtocolVersion, got.ProtocolVersion)
	assert.Equal(t, rec.NumHeaderFiles, got.NumHeaderFiles)
	assert.Equal(t, rec.HeaderFilename, got.HeaderFilename)
	assert.Equal(t, rec.LoadPartNumber, got.LoadPartNumber)
}

func TestParseLURTruncatesOversizedNames(t *testing.T) {
	longName := strings.Repeat("N", 300)
	rec := &LURRecord{
		NumHeaderFiles: 1,
		HeaderFilename: longName,
		LoadPartNumber: "PN",
	}
	// A 1-byte length field cannot declare more than 255 bytes, so an
	// oversized name only reaches the wire after EncodeLUR has cut it to
	// maxNameLen; this checks that the 300-byte name parses back as exactly
	// maxNameLen bytes.
	buf, err := EncodeLUR(rec)
	require.NoError(t, err)

	got, err := ParseLUR(buf)
	require.NoError(t, err)
	assert.Len(t, got.HeaderFilename, maxNameLen)
}

func TestParseLURRejectsShortBuffer(t *testing.T) {
	_, err := ParseLUR([]byte{0, 1, 2})
	require.Error(t, err)
}

func TestParseLURRejectsDeclaredLengthPastBuffer(t *testing.T) {
	buf := []byte{0, 0, 0, 0, 'A', '4', 0, 1, 200}
	_, err := ParseLUR(buf)
	require.Error(t, err)
}
