// Package arinc encodes the target-originated ARINC 615A LUI/LUS records
// and parses the loader-originated LUR record. All multi-byte integers are
// big-endian; every record is written field-by-field with encoding/binary
// rather than mapped onto a host struct, so the wire image never depends on
// compiler packing or host endianness (spec.md §9, "Packed on-the-wire
// records"). Layout and truncation rules are grounded on
// original_source/modulo_bc/components/arinc/arinc.c; the encode-into-a-
// fixed-size-byte-slice style is grounded on the teacher's
// pkg/hashing/hardware/bitcoin_header.go.
package arinc

import (
	"encoding/binary"
)

// StatusCode is the 16-bit ARINC 615A operation status code.
type StatusCode uint16

const (
	StatusAcceptedNotStarted StatusCode = 0x0001
	StatusInProgress         StatusCode = 0x0002
	StatusCompletedOK        StatusCode = 0x0003
	StatusRejected           StatusCode = 0x1000
	StatusAbortedByTarget    StatusCode = 0x1003
	StatusAbortedByLoader    StatusCode = 0x1004
	StatusCancelled          StatusCode = 0x1005
)

const (
	protocolVersion = "A4"

	descriptionFieldLen = 256
	maxDescriptionLen   = descriptionFieldLen - 1 // last byte reserved for NUL

	// LUISize is the exact wire size of an encoded LUI record.
	LUISize = 4 + 2 + 2 + 1 + descriptionFieldLen // 265

	// LUSSize is the exact wire size of an encoded LUS record: the LUI
	// layout followed by counter, exception_timer, estimated_time and the
	// 3-byte ratio field.
	LUSSize = LUISize + 2 + 2 + 2 + 3 // 274

	ratioLen = 3

	// maxNameLen bounds LUR string fields as required by spec.md §4.1:
	// "name fields longer than 255 bytes are truncated and retained".
	maxNameLen = 255

	// lurMinHeaderBytes is file_length(4) + protocol_version(2) + num_header_files(2).
	lurMinHeaderBytes = 8

	// LURMaxSize is the cap on a parsed LUR's total accumulated payload
	// (spec.md §4.4: "bound accumulated payload at 256 bytes (LUR cap)").
	LURMaxSize = 256
)

// LUIRecord is the target's acceptance record (spec.md §3).
type LUIRecord struct {
	FileLength  uint32
	Status      StatusCode
	Description string
}

// LUSRecord is the target's progress/status record (spec.md §3).
type LUSRecord struct {
	FileLength      uint32
	Status          StatusCode
	Description     string
	Counter         uint16
	ExceptionTimer  uint16
	EstimatedTime   uint16
	LoadListRatio   string // exactly 3 ASCII digits, "000".."100"
}

// LURRecord is the loader's upload request, as parsed (spec.md §3). Only
// the first header is retained, per spec.md §4.1.
type LURRecord struct {
	FileLength      uint32
	ProtocolVersion [2]byte
	NumHeaderFiles  uint16
	HeaderFilename  string
	LoadPartNumber  string
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

// EncodeLUI serializes a LUI record to exactly LUISize bytes. description is
// truncated to 255 bytes; the 256th byte is always the terminating NUL.
func EncodeLUI(status StatusCode, description string) ([]byte, error) {
	desc := truncate(description, maxDescriptionLen)

	buf := make([]byte, LUISize)
	binary.BigEndian.PutUint32(buf[0:4], LUISize)
	copy(buf[4:6], protocolVersion)
	binary.BigEndian.PutUint16(buf[6:8], uint16(status))
	buf[8] = byte(len(desc))
	copy(buf[9:9+len(desc)], desc)
	// remaining description bytes, including the terminator, stay zero.

	return buf, nil
}

// DecodeLUI is the reverse of EncodeLUI, used for round-trip testing
// (spec.md §8).
func DecodeLUI(buf []byte) (*LUIRecord, error) {
	if len(buf) < LUISize {
		return nil, malformed("lui: buffer too short: %d bytes, want %d", len(buf), LUISize)
	}
	rec := &LUIRecord{
		FileLength: binary.BigEndian.Uint32(buf[0:4]),
		Status:     StatusCode(binary.BigEndian.Uint16(buf[6:8])),
	}
	descLen := int(buf[8])
	if descLen > maxDescriptionLen {
		descLen = maxDescriptionLen
	}
	rec.Description = string(buf[9 : 9+descLen])
	return rec, nil
}

// EncodeLUS serializes a LUS record to exactly LUSSize bytes. ratio must be
// exactly 3 ASCII bytes in "000".."100".
func EncodeLUS(status StatusCode, description string, counter uint16, ratio string) ([]byte, error) {
	if len(ratio) != ratioLen {
		return nil, badArgument("lus: ratio must be exactly %d bytes, got %d", ratioLen, len(ratio))
	}
	if !isValidRatio(ratio) {
		return nil, badArgument("lus: ratio %q out of range \"000\"..\"100\"", ratio)
	}

	desc := truncate(description, maxDescriptionLen)

	buf := make([]byte, LUSSize)
	binary.BigEndian.PutUint32(buf[0:4], LUSSize)
	copy(buf[4:6], protocolVersion)
	binary.BigEndian.PutUint16(buf[6:8], uint16(status))
	buf[8] = byte(len(desc))
	copy(buf[9:9+len(desc)], desc)

	off := LUISize
	binary.BigEndian.PutUint16(buf[off:off+2], counter)
	off += 2
	binary.BigEndian.PutUint16(buf[off:off+2], 0) // exception_timer, unused
	off += 2
	binary.BigEndian.PutUint16(buf[off:off+2], 0) // estimated_time, unused
	off += 2
	copy(buf[off:off+ratioLen], ratio)

	return buf, nil
}

// DecodeLUS is the reverse of EncodeLUS.
func DecodeLUS(buf []byte) (*LUSRecord, error) {
	if len(buf) < LUSSize {
		return nil, malformed("lus: buffer too short: %d bytes, want %d", len(buf), LUSSize)
	}
	lui, err := DecodeLUI(buf[:LUISize])
	if err != nil {
		return nil, err
	}
	off := LUISize
	rec := &LUSRecord{
		FileLength:     binary.BigEndian.Uint32(buf[0:4]),
		Status:         lui.Status,
		Description:    lui.Description,
		Counter:        binary.BigEndian.Uint16(buf[off : off+2]),
		ExceptionTimer: binary.BigEndian.Uint16(buf[off+2 : off+4]),
		EstimatedTime:  binary.BigEndian.Uint16(buf[off+4 : off+6]),
		LoadListRatio:  string(buf[off+6 : off+6+ratioLen]),
	}
	return rec, nil
}

func isValidRatio(ratio string) bool {
	for _, c := range ratio {
		if c < '0' || c > '9' {
			return false
		}
	}
	return ratio >= "000" && ratio <= "100"
}

// ParseLUR parses a loader-originated LUR frame. It requires at least
// lurMinHeaderBytes of header, then a single header-file name and part
// number (only the first header file is retained, per spec.md §4.1).
// num_header_files == 0 is rejected. Name fields longer than 255 bytes are
// truncated and retained rather than rejected.
func ParseLUR(buf []byte) (*LURRecord, error) {
	if len(buf) < lurMinHeaderBytes {
		return nil, malformed("lur: buffer too short: %d bytes, want at least %d", len(buf), lurMinHeaderBytes)
	}

	fileLength := binary.BigEndian.Uint32(buf[0:4])
	var protoVersion [2]byte
	copy(protoVersion[:], buf[4:6])
	numHeaders := binary.BigEndian.Uint16(buf[6:8])

	if numHeaders == 0 {
		return nil, malformed("lur: num_header_files == 0")
	}

	rest := buf[lurMinHeaderBytes:]

	name, rest, err := readLengthPrefixed(rest)
	if err != nil {
		return nil, malformed("lur: header filename: %v", err)
	}

	pn, _, err := readLengthPrefixed(rest)
	if err != nil {
		return nil, malformed("lur: part number: %v", err)
	}

	return &LURRecord{
		FileLength:      fileLength,
		ProtocolVersion: protoVersion,
		NumHeaderFiles:  numHeaders,
		HeaderFilename:  name,
		LoadPartNumber:  pn,
	}, nil
}

// readLengthPrefixed reads a 1-byte length followed by that many bytes,
// truncating to maxNameLen, and returns the remaining buffer.
func readLengthPrefixed(buf []byte) (string, []byte, error) {
	if len(buf) < 1 {
		return "", nil, malformed("missing length byte")
	}
	n := int(buf[0])
	buf = buf[1:]
	if n > len(buf) {
		return "", nil, malformed("declared length %d exceeds remaining %d bytes", n, len(buf))
	}
	value := buf[:n]
	buf = buf[n:]
	if len(value) > maxNameLen {
		value = value[:maxNameLen]
	}
	return string(value), buf, nil
}

// EncodeLUR serializes a LUR record, the inverse of ParseLUR, used for
// round-trip tests (spec.md §8: parse_lur(encode_lur(x)) == x for x whose
// string fields are <= 255 bytes and num_header_files >= 1).
func EncodeLUR(rec *LURRecord) ([]byte, error) {
	if rec.NumHeaderFiles == 0 {
		return nil, badArgument("lur: num_header_files must be >= 1")
	}
	name := truncate(rec.HeaderFilename, maxNameLen)
	pn := truncate(rec.LoadPartNumber, maxNameLen)

	buf := make([]byte, 0, lurMinHeaderBytes+1+len(name)+1+len(pn))
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[0:4], rec.FileLength)
	copy(hdr[4:6], rec.ProtocolVersion[:])
	binary.BigEndian.PutUint16(hdr[6:8], rec.NumHeaderFiles)
	buf = append(buf, hdr[:]...)
	buf = append(buf, byte(len(name)))
	buf = append(buf, name...)
	buf = append(buf, byte(len(pn)))
	buf = append(buf, pn...)
	return buf, nil
}
