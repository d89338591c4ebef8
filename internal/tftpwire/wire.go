// Package tftpwire encodes and decodes RFC 1350 TFTP packets: RRQ, WRQ,
// DATA, ACK and ERROR. Wire integers are big-endian, per RFC 1350 and per
// original_source/modulo_bc/components/tftp/include/tftp.h's tftp_packet_t.
// A Frame is a small tagged union rather than a union-over-memory struct, so
// a caller can never read through a mismatched field.
package tftpwire

import (
	"encoding/binary"
)

// Opcode identifies which TFTP packet a Frame carries.
type Opcode uint16

const (
	OpRRQ   Opcode = 1
	OpWRQ   Opcode = 2
	OpDATA  Opcode = 3
	OpACK   Opcode = 4
	OpERROR Opcode = 5
)

// BlockSize is the maximum DATA payload per packet (RFC 1350); a DATA
// payload shorter than BlockSize marks the final block of a transfer.
const BlockSize = 512

const modeOctet = "octet"

// Frame is a decoded TFTP packet. Only the fields relevant to Opcode are
// meaningful.
type Frame struct {
	Opcode Opcode

	// RRQ / WRQ
	Filename string
	Mode     string

	// DATA / ACK
	Block uint16
	Data  []byte // DATA only

	// ERROR
	ErrorCode uint16
	ErrorMsg  string
}

// MarshalRRQ encodes a Read Request for filename in octet mode.
func MarshalRRQ(filename string) []byte {
	return marshalRequest(OpRRQ, filename)
}

// MarshalWRQ encodes a Write Request for filename in octet mode.
func MarshalWRQ(filename string) []byte {
	return marshalRequest(OpWRQ, filename)
}

func marshalRequest(op Opcode, filename string) []byte {
	buf := make([]byte, 2, 2+len(filename)+1+len(modeOctet)+1)
	binary.BigEndian.PutUint16(buf, uint16(op))
	buf = append(buf, filename...)
	buf = append(buf, 0)
	buf = append(buf, modeOctet...)
	buf = append(buf, 0)
	return buf
}

// MarshalDATA encodes a DATA packet. payload must be at most BlockSize
// bytes; the caller is responsible for chunking.
func MarshalDATA(block uint16, payload []byte) []byte {
	buf := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint16(buf[0:2], uint16(OpDATA))
	binary.BigEndian.PutUint16(buf[2:4], block)
	copy(buf[4:], payload)
	return buf
}

// MarshalACK encodes an ACK for the given block number.
func MarshalACK(block uint16) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint16(buf[0:2], uint16(OpACK))
	binary.BigEndian.PutUint16(buf[2:4], block)
	return buf
}

// MarshalERROR encodes an ERROR packet.
func MarshalERROR(code uint16, msg string) []byte {
	buf := make([]byte, 4, 4+len(msg)+1)
	binary.BigEndian.PutUint16(buf[0:2], uint16(OpERROR))
	binary.BigEndian.PutUint16(buf[2:4], code)
	buf = append(buf, msg...)
	buf = append(buf, 0)
	return buf
}

// Unmarshal decodes an arbitrary TFTP packet. It returns an error for a
// packet shorter than 2 bytes, an unknown opcode, a request missing its
// NUL-terminated filename/mode pair, or a DATA/ACK packet shorter than its
// fixed 4-byte header.
func Unmarshal(buf []byte) (*Frame, error) {
	if len(buf) < 2 {
		return nil, malformed("packet too short: %d bytes", len(buf))
	}
	op := Opcode(binary.BigEndian.Uint16(buf[0:2]))
	switch op {
	case OpRRQ, OpWRQ:
		return unmarshalRequest(op, buf[2:])
	case OpDATA:
		if len(buf) < 4 {
			return nil, malformed("data packet too short: %d bytes", len(buf))
		}
		f := &Frame{
			Opcode: OpDATA,
			Block:  binary.BigEndian.Uint16(buf[2:4]),
			Data:   buf[4:],
		}
		return f, nil
	case OpACK:
		if len(buf) < 4 {
			return nil, malformed("ack packet too short: %d bytes", len(buf))
		}
		return &Frame{Opcode: OpACK, Block: binary.BigEndian.Uint16(buf[2:4])}, nil
	case OpERROR:
		if len(buf) < 4 {
			return nil, malformed("error packet too short: %d bytes", len(buf))
		}
		msg := buf[4:]
		if n := indexByte(msg, 0); n >= 0 {
			msg = msg[:n]
		}
		return &Frame{
			Opcode:    OpERROR,
			ErrorCode: binary.BigEndian.Uint16(buf[2:4]),
			ErrorMsg:  string(msg),
		}, nil
	default:
		return nil, malformed("unknown opcode %d", op)
	}
}

func unmarshalRequest(op Opcode, rest []byte) (*Frame, error) {
	nameEnd := indexByte(rest, 0)
	if nameEnd < 0 {
		return nil, malformed("request missing filename terminator")
	}
	filename := string(rest[:nameEnd])
	rest = rest[nameEnd+1:]

	modeEnd := indexByte(rest, 0)
	if modeEnd < 0 {
		return nil, malformed("request missing mode terminator")
	}
	mode := string(rest[:modeEnd])

	return &Frame{Opcode: op, Filename: filename, Mode: mode}, nil
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}
