// Package auth performs the pre-shared-key handshake framed as TFTP
// DATA/ACK packets, byte-for-byte per
// original_source/modulo_bc/components/auth/auth.c's
// auth_perform_handshake.
package auth

import (
	"crypto/subtle"
	"net"
	"time"

	"arincloader/internal/session"
	"arincloader/internal/tftpwire"
)

// Outcome classifies how Handshake returned, mirroring spec.md's
// NetworkTransient/fatal split for this component.
type Outcome int

const (
	// Authenticated is the success outcome.
	Authenticated Outcome = iota
	// Timeout is recoverable: the caller should re-enter and try again.
	Timeout
	// KeyMismatch is fatal: the presented key did not match, never retry.
	KeyMismatch
	// NetworkError is fatal: a non-timeout recv/send failure, an unexpected
	// reply to the local key, or keys that were never loaded.
	NetworkError
)

// Conn is the minimal surface Handshake needs from a UDP socket, satisfied
// by *net.UDPConn.
type Conn interface {
	SetReadDeadline(t time.Time) error
	ReadFromUDP(b []byte) (int, *net.UDPAddr, error)
	WriteToUDP(b []byte, addr *net.UDPAddr) (int, error)
}

// Handshake runs one iteration of the two-message PSK exchange on conn,
// addressed to peer. It skips undecodable, non-DATA and wrong-length packets
// as auth_perform_handshake does; a 32-byte DATA whose key does not match
// returns KeyMismatch at once. It returns Timeout (rather than
// blocking indefinitely) the first time a receive times out, so the FSM's
// run loop retains control.
func Handshake(conn Conn, peer *net.UDPAddr, keys *session.AuthKeys, timeout time.Duration) (Outcome, error) {
	if keys == nil || !keys.Loaded {
		return NetworkError, errKeysNotLoaded
	}

	buf := make([]byte, 4+tftpwire.BlockSize)

	var block uint16
	for {
		if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return NetworkError, err
		}
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
				return Timeout, errTimeout
			}
			return NetworkError, err
		}

		f, err := tftpwire.Unmarshal(buf[:n])
		if err != nil {
			continue
		}
		if f.Opcode != tftpwire.OpDATA {
			continue
		}
		if len(f.Data) != session.KeySize {
			continue
		}

		if subtle.ConstantTimeCompare(f.Data, keys.PeerExpectedKey[:]) != 1 {
			return KeyMismatch, errKeyMismatch
		}

		peer = from
		block = f.Block
		break
	}

	if _, err := conn.WriteToUDP(tftpwire.MarshalACK(block), peer); err != nil {
		return NetworkError, err
	}

	if _, err := conn.WriteToUDP(tftpwire.MarshalDATA(1, keys.LocalKey[:]), peer); err != nil {
		return NetworkError, err
	}

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return NetworkError, err
	}
	n, _, err := conn.ReadFromUDP(buf)
	if err != nil {
		if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
			return Timeout, errTimeout
		}
		return NetworkError, err
	}

	f, err := tftpwire.Unmarshal(buf[:n])
	if err != nil {
		return NetworkError, err
	}
	if f.Opcode != tftpwire.OpACK || f.Block != 1 {
		return NetworkError, errProtocol
	}

	return Authenticated, nil
}
