// Package tftp implements the RFC 1350 request/reply exchanges the loader
// needs in both server and client roles on a single bound UDP endpoint:
// serving LUI on RRQ, receiving LUR on WRQ, and initiating WRQ (LUS) and
// RRQ (firmware) transfers of its own. Retry and timeout behavior mirrors
// original_source/modulo_bc/components/tftp/tftp.c; the client-role
// explicit-timeout/typed-error shape is grounded on the teacher's
// internal/driver/device/cgminer_client.go.
package tftp

import (
	"net"
	"time"

	"arincloader/internal/session"
	"arincloader/internal/tftpwire"
)

// Engine serves and initiates TFTP transfers over a single bound UDP
// connection.
type Engine struct {
	Conn       *net.UDPConn
	Timeout    time.Duration
	RetryLimit int
}

// New returns an Engine using the session package's default timeout and
// retry limit.
func New(conn *net.UDPConn) *Engine {
	return &Engine{
		Conn:       conn,
		Timeout:    session.ReceiveTimeout,
		RetryLimit: session.RetryLimit,
	}
}

func (e *Engine) recv(buf []byte) (*tftpwire.Frame, *net.UDPAddr, error) {
	if err := e.Conn.SetReadDeadline(time.Now().Add(e.Timeout)); err != nil {
		return nil, nil, err
	}
	n, addr, err := e.Conn.ReadFromUDP(buf)
	if err != nil {
		if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
			return nil, nil, errTimeout
		}
		return nil, nil, err
	}
	f, err := tftpwire.Unmarshal(buf[:n])
	if err != nil {
		return nil, addr, err
	}
	return f, addr, nil
}

func (e *Engine) send(addr *net.UDPAddr, buf []byte) error {
	_, err := e.Conn.WriteToUDP(buf, addr)
	return err
}

// SendACK sends a bare ACK(block) to addr, for exchanges (like the
// UPLOADING hash packet) that don't go through ServeRRQ/ServeWRQ.
func (e *Engine) SendACK(addr *net.UDPAddr, block uint16) error {
	return e.send(addr, tftpwire.MarshalACK(block))
}

// RecvFrame waits for and decodes one frame from the main connection. It is
// the building block for exchanges that don't fit the RRQ/WRQ patterns
// above, e.g. MAINT_WAIT waiting for the loader's initial RRQ after a
// successful handshake.
func (e *Engine) RecvFrame() (*tftpwire.Frame, *net.UDPAddr, error) {
	buf := make([]byte, 4+tftpwire.BlockSize)
	return e.recv(buf)
}

// ServeRRQ answers a Read Request by sending payload as a sequence of
// lock-step DATA blocks, starting at block 1, and waiting for the matching
// ACK after each. A receive timeout aborts the transfer (server role:
// tftp.c's handle_rrq never retransmits on ACK timeout).
func (e *Engine) ServeRRQ(client *net.UDPAddr, payload []byte) error {
	buf := make([]byte, 4+tftpwire.BlockSize)
	block := uint16(1)
	sent := 0

	for {
		end := sent + tftpwire.BlockSize
		if end > len(payload) {
			end = len(payload)
		}
		chunk := payload[sent:end]

		if err := e.send(client, tftpwire.MarshalDATA(block, chunk)); err != nil {
			return err
		}

		f, _, err := e.recv(buf)
		if err != nil {
			return err
		}
		if f.Opcode != tftpwire.OpACK || f.Block != block {
			return errProtocol
		}

		sent = end
		block++

		if len(chunk) < tftpwire.BlockSize {
			return nil
		}
	}
}

// ServeWRQ answers a Write Request by ACKing block 0, then accumulating
// DATA blocks (bounded by maxBytes) until a short (or zero-length) final
// block arrives. Unexpected opcodes or out-of-sequence blocks are skipped,
// not treated as fatal, mirroring handle_wrq's `continue` on mismatch —
// but each skip is counted and returned to the caller, which must record
// it against upload_failure_count (spec.md §4.4: "dropped and counted
// toward upload_failure_count").
func (e *Engine) ServeWRQ(client *net.UDPAddr, maxBytes int) ([]byte, int, error) {
	if err := e.send(client, tftpwire.MarshalACK(0)); err != nil {
		return nil, 0, err
	}

	expected := uint16(1)
	received := make([]byte, 0, maxBytes)
	buf := make([]byte, 4+tftpwire.BlockSize)
	dropped := 0

	for {
		f, _, err := e.recv(buf)
		if err != nil {
			return nil, dropped, err
		}
		if f.Opcode != tftpwire.OpDATA || f.Block != expected {
			dropped++
			continue
		}

		if len(received)+len(f.Data) <= maxBytes {
			received = append(received, f.Data...)
		}

		if err := e.send(client, tftpwire.MarshalACK(expected)); err != nil {
			return nil, dropped, err
		}
		expected++

		if len(f.Data) < tftpwire.BlockSize {
			break
		}
	}

	if len(received) == 0 {
		return nil, dropped, errEmptyTransfer
	}
	return received, dropped, nil
}

// MakeWRQ initiates a Write Request carrying the entire payload as a single
// terminal DATA(block=1) packet (used for the 274-byte LUS record, which
// always fits in one block). It returns the peer address the loader
// answered from, which the caller must record as the transfer's TID.
// A receive timeout on either wait is retransmitted once, per
// session.RetryLimit, then fails.
func (e *Engine) MakeWRQ(peer *net.UDPAddr, filename string, payload []byte) (*net.UDPAddr, error) {
	buf := make([]byte, 4+tftpwire.BlockSize)

	ackAddr, err := e.requestACK(peer, tftpwire.MarshalWRQ(filename), 0, buf)
	if err != nil {
		return nil, err
	}

	if _, err := e.requestACK(ackAddr, tftpwire.MarshalDATA(1, payload), 1, buf); err != nil {
		return nil, err
	}

	return ackAddr, nil
}

// requestACK sends packet to peer and waits for ACK(wantBlock), retrying
// the send once (total two attempts) on a receive timeout.
func (e *Engine) requestACK(peer *net.UDPAddr, packet []byte, wantBlock uint16, buf []byte) (*net.UDPAddr, error) {
	attempts := e.RetryLimit + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if err := e.send(peer, packet); err != nil {
			return nil, err
		}
		f, addr, err := e.recv(buf)
		if err == errTimeout {
			continue
		}
		if err != nil {
			return nil, err
		}
		if f.Opcode != tftpwire.OpACK || f.Block != wantBlock {
			return nil, errProtocol
		}
		return addr, nil
	}
	return nil, errTimeout
}

// BlockFunc receives one DATA block's payload during a MakeRRQ transfer. It
// returns an error to abort the transfer before the ACK is sent.
type BlockFunc func(block uint16, data []byte) error

// MakeRRQ initiates a Read Request and streams each received DATA block to
// onBlock, ACKing every block accepted by onBlock. A block shorter than
// BlockSize (including zero-length) is the final block. The source address
// of the first DATA is latched as the server's TID and every ACK goes
// there. A receive timeout aborts the transfer without retransmission,
// mirroring make_rrq.
func (e *Engine) MakeRRQ(peer *net.UDPAddr, filename string, onBlock BlockFunc) error {
	if err := e.send(peer, tftpwire.MarshalRRQ(filename)); err != nil {
		return err
	}

	buf := make([]byte, 4+tftpwire.BlockSize)
	received := false
	var serverTID *net.UDPAddr

	for {
		f, from, err := e.recv(buf)
		if err != nil {
			return err
		}
		if f.Opcode != tftpwire.OpDATA {
			continue
		}
		if serverTID == nil {
			serverTID = from
		}

		if err := onBlock(f.Block, f.Data); err != nil {
			return err
		}
		received = true

		if err := e.send(serverTID, tftpwire.MarshalACK(f.Block)); err != nil {
			return err
		}

		if len(f.Data) < tftpwire.BlockSize {
			break
		}
	}

	if !received {
		return errEmptyTransfer
	}
	return nil
}
