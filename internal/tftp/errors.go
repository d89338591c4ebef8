package tftp

import "errors"

var (
	// errTimeout marks a receive-timeout (EAGAIN/EWOULDBLOCK class).
	errTimeout = errors.New("tftp: receive timeout")
	// errProtocol marks an ACK that did not match the expected block, or an
	// unexpected opcode where only one opcode is ever valid.
	errProtocol = errors.New("tftp: protocol violation")
	// errEmptyTransfer marks a transfer that produced zero data blocks.
	errEmptyTransfer = errors.New("tftp: empty transfer")
)

// IsTimeout reports whether err is the receive-timeout sentinel, letting
// callers distinguish a recoverable timeout from a fatal transfer error.
func IsTimeout(err error) bool {
	return errors.Is(err, errTimeout)
}
