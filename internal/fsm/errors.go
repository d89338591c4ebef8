package fsm

import "errors"

// errHalt is ERROR's terminal signal: the Go expression of state_error.c's
// abort(). Loop returns it verbatim so the process entrypoint decides how
// to exit (os.Exit, test assertion, etc.) rather than the library calling
// os.Exit itself.
var errHalt = errors.New("fsm: halted in ERROR state")

var (
	errUnexpectedOpcode           = errors.New("fsm: unexpected opcode")
	errUnsupportedPartNumber      = errors.New("fsm: unsupported software part number")
	errInsufficientSpace          = errors.New("fsm: firmware partition below minimum free space")
	errHardwarePartNumberMismatch = errors.New("fsm: hardware part number mismatch")
	errProtocolViolation          = errors.New("fsm: protocol violation")
	errHashMismatch               = errors.New("fsm: computed hash does not match expected hash")
)
