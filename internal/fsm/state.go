// Package fsm implements the nine-state load-session state machine
// (spec.md §4.6), grounded on
// original_source/modulo_bc/components/state_machine/src/fsm.c and its
// per-state state_*.c files. The C dispatch table of function-pointer
// state_ops_t becomes a map[State]Handler; the global mutable statics
// fsm.c declares (sock, client_addr, lur_file, hash, auth_keys,
// upload_failure_count, ...) become fields of the single
// session.Context each handler receives by pointer.
package fsm

// State identifies one of the load-session's nine states (fsm.h's
// fsm_state_t).
type State int

const (
	Init State = iota
	Operational
	MaintWait
	UploadPrep
	Uploading
	Verify
	Save
	Teardown
	Error
)

func (s State) String() string {
	switch s {
	case Init:
		return "INIT"
	case Operational:
		return "OPERATIONAL"
	case MaintWait:
		return "MAINT_WAIT"
	case UploadPrep:
		return "UPLOAD_PREP"
	case Uploading:
		return "UPLOADING"
	case Verify:
		return "VERIFY"
	case Save:
		return "SAVE"
	case Teardown:
		return "TEARDOWN"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
