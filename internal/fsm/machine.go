package fsm

import (
	"context"
	"log/slog"
	"net"
	"time"

	"arincloader/internal/config"
	"arincloader/internal/firmware"
	"arincloader/internal/keystore"
	"arincloader/internal/partinfo"
	"arincloader/internal/session"
	"arincloader/internal/tftp"
	"arincloader/internal/trigger"
)

// tickInterval is the FSM's inter-iteration sleep (spec.md §4.6
// "Scheduling": 50 ms between run-loop cycles, BC-LLR-76).
const tickInterval = 50 * time.Millisecond

// Handler implements one state's enter/run/exit actions (fsm.h's
// state_ops_t vtable entry).
type Handler interface {
	// Enter runs once, before the state's first Run.
	Enter(m *Machine) error
	// Run executes one iteration and reports the next state. Returning the
	// same state repeats Run without an intervening Exit/Enter pair.
	Run(m *Machine) (State, error)
	// Exit runs once, after the state's last Run, before the next state's
	// Enter.
	Exit(m *Machine) error
}

// Machine owns the FSM's dependencies and its single session.Context, the
// way fsm.c's bc_task owns the module's global statics.
type Machine struct {
	Ctx      *session.Context
	Config   *config.Config
	Trigger  trigger.Source
	KeyFiles keystore.Files
	Sink     *firmware.Sink
	Engine   *tftp.Engine
	Log      *slog.Logger

	// PartInfo queries free space on the firmware partition; overridable
	// in tests. Defaults to partinfo.Query.
	PartInfo func(path string) (partinfo.Info, error)

	current  State
	handlers map[State]Handler

	// accessPointUp guards the one-time AP bring-up MAINT_WAIT's Enter
	// performs, mirroring state_maint_wait.c's static
	// maint_wait_initialized.
	accessPointUp bool
}

// New builds a Machine wired with the standard dispatch table, starting at
// Init.
func New(ctx *session.Context, cfg *config.Config, trig trigger.Source, keyFiles keystore.Files, sink *firmware.Sink, engine *tftp.Engine, log *slog.Logger) *Machine {
	m := &Machine{
		Ctx:      ctx,
		Config:   cfg,
		Trigger:  trig,
		KeyFiles: keyFiles,
		Sink:     sink,
		Engine:   engine,
		Log:      log,
		PartInfo: partinfo.Query,
		current:  Init,
	}
	m.handlers = map[State]Handler{
		Init:        initHandler{},
		Operational: operationalHandler{},
		MaintWait:   maintWaitHandler{},
		UploadPrep:  uploadPrepHandler{},
		Uploading:   uploadingHandler{},
		Verify:      verifyHandler{},
		Save:        saveHandler{},
		Teardown:    teardownHandler{},
		Error:       errorHandler{},
	}
	return m
}

// Current reports the state the machine currently occupies.
func (m *Machine) Current() State {
	return m.current
}

func (m *Machine) handler(s State) Handler {
	return m.handlers[s]
}

func (m *Machine) recordStatus(event string) {
	m.Ctx.Status.Update(m.current.String(), m.Ctx.Authenticated, m.Ctx.UploadFailureCount, event)
}

// Loop drives the state machine until ctx is cancelled or ERROR's Run asks
// it to halt (the Go expression of state_error.c's abort(): rather than
// terminating the process from inside the library, ERROR's Run returns
// errHalt and Loop surfaces it so main() decides how to exit). Entering a
// state invokes its Enter before the first Run; leaving invokes Exit
// before the new state's Enter (BC-LLR-73/74/75). Every table row in
// spec.md §4.6 names ERROR as "next on error" for its entry action as well
// as its run-loop action; Loop applies that uniformly by routing any
// Enter failure straight to ERROR instead of propagating it up through
// Loop, which several of the original firmware's enter functions get wrong
// by being void and swallowing the failure outright (state_uploading.c's
// state_uploading_enter ignores make_rrq's return value entirely).
func (m *Machine) Loop(ctx context.Context) error {
	h := m.enterState(m.current)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		next, runErr := m.runOnce(h)
		if runErr == errHalt {
			return errHalt
		}

		if next != m.current {
			if h != nil {
				if err := h.Exit(m); err != nil {
					m.Log.Error("state exit failed", "state", m.current, "err", err)
				}
			}
			m.current = next
			h = m.enterState(next)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// enterState calls the handler's Enter for s, recording status afterward.
// If Enter fails and s is not already Error, it routes straight into Error
// (one recursive hop at most, since errorHandler.Enter never fails).
func (m *Machine) enterState(s State) Handler {
	h := m.handler(s)
	if h == nil {
		return nil
	}
	if err := h.Enter(m); err != nil {
		m.Log.Error("state enter failed", "state", s, "err", err)
		if s != Error {
			m.current = Error
			return m.enterState(Error)
		}
	}
	m.recordStatus("enter")
	return h
}

// runOnce executes the current handler's Run and applies the global
// failure-count escalation rule (spec.md §4.6 "Global failure-count
// policy"): after any iteration, upload_failure_count strictly exceeding
// MaxUploadFailures forces ERROR regardless of the state's own verdict.
func (m *Machine) runOnce(h Handler) (State, error) {
	next := Init
	var err error
	if h != nil {
		next, err = h.Run(m)
	}
	if err != nil {
		m.Log.Warn("state run reported error", "state", m.current, "err", err)
	}
	m.recordStatus("run")

	if m.Ctx.UploadFailureCount > m.Config.MaxUploadFailures {
		m.Log.Error("upload failure count exceeded threshold, forcing ERROR",
			"count", m.Ctx.UploadFailureCount, "max", m.Config.MaxUploadFailures)
		next = Error
	}
	return next, err
}

// restoreLoaderAddress restores the main socket's notion of the loader's
// address after an ephemeral-TID excursion (spec.md §4.4 "TID
// discipline").
func (m *Machine) restoreLoaderAddress() {
	if m.Ctx.OriginalLoaderAddr != nil {
		m.Ctx.LoaderAddr = m.Ctx.OriginalLoaderAddr
		m.Ctx.OriginalLoaderAddr = nil
	}
}

// saveLoaderAddress snapshots the current loader address before an
// ephemeral-TID excursion so it can be restored afterward.
func (m *Machine) saveLoaderAddress(addr *net.UDPAddr) {
	m.Ctx.OriginalLoaderAddr = m.Ctx.LoaderAddr
	m.Ctx.LoaderAddr = addr
}
