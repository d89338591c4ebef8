package fsm

import (
	"strings"

	"arincloader/internal/arinc"
	"arincloader/internal/auth"
	"arincloader/internal/keystore"
	"arincloader/internal/tftp"
	"arincloader/internal/tftpwire"
)

// maintWaitHandler brings the maintenance access point up once, then, until
// authenticated, loads the keys and drives the PSK handshake on each Run
// (looping across Run calls while it times out, and zeroing the keys once
// it succeeds or fails), and once authenticated waits for and serves
// the loader's RRQ for "*.LUI". Grounded on state_maint_wait.c; spec.md
// §4.6 places the handshake in the run-loop action rather than inside
// Enter the way the original firmware does it, so that's what this
// handler follows — keeping handshake retries out of Enter also means
// Loop's ctx-cancellation check still runs between attempts.
type maintWaitHandler struct{}

func (maintWaitHandler) Enter(m *Machine) error {
	m.Log.Info("ENTER ST_MAINT_WAIT")
	if !m.accessPointUp {
		m.Log.Info("bringing up maintenance access point")
		m.accessPointUp = true
	}
	return nil
}

func (maintWaitHandler) Run(m *Machine) (State, error) {
	if !m.Ctx.Authenticated {
		if !m.Ctx.Keys.Loaded {
			if err := keystore.LoadKeys(m.KeyFiles, &m.Ctx.Keys); err != nil {
				m.Log.Error("failed to load authentication keys", "err", err)
				return Error, err
			}
		}

		outcome, err := auth.Handshake(m.Engine.Conn, m.Ctx.LoaderAddr, &m.Ctx.Keys, m.Engine.Timeout)
		switch outcome {
		case auth.Timeout:
			return MaintWait, nil
		case auth.Authenticated:
			m.Ctx.Authenticated = true
			keystore.Clear(&m.Ctx.Keys)
			return MaintWait, nil
		default:
			keystore.Clear(&m.Ctx.Keys)
			m.Log.Error("authentication failed", "outcome", outcome, "err", err)
			return Error, err
		}
	}

	frame, addr, err := m.Engine.RecvFrame()
	if err != nil {
		if tftp.IsTimeout(err) {
			return MaintWait, nil
		}
		m.Log.Warn("malformed or unexpected frame while waiting for RRQ", "err", err)
		m.Ctx.RecordFailure()
		return MaintWait, nil
	}

	if frame.Opcode != tftpwire.OpRRQ || !strings.Contains(strings.ToUpper(frame.Filename), ".LUI") {
		m.Log.Warn("unexpected opcode while waiting for RRQ *.LUI", "opcode", frame.Opcode, "filename", frame.Filename)
		m.Ctx.RecordFailure()
		return MaintWait, nil
	}

	lui, err := arinc.EncodeLUI(arinc.StatusAcceptedNotStarted, "Operation Accepted")
	if err != nil {
		return Error, err
	}

	if err := m.Engine.ServeRRQ(addr, lui); err != nil {
		if tftp.IsTimeout(err) {
			return MaintWait, nil
		}
		m.Log.Warn("failed to serve LUI", "err", err)
		m.Ctx.RecordFailure()
		return MaintWait, nil
	}

	m.Ctx.LoaderAddr = addr
	return UploadPrep, nil
}

func (maintWaitHandler) Exit(m *Machine) error {
	m.Log.Info("EXIT ST_MAINT_WAIT")
	return nil
}
