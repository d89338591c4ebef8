package fsm

import (
	"crypto/sha256"

	"arincloader/internal/session"
	"arincloader/internal/tftpwire"
)

// uploadingHandler pulls the firmware image via RRQ, then waits for the
// loader's trailing expected-hash packet. Grounded on state_uploading.c
// (BC-LLR-37/40/41/63/64/89/90/96-102), with one deliberate departure: the
// original firmware's state_uploading_enter calls the blocking make_rrq
// once, before the state's first Run, with no way to retry without
// leaving and re-entering the state. A hardware-PN mismatch on the first
// firmware packet is a soft fault (spec.md §7 "increments the soft
// counter and aborts the current RRQ"; §8 scenario 4 "next loop iteration
// may retry") — but machine.go's enterState routes every non-nil Enter
// error straight to ERROR unconditionally, with no soft/hard distinction,
// because every other Enter failure in this FSM genuinely is fatal. So
// the RRQ pull lives in Run instead: a mismatch stays in UPLOADING and
// retries the RRQ on the next tick, the same way state_maint_wait.go's
// Run loops across malformed frames, and runOnce's global failure-count
// check (not this handler) decides whether repeated soft faults escalate
// to ERROR.
type uploadingHandler struct{}

func (uploadingHandler) Enter(m *Machine) error {
	m.Log.Info("ENTER ST_UPLOADING")
	m.saveLoaderAddress(m.Ctx.LoaderAddr)
	return nil
}

func (h uploadingHandler) Run(m *Machine) (State, error) {
	m.Log.Info("RUNNING ST_UPLOADING")

	if err := h.pullFirmware(m); err != nil {
		if err == errHardwarePartNumberMismatch {
			m.Log.Warn("hardware part number mismatch on first firmware packet, RRQ aborted", "err", err)
			return Uploading, nil
		}
		return Error, err
	}

	frame, addr, err := m.Engine.RecvFrame()
	if err != nil {
		m.Log.Error("failed to receive expected-hash packet", "err", err)
		return Error, err
	}
	if frame.Opcode != tftpwire.OpDATA || len(frame.Data) != sha256.Size {
		return Error, errProtocolViolation
	}

	if err := m.Engine.SendACK(addr, frame.Block); err != nil {
		m.Log.Error("failed to ACK expected-hash packet", "err", err)
		return Error, err
	}

	copy(m.Ctx.ExpectedHash[:], frame.Data)
	m.Ctx.ComputedHash = m.Sink.Sum()
	m.restoreLoaderAddress()

	return Verify, nil
}

func (uploadingHandler) Exit(m *Machine) error {
	m.Log.Info("EXIT ST_UPLOADING")
	return nil
}

// pullFirmware issues one RRQ for the firmware file named in the LUR,
// streaming DATA payloads into the firmware sink while checking free
// space on every block and the hardware part-number embedded in the
// first. A hardware-PN mismatch records exactly one soft fault and
// discards the partial staging file; Run decides whether to retry.
func (uploadingHandler) pullFirmware(m *Machine) error {
	m.Ctx.ResetHash()

	if err := m.Sink.OpenStaging(); err != nil {
		return err
	}

	hwpnVerified := false
	var hwpnBuf []byte

	err := m.Engine.MakeRRQ(m.Ctx.LoaderAddr, m.Ctx.LUR.HeaderFilename, func(block uint16, data []byte) error {
		info, err := m.PartInfo(m.Config.Paths.FirmwareStage)
		if err != nil {
			return err
		}
		if info.FreeBytes < m.Config.MinAvailableSpace {
			return errInsufficientSpace
		}

		terminal := len(data) < session.BlockSize
		if !hwpnVerified {
			hwpnBuf = append(hwpnBuf, data...)
			switch {
			case len(hwpnBuf) >= session.HWPartNumberOffset+session.HWPartNumberLength:
				hwpnVerified = true
				hwpn := string(hwpnBuf[session.HWPartNumberOffset : session.HWPartNumberOffset+session.HWPartNumberLength])
				if hwpn != m.Config.HardwarePartNumber {
					return errHardwarePartNumberMismatch
				}
			case terminal:
				// Boundary case (spec.md §8): too short ever to carry the
				// hardware PN, deferred check never resolves — abort.
				return errHardwarePartNumberMismatch
			}
		}

		return m.Sink.Append(data)
	})
	if err != nil {
		m.Sink.Discard()
		if err == errHardwarePartNumberMismatch {
			m.Ctx.RecordFailure()
		}
		return err
	}

	return nil
}
