package fsm

import (
	"strings"

	"arincloader/internal/arinc"
	"arincloader/internal/session"
	"arincloader/internal/tftpwire"
)

// uploadPrepHandler pushes the initial INIT_LOAD.LUS, receives and parses
// the loader's LUR, and enforces the software part-number allow-list.
// Grounded on state_upload_prep.c's state_upload_prep_run. Unlike
// MAINT_WAIT, any failure here is fatal — there is no "stay and retry"
// path once the handshake has completed.
type uploadPrepHandler struct{}

func (uploadPrepHandler) Enter(m *Machine) error {
	m.Log.Info("ENTER ST_UPLOAD_PREP")
	return nil
}

func (uploadPrepHandler) Run(m *Machine) (State, error) {
	lus, err := arinc.EncodeLUS(arinc.StatusAcceptedNotStarted, "Operation Accepted", 0, "000")
	if err != nil {
		return Error, err
	}

	if _, err := m.Engine.MakeWRQ(m.Ctx.LoaderAddr, "INIT_LOAD.LUS", lus); err != nil {
		m.Log.Error("failed to push INIT_LOAD.LUS", "err", err)
		return Error, err
	}

	frame, addr, err := m.Engine.RecvFrame()
	if err != nil {
		m.Log.Error("failed to receive WRQ for LUR", "err", err)
		return Error, err
	}
	if frame.Opcode != tftpwire.OpWRQ || !strings.Contains(strings.ToUpper(frame.Filename), ".LUR") {
		m.Log.Error("unexpected opcode, expected WRQ *.LUR", "opcode", frame.Opcode, "filename", frame.Filename)
		return Error, errUnexpectedOpcode
	}

	lurBytes, dropped, err := m.Engine.ServeWRQ(addr, arinc.LURMaxSize)
	for i := 0; i < dropped; i++ {
		m.Ctx.RecordFailure()
	}
	if err != nil {
		m.Log.Error("failed to receive LUR payload", "err", err, "dropped_frames", dropped)
		return Error, err
	}
	if dropped > 0 {
		m.Log.Warn("dropped malformed or out-of-sequence frames during LUR intake", "count", dropped)
	}

	lur, err := arinc.ParseLUR(lurBytes)
	if err != nil {
		m.Log.Error("failed to parse LUR", "err", err)
		return Error, err
	}

	if !m.Config.IsSoftwarePartNumberSupported(lur.LoadPartNumber) {
		m.Log.Error("unsupported software part number", "pn", lur.LoadPartNumber)
		return Error, errUnsupportedPartNumber
	}
	m.Ctx.Status.SetLastPartNumber(lur.LoadPartNumber)

	m.Ctx.LUR = session.LurRecord{
		FileLength:      lur.FileLength,
		ProtocolVersion: lur.ProtocolVersion,
		NumHeaderFiles:  lur.NumHeaderFiles,
		HeaderFilename:  lur.HeaderFilename,
		LoadPartNumber:  lur.LoadPartNumber,
	}
	m.Ctx.LoaderAddr = addr
	return Uploading, nil
}

func (uploadPrepHandler) Exit(m *Machine) error {
	m.Log.Info("EXIT ST_UPLOAD_PREP")
	return nil
}
