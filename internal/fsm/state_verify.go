package fsm

import (
	"encoding/hex"

	"arincloader/internal/arinc"
)

// verifyHandler byte-compares the computed digest against the loader's
// expected hash, grounded on state_verify.c's memcmp. When configured, it
// also pushes the optional INTERMEDIATE LUS (spec.md §9 Open Question 1:
// "some variants emit it between VERIFY and SAVE") before handing off.
type verifyHandler struct{}

func (verifyHandler) Enter(m *Machine) error {
	m.Log.Info("ENTER ST_VERIFY")
	return nil
}

func (verifyHandler) Run(m *Machine) (State, error) {
	m.Log.Info("RUNNING ST_VERIFY")
	if m.Ctx.ComputedHash != m.Ctx.ExpectedHash {
		m.Log.Error("firmware hash mismatch")
		return Error, errHashMismatch
	}
	m.Ctx.Status.SetLastDigestHex(hex.EncodeToString(m.Ctx.ComputedHash[:]))

	if m.Config.EmitIntermediateLUS {
		lus, err := arinc.EncodeLUS(arinc.StatusInProgress, "Load In Progress", 1, "050")
		if err != nil {
			return Error, err
		}
		if _, err := m.Engine.MakeWRQ(m.Ctx.LoaderAddr, "INTERMEDIATE.LUS", lus); err != nil {
			m.Log.Error("failed to push INTERMEDIATE.LUS", "err", err)
			return Error, err
		}
	}

	return Save, nil
}

func (verifyHandler) Exit(m *Machine) error {
	m.Log.Info("EXIT ST_VERIFY")
	return nil
}
