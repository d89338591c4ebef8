package fsm

import "arincloader/internal/arinc"

// teardownHandler pushes the final status LUS, then zeroizes the session
// working set and resets authentication, grounded on state_teardown.c's
// state_teardown_run and state_teardown_reset_globals (BC-LLR-47/48/68/106).
type teardownHandler struct{}

func (teardownHandler) Enter(m *Machine) error {
	m.Log.Info("ENTER ST_TEARDOWN")
	return nil
}

func (teardownHandler) Run(m *Machine) (State, error) {
	m.Log.Info("RUNNING ST_TEARDOWN")

	lus, err := arinc.EncodeLUS(arinc.StatusCompletedOK, "Load Completed Successfully", 2, "100")
	if err != nil {
		return Error, err
	}

	if _, err := m.Engine.MakeWRQ(m.Ctx.LoaderAddr, "FINAL_LOAD.LUS", lus); err != nil {
		m.Log.Error("failed to push FINAL_LOAD.LUS", "err", err)
		return Error, err
	}

	m.Ctx.Clear()
	m.Log.Info("session state cleared, returning to MAINT_WAIT")
	return MaintWait, nil
}

func (teardownHandler) Exit(m *Machine) error {
	m.Log.Info("EXIT ST_TEARDOWN")
	return nil
}
