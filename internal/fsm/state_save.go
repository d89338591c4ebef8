package fsm

// saveHandler commits the staged firmware file to its final path, grounded
// on state_save.c's state_save_run (BC-LLR-44/45/46/66/67).
type saveHandler struct{}

func (saveHandler) Enter(m *Machine) error {
	m.Log.Info("ENTER ST_SAVE")
	return nil
}

func (saveHandler) Run(m *Machine) (State, error) {
	m.Log.Info("RUNNING ST_SAVE")
	if _, err := m.Sink.Commit(); err != nil {
		m.Log.Error("failed to finalize firmware file", "err", err)
		return Error, err
	}
	return Teardown, nil
}

func (saveHandler) Exit(m *Machine) error {
	m.Log.Info("EXIT ST_SAVE")
	return nil
}
