package fsm

// errorHandler is the terminal state: it discards any staged firmware
// file, emits a fatal log line, and halts the loop. Grounded on
// state_error.c's state_error_run (BC-LLR-105), with Go's explicit error
// return standing in for unlink()'s errno-on-missing-file tolerance and
// Loop's errHalt standing in for abort().
type errorHandler struct{}

func (errorHandler) Enter(m *Machine) error {
	m.Log.Info("ENTER ST_ERROR")
	return nil
}

func (errorHandler) Run(m *Machine) (State, error) {
	if err := m.Sink.Discard(); err != nil {
		m.Log.Warn("could not remove staged firmware file", "err", err)
	} else {
		m.Log.Info("staged firmware file removed")
	}

	m.Log.Error("system in ERROR state, halting")
	return Error, errHalt
}

func (errorHandler) Exit(m *Machine) error {
	m.Log.Info("EXIT ST_ERROR")
	return nil
}
