package fsm

// armable is satisfied by trigger sources that need explicit setup/teardown
// around polling (e.g. configuring a GPIO interrupt); trigger.EdgeDetector
// does not need it, so the type assertion in Enter/Exit is a no-op for the
// common case. Grounded on state_operational.c's button_config/
// button_deinit pair.
type armable interface {
	Arm() error
	Disarm() error
}

// operationalHandler polls the maintenance trigger until it sees a rising
// edge, grounded on state_operational.c's state_operational_run.
type operationalHandler struct{}

func (operationalHandler) Enter(m *Machine) error {
	m.Log.Info("ENTER ST_OPERATIONAL")
	if a, ok := m.Trigger.(armable); ok {
		return a.Arm()
	}
	return nil
}

func (operationalHandler) Run(m *Machine) (State, error) {
	if m.Trigger != nil && m.Trigger.Poll() {
		m.Log.Info("maintenance trigger edge detected, transitioning to MAINT_WAIT")
		return MaintWait, nil
	}
	return Operational, nil
}

func (operationalHandler) Exit(m *Machine) error {
	m.Log.Info("EXIT ST_OPERATIONAL")
	if a, ok := m.Trigger.(armable); ok {
		return a.Disarm()
	}
	return nil
}
