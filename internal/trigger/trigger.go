// Package trigger detects the rising edge of the maintenance signal the
// OPERATIONAL state polls to decide when to enter MAINT_WAIT. Grounded on
// original_source/modulo_bc/components/button_handler/src/button_handler.c's
// button_is_pressed: level is sampled each poll and compared against the
// last-seen level so only the transition into "active" is reported, never
// a held level.
package trigger

// Source is a non-blocking edge detector (spec.md §6 "Maintenance
// trigger: boolean edge available as a non-blocking query").
type Source interface {
	// Poll reports true exactly once per transition into the active level.
	Poll() bool
}

// Level reads the raw (un-debounced) current state of the underlying
// signal.
type Level interface {
	Read() bool
}

// EdgeDetector turns a raw Level into a Source, tracking the last-seen
// state the way button_is_pressed tracks handle->last_state.
type EdgeDetector struct {
	level     Level
	activeLow bool
	lastState bool
}

// NewEdgeDetector wraps level, reporting a rising edge on active-high
// signals or a falling edge on active-low ones, matching the sense of
// button_config_t.active_low.
func NewEdgeDetector(level Level, activeLow bool) *EdgeDetector {
	return &EdgeDetector{level: level, activeLow: activeLow}
}

// Poll implements Source.
func (d *EdgeDetector) Poll() bool {
	raw := d.level.Read()
	active := raw
	if d.activeLow {
		active = !raw
	}

	if active && !d.lastState {
		d.lastState = true
		return true
	}
	if !active {
		d.lastState = false
	}
	return false
}

// FileLevel is a Level backed by the presence of a file, for running the
// FSM off target hardware: touching the file simulates pressing the
// maintenance button.
type FileLevel struct {
	Path string
}

// Read reports whether the file at Path currently exists.
func (f FileLevel) Read() bool {
	return fileExists(f.Path)
}
