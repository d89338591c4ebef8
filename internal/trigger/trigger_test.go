package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeLevel struct{ active bool }

func (f *fakeLevel) Read() bool { return f.active }

func TestEdgeDetectorFiresOnceOnRisingEdge(t *testing.T) {
	level := &fakeLevel{}
	d := NewEdgeDetector(level, false)

	assert.False(t, d.Poll())

	level.active = true
	assert.True(t, d.Poll())
	assert.False(t, d.Poll(), "must not re-fire while held active")

	level.active = false
	assert.False(t, d.Poll())

	level.active = true
	assert.True(t, d.Poll(), "must fire again on a fresh edge")
}

func TestEdgeDetectorActiveLowInvertsSense(t *testing.T) {
	level := &fakeLevel{active: true} // raw high == inactive for active-low
	d := NewEdgeDetector(level, true)

	assert.False(t, d.Poll())

	level.active = false // raw low == active for active-low
	assert.True(t, d.Poll())
}

func TestFileLevelReflectsFileExistence(t *testing.T) {
	path := t.TempDir() + "/trigger"
	fl := FileLevel{Path: path}
	assert.False(t, fl.Read())
}
