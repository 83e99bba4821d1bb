package reembed

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressTrackerReportsAtIntervals(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressTracker(&buf, 100, 25)
	p.Start()

	p.Update(10)
	assert.Empty(t, buf.String())

	p.Update(25)
	assert.Contains(t, buf.String(), "25/100")

	p.Update(30)
	assert.Equal(t, 1, strings.Count(buf.String(), "Progress:"))

	p.Finish()
	assert.Contains(t, buf.String(), "100/100")
}

func TestProgressTrackerCapsAtTotal(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressTracker(&buf, 10, 1)
	p.Start()

	p.Update(50)
	assert.Contains(t, buf.String(), "10/10")
}

func TestProgressTrackerIgnoresUpdatesBeforeStart(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressTracker(&buf, 10, 1)

	p.Update(5)
	p.Finish()
	assert.Empty(t, buf.String())
	assert.Zero(t, p.Elapsed())
}
