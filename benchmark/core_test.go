package benchmark

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/webscaffold/template-e2e/framework"
)

func TestDumpTrialDebugWritesCapturedOutput(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	capture := &framework.CapturingLogger{}
	capture.Printf("waiting for console log")
	capture.Printf("poll gave up")

	var buf bytes.Buffer
	dumpTrialDebug(&buf, 7, capture.Output())

	out := buf.String()
	assert.Contains(t, out, "failed iteration 7")
	assert.Contains(t, out, "waiting for console log")
	assert.Contains(t, out, "poll gave up")
}

func TestDumpTrialDebugOnlyCoversTheFailedTrial(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	capture := &framework.CapturingLogger{}
	capture.Printf("earlier trial noise")
	captured := len(capture.Output())
	capture.Printf("this trial's output")

	var buf bytes.Buffer
	dumpTrialDebug(&buf, 2, capture.Output()[captured:])

	assert.NotContains(t, buf.String(), "earlier trial noise")
	assert.Contains(t, buf.String(), "this trial's output")
}
