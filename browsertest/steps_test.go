package browsertest

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/webscaffold/template-e2e/framework"
)

func TestFinishScenarioDumpsCapturedOutputOnFailure(t *testing.T) {
	var buf bytes.Buffer
	capture := &framework.CapturingLogger{}
	capture.Printf("navigated to /")
	capture.Printf("clicked the button")

	state := &scenarioState{debugDest: &buf, capture: capture}
	state.finishScenario("counter updates", errors.New("step failed"))

	out := buf.String()
	assert.Contains(t, out, `failed scenario "counter updates"`)
	assert.Contains(t, out, "navigated to /")
	assert.Contains(t, out, "clicked the button")
	assert.Nil(t, state.capture)
}

func TestFinishScenarioStaysQuietOnSuccess(t *testing.T) {
	var buf bytes.Buffer
	capture := &framework.CapturingLogger{}
	capture.Printf("navigated to /")

	state := &scenarioState{debugDest: &buf, capture: capture}
	state.finishScenario("counter updates", nil)

	assert.Empty(t, buf.String())
	assert.Nil(t, state.capture)
}
