package browsertest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cucumber/godog"

	"github.com/webscaffold/template-e2e/framework"
)

const buttonLabelPollTimeout = time.Second

// RegisterSteps binds the step definitions and the per-scenario world
// lifecycle to a godog scenario context. Each scenario gets a fresh browser
// session and a fresh capturing logger; the session is torn down when the
// scenario ends regardless of outcome, and the captured debug output is
// dumped to stderr only if the scenario failed.
func RegisterSteps(sc *godog.ScenarioContext, baseURL string, logger framework.Logger) {
	state := &scenarioState{baseURL: baseURL, logger: logger, debugDest: os.Stderr}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		state.capture = &framework.CapturingLogger{}
		world, err := NewAppWorld(state.baseURL, framework.TeeLogger(state.capture, state.logger))
		if err != nil {
			return ctx, err
		}
		state.world = world
		return ctx, nil
	})

	sc.After(func(ctx context.Context, scenario *godog.Scenario, err error) (context.Context, error) {
		state.finishScenario(scenario.Name, err)
		return ctx, nil
	})

	sc.Step(`^Goto (.+)$`, state.gotoPath)
	sc.Step(`^I see an h1 with text "([^"]*)"$`, state.checkH1Text)
	sc.Step(`^I see a button with "([^"]*)"$`, state.checkButtonText)
	sc.Step(`^I click the button labeled "([^"]*)"$`, state.clickButtonWithLabel)
	sc.Step(`^the button label changes to "([^"]*)"$`, state.checkButtonLabelChanges)
	sc.Step(`^I see the following console logs within (\d+)ms:$`, state.checkConsoleLogs)
	sc.Step(`^I clear the console logs$`, state.clearLogs)
}

type scenarioState struct {
	baseURL   string
	logger    framework.Logger
	debugDest io.Writer
	capture   *framework.CapturingLogger
	world     *AppWorld
}

// finishScenario tears down the scenario's browser session and, if the
// scenario failed, dumps the debug output captured during it. Passing
// scenarios stay quiet.
func (s *scenarioState) finishScenario(name string, err error) {
	if s.world != nil {
		s.world.Close()
		s.world = nil
	}
	if err != nil && s.capture != nil {
		fmt.Fprintf(s.debugDest, "Debug output for failed scenario %q:\n", name)
		s.capture.Output().Dump(s.debugDest, "  ")
	}
	s.capture = nil
}

func (s *scenarioState) gotoPath(path string) error {
	return s.world.GotoPath(path)
}

func (s *scenarioState) checkH1Text(expected string) error {
	return s.checkElementText("h1", expected)
}

func (s *scenarioState) checkButtonText(expected string) error {
	return s.checkElementText("button", expected)
}

func (s *scenarioState) checkElementText(selector, expected string) error {
	elem, err := s.world.Find(selector)
	if err != nil {
		return err
	}
	text, err := elem.Text()
	if err != nil {
		return err
	}
	if text != expected {
		return fmt.Errorf("expected %s text %q, found %q", selector, expected, text)
	}
	return nil
}

func (s *scenarioState) clickButtonWithLabel(label string) error {
	button, err := s.world.Find("button")
	if err != nil {
		return err
	}
	text, err := button.Text()
	if err != nil {
		return err
	}
	if text != label {
		return fmt.Errorf("expected button label %q, found %q", label, text)
	}
	return button.Click()
}

// The label update happens asynchronously after the click, so this polls
// rather than asserting once.
func (s *scenarioState) checkButtonLabelChanges(expected string) error {
	err := framework.Poll(consoleLogPollInterval, buttonLabelPollTimeout, func() (bool, string, error) {
		button, err := s.world.Find("button")
		if err != nil {
			return false, "", err
		}
		text, err := button.Text()
		if err != nil {
			return false, "", err
		}
		return text == expected, fmt.Sprintf("button label was %q", text), nil
	})
	if err != nil {
		var te *framework.TimeoutError
		if errors.As(err, &te) {
			return fmt.Errorf("button label never changed to %q; %s", expected, te.LastState)
		}
		return err
	}
	return nil
}

func (s *scenarioState) checkConsoleLogs(timeoutMS int, table *godog.Table) error {
	expected, err := ConsoleLogsFromTable(table)
	if err != nil {
		return err
	}
	_, err = s.world.WaitForConsoleLogs(expected, time.Duration(timeoutMS)*time.Millisecond)
	return err
}

func (s *scenarioState) clearLogs() error {
	return s.world.ClearConsoleLogs()
}
