package benchmark

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/tebeka/selenium"

	"github.com/webscaffold/template-e2e/appserver"
	"github.com/webscaffold/template-e2e/browsertest"
	"github.com/webscaffold/template-e2e/framework"
)

const trialLogTimeout = time.Second

// Runner drives repeated UI-interaction trials against a live application.
// It owns the application server and the browser session for the whole run.
type Runner struct {
	world      *browsertest.AppWorld
	server     *appserver.AppServer
	capture    *framework.CapturingLogger
	iterations int
	out        io.Writer
}

// NewRunner builds and starts the application, then connects a browser
// session to it. The caller must Close the runner; if construction fails
// partway, anything already started is torn down before returning. Debug
// output from the server and session is captured so a failing trial can be
// reported with the logging that led up to it.
func NewRunner(cfg appserver.Config, iterations int, logger framework.Logger, out io.Writer) (*Runner, error) {
	capture := &framework.CapturingLogger{}
	teed := framework.TeeLogger(capture, logger)

	server, err := appserver.Start(cfg, teed)
	if err != nil {
		return nil, err
	}

	world, err := browsertest.NewAppWorld(server.BaseURL(), teed)
	if err != nil {
		server.Close()
		return nil, err
	}

	return &Runner{
		world:      world,
		server:     server,
		capture:    capture,
		iterations: iterations,
		out:        out,
	}, nil
}

// Run executes every trial for the configured number of iterations and
// returns the collected timings.
func (r *Runner) Run() (*Results, error) {
	results := NewResults(r.iterations)
	iterationHeader := color.New(color.FgCyan)

	if err := r.world.GotoPath("/"); err != nil {
		return nil, fmt.Errorf("failed to navigate to /: %w", err)
	}

	for i := 1; i <= r.iterations; i++ {
		fmt.Fprintf(r.out, "\n%s\n", iterationHeader.Sprintf("=== Iteration %d/%d ===", i, r.iterations))

		captured := len(r.capture.Output())
		elapsed, err := r.counterButtonTrial(i)
		if err != nil {
			dumpTrialDebug(r.out, i, r.capture.Output()[captured:])
			return nil, err
		}
		results.AddTiming("num", elapsed)
		fmt.Fprintf(r.out, "%s %dms\n", color.GreenString("Update num:"), elapsed.Milliseconds())
	}

	return results, nil
}

// counterButtonTrial measures the latency from clicking the counter button
// until the state update is observable in the console log. The button label
// carries the click count, so iteration i expects to find the label from
// iteration i-1 and to observe the log for i.
func (r *Runner) counterButtonTrial(i int) (time.Duration, error) {
	button, err := r.findButtonWithText(fmt.Sprintf("Click Me: %d", i-1))
	if err != nil {
		return 0, err
	}

	start := time.Now()
	if err := button.Click(); err != nil {
		return 0, fmt.Errorf("click failed: %w", err)
	}

	expected := []browsertest.ConsoleLog{
		browsertest.NewConsoleLog("log", fmt.Sprintf("Update num: %d", i)),
	}
	if _, err := r.world.WaitForConsoleLogs(expected, trialLogTimeout); err != nil {
		return 0, err
	}
	elapsed := time.Since(start)

	if err := r.world.ClearConsoleLogs(); err != nil {
		return 0, fmt.Errorf("failed to clear logs: %w", err)
	}
	return elapsed, nil
}

// dumpTrialDebug writes the debug output captured during one failed trial.
// Successful trials leave nothing behind.
func dumpTrialDebug(out io.Writer, iteration int, output framework.CapturedOutput) {
	fmt.Fprintf(out, "%s\n", color.RedString("Debug output for failed iteration %d:", iteration))
	output.Dump(out, "  ")
}

func (r *Runner) findButtonWithText(expected string) (selenium.WebElement, error) {
	button, err := r.world.Find("button")
	if err != nil {
		return nil, err
	}
	text, err := button.Text()
	if err != nil {
		return nil, err
	}
	if text != expected {
		return nil, fmt.Errorf("expected button text %q, found %q", expected, text)
	}
	return button, nil
}

// Close tears down the browser session and the application server.
func (r *Runner) Close() {
	r.world.Close()
	r.server.Close()
}
