package browsertest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/webscaffold/template-e2e/framework"
)

const consoleLogPollInterval = time.Millisecond * 10

// consoleCaptureScript intercepts the five standard console methods and
// appends a structured record to sessionStorage, then re-invokes the original
// method so page behavior is unchanged. The window-global guard makes the
// installation idempotent within a page load; sessionStorage makes the
// captured entries survive in-page navigation. It must be re-executed after
// every real navigation, since a page load resets window state.
const consoleCaptureScript = `
if (!window.__consoleLoggerInstalled__) {
    window.__consoleLoggerInstalled__ = true;

    if (!sessionStorage.getItem('__consoleLogs__')) {
        sessionStorage.setItem('__consoleLogs__', JSON.stringify([]));
    }

    ['log', 'info', 'warn', 'error', 'debug'].forEach(method => {
        const original = console[method];
        console[method] = function(...args) {
            const logs = JSON.parse(sessionStorage.getItem('__consoleLogs__') || '[]');
            logs.push({
                level: method,
                message: args.map(arg => {
                    try {
                        return typeof arg === 'object' ? JSON.stringify(arg) : String(arg);
                    } catch(e) {
                        return String(arg);
                    }
                }),
                timestamp: Date.now()
            });
            sessionStorage.setItem('__consoleLogs__', JSON.stringify(logs));
            original.apply(console, args);
        };
    });
}
`

const readConsoleLogsScript = `return JSON.parse(sessionStorage.getItem('__consoleLogs__') || '[]');`
const clearConsoleLogsScript = `sessionStorage.removeItem('__consoleLogs__');`

// ConsoleLog is one captured browser console entry. The capture script also
// records a timestamp, but it is not part of test equality, so it is dropped
// on deserialization.
type ConsoleLog struct {
	Level   string   `json:"level"`
	Message []string `json:"message"`
}

// NewConsoleLog builds an expected entry with a single message part. The
// level is lowercased and the message trimmed, matching how captured entries
// are normalized.
func NewConsoleLog(level string, message string) ConsoleLog {
	return ConsoleLog{
		Level:   strings.ToLower(level),
		Message: []string{strings.TrimSpace(message)},
	}
}

// UnmarshalJSON trims whitespace from every message part, so that equality
// comparisons are not sensitive to incidental padding in page output.
func (c *ConsoleLog) UnmarshalJSON(data []byte) error {
	var raw struct {
		Level   string   `json:"level"`
		Message []string `json:"message"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Level = raw.Level
	c.Message = make([]string, len(raw.Message))
	for i, part := range raw.Message {
		c.Message[i] = strings.TrimSpace(part)
	}
	return nil
}

func (c ConsoleLog) equal(other ConsoleLog) bool {
	if c.Level != other.Level || len(c.Message) != len(other.Message) {
		return false
	}
	for i := range c.Message {
		if c.Message[i] != other.Message[i] {
			return false
		}
	}
	return true
}

// consoleLogsEqual is exact-sequence equality: same length, same order, every
// entry structurally equal. A prefix match or an extra entry is a non-match.
func consoleLogsEqual(a, b []ConsoleLog) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].equal(b[i]) {
			return false
		}
	}
	return true
}

// ConsoleLogsFromTable converts a Gherkin data table into expected console
// logs. Each row is (message, level); there is no header row.
func ConsoleLogsFromTable(table *godog.Table) ([]ConsoleLog, error) {
	var logs []ConsoleLog
	for _, row := range table.Rows {
		if len(row.Cells) < 2 {
			return nil, fmt.Errorf("expected 2 columns (message, level), found %d", len(row.Cells))
		}
		logs = append(logs, NewConsoleLog(row.Cells[1].Value, row.Cells[0].Value))
	}
	return logs, nil
}

// ScriptRunner is the subset of a browser session needed to read and clear
// captured console logs.
type ScriptRunner interface {
	Execute(script string, args []interface{}) (ldvalue.Value, error)
}

func getConsoleLogs(r ScriptRunner) ([]ConsoleLog, error) {
	result, err := r.Execute(readConsoleLogsScript, nil)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	var logs []ConsoleLog
	if err := json.Unmarshal(data, &logs); err != nil {
		return nil, fmt.Errorf("failed to parse console logs: %w", err)
	}
	return logs, nil
}

func clearConsoleLogs(r ScriptRunner) error {
	_, err := r.Execute(clearConsoleLogsScript, nil)
	return err
}

// waitForConsoleLogs polls every 10ms until the captured logs are exactly
// equal to expected, or the timeout elapses. The timeout error includes the
// last captured sequence so a mismatch can be diagnosed from the failure
// message alone.
func waitForConsoleLogs(r ScriptRunner, expected []ConsoleLog, timeout time.Duration) ([]ConsoleLog, error) {
	var matched []ConsoleLog
	err := framework.Poll(consoleLogPollInterval, timeout, func() (bool, string, error) {
		logs, err := getConsoleLogs(r)
		if err != nil {
			return false, "", err
		}
		if consoleLogsEqual(logs, expected) {
			matched = logs
			return true, "", nil
		}
		return false, fmt.Sprintf("captured logs were %+v", logs), nil
	})
	if err != nil {
		var te *framework.TimeoutError
		if errors.As(err, &te) {
			return nil, fmt.Errorf("timed out waiting for expected console logs: %w", err)
		}
		return nil, err
	}
	return matched, nil
}

// GetConsoleLogs returns everything the page has logged since the last clear.
func (w *AppWorld) GetConsoleLogs() ([]ConsoleLog, error) {
	return getConsoleLogs(w)
}

// ClearConsoleLogs discards all captured entries, normally between assertions
// so each one starts from a clean buffer.
func (w *AppWorld) ClearConsoleLogs() error {
	return clearConsoleLogs(w)
}

// WaitForConsoleLogs blocks until the captured logs are exactly the expected
// sequence, or the timeout elapses.
func (w *AppWorld) WaitForConsoleLogs(expected []ConsoleLog, timeout time.Duration) ([]ConsoleLog, error) {
	return waitForConsoleLogs(w, expected, timeout)
}
