// Package webdriver manages a browser automation session for the test
// harness. Each Session owns exactly one driver process (chromedriver or
// geckodriver), spawned on a port from the shared allocator, and exactly one
// remote WebDriver client connected to it. Sessions are single-writer: no
// concurrent command issuance is allowed on one session.
package webdriver

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
	"github.com/tebeka/selenium/firefox"
	sellog "github.com/tebeka/selenium/log"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/webscaffold/template-e2e/framework"
)

// DriverEnvVar selects the browser automation backend. Recognized values are
// "chromedriver"/"chrome" and "geckodriver"/"gecko"; empty means chromedriver.
const DriverEnvVar = "WEBDRIVER"

const driverStartupTimeout = time.Second * 5

// ErrUnsupportedDriver means the WEBDRIVER environment variable had a value
// the harness does not recognize. This is a fail-fast error at session
// construction, before any process is spawned.
var ErrUnsupportedDriver = errors.New("unsupported WEBDRIVER value")

// driverSpec describes how to start one kind of driver process and what
// capabilities to request from it. The --port flag is appended by newSession.
type driverSpec struct {
	command      string
	args         []string
	capabilities func() selenium.Capabilities
}

func chromedriverSpec() driverSpec {
	return driverSpec{
		command: "chromedriver",
		capabilities: func() selenium.Capabilities {
			caps := selenium.Capabilities{"browserName": "chrome"}
			caps.AddChrome(chrome.Capabilities{Args: []string{"--headless"}})
			// Browser-side console/performance logs are only collectable
			// from the chromium family.
			caps.SetLogLevel(sellog.Browser, sellog.All)
			caps.SetLogLevel(sellog.Performance, sellog.All)
			return caps
		},
	}
}

func geckodriverSpec() driverSpec {
	return driverSpec{
		command: "geckodriver",
		capabilities: func() selenium.Capabilities {
			caps := selenium.Capabilities{"browserName": "firefox"}
			caps.AddFirefox(firefox.Capabilities{Args: []string{"--headless", "-headless"}})
			return caps
		},
	}
}

func driverSpecFromEnv(value string) (driverSpec, error) {
	switch strings.ToLower(value) {
	case "", "chromedriver", "chrome":
		return chromedriverSpec(), nil
	case "geckodriver", "gecko":
		return geckodriverSpec(), nil
	default:
		return driverSpec{}, fmt.Errorf("%w: %q", ErrUnsupportedDriver, value)
	}
}

// Session is a live browser automation session.
type Session struct {
	wd     selenium.WebDriver
	driver *framework.ChildProcess
	logger framework.Logger
}

// NewSession selects a driver from the WEBDRIVER environment variable, spawns
// it, and connects a remote client to it. The caller owns the returned
// Session and must Close it.
func NewSession(logger framework.Logger) (*Session, error) {
	spec, err := driverSpecFromEnv(os.Getenv(DriverEnvVar))
	if err != nil {
		return nil, err
	}
	return newSession(logger, spec, framework.DefaultPortAllocator, driverStartupTimeout)
}

func newSession(
	logger framework.Logger,
	spec driverSpec,
	ports *framework.PortAllocator,
	startupTimeout time.Duration,
) (*Session, error) {
	if logger == nil {
		logger = framework.NullLogger()
	}

	port, err := ports.Acquire()
	if err != nil {
		return nil, err
	}

	args := append(append([]string(nil), spec.args...), fmt.Sprintf("--port=%d", port))
	driver, err := framework.SpawnProcess(logger, "", nil, spec.command, args...)
	if err != nil {
		return nil, err
	}

	// From here on the driver process exists, so every failure path below
	// must terminate it or it will outlive the failed test run.
	ok := false
	defer func() {
		if !ok {
			driver.Close()
		}
	}()

	controlAddr := fmt.Sprintf("127.0.0.1:%d", port)
	if err := framework.WaitForTCPReady(controlAddr, startupTimeout); err != nil {
		return nil, fmt.Errorf("%s did not accept connections: %w", spec.command, err)
	}

	wd, err := selenium.NewRemote(spec.capabilities(), fmt.Sprintf("http://%s", controlAddr))
	if err != nil {
		return nil, fmt.Errorf("could not connect to %s: %w", spec.command, err)
	}

	logger.Printf("Connected to %s at %s", spec.command, controlAddr)
	ok = true
	return &Session{wd: wd, driver: driver, logger: logger}, nil
}

// Navigate loads the given URL in the browser.
func (s *Session) Navigate(url string) error {
	if err := s.wd.Get(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// Find returns the first element matching a CSS selector.
func (s *Session) Find(cssSelector string) (selenium.WebElement, error) {
	elem, err := s.wd.FindElement(selenium.ByCSSSelector, cssSelector)
	if err != nil {
		return nil, fmt.Errorf("no element found for %q: %w", cssSelector, err)
	}
	return elem, nil
}

// ExecuteScript runs JavaScript in the page and returns its result as a JSON
// value.
func (s *Session) ExecuteScript(script string, args []interface{}) (ldvalue.Value, error) {
	result, err := s.wd.ExecuteScript(script, args)
	if err != nil {
		return ldvalue.Null(), fmt.Errorf("script execution failed: %w", err)
	}
	return ldvalue.CopyArbitraryValue(result), nil
}

// Close ends the browser session and terminates the driver process. It is
// safe to call more than once.
func (s *Session) Close() {
	if s.wd != nil {
		if err := s.wd.Quit(); err != nil {
			s.logger.Printf("Error quitting WebDriver session: %s", err)
		}
		s.wd = nil
	}
	s.driver.Close()
}
