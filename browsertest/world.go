package browsertest

import (
	"fmt"
	"strings"

	"github.com/tebeka/selenium"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/webscaffold/template-e2e/framework"
	"github.com/webscaffold/template-e2e/webdriver"
)

// AppWorld is one scenario's view of the application under test: a browser
// session plus the base URL of the server the scenario was given. The address
// is injected at construction rather than read from any process-wide state,
// so there is no ordering hazard between server startup and world creation.
type AppWorld struct {
	session *webdriver.Session
	baseURL string
	logger  framework.Logger
}

// NewAppWorld starts a fresh browser session pointed at the given server.
// baseURL is of the form "http://host:port". The caller must Close the world.
func NewAppWorld(baseURL string, logger framework.Logger) (*AppWorld, error) {
	if logger == nil {
		logger = framework.NullLogger()
	}
	session, err := webdriver.NewSession(logger)
	if err != nil {
		return nil, err
	}
	return &AppWorld{
		session: session,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}, nil
}

// GotoPath navigates to a path under the application's base URL and then
// installs the console-capture script. The install must follow every
// navigation because a page load wipes window state; the script's own guard
// makes a duplicate install within one page load harmless.
func (w *AppWorld) GotoPath(path string) error {
	targetURL := fmt.Sprintf("%s/%s", w.baseURL, strings.TrimPrefix(path, "/"))

	if err := w.session.Navigate(targetURL); err != nil {
		return err
	}
	if _, err := w.session.ExecuteScript(consoleCaptureScript, nil); err != nil {
		return fmt.Errorf("failed to install console capture: %w", err)
	}
	return nil
}

// Find returns the first element matching a CSS selector.
func (w *AppWorld) Find(cssSelector string) (selenium.WebElement, error) {
	return w.session.Find(cssSelector)
}

// Execute runs JavaScript in the current page.
func (w *AppWorld) Execute(script string, args []interface{}) (ldvalue.Value, error) {
	return w.session.ExecuteScript(script, args)
}

// Close ends the browser session and its driver process.
func (w *AppWorld) Close() {
	w.session.Close()
}
