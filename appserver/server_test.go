package appserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webscaffold/template-e2e/framework"
)

func testPorts() *framework.PortAllocator {
	return framework.NewPortAllocator(19300, 200)
}

func TestStartInProcessServesHandlerAfterReadiness(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(200))

	server, err := Start(Config{Handler: handler, Ports: testPorts()}, framework.NullLogger())
	require.NoError(t, err)
	defer server.Close()

	resp, err := http.Get(server.BaseURL() + "/anything")
	require.NoError(t, err, "server reported ready but was not reachable")
	_ = resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)

	select {
	case info := <-requestsCh:
		assert.Equal(t, "/anything", info.Request.URL.Path)
	case <-time.After(time.Second):
		t.Fatal("request was never delivered to the handler")
	}
}

func TestStartInProcessServesStaticSiteDir(t *testing.T) {
	siteDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(siteDir, "index.html"),
		[]byte("<h1>Welcome</h1>"), 0600))

	server, err := Start(Config{SiteDir: siteDir, Ports: testPorts()}, framework.NullLogger())
	require.NoError(t, err)
	defer server.Close()

	resp, err := http.Get(server.BaseURL() + "/")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "Welcome")
}

func TestCloseStopsInProcessServer(t *testing.T) {
	server, err := Start(Config{Handler: httphelpers.HandlerWithStatus(200), Ports: testPorts()},
		framework.NullLogger())
	require.NoError(t, err)

	server.Close()

	_, err = http.Get(server.BaseURL() + "/")
	assert.Error(t, err, "server should no longer accept connections")
}

func TestStartCommandPassesAddressAndTimesOutIfNeverReachable(t *testing.T) {
	addrFile := filepath.Join(t.TempDir(), "addr.txt")

	// A serve command that records the address it was given but never binds
	// it, so startup must fail with a readiness timeout.
	cfg := Config{
		ServeCommand:   []string{"sh", "-c", fmt.Sprintf("echo $SITE_ADDR > %s; sleep 60", addrFile)},
		StartupTimeout: time.Millisecond * 400,
		Ports:          testPorts(),
	}
	_, err := Start(cfg, framework.NullLogger())
	require.Error(t, err)

	var te *framework.TimeoutError
	assert.True(t, errors.As(err, &te), "expected readiness poll timeout, got: %s", err)

	data, readErr := os.ReadFile(addrFile)
	require.NoError(t, readErr, "serve command never ran")
	assert.Contains(t, strings.TrimSpace(string(data)), "127.0.0.1:")
}

func TestStartRejectsConfigWithNothingToServe(t *testing.T) {
	// Without this check, an empty SiteDir would become http.Dir("") and the
	// harness would quietly serve its own working directory.
	_, err := Start(Config{Ports: testPorts()}, framework.NullLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "site directory")
}

func TestStartFailsWhenBuildCommandFails(t *testing.T) {
	cfg := Config{
		BuildCommand: []string{"sh", "-c", "echo the build broke >&2; exit 2"},
		Handler:      httphelpers.HandlerWithStatus(200),
		Ports:        testPorts(),
	}
	_, err := Start(cfg, framework.NullLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "the build broke")
}

func TestStartRunsBuildCommandBeforeServing(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		Dir:          dir,
		BuildCommand: []string{"sh", "-c", "echo '<p>built</p>' > index.html"},
		SiteDir:      dir,
		Ports:        testPorts(),
	}
	server, err := Start(cfg, framework.NullLogger())
	require.NoError(t, err)
	defer server.Close()

	resp, err := http.Get(server.BaseURL() + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Contains(t, string(body), "built")
}
