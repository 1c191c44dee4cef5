// Package appserver manages the lifecycle of the application under test:
// optionally building it, bringing it up on an allocated loopback port, and
// tearing it down. The bound address is returned to the caller and injected
// into whatever needs it; it is never stored in process-wide state, so there
// is no ordering hazard between startup and the components that read it.
package appserver

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/webscaffold/template-e2e/framework"
)

const defaultStartupTimeout = time.Second * 5

// Config describes how to build and serve the application.
type Config struct {
	// Dir is the working directory for build and serve commands.
	Dir string

	// BuildCommand, if non-empty, is run to completion (with output
	// suppressed) before the server starts.
	BuildCommand []string

	// ServeCommand, if non-empty, is spawned to serve the application; it
	// receives the allocated address in the SITE_ADDR environment variable
	// and is expected to bind it. If empty, the harness serves SiteDir (or
	// Handler) in-process.
	ServeCommand []string

	// SiteDir is the static site root for in-process serving.
	SiteDir string

	// Handler overrides SiteDir for in-process serving. Used by tests.
	Handler http.Handler

	// StartupTimeout bounds how long to wait for the server to accept
	// connections; 5s if zero.
	StartupTimeout time.Duration

	// Ports overrides the port allocator. Used by tests.
	Ports *framework.PortAllocator
}

// AppServer is a running application server owned by the caller.
type AppServer struct {
	addr       string
	httpServer *http.Server
	child      *framework.ChildProcess
	logger     framework.Logger
}

// SiteAddrEnvVar is how a spawned serve command learns its listen address.
const SiteAddrEnvVar = "SITE_ADDR"

// Start builds (if configured) and serves the application, returning once it
// is accepting connections. On any failure, nothing is left running.
func Start(cfg Config, logger framework.Logger) (*AppServer, error) {
	if logger == nil {
		logger = framework.NullLogger()
	}

	// An empty SiteDir would otherwise turn into http.Dir("") and silently
	// serve the working directory.
	if len(cfg.ServeCommand) == 0 && cfg.Handler == nil && cfg.SiteDir == "" {
		return nil, errors.New("no serve command, handler, or site directory configured")
	}

	if len(cfg.BuildCommand) > 0 {
		if err := framework.RunCommand(logger, cfg.Dir, cfg.BuildCommand[0], cfg.BuildCommand[1:]...); err != nil {
			return nil, err
		}
	}

	ports := cfg.Ports
	if ports == nil {
		ports = framework.DefaultPortAllocator
	}
	port, err := ports.Acquire()
	if err != nil {
		return nil, err
	}
	addr := fmt.Sprintf("127.0.0.1:%d", port)

	timeout := cfg.StartupTimeout
	if timeout == 0 {
		timeout = defaultStartupTimeout
	}

	if len(cfg.ServeCommand) > 0 {
		return startCommand(cfg, logger, addr, timeout)
	}
	return startInProcess(cfg, logger, addr, timeout)
}

// startCommand spawns the configured serve command and polls until its
// listener is reachable.
func startCommand(cfg Config, logger framework.Logger, addr string, timeout time.Duration) (*AppServer, error) {
	env := []string{fmt.Sprintf("%s=%s", SiteAddrEnvVar, addr)}
	child, err := framework.SpawnProcess(logger, cfg.Dir, env, cfg.ServeCommand[0], cfg.ServeCommand[1:]...)
	if err != nil {
		return nil, err
	}

	if err := framework.WaitForTCPReady(addr, timeout); err != nil {
		child.Close()
		return nil, fmt.Errorf("application server never became reachable: %w", err)
	}

	logger.Printf("Application server (pid %d) ready at %s", child.Pid(), addr)
	return &AppServer{addr: addr, child: child, logger: logger}, nil
}

// startInProcess serves the site from this process. The server runs in a
// background goroutine; a readiness gate bridges "listener bound" back to
// this function, which aborts the goroutine's server if the gate resolves
// with anything but success.
func startInProcess(cfg Config, logger framework.Logger, addr string, timeout time.Duration) (*AppServer, error) {
	handler := cfg.Handler
	if handler == nil {
		handler = http.FileServer(http.Dir(cfg.SiteDir))
	}

	server := &http.Server{Handler: handler}
	signal, ready := framework.NewReadinessGate()

	go func() {
		defer signal.Abandon()
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			logger.Printf("Application server failed to bind %s: %s", addr, err)
			return
		}
		signal.Signal()
		_ = server.Serve(ln)
	}()

	if err := ready.Wait(timeout); err != nil {
		_ = server.Close()
		return nil, fmt.Errorf("application server not ready: %w", err)
	}

	logger.Printf("Application server ready at %s", addr)
	return &AppServer{addr: addr, httpServer: server, logger: logger}, nil
}

// Address returns the bound host:port.
func (s *AppServer) Address() string { return s.addr }

// BaseURL returns the server's root URL.
func (s *AppServer) BaseURL() string { return fmt.Sprintf("http://%s", s.addr) }

// Close stops the server. For a spawned serve command this terminates the
// child process; for an in-process server it closes the listener and any
// in-flight connections. Safe to call on every exit path.
func (s *AppServer) Close() {
	if s.child != nil {
		s.child.Close()
	}
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
}
