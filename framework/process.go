package framework

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/alessio/shellescape"
)

// ChildProcess owns exactly one spawned OS process. The owner must call Close
// (normally with defer, immediately after a successful spawn) so the process
// is terminated and reaped on every exit path; a leaked driver or server
// process will make later test runs fail with port conflicts.
type ChildProcess struct {
	cmd       *exec.Cmd
	logger    Logger
	closeOnce sync.Once
}

// SpawnProcess starts a child process with its stdout and stderr discarded,
// to keep test output clean. dir is the child's working directory (empty
// means inherit); env holds extra KEY=VALUE entries added to the inherited
// environment, nil is fine. It fails if the executable cannot be found or
// the OS refuses to start it.
func SpawnProcess(logger Logger, dir string, env []string, name string, args ...string) (*ChildProcess, error) {
	if logger == nil {
		logger = NullLogger()
	}

	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.Stdout = nil
	cmd.Stderr = nil
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}

	logger.Printf("Spawning: %s", describeCommand(name, args))
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("could not spawn %q: %w", name, err)
	}

	return &ChildProcess{cmd: cmd, logger: logger}, nil
}

// Pid returns the OS process ID of the child.
func (p *ChildProcess) Pid() int {
	return p.cmd.Process.Pid
}

// Close forcibly terminates the child and waits for it to be reaped. It is
// idempotent and never fails in a way the caller can act on, so it is safe to
// defer unconditionally.
func (p *ChildProcess) Close() {
	p.closeOnce.Do(func() {
		p.logger.Printf("Terminating pid %d (%s)", p.cmd.Process.Pid, p.cmd.Path)
		_ = p.cmd.Process.Kill()
		_ = p.cmd.Wait()
	})
}

// RunCommand runs a command to completion in dir (or the current directory if
// dir is empty), with output captured rather than shown. On a nonzero exit
// the captured output is folded into the returned error, since a failed build
// step is otherwise undiagnosable.
func RunCommand(logger Logger, dir string, name string, args ...string) error {
	if logger == nil {
		logger = NullLogger()
	}

	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Printf("Running: %s", describeCommand(name, args))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w\nstderr: %s\nstdout: %s",
			describeCommand(name, args), err,
			strings.TrimSpace(stderr.String()),
			strings.TrimSpace(stdout.String()))
	}
	return nil
}

func describeCommand(name string, args []string) string {
	quoted := []string{shellescape.Quote(name)}
	for _, a := range args {
		quoted = append(quoted, shellescape.Quote(a))
	}
	return strings.Join(quoted, " ")
}
