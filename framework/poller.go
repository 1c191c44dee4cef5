package framework

import (
	"fmt"
	"net"
	"time"
)

// TCPReadyPollInterval is the interval for polling whether a server has
// started accepting connections.
const TCPReadyPollInterval = time.Millisecond * 100

// TimeoutError is returned by Poll when the deadline elapses before the
// condition holds. LastState is whatever the check function most recently
// reported, so the failure message says what was actually observed rather
// than just "timed out".
type TimeoutError struct {
	Timeout   time.Duration
	LastState string
}

func (e *TimeoutError) Error() string {
	if e.LastState == "" {
		return fmt.Sprintf("condition not met within %s", e.Timeout)
	}
	return fmt.Sprintf("condition not met within %s; last observed state: %s", e.Timeout, e.LastState)
}

// Poll calls check at the given interval until it reports true, returns an
// error, or the timeout elapses. The check function returns (done, state,
// err): state is a description of what was observed, kept for the timeout
// diagnostic. check is always called at least once, immediately, so a
// condition that already holds does not cost an interval.
//
// Polling is strictly sequential - the next check is not issued until the
// previous one returns - which matters for callers whose check talks to a
// browser session that cannot handle concurrent commands.
func Poll(interval, timeout time.Duration, check func() (bool, string, error)) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastState string
	for {
		done, state, err := check()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		lastState = state

		select {
		case <-deadline.C:
			return &TimeoutError{Timeout: timeout, LastState: lastState}
		case <-ticker.C:
		}
	}
}

// WaitForTCPReady polls until a TCP connection to addr succeeds. It is used
// for both the application server and the WebDriver control server, whose
// listeners come up at some unknown point after their processes start.
//
// Each dial attempt is capped at the poll interval so that one unresponsive
// dial cannot hold the poll open past the overall timeout.
func WaitForTCPReady(addr string, timeout time.Duration) error {
	dialTimeout := TCPReadyPollInterval
	if timeout < dialTimeout {
		dialTimeout = timeout
	}
	return Poll(TCPReadyPollInterval, timeout, func() (bool, string, error) {
		conn, err := net.DialTimeout("tcp", addr, dialTimeout)
		if err != nil {
			return false, fmt.Sprintf("dial %s: %s", addr, err), nil
		}
		_ = conn.Close()
		return true, "", nil
	})
}
