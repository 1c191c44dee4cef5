package framework

import (
	"errors"
	"sync"
	"time"
)

// ErrReadinessTimeout means the consumer's deadline elapsed while the
// producer was possibly still starting up.
var ErrReadinessTimeout = errors.New("timed out waiting for readiness signal")

// ErrReadinessAbandoned means the producer finished without ever signaling -
// typically because it crashed during startup.
var ErrReadinessAbandoned = errors.New("readiness signal was abandoned without being fulfilled")

type readinessState int

const (
	readinessPending readinessState = iota
	readinessSignaled
	readinessAbandoned
)

type readinessGate struct {
	done  chan struct{}
	state readinessState
	lock  sync.Mutex
}

// ReadinessSignal is the producer half of a readiness gate. It belongs to the
// task that is bringing a resource up, which calls Signal exactly once when
// the resource is usable. The producer should also defer Abandon so that a
// crash before Signal is observable as abandonment rather than a timeout.
type ReadinessSignal struct {
	gate *readinessGate
}

// ReadinessWait is the consumer half of a readiness gate.
type ReadinessWait struct {
	gate *readinessGate
}

// NewReadinessGate creates a one-shot synchronization pair for decoupling
// "start a resource in a background task" from "block until it is safe to use
// it". It replaces fixed startup-delay sleeps, which are both flaky (too
// short) and slow (too long).
func NewReadinessGate() (*ReadinessSignal, *ReadinessWait) {
	g := &readinessGate{done: make(chan struct{})}
	return &ReadinessSignal{gate: g}, &ReadinessWait{gate: g}
}

// Signal marks the resource as ready and releases the waiting consumer.
// Calling it twice is a logic error and panics; the gate is single-use.
func (s *ReadinessSignal) Signal() {
	g := s.gate
	g.lock.Lock()
	defer g.lock.Unlock()
	if g.state != readinessPending {
		panic("Signal called on a readiness gate that is already resolved")
	}
	g.state = readinessSignaled
	close(g.done)
}

// Abandon resolves the gate as abandoned if it is still pending. It is a
// no-op after Signal, so producers can defer it unconditionally.
func (s *ReadinessSignal) Abandon() {
	g := s.gate
	g.lock.Lock()
	defer g.lock.Unlock()
	if g.state != readinessPending {
		return
	}
	g.state = readinessAbandoned
	close(g.done)
}

// Wait blocks until the producer resolves the gate or the timeout elapses.
// It returns nil if the resource became ready, ErrReadinessAbandoned if the
// producer finished without signaling, or ErrReadinessTimeout. All outcomes
// are terminal; the caller is expected to tear down the producer's task on
// either error.
func (w *ReadinessWait) Wait(timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-w.gate.done:
		w.gate.lock.Lock()
		state := w.gate.state
		w.gate.lock.Unlock()
		if state == readinessAbandoned {
			return ErrReadinessAbandoned
		}
		return nil
	case <-timer.C:
		return ErrReadinessTimeout
	}
}
