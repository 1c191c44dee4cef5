package framework

import (
	"errors"
	"fmt"
	"net"
	"sync/atomic"
)

const (
	defaultPortRangeBase = 8000
	defaultPortRangeSize = 1000
	maxAcquireAttempts   = 1000
)

// ErrNoPortAvailable means every candidate port in the allocator's range was
// tried and none could be bound.
var ErrNoPortAvailable = errors.New("no available port in range")

// PortAllocator hands out loopback ports that were bindable at the moment of
// allocation. It is safe for use by any number of concurrent test tasks.
//
// Allocation is two-phase: a shared atomic cursor cheaply dispenses candidate
// port numbers so that concurrent callers never probe the same candidate, and
// then each candidate is verified by actually binding (and immediately
// releasing) a TCP listener. The cursor being unique does not guarantee the
// port is free - an unrelated process may hold it - so the bind probe is the
// source of truth. There is still a window between the probe and the caller's
// own bind in which an external process could take the port; callers retry
// through a fresh Acquire if their bind subsequently fails.
type PortAllocator struct {
	base   int32
	size   int32
	cursor atomic.Int32
}

// NewPortAllocator creates an allocator dispensing ports in [base, base+size).
func NewPortAllocator(base, size int) *PortAllocator {
	a := &PortAllocator{base: int32(base), size: int32(size)}
	a.cursor.Store(int32(base))
	return a
}

// DefaultPortAllocator is the shared allocator used by the harness, covering
// ports 8000-8999.
var DefaultPortAllocator = NewPortAllocator(defaultPortRangeBase, defaultPortRangeSize)

// Acquire returns a port that was bindable on 127.0.0.1 when checked. It
// fails with ErrNoPortAvailable after trying 1000 candidates.
func (a *PortAllocator) Acquire() (int, error) {
	for attempt := 0; attempt < maxAcquireAttempts; attempt++ {
		port := a.cursor.Add(1) - 1

		if port >= a.base+a.size {
			// Wrap back to the bottom of the range. Concurrent callers may
			// all do this at once; that only means some candidates get
			// probed twice, and the probe below still decides correctness.
			a.cursor.Store(a.base)
			continue
		}

		ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err != nil {
			continue
		}
		_ = ln.Close()
		return int(port), nil
	}

	return 0, fmt.Errorf("%w %d-%d after %d attempts",
		ErrNoPortAvailable, a.base, a.base+a.size-1, maxAcquireAttempts)
}
