package framework

import (
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollSucceedsImmediatelyIfConditionAlreadyHolds(t *testing.T) {
	calls := 0
	start := time.Now()
	err := Poll(time.Second, time.Second*5, func() (bool, string, error) {
		calls++
		return true, "", nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), time.Second, "should not have waited for an interval")
}

func TestPollSucceedsOnceConditionBecomesTrue(t *testing.T) {
	calls := 0
	err := Poll(time.Millisecond*10, time.Second*5, func() (bool, string, error) {
		calls++
		return calls >= 3, fmt.Sprintf("call %d", calls), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestPollTimeoutCarriesLastObservedState(t *testing.T) {
	err := Poll(time.Millisecond*10, time.Millisecond*100, func() (bool, string, error) {
		return false, "still waiting for thing", nil
	})
	require.Error(t, err)

	var te *TimeoutError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "still waiting for thing", te.LastState)
	assert.Contains(t, err.Error(), "still waiting for thing")
}

func TestPollStopsOnCheckError(t *testing.T) {
	fatal := errors.New("browser went away")
	calls := 0
	err := Poll(time.Millisecond*10, time.Second*5, func() (bool, string, error) {
		calls++
		return false, "", fatal
	})
	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestWaitForTCPReady(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	assert.NoError(t, WaitForTCPReady(ln.Addr().String(), time.Second))
}

func TestWaitForTCPReadyTimesOutWhenNothingListens(t *testing.T) {
	// A port from the dynamic range that nothing in this test binds.
	err := WaitForTCPReady("127.0.0.1:19997", time.Millisecond*300)
	require.Error(t, err)

	var te *TimeoutError
	require.True(t, errors.As(err, &te))
	assert.Contains(t, te.LastState, "dial")
}

func TestWaitForTCPReadyDeadlineHoldsForUnresponsiveAddress(t *testing.T) {
	// A TEST-NET-style blackhole address: dials either fail fast or hang
	// until their per-attempt timeout. Either way the overall deadline must
	// hold, rather than one slow dial running for the whole poll budget.
	start := time.Now()
	err := WaitForTCPReady("10.255.255.1:19998", time.Millisecond*200)
	require.Error(t, err)

	var te *TimeoutError
	require.True(t, errors.As(err, &te))
	assert.Less(t, time.Since(start), time.Second)
}
