package benchmark

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStatistics(t *testing.T) {
	stats := ComputeStatistics([]int64{10, 20, 30, 40})

	assert.Equal(t, int64(25), stats.Avg)
	assert.Equal(t, int64(10), stats.Min)
	assert.Equal(t, int64(40), stats.Max)
	assert.Equal(t, int64(25), stats.Median, "even-length median is the mean of the middle two")
	assert.InDelta(t, 11.18, stats.StdDev, 0.005, "population stddev, dividing by N")
}

func TestComputeStatisticsOddLengthMedian(t *testing.T) {
	stats := ComputeStatistics([]int64{30, 10, 20})
	assert.Equal(t, int64(20), stats.Median)
	assert.Equal(t, int64(20), stats.Avg)
}

func TestComputeStatisticsEmptyIsAllZeros(t *testing.T) {
	stats := ComputeStatistics(nil)
	assert.Equal(t, Statistics{}, stats)
}

func TestComputeStatisticsAvgUsesIntegerDivision(t *testing.T) {
	stats := ComputeStatistics([]int64{1, 2})
	assert.Equal(t, int64(1), stats.Avg)
}

func TestAddTimingCreatesKeysOnFirstUse(t *testing.T) {
	r := NewResults(3)
	assert.Empty(t, r.Names())
	assert.Nil(t, r.Timings("connect"))

	r.AddTiming("connect", time.Millisecond*120)
	r.AddTiming("disconnect", time.Millisecond*40)
	r.AddTiming("connect", time.Millisecond*80)

	assert.Equal(t, []string{"connect", "disconnect"}, r.Names())
	assert.Equal(t, []int64{120, 80}, r.Timings("connect"), "storage order is trial order")
}

func TestTimingsReturnsASnapshot(t *testing.T) {
	r := NewResults(1)
	r.AddTiming("num", time.Millisecond*10)

	snapshot := r.Timings("num")
	snapshot[0] = 999

	assert.Equal(t, []int64{10}, r.Timings("num"))
}

func TestPrintSummary(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	r := NewResults(2)
	r.AddTiming("num", time.Millisecond*10)
	r.AddTiming("num", time.Millisecond*30)

	var buf bytes.Buffer
	r.PrintSummary(&buf)

	out := buf.String()
	require.Contains(t, out, "Summary (2 iterations)")
	assert.Contains(t, out, "num")
	assert.Contains(t, out, "avg=20ms")
	assert.Contains(t, out, "median=20ms")
}
