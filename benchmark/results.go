// Package benchmark measures interaction latency of the application under
// test through a real browser session and reduces the samples into summary
// statistics.
package benchmark

import (
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/fatih/color"
)

// Results stores millisecond timings keyed by benchmark name. Names are
// dynamic, not a fixed set, because benchmark variants differ by generated
// template configuration; a key is created the first time a timing is added
// under it and never removed.
type Results struct {
	iterations int
	timings    map[string][]int64
}

// NewResults creates an empty result store for a run of the given number of
// iterations.
func NewResults(iterations int) *Results {
	return &Results{
		iterations: iterations,
		timings:    make(map[string][]int64),
	}
}

// AddTiming appends one sample, in milliseconds, to the named sequence.
func (r *Results) AddTiming(name string, d time.Duration) {
	r.timings[name] = append(r.timings[name], d.Milliseconds())
}

// Timings returns a snapshot of the samples recorded under a name, in the
// order they were added. A name with no samples yields nil.
func (r *Results) Timings(name string) []int64 {
	return append([]int64(nil), r.timings[name]...)
}

// Names returns all benchmark names, sorted for stable output.
func (r *Results) Names() []string {
	names := make([]string, 0, len(r.timings))
	for name := range r.timings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Statistics is a summary of one benchmark's samples. All values are zero
// for an empty sample sequence, so querying a name that never recorded a
// timing reports cleanly instead of breaking report generation.
type Statistics struct {
	Avg    int64
	Min    int64
	Max    int64
	Median int64
	StdDev float64
}

// ComputeStatistics reduces a sample sequence. Avg is integer division of
// sum by count; the median is computed on a sorted copy (the stored order is
// trial order and is preserved); StdDev is the population standard deviation
// (divide by N, not N-1), since the samples are the entire set being
// summarized, not a sample of a larger population.
func ComputeStatistics(timings []int64) Statistics {
	if len(timings) == 0 {
		return Statistics{}
	}

	var sum int64
	min, max := timings[0], timings[0]
	for _, v := range timings {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	avg := sum / int64(len(timings))

	sorted := append([]int64(nil), timings...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	var median int64
	if len(sorted)%2 == 0 {
		mid := len(sorted) / 2
		median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		median = sorted[len(sorted)/2]
	}

	var sumSquares float64
	for _, v := range timings {
		diff := float64(v) - float64(avg)
		sumSquares += diff * diff
	}
	stddev := math.Sqrt(sumSquares / float64(len(timings)))

	return Statistics{Avg: avg, Min: min, Max: max, Median: median, StdDev: stddev}
}

// PrintSummary writes a colorized statistical summary of every benchmark to
// dest, sorted by name.
func (r *Results) PrintSummary(dest io.Writer) {
	header := color.New(color.FgHiYellow, color.Bold)
	nameColor := color.New(color.FgCyan, color.Bold)

	fmt.Fprintf(dest, "\n%s\n", header.Sprintf("=== Summary (%d iterations) ===", r.iterations))

	for _, name := range r.Names() {
		timings := r.timings[name]
		if len(timings) == 0 {
			fmt.Fprintf(dest, "%s: %s\n", nameColor.Sprint(name), color.RedString("no data"))
			continue
		}
		stats := ComputeStatistics(timings)
		fmt.Fprintf(dest, "%s: avg=%sms, min=%sms, max=%sms, median=%sms, stddev=%sms\n",
			nameColor.Sprint(name),
			color.YellowString("%d", stats.Avg),
			color.GreenString("%d", stats.Min),
			color.RedString("%d", stats.Max),
			color.BlueString("%d", stats.Median),
			color.MagentaString("%.2f", stats.StdDev),
		)
	}
}
