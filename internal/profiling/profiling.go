// Package profiling keeps per-frame CPU timings.
package profiling

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	mu          sync.Mutex
	frameTotals = make(map[string]time.Duration)
	frameCounts = make(map[string]int)
)

// Track returns a stop function that records the elapsed time under name.
// Usage: defer profiling.Track("render.DepthPass")()
func Track(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		mu.Lock()
		frameTotals[name] += d
		frameCounts[name]++
		mu.Unlock()
	}
}

// ResetFrame clears the current totals. Call at the start of each frame.
func ResetFrame() {
	mu.Lock()
	clear(frameTotals)
	clear(frameCounts)
	mu.Unlock()
}

// Sample is one tracked name's totals for the current frame.
type Sample struct {
	Name  string
	Total time.Duration
	Calls int
}

// Snapshot returns the current totals, longest first.
func Snapshot() []Sample {
	mu.Lock()
	out := make([]Sample, 0, len(frameTotals))
	for k, v := range frameTotals {
		out = append(out, Sample{Name: k, Total: v, Calls: frameCounts[k]})
	}
	mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// TopN formats the n most expensive entries, e.g.
// "render.ComputePass:4.2ms, world.Rebuild:2.1ms(3)".
func TopN(n int) string {
	ss := Snapshot()
	n = min(n, len(ss))
	parts := make([]string, 0, n)
	for _, s := range ss[:n] {
		ms := float64(s.Total.Microseconds()) / 1000.0
		part := s.Name + ":" + strconv.FormatFloat(ms, 'f', 1, 64) + "ms"
		if s.Calls > 1 {
			part += "(" + strconv.Itoa(s.Calls) + ")"
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, ", ")
}
