// Package perf provides timing primitives for link measurements.
package perf

import "time"

// Stopwatch captures two monotonic timestamps and derives elapsed time and
// throughput. It does not accumulate across measurements.
type Stopwatch struct {
	start time.Time
	end   time.Time
}

func (s *Stopwatch) Start() {
	s.start = time.Now()
}

func (s *Stopwatch) Stop() {
	s.end = time.Now()
}

// ElapsedMs returns the time between Start and Stop in milliseconds.
func (s *Stopwatch) ElapsedMs() float64 {
	return float64(s.end.Sub(s.start)) / float64(time.Millisecond)
}

// ThroughputMbps returns megabits per second for the given byte count over
// the measured interval, or 0 when the interval is not positive.
func (s *Stopwatch) ThroughputMbps(bytes int) float64 {
	elapsedSec := s.ElapsedMs() / 1000.0
	if elapsedSec <= 0 {
		return 0
	}
	return float64(bytes) * 8.0 / (elapsedSec * 1_000_000)
}

// LatencySummary aggregates recorded round-trip samples.
type LatencySummary struct {
	MinMs float64 `json:"min_ms"`
	MaxMs float64 `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	Count int     `json:"count"`
}

// LatencyRecorder collects individual latency samples for summary statistics.
// Not safe for concurrent use.
type LatencyRecorder struct {
	samples []float64
	started time.Time
	running bool
}

func (r *LatencyRecorder) Start() {
	r.started = time.Now()
	r.running = true
}

// Stop records the sample since Start and returns it in milliseconds.
// Without a matching Start it records nothing and returns 0.
func (r *LatencyRecorder) Stop() float64 {
	if !r.running {
		return 0
	}
	r.running = false
	ms := float64(time.Since(r.started)) / float64(time.Millisecond)
	r.samples = append(r.samples, ms)
	return ms
}

func (r *LatencyRecorder) Summary() LatencySummary {
	if len(r.samples) == 0 {
		return LatencySummary{}
	}
	out := LatencySummary{
		MinMs: r.samples[0],
		MaxMs: r.samples[0],
		Count: len(r.samples),
	}
	var total float64
	for _, s := range r.samples {
		if s < out.MinMs {
			out.MinMs = s
		}
		if s > out.MaxMs {
			out.MaxMs = s
		}
		total += s
	}
	out.AvgMs = total / float64(len(r.samples))
	return out
}

func (r *LatencyRecorder) Reset() {
	r.samples = nil
	r.running = false
}
