package runner

import (
	"context"
	"errors"
	"sync"
	"time"

	"dutlink/internal/logger"
)

type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusError   Status = "error"
	StatusSkipped Status = "skipped"
)

// Case is one runnable check against the device under test.
type Case struct {
	Name string
	Run  func(ctx context.Context) error
}

type Result struct {
	Name       string `json:"name"`
	Status     Status `json:"status"`
	Message    string `json:"message,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

type Summary struct {
	Results    []Result `json:"results"`
	Passed     int      `json:"passed"`
	Failed     int      `json:"failed"`
	Errors     int      `json:"errors"`
	Skipped    int      `json:"skipped"`
	DurationMs int64    `json:"duration_ms"`
}

type Options struct {
	Workers       int
	StopOnFailure bool
}

// checkError marks an expectation that did not hold, as opposed to a
// transport or setup problem.
type checkError struct {
	msg string
}

func (e *checkError) Error() string { return e.msg }

// Failf builds a failure result for a case whose check did not pass.
func Failf(msg string) error {
	return &checkError{msg: msg}
}

// Run executes the cases and collects per-case results. With more than
// one worker the cases run concurrently; stop-on-failure cancels the
// remaining unstarted cases, which are reported as skipped.
func Run(ctx context.Context, cases []Case, opts Options, log *logger.Logger) Summary {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(cases) {
		workers = len(cases)
	}

	start := time.Now()
	results := make([]Result, len(cases))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var mu sync.Mutex
	stopped := false

	queue := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range queue {
				mu.Lock()
				skip := stopped
				mu.Unlock()
				if skip || runCtx.Err() != nil {
					results[idx] = Result{Name: cases[idx].Name, Status: StatusSkipped}
					continue
				}
				results[idx] = runCase(runCtx, cases[idx], log)
				if opts.StopOnFailure && results[idx].Status != StatusPassed {
					mu.Lock()
					stopped = true
					mu.Unlock()
					cancel()
				}
			}
		}()
	}
	for i := range cases {
		queue <- i
	}
	close(queue)
	wg.Wait()

	summary := Summary{
		Results:    results,
		DurationMs: time.Since(start).Milliseconds(),
	}
	for _, r := range results {
		switch r.Status {
		case StatusPassed:
			summary.Passed++
		case StatusFailed:
			summary.Failed++
		case StatusError:
			summary.Errors++
		case StatusSkipped:
			summary.Skipped++
		}
	}
	return summary
}

func runCase(ctx context.Context, c Case, log *logger.Logger) Result {
	start := time.Now()
	err := c.Run(ctx)
	result := Result{
		Name:       c.Name,
		DurationMs: time.Since(start).Milliseconds(),
	}
	switch {
	case err == nil:
		result.Status = StatusPassed
	default:
		var check *checkError
		if errors.As(err, &check) {
			result.Status = StatusFailed
		} else {
			result.Status = StatusError
		}
		result.Message = err.Error()
	}
	if log != nil {
		log.Info("case finished", map[string]any{
			"case":        c.Name,
			"status":      string(result.Status),
			"duration_ms": result.DurationMs,
		})
	}
	return result
}
