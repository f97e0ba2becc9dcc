package timeline

import (
	"runtime"
	"sync"

	"github.com/mlehnert/railgraph/pkg/history"
)

// Option configures [Reconstruct].
type Option func(*config)

type config struct {
	workers int
}

// WithWorkers bounds the number of goroutines used for per-ref
// reconstruction. Values below 1 fall back to the default (one worker per
// CPU).
func WithWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.workers = n
		}
	}
}

// Reconstruct builds a timeline for every ref log against the shared
// commit graph. The graph must be fully built and is only read.
//
// Reconstruction is independent per ref, so the work fans out across a
// bounded pool of goroutines; results are merged back in input order, so
// the output is deterministic regardless of scheduling.
func Reconstruct(g *history.Graph, logs []RefLog, opts ...Option) []RefTimeline {
	cfg := config{workers: runtime.NumCPU()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.workers > len(logs) {
		cfg.workers = len(logs)
	}

	out := make([]RefTimeline, len(logs))
	if len(logs) == 0 {
		return out
	}

	if cfg.workers <= 1 {
		for i, log := range logs {
			out[i] = build(g, log)
		}
		return out
	}

	var wg sync.WaitGroup
	jobs := make(chan int)
	for w := 0; w < cfg.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out[i] = build(g, logs[i])
			}
		}()
	}
	for i := range logs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return out
}
