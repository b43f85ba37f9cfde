// Package monitors checks the dependencies reported by the readiness endpoint.
package monitors

import (
	"context"
	"sync"
	"time"
)

// Probe is one named dependency check.
type Probe struct {
	Name     string
	Check    func(ctx context.Context) error
	Optional bool // failures are reported but do not make the service unready
}

type Result struct {
	Name      string `json:"name"`
	Healthy   bool   `json:"healthy"`
	Optional  bool   `json:"optional,omitempty"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// RunProbes executes every probe concurrently and reports results in input order.
// ready is false when any required probe failed.
func RunProbes(ctx context.Context, probes []Probe) (results []Result, ready bool) {
	results = make([]Result, len(probes))

	var wg sync.WaitGroup
	for i, probe := range probes {
		wg.Add(1)
		go func(i int, probe Probe) {
			defer wg.Done()

			start := time.Now()
			err := probe.Check(ctx)

			results[i] = Result{
				Name:      probe.Name,
				Healthy:   err == nil,
				Optional:  probe.Optional,
				LatencyMS: time.Since(start).Milliseconds(),
			}
			if err != nil {
				results[i].Error = err.Error()
			}
		}(i, probe)
	}
	wg.Wait()

	ready = true
	for _, r := range results {
		if !r.Healthy && !r.Optional {
			ready = false
		}
	}

	return results, ready
}
