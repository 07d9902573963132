// Package scanexec implements the executor (component G): a bounded worker
// pool that dispatches one dfbscan.ProcessSeed task per source seed,
// mirroring the channel-and-WaitGroup worker pool tsanalyzer's two build
// stages use, grounded on the same graph/initialize.go pattern.
package scanexec

import (
	"context"
	"fmt"
	"sync"

	"github.com/dfbscan/dfbscan/dfbscan"
	"github.com/dfbscan/dfbscan/model"
)

// TaskFailure records a seed task that panicked or returned an error —
// logged and swallowed as a worker exception, never fatal to the run.
type TaskFailure struct {
	Seed model.Value
	Err  error
}

// Options bounds the pool's width. Workers defaults to 30 (the same default
// as max_neural_workers): each task is dominated by LLM round trips, not CPU, so the pool is
// sized the same as the neural-call budget rather than GOMAXPROCS.
type Options struct {
	Workers int
}

func DefaultOptions() Options { return Options{Workers: 30} }

// processSeedHook is dfbscan.ProcessSeed, indirected through a variable so
// tests can substitute a cheap stand-in and exercise the pool's dispatch and
// failure-recovery contract without building a real Analyzer per case.
var processSeedHook = dfbscan.ProcessSeed

// Run dispatches one ProcessSeed task per seed across a bounded pool of
// goroutines and returns once every task has finished. A task-level panic or
// error is recovered, recorded as a TaskFailure, and does not stop the other
// tasks — each seed's propagation is independent.
func Run(ctx context.Context, seeds []model.Value, deps dfbscan.Deps, opts Options) []TaskFailure {
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(seeds) && len(seeds) > 0 {
		workers = len(seeds)
	}

	seedChan := make(chan model.Value, len(seeds))
	failureChan := make(chan TaskFailure, len(seeds))
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for seed := range seedChan {
				runTask(ctx, seed, deps, failureChan)
			}
		}()
	}

	for _, seed := range seeds {
		seedChan <- seed
	}
	close(seedChan)
	wg.Wait()
	close(failureChan)

	failures := make([]TaskFailure, 0, len(failureChan))
	for f := range failureChan {
		failures = append(failures, f)
	}
	return failures
}

// runTask runs one ProcessSeed task, converting both a returned error and a
// recovered panic into a TaskFailure so a single malformed seed (or a bug in
// a caller-supplied extractor/oracle) never takes down the whole pool.
func runTask(ctx context.Context, seed model.Value, deps dfbscan.Deps, failureChan chan<- TaskFailure) {
	defer func() {
		if r := recover(); r != nil {
			failureChan <- TaskFailure{Seed: seed, Err: fmt.Errorf("scanexec: task panicked: %v", r)}
		}
	}()

	if err := processSeedHook(ctx, seed, deps); err != nil {
		failureChan <- TaskFailure{Seed: seed, Err: err}
	}
}
