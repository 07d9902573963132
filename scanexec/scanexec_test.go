package scanexec

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfbscan/dfbscan/dfbscan"
	"github.com/dfbscan/dfbscan/model"
)

// TestRun_DispatchesOneTaskPerSeed doesn't exercise the real ProcessSeed
// (that needs a built Analyzer); it confirms the pool's own contract: every
// seed is attempted exactly once, regardless of pool width, and failures from
// individual seeds are collected rather than aborting the batch. The real
// dfbscan.ProcessSeed path is covered end-to-end in dfbscan/engine_test.go.
func TestRun_DispatchesOneTaskPerSeed(t *testing.T) {
	seeds := make([]model.Value, 0, 8)
	for i := 0; i < 8; i++ {
		seeds = append(seeds, model.NewValue("seed", i+1, model.SRC, "sample.c"))
	}

	var calls int64
	origProcessSeed := processSeedHook
	processSeedHook = func(_ context.Context, seed model.Value, _ dfbscan.Deps) error {
		atomic.AddInt64(&calls, 1)
		if seed.LineNumber%2 == 0 {
			return errors.New("synthetic failure")
		}
		return nil
	}
	defer func() { processSeedHook = origProcessSeed }()

	failures := Run(context.Background(), seeds, dfbscan.Deps{}, Options{Workers: 3})

	assert.EqualValues(t, len(seeds), calls, "every seed must be dispatched exactly once")
	require.Len(t, failures, 4, "one failure per even-numbered seed")
	for _, f := range failures {
		assert.EqualError(t, f.Err, "synthetic failure")
	}
}

func TestRun_RecoversFromTaskPanic(t *testing.T) {
	seeds := []model.Value{model.NewValue("seed", 1, model.SRC, "sample.c")}

	origProcessSeed := processSeedHook
	processSeedHook = func(_ context.Context, _ model.Value, _ dfbscan.Deps) error {
		panic("boom")
	}
	defer func() { processSeedHook = origProcessSeed }()

	failures := Run(context.Background(), seeds, dfbscan.Deps{}, DefaultOptions())

	require.Len(t, failures, 1)
	assert.Contains(t, failures[0].Err.Error(), "boom")
}

func TestRun_DefaultsToOneWorkerWhenNonPositive(t *testing.T) {
	seeds := []model.Value{model.NewValue("seed", 1, model.SRC, "sample.c")}

	origProcessSeed := processSeedHook
	processSeedHook = func(_ context.Context, _ model.Value, _ dfbscan.Deps) error { return nil }
	defer func() { processSeedHook = origProcessSeed }()

	failures := Run(context.Background(), seeds, dfbscan.Deps{}, Options{Workers: 0})
	assert.Empty(t, failures)
}
