package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfbscan/dfbscan/callctx"
	"github.com/dfbscan/dfbscan/model"
)

func node(name string, line int, label model.ValueLabel, file string) PathNode {
	return PathNode{Value: model.NewValue(name, line, label, file), Context: callctx.NewCallContext(false)}
}

func TestDFBScanState_ReachableValuesPerPath_Accumulates(t *testing.T) {
	s := New()
	start := node("p", 1, model.SRC, "npd.c")
	sink := node("*p", 3, model.SINK, "npd.c")

	s.UpdateReachableValuesPerPath(start, NewFrontier(sink))
	s.UpdateReachableValuesPerPath(start, NewFrontier(sink))

	frontiers := s.ReachableValuesPerPath(start)
	require.Len(t, frontiers, 2, "each call must append a distinct frontier, not merge them")
	assert.Equal(t, sink, frontiers[0].Values()[0])
}

func TestDFBScanState_ExternalValueMatch_Merges(t *testing.T) {
	s := New()
	arg := node("x", 5, model.ARG, "a.py")
	para1 := node("y", 1, model.PARA, "b.py")
	para2 := node("z", 1, model.PARA, "b.py")

	s.UpdateExternalValueMatch(arg, NewFrontier(para1))
	s.UpdateExternalValueMatch(arg, NewFrontier(para2))

	ends, ok := s.ExternalValueMatch(arg)
	require.True(t, ok)
	assert.Len(t, ends, 2, "repeated updates to the same external match must union, not overwrite")
}

func TestDFBScanState_PotentialBuggyPaths_Deduplicates(t *testing.T) {
	s := New()
	src := model.NewValue("q", 1, model.SRC, "mlk.c")
	path := []model.Value{src, model.NewValue("free", 9, model.SINK, "mlk.c")}

	s.UpdatePotentialBuggyPaths(src, path)
	s.UpdatePotentialBuggyPaths(src, append([]model.Value(nil), path...))

	paths := s.PotentialBuggyPaths(src)
	assert.Len(t, paths, 1, "identical paths (by string form) must be deduplicated per source")
}

func TestDFBScanState_BugReports_MonotonicNumbering(t *testing.T) {
	s := New()
	id1 := s.UpdateBugReport(BugReport{BugType: "NPD"})
	id2 := s.UpdateBugReport(BugReport{BugType: "MLK"})

	assert.Less(t, id1, id2)
	reports := s.BugReports()
	assert.Len(t, reports, 2)
}

func TestDFBScanState_ConcurrentWritesAreSerialized(t *testing.T) {
	s := New()
	src := model.NewValue("shared", 1, model.SRC, "a.go")

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.UpdatePotentialBuggyPaths(src, []model.Value{src, model.NewValue("sink", i, model.SINK, "a.go")})
		}(i)
	}
	wg.Wait()

	paths := s.PotentialBuggyPaths(src)
	assert.Len(t, paths, 100, "all 100 distinct concurrent paths must be recorded without loss")
}
