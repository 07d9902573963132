package dfbscan

import (
	"context"
	"fmt"

	"github.com/dfbscan/dfbscan/model"
	"github.com/dfbscan/dfbscan/oracle"
	"github.com/dfbscan/dfbscan/state"
)

// collectPotentialBuggyPaths walks the propagation graph recorded in state
// (ReachableValuesPerPath for intra-procedural hops, ExternalValueMatch for
// cross-call hops) starting at node, emitting one candidate path per
// frontier member that is either a SINK (reachability-style bugs: NPD, UAF)
// or a dead end with nothing further recorded (unreachability-style bugs:
// MLK, where the absence of a required follow-up is itself the witness).
//
// visiting guards against revisiting the same (value, context) node within
// one recursive descent, since the propagation graph is not guaranteed to
// be acyclic (recursive functions, mutually recursive call chains).
func collectPotentialBuggyPaths(deps Deps, src model.Value, node state.PathNode, prefix []model.Value, visiting map[string]bool) [][]model.Value {
	path := append(append([]model.Value(nil), prefix...), node.Value)

	if visiting[node.Key()] {
		return nil
	}
	visiting[node.Key()] = true
	defer delete(visiting, node.Key())

	var out [][]model.Value

	for _, frontier := range deps.State.ReachableValuesPerPath(node) {
		for _, next := range frontier.Values() {
			if next.Value.Label == model.SINK {
				if deps.IsReachable {
					out = append(out, append(append([]model.Value(nil), path...), next.Value))
				}
				continue
			}
			out = append(out, collectPotentialBuggyPaths(deps, src, next, path, visiting)...)
		}
	}

	if ends, ok := deps.State.ExternalValueMatch(node); ok {
		for _, next := range ends.Values() {
			out = append(out, collectPotentialBuggyPaths(deps, src, next, path, visiting)...)
		}
	}

	if !deps.State.HasPropagationInfo(node) && !deps.IsReachable {
		out = append(out, append([]model.Value(nil), path...))
	}

	return out
}

// valuesToFunctions resolves every value on path to its enclosing function,
// the lookup PathValidator needs to dump each function's source once.
func valuesToFunctions(deps Deps, path []model.Value) map[string]*model.Function {
	out := make(map[string]*model.Function, len(path))
	for _, v := range path {
		if fn := deps.Analyzer.FunctionFor(v); fn != nil {
			out[v.String()] = fn
		}
	}
	return out
}

// validateAndReport asks the path-feasibility oracle whether path is
// reachable end-to-end and, if so, records a BugReport.
func validateAndReport(ctx context.Context, deps Deps, path []model.Value) {
	if len(path) == 0 {
		return
	}

	verdict, err := deps.PathValidator.Invoke(ctx, oracle.PathValidatorInput{
		BugType:           deps.BugType,
		Values:            path,
		ValuesToFunctions: valuesToFunctions(deps, path),
	})
	if err != nil || !verdict.IsReachable {
		return
	}

	funcsSeen := make(map[string]bool)
	var relevant []*model.Function
	for _, v := range path {
		fn := deps.Analyzer.FunctionFor(v)
		if fn == nil {
			continue
		}
		key := fn.KeyOf()
		dedupKey := fmt.Sprintf("%s:%s:%d:%d", key.File, key.Name, key.Start, key.End)
		if funcsSeen[dedupKey] {
			continue
		}
		funcsSeen[dedupKey] = true
		relevant = append(relevant, fn)
	}

	deps.State.UpdateBugReport(state.BugReport{
		BugType:              deps.BugType,
		BuggyValue:           path[0],
		RelevantFunctions:    relevant,
		Explanation:          verdict.Explanation,
		IsHumanConfirmedTrue: "unknown",
	})
}
