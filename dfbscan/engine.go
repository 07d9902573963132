package dfbscan

import (
	"context"
	"fmt"

	"github.com/eapache/queue"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/dfbscan/dfbscan/callctx"
	"github.com/dfbscan/dfbscan/model"
	"github.com/dfbscan/dfbscan/oracle"
	"github.com/dfbscan/dfbscan/state"
	"github.com/dfbscan/dfbscan/tsanalyzer"
)

// Deps bundles the collaborators a per-seed task needs: the read-only
// analyzer, the bug-kind-specific sink extractor, the intra-procedural and
// path-feasibility oracles, the shared state store, and the call-depth bound
// and the call-depth bound.
type Deps struct {
	Analyzer      *tsanalyzer.Analyzer
	SinksOf       func(fn *model.Function) []model.Value
	IntraDFA      *oracle.IntraDataFlowAnalyzer
	PathValidator *oracle.PathValidator
	State         *state.DFBScanState
	CallDepth     int
	BugType       string
	IsReachable   bool
}

type workItem struct {
	Value    model.Value
	Function *model.Function
	Context  callctx.CallContext
}

func callSiteLine(n *sitter.Node) int { return int(n.StartPoint().Row) + 1 }

// ProcessSeed runs the per-seed task: a local, task-local
// worklist seeded with (s, enclosing_function(s), empty_context), drained
// sequentially, followed by buggy-path collection and validation/reporting
// against the shared state store.
func ProcessSeed(ctx context.Context, seed model.Value, deps Deps) error {
	f := deps.Analyzer.FunctionFor(seed)
	if f == nil {
		return fmt.Errorf("dfbscan: no enclosing function for seed %s", seed.String())
	}

	startNode := PathNodeOf(seed, callctx.NewCallContext(false))
	w := queue.New()
	w.Add(workItem{Value: seed, Function: f, Context: callctx.NewCallContext(false)})

	for w.Length() > 0 {
		item := w.Remove().(workItem)
		if item.Context.Depth() > deps.CallDepth {
			continue
		}

		output, err := invokeIntraDFA(ctx, deps, item)
		if err != nil {
			// Exhausted retries: an LLM error after the retry cap
			// yields no output and the caller moves on — this branch simply
			// discards the work item rather than treating it as fatal.
			continue
		}

		for _, frontier := range output.ReachableValues {
			end := state.NewFrontier(pathNodesOf(frontier, item.Context)...)
			deps.State.UpdateReachableValuesPerPath(PathNodeOf(item.Value, item.Context), end)

			for _, u := range frontier {
				switch u.Label {
				case model.ARG:
					expandARG(w, deps, item, u)
				case model.PARA:
					expandPARA(w, deps, item, u)
				case model.RET:
					expandRET(w, deps, item, u)
				case model.SINK:
					// Sinks never expand further.
				}
			}
		}
	}

	paths := collectPotentialBuggyPaths(deps, seed, startNode, nil, map[string]bool{})
	for _, path := range paths {
		deps.State.UpdatePotentialBuggyPaths(seed, path)
	}

	for _, path := range deps.State.PotentialBuggyPaths(seed) {
		validateAndReport(ctx, deps, path)
	}
	return nil
}

// invokeIntraDFA builds the oracle's input, converting every absolute file
// line (the convention every Value and CallStatementInfo on Analyzer uses)
// to a line relative to f's body, matching the numbering f.LinedCode()
// renders for the prompt.
func invokeIntraDFA(ctx context.Context, deps Deps, item workItem) (oracle.IntraDataFlowAnalyzerOutput, error) {
	f := item.Function
	sinks := deps.SinksOf(f)
	sinkTagged := make([]oracle.LineTagged, 0, len(sinks))
	for _, s := range sinks {
		sinkTagged = append(sinkTagged, oracle.LineTagged{Text: s.Name, Line: f.FileLineToFunctionLine(s.LineNumber)})
	}

	var callTagged []oracle.LineTagged
	for _, stmt := range deps.Analyzer.CallStatements(f) {
		callTagged = append(callTagged, oracle.LineTagged{Text: stmt.Text, Line: f.FileLineToFunctionLine(stmt.Line)})
	}

	var retTagged []oracle.LineTagged
	for _, r := range f.Returns() {
		retTagged = append(retTagged, oracle.LineTagged{Text: r.Name, Line: f.FileLineToFunctionLine(r.LineNumber)})
	}

	return deps.IntraDFA.Invoke(ctx, oracle.IntraDataFlowAnalyzerInput{
		Function:       f,
		StartValue:     item.Value,
		SinkValues:     sinkTagged,
		CallStatements: callTagged,
		ReturnValues:   retTagged,
	})
}

// expandARG implements the ARG expansion case: expand only into the callee
// whose call site actually contains u's line, i.e. the call that turned u
// into an argument in the first place (resolved open question, see
// DESIGN.md — the literal spec text reads as excluding that call site,
// which would make the step a no-op for the argument it was meant to carry
// forward).
func expandARG(w *queue.Queue, deps Deps, item workItem, u model.Value) {
	f := item.Function
	for _, callee := range deps.Analyzer.Callees(f) {
		for _, call := range deps.Analyzer.CallSitesTo(f, callee) {
			line := callSiteLine(call)
			if line != u.LineNumber {
				continue
			}
			label := callctx.ContextLabel{FileName: f.FilePath, LineNumber: line, FunctionID: callee.ID, Paren: callctx.LeftPar}
			nextCtx, ok := item.Context.Push(label)
			if !ok {
				continue
			}
			for _, p := range callee.Parameters() {
				if p.Index != u.Index {
					continue
				}
				w.Add(workItem{Value: p, Function: callee, Context: nextCtx})
				deps.State.UpdateExternalValueMatch(
					PathNodeOf(u, item.Context),
					state.NewFrontier(PathNodeOf(p, nextCtx)),
				)
			}
		}
	}
}

// expandPARA implements the PARA expansion case: a parameter value still
// reachable at exit propagates back to every call site in every caller.
func expandPARA(w *queue.Queue, deps Deps, item workItem, u model.Value) {
	f := item.Function
	for _, edge := range deps.Analyzer.CallSitesInto(f) {
		line := callSiteLine(edge.Node)
		label := callctx.ContextLabel{FileName: edge.Caller.FilePath, LineNumber: line, FunctionID: f.ID, Paren: callctx.RightPar}
		nextCtx, ok := item.Context.Push(label)
		if !ok {
			continue
		}
		args := deps.Analyzer.ArgumentsAt(edge.Caller, edge.Node)
		for _, a := range args {
			if a.Index != u.Index {
				continue
			}
			w.Add(workItem{Value: a, Function: edge.Caller, Context: nextCtx})
			deps.State.UpdateExternalValueMatch(
				PathNodeOf(u, item.Context),
				state.NewFrontier(PathNodeOf(a, nextCtx)),
			)
		}
	}
}

// expandRET implements the RET expansion case: a returned value propagates
// to the OUT value at every call site in every caller, CFL-gated identically
// to PARA.
func expandRET(w *queue.Queue, deps Deps, item workItem, u model.Value) {
	f := item.Function
	for _, edge := range deps.Analyzer.CallSitesInto(f) {
		line := callSiteLine(edge.Node)
		label := callctx.ContextLabel{FileName: edge.Caller.FilePath, LineNumber: line, FunctionID: f.ID, Paren: callctx.RightPar}
		nextCtx, ok := item.Context.Push(label)
		if !ok {
			continue
		}
		out := deps.Analyzer.OutputValueAt(edge.Caller, edge.Node)
		w.Add(workItem{Value: out, Function: edge.Caller, Context: nextCtx})
		deps.State.UpdateExternalValueMatch(
			PathNodeOf(u, item.Context),
			state.NewFrontier(PathNodeOf(out, nextCtx)),
		)
	}
}

func pathNodesOf(values []model.Value, ctx callctx.CallContext) []state.PathNode {
	out := make([]state.PathNode, 0, len(values))
	for _, v := range values {
		out = append(out, PathNodeOf(v, ctx))
	}
	return out
}

// PathNodeOf is the shared constructor for a (value, context) pair, kept in
// this package so dfbscan and its callers build state.PathNode identically.
func PathNodeOf(v model.Value, ctx callctx.CallContext) state.PathNode {
	return state.PathNode{Value: v, Context: ctx}
}
