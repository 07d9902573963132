package tsanalyzer

import (
	"context"
	"testing"

	"github.com/dfbscan/dfbscan/model"
)

const goSample = `package sample

func helper(x int) int {
	return x + 1
}

func caller() int {
	y := helper(3)
	return y
}
`

func TestBuild_Go_ResolvesFunctionToFunctionEdge(t *testing.T) {
	a, err := Build(context.Background(), []Source{{Path: "sample.go", Code: []byte(goSample)}}, LanguageGo, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a.Failures) != 0 {
		t.Fatalf("expected no parse failures, got %v", a.Failures)
	}

	funcs := a.Functions()
	if len(funcs) != 2 {
		t.Fatalf("expected 2 extracted functions, got %d: %+v", len(funcs), funcs)
	}

	named := map[string]*model.Function{}
	for _, fn := range funcs {
		named[fn.Name] = fn
	}
	caller, helper := named["caller"], named["helper"]
	if caller == nil || helper == nil {
		t.Fatalf("expected both caller and helper to be extracted, got %v", named)
	}

	callees := a.Callees(caller)
	if len(callees) != 1 || callees[0].Name != "helper" {
		t.Fatalf("expected caller to have a single callee edge to helper, got %+v", callees)
	}
	callers := a.Callers(helper)
	if len(callers) != 1 || callers[0].Name != "caller" {
		t.Fatalf("expected helper to have a single caller edge from caller, got %+v", callers)
	}
}

func TestBuild_Go_UnresolvedCallBecomesAPIEdge(t *testing.T) {
	src := `package sample

func run() {
	doSomethingExternal(1, 2)
}
`
	a, err := Build(context.Background(), []Source{{Path: "s.go", Code: []byte(src)}}, LanguageGo, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	funcs := a.Functions()
	if len(funcs) != 1 {
		t.Fatalf("expected 1 function, got %d", len(funcs))
	}
	if len(a.Callees(funcs[0])) != 0 {
		t.Fatalf("expected no function callees for an unresolved call")
	}
	if len(a.apis) != 1 {
		t.Fatalf("expected the unresolved call to intern exactly one API, got %d", len(a.apis))
	}
}

func TestBuild_UnknownLanguageIsFatal(t *testing.T) {
	_, err := Build(context.Background(), nil, Language("brainfuck"), DefaultOptions())
	if err == nil {
		t.Fatal("expected an error constructing an analyzer for an unknown language")
	}
}

func TestCheckControlOrder_OppositeBranchesAreUnreachable(t *testing.T) {
	a := &Analyzer{}
	fn := model.NewFunction(1, "f", "", 1, 20, nil, "x.c")
	fn.IfStatements = []model.IfStatement{
		{StartLine: 2, EndLine: 9, ConsequentEnd: 5, AlternateStart: 6},
	}

	if a.CheckControlOrder(fn, 3, 7) {
		t.Fatal("a source in the consequent and a sink in the alternate must be considered unreachable")
	}
	if !a.CheckControlOrder(fn, 10, 11) {
		t.Fatal("a source textually preceding the sink outside any branch must be reachable")
	}
}

func TestCheckControlOrder_BackwardOrderNeedsCommonLoop(t *testing.T) {
	a := &Analyzer{}
	fn := model.NewFunction(1, "f", "", 1, 20, nil, "x.c")
	fn.LoopStatements = []model.LoopStatement{{StartLine: 1, EndLine: 20}}

	if !a.CheckControlOrder(fn, 15, 5) {
		t.Fatal("source after sink must still be reachable when both are inside a common loop body")
	}

	fn.LoopStatements = nil
	if a.CheckControlOrder(fn, 15, 5) {
		t.Fatal("source after sink with no enclosing loop must be unreachable")
	}
}
