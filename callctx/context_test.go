package callctx

import "testing"

func TestCallContext_EmptyPushAlwaysReachable(t *testing.T) {
	ctx := NewCallContext(false)
	next, ok := ctx.Push(ContextLabel{FileName: "a.c", LineNumber: 1, FunctionID: 1, Paren: LeftPar})
	if !ok {
		t.Fatal("pushing into an empty context must always be CFL-reachable")
	}
	if next.Depth() != 1 {
		t.Fatalf("expected depth 1, got %d", next.Depth())
	}
}

func TestCallContext_RoundTripCollapsesToEmpty(t *testing.T) {
	ctx := NewCallContext(false)
	left := ContextLabel{FileName: "a.c", LineNumber: 10, FunctionID: 5, Paren: LeftPar}
	ctx, ok := ctx.Push(left)
	if !ok {
		t.Fatal("LEFT push must succeed")
	}

	right := ContextLabel{FileName: "a.c", LineNumber: 10, FunctionID: 5, Paren: RightPar}
	ctx, ok = ctx.Push(right)
	if !ok {
		t.Fatal("matching RIGHT_PAR must collapse, not be rejected")
	}
	if ctx.Depth() != 0 {
		t.Fatalf("LEFT(x) . RIGHT(x) must reduce to the empty stack, got depth %d", ctx.Depth())
	}
	// The full (unsimplified) history still records both frames.
	if len(ctx.History) != 2 {
		t.Fatalf("expected history length 2, got %d", len(ctx.History))
	}
}

func TestCallContext_MismatchedSiteRejected(t *testing.T) {
	ctx := NewCallContext(false)
	left := ContextLabel{FileName: "a.c", LineNumber: 10, FunctionID: 5, Paren: LeftPar}
	ctx, ok := ctx.Push(left)
	if !ok {
		t.Fatal("LEFT push must succeed")
	}

	mismatched := ContextLabel{FileName: "a.c", LineNumber: 99, FunctionID: 5, Paren: RightPar}
	_, ok = ctx.Push(mismatched)
	if ok {
		t.Fatal("a RIGHT_PAR that does not share (file, line, function-id) with the open LEFT_PAR must be CFL-rejected")
	}
}

func TestCallContext_SameDirectionNests(t *testing.T) {
	ctx := NewCallContext(false)
	first := ContextLabel{FileName: "a.c", LineNumber: 1, FunctionID: 1, Paren: LeftPar}
	second := ContextLabel{FileName: "b.c", LineNumber: 2, FunctionID: 2, Paren: LeftPar}

	ctx, ok := ctx.Push(first)
	if !ok {
		t.Fatal("first push must succeed")
	}
	ctx, ok = ctx.Push(second)
	if !ok {
		t.Fatal("nesting a second LEFT_PAR must succeed")
	}
	if ctx.Depth() != 2 {
		t.Fatalf("expected depth 2 after two same-direction pushes, got %d", ctx.Depth())
	}
}

func TestCallContext_EqualityIsStringForm(t *testing.T) {
	a := NewCallContext(false)
	b := NewCallContext(false)
	label := ContextLabel{FileName: "a.c", LineNumber: 1, FunctionID: 1, Paren: LeftPar}

	a, _ = a.Push(label)
	b, _ = b.Push(label)

	if !a.Equal(b) {
		t.Fatal("two independently constructed contexts with identical histories must compare equal")
	}

	c, _ := b.Push(ContextLabel{FileName: "a.c", LineNumber: 2, FunctionID: 3, Paren: LeftPar})
	if a.Equal(c) {
		t.Fatal("contexts with different histories must not compare equal")
	}
}

func TestContextLabelAndParenthesisStrings(t *testing.T) {
	label := ContextLabel{FileName: "x.py", LineNumber: 3, FunctionID: 7, Paren: RightPar}
	want := "(x.py 3 7 RIGHT_PAR)"
	if got := label.String(); got != want {
		t.Fatalf("ContextLabel.String() = %q, want %q", got, want)
	}
}
