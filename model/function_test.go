package model

import "testing"

func TestFileLineToFunctionLineRoundTrip(t *testing.T) {
	f := NewFunction(1, "check", "void check() {\n\treturn;\n}", 10, 12, nil, "a.c")

	for _, fileLine := range []int{10, 11, 12} {
		funcLine := f.FileLineToFunctionLine(fileLine)
		if got := f.FunctionLineToFileLine(funcLine); got != fileLine {
			t.Errorf("round trip for file line %d: got %d via func line %d", fileLine, got, funcLine)
		}
	}
	if got := f.FileLineToFunctionLine(10); got != 1 {
		t.Errorf("FileLineToFunctionLine(10) = %d, want 1 (function's first line)", got)
	}
}

func TestLinedCode(t *testing.T) {
	f := NewFunction(1, "check", "a\nb\nc", 1, 3, nil, "a.c")
	want := "1. a\n2. b\n3. c"
	if got := f.LinedCode(); got != want {
		t.Errorf("LinedCode() = %q, want %q", got, want)
	}
}

func TestContains(t *testing.T) {
	f := NewFunction(1, "check", "", 10, 20, nil, "a.c")
	if !f.Contains(10) || !f.Contains(20) || !f.Contains(15) {
		t.Error("expected lines 10, 15, and 20 to be contained")
	}
	if f.Contains(9) || f.Contains(21) {
		t.Error("expected lines 9 and 21 to fall outside the range")
	}
}

func TestKeyOfInterningTuple(t *testing.T) {
	a := NewFunction(1, "check", "", 10, 20, nil, "a.c")
	b := NewFunction(2, "check", "", 10, 20, nil, "a.c")
	if a.KeyOf() != b.KeyOf() {
		t.Error("two Function records describing the same (file, name, range) must share a Key")
	}

	c := NewFunction(3, "check", "", 10, 21, nil, "a.c")
	if a.KeyOf() == c.KeyOf() {
		t.Error("a differing end line must produce a distinct Key")
	}
}

func TestParametersAndReturnsAreMemoizedAfterSet(t *testing.T) {
	f := NewFunction(1, "check", "", 1, 1, nil, "a.c")
	paras := []Value{NewIndexedValue("p", 1, PARA, "a.c", 0)}
	rets := []Value{NewValue("r", 1, RET, "a.c")}

	f.SetParameters(paras)
	f.SetReturns(rets)

	if got := f.Parameters(); len(got) != 1 || got[0] != paras[0] {
		t.Errorf("Parameters() = %v, want %v", got, paras)
	}
	if got := f.Returns(); len(got) != 1 || got[0] != rets[0] {
		t.Errorf("Returns() = %v, want %v", got, rets)
	}
}
