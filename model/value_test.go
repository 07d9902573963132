package model

import "testing"

func TestValueLabelStringRoundTrip(t *testing.T) {
	labels := []ValueLabel{SRC, SINK, PARA, RET, ARG, OUT, BufAccessExpr, NonBufAccessExpr, LOCAL, GLOBAL}
	for _, l := range labels {
		s := l.String()
		got, err := ParseValueLabel(s)
		if err != nil {
			t.Fatalf("ParseValueLabel(%q) returned error: %v", s, err)
		}
		if got != l {
			t.Errorf("round trip for %v: got %v", l, got)
		}
	}
}

func TestParseValueLabelRejectsUnknown(t *testing.T) {
	if _, err := ParseValueLabel("ValueLabel.NOT_A_LABEL"); err == nil {
		t.Error("expected an error for an unrecognized label string")
	}
}

func TestNewValueDefaultsIndexToNegativeOne(t *testing.T) {
	v := NewValue("p", 10, SRC, "a.c")
	if v.Index != -1 {
		t.Errorf("Index = %d, want -1", v.Index)
	}
}

func TestNewIndexedValueCarriesIndex(t *testing.T) {
	v := NewIndexedValue("p", 10, PARA, "a.c", 2)
	if v.Index != 2 {
		t.Errorf("Index = %d, want 2", v.Index)
	}
}

func TestValueEqualComparesByString(t *testing.T) {
	a := NewValue("p", 10, SRC, "a.c")
	b := NewValue("p", 10, SRC, "a.c")
	if !a.Equal(b) {
		t.Error("two Values with identical fields must be Equal")
	}

	c := NewValue("p", 11, SRC, "a.c")
	if a.Equal(c) {
		t.Error("Values differing only in line number must not be Equal")
	}
}

func TestValueStringParseValueRoundTrip(t *testing.T) {
	cases := []Value{
		NewValue("ptr", 42, SRC, "src/a.c"),
		NewIndexedValue("arg0", 7, ARG, "src/b.c", 0),
		NewIndexedValue("ret", 100, RET, "src/c.go", -1),
	}
	for _, want := range cases {
		s := want.String()
		got, err := ParseValue(s)
		if err != nil {
			t.Fatalf("ParseValue(%q) returned error: %v", s, err)
		}
		if got != want {
			t.Errorf("round trip for %+v: got %+v (via %q)", want, got, s)
		}
	}
}

func TestParseValueRejectsMalformedInput(t *testing.T) {
	for _, s := range []string{
		"",
		"not a value",
		"((p, a.c, x, 0), ValueLabel.SRC)",
	} {
		if _, err := ParseValue(s); err == nil {
			t.Errorf("ParseValue(%q): expected an error", s)
		}
	}
}
