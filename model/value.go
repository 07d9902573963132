package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ValueLabel classifies the role a Value plays at its program point.
type ValueLabel int

const (
	SRC ValueLabel = iota + 1
	SINK
	PARA
	RET
	ARG
	OUT
	BufAccessExpr
	NonBufAccessExpr
	LOCAL
	GLOBAL
)

var valueLabelNames = map[ValueLabel]string{
	SRC:              "ValueLabel.SRC",
	SINK:             "ValueLabel.SINK",
	PARA:             "ValueLabel.PARA",
	RET:              "ValueLabel.RET",
	ARG:              "ValueLabel.ARG",
	OUT:              "ValueLabel.OUT",
	BufAccessExpr:    "ValueLabel.BUF_ACCESS_EXPR",
	NonBufAccessExpr: "ValueLabel.NON_BUF_ACCESS_EXPR",
	LOCAL:            "ValueLabel.LOCAL",
	GLOBAL:           "ValueLabel.GLOBAL",
}

var valueLabelsByName = func() map[string]ValueLabel {
	m := make(map[string]ValueLabel, len(valueLabelNames))
	for label, name := range valueLabelNames {
		m[name] = label
	}
	return m
}()

// String renders the label the way it is serialized inside a Value's string
// form, so that Value equality (which compares strings) stays stable.
func (l ValueLabel) String() string {
	if name, ok := valueLabelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("ValueLabel.UNKNOWN(%d)", int(l))
}

// ParseValueLabel is the inverse of String; it is used when a Value is
// reconstructed from its persisted or logged string form.
func ParseValueLabel(s string) (ValueLabel, error) {
	if label, ok := valueLabelsByName[s]; ok {
		return label, nil
	}
	return 0, fmt.Errorf("invalid label: %s", s)
}

// Value is a location-tagged program datum: a syntactic token or expression
// at a specific file/line, tagged with the role it plays in a propagation.
//
// Index semantics: for PARA/ARG it is the 0-based positional slot, and
// equal indices denote an argument/parameter correspondence at a call site;
// for every other label it is -1. RET values carry -1 as well: neither the
// analyzer nor the oracle's response parser assigns them a positional slot.
//
// Equality and hashing are defined over the full string form, matching the
// reference implementation's "((name, file, line, index), label)" encoding —
// this is load-bearing: the worklist and the shared state store use Value as
// a map key, and two Values describing the same program point must collide
// even when constructed independently by different goroutines.
type Value struct {
	Name       string
	LineNumber int
	Label      ValueLabel
	File       string
	Index      int
}

// NewValue constructs a Value with the default (-1) index, for labels that
// carry no positional meaning (SRC, SINK, LOCAL, GLOBAL, the access-expr pair).
func NewValue(name string, line int, label ValueLabel, file string) Value {
	return Value{Name: name, LineNumber: line, Label: label, File: file, Index: -1}
}

// NewIndexedValue constructs a Value carrying a positional slot (PARA/ARG/RET).
func NewIndexedValue(name string, line int, label ValueLabel, file string, index int) Value {
	return Value{Name: name, LineNumber: line, Label: label, File: file, Index: index}
}

// String renders the canonical, order-significant serialization this type's
// equality and hashing are defined over.
func (v Value) String() string {
	return fmt.Sprintf("((%s, %s, %d, %d), %s)", v.Name, v.File, v.LineNumber, v.Index, v.Label)
}

// Equal reports whether two Values describe the same program point.
func (v Value) Equal(other Value) bool {
	return v.String() == other.String()
}

var valueStringPattern = regexp.MustCompile(
	`^\(\(\s*(?P<name>[^,]+),\s*(?P<file>[^,]+),\s*(?P<line>\d+),\s*(?P<index>-?\d+)\s*\),\s*(?P<label>[^)]+)\)$`,
)

// ParseValue reconstructs a Value from its String() form. It is the inverse
// of String and exists for the same reason the reference model carries a
// from_str_to_value classmethod: map keys that cross a log/cache boundary
// need a round trip.
func ParseValue(s string) (Value, error) {
	match := valueStringPattern.FindStringSubmatch(s)
	if match == nil {
		return Value{}, fmt.Errorf("string does not match expected Value format: %s", s)
	}
	names := valueStringPattern.SubexpNames()
	group := make(map[string]string, len(names))
	for i, name := range names {
		if name != "" {
			group[name] = strings.TrimSpace(match[i])
		}
	}
	line, err := strconv.Atoi(group["line"])
	if err != nil {
		return Value{}, fmt.Errorf("invalid line number in %q: %w", s, err)
	}
	index, err := strconv.Atoi(group["index"])
	if err != nil {
		return Value{}, fmt.Errorf("invalid index in %q: %w", s, err)
	}
	label, err := ParseValueLabel(group["label"])
	if err != nil {
		return Value{}, err
	}
	return Value{
		Name:       group["name"],
		File:       group["file"],
		LineNumber: line,
		Index:      index,
		Label:      label,
	}, nil
}
