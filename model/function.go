package model

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// IfStatement records an indexed if/else branch range inside a function,
// used by control-order queries (source-before-sink textual heuristics).
type IfStatement struct {
	StartLine      int
	EndLine        int
	ConsequentEnd  int // last line of the "then" branch; 0 if there is no else
	AlternateStart int // first line of the "else" branch; 0 if absent
}

// LoopStatement records an indexed loop range inside a function.
type LoopStatement struct {
	StartLine int
	EndLine   int
}

// Function is the immutable record of a single user-defined function or
// method. Two functions are interned as the same Function once per
// (file, name, byte range) tuple by the analyzer that constructs them; after
// construction every field below is read-only.
type Function struct {
	ID int

	Name       string
	Code       string
	FilePath   string
	StartLine  int // 1-based, inclusive
	EndLine    int // 1-based, inclusive

	// Root node of the parse (sub)tree for this function, rooted in the
	// context of the whole file's tree — callers must not mutate it.
	Node *sitter.Node

	// Lazily computed by the analyzer; nil until first requested.
	paras       []Value
	retvals     []Value
	funcCallSites []*sitter.Node
	apiCallSites  []*sitter.Node

	IfStatements   []IfStatement
	LoopStatements []LoopStatement
}

// NewFunction builds a Function record. The analyzer is responsible for
// assigning a process-wide unique ID and interning by (file, name, range).
func NewFunction(id int, name, code string, startLine, endLine int, node *sitter.Node, filePath string) *Function {
	return &Function{
		ID:        id,
		Name:      name,
		Code:      code,
		FilePath:  filePath,
		StartLine: startLine,
		EndLine:   endLine,
		Node:      node,
	}
}

// FileLineToFunctionLine converts an absolute file line number into a line
// number relative to this function's first line (1-based).
func (f *Function) FileLineToFunctionLine(fileLine int) int {
	return fileLine - f.StartLine + 1
}

// FunctionLineToFileLine is the inverse of FileLineToFunctionLine.
func (f *Function) FunctionLineToFileLine(functionLine int) int {
	return functionLine + f.StartLine - 1
}

// LinedCode returns the function's source with a "N. " line-number prefix on
// every line, numbered from 1 — the form handed to the intra-procedural
// oracle so its line numbers are directly relative to the function body.
func (f *Function) LinedCode() string {
	return attachLineNumbers(f.Code, 1)
}

func attachLineNumbers(code string, firstLine int) string {
	var b strings.Builder
	line := firstLine
	b.WriteString(itoa(line))
	b.WriteString(". ")
	for _, ch := range code {
		if ch == '\n' {
			line++
			b.WriteRune(ch)
			b.WriteString(itoa(line))
			b.WriteString(". ")
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func itoa(n int) string {
	// Small, allocation-light int-to-string helper; functions are rendered
	// with line numbers far more often than this ever needs to be fast.
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var digits [20]byte
	i := len(digits)
	for n > 0 {
		i--
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		digits[i] = '-'
	}
	return string(digits[i:])
}

// SetParameters assigns the PARA value set, indexed 0..N-1. Called once by
// the analyzer during function extraction.
func (f *Function) SetParameters(paras []Value) { f.paras = paras }

// Parameters returns the memoized PARA set.
func (f *Function) Parameters() []Value { return f.paras }

// SetReturns assigns the RET value set, one per return statement; each
// carries index -1.
func (f *Function) SetReturns(retvals []Value) { f.retvals = retvals }

// Returns returns the memoized RET set.
func (f *Function) Returns() []Value { return f.retvals }

// SetCallSites records the split function-callsite and API-callsite node
// lists discovered during call-graph construction (stage 2).
func (f *Function) SetCallSites(functionSites, apiSites []*sitter.Node) {
	f.funcCallSites = functionSites
	f.apiCallSites = apiSites
}

// FunctionCallSites returns call-site nodes resolved to user-defined functions.
func (f *Function) FunctionCallSites() []*sitter.Node { return f.funcCallSites }

// APICallSites returns call-site nodes resolved to external APIs.
func (f *Function) APICallSites() []*sitter.Node { return f.apiCallSites }

// Contains reports whether an absolute file line number falls within this
// function's byte range in line-number terms.
func (f *Function) Contains(fileLine int) bool {
	return fileLine >= f.StartLine && fileLine <= f.EndLine
}

// Key is the interning key: a function is the same Function once per
// (file, name, start, end) tuple.
type Key struct {
	File  string
	Name  string
	Start int
	End   int
}

// KeyOf returns f's interning key.
func (f *Function) KeyOf() Key {
	return Key{File: f.FilePath, Name: f.Name, Start: f.StartLine, End: f.EndLine}
}
