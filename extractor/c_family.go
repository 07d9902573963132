package extractor

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/dfbscan/dfbscan/model"
)

var mlkAllocators = map[string]bool{
	"malloc": true, "calloc": true, "realloc": true,
	"strdup": true, "strndup": true, "asprintf": true, "vasprintf": true, "getline": true,
}

// rhsOf returns the initializer/RHS/returned-expression node of an
// init_declarator, assignment_expression, or return_statement.
func rhsOf(n *sitter.Node) *sitter.Node {
	switch n.Type() {
	case "init_declarator":
		return n.ChildByFieldName("value")
	case "assignment_expression":
		return n.ChildByFieldName("right")
	case "return_statement":
		if n.NamedChildCount() > 0 {
			return n.NamedChild(0)
		}
	}
	return nil
}

// cFamilyNPD is the C/C++ null-pointer-dereference extractor.
type cFamilyNPD struct{}

func (cFamilyNPD) ExtractSources(fn *model.Function, src []byte) []model.Value {
	var out []model.Value
	for _, n := range walk(fn.Node, "init_declarator", "assignment_expression", "return_statement") {
		rhs := rhsOf(n)
		if rhs != nil && containsIdent(rhs, src, "NULL") {
			out = append(out, model.NewValue(n.Content(src), absLine(fn, n), model.SRC, fn.FilePath))
		}
	}
	for _, call := range walk(fn.Node, "call_expression") {
		if calleeName(call, src) == "malloc" {
			out = append(out, model.NewValue(call.Content(src), absLine(fn, call), model.SRC, fn.FilePath))
		}
	}
	return out
}

func (cFamilyNPD) ExtractSinks(fn *model.Function, src []byte) []model.Value {
	var out []model.Value
	for _, n := range walk(fn.Node, "pointer_expression", "field_expression", "subscript_expression") {
		out = append(out, model.NewValue(n.Content(src), absLine(fn, n), model.SINK, fn.FilePath))
	}
	return out
}

// cFamilyMLK is the C/C++ memory-leak extractor: an unreachability-style
// bug whose source is an allocation and whose required sink is the matching
// free call.
type cFamilyMLK struct{}

func (cFamilyMLK) ExtractSources(fn *model.Function, src []byte) []model.Value {
	var out []model.Value
	for _, call := range walk(fn.Node, "call_expression") {
		if inSet(calleeName(call, src), mlkAllocators) {
			out = append(out, model.NewValue(call.Content(src), absLine(fn, call), model.SRC, fn.FilePath))
		}
	}
	for _, n := range walk(fn.Node, "new_expression") {
		out = append(out, model.NewValue(n.Content(src), absLine(fn, n), model.SRC, fn.FilePath))
	}
	return out
}

func (cFamilyMLK) ExtractSinks(fn *model.Function, src []byte) []model.Value {
	var out []model.Value
	for _, call := range walk(fn.Node, "call_expression") {
		if calleeName(call, src) == "free" {
			out = append(out, model.NewValue(call.Content(src), absLine(fn, call), model.SINK, fn.FilePath))
		}
	}
	return out
}

// cFamilyUAF is the C/C++ use-after-free extractor.
type cFamilyUAF struct{}

func (cFamilyUAF) ExtractSources(fn *model.Function, src []byte) []model.Value {
	var out []model.Value
	for _, call := range walk(fn.Node, "call_expression") {
		if calleeName(call, src) == "free" {
			out = append(out, model.NewValue(call.Content(src), absLine(fn, call), model.SRC, fn.FilePath))
		}
	}
	for _, n := range walk(fn.Node, "delete_expression") {
		out = append(out, model.NewValue(n.Content(src), absLine(fn, n), model.SRC, fn.FilePath))
	}
	return out
}

func (cFamilyUAF) ExtractSinks(fn *model.Function, src []byte) []model.Value {
	var out []model.Value
	for _, n := range walk(fn.Node, "pointer_expression", "field_expression", "subscript_expression", "delete_expression") {
		out = append(out, model.NewValue(n.Content(src), absLine(fn, n), model.SINK, fn.FilePath))
	}
	return out
}
