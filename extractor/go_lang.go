package extractor

import "github.com/dfbscan/dfbscan/model"

// goNPD is the Go null-pointer-dereference extractor: sources are
// uninitialized var_declarations (no initializer) and nil literals; sinks
// are selectors, index/slice expressions, and unary `*` dereferences.
type goNPD struct{}

func (goNPD) ExtractSources(fn *model.Function, src []byte) []model.Value {
	var out []model.Value
	for _, decl := range walk(fn.Node, "var_declaration") {
		for _, spec := range walk(decl, "var_spec") {
			if spec.ChildByFieldName("value") == nil {
				out = append(out, model.NewValue(spec.Content(src), absLine(fn, spec), model.SRC, fn.FilePath))
			}
		}
	}
	for _, n := range walk(fn.Node, "nil") {
		out = append(out, model.NewValue(n.Content(src), absLine(fn, n), model.SRC, fn.FilePath))
	}
	return out
}

func (goNPD) ExtractSinks(fn *model.Function, src []byte) []model.Value {
	var out []model.Value
	for _, n := range walk(fn.Node, "selector_expression", "index_expression", "slice_expression") {
		out = append(out, model.NewValue(n.Content(src), absLine(fn, n), model.SINK, fn.FilePath))
	}
	for _, n := range walk(fn.Node, "unary_expression") {
		op := n.ChildByFieldName("operator")
		if op != nil && op.Content(src) == "*" {
			out = append(out, model.NewValue(n.Content(src), absLine(fn, n), model.SINK, fn.FilePath))
		}
	}
	return out
}
