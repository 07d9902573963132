package extractor

import "github.com/dfbscan/dfbscan/model"

// javaNPD is the Java null-pointer-dereference extractor: sources are
// null_literal nodes, sinks are the object expression of method_invocation
// and field_access.
type javaNPD struct{}

func (javaNPD) ExtractSources(fn *model.Function, src []byte) []model.Value {
	var out []model.Value
	for _, n := range walk(fn.Node, "null_literal") {
		out = append(out, model.NewValue(n.Content(src), absLine(fn, n), model.SRC, fn.FilePath))
	}
	return out
}

func (javaNPD) ExtractSinks(fn *model.Function, src []byte) []model.Value {
	var out []model.Value
	for _, n := range walk(fn.Node, "method_invocation") {
		if obj := n.ChildByFieldName("object"); obj != nil {
			out = append(out, model.NewValue(obj.Content(src), absLine(fn, obj), model.SINK, fn.FilePath))
		}
	}
	for _, n := range walk(fn.Node, "field_access") {
		if obj := n.ChildByFieldName("object"); obj != nil {
			out = append(out, model.NewValue(obj.Content(src), absLine(fn, obj), model.SINK, fn.FilePath))
		}
	}
	return out
}
