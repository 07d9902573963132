package extractor

import "github.com/dfbscan/dfbscan/model"

// pythonNPD is the Python null-pointer-dereference extractor: sources are
// `None` literals, sinks are the object of attribute and subscript
// expressions.
type pythonNPD struct{}

func (pythonNPD) ExtractSources(fn *model.Function, src []byte) []model.Value {
	var out []model.Value
	for _, n := range walk(fn.Node, "none") {
		out = append(out, model.NewValue(n.Content(src), absLine(fn, n), model.SRC, fn.FilePath))
	}
	return out
}

func (pythonNPD) ExtractSinks(fn *model.Function, src []byte) []model.Value {
	var out []model.Value
	for _, n := range walk(fn.Node, "attribute") {
		if obj := n.ChildByFieldName("object"); obj != nil {
			out = append(out, model.NewValue(obj.Content(src), absLine(fn, obj), model.SINK, fn.FilePath))
		}
	}
	for _, n := range walk(fn.Node, "subscript") {
		if obj := n.ChildByFieldName("value"); obj != nil {
			out = append(out, model.NewValue(obj.Content(src), absLine(fn, obj), model.SINK, fn.FilePath))
		}
	}
	return out
}
