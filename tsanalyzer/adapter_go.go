package tsanalyzer

import (
	sitter "github.com/smacker/go-tree-sitter"
	tsgolang "github.com/smacker/go-tree-sitter/golang"
)

type goAdapter struct{}

func (a goAdapter) Grammar() *sitter.Language { return tsgolang.GetLanguage() }

func (a goAdapter) ExtractFunctions(tree *sitter.Node, src []byte) []funcSpec {
	var out []funcSpec
	for _, fn := range childrenOfTypes(tree, "function_declaration", "method_declaration") {
		name := fn.ChildByFieldName("name")
		if name == nil {
			continue
		}
		out = append(out, funcSpec{Name: name.Content(src), Node: fn, StartLine: line1(fn), EndLine: endLine1(fn)})
	}
	return out
}

func (a goAdapter) ExtractGlobals(tree *sitter.Node, src []byte) []globalSpec {
	var out []globalSpec
	for _, decl := range childrenOfType(tree, "var_declaration") {
		for _, spec := range childrenOfType(decl, "var_spec") {
			for i := 0; i < int(spec.NamedChildCount()); i++ {
				child := spec.NamedChild(i)
				if child.Type() == "identifier" {
					out = append(out, globalSpec{Name: child.Content(src), Line: line1(decl)})
				}
			}
		}
	}
	return out
}

func (a goAdapter) CallNodes(fnRoot *sitter.Node) []*sitter.Node {
	return childrenOfType(fnRoot, "call_expression")
}

// ResolveCalleeName selects the rightmost field of a selector_expression
// (pkg.Func or recv.Method), or the bare identifier for a direct call.
func (a goAdapter) ResolveCalleeName(call *sitter.Node, src []byte) string {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	if fn.Type() == "selector_expression" {
		field := fn.ChildByFieldName("field")
		if field != nil {
			return field.Content(src)
		}
	}
	return fn.Content(src)
}

func (a goAdapter) Arguments(call *sitter.Node) []*sitter.Node {
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, args.NamedChildCount())
	for i := 0; i < int(args.NamedChildCount()); i++ {
		out = append(out, args.NamedChild(i))
	}
	return out
}

func (a goAdapter) Parameters(fnNode *sitter.Node, src []byte) []paramSpec {
	params := fnNode.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	var out []paramSpec
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		if p.Type() != "parameter_declaration" && p.Type() != "variadic_parameter_declaration" {
			continue
		}
		for j := 0; j < int(p.NamedChildCount()); j++ {
			child := p.NamedChild(j)
			if child.Type() == "identifier" {
				out = append(out, paramSpec{Name: child.Content(src), Line: line1(p)})
			}
		}
	}
	return out
}

func (a goAdapter) Returns(fnNode *sitter.Node, src []byte) []textAtLine {
	var out []textAtLine
	for _, ret := range childrenOfType(fnNode, "return_statement") {
		text := ret.Content(src)
		if ret.NamedChildCount() > 0 {
			text = ret.NamedChild(0).Content(src)
		}
		out = append(out, textAtLine{Text: text, Line: line1(ret)})
	}
	return out
}

func (a goAdapter) IfStatements(fnNode *sitter.Node) []ifSpec {
	var out []ifSpec
	for _, ifNode := range childrenOfType(fnNode, "if_statement") {
		spec := ifSpec{StartLine: line1(ifNode), EndLine: endLine1(ifNode)}
		if cons := ifNode.ChildByFieldName("consequence"); cons != nil {
			spec.ConsequentEnd = endLine1(cons)
		}
		if alt := ifNode.ChildByFieldName("alternative"); alt != nil {
			spec.AlternateStart = line1(alt)
		}
		out = append(out, spec)
	}
	return out
}

func (a goAdapter) LoopStatements(fnNode *sitter.Node) []loopSpec {
	var out []loopSpec
	for _, loop := range childrenOfType(fnNode, "for_statement") {
		out = append(out, loopSpec{StartLine: line1(loop), EndLine: endLine1(loop)})
	}
	return out
}
