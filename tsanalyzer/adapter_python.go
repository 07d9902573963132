package tsanalyzer

import (
	sitter "github.com/smacker/go-tree-sitter"
	tspython "github.com/smacker/go-tree-sitter/python"
)

type pythonAdapter struct{}

func (a pythonAdapter) Grammar() *sitter.Language { return tspython.GetLanguage() }

func (a pythonAdapter) ExtractFunctions(tree *sitter.Node, src []byte) []funcSpec {
	var out []funcSpec
	for _, fn := range childrenOfType(tree, "function_definition") {
		name := fn.ChildByFieldName("name")
		if name == nil {
			continue
		}
		out = append(out, funcSpec{Name: name.Content(src), Node: fn, StartLine: line1(fn), EndLine: endLine1(fn)})
	}
	return out
}

func (a pythonAdapter) ExtractGlobals(tree *sitter.Node, src []byte) []globalSpec {
	var out []globalSpec
	for i := 0; i < int(tree.NamedChildCount()); i++ {
		child := tree.NamedChild(i)
		if child.Type() != "expression_statement" {
			continue
		}
		for _, assign := range childrenOfType(child, "assignment") {
			left := assign.ChildByFieldName("left")
			if left != nil && left.Type() == "identifier" {
				out = append(out, globalSpec{Name: left.Content(src), Line: line1(child)})
			}
		}
	}
	return out
}

func (a pythonAdapter) CallNodes(fnRoot *sitter.Node) []*sitter.Node {
	return childrenOfType(fnRoot, "call")
}

func (a pythonAdapter) ResolveCalleeName(call *sitter.Node, src []byte) string {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	if fn.Type() == "attribute" {
		attr := fn.ChildByFieldName("attribute")
		if attr != nil {
			return attr.Content(src)
		}
	}
	return fn.Content(src)
}

func (a pythonAdapter) Arguments(call *sitter.Node) []*sitter.Node {
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

func (a pythonAdapter) Parameters(fnNode *sitter.Node, src []byte) []paramSpec {
	params := fnNode.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	var out []paramSpec
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		var nameNode *sitter.Node
		switch p.Type() {
		case "identifier":
			nameNode = p
		case "typed_parameter", "default_parameter", "typed_default_parameter":
			nameNode = p.ChildByFieldName("name")
			if nameNode == nil && p.NamedChildCount() > 0 {
				nameNode = p.NamedChild(0)
			}
		default:
			continue
		}
		if nameNode == nil {
			continue
		}
		out = append(out, paramSpec{Name: nameNode.Content(src), Line: line1(p)})
	}
	return out
}

func (a pythonAdapter) Returns(fnNode *sitter.Node, src []byte) []textAtLine {
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

// IfStatements intentionally collapses nested elif chains into a flat
// consequence/alternative pair rather than walking the `elif_clause` chain,
// matching the reference implementation's deliberately coarse Python
// control-flow extraction.
func (a pythonAdapter) IfStatements(fnNode *sitter.Node) []ifSpec {
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

func (a pythonAdapter) LoopStatements(fnNode *sitter.Node) []loopSpec {
	var out []loopSpec
	for _, loop := range childrenOfTypes(fnNode, "for_statement", "while_statement") {
		out = append(out, loopSpec{StartLine: line1(loop), EndLine: endLine1(loop)})
	}
	return out
}
