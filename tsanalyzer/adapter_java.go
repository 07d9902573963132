package tsanalyzer

import (
	sitter "github.com/smacker/go-tree-sitter"
	tsjava "github.com/smacker/go-tree-sitter/java"
)

type javaAdapter struct{}

func (a javaAdapter) Grammar() *sitter.Language { return tsjava.GetLanguage() }

func (a javaAdapter) ExtractFunctions(tree *sitter.Node, src []byte) []funcSpec {
	var out []funcSpec
	for _, m := range childrenOfType(tree, "method_declaration") {
		name := m.ChildByFieldName("name")
		if name == nil {
			continue
		}
		out = append(out, funcSpec{Name: name.Content(src), Node: m, StartLine: line1(m), EndLine: endLine1(m)})
	}
	return out
}

func (a javaAdapter) ExtractGlobals(tree *sitter.Node, src []byte) []globalSpec {
	var out []globalSpec
	for _, field := range childrenOfType(tree, "field_declaration") {
		for _, declarator := range childrenOfType(field, "variable_declarator") {
			name := declarator.ChildByFieldName("name")
			if name == nil {
				continue
			}
			out = append(out, globalSpec{Name: name.Content(src), Line: line1(field)})
		}
	}
	return out
}

func (a javaAdapter) CallNodes(fnRoot *sitter.Node) []*sitter.Node {
	return childrenOfType(fnRoot, "method_invocation")
}

// ResolveCalleeName takes the identifier after the last `.`: the
// method_invocation's own `name` field already is that identifier.
func (a javaAdapter) ResolveCalleeName(call *sitter.Node, src []byte) string {
	name := call.ChildByFieldName("name")
	if name == nil {
		return ""
	}
	return name.Content(src)
}

func (a javaAdapter) Arguments(call *sitter.Node) []*sitter.Node {
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

func (a javaAdapter) Parameters(fnNode *sitter.Node, src []byte) []paramSpec {
	params := fnNode.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	var out []paramSpec
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		if p.Type() != "formal_parameter" && p.Type() != "spread_parameter" {
			continue
		}
		name := p.ChildByFieldName("name")
		if name == nil {
			continue
		}
		out = append(out, paramSpec{Name: name.Content(src), Line: line1(p)})
	}
	return out
}

func (a javaAdapter) Returns(fnNode *sitter.Node, src []byte) []textAtLine {
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

func (a javaAdapter) IfStatements(fnNode *sitter.Node) []ifSpec {
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

func (a javaAdapter) LoopStatements(fnNode *sitter.Node) []loopSpec {
	var out []loopSpec
	for _, loop := range childrenOfTypes(fnNode, "for_statement", "while_statement", "do_statement", "enhanced_for_statement") {
		out = append(out, loopSpec{StartLine: line1(loop), EndLine: endLine1(loop)})
	}
	return out
}
