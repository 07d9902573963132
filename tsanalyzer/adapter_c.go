package tsanalyzer

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// cFamilyAdapter drives both the C and C++ variants. go-tree-sitter ships no
// standalone C grammar subpackage (only cpp), and the cpp grammar parses
// plain C translation units without error for every construct DFBScan cares
// about (function_definition, call_expression, pointer dereference), so both
// language tags share this grammar and adapter; memberOps governs only how
// callee names are resolved from `.`/`->` chains, which is identical for
// both dialects here.
type cFamilyAdapter struct {
	grammar   *sitter.Language
	memberOps []string
}

func (a cFamilyAdapter) Grammar() *sitter.Language { return a.grammar }

func (a cFamilyAdapter) ExtractFunctions(tree *sitter.Node, src []byte) []funcSpec {
	var out []funcSpec
	for _, def := range childrenOfType(tree, "function_definition") {
		decl := def.ChildByFieldName("declarator")
		name := functionDeclaratorName(decl, src)
		if name == "" {
			continue
		}
		out = append(out, funcSpec{Name: name, Node: def, StartLine: line1(def), EndLine: endLine1(def)})
	}
	return out
}

// functionDeclaratorName unwraps pointer_declarator/function_declarator
// nesting (e.g. `char *get_name(void)`) down to the identifier.
func functionDeclaratorName(n *sitter.Node, src []byte) string {
	for n != nil {
		switch n.Type() {
		case "function_declarator":
			n = n.ChildByFieldName("declarator")
		case "pointer_declarator":
			n = n.ChildByFieldName("declarator")
		case "identifier", "field_identifier":
			return n.Content(src)
		default:
			return ""
		}
	}
	return ""
}

func (a cFamilyAdapter) ExtractGlobals(tree *sitter.Node, src []byte) []globalSpec {
	var out []globalSpec
	for i := 0; i < int(tree.NamedChildCount()); i++ {
		child := tree.NamedChild(i)
		if child.Type() != "declaration" {
			continue
		}
		for _, decl := range childrenOfTypes(child, "init_declarator", "identifier") {
			name := functionDeclaratorName(decl, src)
			if name == "" && decl.Type() == "identifier" {
				name = decl.Content(src)
			}
			if name != "" {
				out = append(out, globalSpec{Name: name, Line: line1(child)})
			}
		}
	}
	return out
}

func (a cFamilyAdapter) CallNodes(fnRoot *sitter.Node) []*sitter.Node {
	return childrenOfType(fnRoot, "call_expression")
}

func (a cFamilyAdapter) ResolveCalleeName(call *sitter.Node, src []byte) string {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "field_expression":
		field := fn.ChildByFieldName("field")
		if field != nil {
			return field.Content(src)
		}
	case "identifier":
		return fn.Content(src)
	}
	text := fn.Content(src)
	for _, op := range a.memberOps {
		if idx := strings.LastIndex(text, op); idx >= 0 {
			text = text[idx+len(op):]
		}
	}
	return strings.TrimSpace(text)
}

func (a cFamilyAdapter) Arguments(call *sitter.Node) []*sitter.Node {
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

func (a cFamilyAdapter) Parameters(fnNode *sitter.Node, src []byte) []paramSpec {
	decl := fnNode.ChildByFieldName("declarator")
	for decl != nil && decl.Type() != "function_declarator" {
		decl = decl.ChildByFieldName("declarator")
	}
	if decl == nil {
		return nil
	}
	paramList := decl.ChildByFieldName("parameters")
	if paramList == nil {
		return nil
	}
	var out []paramSpec
	for i := 0; i < int(paramList.NamedChildCount()); i++ {
		p := paramList.NamedChild(i)
		if p.Type() != "parameter_declaration" {
			continue
		}
		pd := p.ChildByFieldName("declarator")
		name := functionDeclaratorName(pd, src)
		if name == "" {
			continue
		}
		out = append(out, paramSpec{Name: name, Line: line1(p)})
	}
	return out
}

func (a cFamilyAdapter) Returns(fnNode *sitter.Node, src []byte) []textAtLine {
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

func (a cFamilyAdapter) IfStatements(fnNode *sitter.Node) []ifSpec {
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

func (a cFamilyAdapter) LoopStatements(fnNode *sitter.Node) []loopSpec {
	var out []loopSpec
	for _, loop := range childrenOfTypes(fnNode, "for_statement", "while_statement", "do_statement") {
		out = append(out, loopSpec{StartLine: line1(loop), EndLine: endLine1(loop)})
	}
	return out
}
