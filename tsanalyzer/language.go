package tsanalyzer

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	tscpp "github.com/smacker/go-tree-sitter/cpp"
	tsgolang "github.com/smacker/go-tree-sitter/golang"
	tsjava "github.com/smacker/go-tree-sitter/java"
	tspython "github.com/smacker/go-tree-sitter/python"
)

// Language is the closed set of variants the analyzer dispatches over
// (variant types with a common capability set, not inheritance).
type Language string

const (
	LanguageC      Language = "c"
	LanguageCPP    Language = "cpp"
	LanguageJava   Language = "java"
	LanguagePython Language = "python"
	LanguageGo     Language = "go"
)

// adapter is the capability set required of every language variant:
// extract_functions, extract_globals, resolve_callee_name,
// list_callsites_by_name (via CallNodes + ResolveCalleeName + Arguments),
// list_arguments_at, list_parameters, list_returns, list_if_statements,
// list_loop_statements.
type adapter interface {
	// Grammar returns the tree-sitter grammar for this variant.
	Grammar() *sitter.Language

	// ExtractFunctions walks the parsed tree and returns one funcSpec per
	// user-defined function/method declaration.
	ExtractFunctions(tree *sitter.Node, src []byte) []funcSpec

	// ExtractGlobals returns the name and declaration line of every
	// top-level/global variable declaration.
	ExtractGlobals(tree *sitter.Node, src []byte) []globalSpec

	// CallNodes returns every call-like node inside a function's subtree
	// (call_expression / method_invocation / call, per language).
	CallNodes(fnRoot *sitter.Node) []*sitter.Node

	// ResolveCalleeName extracts the textual callee name from a call node,
	// per the language's member-access convention (last segment after `.`
	// or `->`, or the rightmost field of a Go selector).
	ResolveCalleeName(call *sitter.Node, src []byte) string

	// Arguments returns the argument-list node's ordered argument nodes.
	Arguments(call *sitter.Node) []*sitter.Node

	// Parameters returns the ordered (name, line) pairs for a function's
	// declared parameters.
	Parameters(fnNode *sitter.Node, src []byte) []paramSpec

	// Returns finds every return statement in the function and reports its
	// returned-expression text and line.
	Returns(fnNode *sitter.Node, src []byte) []textAtLine

	// IfStatements and LoopStatements extract branch/loop ranges for
	// control-order queries.
	IfStatements(fnNode *sitter.Node) []ifSpec
	LoopStatements(fnNode *sitter.Node) []loopSpec
}

type funcSpec struct {
	Name      string
	Node      *sitter.Node
	StartLine int
	EndLine   int
}

type globalSpec struct {
	Name string
	Line int
}

type paramSpec struct {
	Name string
	Line int
}

type textAtLine struct {
	Text string
	Line int
}

type ifSpec struct {
	StartLine      int
	EndLine        int
	ConsequentEnd  int
	AlternateStart int
}

type loopSpec struct {
	StartLine int
	EndLine   int
}

func adapterFor(lang Language) (adapter, error) {
	switch lang {
	case LanguageC:
		return cFamilyAdapter{grammar: tscpp.GetLanguage(), memberOps: []string{"->", "."}}, nil
	case LanguageCPP:
		return cFamilyAdapter{grammar: tscpp.GetLanguage(), memberOps: []string{"->", "."}}, nil
	case LanguageJava:
		return javaAdapter{}, nil
	case LanguagePython:
		return pythonAdapter{}, nil
	case LanguageGo:
		return goAdapter{}, nil
	default:
		// Unknown language is fatal at construction.
		return nil, fmt.Errorf("tsanalyzer: unsupported language %q", lang)
	}
}

// grammarFor returns the raw tree-sitter grammar for lang without building an
// adapter. It is unexported and has no callers.
func grammarFor(lang Language) (*sitter.Language, error) {
	switch lang {
	case LanguageC, LanguageCPP:
		return tscpp.GetLanguage(), nil
	case LanguageJava:
		return tsjava.GetLanguage(), nil
	case LanguagePython:
		return tspython.GetLanguage(), nil
	case LanguageGo:
		return tsgolang.GetLanguage(), nil
	default:
		return nil, fmt.Errorf("tsanalyzer: unsupported language %q", lang)
	}
}

func childrenOfType(n *sitter.Node, nodeType string) []*sitter.Node {
	var out []*sitter.Node
	if n == nil {
		return out
	}
	var walk func(*sitter.Node)
	walk = func(cur *sitter.Node) {
		if cur.Type() == nodeType {
			out = append(out, cur)
		}
		for i := 0; i < int(cur.NamedChildCount()); i++ {
			walk(cur.NamedChild(i))
		}
	}
	walk(n)
	return out
}

func childrenOfTypes(n *sitter.Node, nodeTypes ...string) []*sitter.Node {
	set := make(map[string]bool, len(nodeTypes))
	for _, t := range nodeTypes {
		set[t] = true
	}
	var out []*sitter.Node
	if n == nil {
		return out
	}
	var walk func(*sitter.Node)
	walk = func(cur *sitter.Node) {
		if set[cur.Type()] {
			out = append(out, cur)
		}
		for i := 0; i < int(cur.NamedChildCount()); i++ {
			walk(cur.NamedChild(i))
		}
	}
	walk(n)
	return out
}

func line1(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

func endLine1(n *sitter.Node) int {
	return int(n.EndPoint().Row) + 1
}
