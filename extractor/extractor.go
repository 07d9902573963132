// Package extractor implements the source/sink extractors (component C):
// one small set of AST-pattern matchers per (language, bug kind) pair, over
// the tree-sitter subtrees tsanalyzer hands out.
package extractor

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/dfbscan/dfbscan/model"
	"github.com/dfbscan/dfbscan/tsanalyzer"
)

// BugType is the closed set of bug kinds DFBScan hunts for.
type BugType string

const (
	NPD BugType = "NPD" // null-pointer dereference — reachability-style
	MLK BugType = "MLK" // memory leak — unreachability-style
	UAF BugType = "UAF" // use-after-free — reachability-style
)

// Extractor is the capability set: extract_sources(func),
// extract_sinks(func).
type Extractor interface {
	ExtractSources(fn *model.Function, src []byte) []model.Value
	ExtractSinks(fn *model.Function, src []byte) []model.Value
}

// ExcludeFile reports whether a file path must be skipped at extraction
// time because its path contains "test" or "example".
func ExcludeFile(path string) bool {
	lower := strings.ToLower(path)
	return strings.Contains(lower, "test") || strings.Contains(lower, "example")
}

// CollectSeeds queries the analyzer to produce the seed value list: every
// ExtractSources result across every function in the analyzer, skipping
// files ExcludeFile rejects.
func CollectSeeds(a *tsanalyzer.Analyzer, ex Extractor) []model.Value {
	var seeds []model.Value
	for _, fn := range a.Functions() {
		if ExcludeFile(fn.FilePath) {
			continue
		}
		seeds = append(seeds, ex.ExtractSources(fn, a.Source(fn.FilePath))...)
	}
	return seeds
}

// ForLanguageAndBugType resolves the concrete extractor for a (language,
// bug kind) pair. Not every pair is defined — per the normative examples,
// MLK and UAF are C/C++-only.
func ForLanguageAndBugType(lang tsanalyzer.Language, bugType BugType) (Extractor, error) {
	switch lang {
	case tsanalyzer.LanguageC, tsanalyzer.LanguageCPP:
		switch bugType {
		case NPD:
			return cFamilyNPD{}, nil
		case MLK:
			return cFamilyMLK{}, nil
		case UAF:
			return cFamilyUAF{}, nil
		}
	case tsanalyzer.LanguageJava:
		if bugType == NPD {
			return javaNPD{}, nil
		}
	case tsanalyzer.LanguagePython:
		if bugType == NPD {
			return pythonNPD{}, nil
		}
	case tsanalyzer.LanguageGo:
		if bugType == NPD {
			return goNPD{}, nil
		}
	}
	return nil, fmt.Errorf("extractor: no %s extractor for language %q", bugType, lang)
}

// walk collects every descendant of root (root included) whose Type() is in
// types, in pre-order.
func walk(root *sitter.Node, types ...string) []*sitter.Node {
	want := make(map[string]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	var out []*sitter.Node
	if root == nil {
		return out
	}
	var visit func(*sitter.Node)
	visit = func(n *sitter.Node) {
		if want[n.Type()] {
			out = append(out, n)
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			visit(n.NamedChild(i))
		}
	}
	visit(root)
	return out
}

func line1(n *sitter.Node) int { return int(n.StartPoint().Row) + 1 }

// absLine returns n's absolute file line. Source/sink Values are keyed by
// absolute line throughout the system (so a bare Value can be resolved back
// to its enclosing function via Analyzer.FunctionFor); fn is unused here but
// kept in the signature for symmetry with the rest of this package's
// extraction helpers, all of which operate in terms of a specific function.
func absLine(fn *model.Function, n *sitter.Node) int {
	return line1(n)
}

func containsIdent(n *sitter.Node, src []byte, name string) bool {
	if n == nil {
		return false
	}
	if n.Content(src) == name {
		return true
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if containsIdent(n.NamedChild(i), src, name) {
			return true
		}
	}
	return false
}

func calleeName(call *sitter.Node, src []byte) string {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	text := fn.Content(src)
	if idx := strings.LastIndexAny(text, ".>"); idx >= 0 {
		text = text[idx+1:]
	}
	return strings.TrimSpace(text)
}

func inSet(name string, set map[string]bool) bool { return set[name] }
