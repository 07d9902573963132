package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dfbscan/dfbscan/model"
)

// DefaultIntraDataFlowPrompt renders the function under analysis, the start
// value, and the visible sinks/calls/returns into a single prompt, the same
// fields the reference prompt template fills (FUNC_CODE, SRC_NAME, SINKS_STR,
// LOCAL_VARS, ASSIGNMENTS).
func DefaultIntraDataFlowPrompt(in IntraDataFlowAnalyzerInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Function:\n%s\n\n", in.Function.LinedCode())
	startLine := in.Function.FileLineToFunctionLine(in.StartValue.LineNumber)
	fmt.Fprintf(&b, "Start value: %s at line %d\n\n", in.StartValue.Name, startLine)

	b.WriteString("Sinks:\n")
	for _, s := range in.SinkValues {
		fmt.Fprintf(&b, "  %d: %s\n", s.Line, s.Text)
	}
	b.WriteString("\nCall statements:\n")
	for _, c := range in.CallStatements {
		fmt.Fprintf(&b, "  %d: %s\n", c.Line, c.Text)
	}
	b.WriteString("\nReturn statements:\n")
	for _, r := range in.ReturnValues {
		fmt.Fprintf(&b, "  %d: %s\n", r.Line, r.Text)
	}
	b.WriteString("\nList every execution path along which the start value propagates, one per line, as \"Path: name1:line1 -> name2:line2 -> ...\".\n")
	return b.String()
}

// DefaultIntraDataFlowParse splits the response on "Path:" lines and each
// path on "->", mirroring IntraDataFlowAnalyzer._parse_response. A token is
// parsed as "name:line", where line is relative to the function body (the
// same numbering DefaultIntraDataFlowPrompt renders); the output
// contract carries absolute file line numbers, so every parsed line is
// converted via Function.FunctionLineToFileLine before being wrapped in a
// Value.
//
// The raw response carries no label or positional index of its own, so both
// are inferred from context: a line matching a listed sink is SINK; a name
// matching one of the function's own parameters is PARA; a line matching a
// call statement is ARG, with its index derived from the argument's position
// in that call's text; a line matching a return statement is RET (RET needs
// no index — it resolves to the call's OUT value directly, not a positional
// match). Anything else is LOCAL and carries no further propagation.
func DefaultIntraDataFlowParse(raw string, in IntraDataFlowAnalyzerInput) (IntraDataFlowAnalyzerOutput, error) {
	sinkLines := make(map[int]bool, len(in.SinkValues))
	for _, s := range in.SinkValues {
		sinkLines[s.Line] = true
	}
	retLines := make(map[int]bool, len(in.ReturnValues))
	for _, r := range in.ReturnValues {
		retLines[r.Line] = true
	}
	paramIndex := make(map[string]int, len(in.Function.Parameters()))
	for _, p := range in.Function.Parameters() {
		paramIndex[p.Name] = p.Index
	}

	var paths [][]model.Value
	for _, line := range strings.Split(raw, "\n") {
		idx := strings.Index(line, "Path:")
		if idx < 0 {
			continue
		}
		body := line[idx+len("Path:"):]
		var path []model.Value
		for _, hop := range strings.Split(body, "->") {
			hop = strings.TrimSpace(hop)
			if hop == "" {
				continue
			}
			name, relLine := splitNameLine(hop)
			absLine := in.Function.FunctionLineToFileLine(relLine)
			path = append(path, classify(name, relLine, absLine, in, sinkLines, retLines, paramIndex))
		}
		if len(path) > 0 {
			paths = append(paths, path)
		}
	}
	return IntraDataFlowAnalyzerOutput{ReachableValues: paths}, nil
}

func classify(name string, relLine, absLine int, in IntraDataFlowAnalyzerInput, sinkLines, retLines map[int]bool, paramIndex map[string]int) model.Value {
	if sinkLines[relLine] {
		return model.NewValue(name, absLine, model.SINK, in.Function.FilePath)
	}
	if index, ok := paramIndex[name]; ok {
		return model.NewIndexedValue(name, absLine, model.PARA, in.Function.FilePath, index)
	}
	for _, stmt := range in.CallStatements {
		if stmt.Line != relLine {
			continue
		}
		if index, ok := argIndexIn(stmt.Text, name); ok {
			return model.NewIndexedValue(name, absLine, model.ARG, in.Function.FilePath, index)
		}
	}
	if retLines[relLine] {
		return model.NewValue(name, absLine, model.RET, in.Function.FilePath)
	}
	return model.NewValue(name, absLine, model.LOCAL, in.Function.FilePath)
}

// argIndexIn returns the 0-based position of the argument in callText (the
// full "callee(a, b, c)" text) whose own text contains name, splitting only
// on top-level commas so a nested call's arguments are not mistaken for the
// outer call's.
func argIndexIn(callText, name string) (int, bool) {
	open := strings.Index(callText, "(")
	closeIdx := strings.LastIndex(callText, ")")
	if open < 0 || closeIdx <= open {
		return 0, false
	}
	depth := 0
	start := open + 1
	idx := 0
	for i := open + 1; i <= closeIdx; i++ {
		var ch byte
		if i < closeIdx {
			ch = callText[i]
		}
		switch ch {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				if strings.Contains(callText[start:i], name) {
					return idx, true
				}
				idx++
				start = i + 1
			}
		}
		if i == closeIdx {
			if strings.Contains(callText[start:i], name) {
				return idx, true
			}
		}
	}
	return 0, false
}

func splitNameLine(tok string) (string, int) {
	at := strings.LastIndex(tok, ":")
	if at < 0 {
		return tok, 0
	}
	name := tok[:at]
	var lineNum int
	fmt.Sscanf(tok[at+1:], "%d", &lineNum)
	return name, lineNum
}

// DefaultPathValidatorPrompt joins the candidate path as "name:line" hops
// plus the source of every function the path passes through, mirroring
// PathValidator._get_prompt.
func DefaultPathValidatorPrompt(in PathValidatorInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Bug type: %s\n\nPath:\n", in.BugType)
	for _, v := range in.Values {
		fmt.Fprintf(&b, "  %s:%d\n", v.Name, v.LineNumber)
	}

	seen := make(map[string]bool)
	b.WriteString("\nFunctions:\n")
	for _, v := range in.Values {
		fn, ok := in.ValuesToFunctions[v.String()]
		if !ok || fn == nil {
			continue
		}
		key := fn.KeyOf()
		dedupKey := fmt.Sprintf("%s:%s:%d:%d", key.File, key.Name, key.Start, key.End)
		if seen[dedupKey] {
			continue
		}
		seen[dedupKey] = true
		fmt.Fprintf(&b, "\n// %s (%s)\n%s\n", fn.Name, fn.FilePath, fn.Code)
	}
	b.WriteString("\nIs this path feasibly reachable end-to-end? Respond as JSON: {\"is_reachable\": true|false, \"explanation\": \"...\"}\n")
	return b.String()
}

// DefaultPathValidatorParse decodes the {"is_reachable":...,"explanation":...}
// JSON response, falling back to a substring-"yes" heuristic for a
// non-JSON response, mirroring PathValidator._parse_response.
func DefaultPathValidatorParse(raw string, _ PathValidatorInput) (PathValidatorOutput, error) {
	var decoded struct {
		IsReachable bool   `json:"is_reachable"`
		Explanation string `json:"explanation"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &decoded); err == nil {
		return PathValidatorOutput{IsReachable: decoded.IsReachable, Explanation: decoded.Explanation}, nil
	}
	lower := strings.ToLower(raw)
	return PathValidatorOutput{
		IsReachable: strings.Contains(lower, "yes"),
		Explanation: strings.TrimSpace(raw),
	}, nil
}
