package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dfbscan/dfbscan/state"
)

// detectInfoRecord is the exact persisted shape of one bug report in
// detect_info.json: bug_type, buggy_value (stringified), the three
// parallel relevant_functions arrays, explanation, and the human-confirmation
// flag.
type detectInfoRecord struct {
	BugType             string              `json:"bug_type"`
	BuggyValue          string              `json:"buggy_value"`
	RelevantFunctions   relevantFunctions   `json:"relevant_functions"`
	Explanation         string              `json:"explanation"`
	IsHumanConfirmedTrue string             `json:"is_human_confirmed_true"`
}

type relevantFunctions struct {
	Paths []string `json:"paths"`
	Names []string `json:"names"`
	Codes []string `json:"codes"`
}

func toDetectInfoRecord(report state.BugReport) detectInfoRecord {
	rel := relevantFunctions{
		Paths: make([]string, 0, len(report.RelevantFunctions)),
		Names: make([]string, 0, len(report.RelevantFunctions)),
		Codes: make([]string, 0, len(report.RelevantFunctions)),
	}
	for _, fn := range report.RelevantFunctions {
		rel.Paths = append(rel.Paths, fn.FilePath)
		rel.Names = append(rel.Names, fn.Name)
		rel.Codes = append(rel.Codes, fn.LinedCode())
	}
	return detectInfoRecord{
		BugType:              report.BugType,
		BuggyValue:           report.BuggyValue.String(),
		RelevantFunctions:    rel,
		Explanation:          report.Explanation,
		IsHumanConfirmedTrue: report.IsHumanConfirmedTrue,
	}
}

// reportIDs returns the keys of reports in ascending, stable order, so the
// emitted detect_info.json has a deterministic record order across runs.
func reportIDs(reports map[int]state.BugReport) []int {
	ids := make([]int, 0, len(reports))
	for id := range reports {
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}

// WriteDetectInfoJSON persists every recorded bug report to path as a JSON
// array, matching the detect_info.json shape. A prior file at path is replaced
// atomically (write to a temp file in the same directory, then rename) so a
// reader never observes a partially written file — the "last writer wins"
// overwrite semantics.
func WriteDetectInfoJSON(path string, reports map[int]state.BugReport) error {
	ids := reportIDs(reports)
	records := make([]detectInfoRecord, 0, len(ids))
	for _, id := range ids {
		records = append(records, toDetectInfoRecord(reports[id]))
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".detect_info-*.json.tmp")
	if err != nil {
		return fmt.Errorf("output: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		tmp.Close()
		return fmt.Errorf("output: encode detect_info.json: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("output: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("output: replace detect_info.json: %w", err)
	}
	return nil
}

// WriteText renders a human-readable summary of every recorded bug report to
// w: one block per report naming the bug type, the buggy value, and every
// relevant function, in the same ascending report-id order WriteDetectInfoJSON
// uses.
func WriteText(w io.Writer, reports map[int]state.BugReport) error {
	ids := reportIDs(reports)
	if len(ids) == 0 {
		_, err := fmt.Fprintln(w, "No bugs found.")
		return err
	}

	for i, id := range ids {
		r := reports[id]
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "[%d] %s: %s\n", id, r.BugType, r.BuggyValue.String())
		fmt.Fprintf(w, "    %s\n", r.Explanation)
		for _, fn := range r.RelevantFunctions {
			fmt.Fprintf(w, "    at %s:%d %s\n", fn.FilePath, fn.StartLine, fn.Name)
		}
	}
	fmt.Fprintf(w, "\n%d bug(s) found.\n", len(ids))
	return nil
}
