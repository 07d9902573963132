package output

import (
	"encoding/json"
	"fmt"
	"io"

	sarif "github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/dfbscan/dfbscan/state"
)

// WriteSARIF renders every recorded bug report as a SARIF 2.1.0 log, one rule
// per distinct bug type and one result per report, with a code flow through
// every relevant function on the path when a report names two or more of
// them (otherwise a single location) — grounded on the same go-sarif
// builder calls the reference formatter used, adapted from a severity-keyed
// rule set to DFBScan's bug-type-keyed one.
func WriteSARIF(w io.Writer, reports map[int]state.BugReport) error {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return err
	}

	run := sarif.NewRunWithInformationURI("dfbscan", "https://github.com/dfbscan/dfbscan")

	ids := reportIDs(reports)
	seenRules := make(map[string]bool)
	for _, id := range ids {
		r := reports[id]
		if !seenRules[r.BugType] {
			seenRules[r.BugType] = true
			run.AddRule(r.BugType).
				WithDescription(bugTypeDescription(r.BugType)).
				WithName(r.BugType).
				WithDefaultConfiguration(sarif.NewReportingConfiguration().WithLevel("error"))
		}
	}

	for _, id := range ids {
		buildSARIFResult(run, reports[id])
	}

	report.AddRun(run)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func bugTypeDescription(bugType string) string {
	switch bugType {
	case "NPD":
		return "Null-pointer dereference reachable from an untrusted source"
	case "MLK":
		return "Allocated resource with no reachable release on some path"
	case "UAF":
		return "Use of a pointer after its underlying storage has been freed"
	default:
		return bugType
	}
}

func buildSARIFResult(run *sarif.Run, r state.BugReport) {
	message := fmt.Sprintf("%s: %s", r.BugType, r.Explanation)
	result := run.CreateResultForRule(r.BugType).WithMessage(sarif.NewTextMessage(message))

	if len(r.RelevantFunctions) == 0 {
		return
	}
	result.AddLocation(locationFor(r.RelevantFunctions[0].FilePath, r.BuggyValue.LineNumber))

	if len(r.RelevantFunctions) < 2 {
		return
	}
	var locs []*sarif.ThreadFlowLocation
	for _, fn := range r.RelevantFunctions {
		loc := locationFor(fn.FilePath, fn.StartLine).WithMessage(sarif.NewTextMessage(fn.Name))
		locs = append(locs, sarif.NewThreadFlowLocation().WithLocation(loc))
	}
	codeFlow := sarif.NewCodeFlow().WithThreadFlows([]*sarif.ThreadFlow{
		sarif.NewThreadFlow().WithLocations(locs),
	})
	result.WithCodeFlows([]*sarif.CodeFlow{codeFlow})
}

func locationFor(filePath string, line int) *sarif.Location {
	return sarif.NewLocation().WithPhysicalLocation(
		sarif.NewPhysicalLocation().
			WithArtifactLocation(sarif.NewArtifactLocation().WithUri(filePath)).
			WithRegion(sarif.NewRegion().WithStartLine(line)),
	)
}
