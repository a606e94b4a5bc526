package main

import (
	"fmt"
	"strings"

	"github.com/jorge-barreto/kite/internal/graph"
	"github.com/jorge-barreto/kite/internal/model"
	"github.com/jorge-barreto/kite/internal/ux"
)

func formatValidationErrors(verrs []graph.ValidationError) string {
	lines := make([]string, 0, len(verrs))
	for _, v := range verrs {
		lines = append(lines, "  - "+v.Error())
	}
	return strings.Join(lines, "\n")
}

// printDryRun renders the execution plan: one line per level, plus the
// critical path, without running anything. Grounded on orc's
// Runner.DryRunPrint.
func printDryRun(ride model.Ride, leveled graph.Leveled) {
	fmt.Printf("ride %q: %d level(s)\n", ride.Name, len(leveled.Levels))
	for i, level := range leveled.Levels {
		fmt.Printf("  level %d: %s\n", i+1, strings.Join(level, ", "))
	}
	if cp := leveled.CriticalPath(); len(cp) > 0 {
		fmt.Printf("critical path (%d segments): %s\n", len(cp), strings.Join(cp, " -> "))
	}
}

func printRunResult(result model.RunResult) {
	fmt.Printf("ride %q (run %s) finished in %s\n", result.RideName, result.RunID, result.FinishedAt.Sub(result.StartedAt))
	for _, sr := range result.Segments {
		ux.PrintSegmentResult(sr)
	}
	if result.Success() {
		ux.RunComplete(result.RideName, len(result.Segments))
	} else {
		ux.RunFailed(result.RideName)
		ux.RetryHint(result.RideName, firstFailedSegment(result))
	}
}

// firstFailedSegment returns the name of the first segment in materialized
// order whose status counts as a failure, for the --from resume hint.
func firstFailedSegment(result model.RunResult) string {
	for _, sr := range result.Segments {
		if sr.Status.IsFailure() {
			return sr.Name
		}
	}
	return ""
}
