// Package ux renders timestamped, ANSI-colored console output for a ride in
// progress. It generalizes orc's ux package (phase headers, completion,
// skip, and loop-back lines) from a fixed phase list to an arbitrary level
// of concurrently-running segments.
package ux

import (
	"fmt"
	"strings"
	"time"

	"github.com/jorge-barreto/kite/internal/graph"
	"github.com/jorge-barreto/kite/internal/model"
)

const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Dim    = "\033[2m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
)

func timestamp() string {
	return time.Now().Format("15:04:05")
}

// LevelHeader prints a timestamped header for the level about to run.
func LevelHeader(index, total int, level graph.Level) {
	fmt.Printf("\n%s[%s]%s %s══════════════════════════════════════%s\n",
		Dim, timestamp(), Reset, Cyan, Reset)
	fmt.Printf("%s[%s]%s  %sLevel %d/%d: %s%s\n",
		Dim, timestamp(), Reset, Bold, index+1, total, strings.Join(level, ", "), Reset)
	fmt.Printf("%s[%s]%s %s══════════════════════════════════════%s\n",
		Dim, timestamp(), Reset, Cyan, Reset)
}

// SegmentComplete prints a segment completion line.
func SegmentComplete(name string, duration time.Duration) {
	m := int(duration.Minutes())
	s := int(duration.Seconds()) % 60
	fmt.Printf("%s[%s]%s  %s✓ %s complete (%dm %02ds)%s\n",
		Dim, timestamp(), Reset, Green, name, m, s, Reset)
}

// SegmentFail prints a segment failure line.
func SegmentFail(name, errMsg string) {
	fmt.Printf("%s[%s]%s  %s✗ %s failed: %s%s\n",
		Dim, timestamp(), Reset, Red, name, errMsg, Reset)
}

// SegmentSkip prints a condition-false skip line.
func SegmentSkip(name string) {
	fmt.Printf("%s[%s]%s  %s– %s skipped (condition not met)%s\n",
		Dim, timestamp(), Reset, Dim, name, Reset)
}

// CascadeSkip prints a cascade-skip line naming the predecessor that caused
// it, generalizing orc's LoopBack line (which named an on-fail retry
// target instead of a blocking dependency).
func CascadeSkip(name, blockedBy string) {
	fmt.Printf("%s[%s]%s  %s↺ %s skipped — predecessor %q did not succeed%s\n",
		Dim, timestamp(), Reset, Yellow, name, blockedBy, Reset)
}

// RetryHint prints a resume command hint for a failed ride, naming the
// first segment that did not succeed so the rerun can pick up from there
// with --from, reusing artifacts already committed by this run.
func RetryHint(rideName, firstFailedSegment string) {
	if firstFailedSegment == "" {
		return
	}
	fmt.Printf("\n%sResume:%s kite run %s --from %s\n", Yellow, Reset, rideName, firstFailedSegment)
}

// RunComplete prints a final success summary.
func RunComplete(rideName string, total int) {
	fmt.Printf("\n%s[%s]%s  %s%s══ ride %q: all %d segment(s) complete ══%s\n\n",
		Dim, timestamp(), Reset, Bold, Green, rideName, total, Reset)
}

// RunFailed prints a final failure summary.
func RunFailed(rideName string) {
	fmt.Printf("\n%s[%s]%s  %s%s══ ride %q failed ══%s\n\n",
		Dim, timestamp(), Reset, Bold, Red, rideName, Reset)
}

// PrintSegmentResult dispatches to the matching line for one result.
func PrintSegmentResult(sr model.SegmentResult) {
	switch sr.Status {
	case model.StatusSuccess:
		SegmentComplete(sr.Name, sr.Duration())
	case model.StatusSkipped:
		if sr.Err != nil {
			CascadeSkip(sr.Name, "")
		} else {
			SegmentSkip(sr.Name)
		}
	default:
		msg := ""
		if sr.Err != nil {
			msg = sr.Err.Error()
		}
		SegmentFail(sr.Name, msg)
	}
}
