// Package schedlog wraps go-logr/logr for the scheduler's internal
// structured diagnostics (level starts, segment attempts and outcomes,
// cascade skips). orc has no structured logger anywhere in its tree — every
// message is a fmt.Printf line meant for a human terminal — but a
// multi-goroutine scheduler benefits from key/value attribution (which
// segment, which level, which attempt) that a plain string doesn't carry,
// so this is adopted fresh from the rest of the pack rather than
// generalized from an orc type.
package schedlog

import "github.com/go-logr/logr"

// Logger is a thin alias so callers don't import logr directly.
type Logger = logr.Logger

// Discard returns a Logger that drops everything, for tests and
// callers that don't want scheduler diagnostics.
func Discard() Logger {
	return logr.Discard()
}

// LevelStart logs the start of a scheduling level.
func LevelStart(l Logger, levelIndex, total, eligible, skipped int) {
	l.V(1).Info("level start", "level", levelIndex, "totalLevels", total, "eligible", eligible, "skipped", skipped)
}

// SegmentAttempt logs the start of one execution attempt.
func SegmentAttempt(l Logger, name string, attempt, maxAttempts int) {
	l.V(1).Info("segment attempt", "segment", name, "attempt", attempt, "maxAttempts", maxAttempts)
}

// SegmentDone logs the terminal status of one segment.
func SegmentDone(l Logger, name string, status string, err error) {
	if err != nil {
		l.Error(err, "segment done", "segment", name, "status", status)
		return
	}
	l.V(1).Info("segment done", "segment", name, "status", status)
}

// CascadeSkip logs a dependent being skipped due to an upstream failure.
func CascadeSkip(l Logger, name, failedDependency string) {
	l.Info("cascade skip", "segment", name, "failedDependency", failedDependency)
}
