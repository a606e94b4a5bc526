// Package scheduler implements the level-synchronized concurrent executor:
// bounded concurrency via a counting semaphore, cascading skip-on-failure,
// per-segment timeout/retry, and lifecycle hooks. The goroutine/channel
// fan-out shape is grounded on orc's Runner.runParallel, generalized from a
// fixed pair of phases to an arbitrary level of segments.
package scheduler

import (
	"context"
	"time"

	"github.com/jorge-barreto/kite/internal/execctx"
	"github.com/jorge-barreto/kite/internal/graph"
	"github.com/jorge-barreto/kite/internal/kerr"
	"github.com/jorge-barreto/kite/internal/metrics"
	"github.com/jorge-barreto/kite/internal/model"
	"github.com/jorge-barreto/kite/internal/schedlog"
)

// Scheduler executes a materialized, leveled segment set against an
// ExecutionContext.
type Scheduler struct {
	Context        *execctx.Context
	MaxConcurrency int // 0 means runtime.NumCPU()
	Log            schedlog.Logger
	LogDir         string // directory for per-segment log files; "" disables file logging
}

// Run executes every level of leveled in order, returning the aggregated
// RunResult. ctx cancellation marks not-yet-started segments Skipped with
// kind Cancelled and in-flight segments Failure with kind Cancelled.
func (s *Scheduler) Run(ctx context.Context, rideName string, leveled graph.Leveled, segments []model.Segment) model.RunResult {
	byName := make(map[string]model.Segment, len(segments))
	for _, seg := range segments {
		byName[seg.Name] = seg
	}

	result := model.RunResult{RunID: newRunID(), RideName: rideName, StartedAt: time.Now()}
	status := make(map[string]model.SegmentResult, len(segments))

	maxConc := s.MaxConcurrency
	if maxConc <= 0 {
		maxConc = defaultConcurrency()
	}
	sem := make(chan struct{}, maxConc)

	for levelIdx, level := range leveled.Levels {
		eligible, skipped := s.partitionLevel(level, byName, status)
		schedlog.LevelStart(s.Log, levelIdx, len(leveled.Levels), len(eligible), len(skipped))

		for _, skip := range skipped {
			status[skip.Name] = skip
			result.Segments = append(result.Segments, skip)
		}

		if ctx.Err() != nil {
			for _, name := range eligible {
				sr := model.SegmentResult{
					Name:      name,
					Status:    model.StatusSkipped,
					Err:       kerr.New(kerr.Cancelled, "run cancelled before segment started"),
					StartedAt: time.Now(),
				}
				sr.FinishedAt = sr.StartedAt
				status[name] = sr
				result.Segments = append(result.Segments, sr)
			}
			continue
		}

		levelResults := s.runLevel(ctx, eligible, byName, sem)
		for _, sr := range levelResults {
			status[sr.Name] = sr
			result.Segments = append(result.Segments, sr)
		}
	}

	// Report results in materialized-list order, not level completion order.
	ordered := make([]model.SegmentResult, 0, len(result.Segments))
	for _, seg := range segments {
		sr, ok := status[seg.Name]
		if !ok {
			continue
		}
		if sr.Status == model.StatusSkipped {
			metrics.SegmentsSkipped.WithLabelValues(sr.Name).Inc()
		}
		ordered = append(ordered, sr)
	}
	result.Segments = ordered

	result.FinishedAt = time.Now()
	return result
}

// partitionLevel splits a level into segments eligible to run (every
// predecessor succeeded or was skipped-as-non-failure) and segments that
// must cascade-skip (at least one predecessor failed, timed out, or was
// itself cascade-skipped).
func (s *Scheduler) partitionLevel(level graph.Level, byName map[string]model.Segment, status map[string]model.SegmentResult) (eligible []string, skipped []model.SegmentResult) {
	for _, name := range level {
		seg := byName[name]
		var blockedBy string
		for _, dep := range seg.DependsOn {
			prior, ok := status[dep]
			if !ok {
				continue
			}
			if prior.Status.IsFailure() || (prior.Status == model.StatusSkipped && isCascade(prior)) {
				blockedBy = dep
				break
			}
		}
		if blockedBy != "" {
			schedlog.CascadeSkip(s.Log, name, blockedBy)
			now := time.Now()
			skipped = append(skipped, model.SegmentResult{
				Name:       name,
				Status:     model.StatusSkipped,
				Err:        kerr.New(kerr.Cancelled, "predecessor %q did not succeed", blockedBy),
				StartedAt:  now,
				FinishedAt: now,
			})
			continue
		}
		eligible = append(eligible, name)
	}
	return eligible, skipped
}

// isCascade reports whether a skipped result was itself a cascade skip
// (carries an error), as opposed to a condition-false skip (no error),
// since only the former should continue propagating.
func isCascade(sr model.SegmentResult) bool {
	return sr.Err != nil
}

// runLevel submits every eligible segment to the worker pool and blocks
// until all have completed, returning their results in completion order.
func (s *Scheduler) runLevel(ctx context.Context, eligible []string, byName map[string]model.Segment, sem chan struct{}) []model.SegmentResult {
	if len(eligible) == 0 {
		return nil
	}

	out := make(chan model.SegmentResult, len(eligible))
	for _, name := range eligible {
		seg := byName[name]
		go func(seg model.Segment) {
			sem <- struct{}{}
			defer func() { <-sem }()
			out <- s.runSegment(ctx, seg)
		}(seg)
	}

	results := make([]model.SegmentResult, 0, len(eligible))
	for range eligible {
		results = append(results, <-out)
	}
	return results
}

func defaultConcurrency() int {
	n := numCPU()
	if n < 1 {
		return 1
	}
	return n
}
