package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jorge-barreto/kite/internal/execctx"
	"github.com/jorge-barreto/kite/internal/kerr"
	"github.com/jorge-barreto/kite/internal/logsink"
	"github.com/jorge-barreto/kite/internal/metrics"
	"github.com/jorge-barreto/kite/internal/model"
	"github.com/jorge-barreto/kite/internal/schedlog"
)

// hookGrace bounds how long the scheduler waits for any single lifecycle
// hook, whether or not its segment's timeout has elapsed.
const hookGrace = 5 * time.Second

// runSegment executes the full per-segment protocol: condition, input
// verification, the retry loop, output commit, and lifecycle hooks. Each
// segment gets its own logger sub-sink (a file under LogDir) so concurrent
// segments never interleave within one file; the sink is archived (gzipped)
// once the segment reaches a terminal status.
func (s *Scheduler) runSegment(ctx context.Context, seg model.Segment) model.SegmentResult {
	sr := model.SegmentResult{Name: seg.Name, StartedAt: time.Now()}

	sink, logPath, closeSink := s.openSink(seg.Name)
	segCtx := s.Context.WithLogger(sink)
	defer closeSink()

	if seg.Condition != nil && !seg.Condition(segCtx) {
		sr.Status = model.StatusSkipped
		sr.FinishedAt = time.Now()
		s.runHook(ctx, segCtx, seg, seg.OnComplete, nil)
		s.archiveSink(logPath)
		return sr
	}

	if err := s.verifyInputs(seg); err != nil {
		sr.Status = model.StatusFailure
		sr.Err = err
		sr.FinishedAt = time.Now()
		s.runFailureHooks(ctx, segCtx, seg, err)
		metrics.SegmentsFailed.WithLabelValues(seg.Name, string(kerr.MissingInput)).Inc()
		s.archiveSink(logPath)
		return sr
	}

	status, attempts, err := s.attemptLoop(ctx, segCtx, seg)
	sr.Status = status
	sr.Attempts = attempts
	sr.Err = err

	if status == model.StatusSuccess {
		outputs, commitErr := s.commitOutputs(seg)
		if commitErr != nil {
			sr.Status = model.StatusFailure
			sr.Err = commitErr
		} else {
			sr.Outputs = outputs
		}
	}

	sr.FinishedAt = time.Now()
	schedlog.SegmentDone(s.Log, seg.Name, string(sr.Status), sr.Err)

	switch sr.Status {
	case model.StatusSuccess:
		s.runSuccessHooks(ctx, segCtx, seg)
		metrics.SegmentsSucceeded.WithLabelValues(seg.Name).Inc()
	case model.StatusTimedOut:
		s.runFailureHooks(ctx, segCtx, seg, sr.Err)
		metrics.SegmentsTimedOut.WithLabelValues(seg.Name).Inc()
	default:
		s.runFailureHooks(ctx, segCtx, seg, sr.Err)
		if kind, ok := kerr.KindOf(sr.Err); ok {
			metrics.SegmentsFailed.WithLabelValues(seg.Name, string(kind)).Inc()
		} else {
			metrics.SegmentsFailed.WithLabelValues(seg.Name, "unknown").Inc()
		}
	}
	metrics.SegmentDuration.WithLabelValues(seg.Name).Observe(sr.Duration().Seconds())
	s.archiveSink(logPath)

	return sr
}

// openSink opens a per-segment log sink under LogDir, or falls back to the
// scheduler's shared Context.Logger if LogDir is unset (e.g. dry-run/test).
// logPath is "" when no file was opened, in which case archiveSink is a
// no-op.
func (s *Scheduler) openSink(segmentName string) (logsink.Sink, string, func()) {
	if s.LogDir == "" {
		return s.Context.Logger, "", func() {}
	}
	sink, err := logsink.New(segmentName, s.LogDir, s.Context.Secrets, nil, nil)
	if err != nil {
		return s.Context.Logger, "", func() {}
	}
	return sink, sink.LogPath, func() { _ = sink.Close() }
}

func (s *Scheduler) archiveSink(logPath string) {
	if logPath == "" {
		return
	}
	if err := logsink.Archive(logPath); err != nil {
		s.Log.Error(err, "archiving segment log", "path", logPath)
	}
}

// verifyInputs checks that every declared input is present in the
// artifact store.
func (s *Scheduler) verifyInputs(seg model.Segment) error {
	for name := range seg.Inputs {
		if s.Context.Artifacts == nil || !s.Context.Artifacts.Has(name) {
			return kerr.New(kerr.MissingInput, "segment %q requires artifact %q, not present in the store", seg.Name, name)
		}
	}
	return nil
}

// attemptLoop runs up to seg.MaxRetries+1 attempts, racing each against
// seg.Timeout, retrying per ShouldRetry.
func (s *Scheduler) attemptLoop(ctx context.Context, segCtx *execctx.Context, seg model.Segment) (model.Status, int, error) {
	maxAttempts := seg.MaxRetries + 1
	var lastErr error
	var lastStatus model.Status
	attempts := 0

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attempts = attempt
		metrics.SegmentsStarted.WithLabelValues(seg.Name).Inc()
		schedlog.SegmentAttempt(s.Log, seg.Name, attempt, maxAttempts)

		status, err := s.runAttempt(ctx, segCtx, seg)
		lastStatus, lastErr = status, err

		if status == model.StatusSuccess {
			return status, attempt, nil
		}

		kind, _ := kerr.KindOf(err)
		if attempt == maxAttempts || !seg.ShouldRetry(kind) {
			break
		}
		if seg.RetryDelay > 0 {
			select {
			case <-time.After(seg.RetryDelay):
			case <-ctx.Done():
				return model.StatusFailure, attempt, kerr.Wrap(kerr.Cancelled, ctx.Err(), "cancelled during retry delay")
			}
		}
	}
	return lastStatus, attempts, lastErr
}

// runAttempt races seg.Body against seg.Timeout (if set) and ctx.
func (s *Scheduler) runAttempt(ctx context.Context, segCtx *execctx.Context, seg model.Segment) (model.Status, error) {
	attemptCtx := ctx
	var cancel context.CancelFunc
	if seg.TimeoutSet {
		// A zero Timeout yields an already-expired deadline: context.WithTimeout
		// cancels it before this function returns, so the select below takes
		// the attemptCtx.Done() branch at its first suspension point rather
		// than waiting for seg.Body to run to completion.
		attemptCtx, cancel = context.WithTimeout(ctx, seg.Timeout)
		defer cancel()
	}

	if seg.Body == nil {
		return model.StatusSuccess, nil
	}

	done := make(chan error, 1)
	go func() {
		done <- seg.Body(segCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			return model.StatusFailure, kerr.Wrap(kerr.BodyFailure, err, "segment %q body failed", seg.Name)
		}
		return model.StatusSuccess, nil
	case <-attemptCtx.Done():
		if ctx.Err() != nil {
			// The outer run was cancelled; this is not a timeout even if
			// seg.Timeout also happened to elapse.
			return model.StatusFailure, kerr.Wrap(kerr.Cancelled, ctx.Err(), "segment %q cancelled", seg.Name)
		}
		return model.StatusTimedOut, kerr.New(kerr.Timeout, "segment %q exceeded timeout %s", seg.Name, seg.Timeout)
	}
}

// commitOutputs resolves each declared output path against the workspace,
// copies it into the artifact store, and returns the committed names.
func (s *Scheduler) commitOutputs(seg model.Segment) ([]string, error) {
	var names []string
	for name, relPath := range seg.Outputs {
		full := relPath
		if !filepath.IsAbs(relPath) {
			full = filepath.Join(s.Context.Workspace, relPath)
		}
		if _, err := os.Stat(full); err != nil {
			return nil, kerr.Wrap(kerr.MissingOutput, err, "segment %q declared output %q at %q not found", seg.Name, name, relPath)
		}
		if s.Context.Artifacts != nil {
			if err := s.Context.Artifacts.Put(name, full); err != nil {
				return nil, fmt.Errorf("committing artifact %q: %w", name, err)
			}
		}
		names = append(names, name)
	}
	return names, nil
}
