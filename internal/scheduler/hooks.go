package scheduler

import (
	"context"
	"time"

	"github.com/jorge-barreto/kite/internal/execctx"
	"github.com/jorge-barreto/kite/internal/kerr"
	"github.com/jorge-barreto/kite/internal/model"
)

// runSuccessHooks runs onSuccess then onComplete(success=true). A hook
// error is logged but never changes the segment's recorded status.
func (s *Scheduler) runSuccessHooks(ctx context.Context, segCtx *execctx.Context, seg model.Segment) {
	s.runHook(ctx, segCtx, seg, seg.OnSuccess, nil)
	s.runHook(ctx, segCtx, seg, seg.OnComplete, nil)
}

// runFailureHooks runs onFailure(err) then onComplete(success=false).
func (s *Scheduler) runFailureHooks(ctx context.Context, segCtx *execctx.Context, seg model.Segment, segErr error) {
	s.runHook(ctx, segCtx, seg, seg.OnFailure, segErr)
	s.runHook(ctx, segCtx, seg, seg.OnComplete, segErr)
}

// runHook invokes hook and waits for it at most hookGrace. While ctx is
// live, its cancellation also ends the wait; once ctx is done, a fresh
// hookGrace timeout stands in for it. The segment's own timeout is not
// applied to hooks. Any error, panic or overrun is logged and swallowed.
func (s *Scheduler) runHook(ctx context.Context, segCtx *execctx.Context, seg model.Segment, hook model.Hook, hookErr error) {
	if hook == nil {
		return
	}

	hookCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		hookCtx, cancel = context.WithTimeout(context.Background(), hookGrace)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- kerr.New(kerr.HookFailure, "hook panicked: %v", r)
			}
		}()
		done <- hook(segCtx, hookErr)
	}()

	select {
	case err := <-done:
		if err != nil {
			s.logHookFailure(seg, err)
		}
	case <-hookCtx.Done():
		s.logHookFailure(seg, kerr.Wrap(kerr.HookFailure, hookCtx.Err(), "hook for segment %q exceeded grace period", seg.Name))
	case <-time.After(hookGrace):
		s.logHookFailure(seg, kerr.New(kerr.HookFailure, "hook for segment %q exceeded grace period", seg.Name))
	}
}

func (s *Scheduler) logHookFailure(seg model.Segment, err error) {
	s.Log.Error(err, "lifecycle hook failed", "segment", seg.Name)
}

// RunRideHooks runs the ride-level onSuccess/onFailure/onComplete hooks
// after the final level finishes, using the same logged-not-fatal
// discipline as segment hooks.
func (s *Scheduler) RunRideHooks(ctx context.Context, ride model.Ride, result model.RunResult) {
	placeholder := model.Segment{Name: ride.Name}
	if result.Success() {
		s.runHook(ctx, s.Context, placeholder, ride.OnSuccess, nil)
		s.runHook(ctx, s.Context, placeholder, ride.OnComplete, nil)
		return
	}
	var rideErr error = kerr.New(kerr.BodyFailure, "ride %q completed with failures", ride.Name)
	s.runHook(ctx, s.Context, placeholder, ride.OnFailure, rideErr)
	s.runHook(ctx, s.Context, placeholder, ride.OnComplete, rideErr)
}
