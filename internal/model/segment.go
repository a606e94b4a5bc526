package model

import (
	"time"

	"github.com/jorge-barreto/kite/internal/execctx"
	"github.com/jorge-barreto/kite/internal/kerr"
)

// Condition is a predicate over an ExecutionContext; an absent condition
// means "always run".
type Condition func(*execctx.Context) bool

// Body is the effectful closure a segment runs.
type Body func(*execctx.Context) error

// Hook is a lifecycle closure; err carries the failure for onFailure and
// for onComplete after a failure, and is nil otherwise.
type Hook func(*execctx.Context, error) error

// Segment is an immutable unit of work. Identity is by Name.
type Segment struct {
	Name        string
	Description string

	// DependsOn is ordered; duplicates are ignored by callers that build
	// segments from this type (materialization dedupes on union).
	DependsOn []string

	Condition Condition

	// Timeout is unbounded unless TimeoutSet is true; an explicit zero
	// timeout is distinct from "unbounded" and fails the segment with kind
	// Timeout at its first suspension point.
	Timeout    time.Duration
	TimeoutSet bool
	MaxRetries int // 0 means a single attempt
	RetryDelay time.Duration
	RetryOn    map[kerr.Kind]bool // empty means retry any non-cancellation failure

	Inputs  map[string]bool  // required artifact names
	Outputs map[string]string // artifact name -> workspace-relative path

	Body Body

	OnSuccess  Hook
	OnFailure  Hook
	OnComplete Hook
}

// ShouldRetry reports whether an error of the given kind should trigger a
// retry attempt for this segment, per RetryOn semantics.
func (s *Segment) ShouldRetry(kind kerr.Kind) bool {
	if kind == kerr.Cancelled {
		return false
	}
	if len(s.RetryOn) == 0 {
		return true
	}
	return s.RetryOn[kind]
}

// clone returns a shallow copy of s suitable for override application; the
// closures and maps are shared, not deep-copied, since overrides always
// replace whole fields rather than mutating them in place.
func (s Segment) clone() Segment {
	return s
}
