package model

import "time"

// FlowKind tags the variant held by a FlowNode.
type FlowKind string

const (
	FlowSequential FlowKind = "sequential"
	FlowParallel   FlowKind = "parallel"
	FlowRef        FlowKind = "ref"
)

// FlowNode is a tagged variant: Sequential and Parallel hold Children,
// Ref holds SegmentName and Overrides. Exactly one shape is populated
// according to Kind.
type FlowNode struct {
	Kind FlowKind

	Children []FlowNode // Sequential, Parallel

	SegmentName string // Ref
	Overrides   SegmentOverrides
}

// Sequential builds a Sequential FlowNode from children, run in order.
func Sequential(children ...FlowNode) FlowNode {
	return FlowNode{Kind: FlowSequential, Children: children}
}

// Parallel builds a Parallel FlowNode from children, with no ordering
// constraint between them.
func Parallel(children ...FlowNode) FlowNode {
	return FlowNode{Kind: FlowParallel, Children: children}
}

// Ref builds a leaf FlowNode referencing a segment by name.
func Ref(segmentName string, overrides SegmentOverrides) FlowNode {
	return FlowNode{Kind: FlowRef, SegmentName: segmentName, Overrides: overrides}
}

// SegmentOverrides carries optional per-reference tweaks applied when a
// Ref is materialized into an effective Segment. A nil *bool Enabled means
// "not overridden"; TimeoutSet distinguishes "replace with zero" from "no
// override" since an explicit zero timeout is meaningful (it fails the
// segment at its first suspension point).
type SegmentOverrides struct {
	ExtraDependsOn []string
	Condition      Condition // replaces the segment's condition if non-nil

	Timeout    time.Duration
	TimeoutSet bool

	Enabled *bool // nil = not overridden; false forces Condition to constant-false
}
