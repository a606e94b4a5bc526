// Package graph builds and validates the dependency DAG from a set of
// available segments and a ride's flow tree, and computes a topological
// leveling for the scheduler to execute.
package graph

import (
	"github.com/jorge-barreto/kite/internal/model"
)

// Materialized is the result of flattening a ride's FlowNode tree into an
// ordered, deduplicated list of effective segments, plus any non-fatal
// warnings recorded along the way (e.g. a first-wins duplicate).
type Materialized struct {
	Segments []model.Segment // materialized-list order, first-wins on duplicate names
	Warnings []string
}

// entryExit tracks, for a flattened subtree, the leaves with no
// intra-subtree predecessor (Entry) and no intra-subtree successor (Exit).
// Both are segment names, in materialized order.
type entryExit struct {
	Entry []string
	Exit  []string
}

// Materialize flattens ride.Flow depth-first, applies overrides from Ref
// nodes against the available segment set, derives structural dependencies
// from Sequential/Parallel shape, and returns the effective segment list in
// first-occurrence order.
func Materialize(available map[string]model.Segment, ride model.Ride) Materialized {
	m := &materializer{
		available: available,
		byName:    make(map[string]int),
	}
	m.walk(ride.Flow)
	return Materialized{Segments: m.segments, Warnings: m.warnings}
}

type materializer struct {
	available map[string]model.Segment
	segments  []model.Segment
	byName    map[string]int // name -> index into segments
	warnings  []string
}

// walk flattens node and returns its entry/exit leaf sets for structural
// dependency derivation by the caller's Sequential handling.
func (m *materializer) walk(node model.FlowNode) entryExit {
	switch node.Kind {
	case model.FlowRef:
		return m.walkRef(node)
	case model.FlowSequential:
		return m.walkSequential(node)
	case model.FlowParallel:
		return m.walkParallel(node)
	default:
		return entryExit{}
	}
}

func (m *materializer) walkRef(node model.FlowNode) entryExit {
	name := node.SegmentName
	src, ok := m.available[name]
	if !ok {
		// Unknown segment: recorded by validation, not here. Still emit a
		// placeholder leaf so structural edges have something to attach to.
		return entryExit{Entry: []string{name}, Exit: []string{name}}
	}

	eff := model.ApplyOverrides(src, node.Overrides)

	if _, dup := m.byName[name]; dup {
		m.warnings = append(m.warnings, "duplicate reference to segment "+name+": first occurrence wins")
		return entryExit{Entry: []string{name}, Exit: []string{name}}
	}

	m.byName[name] = len(m.segments)
	m.segments = append(m.segments, eff)
	return entryExit{Entry: []string{name}, Exit: []string{name}}
}

func (m *materializer) walkSequential(node model.FlowNode) entryExit {
	if len(node.Children) == 0 {
		return entryExit{}
	}
	var prevExit []string
	var first, last entryExit
	for i, child := range node.Children {
		ee := m.walk(child)
		if i == 0 {
			first = ee
		}
		if i > 0 {
			m.addStructuralEdges(prevExit, ee.Entry)
		}
		prevExit = ee.Exit
		last = ee
	}
	return entryExit{Entry: first.Entry, Exit: last.Exit}
}

func (m *materializer) walkParallel(node model.FlowNode) entryExit {
	var entry, exit []string
	for _, child := range node.Children {
		ee := m.walk(child)
		entry = append(entry, ee.Entry...)
		exit = append(exit, ee.Exit...)
	}
	return entryExit{Entry: entry, Exit: exit}
}

// addStructuralEdges adds a dependsOn edge from every name in to-names onto
// every name in from-names (exit(i) -> entry(i+1)), by appending to the
// already-materialized segment's DependsOn if not already present.
func (m *materializer) addStructuralEdges(fromExit, toEntry []string) {
	for _, to := range toEntry {
		idx, ok := m.byName[to]
		if !ok {
			continue
		}
		seg := &m.segments[idx]
		for _, from := range fromExit {
			if !containsString(seg.DependsOn, from) {
				seg.DependsOn = append(seg.DependsOn, from)
			}
		}
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
