package graph

import (
	"fmt"
	"strings"

	"github.com/jorge-barreto/kite/internal/kerr"
	"github.com/jorge-barreto/kite/internal/model"
)

// ValidationError is one reported problem; Validate collects every error it
// finds rather than stopping at the first.
type ValidationError struct {
	Kind    kerr.Kind
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Validate checks a ride's flow tree and its materialized segments, and
// returns every problem found. manifestHas reports whether a given artifact
// name is present in a restored manifest (nil treats nothing as present).
func Validate(available map[string]model.Segment, ride model.Ride, mat Materialized, manifestHas func(name string) bool) []ValidationError {
	var errs []ValidationError

	errs = append(errs, validateRefs(available, ride.Flow)...)
	errs = append(errs, validateEmptyParallel(ride.Flow)...)
	errs = append(errs, validateSelfDependency(mat.Segments)...)

	if cyc := findCycle(mat.Segments); cyc != nil {
		errs = append(errs, ValidationError{
			Kind:    kerr.Cycle,
			Message: "cycle detected: " + strings.Join(cyc, " -> "),
		})
	}

	errs = append(errs, validateMissingArtifacts(mat.Segments, manifestHas)...)

	return errs
}

func validateRefs(available map[string]model.Segment, node model.FlowNode) []ValidationError {
	var errs []ValidationError
	switch node.Kind {
	case model.FlowRef:
		if _, ok := available[node.SegmentName]; !ok {
			errs = append(errs, ValidationError{
				Kind:    kerr.UnknownSegment,
				Message: fmt.Sprintf("ride references unknown segment %q", node.SegmentName),
			})
		}
	case model.FlowSequential, model.FlowParallel:
		for _, c := range node.Children {
			errs = append(errs, validateRefs(available, c)...)
		}
	}
	return errs
}

func validateEmptyParallel(node model.FlowNode) []ValidationError {
	var errs []ValidationError
	if node.Kind == model.FlowParallel && len(node.Children) == 0 {
		errs = append(errs, ValidationError{
			Kind:    kerr.EmptyParallel,
			Message: "parallel block has no children",
		})
	}
	for _, c := range node.Children {
		errs = append(errs, validateEmptyParallel(c)...)
	}
	return errs
}

func validateSelfDependency(segments []model.Segment) []ValidationError {
	var errs []ValidationError
	for _, s := range segments {
		for _, dep := range s.DependsOn {
			if dep == s.Name {
				errs = append(errs, ValidationError{
					Kind:    kerr.SelfDependency,
					Message: fmt.Sprintf("segment %q depends on itself", s.Name),
				})
			}
		}
	}
	return errs
}

// findCycle returns a witness path (segment names) if the effective DAG has
// a cycle, or nil if it is acyclic. Uses an explicit DFS with a recursion
// stack so the witness is the actual cycle path, not just "a cycle exists".
func findCycle(segments []model.Segment) []string {
	byName := make(map[string]model.Segment, len(segments))
	for _, s := range segments {
		byName[s.Name] = s
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(segments))
	var stack []string

	var visit func(name string) []string
	visit = func(name string) []string {
		color[name] = gray
		stack = append(stack, name)
		if seg, ok := byName[name]; ok {
			for _, dep := range seg.DependsOn {
				switch color[dep] {
				case white:
					if cyc := visit(dep); cyc != nil {
						return cyc
					}
				case gray:
					// Found the back edge; build the witness from the stack.
					start := 0
					for i, n := range stack {
						if n == dep {
							start = i
							break
						}
					}
					cyc := append([]string(nil), stack[start:]...)
					return append(cyc, dep)
				}
			}
		}
		color[name] = black
		stack = stack[:len(stack)-1]
		return nil
	}

	for _, s := range segments {
		if color[s.Name] == white {
			if cyc := visit(s.Name); cyc != nil {
				return cyc
			}
		}
	}
	return nil
}

// validateMissingArtifacts reports a declared input with no producer among
// the consuming segment's transitive dependencies and no manifest entry.
// An output declared by some unrelated segment elsewhere in the ride does
// not satisfy the input: without a dependency edge there is no
// happens-before guarantee the artifact exists when the consumer starts.
func validateMissingArtifacts(segments []model.Segment, manifestHas func(name string) bool) []ValidationError {
	byName := make(map[string]model.Segment, len(segments))
	for _, s := range segments {
		byName[s.Name] = s
	}

	var errs []ValidationError
	for _, s := range segments {
		ancestors := transitiveDependencies(byName, s.Name)
		for name := range s.Inputs {
			if producedByAncestor(byName, ancestors, name) {
				continue
			}
			if manifestHas != nil && manifestHas(name) {
				continue
			}
			errs = append(errs, ValidationError{
				Kind:    kerr.MissingArtifact,
				Message: fmt.Sprintf("segment %q requires artifact %q with no producer among its dependencies and no manifest entry", s.Name, name),
			})
		}
	}
	return errs
}

// transitiveDependencies returns the set of segment names reachable from
// start by following DependsOn edges, not including start itself. Guards
// against cycles with a visited set; Validate reports cycles separately.
func transitiveDependencies(byName map[string]model.Segment, start string) map[string]bool {
	visited := make(map[string]bool)
	var visit func(name string)
	visit = func(name string) {
		seg, ok := byName[name]
		if !ok {
			return
		}
		for _, dep := range seg.DependsOn {
			if dep == start || visited[dep] {
				continue
			}
			visited[dep] = true
			visit(dep)
		}
	}
	visit(start)
	return visited
}

func producedByAncestor(byName map[string]model.Segment, ancestors map[string]bool, artifact string) bool {
	for name := range ancestors {
		if _, ok := byName[name].Outputs[artifact]; ok {
			return true
		}
	}
	return false
}
