package graph

import "github.com/jorge-barreto/kite/internal/model"

// Level is a set of segment names that may run concurrently; order within
// a Level reflects the materialized list's insertion order, for
// deterministic logging, not an execution guarantee.
type Level []string

// Leveled holds the topological leveling of a materialized segment set.
type Leveled struct {
	Levels   []Level
	indexOf  map[string]int // segment name -> position in materialized order
	byName   map[string]model.Segment
	children map[string][]string // name -> names that depend on it
}

// Levels computes a Kahn's-algorithm topological leveling of segments:
// repeatedly peel the zero-in-degree frontier as one Level. Ties within a
// level are ordered by the segments' position in the materialized list.
func Levels(segments []model.Segment) Leveled {
	indexOf := make(map[string]int, len(segments))
	byName := make(map[string]model.Segment, len(segments))
	for i, s := range segments {
		indexOf[s.Name] = i
		byName[s.Name] = s
	}

	inDegree := make(map[string]int, len(segments))
	children := make(map[string][]string, len(segments))
	for _, s := range segments {
		if _, ok := inDegree[s.Name]; !ok {
			inDegree[s.Name] = 0
		}
		for _, dep := range s.DependsOn {
			if dep == s.Name {
				continue // self-dependency is a validation error, not a leveling concern
			}
			if _, ok := byName[dep]; !ok {
				continue // unknown dependency is a validation error
			}
			inDegree[s.Name]++
			children[dep] = append(children[dep], s.Name)
		}
	}

	remaining := make(map[string]int, len(inDegree))
	for k, v := range inDegree {
		remaining[k] = v
	}

	var levels []Level
	done := make(map[string]bool, len(segments))
	for len(done) < len(segments) {
		var frontier []string
		for _, s := range segments {
			if done[s.Name] {
				continue
			}
			if remaining[s.Name] == 0 {
				frontier = append(frontier, s.Name)
			}
		}
		if len(frontier) == 0 {
			// Remaining nodes are all part of a cycle; stop here rather than
			// loop forever. Validate is expected to have already reported it.
			break
		}
		for _, name := range frontier {
			done[name] = true
			for _, child := range children[name] {
				remaining[child]--
			}
		}
		levels = append(levels, Level(frontier))
	}

	return Leveled{Levels: levels, indexOf: indexOf, byName: byName, children: children}
}

// LevelIndexOf returns the index of the level containing name, and
// ok=false if name isn't part of any level (unknown segment, or stranded
// in an unresolved cycle). Used by `kite run --from` to resume a ride
// partway through its materialized level order.
func (l Leveled) LevelIndexOf(name string) (int, bool) {
	for i, level := range l.Levels {
		for _, n := range level {
			if n == name {
				return i, true
			}
		}
	}
	return 0, false
}

// CriticalPath returns the longest chain of segment names by dependency
// count, for dry-run diagnostics.
func (l Leveled) CriticalPath() []string {
	// longest[name] = length of the longest chain ending at name.
	longest := make(map[string]int, len(l.byName))
	prev := make(map[string]string, len(l.byName))

	order := make([]string, 0, len(l.byName))
	for _, level := range l.Levels {
		order = append(order, level...)
	}

	for _, name := range order {
		seg := l.byName[name]
		best := 0
		var bestPrev string
		for _, dep := range seg.DependsOn {
			if cand := longest[dep] + 1; cand > best {
				best = cand
				bestPrev = dep
			}
		}
		longest[name] = best
		if bestPrev != "" {
			prev[name] = bestPrev
		}
	}

	var endName string
	best := -1
	for _, name := range order {
		if longest[name] > best {
			best = longest[name]
			endName = name
		}
	}
	if endName == "" {
		return nil
	}

	var path []string
	for n := endName; n != ""; {
		path = append([]string{n}, path...)
		n = prev[n]
	}
	return path
}
