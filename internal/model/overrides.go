package model

import "github.com/jorge-barreto/kite/internal/execctx"

// ApplyOverrides produces the effective segment for a Ref node, applying
// SegmentOverrides to source without mutating it.
func ApplyOverrides(source Segment, ov SegmentOverrides) Segment {
	eff := source.clone()
	eff.DependsOn = unionPreserveOrder(source.DependsOn, ov.ExtraDependsOn)

	if ov.Condition != nil {
		eff.Condition = ov.Condition
	}
	if ov.TimeoutSet {
		eff.Timeout = ov.Timeout
		eff.TimeoutSet = true
	}
	if ov.Enabled != nil && !*ov.Enabled {
		eff.Condition = func(*execctx.Context) bool { return false }
	}
	return eff
}

// unionPreserveOrder returns the union of a and b, duplicates removed,
// preserving first-occurrence order with a's elements first.
func unionPreserveOrder(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
