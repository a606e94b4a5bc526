package graph

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jorge-barreto/kite/internal/model"
)

func seg(name string, deps ...string) model.Segment {
	return model.Segment{Name: name, DependsOn: deps}
}

func available(segs ...model.Segment) map[string]model.Segment {
	m := make(map[string]model.Segment, len(segs))
	for _, s := range segs {
		m[s.Name] = s
	}
	return m
}

// S1 — linear chain: a -> b -> c materializes to three levels, one segment each.
func TestMaterialize_LinearChain(t *testing.T) {
	avail := available(seg("a"), seg("b", "a"), seg("c", "b"))
	ride := model.Ride{
		Name: "r",
		Flow: model.Sequential(
			model.Ref("a", model.SegmentOverrides{}),
			model.Ref("b", model.SegmentOverrides{}),
			model.Ref("c", model.SegmentOverrides{}),
		),
	}

	mat := Materialize(avail, ride)
	if len(mat.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", mat.Warnings)
	}

	leveled := Levels(mat.Segments)
	want := []Level{{"a"}, {"b"}, {"c"}}
	if diff := cmp.Diff(want, leveled.Levels); diff != "" {
		t.Fatalf("levels mismatch (-want +got):\n%s", diff)
	}
}

// Parallel siblings with no edges between them land in the same level.
func TestMaterialize_ParallelSameLevel(t *testing.T) {
	avail := available(seg("a"), seg("b"), seg("c"))
	ride := model.Ride{
		Name: "r",
		Flow: model.Parallel(
			model.Ref("a", model.SegmentOverrides{}),
			model.Ref("b", model.SegmentOverrides{}),
			model.Ref("c", model.SegmentOverrides{}),
		),
	}

	mat := Materialize(avail, ride)
	leveled := Levels(mat.Segments)
	if len(leveled.Levels) != 1 || len(leveled.Levels[0]) != 3 {
		t.Fatalf("expected one level of three, got %+v", leveled.Levels)
	}
}

// Sequential(Parallel(a,b), c) imposes exit({a,b}) -> entry({c}), so a and b
// share a level and c is strictly after.
func TestMaterialize_SequentialOfParallel(t *testing.T) {
	avail := available(seg("a"), seg("b"), seg("c"))
	ride := model.Ride{
		Name: "r",
		Flow: model.Sequential(
			model.Parallel(
				model.Ref("a", model.SegmentOverrides{}),
				model.Ref("b", model.SegmentOverrides{}),
			),
			model.Ref("c", model.SegmentOverrides{}),
		),
	}

	mat := Materialize(avail, ride)
	leveled := Levels(mat.Segments)
	if len(leveled.Levels) != 2 {
		t.Fatalf("expected 2 levels, got %d: %+v", len(leveled.Levels), leveled.Levels)
	}
	if len(leveled.Levels[0]) != 2 {
		t.Fatalf("expected first level to hold a and b, got %+v", leveled.Levels[0])
	}
	if leveled.Levels[1][0] != "c" {
		t.Fatalf("expected c in second level, got %+v", leveled.Levels[1])
	}
}

func TestMaterialize_OverridesExtraDependsOn(t *testing.T) {
	avail := available(seg("a"), seg("b"))
	ride := model.Ride{
		Name: "r",
		Flow: model.Parallel(
			model.Ref("a", model.SegmentOverrides{}),
			model.Ref("b", model.SegmentOverrides{ExtraDependsOn: []string{"a"}}),
		),
	}

	mat := Materialize(avail, ride)
	var bDeps []string
	for _, s := range mat.Segments {
		if s.Name == "b" {
			bDeps = s.DependsOn
		}
	}
	if diff := cmp.Diff([]string{"a"}, bDeps); diff != "" {
		t.Fatalf("override dependsOn mismatch (-want +got):\n%s", diff)
	}
}

func TestMaterialize_EnabledFalseForcesConditionFalse(t *testing.T) {
	base := seg("a")
	avail := available(base)
	disabled := false
	ride := model.Ride{
		Name: "r",
		Flow: model.Sequential(model.Ref("a", model.SegmentOverrides{Enabled: &disabled})),
	}
	mat := Materialize(avail, ride)
	if len(mat.Segments) != 1 {
		t.Fatalf("expected one materialized segment, got %d", len(mat.Segments))
	}
	eff := mat.Segments[0]
	if eff.Condition == nil {
		t.Fatal("expected condition to be forced to constant-false")
	}
	if eff.Condition(nil) {
		t.Fatal("expected forced condition to evaluate false")
	}
}

func TestMaterialize_DuplicateRefFirstWins(t *testing.T) {
	avail := available(seg("a"))
	ride := model.Ride{
		Name: "r",
		Flow: model.Sequential(
			model.Ref("a", model.SegmentOverrides{}),
			model.Ref("a", model.SegmentOverrides{}),
		),
	}
	mat := Materialize(avail, ride)
	if len(mat.Segments) != 1 {
		t.Fatalf("expected one materialized segment, got %d", len(mat.Segments))
	}
	if len(mat.Warnings) != 1 {
		t.Fatalf("expected one duplicate-reference warning, got %v", mat.Warnings)
	}
}

func TestValidate_UnknownSegment(t *testing.T) {
	avail := available()
	ride := model.Ride{Name: "r", Flow: model.Sequential(model.Ref("ghost", model.SegmentOverrides{}))}
	mat := Materialize(avail, ride)
	errs := Validate(avail, ride, mat, nil)
	assertHasKind(t, errs, "UnknownSegment")
}

func TestValidate_EmptyParallel(t *testing.T) {
	avail := available()
	ride := model.Ride{Name: "r", Flow: model.Parallel()}
	mat := Materialize(avail, ride)
	errs := Validate(avail, ride, mat, nil)
	assertHasKind(t, errs, "EmptyParallel")
}

func TestValidate_SelfDependency(t *testing.T) {
	avail := available(seg("a", "a"))
	ride := model.Ride{Name: "r", Flow: model.Sequential(model.Ref("a", model.SegmentOverrides{}))}
	mat := Materialize(avail, ride)
	errs := Validate(avail, ride, mat, nil)
	assertHasKind(t, errs, "SelfDependency")
}

// S6 — cycle rejection: a -> b -> a.
func TestValidate_Cycle(t *testing.T) {
	avail := available(seg("a", "b"), seg("b", "a"))
	ride := model.Ride{
		Name: "r",
		Flow: model.Parallel(
			model.Ref("a", model.SegmentOverrides{}),
			model.Ref("b", model.SegmentOverrides{}),
		),
	}
	mat := Materialize(avail, ride)
	errs := Validate(avail, ride, mat, nil)
	assertHasKind(t, errs, "Cycle")
}

func TestValidate_MissingArtifact(t *testing.T) {
	consumer := model.Segment{Name: "c", Inputs: map[string]bool{"bin": true}}
	avail := available(consumer)
	ride := model.Ride{Name: "r", Flow: model.Sequential(model.Ref("c", model.SegmentOverrides{}))}
	mat := Materialize(avail, ride)

	errs := Validate(avail, ride, mat, func(string) bool { return false })
	assertHasKind(t, errs, "MissingArtifact")

	errs = Validate(avail, ride, mat, func(string) bool { return true })
	for _, e := range errs {
		if e.Kind == "MissingArtifact" {
			t.Fatalf("manifest-restored artifact should not be reported missing")
		}
	}
}

// An output declared by an unrelated, non-dependency segment must not
// satisfy a consumer's input: there is no happens-before edge guaranteeing
// the artifact exists when the consumer starts.
func TestValidate_MissingArtifact_ProducerNotADependencyStillFails(t *testing.T) {
	producer := model.Segment{Name: "p", Outputs: map[string]string{"bin": "out/bin"}}
	consumer := model.Segment{Name: "c", Inputs: map[string]bool{"bin": true}}
	avail := available(producer, consumer)
	ride := model.Ride{
		Name: "r",
		Flow: model.Parallel(
			model.Ref("p", model.SegmentOverrides{}),
			model.Ref("c", model.SegmentOverrides{}),
		),
	}
	mat := Materialize(avail, ride)

	errs := Validate(avail, ride, mat, func(string) bool { return false })
	assertHasKind(t, errs, "MissingArtifact")
}

// When the producer IS a transitive dependency, the input is satisfied.
func TestValidate_MissingArtifact_ProducerIsTransitiveDependencySatisfies(t *testing.T) {
	producer := model.Segment{Name: "p", Outputs: map[string]string{"bin": "out/bin"}}
	consumer := model.Segment{Name: "c", DependsOn: []string{"p"}, Inputs: map[string]bool{"bin": true}}
	avail := available(producer, consumer)
	ride := model.Ride{
		Name: "r",
		Flow: model.Sequential(
			model.Ref("p", model.SegmentOverrides{}),
			model.Ref("c", model.SegmentOverrides{}),
		),
	}
	mat := Materialize(avail, ride)

	errs := Validate(avail, ride, mat, func(string) bool { return false })
	for _, e := range errs {
		if e.Kind == "MissingArtifact" {
			t.Fatalf("expected no MissingArtifact error when producer is a transitive dependency, got %v", errs)
		}
	}
}

func TestLevelIndexOf_FindsContainingLevel(t *testing.T) {
	avail := available(seg("a"), seg("b", "a"), seg("c", "b"))
	ride := model.Ride{
		Name: "r",
		Flow: model.Sequential(
			model.Ref("a", model.SegmentOverrides{}),
			model.Ref("b", model.SegmentOverrides{}),
			model.Ref("c", model.SegmentOverrides{}),
		),
	}
	mat := Materialize(avail, ride)
	leveled := Levels(mat.Segments)

	idx, ok := leveled.LevelIndexOf("b")
	if !ok || idx != 1 {
		t.Fatalf("LevelIndexOf(b) = (%d, %v), want (1, true)", idx, ok)
	}
}

func TestLevelIndexOf_FalseForUnknownSegment(t *testing.T) {
	avail := available(seg("a"))
	ride := model.Ride{Name: "r", Flow: model.Sequential(model.Ref("a", model.SegmentOverrides{}))}
	mat := Materialize(avail, ride)
	leveled := Levels(mat.Segments)

	if _, ok := leveled.LevelIndexOf("ghost"); ok {
		t.Fatal("expected LevelIndexOf to report false for an unknown segment")
	}
}

func TestCriticalPath_LinearChain(t *testing.T) {
	avail := available(seg("a"), seg("b", "a"), seg("c", "b"))
	ride := model.Ride{
		Name: "r",
		Flow: model.Sequential(
			model.Ref("a", model.SegmentOverrides{}),
			model.Ref("b", model.SegmentOverrides{}),
			model.Ref("c", model.SegmentOverrides{}),
		),
	}
	mat := Materialize(avail, ride)
	leveled := Levels(mat.Segments)
	cp := leveled.CriticalPath()
	if diff := cmp.Diff([]string{"a", "b", "c"}, cp); diff != "" {
		t.Fatalf("critical path mismatch (-want +got):\n%s", diff)
	}
}

func assertHasKind(t *testing.T, errs []ValidationError, kind string) {
	t.Helper()
	for _, e := range errs {
		if string(e.Kind) == kind {
			return
		}
	}
	t.Fatalf("expected a %s validation error, got %v", kind, errs)
}
