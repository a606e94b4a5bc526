package model

import (
	"testing"
	"time"

	"github.com/jorge-barreto/kite/internal/execctx"
)

func TestApplyOverrides_UnionPreservesOrderSourceFirst(t *testing.T) {
	source := Segment{Name: "b", DependsOn: []string{"a"}}
	eff := ApplyOverrides(source, SegmentOverrides{ExtraDependsOn: []string{"a", "c"}})
	want := []string{"a", "c"}
	if len(eff.DependsOn) != len(want) {
		t.Fatalf("got %v, want %v", eff.DependsOn, want)
	}
	for i, v := range want {
		if eff.DependsOn[i] != v {
			t.Fatalf("got %v, want %v", eff.DependsOn, want)
		}
	}
}

func TestApplyOverrides_TimeoutOnlyAppliedWhenSet(t *testing.T) {
	source := Segment{Name: "a", Timeout: 10 * time.Second}
	eff := ApplyOverrides(source, SegmentOverrides{})
	if eff.Timeout != 10*time.Second {
		t.Fatalf("expected timeout to be left unchanged, got %s", eff.Timeout)
	}

	eff2 := ApplyOverrides(source, SegmentOverrides{Timeout: 5 * time.Second, TimeoutSet: true})
	if eff2.Timeout != 5*time.Second {
		t.Fatalf("expected timeout override to apply, got %s", eff2.Timeout)
	}
	if !eff2.TimeoutSet {
		t.Fatal("expected TimeoutSet to be true after an explicit timeout override")
	}
}

func TestApplyOverrides_ZeroTimeoutOverrideIsDistinguishableFromUnset(t *testing.T) {
	source := Segment{Name: "a"} // TimeoutSet false: unbounded
	eff := ApplyOverrides(source, SegmentOverrides{Timeout: 0, TimeoutSet: true})
	if !eff.TimeoutSet {
		t.Fatal("expected an explicit zero-timeout override to set TimeoutSet")
	}
	if eff.Timeout != 0 {
		t.Fatalf("expected Timeout to be zero, got %s", eff.Timeout)
	}
}

func TestApplyOverrides_ConditionReplaced(t *testing.T) {
	source := Segment{Name: "a", Condition: func(*execctx.Context) bool { return true }}
	eff := ApplyOverrides(source, SegmentOverrides{Condition: func(*execctx.Context) bool { return false }})
	if eff.Condition(nil) {
		t.Fatal("expected the override condition to replace the source condition")
	}
}

func TestApplyOverrides_EnabledFalseForcesConditionFalseEvenWithoutSourceCondition(t *testing.T) {
	source := Segment{Name: "a"}
	disabled := false
	eff := ApplyOverrides(source, SegmentOverrides{Enabled: &disabled})
	if eff.Condition == nil || eff.Condition(nil) {
		t.Fatal("expected a disabled override to force a constant-false condition")
	}
}

func TestApplyOverrides_DoesNotMutateSource(t *testing.T) {
	source := Segment{Name: "b", DependsOn: []string{"a"}}
	_ = ApplyOverrides(source, SegmentOverrides{ExtraDependsOn: []string{"c"}})
	if len(source.DependsOn) != 1 || source.DependsOn[0] != "a" {
		t.Fatalf("expected source to be left unmodified, got %v", source.DependsOn)
	}
}
