package loader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jorge-barreto/kite/internal/execctx"
)

const sampleWorkflow = `
segments:
  - name: build
    run: "echo building"
    outputs:
      bin: dist/app
  - name: test
    depends-on: [build]
    condition: "true"
    timeout: 30s
    max-retries: 2
    retry-delay: 1s
    retry-on: [Timeout]
    run: "echo testing"

rides:
  - name: ci
    max-concurrency: 2
    environment:
      STAGE: test
    flow:
      sequential:
        - ref: build
        - ref: test
`

func writeWorkflow(t *testing.T, dir, contents string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "pipeline.kite.yaml"), []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDiscover_ParsesSegmentsAndRides(t *testing.T) {
	dir := t.TempDir()
	writeWorkflow(t, dir, sampleWorkflow)

	res := Discover(dir)
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}

	build, ok := res.Segments["build"]
	if !ok {
		t.Fatal("expected segment 'build'")
	}
	if build.Outputs["bin"] != "dist/app" {
		t.Fatalf("expected output mapping to survive, got %+v", build.Outputs)
	}

	test, ok := res.Segments["test"]
	if !ok {
		t.Fatal("expected segment 'test'")
	}
	if len(test.DependsOn) != 1 || test.DependsOn[0] != "build" {
		t.Fatalf("expected test to depend on build, got %+v", test.DependsOn)
	}
	if test.MaxRetries != 2 {
		t.Fatalf("expected max-retries 2, got %d", test.MaxRetries)
	}
	if !test.TimeoutSet || test.Timeout != 30*time.Second {
		t.Fatalf("expected timeout 30s with TimeoutSet true, got %s (set=%v)", test.Timeout, test.TimeoutSet)
	}
	if build.TimeoutSet {
		t.Fatal("expected build (no timeout declared) to have TimeoutSet false")
	}
	if test.Condition == nil {
		t.Fatal("expected condition closure to be compiled")
	}

	ride, ok := res.Rides["ci"]
	if !ok {
		t.Fatal("expected ride 'ci'")
	}
	if ride.MaxConcurrency != 2 {
		t.Fatalf("expected max-concurrency 2, got %d", ride.MaxConcurrency)
	}
	if ride.Environment["STAGE"] != "test" {
		t.Fatalf("expected environment STAGE=test, got %+v", ride.Environment)
	}
}

func TestDiscover_SchemaRejectsMissingName(t *testing.T) {
	dir := t.TempDir()
	writeWorkflow(t, dir, `
segments:
  - run: "echo no name"
rides: []
`)
	res := Discover(dir)
	if len(res.Errors) == 0 {
		t.Fatal("expected schema validation to reject a segment with no name")
	}
}

func TestDiscover_InvalidTimeoutRejected(t *testing.T) {
	dir := t.TempDir()
	writeWorkflow(t, dir, `
segments:
  - name: build
    timeout: "not-a-duration"
rides: []
`)
	res := Discover(dir)
	if len(res.Errors) == 0 {
		t.Fatal("expected an invalid timeout string to produce an error")
	}
}

func TestDiscover_VarsMergeIntoEnvironmentWithExplicitEnvironmentWinning(t *testing.T) {
	dir := t.TempDir()
	writeWorkflow(t, dir, `
segments:
  - name: build
    run: "echo hi"
rides:
  - name: ci
    vars:
      STAGE: dev
      REGION: us-east-1
    environment:
      STAGE: prod
    flow:
      sequential:
        - ref: build
`)
	res := Discover(dir)
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	ride, ok := res.Rides["ci"]
	if !ok {
		t.Fatal("expected ride 'ci'")
	}
	if ride.Environment["REGION"] != "us-east-1" {
		t.Fatalf("expected vars entry REGION to merge into environment, got %+v", ride.Environment)
	}
	if ride.Environment["STAGE"] != "prod" {
		t.Fatalf("expected explicit environment to win over vars for STAGE, got %q", ride.Environment["STAGE"])
	}
}

func TestExpandVars_SubstitutesFromMapThenEnv(t *testing.T) {
	t.Setenv("KITE_TEST_EXPAND_FALLBACK", "from-env")

	got := ExpandVars("deploy to $REGION using ${KITE_TEST_EXPAND_FALLBACK}", map[string]string{"REGION": "us-west-2"})
	want := "deploy to us-west-2 using from-env"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestShellConditionTrue_ExpandsVarsBeforeRunning(t *testing.T) {
	c := execctx.New("", "", "", map[string]string{"WANT_EXIT": "0"}, nil, nil, nil)
	if !shellConditionTrue(c, "exit $WANT_EXIT") {
		t.Fatal("expected $WANT_EXIT to expand to 0 and evaluate true")
	}
}

func TestShellConditionTrue_ReflectsExitCode(t *testing.T) {
	c := execctx.New("", "", "", nil, nil, nil, nil)
	if !shellConditionTrue(c, "exit 0") {
		t.Fatal("expected exit 0 to evaluate true")
	}
	if shellConditionTrue(c, "exit 1") {
		t.Fatal("expected exit 1 to evaluate false")
	}
}
