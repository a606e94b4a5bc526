package loader

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jorge-barreto/kite/internal/execctx"
	"github.com/jorge-barreto/kite/internal/kerr"
	"github.com/jorge-barreto/kite/internal/model"
	"github.com/jorge-barreto/kite/internal/procrunner"
)

// toSegment converts one segmentDoc into a model.Segment, compiling its
// condition and run command into closures.
func toSegment(d segmentDoc) (model.Segment, error) {
	seg := model.Segment{
		Name:        d.Name,
		Description: d.Description,
		DependsOn:   d.DependsOn,
		MaxRetries:  d.MaxRetries,
		Outputs:     d.Outputs,
	}

	if d.Timeout != "" {
		dur, err := time.ParseDuration(d.Timeout)
		if err != nil {
			return model.Segment{}, fmt.Errorf("segment %q: invalid timeout %q: %w", d.Name, d.Timeout, err)
		}
		seg.Timeout = dur
		seg.TimeoutSet = true
	}
	if d.RetryDelay != "" {
		dur, err := time.ParseDuration(d.RetryDelay)
		if err != nil {
			return model.Segment{}, fmt.Errorf("segment %q: invalid retry-delay %q: %w", d.Name, d.RetryDelay, err)
		}
		seg.RetryDelay = dur
	}
	if len(d.RetryOn) > 0 {
		seg.RetryOn = make(map[kerr.Kind]bool, len(d.RetryOn))
		for _, k := range d.RetryOn {
			seg.RetryOn[kerr.Kind(k)] = true
		}
	}
	if len(d.Inputs) > 0 {
		seg.Inputs = make(map[string]bool, len(d.Inputs))
		for _, name := range d.Inputs {
			seg.Inputs[name] = true
		}
	}

	if d.Condition != "" {
		cond := d.Condition
		seg.Condition = func(c *execctx.Context) bool {
			return shellConditionTrue(c, cond)
		}
	}
	if d.Run != "" {
		run := d.Run
		seg.Body = func(c *execctx.Context) error {
			return runShellBody(c, run)
		}
	}

	return seg, nil
}

// ExpandVars substitutes ${VAR}/$VAR references in template using vars,
// falling back to the process environment, generalizing orc's
// dispatch.ExpandVars (os.Expand over a ride's vars map) to Kite's
// condition/run shell snippets.
func ExpandVars(template string, vars map[string]string) string {
	return os.Expand(template, func(key string) string {
		if v, ok := vars[key]; ok {
			return v
		}
		return os.Getenv(key)
	})
}

// shellConditionTrue runs cond through the host shell in the workspace,
// generalizing orc's evalCondition (bash -c, exit 0 = true) to the
// procrunner capability.
func shellConditionTrue(c *execctx.Context, cond string) bool {
	cond = ExpandVars(cond, c.Environment)
	res, err := procrunner.Shell(context.Background(), cond, c.Workspace, envSlice(c.Environment), 0)
	return err == nil && res.ExitCode == 0
}

// runShellBody runs a segment's `run` command through the shell, expanding
// vars/env references first and logging command lines to the context's
// logger if present.
func runShellBody(c *execctx.Context, cmdline string) error {
	cmdline = ExpandVars(cmdline, c.Environment)
	if c.Logger != nil {
		c.Logger.CommandStart(cmdline)
	}
	start := time.Now()
	res, err := procrunner.Shell(context.Background(), cmdline, c.Workspace, envSlice(c.Environment), 0)
	if c.Logger != nil {
		if res.Output != "" {
			c.Logger.CommandOutput(res.Output)
		}
		c.Logger.CommandComplete(res.ExitCode, time.Since(start))
	}
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("command %q exited %d", cmdline, res.ExitCode)
	}
	return nil
}

func envSlice(env map[string]string) []string {
	out := make([]string, 0, len(env)+len(os.Environ()))
	out = append(out, os.Environ()...)
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}

// toFlowNode converts a flowDoc into a model.FlowNode.
func toFlowNode(d flowDoc) (model.FlowNode, error) {
	switch {
	case len(d.Sequential) > 0:
		children := make([]model.FlowNode, 0, len(d.Sequential))
		for _, c := range d.Sequential {
			n, err := toFlowNode(c)
			if err != nil {
				return model.FlowNode{}, err
			}
			children = append(children, n)
		}
		return model.Sequential(children...), nil
	case d.Parallel != nil:
		children := make([]model.FlowNode, 0, len(d.Parallel))
		for _, c := range d.Parallel {
			n, err := toFlowNode(c)
			if err != nil {
				return model.FlowNode{}, err
			}
			children = append(children, n)
		}
		return model.Parallel(children...), nil
	case d.Ref != "":
		ov, err := toOverrides(d.Overrides)
		if err != nil {
			return model.FlowNode{}, err
		}
		return model.Ref(d.Ref, ov), nil
	default:
		return model.FlowNode{}, fmt.Errorf("flow node has neither sequential, parallel, nor ref")
	}
}

func toOverrides(d *overridesDoc) (model.SegmentOverrides, error) {
	if d == nil {
		return model.SegmentOverrides{}, nil
	}
	ov := model.SegmentOverrides{
		ExtraDependsOn: d.ExtraDependsOn,
		Enabled:        d.Enabled,
	}
	if d.Condition != "" {
		cond := d.Condition
		ov.Condition = func(c *execctx.Context) bool {
			return shellConditionTrue(c, cond)
		}
	}
	if d.Timeout != "" {
		dur, err := time.ParseDuration(d.Timeout)
		if err != nil {
			return model.SegmentOverrides{}, fmt.Errorf("override: invalid timeout %q: %w", d.Timeout, err)
		}
		ov.Timeout = dur
		ov.TimeoutSet = true
	}
	return ov, nil
}

func toRide(d rideDoc) (model.Ride, error) {
	flow, err := toFlowNode(d.Flow)
	if err != nil {
		return model.Ride{}, fmt.Errorf("ride %q: %w", d.Name, err)
	}

	env := d.Vars.AsMap()
	for k, v := range d.Environment {
		env[k] = v
	}

	return model.Ride{
		Name:           d.Name,
		Flow:           flow,
		Environment:    env,
		MaxConcurrency: d.MaxConcurrency,
	}, nil
}
