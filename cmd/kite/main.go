// Command kite is the CLI front end: script discovery, graph validation,
// and scheduler execution. Command structure is grounded on orc's
// cmd/orc/main.go (cli.Command tree, findProjectRoot, CLAUDECODE-style
// env guards generalized to CI detection).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"github.com/jorge-barreto/kite/internal/artifacts"
	"github.com/jorge-barreto/kite/internal/execctx"
	"github.com/jorge-barreto/kite/internal/graph"
	"github.com/jorge-barreto/kite/internal/loader"
	"github.com/jorge-barreto/kite/internal/logsink"
	"github.com/jorge-barreto/kite/internal/model"
	"github.com/jorge-barreto/kite/internal/schedlog"
	"github.com/jorge-barreto/kite/internal/scheduler"
	"github.com/jorge-barreto/kite/internal/secret"
	"github.com/jorge-barreto/kite/internal/ux"
)

func main() {
	app := &cli.Command{
		Name:  "kite",
		Usage: "CI/CD workflow runner",
		Commands: []*cli.Command{
			runCmd(),
			graphCmd(),
			validateCmd(),
			statusCmd(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".kite")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no .kite directory found in %q or any parent", dir)
		}
		dir = parent
	}
}

// loadRide discovers workflow files, resolves the named ride, and
// materializes+validates its segment set.
func loadRide(workspaceRoot, rideName string) (loader.Result, model.Ride, graph.Materialized, []graph.ValidationError, error) {
	res := loader.Discover(workspaceRoot)
	if len(res.Errors) > 0 {
		return res, model.Ride{}, graph.Materialized{}, nil, fmt.Errorf("loading workflow files: %v", res.Errors)
	}

	ride, ok := res.Rides[rideName]
	if !ok {
		return res, model.Ride{}, graph.Materialized{}, nil, fmt.Errorf("no ride named %q", rideName)
	}

	mat := graph.Materialize(res.Segments, ride)

	store := artifacts.New(filepath.Join(workspaceRoot, ".kite", "artifacts"))
	_, _ = store.RestoreFromManifest()

	verrs := graph.Validate(res.Segments, ride, mat, store.Has)
	return res, ride, mat, verrs, nil
}

func runCmd() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Execute a ride",
		ArgsUsage: "<ride>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "from", Usage: "Resume from this segment's level onward, reusing artifacts already present from a prior run"},
			&cli.BoolFlag{Name: "dry-run", Usage: "Print the execution plan without running anything"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			rideName := cmd.Args().First()
			if rideName == "" {
				return fmt.Errorf("ride argument is required")
			}

			root, err := findProjectRoot()
			if err != nil {
				return err
			}

			_, ride, mat, verrs, err := loadRide(root, rideName)
			if err != nil {
				return err
			}
			if len(verrs) > 0 {
				return fmt.Errorf("ride %q failed validation:\n%s", rideName, formatValidationErrors(verrs))
			}

			leveled := graph.Levels(mat.Segments)

			if from := cmd.String("from"); from != "" {
				idx, ok := leveled.LevelIndexOf(from)
				if !ok {
					return fmt.Errorf("--from: segment %q is not part of ride %q", from, rideName)
				}
				leveled.Levels = leveled.Levels[idx:]
			}

			if cmd.Bool("dry-run") {
				printDryRun(ride, leveled)
				return nil
			}

			secrets := &secret.Registry{}
			store := artifacts.New(filepath.Join(root, ".kite", "artifacts"))
			if _, err := store.RestoreFromManifest(); err != nil {
				fmt.Fprintf(os.Stderr, "warning: restoring manifest: %v\n", err)
			}

			env := make(map[string]string)
			for _, kv := range os.Environ() {
				for i := 0; i < len(kv); i++ {
					if kv[i] == '=' {
						env[kv[:i]] = kv[i+1:]
						break
					}
				}
			}
			for k, v := range ride.Environment {
				env[k] = v
			}

			logger := logsink.NullSink{}
			execCtx := execctx.New("", "", root, env, store, logger, secrets)

			sched := &scheduler.Scheduler{
				Context:        execCtx,
				MaxConcurrency: ride.MaxConcurrency,
				Log:            schedlog.Discard(),
				LogDir:         filepath.Join(root, ".kite", "logs"),
			}

			result := sched.Run(ctx, ride.Name, leveled, mat.Segments)
			sched.RunRideHooks(ctx, ride, result)

			if err := store.SaveManifest(ride.Name); err != nil {
				fmt.Fprintf(os.Stderr, "warning: saving manifest: %v\n", err)
			}

			printRunResult(result)
			if !result.Success() {
				return fmt.Errorf("ride %q failed", rideName)
			}
			return nil
		},
	}
}

func graphCmd() *cli.Command {
	return &cli.Command{
		Name:      "graph",
		Usage:     "Materialize, validate, and print a ride's levels and critical path",
		ArgsUsage: "<ride>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			rideName := cmd.Args().First()
			if rideName == "" {
				return fmt.Errorf("ride argument is required")
			}
			root, err := findProjectRoot()
			if err != nil {
				return err
			}
			_, ride, mat, verrs, err := loadRide(root, rideName)
			if err != nil {
				return err
			}
			if len(verrs) > 0 {
				fmt.Println(formatValidationErrors(verrs))
			}
			leveled := graph.Levels(mat.Segments)
			printDryRun(ride, leveled)
			return nil
		},
	}
}

func validateCmd() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate every discovered workflow file and ride",
		ArgsUsage: "",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			root, err := findProjectRoot()
			if err != nil {
				return err
			}
			res := loader.Discover(root)
			for _, e := range res.Errors {
				fmt.Fprintf(os.Stderr, "error: %v\n", e)
			}
			ok := len(res.Errors) == 0
			for name, ride := range res.Rides {
				mat := graph.Materialize(res.Segments, ride)
				verrs := graph.Validate(res.Segments, ride, mat, nil)
				if len(verrs) > 0 {
					ok = false
					fmt.Printf("ride %q:\n%s\n", name, formatValidationErrors(verrs))
				} else {
					fmt.Printf("ride %q: ok\n", name)
				}
			}
			if !ok {
				return fmt.Errorf("validation failed")
			}
			return nil
		},
	}
}

func statusCmd() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Print the artifact manifest for the current workspace",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			root, err := findProjectRoot()
			if err != nil {
				return err
			}
			store := artifacts.New(filepath.Join(root, ".kite", "artifacts"))
			count, err := store.RestoreFromManifest()
			if err != nil {
				return err
			}
			fmt.Printf("%d artifact(s) restored from manifest:\n", count)
			ux.RenderArtifactStatus(store)
			return nil
		},
	}
}
