// Package execctx implements ExecutionContext: the value presented to
// segment bodies, conditions, and hooks. It generalizes orc's
// dispatch.Environment (ticket/workdir/vars/BuildEnv) into the richer
// context the spec describes: env/secret lookups, CI detection, and
// workspace-relative file helpers.
package execctx

import (
	"os"

	"github.com/jorge-barreto/kite/internal/artifacts"
	"github.com/jorge-barreto/kite/internal/kerr"
	"github.com/jorge-barreto/kite/internal/logsink"
	"github.com/jorge-barreto/kite/internal/secret"
)

// ciIndicators are the environment variables used to compute IsCI, per the
// spec's fixed set.
var ciIndicators = []string{
	"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_HOME",
	"CIRCLECI", "TRAVIS", "BUILDKITE", "TEAMCITY_VERSION",
}

// Context is the ExecutionContext exposed to segment bodies, conditions,
// and lifecycle hooks.
type Context struct {
	Branch      string
	CommitSHA   string
	Environment map[string]string
	Workspace   string

	Artifacts *artifacts.Store
	Logger    logsink.Sink
	Secrets   *secret.Registry

	isCI bool
}

// New builds a Context and precomputes IsCI from the supplied environment.
func New(branch, commitSHA, workspace string, environment map[string]string, store *artifacts.Store, logger logsink.Sink, secrets *secret.Registry) *Context {
	c := &Context{
		Branch:      branch,
		CommitSHA:   commitSHA,
		Environment: environment,
		Workspace:   workspace,
		Artifacts:   store,
		Logger:      logger,
		Secrets:     secrets,
	}
	c.isCI = computeIsCI(environment)
	return c
}

func computeIsCI(env map[string]string) bool {
	for _, k := range ciIndicators {
		if v, ok := env[k]; ok && v != "" {
			return true
		}
	}
	return false
}

// IsCI reports whether the run appears to execute inside a recognized CI
// platform, based on a fixed set of indicator variables captured once at
// context construction.
func (c *Context) IsCI() bool {
	return c.isCI
}

// Env returns the value of key from the environment overlay, or "" if unset.
func (c *Context) Env(key string) string {
	return c.Environment[key]
}

// EnvOrDefault returns Env(key), or def if key is unset or empty.
func (c *Context) EnvOrDefault(key, def string) string {
	if v, ok := c.Environment[key]; ok && v != "" {
		return v
	}
	return def
}

// RequireEnv returns Env(key), failing with kind MissingEnv if unset.
func (c *Context) RequireEnv(key string) (string, error) {
	if v, ok := c.Environment[key]; ok && v != "" {
		return v, nil
	}
	return "", kerr.New(kerr.MissingEnv, "required environment variable %q is not set", key)
}

// Secret returns Env(key) and registers it with the secret registry for
// masking in all future log output.
func (c *Context) Secret(key string) string {
	v := c.Environment[key]
	if c.Secrets != nil {
		c.Secrets.Register(v, key)
	}
	return v
}

// RequireSecret is Secret, but fails with kind MissingEnv if the variable is
// unset.
func (c *Context) RequireSecret(key string) (string, error) {
	v, err := c.RequireEnv(key)
	if err != nil {
		return "", err
	}
	if c.Secrets != nil {
		c.Secrets.Register(v, key)
	}
	return v, nil
}

// WithLogger returns a shallow copy of c with Logger replaced, for the
// scheduler to hand each segment its own sink (shared by all of that
// segment's retry attempts) without segments racing on a shared Logger
// field.
func (c *Context) WithLogger(logger logsink.Sink) *Context {
	cp := *c
	cp.Logger = logger
	return &cp
}

// resolve returns path unchanged if absolute, or resolved against Workspace
// otherwise.
func (c *Context) resolve(path string) string {
	if path == "" {
		return c.Workspace
	}
	if os.IsPathSeparator(path[0]) {
		return path
	}
	return joinWorkspace(c.Workspace, path)
}

func joinWorkspace(ws, rel string) string {
	if ws == "" {
		return rel
	}
	return ws + string(os.PathSeparator) + rel
}

