package dependency

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// EnvPrefix prefixes every variable linkrow exports to hook scripts.
const EnvPrefix = "LINKROW_"

// ShellHook runs a POSIX shell script declared in a module manifest.
// Scripts are interpreted in-process, so they behave the same on every OS.
type ShellHook struct {
	Name       string // "prelink" or "postlink", used in parse errors
	Script     string
	Dir        string   // working directory, normally the module root
	Env        []string // base environment in KEY=VALUE form
	Dependency string
	Stdout     io.Writer
	Stderr     io.Writer
}

// Validate parses the script without running it.
func (h *ShellHook) Validate() error {
	if _, err := syntax.NewParser().Parse(strings.NewReader(h.Script), h.Name); err != nil {
		return fmt.Errorf("%s script syntax error: %w", h.Name, err)
	}
	return nil
}

// Run executes the script. Param values are exported as
// LINKROW_PARAM_<NAME> and the dependency name as LINKROW_DEPENDENCY.
func (h *ShellHook) Run(ctx context.Context, params Values) error {
	prog, err := syntax.NewParser().Parse(strings.NewReader(h.Script), h.Name)
	if err != nil {
		return fmt.Errorf("parsing %s script: %w", h.Name, err)
	}

	stdout, stderr := h.Stdout, h.Stderr
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	runner, err := interp.New(
		interp.Dir(h.Dir),
		interp.Env(expand.ListEnviron(h.environ(params)...)),
		interp.StdIO(nil, stdout, stderr),
	)
	if err != nil {
		return fmt.Errorf("creating interpreter: %w", err)
	}

	if err := runner.Run(ctx, prog); err != nil {
		var status interp.ExitStatus
		if errors.As(err, &status) {
			return fmt.Errorf("%s script exited with status %d", h.Name, int(status))
		}
		return fmt.Errorf("running %s script: %w", h.Name, err)
	}
	return nil
}

// environ merges the base environment with linkrow's variables.
// Later entries win in expand.ListEnviron.
func (h *ShellHook) environ(params Values) []string {
	env := make([]string, 0, len(h.Env)+len(params)+1)
	env = append(env, h.Env...)
	env = append(env, EnvPrefix+"DEPENDENCY="+h.Dependency)

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		env = append(env, ParamEnvName(name)+"="+params[name])
	}
	return env
}

// ParamEnvName returns the variable a param is exported as.
func ParamEnvName(param string) string {
	return EnvPrefix + "PARAM_" + strings.ToUpper(param)
}
