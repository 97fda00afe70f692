// Package kubectl wraps the kubectl CLI as the sole boundary to the
// cluster. Every mutation and query is a single subprocess invocation;
// callers interpret the exit code, JSON stdout, and stderr. The package
// never retries on its own.
package kubectl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Result captures a completed command invocation. It is never mutated
// after creation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// CommandError reports a command that exited non-zero when the caller
// required success.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("kubectl %s: exit %d: %s",
		strings.Join(e.Args, " "), e.ExitCode, strings.TrimSpace(e.Stderr))
}

// Runner executes one kubectl invocation per call.
//
// Run returns the Result for any completed process, including non-zero
// exits; a non-nil error means the process could not be run at all
// (binary missing, context cancelled).
type Runner interface {
	Run(ctx context.Context, args ...string) (Result, error)
	RunWithStdin(ctx context.Context, stdin string, args ...string) (Result, error)
}

// CLI is the real Runner backed by the kubectl binary on PATH.
type CLI struct {
	// Binary overrides the executable name; empty means "kubectl".
	Binary string
}

func (c *CLI) binary() string {
	if c.Binary != "" {
		return c.Binary
	}
	return "kubectl"
}

// Run executes kubectl with the given arguments.
func (c *CLI) Run(ctx context.Context, args ...string) (Result, error) {
	return c.RunWithStdin(ctx, "", args...)
}

// RunWithStdin executes kubectl feeding stdin to the process.
func (c *CLI) RunWithStdin(ctx context.Context, stdin string, args ...string) (Result, error) {
	// #nosec G204 -- arguments are fixed patterns assembled by this package's callers
	cmd := exec.CommandContext(ctx, c.binary(), args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	err := cmd.Run()

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		// Process never ran (lookup failure, cancelled context).
		return Result{ExitCode: -1}, fmt.Errorf("running %s: %w", c.binary(), err)
	}

	return Result{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, nil
}

// RunStrict executes kubectl and converts a non-zero exit into a
// *CommandError carrying stderr.
func RunStrict(ctx context.Context, r Runner, args ...string) (Result, error) {
	res, err := r.Run(ctx, args...)
	if err != nil {
		return res, err
	}
	if res.ExitCode != 0 {
		return res, &CommandError{Args: args, ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	return res, nil
}
