package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// CommandResult captures a finished external process.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// CommandRunner executes an external program and captures its output.
// A non-zero exit is reported through ExitCode, not the error; the error is
// reserved for failures to start the process and for context cancellation.
type CommandRunner func(ctx context.Context, name string, args ...string) (CommandResult, error)

// RunCommand is the default CommandRunner. Output is collected into buffers so
// chatty tools cannot block on a full pipe.
func RunCommand(ctx context.Context, name string, args ...string) (CommandResult, error) {
	return runCommand(ctx, nil, name, args...)
}

// RunCommandWithEnv returns a CommandRunner that appends env entries
// ("KEY=value") to the inherited environment. Entries whose key is already
// set in the process environment are skipped so operators can override them.
func RunCommandWithEnv(env ...string) CommandRunner {
	return func(ctx context.Context, name string, args ...string) (CommandResult, error) {
		return runCommand(ctx, env, name, args...)
	}
}

func runCommand(ctx context.Context, env []string, name string, args ...string) (CommandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec // arguments are assembled by adapters, not a shell
	if extra := missingEnv(env); len(extra) > 0 {
		cmd.Env = append(os.Environ(), extra...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := CommandResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if ctxErr := ctx.Err(); ctxErr != nil {
		result.ExitCode = -1
		return result, fmt.Errorf("%w: %s: %w", ErrCanceled, name, ctxErr)
	}
	if err == nil {
		return result, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	result.ExitCode = -1
	return result, err
}

// LookupBinary resolves name on PATH, tagging absence as ErrDependencyMissing.
func LookupBinary(stage, name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", Wrap(ErrDependencyMissing, stage, "lookup", fmt.Sprintf("%s not found on PATH", name), err)
	}
	return path, nil
}

func missingEnv(env []string) []string {
	var out []string
	for _, entry := range env {
		key, _, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			continue
		}
		if _, set := os.LookupEnv(key); set {
			continue
		}
		out = append(out, entry)
	}
	return out
}
