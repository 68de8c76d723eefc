package tools

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// Command describes one external analyzer invocation.
type Command struct {
	Name    string
	Args    []string
	Env     []string // full environment; nil inherits the parent's
	Dir     string
	Timeout time.Duration
}

type Result struct {
	Tool     string
	Stdout   []byte
	Stderr   []byte
	Err      error
	Duration time.Duration
}

// Exited reports whether the process ran to completion with a non-zero status,
// as opposed to failing to start or being killed by the deadline.
func (r Result) Exited() bool {
	var exitErr *exec.ExitError
	return errors.As(r.Err, &exitErr) && exitErr.ExitCode() > 0
}

func RunWithTimeout(ctx context.Context, c Command) Result {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	start := time.Now()
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Env = c.Env
	cmd.Dir = c.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if ctx.Err() != nil {
		err = ctx.Err()
	}
	return Result{Tool: c.Name, Stdout: stdout.Bytes(), Stderr: stderr.Bytes(), Err: err, Duration: time.Since(start)}
}
