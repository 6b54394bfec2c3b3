package gh

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/go-faster/errors"
)

// DefaultBinary is the gh executable looked up on PATH.
const DefaultBinary = "gh"

// waitDelay bounds how long Run waits for output pipes once gh is gone.
var waitDelay = 2 * time.Second

// Result holds the outcome of a finished gh invocation.
type Result struct {
	ExitCode int // -1 when the process was killed by a signal
	Stdout   []byte
	Stderr   []byte
}

// Runner invokes the gh CLI.
// A non-nil error means the program never ran to completion: it could not be
// started, or ctx ended first. A non-zero exit is reported via Result.ExitCode.
type Runner interface {
	Run(ctx context.Context, args ...string) (*Result, error)
}

// ExecRunner implements Runner using os/exec.
type ExecRunner struct {
	Binary string
}

// NewExecRunner returns an ExecRunner for binary, defaulting to "gh".
func NewExecRunner(binary string) *ExecRunner {
	if binary == "" {
		binary = DefaultBinary
	}
	return &ExecRunner{Binary: binary}
}

func (r *ExecRunner) Run(ctx context.Context, args ...string) (*Result, error) {
	var stdout, stderr bytes.Buffer

	// #nosec G204 - args are built by this package, not user shell input
	cmd := exec.CommandContext(ctx, r.Binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var exitErr *exec.ExitError
		switch {
		case errors.As(err, &exitErr):
		case errors.Is(err, exec.ErrWaitDelay) && cmd.ProcessState != nil:
			// gh exited but a child kept its output pipes open.
		default:
			return nil, errors.Wrapf(err, "start %s", r.Binary)
		}
	}

	exitCode := 0
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	return &Result{
		ExitCode: exitCode,
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
	}, nil
}
