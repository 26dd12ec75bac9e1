package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"toneexport/internal/logging"
)

// stderrTail bounds how much diagnostic output an ExecError keeps.
const stderrTail = 8 * 1024

// Runner executes ffmpeg commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// ExecError reports a failed ffmpeg invocation.
type ExecError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExecError) Error() string {
	msg := fmt.Sprintf("ffmpeg %s failed", e.Command)
	if e.ExitCode >= 0 {
		msg = fmt.Sprintf("ffmpeg %s exited with status %d", e.Command, e.ExitCode)
	}
	if line := lastLine(e.Stderr); line != "" {
		msg += ": " + line
	}
	return msg
}

func (e *ExecError) Unwrap() error { return e.Err }

// ExecRunner runs commands with the ffmpeg binary via os/exec.
type ExecRunner struct {
	Binary string
	// Timeout bounds each invocation; zero disables it.
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewExecRunner constructs a runner for the given binary.
func NewExecRunner(binary string, timeout time.Duration, logger *slog.Logger) *ExecRunner {
	return &ExecRunner{
		Binary:  binary,
		Timeout: timeout,
		Logger:  logging.NewComponentLogger(logger, "ffmpeg"),
	}
}

func (r *ExecRunner) Run(ctx context.Context, cmd Command) error {
	binary := strings.TrimSpace(r.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	args := cmd.Args()
	logger := logging.WithContext(ctx, r.Logger)
	logger.Debug("running ffmpeg",
		logging.String("operation", cmd.Name()),
		logging.String("output", cmd.Output()),
		logging.String("args", strings.Join(args, " ")),
	)

	started := time.Now()
	var stderr tailBuffer
	proc := exec.CommandContext(ctx, binary, args...)
	proc.Stderr = &stderr
	err := proc.Run()
	if err == nil {
		logger.Debug("ffmpeg finished",
			logging.String("operation", cmd.Name()),
			logging.Duration("elapsed", time.Since(started)),
		)
		return nil
	}

	execErr := &ExecError{Command: cmd.Name(), ExitCode: -1, Stderr: stderr.String(), Err: err}
	if ctxErr := ctx.Err(); ctxErr != nil {
		execErr.Err = ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		execErr.ExitCode = exitErr.ExitCode()
	}
	return execErr
}

// tailBuffer keeps the last stderrTail bytes written to it.
type tailBuffer struct {
	buf bytes.Buffer
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	t.buf.Write(p)
	if over := t.buf.Len() - stderrTail; over > 0 {
		t.buf.Next(over)
	}
	return n, nil
}

func (t *tailBuffer) String() string {
	return strings.TrimSpace(t.buf.String())
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.LastIndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[idx+1:])
	}
	return s
}
