package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

var (
	// ErrTimeout marks a capture that outlived its per-demo deadline.
	ErrTimeout = errors.New("capture timed out")
	// ErrEmptyOutput marks a capture that exited cleanly without emitting
	// anything; there is nothing to normalize.
	ErrEmptyOutput = errors.New("capture produced no output")
)

// Capturer records one terminal command and emits a textual animation of the
// session on stdout.
type Capturer interface {
	Capture(ctx context.Context, command string, width, height int) ([]byte, error)
}

// SVGTermCapturer shells out to svg-term (or any tool with a compatible
// command line). Stdout is the sole data channel; stderr is only echoed into
// the error on failure.
type SVGTermCapturer struct {
	Bin     string
	Args    []string // fixed flags, e.g. --no-cursor
	Timeout time.Duration
}

func (c *SVGTermCapturer) Capture(ctx context.Context, command string, width, height int) ([]byte, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	args := []string{"--command", command}
	args = append(args, c.Args...)
	args = append(args, "--width", strconv.Itoa(width), "--height", strconv.Itoa(height))

	cmd := exec.CommandContext(ctx, c.Bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// A killed capture tool can leave children holding the stdout pipe;
	// without a wait delay that would block Run past the deadline.
	cmd.WaitDelay = 5 * time.Second

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return stdout.Bytes(), fmt.Errorf("%w after %s", ErrTimeout, c.Timeout)
	}
	if err != nil {
		// The tool can die after emitting usable frames; hand back whatever
		// arrived and let the caller decide if it is salvageable.
		return stdout.Bytes(), fmt.Errorf("%s exited with error: %v, stderr: %s", c.Bin, err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, ErrEmptyOutput
	}
	return stdout.Bytes(), nil
}
