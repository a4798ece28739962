package capture

import (
	"context"
	"fmt"
	"os/exec"
)

// Builder compiles the demo executables before any capture runs. The build is
// opaque to the recorder: it either succeeds and the runner binary exists, or
// it fails and the captures fail individually afterwards.
type Builder interface {
	Build(ctx context.Context) error
}

// ShellBuilder runs a single shell-level build command.
type ShellBuilder struct {
	Command string
}

func (b *ShellBuilder) Build(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", b.Command)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("build command %q failed: %v, output: %s", b.Command, err, out)
	}
	return nil
}
