package export

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// CommandRunner runs the exporter as an external command, streaming its
// output to the terminal.
type CommandRunner struct {
	Command string // defaults to "yolo"
}

// Run implements Runner.
func (c CommandRunner) Run(ctx context.Context, dir string, args []string) error {
	name := c.Command
	if name == "" {
		name = "yolo"
	}
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("%s not found in PATH (pip install ultralytics): %w", name, err)
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run %s: %w", name, err)
	}
	return nil
}
