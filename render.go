package issuegraph

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Renderer runs a Graphviz layout tool over a written description.
type Renderer struct {
	// Command is the layout program, e.g. fdp or dot.
	Command string
	// Format is the Graphviz output format, e.g. svg.
	Format string
}

// Args returns the command line arguments for rendering path. The image
// lands next to path with the format appended.
func (r *Renderer) Args(path string) []string {
	return []string{"-T" + r.Format, "-O", path}
}

func (r *Renderer) Render(ctx context.Context, path string) error {
	bin, err := exec.LookPath(r.Command)
	if err != nil {
		return fmt.Errorf("find %s: %w", r.Command, err)
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, r.Args(path)...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run %s: %w: %s", r.Command, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
