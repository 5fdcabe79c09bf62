package issuegraph

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Generator runs the whole batch: load both inputs, build the graph, write
// the description and optionally render it.
type Generator struct {
	Log    *slog.Logger
	Config *Config
	// Renderer is skipped when nil.
	Renderer *Renderer
	// Now overrides the clock used for issue ages.
	Now func() time.Time
}

type GenerateRequest struct {
	IssuesPath        string
	RelationshipsPath string
	OutputPath        string
	// Name is the digraph name. Defaults to OutputPath.
	Name string
}

func readInput[T any](path string, parse func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, err
	}
	defer f.Close()
	v, err := parse(f)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

// Generate writes the graph description to req.OutputPath. Input errors
// abort before anything is written. A render failure is logged and does
// not fail the run.
func (g *Generator) Generate(ctx context.Context, req GenerateRequest) (*Graph, error) {
	issues, err := readInput(req.IssuesPath, ReadIssues)
	if err != nil {
		return nil, fmt.Errorf("read issues: %w", err)
	}
	rels, err := readInput(req.RelationshipsPath, ReadRelationships)
	if err != nil {
		return nil, fmt.Errorf("read relationships: %w", err)
	}

	cfg := g.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	style := NewStyle(cfg)
	style.Now = g.Now

	name := req.Name
	if name == "" {
		name = req.OutputPath
	}

	store := NewStore(issues)
	b := &Builder{Log: g.Log, Style: style}
	graph := b.Build(name, store, NewIndex(rels))

	if err := writeFileAtomic(req.OutputPath, func(w io.Writer) error {
		return WriteDOT(w, graph)
	}); err != nil {
		return nil, fmt.Errorf("write %s: %w", req.OutputPath, err)
	}
	g.Log.Info("wrote graph",
		"path", req.OutputPath,
		"rows", len(issues),
		"nodes", graph.NodeCount,
		"clusters", len(graph.Clusters),
		"edges", len(graph.Edges),
		"skipped", graph.Skipped,
	)

	if g.Renderer != nil {
		start := time.Now()
		if err := g.Renderer.Render(ctx, req.OutputPath); err != nil {
			g.Log.Warn("render graph", "error", err)
		} else {
			g.Log.Info("rendered graph",
				"command", g.Renderer.Command,
				"format", g.Renderer.Format,
				"took", time.Since(start).Truncate(time.Millisecond),
			)
		}
	}
	return graph, nil
}

// writeFileAtomic writes through a temporary file in the target directory
// so a failed run never leaves a partial description behind.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".issuegraph-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	bw := bufio.NewWriter(tmp)
	if err := write(bw); err != nil {
		tmp.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
