package issuegraph

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeInputs(t *testing.T, issues, rels string) (dir, issuesPath, relsPath string) {
	t.Helper()
	dir = t.TempDir()
	issuesPath = filepath.Join(dir, "issues.csv")
	relsPath = filepath.Join(dir, "rels.csv")
	require.NoError(t, os.WriteFile(issuesPath, []byte(issues), 0o600))
	require.NoError(t, os.WriteFile(relsPath, []byte(rels), 0o600))
	return dir, issuesPath, relsPath
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	dir, issuesPath, relsPath := writeInputs(t,
		issuesHeader+
			"A,1,ann,,Backlog,epic,core,2024-05-01,,https://github.com/A/issues/1,Epic\n"+
			"A,2,bob,5,Backlog,,core,2024-05-01,,https://github.com/A/issues/2,Sub\n"+
			"A,3,bob,2,Backlog,,core,2024-05-01,2024-05-20,https://github.com/A/issues/3,Closed\n"+
			"B,4,,,Backlog,,infra,2024-05-01,,https://github.com/B/issues/4,Lonely\n",
		"from,rel,to\nA/1,epic,A/2\nA/2,blocks,A/3\n",
	)
	out := filepath.Join(dir, "graph.dot")

	gen := &Generator{
		Log: testLogger(),
		Now: func() time.Time { return testNow },
		Renderer: &Renderer{
			Command: "issuegraph-test-no-such-renderer",
			Format:  "svg",
		},
	}
	g, err := gen.Generate(context.Background(), GenerateRequest{
		IssuesPath:        issuesPath,
		RelationshipsPath: relsPath,
		OutputPath:        out,
	})
	require.NoError(t, err)
	require.Equal(t, 3, g.NodeCount)
	require.Equal(t, 1, g.Skipped)
	require.Empty(t, g.Edges)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	dot := string(data)
	require.True(t, strings.HasPrefix(dot, `digraph "`+out+`" {`), dot)
	require.True(t, strings.HasSuffix(dot, "}\n"))
	require.Contains(t, dot, `label="core";`)
	require.Contains(t, dot, `label="infra";`)
	require.NotContains(t, dot, "Closed")

	// Same inputs, same bytes.
	again := filepath.Join(dir, "again.dot")
	_, err = gen.Generate(context.Background(), GenerateRequest{
		IssuesPath:        issuesPath,
		RelationshipsPath: relsPath,
		OutputPath:        again,
		Name:              out,
	})
	require.NoError(t, err)
	data2, err := os.ReadFile(again)
	require.NoError(t, err)
	require.Equal(t, dot, string(data2))

	info, err := os.Stat(out)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestGenerateInputErrorWritesNothing(t *testing.T) {
	t.Parallel()

	dir, issuesPath, relsPath := writeInputs(t,
		issuesHeader+"A,1,ann,lots,Backlog,,core,2024-05-01,,u,t\n",
		"from,rel,to\n",
	)
	out := filepath.Join(dir, "graph.dot")

	gen := &Generator{Log: testLogger()}
	_, err := gen.Generate(context.Background(), GenerateRequest{
		IssuesPath:        issuesPath,
		RelationshipsPath: relsPath,
		OutputPath:        out,
	})
	var pe *ParseError
	require.True(t, errors.As(err, &pe), "got %v", err)
	require.Equal(t, "estimate", pe.Column)
	require.Contains(t, err.Error(), issuesPath)

	_, err = os.Stat(out)
	require.True(t, os.IsNotExist(err))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestGenerateMissingInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	gen := &Generator{Log: testLogger()}
	_, err := gen.Generate(context.Background(), GenerateRequest{
		IssuesPath:        filepath.Join(dir, "nope.csv"),
		RelationshipsPath: filepath.Join(dir, "nope.csv"),
		OutputPath:        filepath.Join(dir, "graph.dot"),
	})
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestRendererArgs(t *testing.T) {
	t.Parallel()

	r := &Renderer{Command: "fdp", Format: "svg"}
	require.Equal(t, []string{"-Tsvg", "-O", "out.dot"}, r.Args("out.dot"))

	r.Command = "issuegraph-test-no-such-renderer"
	err := r.Render(context.Background(), "out.dot")
	require.Error(t, err)
	require.Contains(t, err.Error(), "find issuegraph-test-no-such-renderer")
}
