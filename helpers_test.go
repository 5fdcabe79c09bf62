package issuegraph

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

var testNow = time.Date(2024, time.June, 1, 15, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func estimate(v float64) *float64 {
	return &v
}

func date(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func testStyle() *Style {
	s := NewStyle(DefaultConfig())
	s.Now = func() time.Time { return testNow }
	return s
}

func buildGraph(t *testing.T, issues []*Issue, rels []Relationship) *Graph {
	t.Helper()
	b := &Builder{Log: testLogger(), Style: testStyle()}
	return b.Build("test.dot", NewStore(issues), NewIndex(rels))
}

// openIssue returns an open issue created a month before testNow.
func openIssue(fqn, team string) *Issue {
	repo, number := splitFQN(fqn)
	i := &Issue{
		Repo:      repo,
		Number:    number,
		Assignee:  "ann",
		Estimate:  estimate(1),
		CreatedAt: date("2024-05-01"),
		URL:       "https://github.com/" + fqn,
		Title:     "issue " + fqn,
	}
	if team != "" {
		i.Teams = []string{team}
	}
	return i
}

func epicIssue(fqn, team string) *Issue {
	i := openIssue(fqn, team)
	i.Labels = []string{"epic"}
	return i
}

func splitFQN(fqn string) (string, string) {
	for i := len(fqn) - 1; i >= 0; i-- {
		if fqn[i] == '/' {
			return fqn[:i], fqn[i+1:]
		}
	}
	panic("bad fqn " + fqn)
}

// nodeIDs maps FQN to node id across all clusters of g.
func nodeIDs(g *Graph) map[string]int {
	ids := make(map[string]int)
	var walk func(c *Cluster)
	walk = func(c *Cluster) {
		for _, n := range c.Nodes {
			ids[n.FQN] = n.ID
		}
		for _, child := range c.Children {
			walk(child)
		}
	}
	for _, c := range g.Clusters {
		walk(c)
	}
	return ids
}

func fqns(nodes []Node) []string {
	var out []string
	for _, n := range nodes {
		out = append(out, n.FQN)
	}
	return out
}
