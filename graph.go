package issuegraph

import (
	"log/slog"
)

// Graph is the structural description handed to the serializer.
type Graph struct {
	Name     string
	Clusters []*Cluster
	Edges    []Edge

	// NodeCount is the number of distinct issue nodes.
	NodeCount int
	// Skipped counts relationships left out because an endpoint is not
	// drawn.
	Skipped int
}

// Cluster is a team cluster or, when nested, an epic cluster.
type Cluster struct {
	ID    int
	Label string
	// FontSize of zero leaves the renderer default.
	FontSize int
	// Fill is empty for an unfilled cluster.
	Fill     string
	Children []*Cluster
	Nodes    []Node
}

type Node struct {
	ID    int
	FQN   string
	Attrs Attributes
}

type Edge struct {
	From, To int
	Kind     Kind
	Color    string
	// NoConstraint keeps the edge out of rank assignment.
	NoConstraint bool
}

const teamFontSize = 30

// Builder turns the loaded inputs into a Graph.
type Builder struct {
	Log   *slog.Logger
	Style *Style
}

type edgeKey struct {
	kind   Kind
	lo, hi int
}

// Build lays out clusters, allocating node ids as issues are placed, then
// resolves relationships against the placed nodes only. A containment edge
// is drawn when the sub-issue is not inside its epic's cluster: the teams
// differ, or the sub-issue is itself an epic with its own cluster.
func (b *Builder) Build(name string, store *Store, idx *Index) *Graph {
	var (
		g      = &Graph{Name: name}
		alloc  = NewAllocator()
		groups = make(map[string]*EpicGroup)
		nextID int
	)

	node := func(issue *Issue) Node {
		id, _ := alloc.IDFor(issue.FQN(), true)
		return Node{ID: id, FQN: issue.FQN(), Attrs: b.Style.Derive(issue)}
	}

	for _, tc := range BuildClusters(b.Log, store, idx) {
		team := &Cluster{ID: nextID, Label: tc.Team, FontSize: teamFontSize}
		nextID++
		for _, eg := range tc.Epics {
			inner := &Cluster{ID: nextID, Fill: b.Style.Palette.EpicCluster}
			nextID++
			groups[eg.Epic.FQN()] = eg
			for _, member := range eg.Members {
				inner.Nodes = append(inner.Nodes, node(member))
			}
			team.Children = append(team.Children, inner)
		}
		for _, issue := range tc.Residual {
			team.Nodes = append(team.Nodes, node(issue))
		}
		g.Clusters = append(g.Clusters, team)
	}
	g.NodeCount = alloc.Len()

	seen := make(map[edgeKey]bool)
	addEdge := func(e Edge) {
		k := edgeKey{kind: e.Kind, lo: min(e.From, e.To), hi: max(e.From, e.To)}
		if seen[k] {
			return
		}
		seen[k] = true
		g.Edges = append(g.Edges, e)
	}

	for _, pair := range idx.EpicPairs() {
		subID, subOK := alloc.IDFor(pair.Sub, false)
		epicID, epicOK := alloc.IDFor(pair.Epic, false)
		if !subOK || !epicOK {
			b.Log.Info("skipping epic relationship", "epic", pair.Epic, "sub", pair.Sub)
			g.Skipped++
			continue
		}
		if eg, ok := groups[pair.Epic]; ok && eg.Contains(pair.Sub) {
			continue
		}
		addEdge(Edge{From: subID, To: epicID, Kind: KindEpic})
	}

	for _, rel := range idx.Blockers() {
		blocker, blockerOK := alloc.IDFor(rel.From, false)
		blocked, blockedOK := alloc.IDFor(rel.To, false)
		if !blockerOK || !blockedOK {
			b.Log.Info("skipping blocking relationship", "from", rel.From, "to", rel.To)
			g.Skipped++
			continue
		}
		addEdge(Edge{
			From:         blocked,
			To:           blocker,
			Kind:         KindBlocks,
			Color:        b.Style.Palette.Blocking,
			NoConstraint: true,
		})
	}
	return g
}
