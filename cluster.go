package issuegraph

import "log/slog"

// TeamCluster groups the issues of one team.
type TeamCluster struct {
	Team  string
	Epics []*EpicGroup
	// Residual holds the team's issues that are neither epics nor
	// sub-issues of an epic in this team.
	Residual []*Issue
}

// EpicGroup is an epic followed by its same-team sub-issues.
type EpicGroup struct {
	Epic    *Issue
	Members []*Issue
}

// Contains reports whether fqn is drawn inside the group.
func (g *EpicGroup) Contains(fqn string) bool {
	for _, m := range g.Members {
		if m.FQN() == fqn {
			return true
		}
	}
	return false
}

// BuildClusters partitions the store into team clusters sorted by team
// name. Within a team, epics are seeded first (the relationship input also
// names closed epics, so it cannot seed the groups), then each non-epic
// issue joins its epic's group when that epic sits in the same team.
func BuildClusters(log *slog.Logger, store *Store, idx *Index) []*TeamCluster {
	byTeam, names := store.Teams()
	clusters := make([]*TeamCluster, 0, len(names))
	for _, team := range names {
		issues := byTeam[team]
		tc := &TeamCluster{Team: team}

		groups := make(map[string]*EpicGroup)
		for _, issue := range issues {
			if !issue.IsEpic() {
				continue
			}
			log.Debug("seeded epic", "team", team, "epic", issue.FQN())
			g := &EpicGroup{Epic: issue, Members: []*Issue{issue}}
			groups[issue.FQN()] = g
			tc.Epics = append(tc.Epics, g)
		}

		for _, issue := range issues {
			if issue.IsEpic() {
				continue
			}
			if epic, ok := idx.EpicOf(issue.FQN()); ok {
				if g, ok := groups[epic]; ok {
					log.Debug("grouped sub-issue", "team", team, "sub", issue.FQN(), "epic", epic)
					g.Members = append(g.Members, issue)
					continue
				}
			}
			tc.Residual = append(tc.Residual, issue)
		}
		clusters = append(clusters, tc)
	}
	return clusters
}
