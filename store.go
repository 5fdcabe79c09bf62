package issuegraph

import (
	"slices"
)

// Store holds the open, non-pull-request issues keyed by FQN.
type Store struct {
	byFQN map[string]*Issue
	// order is first-seen input order of the kept issues.
	order []*Issue
}

// NewStore indexes issues. When an FQN repeats, the later row replaces the
// earlier one but keeps its position. Closed issues and pull requests are
// dropped after duplicates are resolved.
func NewStore(issues []*Issue) *Store {
	var (
		latest = make(map[string]*Issue, len(issues))
		fqns   []string
	)
	for _, issue := range issues {
		fqn := issue.FQN()
		if _, ok := latest[fqn]; !ok {
			fqns = append(fqns, fqn)
		}
		latest[fqn] = issue
	}

	s := &Store{byFQN: make(map[string]*Issue, len(fqns))}
	for _, fqn := range fqns {
		issue := latest[fqn]
		if issue.IsClosed() || issue.IsPullRequest() {
			continue
		}
		s.byFQN[fqn] = issue
		s.order = append(s.order, issue)
	}
	return s
}

// Get returns the open issue for fqn.
func (s *Store) Get(fqn string) (*Issue, bool) {
	issue, ok := s.byFQN[fqn]
	return issue, ok
}

func (s *Store) Len() int {
	return len(s.order)
}

// Issues returns the kept issues in input order.
func (s *Store) Issues() []*Issue {
	return s.order
}

// Teams returns each team's issues in input order, plus the team names
// sorted ascending.
func (s *Store) Teams() (map[string][]*Issue, []string) {
	byTeam := make(map[string][]*Issue)
	var names []string
	for _, issue := range s.order {
		team := issue.Team()
		if _, ok := byTeam[team]; !ok {
			names = append(names, team)
		}
		byTeam[team] = append(byTeam[team], issue)
	}
	slices.Sort(names)
	return byTeam, names
}

// Index classifies relationships. Entries may name issues the Store does
// not hold.
type Index struct {
	// subToEpic maps a sub-issue FQN to its epic FQN. A sub-issue has at
	// most one epic; the last row wins.
	subToEpic map[string]string
	subs      []string

	blockers    map[string]Relationship
	blockerKeys []string
}

func NewIndex(rels []Relationship) *Index {
	idx := &Index{
		subToEpic: make(map[string]string),
		blockers:  make(map[string]Relationship),
	}
	for _, rel := range rels {
		switch rel.Kind {
		case KindEpic:
			if _, ok := idx.subToEpic[rel.To]; !ok {
				idx.subs = append(idx.subs, rel.To)
			}
			idx.subToEpic[rel.To] = rel.From
		case KindBlocks:
			key := rel.From + "<-" + rel.To
			if _, ok := idx.blockers[key]; !ok {
				idx.blockerKeys = append(idx.blockerKeys, key)
			}
			idx.blockers[key] = rel
		}
	}
	return idx
}

// EpicOf returns the epic FQN of the sub-issue fqn.
func (idx *Index) EpicOf(fqn string) (string, bool) {
	epic, ok := idx.subToEpic[fqn]
	return epic, ok
}

// EpicPair is a sub-issue and the epic that contains it.
type EpicPair struct {
	Sub, Epic string
}

// EpicPairs returns the epic relationships ordered by first appearance of
// the sub-issue.
func (idx *Index) EpicPairs() []EpicPair {
	pairs := make([]EpicPair, 0, len(idx.subs))
	for _, sub := range idx.subs {
		pairs = append(pairs, EpicPair{Sub: sub, Epic: idx.subToEpic[sub]})
	}
	return pairs
}

// Blockers returns the distinct blocking relationships in first-seen order.
func (idx *Index) Blockers() []Relationship {
	out := make([]Relationship, 0, len(idx.blockerKeys))
	for _, key := range idx.blockerKeys {
		out = append(out, idx.blockers[key])
	}
	return out
}
