package issuegraph

import (
	"slices"
	"strings"
	"time"
)

// NoTeam is the team of issues that carry no team label.
const NoTeam = "no-team"

// Issue is one row of the issues input.
type Issue struct {
	Repo     string
	Number   string
	Assignee string
	// Estimate is nil when the row had no estimate.
	Estimate  *float64
	Pipeline  string
	Labels    []string
	Teams     []string
	CreatedAt time.Time
	ClosedAt  time.Time
	URL       string
	Title     string
}

// FQN returns the fully-qualified name, repo/number.
func (i *Issue) FQN() string {
	return FQN(i.Repo, i.Number)
}

func FQN(repo, number string) string {
	return repo + "/" + number
}

// IsEpic reports whether the issue carries the epic label.
func (i *Issue) IsEpic() bool {
	return slices.Contains(i.Labels, "epic")
}

func (i *Issue) IsClosed() bool {
	return !i.ClosedAt.IsZero()
}

func (i *Issue) IsPullRequest() bool {
	return strings.Contains(i.URL, "/pull/")
}

// Team is the team the issue is clustered under. Only the first listed
// team counts.
func (i *Issue) Team() string {
	if len(i.Teams) == 0 || i.Teams[0] == "" {
		return NoTeam
	}
	return i.Teams[0]
}

type Kind string

const (
	KindBlocks Kind = "blocks"
	KindEpic   Kind = "epic"
)

// Relationship is one row of the relationships input. For KindEpic, From is
// the epic and To its sub-issue. For KindBlocks, From blocks To.
type Relationship struct {
	From string
	Kind Kind
	To   string
}
