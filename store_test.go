package issuegraph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoreLastWriteWins(t *testing.T) {
	t.Parallel()

	first := openIssue("org/a/1", "core")
	other := openIssue("org/a/2", "core")
	second := openIssue("org/a/1", "infra")
	second.Title = "renamed"

	s := NewStore([]*Issue{first, other, second})
	require.Equal(t, 2, s.Len())

	got, ok := s.Get("org/a/1")
	require.True(t, ok)
	require.Same(t, second, got)
	// Position of the first occurrence is kept.
	require.Same(t, second, s.Issues()[0])
}

func TestStoreDropsClosedAndPullRequests(t *testing.T) {
	t.Parallel()

	closed := openIssue("org/a/1", "core")
	closed.ClosedAt = date("2024-05-10")
	pr := openIssue("org/a/2", "core")
	pr.URL = "https://github.com/org/a/pull/2"
	reopened := openIssue("org/a/3", "core")
	reopened.ClosedAt = date("2024-05-10")
	reopenedAgain := openIssue("org/a/3", "core")
	closedLater := openIssue("org/a/4", "core")
	closedLaterAgain := openIssue("org/a/4", "core")
	closedLaterAgain.ClosedAt = date("2024-05-11")

	s := NewStore([]*Issue{closed, pr, reopened, reopenedAgain, closedLater, closedLaterAgain})

	_, ok := s.Get("org/a/1")
	require.False(t, ok)
	_, ok = s.Get("org/a/2")
	require.False(t, ok)
	_, ok = s.Get("org/a/3")
	require.True(t, ok)
	_, ok = s.Get("org/a/4")
	require.False(t, ok)
}

func TestStoreTeams(t *testing.T) {
	t.Parallel()

	s := NewStore([]*Issue{
		openIssue("org/a/1", "zeta"),
		openIssue("org/a/2", ""),
		openIssue("org/a/3", "alpha"),
		openIssue("org/a/4", "zeta"),
	})
	byTeam, names := s.Teams()
	require.Equal(t, []string{"alpha", NoTeam, "zeta"}, names)
	require.Len(t, byTeam["zeta"], 2)
	require.Equal(t, "org/a/1", byTeam["zeta"][0].FQN())
	require.Equal(t, "org/a/4", byTeam["zeta"][1].FQN())
}

func TestMultiTeamUsesFirstTeam(t *testing.T) {
	t.Parallel()

	i := openIssue("org/a/1", "infra")
	i.Teams = append(i.Teams, "core")
	_, names := NewStore([]*Issue{i}).Teams()
	require.Equal(t, []string{"infra"}, names)
}

func TestIndex(t *testing.T) {
	t.Parallel()

	idx := NewIndex([]Relationship{
		{From: "e/1", Kind: KindEpic, To: "s/1"},
		{From: "x/1", Kind: KindBlocks, To: "x/2"},
		{From: "e/2", Kind: KindEpic, To: "s/2"},
		{From: "e/3", Kind: KindEpic, To: "s/1"},
		{From: "x/1", Kind: KindBlocks, To: "x/2"},
		{From: "x/2", Kind: KindBlocks, To: "x/3"},
	})

	epic, ok := idx.EpicOf("s/1")
	require.True(t, ok)
	require.Equal(t, "e/3", epic)
	_, ok = idx.EpicOf("e/1")
	require.False(t, ok)

	require.Equal(t, []EpicPair{
		{Sub: "s/1", Epic: "e/3"},
		{Sub: "s/2", Epic: "e/2"},
	}, idx.EpicPairs())

	require.Equal(t, []Relationship{
		{From: "x/1", Kind: KindBlocks, To: "x/2"},
		{From: "x/2", Kind: KindBlocks, To: "x/3"},
	}, idx.Blockers())
}

func TestAllocator(t *testing.T) {
	t.Parallel()

	a := NewAllocator()
	_, ok := a.IDFor("a/1", false)
	require.False(t, ok)
	require.Equal(t, 0, a.Len())

	id, ok := a.IDFor("a/1", true)
	require.True(t, ok)
	require.Equal(t, 0, id)
	id, _ = a.IDFor("a/2", true)
	require.Equal(t, 1, id)
	id, _ = a.IDFor("a/1", true)
	require.Equal(t, 0, id)

	id, ok = a.IDFor("a/2", false)
	require.True(t, ok)
	require.Equal(t, 1, id)
	require.Equal(t, 2, a.Len())
}
