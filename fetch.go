package issuegraph

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ammario/tlru"
	"github.com/beatlabs/github-auth/app"
	"github.com/coder/issuegraph/ghapi"
	"github.com/google/go-github/v59/github"
)

// Fetcher lists GitHub issues and converts them into graph inputs.
type Fetcher struct {
	Log       *slog.Logger
	AppConfig *app.Config
	Config    FetchConfig
	Pager     *ghapi.Pager

	installIDs    *tlru.Cache[string, int64]
	labelsToTeams map[string][]string
}

func (f *Fetcher) Init() {
	f.installIDs = tlru.New[string, int64](tlru.ConstantCost, 1024)
	f.labelsToTeams = f.Config.LabelsToTeams()
	if f.Pager == nil {
		f.Pager = &ghapi.Pager{Log: f.Log, Floor: time.Second, Ceil: 10 * time.Second}
	}
}

type FetchRequest struct {
	// Repos are owner/name pairs.
	Repos []string
	// InstallID is looked up per repo when empty.
	InstallID string
	// State is open, closed or all.
	State string
	// Limit caps issues per repo. Negative means no limit.
	Limit int
}

// FetchResult holds both graph inputs.
type FetchResult struct {
	Issues        []*Issue
	Relationships []Relationship
}

func (f *Fetcher) installID(ctx context.Context, owner, repo string) (string, error) {
	id, err := f.installIDs.Do(owner+"/"+repo, func() (int64, error) {
		return ghapi.InstallIDForRepo(ctx, f.AppConfig.Client(), owner, repo)
	}, time.Hour)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 10), nil
}

func splitRepo(s string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(s, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("repo %q must be owner/name", s)
	}
	return owner, name, nil
}

func (f *Fetcher) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	var (
		res  FetchResult
		seen = make(map[string]bool)
		subs []Relationship
	)
	for _, full := range req.Repos {
		owner, name, err := splitRepo(full)
		if err != nil {
			return nil, err
		}

		installID := req.InstallID
		if installID == "" {
			installID, err = f.installID(ctx, owner, name)
			if err != nil {
				return nil, fmt.Errorf("find installation for %s: %w", full, err)
			}
		}
		instConfig, err := f.AppConfig.InstallationConfig(installID)
		if err != nil {
			return nil, fmt.Errorf("get installation config: %w", err)
		}
		client := github.NewClient(instConfig.Client(ctx))

		ghIssues, err := ghapi.Page(
			ctx,
			f.Pager,
			func(ctx context.Context, opt *github.ListOptions) ([]*github.Issue, *github.Response, error) {
				f.Log.Debug("load issues page from GitHub", "repo", full, "page", opt.Page)
				issues, resp, err := client.Issues.ListByRepo(
					ctx,
					owner,
					name,
					&github.IssueListByRepoOptions{
						State:       req.State,
						ListOptions: *opt,
					},
				)
				return ghapi.OnlyTrueIssues(issues), resp, err
			},
			req.Limit,
		)
		if err != nil {
			return nil, fmt.Errorf("list issues of %s: %w", full, err)
		}
		f.Log.Info("fetched issues", "repo", full, "count", len(ghIssues))

		for _, gi := range ghIssues {
			issue := f.convert(full, gi)
			seen[issue.FQN()] = true
			res.Issues = append(res.Issues, issue)

			if issue.IsEpic() {
				subs = append(subs, epicRelationships(full, issue.FQN(), gi.GetBody())...)
			}
			res.Relationships = append(res.Relationships, blockedByRelationships(full, issue.FQN(), gi.GetBody())...)
		}
	}

	// Sub-issue rows only for issues in this fetch.
	for _, rel := range subs {
		if !seen[rel.To] {
			f.Log.Info("ignoring epic sub-issue outside fetch", "epic", rel.From, "sub", rel.To)
			continue
		}
		res.Relationships = append(res.Relationships, rel)
	}
	return &res, nil
}

func (f *Fetcher) convert(repo string, gi *github.Issue) *Issue {
	issue := &Issue{
		Repo:      repo,
		Number:    strconv.Itoa(gi.GetNumber()),
		Assignee:  gi.GetAssignee().GetLogin(),
		CreatedAt: gi.GetCreatedAt().Time,
		ClosedAt:  gi.GetClosedAt().Time,
		URL:       gi.GetHTMLURL(),
		Title:     gi.GetTitle(),
	}
	for _, label := range gi.Labels {
		issue.Labels = append(issue.Labels, strings.ToLower(label.GetName()))
	}
	for _, label := range issue.Labels {
		if issue.Pipeline == "" {
			issue.Pipeline = f.Config.PipelineLabels[label]
		}
		if issue.Estimate == nil && strings.HasPrefix(label, f.Config.EstimateLabelPrefix) {
			v, err := strconv.ParseFloat(strings.TrimPrefix(label, f.Config.EstimateLabelPrefix), 64)
			if err == nil && v >= 0 {
				issue.Estimate = &v
			}
		}
	}
	issue.Teams = f.owningTeams(issue.Assignee, issue.Labels)
	return issue
}

// owningTeams maps labels to teams. When several teams match, the
// assignee's own team wins if it is one of them.
func (f *Fetcher) owningTeams(assignee string, labels []string) []string {
	var teams []string
	for _, label := range labels {
		for _, team := range f.labelsToTeams[label] {
			if !slices.Contains(teams, team) {
				teams = append(teams, team)
			}
		}
	}
	slices.Sort(teams)
	if len(teams) > 1 && assignee != "" {
		if team, ok := f.Config.PersonToTeam[assignee]; ok && slices.Contains(teams, team) {
			return []string{team}
		}
	}
	return teams
}

var (
	taskListRef  = regexp.MustCompile(`(?m)^\s*[-*]\s+\[[ xX]\]\s+(?:([\w.-]+/[\w.-]+))?#(\d+)`)
	blockedByRef = regexp.MustCompile(`(?im)^\s*blocked by:?\s+(?:([\w.-]+/[\w.-]+))?#(\d+)`)
)

func refFQN(repo string, m []string) string {
	if m[1] != "" {
		repo = m[1]
	}
	return FQN(repo, m[2])
}

// epicRelationships reads sub-issues from the task list of an epic's body.
func epicRelationships(repo, epic, body string) []Relationship {
	var rels []Relationship
	for _, m := range taskListRef.FindAllStringSubmatch(body, -1) {
		rels = append(rels, Relationship{From: epic, Kind: KindEpic, To: refFQN(repo, m)})
	}
	return rels
}

// blockedByRelationships reads "Blocked by #N" lines of an issue body.
func blockedByRelationships(repo, fqn, body string) []Relationship {
	var rels []Relationship
	for _, m := range blockedByRef.FindAllStringSubmatch(body, -1) {
		rels = append(rels, Relationship{From: refFQN(repo, m), Kind: KindBlocks, To: fqn})
	}
	return rels
}
