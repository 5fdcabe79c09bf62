package issuegraph

import (
	"strconv"
	"strings"
	"time"
)

const (
	// titleWidth is the number of title characters shown on a node.
	titleWidth = 30
	unknown    = "?"
)

// Attributes are the rendering hints of one node.
type Attributes struct {
	Label   string
	Tooltip string
	URL     string
	// Shape is empty for the graph's default rectangle.
	Shape string
	// Fill is empty for no fill.
	Fill string
	// Border and PenWidth are set on emphasised nodes.
	Border      string
	PenWidth    int
	Peripheries int
}

// Style derives node attributes from issues.
type Style struct {
	Palette   Palette
	NewDays   int
	StaleDays int
	// Now defaults to time.Now.
	Now func() time.Time
}

func NewStyle(cfg *Config) *Style {
	return &Style{
		Palette:   cfg.Palette,
		NewDays:   cfg.NewDays,
		StaleDays: cfg.StaleDays,
	}
}

func (s *Style) today() time.Time {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Peripheries maps an estimate to the number of node outlines.
func Peripheries(estimate *float64) int {
	if estimate == nil {
		return 1
	}
	switch e := *estimate; {
	case e >= 13:
		return 4
	case e >= 8:
		return 3
	case e >= 3:
		return 2
	}
	return 1
}

func formatEstimate(estimate *float64) string {
	if estimate == nil {
		return unknown
	}
	return strconv.FormatFloat(*estimate, 'f', -1, 64)
}

// sanitize drops characters that break quoted strings in the output.
func sanitize(s string) string {
	return strings.NewReplacer(`"`, "", "{", "").Replace(s)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Derive computes the attributes of issue.
func (s *Style) Derive(issue *Issue) Attributes {
	title := sanitize(issue.Title)
	assignee := issue.Assignee
	if assignee == "" {
		assignee = unknown
	}
	estimate := formatEstimate(issue.Estimate)

	attrs := Attributes{
		Label:       truncate(title, titleWidth) + "\n" + assignee + " " + estimate + " " + issue.Number,
		Tooltip:     title,
		URL:         issue.URL,
		Peripheries: Peripheries(issue.Estimate),
	}

	if issue.IsEpic() {
		attrs.Shape = "octagon"
		attrs.Fill = s.Palette.Epic
		return attrs
	}

	if estimate == unknown || assignee == unknown {
		attrs.Border = s.Palette.Emphasis
		attrs.PenWidth = s.Palette.EmphasisWidth
	}
	attrs.Fill = s.fill(issue)
	return attrs
}

// fill picks the fill of a non-epic issue. Pipeline colours take
// precedence over age colours.
func (s *Style) fill(issue *Issue) string {
	switch {
	case strings.Contains(issue.Pipeline, "New Issues"):
		return s.Palette.NewIssues
	case issue.Pipeline == "In Progress":
		return s.Palette.InProgress
	case issue.CreatedAt.IsZero():
		return s.Palette.Default
	}
	age := int(s.today().Sub(issue.CreatedAt).Hours() / 24)
	switch {
	case age < s.NewDays:
		return s.Palette.Recent
	case age > s.StaleDays:
		return s.Palette.Stale
	}
	return s.Palette.Default
}
