package issuegraph

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

var (
	issueColumns = []string{
		"repo", "issue", "assignee", "estimate", "pipeline", "labels",
		"teams", "created_at", "closed_at", "url", "title",
	}
	relationshipColumns = []string{"from", "rel", "to"}
)

// ParseError describes a malformed input row.
type ParseError struct {
	Line   int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: column %q: %v", e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// table reads a CSV stream with a header row and hands out rows as
// column-name lookups.
type table struct {
	r      *csv.Reader
	header map[string]int
}

func newTable(r io.Reader, required []string) (*table, error) {
	cr := csv.NewReader(r)
	head, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Line: 1, Err: errors.New("missing header row")}
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	header := make(map[string]int, len(head))
	for i, name := range head {
		header[strings.TrimSpace(name)] = i
	}
	for _, col := range required {
		if _, ok := header[col]; !ok {
			return nil, &ParseError{Line: 1, Column: col, Err: errors.New("missing column")}
		}
	}
	return &table{r: cr, header: header}, nil
}

type row struct {
	line   int
	fields []string
	header map[string]int
}

func (r row) get(col string) string {
	return r.fields[r.header[col]]
}

// required returns the trimmed value of col, failing when it is empty.
func (r row) required(col string) (string, error) {
	v := strings.TrimSpace(r.get(col))
	if v == "" {
		return "", &ParseError{Line: r.line, Column: col, Err: errors.New("required value is empty")}
	}
	return v, nil
}

func (r row) errorf(col string, format string, args ...any) error {
	return &ParseError{Line: r.line, Column: col, Err: fmt.Errorf(format, args...)}
}

// next returns the next row, or io.EOF.
func (t *table) next() (row, error) {
	fields, err := t.r.Read()
	if err != nil {
		var csvErr *csv.ParseError
		if errors.As(err, &csvErr) {
			return row{}, &ParseError{Line: csvErr.Line, Err: csvErr.Err}
		}
		return row{}, err
	}
	line, _ := t.r.FieldPos(0)
	return row{line: line, fields: fields, header: t.header}, nil
}

// ReadIssues parses the issues CSV. Rows are returned in input order,
// duplicates included. The first malformed row aborts the read.
func ReadIssues(r io.Reader) ([]*Issue, error) {
	t, err := newTable(r, issueColumns)
	if err != nil {
		return nil, err
	}
	var issues []*Issue
	for {
		row, err := t.next()
		if errors.Is(err, io.EOF) {
			return issues, nil
		}
		if err != nil {
			return nil, err
		}
		issue, err := parseIssue(row)
		if err != nil {
			return nil, err
		}
		issues = append(issues, issue)
	}
}

func parseIssue(r row) (*Issue, error) {
	repo, err := r.required("repo")
	if err != nil {
		return nil, err
	}
	number, err := r.required("issue")
	if err != nil {
		return nil, err
	}
	issue := &Issue{
		Repo:     repo,
		Number:   number,
		Assignee: strings.TrimSpace(r.get("assignee")),
		Pipeline: strings.TrimSpace(r.get("pipeline")),
		Labels:   splitList(strings.ToLower(r.get("labels"))),
		Teams:    splitList(r.get("teams")),
		URL:      strings.TrimSpace(r.get("url")),
		Title:    r.get("title"),
	}

	if v := strings.TrimSpace(r.get("estimate")); v != "" {
		est, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, r.errorf("estimate", "not a number: %q", v)
		}
		if est < 0 {
			return nil, r.errorf("estimate", "negative estimate %v", est)
		}
		issue.Estimate = &est
	}

	issue.CreatedAt, err = parseDate(r.get("created_at"))
	if err != nil {
		return nil, r.errorf("created_at", "%w", err)
	}
	issue.ClosedAt, err = parseDate(r.get("closed_at"))
	if err != nil {
		return nil, r.errorf("closed_at", "%w", err)
	}
	return issue, nil
}

// parseDate accepts the date part of "2006-01-02", "2006-01-02 15:04:05..."
// and RFC 3339 timestamps. Empty input yields the zero time.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if i := strings.IndexAny(s, " T"); i >= 0 {
		s = s[:i]
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ReadRelationships parses the relationships CSV.
func ReadRelationships(r io.Reader) ([]Relationship, error) {
	t, err := newTable(r, relationshipColumns)
	if err != nil {
		return nil, err
	}
	var rels []Relationship
	for {
		row, err := t.next()
		if errors.Is(err, io.EOF) {
			return rels, nil
		}
		if err != nil {
			return nil, err
		}
		from, err := row.required("from")
		if err != nil {
			return nil, err
		}
		to, err := row.required("to")
		if err != nil {
			return nil, err
		}
		kind := Kind(strings.TrimSpace(row.get("rel")))
		switch kind {
		case KindBlocks, KindEpic:
		default:
			return nil, row.errorf("rel", "unknown relationship %q", kind)
		}
		rels = append(rels, Relationship{From: from, Kind: kind, To: to})
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.DateTime)
}

// WriteIssues writes issues in the format ReadIssues accepts.
func WriteIssues(w io.Writer, issues []*Issue) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(issueColumns); err != nil {
		return err
	}
	for _, i := range issues {
		estimate := ""
		if i.Estimate != nil {
			estimate = formatEstimate(i.Estimate)
		}
		err := cw.Write([]string{
			i.Repo, i.Number, i.Assignee, estimate, i.Pipeline,
			strings.Join(i.Labels, ";"), strings.Join(i.Teams, ";"),
			formatDate(i.CreatedAt), formatDate(i.ClosedAt), i.URL, i.Title,
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRelationships writes rels in the format ReadRelationships accepts.
func WriteRelationships(w io.Writer, rels []Relationship) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(relationshipColumns); err != nil {
		return err
	}
	for _, r := range rels {
		if err := cw.Write([]string{r.From, string(r.Kind), r.To}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
