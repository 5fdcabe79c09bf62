package ghapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/coder/retry"
	"github.com/google/go-github/v59/github"
)

// Pager walks paginated listings, retrying pages that fail with a server
// error.
type Pager struct {
	Log *slog.Logger
	// PerPage defaults to 100.
	PerPage int
	// Floor and Ceil bound the retry backoff. Zero disables retries.
	Floor, Ceil time.Duration
}

func (p *Pager) perPage() int {
	if p.PerPage == 0 {
		return 100
	}
	return p.PerPage
}

func isServerError(err error) bool {
	var ghErr *github.ErrorResponse
	return errors.As(err, &ghErr) &&
		ghErr.Response != nil &&
		ghErr.Response.StatusCode >= 500
}

// Page returns at most n items from a paginated list. A negative n means
// no limit.
func Page[T any](
	ctx context.Context,
	p *Pager,
	get func(context.Context, *github.ListOptions) ([]T, *github.Response, error),
	n int,
) ([]T, error) {
	var all []T
	if n == 0 {
		return all, nil
	}
	opt := &github.ListOptions{PerPage: p.perPage()}
	for {
		var ret *retry.Retrier
		if p.Ceil > 0 {
			ret = retry.New(p.Floor, p.Ceil)
		}
	retryPage:
		items, resp, err := get(ctx, opt)
		if err != nil {
			if ret != nil && isServerError(err) && ret.Wait(ctx) {
				if p.Log != nil {
					p.Log.Warn("retrying page", "page", opt.Page, "error", err)
				}
				goto retryPage
			}
			return nil, fmt.Errorf("list: %w", err)
		}
		for _, item := range items {
			all = append(all, item)
			if len(all) == n {
				return all, nil
			}
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return all, nil
}

// OnlyTrueIssues drops pull requests, which the issues API also returns.
func OnlyTrueIssues(
	slice []*github.Issue,
) []*github.Issue {
	var result []*github.Issue
	for _, item := range slice {
		if item.IsPullRequest() {
			continue
		}
		result = append(result, item)
	}
	return result
}
