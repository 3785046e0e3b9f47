package issues

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	gh "github.com/google/go-github/v60/github"

	"github.com/cgast/dialogcheck/pkg/runner"
)

// DefaultLabels are applied when no labels are configured.
var DefaultLabels = []string{"dialogcheck"}

// Issue identifies the issue a run was reported to.
type Issue struct {
	Number  int    `json:"number"`
	URL     string `json:"html_url"`
	Comment bool   `json:"comment"` // true when an open issue was updated instead of created
}

// Reporter files one issue per failing suite. While an issue for a suite is
// still open, further failing runs are added to it as comments.
type Reporter struct {
	client *Client
	owner  string
	repo   string
	labels []string
}

// NewReporter creates a reporter for repo ("owner/name").
func NewReporter(client *Client, repo string, labels []string) (*Reporter, error) {
	owner, name, err := ParseRepo(repo)
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		labels = DefaultLabels
	}
	return &Reporter{client: client, owner: owner, repo: name, labels: labels}, nil
}

// Report files report. Passing runs are not reported and return a nil Issue.
func (r *Reporter) Report(ctx context.Context, report runner.Report) (*Issue, error) {
	if report.Passed {
		return nil, nil
	}

	title := Title(report)
	body := Body(report)

	existing, err := r.findOpen(ctx, title)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		_, _, err := r.client.inner.Issues.CreateComment(ctx, r.owner, r.repo, existing.GetNumber(), &gh.IssueComment{Body: &body})
		if err != nil {
			return nil, fmt.Errorf("comment on issue #%d: %w", existing.GetNumber(), err)
		}
		return &Issue{Number: existing.GetNumber(), URL: existing.GetHTMLURL(), Comment: true}, nil
	}

	labels := append([]string(nil), r.labels...)
	issue, _, err := r.client.inner.Issues.Create(ctx, r.owner, r.repo, &gh.IssueRequest{
		Title:  &title,
		Body:   &body,
		Labels: &labels,
	})
	if err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}
	return &Issue{Number: issue.GetNumber(), URL: issue.GetHTMLURL()}, nil
}

func (r *Reporter) findOpen(ctx context.Context, title string) (*gh.Issue, error) {
	opts := &gh.IssueListByRepoOptions{
		State:       "open",
		Labels:      r.labels,
		ListOptions: gh.ListOptions{PerPage: 100},
	}
	open, _, err := r.client.inner.Issues.ListByRepo(ctx, r.owner, r.repo, opts)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	for _, issue := range open {
		if !issue.IsPullRequest() && issue.GetTitle() == title {
			return issue, nil
		}
	}
	return nil, nil
}

// Title is the issue title for a failing run of report's suite.
func Title(report runner.Report) string {
	return fmt.Sprintf("dialogcheck: suite %q is failing", report.Suite)
}

// Body renders report as markdown. Diagnostics are fenced since they may
// contain diffs.
func Body(report runner.Report) string {
	passed, failed := report.Counts()

	var b strings.Builder
	fmt.Fprintf(&b, "Suite **%s** failed %d of %d cases", report.Suite, failed, passed+failed)
	if report.Project != "" {
		fmt.Fprintf(&b, " against project `%s`", report.Project)
	}
	b.WriteString(".\n\n")

	b.WriteString("| | |\n|---|---|\n")
	if report.ID != "" {
		fmt.Fprintf(&b, "| Run | `%s` |\n", report.ID)
	}
	fmt.Fprintf(&b, "| Started | %s |\n", report.StartedAt.UTC().Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "| Duration | %s |\n", report.Duration().Round(time.Millisecond))
	if report.Surface != "" {
		fmt.Fprintf(&b, "| Surface | %s |\n", report.Surface)
	}
	if report.Language != "" {
		fmt.Fprintf(&b, "| Language | %s |\n", report.Language)
	}

	for _, c := range report.FailedCases() {
		fmt.Fprintf(&b, "\n### %s\n\n", c.Name)
		fmt.Fprintf(&b, "Query: `%s`", c.Query)
		if c.Intent != "" {
			fmt.Fprintf(&b, " (matched intent `%s`)", c.Intent)
		}
		b.WriteString("\n")

		if c.Error != "" {
			fmt.Fprintf(&b, "\nRequest failed:\n\n```\n%s\n```\n", c.Error)
			continue
		}
		for _, f := range c.Failures {
			fmt.Fprintf(&b, "\n- **%s**\n\n```\n%s\n```\n", f.Type, strings.TrimRight(stripANSI(f.Explanation), "\n"))
		}
	}
	return b.String()
}

var ansiPattern = regexp.MustCompile("\x1b\\[[0-9;]*m")

func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}
