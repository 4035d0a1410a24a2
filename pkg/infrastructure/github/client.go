// Package github implements the remote-repository collaborator against
// the GitHub REST API. Each history event maps to exactly one remote
// mutation; multi-step consistency inside a mutation is handled here,
// not by the executor.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/google/go-github/v69/github"
	"golang.org/x/oauth2"

	"github.com/felixgeelhaar/weaver/pkg/domain/history"
	"github.com/felixgeelhaar/weaver/pkg/domain/remote"
)

// ReviewDrafter produces a short review comment for a pull request.
// Wired to the planner's draft capability; optional.
type ReviewDrafter interface {
	DraftReviewComment(ctx context.Context, prTitle, snippet string) string
}

// Client talks to the GitHub API. It caches the authenticated API
// client per token; VerifyAccess also learns the repository's default
// branch so later events can branch and merge against it.
type Client struct {
	baseURL    string
	httpClient *http.Client
	reviewer   ReviewDrafter

	mu            sync.Mutex
	api           *github.Client
	apiToken      string
	defaultBranch string
}

func NewClient() *Client {
	return &Client{defaultBranch: "main"}
}

// NewClientWithBaseURL points the client at a different API root (for
// testing against httptest servers). baseURL must end with a slash.
func NewClientWithBaseURL(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:       baseURL,
		httpClient:    httpClient,
		defaultBranch: "main",
	}
}

// SetReviewer attaches a review-comment drafter used on PR events.
func (c *Client) SetReviewer(r ReviewDrafter) {
	c.reviewer = r
}

func (c *Client) client(ctx context.Context, token string) (*github.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.api != nil && c.apiToken == token {
		return c.api, nil
	}

	base := c.httpClient
	if token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		octx := ctx
		if base != nil {
			octx = context.WithValue(ctx, oauth2.HTTPClient, base)
		}
		base = oauth2.NewClient(octx, src)
	}

	gh := github.NewClient(base)
	if c.baseURL != "" {
		u, err := url.Parse(c.baseURL)
		if err != nil {
			return nil, fmt.Errorf("parse base URL: %w", err)
		}
		gh.BaseURL = u
	}

	c.api = gh
	c.apiToken = token
	return gh, nil
}

// VerifyAccess checks that the token can see the repository. Called
// once at the start of a run; failure aborts the run.
func (c *Client) VerifyAccess(ctx context.Context, token, owner, repo string) error {
	gh, err := c.client(ctx, token)
	if err != nil {
		return err
	}

	repository, _, err := gh.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return wrapAPIError(fmt.Errorf("repository %s/%s not accessible: %w", owner, repo, err))
	}

	if branch := repository.GetDefaultBranch(); branch != "" {
		c.mu.Lock()
		c.defaultBranch = branch
		c.mu.Unlock()
	}
	return nil
}

// ExecuteEvent performs the remote mutation for one history event and
// returns a human-readable result message.
func (c *Client) ExecuteEvent(ctx context.Context, event history.HistoryEvent, cfg history.WeaveConfig) (string, error) {
	gh, err := c.client(ctx, cfg.Token)
	if err != nil {
		return "", err
	}

	owner, repo := cfg.Username, cfg.Repository

	var message string
	switch event.Kind {
	case history.KindCommit:
		message, err = c.createCommit(ctx, gh, owner, repo, event, cfg)
	case history.KindBranch:
		message, err = c.createBranch(ctx, gh, owner, repo, event)
	case history.KindMerge:
		message, err = c.mergeBranch(ctx, gh, owner, repo, event)
	case history.KindIssue:
		message, err = c.createIssue(ctx, gh, owner, repo, event)
	case history.KindPR:
		message, err = c.openPullRequest(ctx, gh, owner, repo, event)
	case history.KindTag:
		message, err = c.createTag(ctx, gh, owner, repo, event)
	default:
		return "", fmt.Errorf("unknown event kind %q", event.Kind)
	}
	if err != nil {
		return "", wrapAPIError(err)
	}
	return message, nil
}

func (c *Client) createCommit(ctx context.Context, gh *github.Client, owner, repo string, event history.HistoryEvent, cfg history.WeaveConfig) (string, error) {
	commitMessage := event.Title
	if hasAchievement(cfg, "co-authored-commits") {
		commitMessage += fmt.Sprintf("\n\nCo-authored-by: %s <%s@users.noreply.github.com>", event.Author, event.Author)
	}

	path := fmt.Sprintf("history/%s-%s.md", event.Date.Format(history.DateLayout), slugify(event.Title))
	content := fmt.Sprintf("# %s\n\n%s\n", event.Title, event.Description)

	opts := &github.RepositoryContentFileOptions{
		Message: github.Ptr(commitMessage),
		Content: []byte(content),
		Author: &github.CommitAuthor{
			Name:  github.Ptr(event.Author),
			Email: github.Ptr(event.Author + "@users.noreply.github.com"),
			Date:  &github.Timestamp{Time: event.Date},
		},
	}
	if event.Branch != "" && event.Branch != c.currentDefaultBranch() {
		opts.Branch = github.Ptr(event.Branch)
	}

	if _, _, err := gh.Repositories.CreateFile(ctx, owner, repo, path, opts); err != nil {
		return "", fmt.Errorf("create commit: %w", err)
	}
	return fmt.Sprintf("Committed %q (%d files)", event.Title, max(event.FilesChanged, 1)), nil
}

func (c *Client) createBranch(ctx context.Context, gh *github.Client, owner, repo string, event history.HistoryEvent) (string, error) {
	branch := event.Branch
	if branch == "" {
		branch = "feature/" + slugify(event.Title)
	}

	base := c.currentDefaultBranch()
	baseRef, _, err := gh.Git.GetRef(ctx, owner, repo, "heads/"+base)
	if err != nil {
		return "", fmt.Errorf("resolve base branch %s: %w", base, err)
	}

	ref := &github.Reference{
		Ref:    github.Ptr("refs/heads/" + branch),
		Object: &github.GitObject{SHA: baseRef.Object.SHA},
	}
	if _, _, err := gh.Git.CreateRef(ctx, owner, repo, ref); err != nil {
		return "", fmt.Errorf("create branch %s: %w", branch, err)
	}
	return fmt.Sprintf("Created branch %s from %s", branch, base), nil
}

func (c *Client) mergeBranch(ctx context.Context, gh *github.Client, owner, repo string, event history.HistoryEvent) (string, error) {
	head := event.Branch
	if head == "" {
		return "", fmt.Errorf("merge event %s has no branch", event.ID)
	}
	base := c.currentDefaultBranch()

	req := &github.RepositoryMergeRequest{
		Base:          github.Ptr(base),
		Head:          github.Ptr(head),
		CommitMessage: github.Ptr(event.Title),
	}
	if _, _, err := gh.Repositories.Merge(ctx, owner, repo, req); err != nil {
		return "", fmt.Errorf("merge %s into %s: %w", head, base, err)
	}
	return fmt.Sprintf("Merged %s into %s", head, base), nil
}

func (c *Client) createIssue(ctx context.Context, gh *github.Client, owner, repo string, event history.HistoryEvent) (string, error) {
	req := &github.IssueRequest{
		Title: github.Ptr(event.Title),
		Body:  github.Ptr(event.Description),
	}
	if len(event.Tags) > 0 {
		labels := append([]string(nil), event.Tags...)
		req.Labels = &labels
	}

	issue, _, err := gh.Issues.Create(ctx, owner, repo, req)
	if err != nil {
		return "", fmt.Errorf("create issue: %w", err)
	}

	// A "closed" tag models rapid turnaround: open and resolve in one
	// event.
	if containsTag(event.Tags, "closed") {
		edit := &github.IssueRequest{State: github.Ptr("closed")}
		if _, _, err := gh.Issues.Edit(ctx, owner, repo, issue.GetNumber(), edit); err != nil {
			return "", fmt.Errorf("close issue #%d: %w", issue.GetNumber(), err)
		}
		return fmt.Sprintf("Opened and closed issue #%d: %s", issue.GetNumber(), event.Title), nil
	}
	return fmt.Sprintf("Opened issue #%d: %s", issue.GetNumber(), event.Title), nil
}

func (c *Client) openPullRequest(ctx context.Context, gh *github.Client, owner, repo string, event history.HistoryEvent) (string, error) {
	head := event.Branch
	if head == "" {
		return "", fmt.Errorf("pr event %s has no branch", event.ID)
	}

	pr := &github.NewPullRequest{
		Title: github.Ptr(event.Title),
		Head:  github.Ptr(head),
		Base:  github.Ptr(c.currentDefaultBranch()),
		Body:  github.Ptr(event.Description),
	}
	created, _, err := gh.PullRequests.Create(ctx, owner, repo, pr)
	if err != nil {
		return "", fmt.Errorf("open pull request: %w", err)
	}

	if c.reviewer != nil {
		comment := c.reviewer.DraftReviewComment(ctx, event.Title, event.Description)
		if comment != "" {
			ic := &github.IssueComment{Body: github.Ptr(comment)}
			// Review-comment delivery is narrative garnish: the PR
			// itself already succeeded, so a comment failure is not an
			// event failure.
			_, _, _ = gh.Issues.CreateComment(ctx, owner, repo, created.GetNumber(), ic)
		}
	}
	return fmt.Sprintf("Opened pull request #%d: %s", created.GetNumber(), event.Title), nil
}

func (c *Client) createTag(ctx context.Context, gh *github.Client, owner, repo string, event history.HistoryEvent) (string, error) {
	base := c.currentDefaultBranch()
	baseRef, _, err := gh.Git.GetRef(ctx, owner, repo, "heads/"+base)
	if err != nil {
		return "", fmt.Errorf("resolve %s for tag: %w", base, err)
	}

	name := slugify(event.Title)
	ref := &github.Reference{
		Ref:    github.Ptr("refs/tags/" + name),
		Object: &github.GitObject{SHA: baseRef.Object.SHA},
	}
	if _, _, err := gh.Git.CreateRef(ctx, owner, repo, ref); err != nil {
		return "", fmt.Errorf("create tag %s: %w", name, err)
	}
	return fmt.Sprintf("Tagged %s at %s", name, base), nil
}

func (c *Client) currentDefaultBranch() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.defaultBranch
}

// wrapAPIError converts GitHub rate-limit responses into the domain's
// rate-limit error class so the executor can apply its bounded retry.
func wrapAPIError(err error) error {
	var rle *github.RateLimitError
	var arle *github.AbuseRateLimitError
	if errors.As(err, &rle) || errors.As(err, &arle) {
		return &remote.RateLimitError{Err: err}
	}
	return err
}

func hasAchievement(cfg history.WeaveConfig, id string) bool {
	for _, a := range cfg.Achievements {
		if a == id {
			return true
		}
	}
	return false
}

func containsTag(tags []string, want string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, want) {
			return true
		}
	}
	return false
}

var (
	slugCleaner  = regexp.MustCompile(`[^a-z0-9-]+`)
	slugSqueezer = regexp.MustCompile(`-{2,}`)
)

func slugify(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, " ", "-")
	normalized = slugCleaner.ReplaceAllString(normalized, "-")
	normalized = slugSqueezer.ReplaceAllString(normalized, "-")
	return strings.Trim(normalized, "-")
}
