// Package github implements the issue gateway on top of the GitHub
// REST API. It owns composing the tracking-issue title and body from a
// ticket snapshot and mapping API failures to gateway errors.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	gh "github.com/google/go-github/v41/github"
	"golang.org/x/oauth2"

	"github.com/m-tereshkin/ticket-triage-service/internal/apperrors"
	"github.com/m-tereshkin/ticket-triage-service/internal/config"
	"github.com/m-tereshkin/ticket-triage-service/internal/domain"
)

// Client wraps the GitHub API client.
type Client struct {
	client *gh.Client
	log    *slog.Logger
}

// NewClient builds an authenticated GitHub client. A domain other than
// github.com points the client at a GitHub Enterprise endpoint.
func NewClient(cfg config.GitHub, log *slog.Logger) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("github token is not configured")
	}

	domainName := cfg.Domain
	if domainName == "" {
		domainName = "github.com"
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	tc := oauth2.NewClient(context.Background(), ts)

	client := gh.NewClient(tc)

	if domainName != "github.com" {
		apiURL := fmt.Sprintf("https://%s/api/v3/", domainName)

		parsedURL, err := url.Parse(apiURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github api url: %w", err)
		}

		client.BaseURL = parsedURL
		client.UploadURL = parsedURL
	}

	log.Info("github gateway configured", slog.String("domain", domainName))

	return &Client{client: client, log: log}, nil
}

// CreateIssue opens a tracking issue in owner/repo. The body is the
// pre-rendered Markdown from the payload wrapped with the ticket link
// header and, when requestID is non-empty, the analyze trailer the
// external reviewer echoes back in its report.
func (c *Client) CreateIssue(ctx context.Context, owner, repo string, payload domain.IssuePayload, requestID string) (*domain.IssueRef, error) {
	const op = "internal.gateway.github.CreateIssue"

	title := fmt.Sprintf("[%s] %s", payload.Ticket.Key, payload.Ticket.Summary)

	body := fmt.Sprintf("## Ticket Link: [%s](%s)\n\n%s\n\n @analyze",
		payload.Ticket.Key, payload.Ticket.Self, payload.Body)
	if requestID != "" {
		body += ": " + requestID
	}

	req := &gh.IssueRequest{
		Title: gh.String(title),
		Body:  gh.String(body),
	}

	if payload.Assignees != "" {
		assignees := splitList(payload.Assignees)
		req.Assignees = &assignees
	}

	if payload.Labels != "" {
		labels := splitList(payload.Labels)
		req.Labels = &labels
	}

	if payload.Milestone > 0 {
		req.Milestone = gh.Int(payload.Milestone)
	}

	issue, resp, err := c.client.Issues.Create(ctx, owner, repo, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, gatewayError(resp, err))
	}

	return &domain.IssueRef{
		Number:  issue.GetNumber(),
		HTMLURL: issue.GetHTMLURL(),
	}, nil
}

// GetIssue fetches a single issue.
func (c *Client) GetIssue(ctx context.Context, owner, repo string, number int) (*domain.Issue, error) {
	const op = "internal.gateway.github.GetIssue"

	issue, resp, err := c.client.Issues.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, gatewayError(resp, err))
	}

	return toDomainIssue(issue), nil
}

var issueURLRe = regexp.MustCompile(`github\.com/([^/]+)/([^/]+)/issues/(\d+)`)

// GetIssueByURL resolves an issue html_url back to owner/repo/number
// and fetches it.
func (c *Client) GetIssueByURL(ctx context.Context, issueURL string) (*domain.Issue, error) {
	const op = "internal.gateway.github.GetIssueByURL"

	m := issueURLRe.FindStringSubmatch(issueURL)
	if m == nil {
		return nil, fmt.Errorf("%s: %w: unrecognized issue url '%s'", op, apperrors.ErrInvalidRequest, issueURL)
	}

	number, err := strconv.Atoi(m[3])
	if err != nil {
		return nil, fmt.Errorf("%s: %w: bad issue number in url '%s'", op, apperrors.ErrInvalidRequest, issueURL)
	}

	return c.GetIssue(ctx, m[1], m[2], number)
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")

	result := make([]string, 0, len(parts))

	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

func gatewayError(resp *gh.Response, err error) error {
	gwErr := &apperrors.GatewayError{Message: err.Error()}
	if resp != nil {
		gwErr.StatusCode = resp.StatusCode
	}

	return gwErr
}

func toDomainIssue(issue *gh.Issue) *domain.Issue {
	return &domain.Issue{
		Number:  issue.GetNumber(),
		Title:   issue.GetTitle(),
		Body:    issue.GetBody(),
		State:   issue.GetState(),
		HTMLURL: issue.GetHTMLURL(),
	}
}
