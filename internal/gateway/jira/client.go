// Package jira provides the optional tracker lookup used when an
// inbound webhook carries only a ticket key. It is disabled entirely
// when no Jira credentials are configured.
package jira

import (
	"context"
	"fmt"
	"log/slog"

	gojira "github.com/andygrunwald/go-jira"

	"github.com/m-tereshkin/ticket-triage-service/internal/config"
	"github.com/m-tereshkin/ticket-triage-service/internal/domain"
)

// Client wraps the Jira API client.
type Client struct {
	client *gojira.Client
	log    *slog.Logger
}

// NewClient builds an authenticated Jira client from configuration.
func NewClient(cfg config.Jira, log *slog.Logger) (*Client, error) {
	if cfg.URL == "" || cfg.Username == "" || cfg.Token == "" {
		return nil, fmt.Errorf("jira url, username and token must all be configured")
	}

	tp := gojira.BasicAuthTransport{
		Username: cfg.Username,
		Password: cfg.Token,
	}

	client, err := gojira.NewClient(tp.Client(), cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to create jira client: %w", err)
	}

	log.Info("jira gateway configured", slog.String("url", cfg.URL))

	return &Client{client: client, log: log}, nil
}

// GetTicket fetches a ticket by key and converts it to a snapshot.
func (c *Client) GetTicket(ctx context.Context, key string) (*domain.TicketSnapshot, error) {
	const op = "internal.gateway.jira.GetTicket"

	issue, _, err := c.client.Issue.GetWithContext(ctx, key, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to fetch ticket '%s': %w", op, key, err)
	}

	return &domain.TicketSnapshot{
		Key:         issue.Key,
		Summary:     issue.Fields.Summary,
		Description: issue.Fields.Description,
		Self:        issue.Self,
	}, nil
}
