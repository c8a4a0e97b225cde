// Package service drives the analysis workflows: fanning tracking
// issues out across the selected repositories, reconciling free-text
// reports back into the stored record, and routing raw tickets to a
// team.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/m-tereshkin/ticket-triage-service/internal/apperrors"
	"github.com/m-tereshkin/ticket-triage-service/internal/config"
	"github.com/m-tereshkin/ticket-triage-service/internal/domain"
	"github.com/m-tereshkin/ticket-triage-service/internal/extract"
	"github.com/m-tereshkin/ticket-triage-service/internal/markup"
	"github.com/m-tereshkin/ticket-triage-service/internal/repository"
	"github.com/m-tereshkin/ticket-triage-service/internal/router"
	"github.com/m-tereshkin/ticket-triage-service/pkg/logger/sl"
)

const (
	// progressMarker is stored in a repo entry until a report for that
	// repository is reconciled.
	progressMarker = "分析進行中..."
	failurePrefix  = "分析失敗: "
)

// IssueGateway opens tracking issues on the repository host.
type IssueGateway interface {
	CreateIssue(ctx context.Context, owner, repo string, payload domain.IssuePayload, requestID string) (*domain.IssueRef, error)
}

// TicketFetcher loads a full ticket snapshot from the tracker. Used to
// enrich webhook payloads that carry only a ticket key.
type TicketFetcher interface {
	GetTicket(ctx context.Context, key string) (*domain.TicketSnapshot, error)
}

type AnalyzeService interface {
	AnalyzeRepositories(ctx context.Context, ticket domain.TicketSnapshot, targets []domain.RepoTarget) (*domain.AnalysisResult, error)
	HandleTicket(ctx context.Context, ticket domain.TicketSnapshot) (*domain.AnalysisResult, error)
	SubmitResult(ctx context.Context, repository string, report string) (*domain.ReconciliationSummary, error)
	GetStatus(ctx context.Context, requestID string) (*domain.AnalysisRequest, error)
}

type AnalyzeServiceImpl struct {
	store    repository.RequestStore
	gateway  IssueGateway
	tickets  TicketFetcher // nil disables tracker enrichment
	router   *router.Router
	fallback config.DefaultTeam
	log      *slog.Logger
	locks    *requestLocks
}

func NewAnalyzeService(
	store repository.RequestStore,
	gateway IssueGateway,
	tickets TicketFetcher,
	rt *router.Router,
	fallback config.DefaultTeam,
	log *slog.Logger,
) *AnalyzeServiceImpl {
	return &AnalyzeServiceImpl{
		store:    store,
		gateway:  gateway,
		tickets:  tickets,
		router:   rt,
		fallback: fallback,
		log:      log,
		locks:    newRequestLocks(),
	}
}

// AnalyzeRepositories runs the create workflow against an explicit
// repository list and waits for every per-repository task to finish
// before returning the aggregate. A gateway failure on one repository
// is recorded in that entry and never aborts the siblings.
func (s *AnalyzeServiceImpl) AnalyzeRepositories(ctx context.Context, ticket domain.TicketSnapshot, targets []domain.RepoTarget) (*domain.AnalysisResult, error) {
	const op = "internal.service.analyze.AnalyzeRepositories"
	log := s.log.With(slog.String("op", op), slog.String("ticket_key", ticket.Key))

	record, err := s.createRecord(ctx, ticket, targets)
	if err != nil {
		return nil, err
	}

	log.Info("analysis request created",
		slog.String("request_id", record.RequestID),
		slog.Int("repositories", len(targets)),
	)

	s.fanOut(ctx, record.RequestID, ticket, targets)

	final, err := s.store.FindByRequestID(ctx, record.RequestID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to load final record: %w", op, err)
	}

	return toAnalysisResult(final), nil
}

// HandleTicket routes a raw tracker ticket to a team and starts the
// create workflow asynchronously. The returned aggregate reflects the
// freshly persisted record, still in processing state.
func (s *AnalyzeServiceImpl) HandleTicket(ctx context.Context, ticket domain.TicketSnapshot) (*domain.AnalysisResult, error) {
	const op = "internal.service.analyze.HandleTicket"
	log := s.log.With(slog.String("op", op), slog.String("ticket_key", ticket.Key))

	if ticket.Summary == "" && ticket.Description == "" && ticket.Key != "" && s.tickets != nil {
		fetched, err := s.tickets.GetTicket(ctx, ticket.Key)
		if err != nil {
			log.Warn("failed to fetch ticket from tracker", sl.Err(err))
		} else {
			ticket = *fetched
		}
	}

	// Routing scores the summary only. The description feeds the issue
	// body, never the team choice.
	routed := s.router.Route(ticket.Summary)

	var targets []domain.RepoTarget

	if routed.BestMatch == nil {
		log.Warn("no team matched ticket, falling back to default",
			slog.String("team", s.fallback.Team),
			slog.String("repository", s.fallback.Owner+"/"+s.fallback.Repo),
		)

		targets = []domain.RepoTarget{{Owner: s.fallback.Owner, Repo: s.fallback.Repo}}
	} else {
		log.Info("ticket routed",
			slog.String("team", routed.Team),
			slog.Int("score", routed.BestMatch.Score),
			slog.Any("matched_keywords", routed.BestMatch.MatchedKeywords),
		)

		targets = make([]domain.RepoTarget, len(routed.AllTeamRepos))
		for i, repo := range routed.AllTeamRepos {
			targets[i] = domain.RepoTarget{Owner: repo.Owner, Repo: repo.Repo}
		}
	}

	record, err := s.createRecord(ctx, ticket, targets)
	if err != nil {
		return nil, err
	}

	go s.fanOut(context.WithoutCancel(ctx), record.RequestID, ticket, targets)

	return toAnalysisResult(record), nil
}

// SubmitResult reconciles one free-text analysis report into the record
// it correlates with. An unknown or absent correlation id skips the
// merge silently; the summary is built from the report either way.
func (s *AnalyzeServiceImpl) SubmitResult(ctx context.Context, repoFullName string, report string) (*domain.ReconciliationSummary, error) {
	const op = "internal.service.analyze.SubmitResult"
	log := s.log.With(slog.String("op", op), slog.String("repository", repoFullName))

	extracted := extract.Parse(report)

	summary := &domain.ReconciliationSummary{
		Repository:   repoFullName,
		Score:        extracted.Score,
		RelatedFiles: extracted.RelatedFiles,
	}

	if extracted.CorrelationID == "" {
		log.Info("report carries no correlation id, skipping merge")

		return summary, nil
	}

	unlock := s.locks.lock(extracted.CorrelationID)
	defer unlock()

	record, err := s.store.FindByRequestID(ctx, extracted.CorrelationID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			log.Info("no record for correlation id, skipping merge",
				slog.String("correlation_id", extracted.CorrelationID))

			return summary, nil
		}

		return nil, fmt.Errorf("%s: failed to load record: %w", op, err)
	}

	if entry := record.FindRepoResult(repoFullName); entry != nil {
		entry.Score = extracted.Score
		entry.RelatedFiles = extracted.RelatedFiles
		entry.Analysis = report

		summary.IssueNumber = entry.IssueNumber
		summary.IssueURL = entry.IssueURL
	}

	if err := s.store.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("%s: failed to save record: %w", op, err)
	}

	log.Info("report reconciled",
		slog.String("correlation_id", extracted.CorrelationID),
		slog.String("score", extracted.Score),
	)

	return summary, nil
}

func (s *AnalyzeServiceImpl) GetStatus(ctx context.Context, requestID string) (*domain.AnalysisRequest, error) {
	const op = "internal.service.analyze.GetStatus"

	record, err := s.store.FindByRequestID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to find request: %w", op, err)
	}

	return record, nil
}

// createRecord persists the fresh record with one placeholder entry
// per target repository. This is the only step whose failure fails the
// whole create workflow.
func (s *AnalyzeServiceImpl) createRecord(ctx context.Context, ticket domain.TicketSnapshot, targets []domain.RepoTarget) (*domain.AnalysisRequest, error) {
	const op = "internal.service.analyze.createRecord"

	results := make(domain.RepoResults, len(targets))
	for i, target := range targets {
		results[i] = domain.RepoResult{
			Repository:   target.FullName(),
			RelatedFiles: []string{},
			Analysis:     progressMarker,
		}
	}

	record := &domain.AnalysisRequest{
		RequestID:     newRequestID(),
		TicketKey:     ticket.Key,
		TicketContext: ticket,
		RepoResults:   results,
		Status:        domain.StatusProcessing,
	}

	if err := s.store.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("%s: failed to create request record: %w", op, err)
	}

	return record, nil
}

// fanOut runs one issue-creation task per target repository and marks
// the record completed after all of them have joined.
func (s *AnalyzeServiceImpl) fanOut(ctx context.Context, requestID string, ticket domain.TicketSnapshot, targets []domain.RepoTarget) {
	var wg sync.WaitGroup

	for _, target := range targets {
		wg.Add(1)

		go func(target domain.RepoTarget) {
			defer wg.Done()
			s.createRepoIssue(ctx, requestID, ticket, target)
		}(target)
	}

	wg.Wait()

	if err := s.updateRecord(ctx, requestID, func(record *domain.AnalysisRequest) {
		record.Status = domain.StatusCompleted
	}); err != nil {
		s.log.Error("failed to mark request completed",
			slog.String("request_id", requestID), sl.Err(err))
	}
}

func (s *AnalyzeServiceImpl) createRepoIssue(ctx context.Context, requestID string, ticket domain.TicketSnapshot, target domain.RepoTarget) {
	const op = "internal.service.analyze.createRepoIssue"
	log := s.log.With(
		slog.String("op", op),
		slog.String("request_id", requestID),
		slog.String("repository", target.FullName()),
	)

	body := target.AnalysisPrompt
	if body == "" {
		body = ticket.Description
	}

	payload := domain.IssuePayload{
		Ticket:    ticket,
		Body:      markup.Convert(body),
		Assignees: ticket.Assignees,
		Labels:    ticket.Labels,
	}

	ref, gwErr := s.gateway.CreateIssue(ctx, target.Owner, target.Repo, payload, requestID)
	if gwErr != nil {
		log.Warn("issue creation failed, recording in repo entry", sl.Err(gwErr))
	}

	err := s.updateRecord(ctx, requestID, func(record *domain.AnalysisRequest) {
		entry := record.FindRepoResult(target.FullName())
		if entry == nil {
			return
		}

		if gwErr != nil {
			entry.Analysis = failurePrefix + gwErr.Error()
			return
		}

		entry.IssueNumber = ref.Number
		entry.IssueURL = ref.HTMLURL
	})
	if err != nil {
		log.Error("failed to update repo entry", sl.Err(err))
		return
	}

	if gwErr == nil {
		log.Info("tracking issue created", slog.Int("issue_number", ref.Number))
	}
}

// updateRecord serializes a read-modify-write cycle for one record
// through its per-request lock.
func (s *AnalyzeServiceImpl) updateRecord(ctx context.Context, requestID string, mutate func(*domain.AnalysisRequest)) error {
	const op = "internal.service.analyze.updateRecord"

	unlock := s.locks.lock(requestID)
	defer unlock()

	record, err := s.store.FindByRequestID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("%s: failed to load record: %w", op, err)
	}

	mutate(record)

	if err := s.store.Save(ctx, record); err != nil {
		return fmt.Errorf("%s: failed to save record: %w", op, err)
	}

	return nil
}

func newRequestID() string {
	return "req_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func toAnalysisResult(record *domain.AnalysisRequest) *domain.AnalysisResult {
	return &domain.AnalysisResult{
		RequestID:   record.RequestID,
		TicketKey:   record.TicketKey,
		RepoResults: record.RepoResults,
		Status:      record.Status,
	}
}
