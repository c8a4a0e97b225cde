package http

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/m-tereshkin/ticket-triage-service/internal/domain"
	"github.com/m-tereshkin/ticket-triage-service/internal/service"
)

type AnalyzeServiceMock struct {
	mock.Mock
}

var _ service.AnalyzeService = (*AnalyzeServiceMock)(nil)

func (m *AnalyzeServiceMock) AnalyzeRepositories(ctx context.Context, ticket domain.TicketSnapshot, targets []domain.RepoTarget) (*domain.AnalysisResult, error) {
	args := m.Called(ctx, ticket, targets)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.AnalysisResult), args.Error(1)
}

func (m *AnalyzeServiceMock) HandleTicket(ctx context.Context, ticket domain.TicketSnapshot) (*domain.AnalysisResult, error) {
	args := m.Called(ctx, ticket)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.AnalysisResult), args.Error(1)
}

func (m *AnalyzeServiceMock) SubmitResult(ctx context.Context, repository string, report string) (*domain.ReconciliationSummary, error) {
	args := m.Called(ctx, repository, report)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.ReconciliationSummary), args.Error(1)
}

func (m *AnalyzeServiceMock) GetStatus(ctx context.Context, requestID string) (*domain.AnalysisRequest, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.AnalysisRequest), args.Error(1)
}

type IssueReaderMock struct {
	mock.Mock
}

var _ IssueReader = (*IssueReaderMock)(nil)

func (m *IssueReaderMock) GetIssue(ctx context.Context, owner, repo string, number int) (*domain.Issue, error) {
	args := m.Called(ctx, owner, repo, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Issue), args.Error(1)
}

func (m *IssueReaderMock) GetIssueByURL(ctx context.Context, issueURL string) (*domain.Issue, error) {
	args := m.Called(ctx, issueURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Issue), args.Error(1)
}
