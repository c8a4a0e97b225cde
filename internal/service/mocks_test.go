package service

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/m-tereshkin/ticket-triage-service/internal/apperrors"
	"github.com/m-tereshkin/ticket-triage-service/internal/domain"
	"github.com/m-tereshkin/ticket-triage-service/internal/repository"
)

type IssueGatewayMock struct {
	mock.Mock
}

var _ IssueGateway = (*IssueGatewayMock)(nil)

func (m *IssueGatewayMock) CreateIssue(ctx context.Context, owner, repo string, payload domain.IssuePayload, requestID string) (*domain.IssueRef, error) {
	args := m.Called(ctx, owner, repo, payload, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.IssueRef), args.Error(1)
}

type TicketFetcherMock struct {
	mock.Mock
}

var _ TicketFetcher = (*TicketFetcherMock)(nil)

func (m *TicketFetcherMock) GetTicket(ctx context.Context, key string) (*domain.TicketSnapshot, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.TicketSnapshot), args.Error(1)
}

// memStore is an in-memory RequestStore with the same whole-record
// overwrite semantics as the postgres implementation. Find hands out a
// deep copy, so a stale read that is saved back drops concurrent
// writes exactly like the real store would.
type memStore struct {
	mu      sync.Mutex
	records map[string]domain.AnalysisRequest
}

var _ repository.RequestStore = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{records: make(map[string]domain.AnalysisRequest)}
}

func (s *memStore) Create(_ context.Context, record *domain.AnalysisRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[record.RequestID]; ok {
		return &apperrors.RequestAlreadyExistsError{RequestID: record.RequestID}
	}

	s.records[record.RequestID] = deepCopy(record)

	return nil
}

func (s *memStore) Save(_ context.Context, record *domain.AnalysisRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[record.RequestID]; !ok {
		return apperrors.ErrNotFound
	}

	s.records[record.RequestID] = deepCopy(record)

	return nil
}

func (s *memStore) FindByRequestID(_ context.Context, requestID string) (*domain.AnalysisRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[requestID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}

	copied := deepCopy(&record)

	return &copied, nil
}

func deepCopy(record *domain.AnalysisRequest) domain.AnalysisRequest {
	copied := *record

	copied.RepoResults = make(domain.RepoResults, len(record.RepoResults))
	for i, entry := range record.RepoResults {
		copied.RepoResults[i] = entry
		copied.RepoResults[i].RelatedFiles = append([]string(nil), entry.RelatedFiles...)
	}

	return copied
}
