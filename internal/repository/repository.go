// package repository defines the interfaces for the data persistence layer.
// These interfaces abstract the underlying database implementation from the service layer.
package repository

import (
	"context"

	"github.com/m-tereshkin/ticket-triage-service/internal/domain"
)

// RequestStore is the persistence contract for analysis requests. The
// store offers whole-record operations only; there is no
// partial-field update primitive, so callers that mutate one repo
// entry must serialize their read-modify-write cycles themselves
// (the orchestration engine holds a per-request lock for this).
type RequestStore interface {
	// Create inserts a new record. It returns
	// apperrors.ErrAlreadyExists if the request id is already taken.
	Create(ctx context.Context, record *domain.AnalysisRequest) error

	// Save overwrites the mutable fields of an existing record
	// (repo results and status) and refreshes updated_at.
	// It returns apperrors.ErrNotFound if the record does not exist.
	Save(ctx context.Context, record *domain.AnalysisRequest) error

	// FindByRequestID retrieves a record by its correlation token.
	// It returns apperrors.ErrNotFound if no record matches.
	FindByRequestID(ctx context.Context, requestID string) (*domain.AnalysisRequest, error)
}
