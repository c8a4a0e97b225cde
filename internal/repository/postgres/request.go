package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/m-tereshkin/ticket-triage-service/internal/apperrors"
	"github.com/m-tereshkin/ticket-triage-service/internal/domain"
)

// AnalysisRequestRepository persists analysis request records in a
// single row each, with the ticket snapshot and the per-repository
// results held in jsonb columns.
type AnalysisRequestRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewAnalysisRequestRepository(db *sqlx.DB, log *slog.Logger) *AnalysisRequestRepository {
	return &AnalysisRequestRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *AnalysisRequestRepository) Create(ctx context.Context, record *domain.AnalysisRequest) error {
	const op = "internal.repository.postgres.Create"

	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now

	query, args, err := r.sq.Insert("analysis_requests").
		Columns("request_id", "ticket_key", "ticket_context", "repo_results", "status", "created_at", "updated_at").
		Values(record.RequestID, record.TicketKey, record.TicketContext, record.RepoResults, record.Status, record.CreatedAt, record.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	if err := r.db.GetContext(ctx, &record.ID, query, args...); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return &apperrors.RequestAlreadyExistsError{RequestID: record.RequestID}
		}

		return fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	return nil
}

func (r *AnalysisRequestRepository) Save(ctx context.Context, record *domain.AnalysisRequest) error {
	const op = "internal.repository.postgres.Save"

	record.UpdatedAt = time.Now().UTC()

	query, args, err := r.sq.Update("analysis_requests").
		Set("repo_results", record.RepoResults).
		Set("status", record.Status).
		Set("updated_at", record.UpdatedAt).
		Where(sq.Eq{"request_id": record.RequestID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: failed to execute update: %w", op, err)
	}

	if rowsAffected, err := res.RowsAffected(); err == nil && rowsAffected == 0 {
		return fmt.Errorf("%s: %w: request with id '%s'", op, apperrors.ErrNotFound, record.RequestID)
	}

	return nil
}

func (r *AnalysisRequestRepository) FindByRequestID(ctx context.Context, requestID string) (*domain.AnalysisRequest, error) {
	const op = "internal.repository.postgres.FindByRequestID"

	query, args, err := r.sq.Select("id", "request_id", "ticket_key", "ticket_context", "repo_results", "status", "created_at", "updated_at").
		From("analysis_requests").
		Where(sq.Eq{"request_id": requestID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var record domain.AnalysisRequest
	if err := r.db.GetContext(ctx, &record, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: request with id '%s'", op, apperrors.ErrNotFound, requestID)
		}

		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return &record, nil
}
