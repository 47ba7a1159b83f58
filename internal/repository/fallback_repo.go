package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"blum/internal/domain"
)

var ErrFallbackNotFound = errors.New("fallback entry not found")

// FallbackRepository define el contrato del caché local de filas no enviadas.
type FallbackRepository interface {
	Create(ctx context.Context, entry domain.FallbackEntry) error
	ListPending(ctx context.Context, limit int) ([]domain.FallbackEntry, error)
	MarkProcessed(ctx context.Context, id string, processedAt time.Time) error
}

// PgFallbackRepository implementa FallbackRepository usando pgxpool.
type PgFallbackRepository struct {
	pool *pgxpool.Pool
}

func NewPgFallbackRepository(pool *pgxpool.Pool) *PgFallbackRepository {
	return &PgFallbackRepository{pool: pool}
}

func (r *PgFallbackRepository) Create(ctx context.Context, entry domain.FallbackEntry) error {
	const query = `
		INSERT INTO questionnaire_fallbacks
			(id, kind, session_id, submitted_at, email, protocol_id, cells, reason, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		string(entry.Kind),
		entry.SessionID,
		entry.Timestamp,
		entry.Email,
		string(entry.ProtocolID),
		entry.Row,
		entry.Reason,
		string(entry.Status),
		entry.CreatedAt,
	)
	return err
}

func (r *PgFallbackRepository) ListPending(ctx context.Context, limit int) ([]domain.FallbackEntry, error) {
	const query = `
		SELECT id, kind, session_id, submitted_at, email, protocol_id, cells, reason, status, created_at
		FROM questionnaire_fallbacks
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, query, string(domain.FallbackPending), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.FallbackEntry
	for rows.Next() {
		var (
			e                        domain.FallbackEntry
			kind, protocolID, status string
		)
		if err := rows.Scan(
			&e.ID,
			&kind,
			&e.SessionID,
			&e.Timestamp,
			&e.Email,
			&protocolID,
			&e.Row,
			&e.Reason,
			&status,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		e.Kind = domain.SubmissionKind(kind)
		e.ProtocolID = domain.ProtocolID(protocolID)
		e.Status = domain.FallbackStatus(status)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *PgFallbackRepository) MarkProcessed(ctx context.Context, id string, processedAt time.Time) error {
	const query = `
		UPDATE questionnaire_fallbacks
		SET status = $2, processed_at = $3
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, string(domain.FallbackProcessed), processedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrFallbackNotFound
	}
	return nil
}
