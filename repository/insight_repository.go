package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"caseinsight-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InsightRepository handles database operations for insights
type InsightRepository struct {
	db *pgxpool.Pool
}

// NewInsightRepository creates a new insight repository
func NewInsightRepository(db *pgxpool.Pool) *InsightRepository {
	return &InsightRepository{db: db}
}

// result is a json column, read back as text so cached payloads stay byte-identical
const insightColumns = `
	id, case_id, kind, status, result::text, error_message, tokens_used,
	created_at, updated_at, completed_at, expires_at`

func scanInsight(row pgx.Row) (*models.Insight, error) {
	i := &models.Insight{}
	var result *string
	err := row.Scan(
		&i.ID,
		&i.CaseID,
		&i.Kind,
		&i.Status,
		&result,
		&i.ErrorMessage,
		&i.TokensUsed,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.CompletedAt,
		&i.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	if result != nil {
		i.Result = json.RawMessage(*result)
	}
	return i, nil
}

// CreateInsight inserts a new insight row
func (r *InsightRepository) CreateInsight(ctx context.Context, i *models.Insight) error {
	query := `
		INSERT INTO insights (case_id, kind, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING id`

	return r.db.QueryRow(ctx, query, i.CaseID, i.Kind, i.Status, i.CreatedAt).Scan(&i.ID)
}

// MarkInsightProcessing moves a pending insight to processing
func (r *InsightRepository) MarkInsightProcessing(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE insights
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = $4`

	tag, err := r.db.Exec(ctx, query, id, models.InsightProcessing, at, models.InsightPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CompleteInsight stores the result of a finished analysis
func (r *InsightRepository) CompleteInsight(ctx context.Context, id uuid.UUID, result json.RawMessage, tokensUsed int, completedAt, expiresAt time.Time) error {
	query := `
		UPDATE insights
		SET status = $2, result = $3::json, tokens_used = $4,
			completed_at = $5, updated_at = $5,
			expires_at = COALESCE(expires_at, $6)
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, models.InsightCompleted, string(result), tokensUsed, completedAt, expiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FailInsight records the error of a failed analysis
func (r *InsightRepository) FailInsight(ctx context.Context, id uuid.UUID, message string, at time.Time) error {
	query := `
		UPDATE insights
		SET status = $2, error_message = $3, updated_at = $4
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, models.InsightFailed, message, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FindCurrentInsight retrieves the most recent unexpired completed insight of a kind
func (r *InsightRepository) FindCurrentInsight(ctx context.Context, caseID uuid.UUID, kind models.AnalysisKind, now time.Time) (*models.Insight, error) {
	query := `SELECT ` + insightColumns + `
		FROM insights
		WHERE case_id = $1 AND kind = $2 AND status = $3
			AND (expires_at IS NULL OR expires_at > $4)
		ORDER BY created_at DESC
		LIMIT 1`

	i, err := scanInsight(r.db.QueryRow(ctx, query, caseID, kind, models.InsightCompleted, now))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return i, err
}

// ListCurrentInsights retrieves the most recent current insight for every kind
func (r *InsightRepository) ListCurrentInsights(ctx context.Context, caseID uuid.UUID, now time.Time) ([]*models.Insight, error) {
	query := `SELECT DISTINCT ON (kind) ` + insightColumns + `
		FROM insights
		WHERE case_id = $1 AND status = $2
			AND (expires_at IS NULL OR expires_at > $3)
		ORDER BY kind, created_at DESC`

	rows, err := r.db.Query(ctx, query, caseID, models.InsightCompleted, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var insights []*models.Insight
	for rows.Next() {
		i, err := scanInsight(rows)
		if err != nil {
			return nil, err
		}
		insights = append(insights, i)
	}
	return insights, rows.Err()
}

// ExpireInsights pushes every unexpired insight of a case to expire at now
func (r *InsightRepository) ExpireInsights(ctx context.Context, caseID uuid.UUID, now time.Time) (int64, error) {
	query := `
		UPDATE insights
		SET expires_at = $2, updated_at = $2
		WHERE case_id = $1 AND (expires_at IS NULL OR expires_at > $2)`

	tag, err := r.db.Exec(ctx, query, caseID, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
