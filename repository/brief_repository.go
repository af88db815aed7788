package repository

import (
	"context"

	"caseinsight-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BriefRepository handles database operations for hearing briefs
type BriefRepository struct {
	db *pgxpool.Pool
}

// NewBriefRepository creates a new brief repository
func NewBriefRepository(db *pgxpool.Pool) *BriefRepository {
	return &BriefRepository{db: db}
}

// CreateBrief inserts a brief. Briefs are never updated.
func (r *BriefRepository) CreateBrief(ctx context.Context, b *models.HearingBrief) error {
	query := `
		INSERT INTO hearing_briefs (
			case_id, hearing_date, content, focus_areas, bundle_snapshot,
			insight_kinds, tokens_used, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	return r.db.QueryRow(
		ctx, query,
		b.CaseID,
		b.HearingDate,
		b.Content,
		b.FocusAreas,
		b.BundleSnapshot,
		b.InsightKinds,
		b.TokensUsed,
		b.CreatedAt,
	).Scan(&b.ID)
}

// ListBriefs retrieves the most recent briefs of a case, newest first
func (r *BriefRepository) ListBriefs(ctx context.Context, caseID uuid.UUID, limit int) ([]*models.HearingBrief, error) {
	query := `
		SELECT id, case_id, hearing_date, content, focus_areas, bundle_snapshot,
			insight_kinds, tokens_used, created_at
		FROM hearing_briefs
		WHERE case_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, caseID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var briefs []*models.HearingBrief
	for rows.Next() {
		b := &models.HearingBrief{}
		err := rows.Scan(
			&b.ID,
			&b.CaseID,
			&b.HearingDate,
			&b.Content,
			&b.FocusAreas,
			&b.BundleSnapshot,
			&b.InsightKinds,
			&b.TokensUsed,
			&b.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		briefs = append(briefs, b)
	}

	return briefs, rows.Err()
}
