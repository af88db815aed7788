package repository

import (
	"context"
	"errors"

	"caseinsight-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CaseRepository handles database operations for cases
type CaseRepository struct {
	db *pgxpool.Pool
}

// NewCaseRepository creates a new case repository
func NewCaseRepository(db *pgxpool.Pool) *CaseRepository {
	return &CaseRepository{db: db}
}

// CreateCase inserts a case
func (r *CaseRepository) CreateCase(ctx context.Context, c *models.Case) error {
	query := `
		INSERT INTO cases (
			practitioner_id, case_number, case_type, court,
			petitioner_name, respondent_name, status, next_hearing_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRow(
		ctx, query,
		c.PractitionerID,
		c.CaseNumber,
		c.CaseType,
		c.Court,
		c.PetitionerName,
		c.RespondentName,
		c.Status,
		c.NextHearingDate,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// GetCase retrieves a case by ID
func (r *CaseRepository) GetCase(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	c := &models.Case{}
	query := `
		SELECT id, practitioner_id, case_number, case_type, court,
			petitioner_name, respondent_name, status, next_hearing_date,
			created_at, updated_at
		FROM cases
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.PractitionerID,
		&c.CaseNumber,
		&c.CaseType,
		&c.Court,
		&c.PetitionerName,
		&c.RespondentName,
		&c.Status,
		&c.NextHearingDate,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}
