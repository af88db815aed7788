package repository

import (
	"context"
	"errors"

	"caseinsight-backend/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PractitionerRepository handles database operations for practitioners
type PractitionerRepository struct {
	db *pgxpool.Pool
}

// NewPractitionerRepository creates a new practitioner repository
func NewPractitionerRepository(db *pgxpool.Pool) *PractitionerRepository {
	return &PractitionerRepository{db: db}
}

// CreatePractitioner inserts a practitioner
func (r *PractitionerRepository) CreatePractitioner(ctx context.Context, p *models.Practitioner) error {
	query := `
		INSERT INTO practitioners (email, password_hash, name, firm_name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query, p.Email, p.PasswordHash, p.Name, p.FirmName).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

// GetPractitionerByEmail retrieves a practitioner by email
func (r *PractitionerRepository) GetPractitionerByEmail(ctx context.Context, email string) (*models.Practitioner, error) {
	p := &models.Practitioner{}
	query := `
		SELECT id, email, password_hash, name, firm_name, created_at, updated_at
		FROM practitioners
		WHERE email = $1`

	err := r.db.QueryRow(ctx, query, email).Scan(
		&p.ID,
		&p.Email,
		&p.PasswordHash,
		&p.Name,
		&p.FirmName,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
