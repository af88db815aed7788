package repository

import (
	"context"
	"errors"
	"time"

	"caseinsight-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DocumentRepository handles database operations for case documents
type DocumentRepository struct {
	db *pgxpool.Pool
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `
	id, case_id, file_name, title, mime_type, size, storage_path, extracted_text,
	COALESCE(role, ''), confidence, COALESCE(source, ''), metadata, uploaded_at, classified_at`

func scanDocument(row pgx.Row) (*models.Document, error) {
	d := &models.Document{}
	err := row.Scan(
		&d.ID,
		&d.CaseID,
		&d.FileName,
		&d.Title,
		&d.MimeType,
		&d.Size,
		&d.StoragePath,
		&d.ExtractedText,
		&d.Role,
		&d.Confidence,
		&d.Source,
		&d.Metadata,
		&d.UploadedAt,
		&d.ClassifiedAt,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func collectDocuments(rows pgx.Rows) ([]*models.Document, error) {
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// CreateDocument inserts an uploaded document. The ID is chosen by the caller
// so the storage path can be derived from it before the row exists.
func (r *DocumentRepository) CreateDocument(ctx context.Context, d *models.Document) error {
	query := `
		INSERT INTO documents (
			id, case_id, file_name, title, mime_type, size, storage_path, extracted_text, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING uploaded_at`

	return r.db.QueryRow(
		ctx, query,
		d.ID,
		d.CaseID,
		d.FileName,
		d.Title,
		d.MimeType,
		d.Size,
		d.StoragePath,
		d.ExtractedText,
		d.Metadata,
	).Scan(&d.UploadedAt)
}

// GetDocument retrieves a document by ID
func (r *DocumentRepository) GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`

	d, err := scanDocument(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return d, err
}

// ListDocuments retrieves all documents of a case in upload order
func (r *DocumentRepository) ListDocuments(ctx context.Context, caseID uuid.UUID) ([]*models.Document, error) {
	query := `SELECT ` + documentColumns + `
		FROM documents
		WHERE case_id = $1
		ORDER BY uploaded_at ASC, id ASC`

	rows, err := r.db.Query(ctx, query, caseID)
	if err != nil {
		return nil, err
	}
	return collectDocuments(rows)
}

// ListUnclassifiedDocuments retrieves up to limit documents never classified
func (r *DocumentRepository) ListUnclassifiedDocuments(ctx context.Context, caseID uuid.UUID, limit int) ([]*models.Document, error) {
	query := `SELECT ` + documentColumns + `
		FROM documents
		WHERE case_id = $1 AND classified_at IS NULL
		ORDER BY uploaded_at ASC, id ASC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, caseID, limit)
	if err != nil {
		return nil, err
	}
	return collectDocuments(rows)
}

// SaveClassification replaces the classification fields of a document
func (r *DocumentRepository) SaveClassification(ctx context.Context, c *models.Classification, classifiedAt time.Time) error {
	query := `
		UPDATE documents
		SET role = $2, confidence = $3, title = $4, metadata = $5, source = $6, classified_at = $7
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, c.DocumentID, c.Role, c.Confidence, c.Title, c.Metadata, c.Source, classifiedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
