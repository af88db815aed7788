package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"caseinsight-backend/models"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when an insert violates a uniqueness rule
var ErrDuplicate = errors.New("record already exists")

// PractitionerStore persists practitioners
type PractitionerStore interface {
	CreatePractitioner(ctx context.Context, p *models.Practitioner) error
	GetPractitionerByEmail(ctx context.Context, email string) (*models.Practitioner, error)
}

// CaseStore persists cases
type CaseStore interface {
	CreateCase(ctx context.Context, c *models.Case) error
	GetCase(ctx context.Context, id uuid.UUID) (*models.Case, error)
}

// DocumentStore persists case documents and their classifications
type DocumentStore interface {
	CreateDocument(ctx context.Context, d *models.Document) error
	GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error)
	// ListDocuments returns a case's documents oldest upload first
	ListDocuments(ctx context.Context, caseID uuid.UUID) ([]*models.Document, error)
	ListUnclassifiedDocuments(ctx context.Context, caseID uuid.UUID, limit int) ([]*models.Document, error)
	SaveClassification(ctx context.Context, c *models.Classification, classifiedAt time.Time) error
}

// InsightStore persists analysis runs
type InsightStore interface {
	CreateInsight(ctx context.Context, i *models.Insight) error
	MarkInsightProcessing(ctx context.Context, id uuid.UUID, at time.Time) error
	// CompleteInsight keeps an expiry already set on the row so that an
	// invalidation landing mid-computation still wins.
	CompleteInsight(ctx context.Context, id uuid.UUID, result json.RawMessage, tokensUsed int, completedAt, expiresAt time.Time) error
	FailInsight(ctx context.Context, id uuid.UUID, message string, at time.Time) error
	FindCurrentInsight(ctx context.Context, caseID uuid.UUID, kind models.AnalysisKind, now time.Time) (*models.Insight, error)
	// ListCurrentInsights returns the most recent current insight per kind
	ListCurrentInsights(ctx context.Context, caseID uuid.UUID, now time.Time) ([]*models.Insight, error)
	// ExpireInsights sets expires_at to now on every unexpired insight of the case
	ExpireInsights(ctx context.Context, caseID uuid.UUID, now time.Time) (int64, error)
}

// BriefStore persists hearing briefs
type BriefStore interface {
	CreateBrief(ctx context.Context, b *models.HearingBrief) error
	ListBriefs(ctx context.Context, caseID uuid.UUID, limit int) ([]*models.HearingBrief, error)
}

// Store is the full document store the pipeline runs against
type Store interface {
	PractitionerStore
	CaseStore
	DocumentStore
	InsightStore
	BriefStore
}
