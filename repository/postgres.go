package repository

import "github.com/jackc/pgx/v5/pgxpool"

// PostgresStore is the pgx-backed Store
type PostgresStore struct {
	*PractitionerRepository
	*CaseRepository
	*DocumentRepository
	*InsightRepository
	*BriefRepository
}

// NewPostgresStore builds every repository over one pool
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		PractitionerRepository: NewPractitionerRepository(db),
		CaseRepository:         NewCaseRepository(db),
		DocumentRepository:     NewDocumentRepository(db),
		InsightRepository:      NewInsightRepository(db),
		BriefRepository:        NewBriefRepository(db),
	}
}

var _ Store = (*PostgresStore)(nil)
