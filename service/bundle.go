package service

import (
	"context"
	"errors"

	"caseinsight-backend/models"
	"caseinsight-backend/repository"

	"github.com/google/uuid"
)

// BundleAssembler builds the role-tagged view of a case's documents
type BundleAssembler struct {
	documents repository.DocumentStore
}

// NewBundleAssembler creates a bundle assembler over the document store
func NewBundleAssembler(documents repository.DocumentStore) *BundleAssembler {
	return &BundleAssembler{documents: documents}
}

// Assemble reads the case's current documents and groups them by role.
// When a singular role appears more than once the latest upload wins.
func (a *BundleAssembler) Assemble(ctx context.Context, caseID uuid.UUID) (*models.CaseBundle, error) {
	if a.documents == nil {
		return nil, errors.New("document store not set")
	}

	docs, err := a.documents.ListDocuments(ctx, caseID)
	if err != nil {
		return nil, err
	}
	return OrganizeBundle(caseID, docs), nil
}

// OrganizeBundle groups documents already in upload order
func OrganizeBundle(caseID uuid.UUID, docs []*models.Document) *models.CaseBundle {
	bundle := &models.CaseBundle{
		CaseID:    caseID,
		Documents: make([]*models.Document, 0, len(docs)),
		Exhibits:  []*models.Document{},
		Orders:    []*models.Document{},
		Judgments: []*models.Document{},
		Other:     []*models.Document{},
	}

	for _, d := range docs {
		bundle.Documents = append(bundle.Documents, d)
		switch d.Role {
		case models.RolePetition:
			bundle.Petition = d
		case models.RoleCounterStatement:
			bundle.Counter = d
		case models.RoleRejoinder:
			bundle.Rejoinder = d
		case models.RoleExhibit:
			bundle.Exhibits = append(bundle.Exhibits, d)
		case models.RoleOrder:
			bundle.Orders = append(bundle.Orders, d)
		case models.RoleJudgment:
			bundle.Judgments = append(bundle.Judgments, d)
		default:
			// includes documents not yet classified
			bundle.Other = append(bundle.Other, d)
		}
	}
	return bundle
}
