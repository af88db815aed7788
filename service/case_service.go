package service

import (
	"context"
	"errors"
	"time"

	"caseinsight-backend/models"
	"caseinsight-backend/repository"

	"github.com/google/uuid"
)

// AuthContext names who is calling and which case they are acting on.
// Every pipeline entry point takes one and checks ownership itself.
type AuthContext struct {
	CallerID uuid.UUID
	CaseID   uuid.UUID
}

// authorize loads the case and verifies the caller owns it
func authorize(ctx context.Context, cases repository.CaseStore, auth AuthContext) (*models.Case, error) {
	c, err := cases.GetCase(ctx, auth.CaseID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCaseNotFound
	}
	if err != nil {
		return nil, err
	}
	if !c.OwnedBy(auth.CallerID) {
		// indistinguishable from a missing case to the caller
		return nil, ErrCaseNotOwned
	}
	return c, nil
}

// CaseService handles case records
type CaseService struct {
	cases repository.CaseStore
}

// CaseServiceOption is a functional option for CaseService
type CaseServiceOption func(*CaseService)

// WithCaseStore sets the case store
func WithCaseStore(store repository.CaseStore) CaseServiceOption {
	return func(s *CaseService) {
		s.cases = store
	}
}

// NewCaseService creates a new case service
func NewCaseService(opts ...CaseServiceOption) *CaseService {
	s := &CaseService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateCaseRequest represents a request to open a case
type CreateCaseRequest struct {
	PractitionerID  uuid.UUID
	CaseNumber      string
	CaseType        string
	Court           string
	PetitionerName  string
	RespondentName  string
	NextHearingDate *time.Time
}

// CreateCase opens a case owned by the requesting practitioner
func (s *CaseService) CreateCase(ctx context.Context, req CreateCaseRequest) (*models.Case, error) {
	if s.cases == nil {
		return nil, errors.New("case store not set")
	}
	if req.CaseNumber == "" || req.CaseType == "" {
		return nil, ErrInvalidCase
	}

	c := &models.Case{
		PractitionerID:  req.PractitionerID,
		CaseNumber:      req.CaseNumber,
		CaseType:        req.CaseType,
		Court:           req.Court,
		PetitionerName:  req.PetitionerName,
		RespondentName:  req.RespondentName,
		Status:          models.CaseStatusActive,
		NextHearingDate: req.NextHearingDate,
	}
	if err := s.cases.CreateCase(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetCase returns the case if the caller owns it
func (s *CaseService) GetCase(ctx context.Context, auth AuthContext) (*models.Case, error) {
	if s.cases == nil {
		return nil, errors.New("case store not set")
	}
	return authorize(ctx, s.cases, auth)
}
