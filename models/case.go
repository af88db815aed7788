package models

import (
	"time"

	"github.com/google/uuid"
)

// CaseStatus represents the lifecycle of a case file
type CaseStatus string

const (
	CaseStatusActive   CaseStatus = "active"
	CaseStatusDisposed CaseStatus = "disposed"
	CaseStatusArchived CaseStatus = "archived"
)

// Case represents a matter handled by a practitioner
type Case struct {
	ID              uuid.UUID  `json:"id"`
	PractitionerID  uuid.UUID  `json:"practitioner_id"`
	CaseNumber      string     `json:"case_number"`
	CaseType        string     `json:"case_type"` // e.g. "WP(Crl)", "Bail Application"
	Court           string     `json:"court"`
	PetitionerName  string     `json:"petitioner_name"`
	RespondentName  string     `json:"respondent_name"`
	Status          CaseStatus `json:"status"`
	NextHearingDate *time.Time `json:"next_hearing_date,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// OwnedBy reports whether the practitioner owns the case
func (c *Case) OwnedBy(practitionerID uuid.UUID) bool {
	return c != nil && c.PractitionerID == practitionerID
}
