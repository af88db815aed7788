package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/google/uuid"
)

// CaseBundle is the role-tagged view of a case's documents.
// It is assembled on read and never stored.
type CaseBundle struct {
	CaseID    uuid.UUID   `json:"case_id"`
	Documents []*Document `json:"documents"`
	Petition  *Document   `json:"petition,omitempty"`
	Counter   *Document   `json:"counter,omitempty"`
	Rejoinder *Document   `json:"rejoinder,omitempty"`
	Exhibits  []*Document `json:"exhibits"`
	Orders    []*Document `json:"orders"`
	Judgments []*Document `json:"judgments"`
	Other     []*Document `json:"other"`
}

// Empty reports whether the bundle holds no documents
func (b *CaseBundle) Empty() bool {
	return len(b.Documents) == 0
}

// BundleChange describes a development across the pleadings
type BundleChange struct {
	Stage       string `json:"stage" yaml:"stage"`
	Description string `json:"description" yaml:"description"`
	Impact      string `json:"impact" yaml:"impact"` // POSITIVE, NEGATIVE, NEUTRAL
}

// Contradiction is a conflict found between documents
type Contradiction struct {
	Documents   []string `json:"documents" yaml:"documents"`
	Issue       string   `json:"issue" yaml:"issue"`
	Description string   `json:"description" yaml:"description"`
}

// ReliefStatus tracks one relief against the opposition raised to it
type ReliefStatus struct {
	ReliefSought        string   `json:"reliefSought" yaml:"relief_sought"`
	Status              string   `json:"status" yaml:"status"`
	OppositionArguments []string `json:"oppositionArguments" yaml:"opposition_arguments"`
}

// ArgumentPoint contrasts both sides on one topic
type ArgumentPoint struct {
	Topic              string `json:"topic" yaml:"topic"`
	PetitionerPosition string `json:"petitionerPosition" yaml:"petitioner_position"`
	RespondentPosition string `json:"respondentPosition" yaml:"respondent_position"`
	Strength           string `json:"strength" yaml:"strength"`
}

// BundleSummary is the reasoning service's digest of a bundle
type BundleSummary struct {
	KeyFacts       []string        `json:"keyFacts" yaml:"key_facts"`
	Changes        []BundleChange  `json:"changes" yaml:"changes,omitempty"`
	Contradictions []Contradiction `json:"contradictions" yaml:"contradictions,omitempty"`
	ReliefMapping  []ReliefStatus  `json:"reliefMapping" yaml:"relief_mapping,omitempty"`
	ArgumentPoints []ArgumentPoint `json:"argumentPoints" yaml:"argument_points,omitempty"`
}

// Value implements driver.Valuer for JSONB
func (s BundleSummary) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner for JSONB
func (s *BundleSummary) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, s)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), s)
	}
	return nil
}
