package models

import (
	"time"

	"github.com/google/uuid"
)

// HearingBrief is an immutable, dated preparation note for one hearing
type HearingBrief struct {
	ID             uuid.UUID      `json:"id"`
	CaseID         uuid.UUID      `json:"case_id"`
	HearingDate    time.Time      `json:"hearing_date"`
	Content        string         `json:"content"`
	FocusAreas     []string       `json:"focus_areas"`
	BundleSnapshot *BundleSummary `json:"bundle_snapshot,omitempty"`
	InsightKinds   []string       `json:"insight_kinds"`
	TokensUsed     int            `json:"tokens_used"`
	CreatedAt      time.Time      `json:"created_at"`
}
