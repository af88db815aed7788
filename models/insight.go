package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// InsightStatus represents the lifecycle of one analysis run
type InsightStatus string

const (
	InsightPending    InsightStatus = "PENDING"
	InsightProcessing InsightStatus = "PROCESSING"
	InsightCompleted  InsightStatus = "COMPLETED"
	InsightFailed     InsightStatus = "FAILED"
)

// Insight is one persisted run of an analysis against a case bundle.
// Rows are never deleted; invalidation only moves ExpiresAt.
type Insight struct {
	ID           uuid.UUID       `json:"id"`
	CaseID       uuid.UUID       `json:"case_id"`
	Kind         AnalysisKind    `json:"kind"`
	Status       InsightStatus   `json:"status"`
	Result       json.RawMessage `json:"result,omitempty"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	TokensUsed   int             `json:"tokens_used"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	ExpiresAt    *time.Time      `json:"expires_at,omitempty"` // nil never expires
}

// IsCurrent reports whether the insight can be served from cache at now
func (i *Insight) IsCurrent(now time.Time) bool {
	if i.Status != InsightCompleted {
		return false
	}
	// exclusive bound: an invalidation stamped at t is already in force at t
	return i.ExpiresAt == nil || i.ExpiresAt.After(now)
}
