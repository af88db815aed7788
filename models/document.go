package models

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DocumentRole is the procedural role a document plays in a case
type DocumentRole string

const (
	RolePetition         DocumentRole = "PETITION"
	RoleCounterStatement DocumentRole = "COUNTER_STATEMENT"
	RoleRejoinder        DocumentRole = "REJOINDER"
	RoleExhibit          DocumentRole = "EXHIBIT"
	RoleOrder            DocumentRole = "ORDER"
	RoleJudgment         DocumentRole = "JUDGMENT"
	RoleOther            DocumentRole = "OTHER"
)

// roleAliases maps the labels older prompts produced onto the current roles
var roleAliases = map[string]DocumentRole{
	"COUNTER_AFFIDAVIT": RoleCounterStatement,
	"ANNEXURE":          RoleExhibit,
	"INTERIM_ORDER":     RoleOrder,
	"DAILY_ORDER":       RoleOrder,
	"EVIDENCE":          RoleOther,
	"CORRESPONDENCE":    RoleOther,
}

// ParseDocumentRole normalizes a role label. Unknown labels return false.
func ParseDocumentRole(s string) (DocumentRole, bool) {
	label := strings.ToUpper(strings.TrimSpace(s))
	switch r := DocumentRole(label); r {
	case RolePetition, RoleCounterStatement, RoleRejoinder, RoleExhibit, RoleOrder, RoleJudgment, RoleOther:
		return r, true
	}
	if r, ok := roleAliases[label]; ok {
		return r, true
	}
	return "", false
}

// ClassificationSource records which path produced a classification
type ClassificationSource string

const (
	SourceModel     ClassificationSource = "model"
	SourceHeuristic ClassificationSource = "heuristic"
	SourceShortText ClassificationSource = "short_text"
)

// DocumentMetadata holds the details extracted during classification
type DocumentMetadata struct {
	Date           string   `json:"date,omitempty"`
	Parties        []string `json:"parties,omitempty"`
	KeyPoints      []string `json:"keyPoints,omitempty"`
	DocumentNumber string   `json:"documentNumber,omitempty"`
}

// Value implements driver.Valuer for JSONB
func (m DocumentMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB
func (m *DocumentMetadata) Scan(value interface{}) error {
	var bytes []byte
	switch v := value.(type) {
	case nil:
		*m = DocumentMetadata{}
		return nil
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*m = DocumentMetadata{}
		return nil
	}
	if len(bytes) == 0 {
		*m = DocumentMetadata{}
		return nil
	}
	return json.Unmarshal(bytes, m)
}

// Document represents an uploaded case document and its classification
type Document struct {
	ID            uuid.UUID            `json:"id"`
	CaseID        uuid.UUID            `json:"case_id"`
	FileName      string               `json:"file_name"`
	Title         string               `json:"title"`
	MimeType      string               `json:"mime_type"`
	Size          int64                `json:"size"`
	StoragePath   string               `json:"-"`
	ExtractedText string               `json:"-"`
	Role          DocumentRole         `json:"role,omitempty"`
	Confidence    *float64             `json:"confidence,omitempty"` // nil until classified
	Source        ClassificationSource `json:"source,omitempty"`
	Metadata      DocumentMetadata     `json:"metadata"`
	UploadedAt    time.Time            `json:"uploaded_at"`
	ClassifiedAt  *time.Time           `json:"classified_at,omitempty"`
}

// Classified reports whether the document has ever been classified
func (d *Document) Classified() bool {
	return d.Confidence != nil
}

// Classification is the outcome of classifying one document
type Classification struct {
	DocumentID uuid.UUID            `json:"document_id"`
	Role       DocumentRole         `json:"role"`
	Confidence float64              `json:"confidence"`
	Title      string               `json:"title"`
	Metadata   DocumentMetadata     `json:"metadata"`
	Source     ClassificationSource `json:"source"`
}
