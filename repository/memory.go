package repository

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"caseinsight-backend/models"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used for development and tests.
// Rows are copied in and out so callers never share memory with the store.
type MemoryStore struct {
	mu            sync.RWMutex
	seq           int64
	practitioners map[uuid.UUID]*models.Practitioner
	cases         map[uuid.UUID]*models.Case
	documents     map[uuid.UUID]*memDocument
	insights      map[uuid.UUID]*memInsight
	briefs        map[uuid.UUID]*memBrief
}

type memDocument struct {
	seq int64
	doc models.Document
}

type memInsight struct {
	seq     int64
	insight models.Insight
}

type memBrief struct {
	seq   int64
	brief models.HearingBrief
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		practitioners: make(map[uuid.UUID]*models.Practitioner),
		cases:         make(map[uuid.UUID]*models.Case),
		documents:     make(map[uuid.UUID]*memDocument),
		insights:      make(map[uuid.UUID]*memInsight),
		briefs:        make(map[uuid.UUID]*memBrief),
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) next() int64 {
	s.seq++
	return s.seq
}

// CreatePractitioner stores a practitioner, rejecting duplicate emails
func (s *MemoryStore) CreatePractitioner(ctx context.Context, p *models.Practitioner) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.practitioners {
		if existing.Email == p.Email {
			return ErrDuplicate
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	cp := *p
	s.practitioners[p.ID] = &cp
	return nil
}

func (s *MemoryStore) GetPractitionerByEmail(ctx context.Context, email string) (*models.Practitioner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.practitioners {
		if p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CreateCase(ctx context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now()
	c.CreatedAt, c.UpdatedAt = now, now
	cp := *c
	s.cases[c.ID] = &cp
	return nil
}

func (s *MemoryStore) GetCase(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cases[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func copyDocument(d *models.Document) *models.Document {
	cp := *d
	if d.Confidence != nil {
		v := *d.Confidence
		cp.Confidence = &v
	}
	if d.ClassifiedAt != nil {
		v := *d.ClassifiedAt
		cp.ClassifiedAt = &v
	}
	cp.Metadata.Parties = append([]string(nil), d.Metadata.Parties...)
	cp.Metadata.KeyPoints = append([]string(nil), d.Metadata.KeyPoints...)
	return &cp
}

func (s *MemoryStore) CreateDocument(ctx context.Context, d *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.UploadedAt.IsZero() {
		d.UploadedAt = time.Now()
	}
	s.documents[d.ID] = &memDocument{seq: s.next(), doc: *copyDocument(d)}
	return nil
}

func (s *MemoryStore) GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.documents[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyDocument(&d.doc), nil
}

// caseDocuments returns a case's documents in upload order; caller holds the lock
func (s *MemoryStore) caseDocuments(caseID uuid.UUID, unclassifiedOnly bool) []*memDocument {
	var docs []*memDocument
	for _, d := range s.documents {
		if d.doc.CaseID != caseID {
			continue
		}
		if unclassifiedOnly && d.doc.ClassifiedAt != nil {
			continue
		}
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool {
		a, b := docs[i], docs[j]
		if !a.doc.UploadedAt.Equal(b.doc.UploadedAt) {
			return a.doc.UploadedAt.Before(b.doc.UploadedAt)
		}
		return a.seq < b.seq
	})
	return docs
}

func (s *MemoryStore) ListDocuments(ctx context.Context, caseID uuid.UUID) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []*models.Document
	for _, d := range s.caseDocuments(caseID, false) {
		docs = append(docs, copyDocument(&d.doc))
	}
	return docs, nil
}

func (s *MemoryStore) ListUnclassifiedDocuments(ctx context.Context, caseID uuid.UUID, limit int) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []*models.Document
	for _, d := range s.caseDocuments(caseID, true) {
		if len(docs) == limit {
			break
		}
		docs = append(docs, copyDocument(&d.doc))
	}
	return docs, nil
}

func (s *MemoryStore) SaveClassification(ctx context.Context, c *models.Classification, classifiedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.documents[c.DocumentID]
	if !ok {
		return ErrNotFound
	}
	confidence := c.Confidence
	d.doc.Role = c.Role
	d.doc.Confidence = &confidence
	d.doc.Title = c.Title
	d.doc.Metadata = c.Metadata
	d.doc.Source = c.Source
	d.doc.ClassifiedAt = &classifiedAt
	return nil
}

func copyInsight(i *models.Insight) *models.Insight {
	cp := *i
	cp.Result = append(json.RawMessage(nil), i.Result...)
	if i.ErrorMessage != nil {
		v := *i.ErrorMessage
		cp.ErrorMessage = &v
	}
	if i.CompletedAt != nil {
		v := *i.CompletedAt
		cp.CompletedAt = &v
	}
	if i.ExpiresAt != nil {
		v := *i.ExpiresAt
		cp.ExpiresAt = &v
	}
	return &cp
}

func (s *MemoryStore) CreateInsight(ctx context.Context, i *models.Insight) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i.ID = uuid.New()
	i.UpdatedAt = i.CreatedAt
	s.insights[i.ID] = &memInsight{seq: s.next(), insight: *copyInsight(i)}
	return nil
}

func (s *MemoryStore) MarkInsightProcessing(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.insights[id]
	if !ok || row.insight.Status != models.InsightPending {
		return ErrNotFound
	}
	row.insight.Status = models.InsightProcessing
	row.insight.UpdatedAt = at
	return nil
}

func (s *MemoryStore) CompleteInsight(ctx context.Context, id uuid.UUID, result json.RawMessage, tokensUsed int, completedAt, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.insights[id]
	if !ok {
		return ErrNotFound
	}
	row.insight.Status = models.InsightCompleted
	row.insight.Result = append(json.RawMessage(nil), result...)
	row.insight.TokensUsed = tokensUsed
	row.insight.CompletedAt = &completedAt
	row.insight.UpdatedAt = completedAt
	if row.insight.ExpiresAt == nil {
		row.insight.ExpiresAt = &expiresAt
	}
	return nil
}

func (s *MemoryStore) FailInsight(ctx context.Context, id uuid.UUID, message string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.insights[id]
	if !ok {
		return ErrNotFound
	}
	row.insight.Status = models.InsightFailed
	row.insight.ErrorMessage = &message
	row.insight.UpdatedAt = at
	return nil
}

// newer orders rows by creation time, then by insertion
func newer(a, b *memInsight) bool {
	if !a.insight.CreatedAt.Equal(b.insight.CreatedAt) {
		return a.insight.CreatedAt.After(b.insight.CreatedAt)
	}
	return a.seq > b.seq
}

func (s *MemoryStore) FindCurrentInsight(ctx context.Context, caseID uuid.UUID, kind models.AnalysisKind, now time.Time) (*models.Insight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *memInsight
	for _, row := range s.insights {
		if row.insight.CaseID != caseID || row.insight.Kind != kind || !row.insight.IsCurrent(now) {
			continue
		}
		if best == nil || newer(row, best) {
			best = row
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	return copyInsight(&best.insight), nil
}

func (s *MemoryStore) ListCurrentInsights(ctx context.Context, caseID uuid.UUID, now time.Time) ([]*models.Insight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	best := make(map[models.AnalysisKind]*memInsight)
	for _, row := range s.insights {
		if row.insight.CaseID != caseID || !row.insight.IsCurrent(now) {
			continue
		}
		if cur, ok := best[row.insight.Kind]; !ok || newer(row, cur) {
			best[row.insight.Kind] = row
		}
	}

	var insights []*models.Insight
	for _, kind := range models.AnalysisKinds {
		if row, ok := best[kind]; ok {
			insights = append(insights, copyInsight(&row.insight))
		}
	}
	return insights, nil
}

func (s *MemoryStore) ExpireInsights(ctx context.Context, caseID uuid.UUID, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, row := range s.insights {
		if row.insight.CaseID != caseID {
			continue
		}
		if row.insight.ExpiresAt != nil && !row.insight.ExpiresAt.After(now) {
			continue
		}
		expires := now
		row.insight.ExpiresAt = &expires
		row.insight.UpdatedAt = now
		n++
	}
	return n, nil
}

// Insights returns every insight row of a case in creation order
func (s *MemoryStore) Insights(caseID uuid.UUID) []*models.Insight {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []*memInsight
	for _, row := range s.insights {
		if row.insight.CaseID == caseID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	out := make([]*models.Insight, 0, len(rows))
	for _, row := range rows {
		out = append(out, copyInsight(&row.insight))
	}
	return out
}

func (s *MemoryStore) CreateBrief(ctx context.Context, b *models.HearingBrief) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b.ID = uuid.New()
	cp := *b
	cp.FocusAreas = append([]string(nil), b.FocusAreas...)
	cp.InsightKinds = append([]string(nil), b.InsightKinds...)
	s.briefs[b.ID] = &memBrief{seq: s.next(), brief: cp}
	return nil
}

func (s *MemoryStore) ListBriefs(ctx context.Context, caseID uuid.UUID, limit int) ([]*models.HearingBrief, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []*memBrief
	for _, row := range s.briefs {
		if row.brief.CaseID == caseID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.brief.CreatedAt.Equal(b.brief.CreatedAt) {
			return a.brief.CreatedAt.After(b.brief.CreatedAt)
		}
		return a.seq > b.seq
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}

	briefs := make([]*models.HearingBrief, 0, len(rows))
	for _, row := range rows {
		cp := row.brief
		briefs = append(briefs, &cp)
	}
	return briefs, nil
}
