package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"caseinsight-backend/models"
	"caseinsight-backend/reasoning"
	"caseinsight-backend/repository"

	"github.com/google/uuid"
)

var testNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

// stubReasoner records every request and answers with invoke
type stubReasoner struct {
	mu       sync.Mutex
	requests []reasoning.Request
	invoke   func(ctx context.Context, req reasoning.Request) (*reasoning.Response, error)
}

func newStubReasoner(invoke func(ctx context.Context, req reasoning.Request) (*reasoning.Response, error)) *stubReasoner {
	return &stubReasoner{invoke: invoke}
}

func (s *stubReasoner) Invoke(ctx context.Context, req reasoning.Request) (*reasoning.Response, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	invoke := s.invoke
	s.mu.Unlock()
	if invoke == nil {
		return nil, errors.New("stub reasoner: no response configured")
	}
	return invoke(ctx, req)
}

func (s *stubReasoner) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *stubReasoner) request(i int) reasoning.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[i]
}

func respondWith(text string, tokens int) func(context.Context, reasoning.Request) (*reasoning.Response, error) {
	return func(context.Context, reasoning.Request) (*reasoning.Response, error) {
		return &reasoning.Response{Text: text, TokensUsed: tokens}, nil
	}
}

// validResults holds a minimal well-formed answer for each analysis kind
var validResults = map[models.AnalysisKind]string{
	models.KindPrecedents: `{"precedents": [{"citation": "(1978) 1 SCC 248", "relevanceScore": 90}], "overallStrength": 70}`,
	models.KindRisk:       `{"overallScore": 62, "caseStrength": "MODERATE", "weaknesses": [], "fatalFlaws": []}`,
	models.KindRights:     `{"applicableRights": [{"article": "21"}]}`,
	models.KindNarrative:  `{"sections": [], "persuasivenessMetrics": {"emotionalRationalBalance": 50}}`,
	models.KindCounter:    `{"predictedLegalDefenses": []}`,
	models.KindRelief:     `{"recommendedPrayers": [{"relief": "Interim stay", "feasibilityScore": 70}]}`,
}

// analysisKindOf tells which registry entry built req
func analysisKindOf(req reasoning.Request) models.AnalysisKind {
	for kind, a := range registry {
		if strings.HasSuffix(req.Prompt, a.shape) {
			return kind
		}
	}
	return ""
}

// answerByKind returns a valid result for every kind, except that kinds in
// failing get err instead
func answerByKind(failing map[models.AnalysisKind]error) func(context.Context, reasoning.Request) (*reasoning.Response, error) {
	return func(_ context.Context, req reasoning.Request) (*reasoning.Response, error) {
		kind := analysisKindOf(req)
		if err, ok := failing[kind]; ok {
			return nil, err
		}
		text, ok := validResults[kind]
		if !ok {
			return nil, errors.New("stub reasoner: unexpected request")
		}
		return &reasoning.Response{Text: "```json\n" + text + "\n```", TokensUsed: 1200}, nil
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: testNow}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// newTestCase opens a case owned by a fresh practitioner
func newTestCase(t *testing.T, store *repository.MemoryStore) AuthContext {
	t.Helper()
	owner := uuid.New()
	c := &models.Case{
		PractitionerID: owner,
		CaseNumber:     "WP(Crl) 1432/2025",
		CaseType:       "WP(Crl)",
		Court:          "High Court of Delhi",
		PetitionerName: "R. Sharma",
		RespondentName: "State (NCT of Delhi)",
		Status:         models.CaseStatusActive,
	}
	if err := store.CreateCase(context.Background(), c); err != nil {
		t.Fatal(err)
	}
	return AuthContext{CallerID: owner, CaseID: c.ID}
}

// addDocument stores a document; an empty role leaves it unclassified
func addDocument(t *testing.T, store *repository.MemoryStore, caseID uuid.UUID, fileName string, role models.DocumentRole, text string, uploadedAt time.Time) *models.Document {
	t.Helper()
	d := &models.Document{
		CaseID:        caseID,
		FileName:      fileName,
		Title:         fileName,
		MimeType:      "text/plain",
		ExtractedText: text,
		UploadedAt:    uploadedAt,
	}
	if role != "" {
		confidence := 0.9
		d.Role = role
		d.Confidence = &confidence
		d.Source = models.SourceModel
	}
	if err := store.CreateDocument(context.Background(), d); err != nil {
		t.Fatal(err)
	}
	return d
}

func longText(prefix string) string {
	return prefix + " " + strings.Repeat("The petitioner was detained without being produced before a magistrate. ", 4)
}
