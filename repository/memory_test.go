package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"caseinsight-backend/models"

	"github.com/google/uuid"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func completedInsight(t *testing.T, s *MemoryStore, caseID uuid.UUID, kind models.AnalysisKind, result string, completedAt time.Time) *models.Insight {
	t.Helper()
	ctx := context.Background()
	i := &models.Insight{CaseID: caseID, Kind: kind, Status: models.InsightPending, CreatedAt: completedAt.Add(-time.Minute)}
	if err := s.CreateInsight(ctx, i); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkInsightProcessing(ctx, i.ID, i.CreatedAt); err != nil {
		t.Fatal(err)
	}
	if err := s.CompleteInsight(ctx, i.ID, json.RawMessage(result), 10, completedAt, completedAt.Add(24*time.Hour)); err != nil {
		t.Fatal(err)
	}
	return i
}

func TestMemoryStoreFindCurrentInsightPrefersLatestCreated(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	caseID := uuid.New()

	a := &models.Insight{CaseID: caseID, Kind: models.KindRisk, Status: models.InsightPending, CreatedAt: t0}
	b := &models.Insight{CaseID: caseID, Kind: models.KindRisk, Status: models.InsightPending, CreatedAt: t0.Add(time.Second)}
	for _, i := range []*models.Insight{a, b} {
		if err := s.CreateInsight(ctx, i); err != nil {
			t.Fatal(err)
		}
		if err := s.MarkInsightProcessing(ctx, i.ID, i.CreatedAt); err != nil {
			t.Fatal(err)
		}
	}
	// completions land in reverse creation order
	if err := s.CompleteInsight(ctx, b.ID, json.RawMessage(`{"v":"b"}`), 10, t0.Add(10*time.Second), t0.Add(24*time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := s.CompleteInsight(ctx, a.ID, json.RawMessage(`{"v":"a"}`), 10, t0.Add(20*time.Second), t0.Add(24*time.Hour)); err != nil {
		t.Fatal(err)
	}
	completedInsight(t, s, caseID, models.KindRelief, `{"v":3}`, t0.Add(2*time.Minute))

	got, err := s.FindCurrentInsight(ctx, caseID, models.KindRisk, t0.Add(time.Hour))
	if err != nil {
		t.Fatalf("FindCurrentInsight returned error: %v", err)
	}
	if got.ID != b.ID || string(got.Result) != `{"v":"b"}` {
		t.Fatalf("expected latest created row %s, got %s with %s", b.ID, got.ID, got.Result)
	}

	listed, err := s.ListCurrentInsights(ctx, caseID, t0.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	for _, i := range listed {
		if i.Kind == models.KindRisk && i.ID != b.ID {
			t.Fatalf("expected listing to serve latest created row, got %s", i.ID)
		}
	}

	if _, err := s.FindCurrentInsight(ctx, caseID, models.KindRisk, t0.Add(48*time.Hour)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}
}

func TestMemoryStoreFailedInsightIsNeverCurrent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	caseID := uuid.New()

	i := &models.Insight{CaseID: caseID, Kind: models.KindRights, Status: models.InsightPending, CreatedAt: t0}
	if err := s.CreateInsight(ctx, i); err != nil {
		t.Fatal(err)
	}
	if err := s.FailInsight(ctx, i.ID, "timeout", t0); err != nil {
		t.Fatal(err)
	}
	if _, err := s.FindCurrentInsight(ctx, caseID, models.KindRights, t0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	rows := s.Insights(caseID)
	if len(rows) != 1 || rows[0].Status != models.InsightFailed || *rows[0].ErrorMessage != "timeout" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestMemoryStoreExpireInsightsWinsOverInFlightCompletion(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	caseID := uuid.New()

	done := completedInsight(t, s, caseID, models.KindRisk, `{}`, t0)

	inflight := &models.Insight{CaseID: caseID, Kind: models.KindRelief, Status: models.InsightPending, CreatedAt: t0}
	if err := s.CreateInsight(ctx, inflight); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkInsightProcessing(ctx, inflight.ID, t0); err != nil {
		t.Fatal(err)
	}

	invalidatedAt := t0.Add(time.Minute)
	n, err := s.ExpireInsights(ctx, caseID, invalidatedAt)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows expired, got %d", n)
	}

	if err := s.CompleteInsight(ctx, inflight.ID, json.RawMessage(`{}`), 5, t0.Add(2*time.Minute), t0.Add(7*24*time.Hour)); err != nil {
		t.Fatal(err)
	}

	for _, kind := range []models.AnalysisKind{models.KindRisk, models.KindRelief} {
		if _, err := s.FindCurrentInsight(ctx, caseID, kind, invalidatedAt); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s: expected no current insight after invalidation, got %v", kind, err)
		}
	}

	rows := s.Insights(caseID)
	if rows[0].ID != done.ID || !rows[0].ExpiresAt.Equal(invalidatedAt) {
		t.Fatalf("expected completed row expiry forced to %v, got %v", invalidatedAt, rows[0].ExpiresAt)
	}
	if !rows[1].ExpiresAt.Equal(invalidatedAt) {
		t.Fatalf("expected in-flight row to keep forced expiry, got %v", rows[1].ExpiresAt)
	}

	// already expired rows are not counted again
	n, err = s.ExpireInsights(ctx, caseID, invalidatedAt.Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("expected nothing left to expire, got %d", n)
	}
}

func TestMemoryStoreListCurrentInsightsOnePerKind(t *testing.T) {
	s := NewMemoryStore()
	caseID := uuid.New()

	completedInsight(t, s, caseID, models.KindRisk, `{"v":1}`, t0)
	completedInsight(t, s, caseID, models.KindRisk, `{"v":2}`, t0.Add(time.Minute))
	completedInsight(t, s, caseID, models.KindPrecedents, `{"v":3}`, t0)
	completedInsight(t, s, uuid.New(), models.KindRights, `{"v":4}`, t0)

	rows, err := s.ListCurrentInsights(context.Background(), caseID, t0.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 current insights, got %d", len(rows))
	}
	if rows[0].Kind != models.KindPrecedents || rows[1].Kind != models.KindRisk {
		t.Fatalf("unexpected order: %s, %s", rows[0].Kind, rows[1].Kind)
	}
	if string(rows[1].Result) != `{"v":2}` {
		t.Fatalf("expected latest risk result, got %s", rows[1].Result)
	}
}

func TestMemoryStoreDocumentsInUploadOrder(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	caseID := uuid.New()

	second := &models.Document{CaseID: caseID, FileName: "b.txt", UploadedAt: t0.Add(time.Minute)}
	first := &models.Document{CaseID: caseID, FileName: "a.txt", UploadedAt: t0}
	third := &models.Document{CaseID: caseID, FileName: "c.txt", UploadedAt: t0.Add(time.Minute)}
	for _, d := range []*models.Document{second, first, third} {
		if err := s.CreateDocument(ctx, d); err != nil {
			t.Fatal(err)
		}
	}

	docs, err := s.ListDocuments(ctx, caseID)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, d := range docs {
		names = append(names, d.FileName)
	}
	if len(names) != 3 || names[0] != "a.txt" || names[1] != "b.txt" || names[2] != "c.txt" {
		t.Fatalf("unexpected order: %v", names)
	}

	if err := s.SaveClassification(ctx, &models.Classification{DocumentID: first.ID, Role: models.RolePetition, Confidence: 0.9}, t0); err != nil {
		t.Fatal(err)
	}
	pending, err := s.ListUnclassifiedDocuments(ctx, caseID, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].ID != second.ID {
		t.Fatalf("expected only %s pending first, got %+v", second.ID, pending)
	}

	got, err := s.GetDocument(ctx, first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Classified() || got.Role != models.RolePetition {
		t.Fatalf("expected classification to be saved, got %+v", got)
	}
}

func TestMemoryStoreListBriefsNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	caseID := uuid.New()

	for i := 0; i < 12; i++ {
		b := &models.HearingBrief{CaseID: caseID, Content: "brief", CreatedAt: t0.Add(time.Duration(i) * time.Minute)}
		if err := s.CreateBrief(ctx, b); err != nil {
			t.Fatal(err)
		}
	}

	briefs, err := s.ListBriefs(ctx, caseID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(briefs) != 10 {
		t.Fatalf("expected 10 briefs, got %d", len(briefs))
	}
	if !briefs[0].CreatedAt.Equal(t0.Add(11 * time.Minute)) {
		t.Fatalf("expected newest brief first, got %v", briefs[0].CreatedAt)
	}
	for i := 1; i < len(briefs); i++ {
		if briefs[i].CreatedAt.After(briefs[i-1].CreatedAt) {
			t.Fatalf("briefs not newest first at %d", i)
		}
	}
}

func TestMemoryStoreCreatePractitionerRejectsDuplicateEmail(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.CreatePractitioner(ctx, &models.Practitioner{Email: "a@example.com", Name: "A"}); err != nil {
		t.Fatal(err)
	}
	if err := s.CreatePractitioner(ctx, &models.Practitioner{Email: "a@example.com", Name: "B"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if _, err := s.GetPractitionerByEmail(ctx, "missing@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
