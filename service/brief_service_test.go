package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"caseinsight-backend/models"
	"caseinsight-backend/reasoning"
	"caseinsight-backend/repository"

	"github.com/google/uuid"
)

const testSummary = `{"keyFacts": ["Petitioner detained on 3 March without production"], "changes": [], "contradictions": [{"documents": ["petition", "counter"], "issue": "arrest time", "description": "Counter records 9 pm, petition 4 pm"}]}`

func briefAnswers(briefText string) func(context.Context, reasoning.Request) (*reasoning.Response, error) {
	return func(_ context.Context, req reasoning.Request) (*reasoning.Response, error) {
		if req.JSON {
			return &reasoning.Response{Text: testSummary, TokensUsed: 400}, nil
		}
		return &reasoning.Response{Text: briefText, TokensUsed: 900}, nil
	}
}

func newTestBriefService(store *repository.MemoryStore, r reasoning.Reasoner, clock *fakeClock, opts ...BriefServiceOption) *BriefService {
	base := []BriefServiceOption{
		BriefWithCaseStore(store),
		BriefWithDocumentStore(store),
		BriefWithInsightStore(store),
		BriefWithBriefStore(store),
		BriefWithReasoner(r),
		BriefWithClock(clock.Now),
	}
	return NewBriefService(append(base, opts...)...)
}

func completeInsight(t *testing.T, store *repository.MemoryStore, caseID uuid.UUID, kind models.AnalysisKind) {
	t.Helper()
	ctx := context.Background()
	i := &models.Insight{CaseID: caseID, Kind: kind, Status: models.InsightPending, CreatedAt: testNow}
	if err := store.CreateInsight(ctx, i); err != nil {
		t.Fatal(err)
	}
	if err := store.MarkInsightProcessing(ctx, i.ID, testNow); err != nil {
		t.Fatal(err)
	}
	if err := store.CompleteInsight(ctx, i.ID, json.RawMessage(validResults[kind]), 100, testNow, testNow.Add(7*24*time.Hour)); err != nil {
		t.Fatal(err)
	}
}

func TestGenerateBriefWithoutInsights(t *testing.T) {
	store := repository.NewMemoryStore()
	auth := newTestCase(t, store)
	addDocument(t, store, auth.CaseID, "petition.pdf", models.RolePetition, longText("WRIT PETITION"), testNow)
	r := newStubReasoner(briefAnswers("## Case Summary\nHabeas corpus petition.\n"))
	svc := newTestBriefService(store, r, newFakeClock())

	brief, err := svc.GenerateBrief(context.Background(), auth, BriefRequest{})
	if err != nil {
		t.Fatalf("GenerateBrief returned error: %v", err)
	}

	if brief.Content != "## Case Summary\nHabeas corpus petition." {
		t.Fatalf("unexpected content %q", brief.Content)
	}
	if !brief.HearingDate.Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected hearing date to default to today, got %v", brief.HearingDate)
	}
	if len(brief.InsightKinds) != 0 || brief.InsightKinds == nil {
		t.Fatalf("expected empty insight list, got %v", brief.InsightKinds)
	}
	if brief.FocusAreas == nil || len(brief.FocusAreas) != 0 {
		t.Fatalf("expected empty focus areas, got %v", brief.FocusAreas)
	}
	if brief.TokensUsed != 1300 {
		t.Fatalf("expected summary and brief tokens, got %d", brief.TokensUsed)
	}
	if brief.BundleSnapshot == nil || len(brief.BundleSnapshot.KeyFacts) != 1 {
		t.Fatalf("expected bundle snapshot kept, got %+v", brief.BundleSnapshot)
	}

	if r.calls() != 2 {
		t.Fatalf("expected summary and brief calls, got %d", r.calls())
	}
	req := r.request(1)
	if !strings.Contains(req.Prompt, "10 March 2025") || !strings.Contains(req.Prompt, "All aspects") {
		t.Fatalf("unexpected brief prompt:\n%s", req.Prompt)
	}
	if !strings.Contains(req.CacheableContext, "WP(Crl) 1432/2025") || !strings.Contains(req.CacheableContext, "Petitioner detained on 3 March") {
		t.Fatalf("expected case and bundle analysis in context:\n%s", req.CacheableContext)
	}

	stored, err := svc.ListBriefs(context.Background(), auth)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 1 || stored[0].ID != brief.ID {
		t.Fatalf("expected the brief to be stored, got %+v", stored)
	}
}

func TestGenerateBriefUsesSelectedInsights(t *testing.T) {
	store := repository.NewMemoryStore()
	auth := newTestCase(t, store)
	for _, kind := range []models.AnalysisKind{models.KindRisk, models.KindCounter, models.KindNarrative, models.KindRelief} {
		completeInsight(t, store, auth.CaseID, kind)
	}
	r := newStubReasoner(briefAnswers("brief"))
	svc := newTestBriefService(store, r, newFakeClock())

	hearing := time.Date(2025, 3, 14, 15, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))
	brief, err := svc.GenerateBrief(context.Background(), auth, BriefRequest{
		HearingDate: hearing,
		FocusAreas:  []string{"illegal detention", "Article 22(2)"},
	})
	if err != nil {
		t.Fatalf("GenerateBrief returned error: %v", err)
	}

	if strings.Join(brief.InsightKinds, ",") != "counter,risk" {
		t.Fatalf("expected counter and risk only, got %v", brief.InsightKinds)
	}
	if !brief.HearingDate.Equal(time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected hearing date %v", brief.HearingDate)
	}

	req := r.request(1)
	if !strings.Contains(req.Prompt, "14 March 2025") || !strings.Contains(req.Prompt, "illegal detention, Article 22(2)") {
		t.Fatalf("unexpected brief prompt:\n%s", req.Prompt)
	}
	if !strings.Contains(req.CacheableContext, "overallScore: 62") {
		t.Fatalf("expected risk result in context:\n%s", req.CacheableContext)
	}
	if strings.Contains(req.CacheableContext, "persuasivenessMetrics") || strings.Contains(req.CacheableContext, "recommendedPrayers") {
		t.Fatalf("narrative and relief results must not be sent:\n%s", req.CacheableContext)
	}
}

func TestGenerateBriefTruncatesContext(t *testing.T) {
	store := repository.NewMemoryStore()
	auth := newTestCase(t, store)
	completeInsight(t, store, auth.CaseID, models.KindPrecedents)
	r := newStubReasoner(briefAnswers("brief"))
	svc := newTestBriefService(store, r, newFakeClock(), BriefWithLimits(120, 0, 0))

	if _, err := svc.GenerateBrief(context.Background(), auth, BriefRequest{}); err != nil {
		t.Fatal(err)
	}
	if n := utf8.RuneCountInString(r.request(1).CacheableContext); n != 120 {
		t.Fatalf("expected context cut to 120 characters, got %d", n)
	}
}

func TestGenerateBriefFailureStoresNothing(t *testing.T) {
	cases := []struct {
		name   string
		invoke func(context.Context, reasoning.Request) (*reasoning.Response, error)
	}{
		{"summary fails", func(context.Context, reasoning.Request) (*reasoning.Response, error) {
			return nil, errors.New("quota exceeded")
		}},
		{"summary unreadable", respondWith("I cannot summarize this bundle.", 10)},
		{"brief fails", func(_ context.Context, req reasoning.Request) (*reasoning.Response, error) {
			if req.JSON {
				return &reasoning.Response{Text: testSummary}, nil
			}
			return nil, errors.New("connection reset")
		}},
		{"brief empty", briefAnswers("   ")},
	}
	for _, tc := range cases {
		store := repository.NewMemoryStore()
		auth := newTestCase(t, store)
		svc := newTestBriefService(store, newStubReasoner(tc.invoke), newFakeClock())

		if _, err := svc.GenerateBrief(context.Background(), auth, BriefRequest{}); !errors.Is(err, ErrBriefGenerationFailed) {
			t.Fatalf("%s: expected ErrBriefGenerationFailed, got %v", tc.name, err)
		}
		briefs, err := svc.ListBriefs(context.Background(), auth)
		if err != nil {
			t.Fatal(err)
		}
		if len(briefs) != 0 {
			t.Fatalf("%s: expected no stored brief, got %d", tc.name, len(briefs))
		}
	}
}

func TestListBriefsKeepsHistoryWindow(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	auth := newTestCase(t, store)
	clock := newFakeClock()
	svc := newTestBriefService(store, newStubReasoner(briefAnswers("brief")), clock)

	var latest *models.HearingBrief
	for i := 0; i < 12; i++ {
		clock.Advance(time.Minute)
		b, err := svc.GenerateBrief(ctx, auth, BriefRequest{})
		if err != nil {
			t.Fatal(err)
		}
		latest = b
	}

	briefs, err := svc.ListBriefs(ctx, auth)
	if err != nil {
		t.Fatal(err)
	}
	if len(briefs) != 10 {
		t.Fatalf("expected 10 most recent briefs, got %d", len(briefs))
	}
	if briefs[0].ID != latest.ID {
		t.Fatalf("expected newest brief first")
	}

	if _, err := svc.ListBriefs(ctx, AuthContext{CallerID: uuid.New(), CaseID: auth.CaseID}); !errors.Is(err, ErrCaseNotOwned) {
		t.Fatalf("expected ErrCaseNotOwned, got %v", err)
	}
}

func TestSummarizeBundle(t *testing.T) {
	store := repository.NewMemoryStore()
	auth := newTestCase(t, store)
	r := newStubReasoner(respondWith(`{"changes": []}`, 10))
	svc := newTestBriefService(store, r, newFakeClock())

	summary, err := svc.SummarizeBundle(context.Background(), auth)
	if err != nil {
		t.Fatalf("SummarizeBundle returned error: %v", err)
	}
	if summary.KeyFacts == nil {
		t.Fatalf("expected key facts to default to an empty list")
	}
	if !strings.Contains(r.request(0).CacheableContext, "No documents have been filed yet.") {
		t.Fatalf("expected empty bundle context, got:\n%s", r.request(0).CacheableContext)
	}
}
