package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"caseinsight-backend/models"
	"caseinsight-backend/reasoning"
	"caseinsight-backend/repository"

	"github.com/google/uuid"
)

// scriptedComputer fails with errs in order and then succeeds
type scriptedComputer struct {
	mu    sync.Mutex
	errs  []error
	calls int
}

func (s *scriptedComputer) GetOrCompute(ctx context.Context, auth AuthContext, kind models.AnalysisKind, forceRefresh bool) (*InsightResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return nil, err
	}
	return &InsightResult{InsightID: uuid.New(), Kind: kind}, nil
}

func analysisFailure(cause string) error {
	return errors.Join(ErrAnalysisFailed, errors.New(cause))
}

func TestRetryingInsightsRetriesAnalysisFailures(t *testing.T) {
	next := &scriptedComputer{errs: []error{analysisFailure("rate limited"), analysisFailure("rate limited")}}
	retrying := NewRetryingInsights(next, 3, time.Millisecond, nil)

	res, err := retrying.GetOrCompute(context.Background(), AuthContext{}, models.KindRisk, false)
	if err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}
	if res.Kind != models.KindRisk || next.calls != 3 {
		t.Fatalf("unexpected result %+v after %d calls", res, next.calls)
	}
}

func TestRetryingInsightsGivesUp(t *testing.T) {
	next := &scriptedComputer{errs: []error{analysisFailure("first"), analysisFailure("second"), analysisFailure("third")}}
	retrying := NewRetryingInsights(next, 2, time.Millisecond, nil)

	_, err := retrying.GetOrCompute(context.Background(), AuthContext{}, models.KindRisk, false)
	if !errors.Is(err, ErrAnalysisFailed) || err.Error() != analysisFailure("second").Error() {
		t.Fatalf("expected last analysis failure, got %v", err)
	}
	if next.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", next.calls)
	}
}

func TestRetryingInsightsDoesNotRetryOtherErrors(t *testing.T) {
	for _, failure := range []error{ErrCaseNotOwned, ErrInvalidAnalysisKind, errors.New("connection refused")} {
		next := &scriptedComputer{errs: []error{failure}}
		retrying := NewRetryingInsights(next, 3, time.Millisecond, nil)

		if _, err := retrying.GetOrCompute(context.Background(), AuthContext{}, models.KindRisk, false); !errors.Is(err, failure) {
			t.Fatalf("expected %v, got %v", failure, err)
		}
		if next.calls != 1 {
			t.Fatalf("%v: expected a single attempt, got %d", failure, next.calls)
		}
	}
}

func TestRunBatchContinuesAfterPhaseOneFailure(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	auth := newTestCase(t, store)
	addDocument(t, store, auth.CaseID, "petition.pdf", models.RolePetition, longText("WRIT PETITION"), testNow)

	var (
		mu    sync.Mutex
		order []models.AnalysisKind
	)
	answer := answerByKind(map[models.AnalysisKind]error{models.KindRisk: errors.New("model overloaded")})
	r := newStubReasoner(func(ctx context.Context, req reasoning.Request) (*reasoning.Response, error) {
		mu.Lock()
		order = append(order, analysisKindOf(req))
		mu.Unlock()
		return answer(ctx, req)
	})
	insights := newTestInsightService(store, r, newFakeClock())
	batch := NewBatchCoordinator(insights, store)

	result, err := batch.RunBatch(ctx, auth, false)
	if err != nil {
		t.Fatalf("RunBatch returned error: %v", err)
	}

	if _, ok := result.Phase1[models.KindRisk]; ok {
		t.Fatalf("failed risk analysis must not appear in phase 1")
	}
	if result.Phase1[models.KindRelief] == nil {
		t.Fatalf("expected relief in phase 1, got %v", result.Phase1)
	}
	if result.Phase2[models.KindPrecedents] == nil || result.Phase2[models.KindRights] == nil {
		t.Fatalf("expected both phase 2 analyses, got %v", result.Phase2)
	}
	if len(result.Failures) != 1 || result.Failures[models.KindRisk] == "" {
		t.Fatalf("expected risk failure reported, got %v", result.Failures)
	}

	if len(order) != 4 {
		t.Fatalf("expected 4 analyses run, got %v", order)
	}
	for _, kind := range order[:2] {
		if kind != models.KindRisk && kind != models.KindRelief {
			t.Fatalf("phase 2 analysis %s started before phase 1 finished: %v", kind, order)
		}
	}
}

func TestRunBatchServesCachedResults(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	auth := newTestCase(t, store)
	r := newStubReasoner(answerByKind(nil))
	batch := NewBatchCoordinator(newTestInsightService(store, r, newFakeClock()), store)

	if _, err := batch.RunBatch(ctx, auth, false); err != nil {
		t.Fatal(err)
	}
	again, err := batch.RunBatch(ctx, auth, false)
	if err != nil {
		t.Fatal(err)
	}
	if r.calls() != 4 {
		t.Fatalf("expected second batch served from cache, got %d calls", r.calls())
	}
	for kind, res := range again.Phase1 {
		if !res.Cached {
			t.Fatalf("%s: expected cached result", kind)
		}
	}

	if _, err := batch.RunBatch(ctx, auth, true); err != nil {
		t.Fatal(err)
	}
	if r.calls() != 8 {
		t.Fatalf("expected forced batch to recompute all four, got %d calls", r.calls())
	}
}

func TestRunBatchRejectsStranger(t *testing.T) {
	store := repository.NewMemoryStore()
	auth := newTestCase(t, store)
	next := &scriptedComputer{}
	batch := NewBatchCoordinator(next, store)

	_, err := batch.RunBatch(context.Background(), AuthContext{CallerID: uuid.New(), CaseID: auth.CaseID}, false)
	if !errors.Is(err, ErrCaseNotOwned) {
		t.Fatalf("expected ErrCaseNotOwned, got %v", err)
	}
	if next.calls != 0 {
		t.Fatalf("expected no analyses run, got %d", next.calls)
	}
}
