package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"caseinsight-backend/models"
	"caseinsight-backend/reasoning"
	"caseinsight-backend/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	defaultRetention       = 7 * 24 * time.Hour
	defaultAnalysisTimeout = 3 * time.Minute
)

// InsightResult is what a caller receives for one analysis kind
type InsightResult struct {
	InsightID   uuid.UUID             `json:"insight_id"`
	Kind        models.AnalysisKind   `json:"kind"`
	Result      models.AnalysisResult `json:"-"`
	Payload     json.RawMessage       `json:"result"`
	Cached      bool                  `json:"cached"`
	GeneratedAt time.Time             `json:"generated_at"`
	TokensUsed  int                   `json:"tokens_used"`
}

// CurrentInsight is the served insight of one kind in a case summary
type CurrentInsight struct {
	InsightID   uuid.UUID       `json:"insight_id"`
	Result      json.RawMessage `json:"result"`
	GeneratedAt time.Time       `json:"generated_at"`
	ExpiresAt   *time.Time      `json:"expires_at,omitempty"`
}

// InsightComputer computes or serves a cached analysis
type InsightComputer interface {
	GetOrCompute(ctx context.Context, auth AuthContext, kind models.AnalysisKind, forceRefresh bool) (*InsightResult, error)
}

// InsightService runs analyses through the reasoning service and caches
// each run as an Insight row. Concurrent misses each run and persist their
// own row and the most recently completed row is served; WithSingleFlight
// coalesces misses inside one process instead.
type InsightService struct {
	cases        repository.CaseStore
	documents    repository.DocumentStore
	insights     repository.InsightStore
	reasoner     reasoning.Reasoner
	logger       *zap.Logger
	now          func() time.Time
	retention    time.Duration
	timeout      time.Duration
	singleFlight bool
	flights      singleflight.Group
}

// InsightServiceOption is a functional option for InsightService
type InsightServiceOption func(*InsightService)

// InsightWithCaseStore sets the case store used for ownership checks
func InsightWithCaseStore(store repository.CaseStore) InsightServiceOption {
	return func(s *InsightService) {
		s.cases = store
	}
}

// InsightWithDocumentStore sets the document store bundles are read from
func InsightWithDocumentStore(store repository.DocumentStore) InsightServiceOption {
	return func(s *InsightService) {
		s.documents = store
	}
}

// InsightWithInsightStore sets the insight store
func InsightWithInsightStore(store repository.InsightStore) InsightServiceOption {
	return func(s *InsightService) {
		s.insights = store
	}
}

// InsightWithReasoner sets the reasoning service
func InsightWithReasoner(r reasoning.Reasoner) InsightServiceOption {
	return func(s *InsightService) {
		s.reasoner = r
	}
}

// InsightWithLogger sets the logger
func InsightWithLogger(logger *zap.Logger) InsightServiceOption {
	return func(s *InsightService) {
		s.logger = logger
	}
}

// InsightWithClock overrides time.Now
func InsightWithClock(now func() time.Time) InsightServiceOption {
	return func(s *InsightService) {
		s.now = now
	}
}

// InsightWithRetention sets how long a completed insight is served
func InsightWithRetention(d time.Duration) InsightServiceOption {
	return func(s *InsightService) {
		s.retention = d
	}
}

// InsightWithTimeout bounds a single analysis run
func InsightWithTimeout(d time.Duration) InsightServiceOption {
	return func(s *InsightService) {
		s.timeout = d
	}
}

// InsightWithSingleFlight coalesces concurrent misses for the same case and kind
func InsightWithSingleFlight(enabled bool) InsightServiceOption {
	return func(s *InsightService) {
		s.singleFlight = enabled
	}
}

// NewInsightService creates a new insight service
func NewInsightService(opts ...InsightServiceOption) *InsightService {
	s := &InsightService{
		logger:    zap.NewNop(),
		now:       time.Now,
		retention: defaultRetention,
		timeout:   defaultAnalysisTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InsightService) ready() error {
	switch {
	case s.cases == nil:
		return errors.New("case store not set")
	case s.documents == nil:
		return errors.New("document store not set")
	case s.insights == nil:
		return errors.New("insight store not set")
	case s.reasoner == nil:
		return errors.New("reasoner not set")
	}
	return nil
}

// GetOrCompute serves the current insight of kind for the case, or runs the
// analysis when there is none or forceRefresh is set.
func (s *InsightService) GetOrCompute(ctx context.Context, auth AuthContext, kind models.AnalysisKind, forceRefresh bool) (*InsightResult, error) {
	analysis, err := LookupAnalysis(kind)
	if err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}

	c, err := authorize(ctx, s.cases, auth)
	if err != nil {
		return nil, err
	}

	if !forceRefresh {
		hit, err := s.insights.FindCurrentInsight(ctx, c.ID, kind, s.now())
		switch {
		case err == nil:
			recordCacheHit(ctx, kind)
			return cachedResult(hit)
		case !errors.Is(err, repository.ErrNotFound):
			return nil, err
		}
	}

	if !s.singleFlight {
		return s.compute(ctx, c, analysis)
	}

	key := c.ID.String() + "/" + string(kind)
	v, err, shared := s.flights.Do(key, func() (any, error) {
		// detached so one caller going away does not fail the others
		return s.compute(context.WithoutCancel(ctx), c, analysis)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("joined in-flight analysis", zap.String("case_id", c.ID.String()), zap.String("kind", string(kind)))
	}
	res := *v.(*InsightResult)
	return &res, nil
}

func cachedResult(i *models.Insight) (*InsightResult, error) {
	result, err := models.DecodeAnalysisResult(i.Kind, i.Result)
	if err != nil {
		return nil, fmt.Errorf("stored insight %s: %w", i.ID, err)
	}
	return &InsightResult{
		InsightID:   i.ID,
		Kind:        i.Kind,
		Result:      result,
		Payload:     i.Result,
		Cached:      true,
		GeneratedAt: generatedAt(i),
		TokensUsed:  i.TokensUsed,
	}, nil
}

func generatedAt(i *models.Insight) time.Time {
	if i.CompletedAt != nil {
		return *i.CompletedAt
	}
	return i.CreatedAt
}

// compute performs one uncached run on its own Insight row
func (s *InsightService) compute(ctx context.Context, c *models.Case, analysis *Analysis) (*InsightResult, error) {
	bundle, err := NewBundleAssembler(s.documents).Assemble(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("assemble bundle: %w", err)
	}

	insight := &models.Insight{
		CaseID:    c.ID,
		Kind:      analysis.Kind,
		Status:    models.InsightPending,
		CreatedAt: s.now(),
	}
	if err := s.insights.CreateInsight(ctx, insight); err != nil {
		return nil, fmt.Errorf("create insight: %w", err)
	}
	if err := s.insights.MarkInsightProcessing(ctx, insight.ID, s.now()); err != nil {
		return nil, fmt.Errorf("mark insight processing: %w", err)
	}

	logger := s.logger.With(
		zap.String("case_id", c.ID.String()),
		zap.String("kind", string(analysis.Kind)),
		zap.String("insight_id", insight.ID.String()),
	)
	logger.Info("running analysis", zap.Int("documents", len(bundle.Documents)))

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	out, runErr := analysis.Run(runCtx, s.reasoner, c, bundle)
	cancel()

	// persist the outcome even if the caller has gone away
	persistCtx := context.WithoutCancel(ctx)

	if runErr != nil {
		message := runErr.Error()
		if errors.Is(runErr, context.DeadlineExceeded) {
			message = fmt.Sprintf("analysis timed out after %s", s.timeout)
		}
		if err := s.insights.FailInsight(persistCtx, insight.ID, message, s.now()); err != nil {
			logger.Error("failed to record analysis failure", zap.Error(err))
		}
		logger.Warn("analysis failed", zap.Error(runErr))
		recordComputation(ctx, analysis.Kind, "failed", 0)
		return nil, fmt.Errorf("%w: %s: %w", ErrAnalysisFailed, analysis.Kind, runErr)
	}

	completedAt := s.now()
	if err := s.insights.CompleteInsight(persistCtx, insight.ID, out.Payload, out.TokensUsed, completedAt, completedAt.Add(s.retention)); err != nil {
		return nil, fmt.Errorf("complete insight: %w", err)
	}
	logger.Info("analysis completed", zap.Int("tokens_used", out.TokensUsed))
	recordComputation(ctx, analysis.Kind, "completed", out.TokensUsed)

	return &InsightResult{
		InsightID:   insight.ID,
		Kind:        analysis.Kind,
		Result:      out.Result,
		Payload:     out.Payload,
		Cached:      false,
		GeneratedAt: completedAt,
		TokensUsed:  out.TokensUsed,
	}, nil
}

// ListCurrent returns the most recent current insight of each kind for the case
func (s *InsightService) ListCurrent(ctx context.Context, auth AuthContext) (map[models.AnalysisKind]*CurrentInsight, error) {
	if s.cases == nil || s.insights == nil {
		return nil, errors.New("insight service stores not set")
	}
	if _, err := authorize(ctx, s.cases, auth); err != nil {
		return nil, err
	}

	rows, err := s.insights.ListCurrentInsights(ctx, auth.CaseID, s.now())
	if err != nil {
		return nil, err
	}

	current := make(map[models.AnalysisKind]*CurrentInsight, len(rows))
	for _, i := range rows {
		current[i.Kind] = &CurrentInsight{
			InsightID:   i.ID,
			Result:      i.Result,
			GeneratedAt: generatedAt(i),
			ExpiresAt:   i.ExpiresAt,
		}
	}
	return current, nil
}

// InvalidateCase expires every insight of the case so the next read recomputes.
// All kinds are expired regardless of which document changed.
func (s *InsightService) InvalidateCase(ctx context.Context, caseID uuid.UUID) (int64, error) {
	if s.insights == nil {
		return 0, errors.New("insight store not set")
	}
	n, err := s.insights.ExpireInsights(ctx, caseID, s.now())
	if err != nil {
		return 0, fmt.Errorf("expire insights: %w", err)
	}
	s.logger.Info("insights invalidated", zap.String("case_id", caseID.String()), zap.Int64("expired", n))
	return n, nil
}
