package service

import (
	"context"
	"errors"
	"sync"

	"caseinsight-backend/models"
	"caseinsight-backend/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// batchPhases are run in order; kinds within a phase run concurrently.
// The second phase lists the first as context in the registry.
var batchPhases = [][]models.AnalysisKind{
	{models.KindRisk, models.KindRelief},
	{models.KindPrecedents, models.KindRights},
}

// BatchResult holds the successful analyses of each phase. A failed kind is
// absent from its phase and listed in Failures.
type BatchResult struct {
	Phase1   map[models.AnalysisKind]*InsightResult `json:"phase1"`
	Phase2   map[models.AnalysisKind]*InsightResult `json:"phase2"`
	Failures map[models.AnalysisKind]string         `json:"failures,omitempty"`
}

// BatchCoordinator runs the fixed two-phase analysis set for a case
type BatchCoordinator struct {
	insights InsightComputer
	cases    repository.CaseStore
	logger   *zap.Logger
}

// BatchCoordinatorOption is a functional option for BatchCoordinator
type BatchCoordinatorOption func(*BatchCoordinator)

// BatchWithLogger sets the logger
func BatchWithLogger(logger *zap.Logger) BatchCoordinatorOption {
	return func(b *BatchCoordinator) {
		b.logger = logger
	}
}

// NewBatchCoordinator creates a coordinator over an insight computer
func NewBatchCoordinator(insights InsightComputer, cases repository.CaseStore, opts ...BatchCoordinatorOption) *BatchCoordinator {
	b := &BatchCoordinator{
		insights: insights,
		cases:    cases,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// RunBatch runs every phase even when analyses of an earlier phase fail.
// Only an authorization failure is returned as an error.
func (b *BatchCoordinator) RunBatch(ctx context.Context, auth AuthContext, forceRefresh bool) (*BatchResult, error) {
	if b.insights == nil || b.cases == nil {
		return nil, errors.New("batch coordinator not configured")
	}
	if _, err := authorize(ctx, b.cases, auth); err != nil {
		return nil, err
	}

	result := &BatchResult{
		Failures: make(map[models.AnalysisKind]string),
	}
	for i, kinds := range batchPhases {
		succeeded := b.runPhase(ctx, auth, kinds, forceRefresh, result.Failures)
		if i == 0 {
			result.Phase1 = succeeded
		} else {
			result.Phase2 = succeeded
		}
	}

	b.logger.Info("batch analysis finished",
		zap.String("case_id", auth.CaseID.String()),
		zap.Int("phase1", len(result.Phase1)),
		zap.Int("phase2", len(result.Phase2)),
		zap.Int("failed", len(result.Failures)))
	return result, nil
}

func (b *BatchCoordinator) runPhase(ctx context.Context, auth AuthContext, kinds []models.AnalysisKind, forceRefresh bool, failures map[models.AnalysisKind]string) map[models.AnalysisKind]*InsightResult {
	var (
		mu        sync.Mutex
		succeeded = make(map[models.AnalysisKind]*InsightResult, len(kinds))
	)

	// plain Group: one failure must not cancel its siblings
	var g errgroup.Group
	for _, kind := range kinds {
		g.Go(func() error {
			res, err := b.insights.GetOrCompute(ctx, auth, kind, forceRefresh)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				b.logger.Warn("batch analysis failed", zap.String("kind", string(kind)), zap.Error(err))
				failures[kind] = err.Error()
				return nil
			}
			succeeded[kind] = res
			return nil
		})
	}
	g.Wait()
	return succeeded
}
