package service

import (
	"context"
	"errors"
	"time"

	"caseinsight-backend/models"

	"go.uber.org/zap"
)

// RetryingInsights retries failed analyses with doubling backoff. Each
// attempt is a full GetOrCompute and leaves its own Insight row.
type RetryingInsights struct {
	next     InsightComputer
	attempts int
	backoff  time.Duration
	logger   *zap.Logger
}

// NewRetryingInsights wraps next. attempts counts the first try; values
// below 1 are treated as 1.
func NewRetryingInsights(next InsightComputer, attempts int, backoff time.Duration, logger *zap.Logger) *RetryingInsights {
	if attempts < 1 {
		attempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryingInsights{next: next, attempts: attempts, backoff: backoff, logger: logger}
}

// GetOrCompute implements InsightComputer. Only analysis failures are
// retried; validation, ownership and storage errors return immediately.
func (r *RetryingInsights) GetOrCompute(ctx context.Context, auth AuthContext, kind models.AnalysisKind, forceRefresh bool) (*InsightResult, error) {
	backoff := r.backoff
	var lastErr error
	for attempt := 0; attempt < r.attempts; attempt++ {
		if attempt > 0 {
			r.logger.Info("retrying analysis",
				zap.String("case_id", auth.CaseID.String()),
				zap.String("kind", string(kind)),
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff))
			if err := sleepCtx(ctx, backoff); err != nil {
				return nil, lastErr
			}
			backoff *= 2
		}

		res, err := r.next.GetOrCompute(ctx, auth, kind, forceRefresh)
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, ErrAnalysisFailed) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}
