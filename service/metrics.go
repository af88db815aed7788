package service

import (
	"context"
	"sync"

	"caseinsight-backend/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
)

var (
	metricsOnce         sync.Once
	computationsCounter otelmetric.Int64Counter
	cacheHitCounter     otelmetric.Int64Counter
	tokenCounter        otelmetric.Int64Counter
	metricsInitErr      error
)

func initInsightMetrics() {
	meter := otel.Meter("caseinsight/service")
	var err error
	computationsCounter, err = meter.Int64Counter("insight_computations_total")
	if err != nil {
		metricsInitErr = err
		return
	}
	cacheHitCounter, err = meter.Int64Counter("insight_cache_hits_total")
	if err != nil {
		metricsInitErr = err
		return
	}
	tokenCounter, err = meter.Int64Counter("reasoning_tokens_total")
	if err != nil {
		metricsInitErr = err
	}
}

func recordComputation(ctx context.Context, kind models.AnalysisKind, outcome string, tokens int) {
	metricsOnce.Do(initInsightMetrics)
	if metricsInitErr != nil {
		return
	}
	computationsCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("kind", string(kind)),
		attribute.String("outcome", outcome),
	))
	if tokens > 0 {
		tokenCounter.Add(ctx, int64(tokens), otelmetric.WithAttributes(attribute.String("kind", string(kind))))
	}
}

func recordCacheHit(ctx context.Context, kind models.AnalysisKind) {
	metricsOnce.Do(initInsightMetrics)
	if metricsInitErr != nil {
		return
	}
	cacheHitCounter.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("kind", string(kind))))
}

func recordTokens(ctx context.Context, operation string, tokens int) {
	metricsOnce.Do(initInsightMetrics)
	if metricsInitErr != nil || tokens <= 0 {
		return
	}
	tokenCounter.Add(ctx, int64(tokens), otelmetric.WithAttributes(attribute.String("kind", operation)))
}
