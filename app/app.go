// Package app builds the pipeline's components from configuration. The HTTP
// server and the admin CLI share it.
package app

import (
	"context"
	"errors"
	"fmt"

	"caseinsight-backend/config"
	"caseinsight-backend/handlers"
	"caseinsight-backend/reasoning"
	"caseinsight-backend/repository"
	"caseinsight-backend/service"
	"caseinsight-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// App holds the wired services
type App struct {
	Config        *config.Config
	Store         repository.Store
	Storage       storage.Storage
	Reasoner      reasoning.Reasoner
	Cases         *service.CaseService
	Practitioners *service.PractitionerService
	Documents     *service.DocumentService
	Bundles       *service.BundleAssembler
	Insights      *service.InsightService
	Computer      service.InsightComputer
	Batch         *service.BatchCoordinator
	Briefs        *service.BriefService

	logger  *zap.Logger
	closers []func()
}

// Build connects to the store, file storage and reasoning service and
// assembles every service.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Config: cfg, logger: logger}

	if err := a.initStore(ctx); err != nil {
		a.Close()
		return nil, err
	}

	st, err := storage.NewStorage(ctx, storage.StorageConfig{
		Type:         storage.StorageType(cfg.Storage.Type),
		LocalPath:    cfg.Storage.LocalPath,
		S3Bucket:     cfg.Storage.S3Bucket,
		S3Region:     cfg.Storage.S3Region,
		S3Prefix:     cfg.Storage.S3Prefix,
		AWSAccessKey: cfg.Storage.AWSAccessKey,
		AWSSecretKey: cfg.Storage.AWSSecretKey,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	a.Storage = st
	logger.Info("storage initialized", zap.String("type", cfg.Storage.Type))

	if err := a.initReasoner(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.wire()
	return a, nil
}

func (a *App) initStore(ctx context.Context) error {
	store, closeStore, err := OpenStore(ctx, a.Config.Database, a.logger)
	if err != nil {
		return err
	}
	a.Store = store
	a.closers = append(a.closers, closeStore)
	return nil
}

// OpenStore opens the configured document store. The returned func
// releases it.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (repository.Store, func(), error) {
	if cfg.UseInMemory {
		logger.Warn("using in-memory store; data is lost on exit")
		return repository.NewMemoryStore(), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info("postgres connection established")
	return repository.NewPostgresStore(pool), pool.Close, nil
}

func (a *App) initReasoner(ctx context.Context) error {
	rc := a.Config.Reasoning
	switch rc.Provider {
	case "gemini":
		if rc.GeminiAPIKey == "" {
			a.logger.Warn("GEMINI_API_KEY not set")
		}
		client, err := genai.NewClient(ctx, option.WithAPIKey(rc.GeminiAPIKey))
		if err != nil {
			return fmt.Errorf("init gemini client: %w", err)
		}
		a.closers = append(a.closers, func() { client.Close() })
		a.Reasoner = reasoning.NewGeminiReasoner(client, rc.Model, float32(rc.Temperature), a.logger)
	case "openai":
		if rc.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY is required for the openai provider")
		}
		a.Reasoner = reasoning.NewOpenAIReasoner(rc.OpenAIAPIKey, rc.Model, rc.Temperature, a.logger)
	default:
		return fmt.Errorf("unknown reasoning provider %q", rc.Provider)
	}
	a.logger.Info("reasoning service initialized", zap.String("provider", rc.Provider), zap.String("model", rc.Model))
	return nil
}

// wire builds the services over the already initialized dependencies
func (a *App) wire() {
	cfg := a.Config

	a.Cases = service.NewCaseService(service.WithCaseStore(a.Store))
	a.Practitioners = service.NewPractitionerService(a.Store)
	a.Bundles = service.NewBundleAssembler(a.Store)

	a.Insights = service.NewInsightService(
		service.InsightWithCaseStore(a.Store),
		service.InsightWithDocumentStore(a.Store),
		service.InsightWithInsightStore(a.Store),
		service.InsightWithReasoner(a.Reasoner),
		service.InsightWithLogger(a.logger),
		service.InsightWithRetention(cfg.Insights.Retention),
		service.InsightWithTimeout(cfg.Insights.AnalysisTimeout),
		service.InsightWithSingleFlight(cfg.Insights.SingleFlight),
	)

	a.Computer = a.Insights
	if cfg.Insights.RetryAttempts > 1 {
		a.Computer = service.NewRetryingInsights(a.Insights, cfg.Insights.RetryAttempts, cfg.Insights.RetryBackoff, a.logger)
	}
	a.Batch = service.NewBatchCoordinator(a.Computer, a.Store, service.BatchWithLogger(a.logger))

	classifier := service.NewClassifier(
		service.WithClassifierReasoner(a.Reasoner),
		service.WithClassifierLogger(a.logger),
		service.WithMinTextLength(cfg.Classifier.MinTextLength),
		service.WithExcerptLength(cfg.Classifier.ExcerptLength),
		service.WithClassifyBatching(cfg.Classifier.BatchSize, cfg.Classifier.BatchDelay),
	)
	a.Documents = service.NewDocumentService(
		service.DocumentWithCaseStore(a.Store),
		service.DocumentWithDocumentStore(a.Store),
		service.DocumentWithStorage(a.Storage),
		service.DocumentWithClassifier(classifier),
		service.DocumentWithInvalidator(a.Insights),
		service.DocumentWithLogger(a.logger),
		service.DocumentWithPendingLimit(cfg.Classifier.PendingLimit),
	)

	a.Briefs = service.NewBriefService(
		service.BriefWithCaseStore(a.Store),
		service.BriefWithDocumentStore(a.Store),
		service.BriefWithInsightStore(a.Store),
		service.BriefWithBriefStore(a.Store),
		service.BriefWithReasoner(a.Reasoner),
		service.BriefWithLogger(a.logger),
		service.BriefWithLimits(cfg.Brief.MaxContextChars, cfg.Brief.MaxOutputTokens, cfg.Brief.HistoryLimit),
	)
}

// Router builds the gin engine with every route registered
func (a *App) Router() *gin.Engine {
	caseHandler := handlers.NewCaseHandler(a.Cases, a.Bundles, a.Briefs)
	documentHandler := handlers.NewDocumentHandler(a.Documents, a.Config.Server.MaxFileSize)
	insightHandler := handlers.NewInsightHandler(a.Computer, a.Insights, a.Batch)
	briefHandler := handlers.NewBriefHandler(a.Briefs)

	r := gin.Default()
	handlers.RegisterRoutes(r, caseHandler, documentHandler, insightHandler, briefHandler)
	return r
}

// Close releases the database pool and reasoning client
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
