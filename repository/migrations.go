package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

//go:embed schema.sql
var schemaSQL string

// schemaIndexes are created after the tables. A failing index is logged and skipped.
var schemaIndexes = []struct {
	name string
	sql  string
}{
	{
		name: "Cases by practitioner",
		sql:  "CREATE INDEX IF NOT EXISTS idx_cases_practitioner ON cases(practitioner_id);",
	},
	{
		name: "Documents by case in upload order",
		sql:  "CREATE INDEX IF NOT EXISTS idx_documents_case_uploaded ON documents(case_id, uploaded_at);",
	},
	{
		name: "Unclassified documents",
		sql:  "CREATE INDEX IF NOT EXISTS idx_documents_unclassified ON documents(case_id) WHERE classified_at IS NULL;",
	},
	{
		name: "Current insight lookup",
		sql:  "CREATE INDEX IF NOT EXISTS idx_insights_current ON insights(case_id, kind, completed_at DESC) WHERE status = 'COMPLETED';",
	},
	{
		name: "Insight expiry by case",
		sql:  "CREATE INDEX IF NOT EXISTS idx_insights_case_expires ON insights(case_id, expires_at);",
	},
	{
		name: "Briefs by case, newest first",
		sql:  "CREATE INDEX IF NOT EXISTS idx_hearing_briefs_case_created ON hearing_briefs(case_id, created_at DESC);",
	},
}

// Migrate applies the embedded schema to the database at databaseURL
func Migrate(ctx context.Context, databaseURL string, logger *zap.Logger) error {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("error connecting to the database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("error executing schema: %w", err)
	}
	logger.Info("schema applied")

	for _, idx := range schemaIndexes {
		if _, err := db.ExecContext(ctx, idx.sql); err != nil {
			logger.Warn("failed to create index", zap.String("index", idx.name), zap.Error(err))
			continue
		}
		logger.Info("index ready", zap.String("index", idx.name))
	}

	return nil
}
