package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range plainEnv {
		t.Setenv(env, "")
	}
	t.Setenv("CASEINSIGHT_DATABASE_URL", "")
	t.Setenv("CASEINSIGHT_REASONING_PROVIDER", "")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Reasoning.Provider != "gemini" {
		t.Fatalf("expected gemini provider, got %s", cfg.Reasoning.Provider)
	}
	if cfg.Classifier.MinTextLength != 100 || cfg.Classifier.ExcerptLength != 2000 {
		t.Fatalf("unexpected classifier defaults: %+v", cfg.Classifier)
	}
	if cfg.Classifier.BatchSize != 5 || cfg.Classifier.BatchDelay != time.Second || cfg.Classifier.PendingLimit != 10 {
		t.Fatalf("unexpected batching defaults: %+v", cfg.Classifier)
	}
	if cfg.Insights.Retention != 7*24*time.Hour {
		t.Fatalf("expected 7 day retention, got %v", cfg.Insights.Retention)
	}
	if cfg.Insights.RetryAttempts != 1 || cfg.Insights.SingleFlight {
		t.Fatalf("expected retries and single flight off by default: %+v", cfg.Insights)
	}
	if cfg.Brief.MaxContextChars != 30000 || cfg.Brief.HistoryLimit != 10 {
		t.Fatalf("unexpected brief defaults: %+v", cfg.Brief)
	}
}

func TestLoadHonorsEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://plain/db")
	t.Setenv("GEMINI_API_KEY", "plain-key")
	t.Setenv("PORT", "9090")
	t.Setenv("CASEINSIGHT_INSIGHTS_RETENTION", "48h")
	t.Setenv("CASEINSIGHT_INSIGHTS_SINGLE_FLIGHT", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Database.URL != "postgres://plain/db" {
		t.Fatalf("expected DATABASE_URL to apply, got %s", cfg.Database.URL)
	}
	if cfg.Reasoning.GeminiAPIKey != "plain-key" {
		t.Fatalf("expected GEMINI_API_KEY to apply, got %q", cfg.Reasoning.GeminiAPIKey)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected PORT to apply, got %s", cfg.Server.Port)
	}
	if cfg.Insights.Retention != 48*time.Hour {
		t.Fatalf("expected retention override, got %v", cfg.Insights.Retention)
	}
	if !cfg.Insights.SingleFlight {
		t.Fatalf("expected single flight enabled from env")
	}
}

func TestLoadPrefixedEnvWinsOverPlain(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://plain/db")
	t.Setenv("CASEINSIGHT_DATABASE_URL", "postgres://prefixed/db")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Database.URL != "postgres://prefixed/db" {
		t.Fatalf("expected prefixed variable to win, got %s", cfg.Database.URL)
	}
}

func TestLoadReadsYamlFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := strings.TrimSpace(`
reasoning:
  provider: openai
  model: gpt-4o
classifier:
  batch_size: 3
  batch_delay: 250ms
brief:
  history_limit: 5
`)
	if err := os.WriteFile(path, []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Reasoning.Provider != "openai" || cfg.Reasoning.Model != "gpt-4o" {
		t.Fatalf("unexpected reasoning config: %+v", cfg.Reasoning)
	}
	if cfg.Classifier.BatchSize != 3 || cfg.Classifier.BatchDelay != 250*time.Millisecond {
		t.Fatalf("unexpected classifier config: %+v", cfg.Classifier)
	}
	if cfg.Brief.HistoryLimit != 5 {
		t.Fatalf("expected history limit 5, got %d", cfg.Brief.HistoryLimit)
	}
	// untouched keys keep their defaults
	if cfg.Classifier.MinTextLength != 100 {
		t.Fatalf("expected default min text length, got %d", cfg.Classifier.MinTextLength)
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("CASEINSIGHT_REASONING_PROVIDER", "llama")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestLoadRejectsNonPositiveAnalysisTimeout(t *testing.T) {
	for _, value := range []string{"0s", "-1m"} {
		clearEnv(t)
		t.Setenv("CASEINSIGHT_INSIGHTS_ANALYSIS_TIMEOUT", value)

		if _, err := Load(""); err == nil {
			t.Fatalf("expected error for analysis timeout %s", value)
		}
	}
}
