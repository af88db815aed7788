package models

import (
	"errors"
	"testing"
	"time"
)

func TestParseAnalysisKindAcceptsLegacyNames(t *testing.T) {
	cases := map[string]AnalysisKind{
		"risk":                 KindRisk,
		"precedents":           KindPrecedents,
		"RISK_ASSESSMENT":      KindRisk,
		"RIGHTS_MAPPING":       KindRights,
		"COUNTER_ANTICIPATION": KindCounter,
		"relief_evaluation":    KindRelief,
		" narrative ":          KindNarrative,
	}
	for in, want := range cases {
		got, err := ParseAnalysisKind(in)
		if err != nil {
			t.Fatalf("ParseAnalysisKind(%q) returned error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseAnalysisKind(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseAnalysisKindRejectsUnknown(t *testing.T) {
	for _, in := range []string{"", "summary", "Risk"} {
		if _, err := ParseAnalysisKind(in); !errors.Is(err, ErrUnknownAnalysisKind) {
			t.Fatalf("ParseAnalysisKind(%q) error = %v, want ErrUnknownAnalysisKind", in, err)
		}
	}
}

func TestDecodeAnalysisResultValidatesRisk(t *testing.T) {
	valid := `{"overallScore": 62, "caseStrength": "MODERATE", "weaknesses": [], "fatalFlaws": []}`
	result, err := DecodeAnalysisResult(KindRisk, []byte(valid))
	if err != nil {
		t.Fatalf("expected valid risk result, got %v", err)
	}
	risk, ok := result.(*RiskAssessment)
	if !ok {
		t.Fatalf("expected *RiskAssessment, got %T", result)
	}
	if risk.OverallScore != 62 || risk.Kind() != KindRisk {
		t.Fatalf("unexpected risk result: %+v", risk)
	}

	for _, bad := range []string{
		`{"overallScore": 120, "caseStrength": "STRONG"}`,
		`{"overallScore": 50}`,
		`{"overallScore": 50, "caseStrength": "VERY_STRONG"}`,
		`not json`,
	} {
		if _, err := DecodeAnalysisResult(KindRisk, []byte(bad)); err == nil {
			t.Fatalf("expected error for %s", bad)
		}
	}
}

func TestDecodeAnalysisResultRequiresCoreFields(t *testing.T) {
	cases := []struct {
		kind  AnalysisKind
		empty string
		valid string
	}{
		{KindPrecedents, `{"overallStrength": 40}`, `{"precedents": [], "overallStrength": 40}`},
		{KindRights, `{}`, `{"applicableRights": []}`},
		{KindNarrative, `{}`, `{"sections": [], "persuasivenessMetrics": {"emotionalRationalBalance": 50}}`},
		{KindCounter, `{"expectedTone": "TECHNICAL"}`, `{"predictedLegalDefenses": []}`},
		{KindRelief, `{}`, `{"recommendedPrayers": [{"relief": "stay", "feasibilityScore": 70}]}`},
	}
	for _, tc := range cases {
		if _, err := DecodeAnalysisResult(tc.kind, []byte(tc.empty)); err == nil {
			t.Fatalf("%s: expected error for %s", tc.kind, tc.empty)
		}
		result, err := DecodeAnalysisResult(tc.kind, []byte(tc.valid))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.kind, err)
		}
		if result.Kind() != tc.kind {
			t.Fatalf("%s: decoded as %s", tc.kind, result.Kind())
		}
	}
}

func TestDecodeAnalysisResultRejectsUnknownKind(t *testing.T) {
	if _, err := DecodeAnalysisResult("summary", []byte(`{}`)); !errors.Is(err, ErrUnknownAnalysisKind) {
		t.Fatalf("expected ErrUnknownAnalysisKind, got %v", err)
	}
}

func TestParseDocumentRoleAliases(t *testing.T) {
	cases := map[string]DocumentRole{
		"PETITION":          RolePetition,
		"counter_statement": RoleCounterStatement,
		"COUNTER_AFFIDAVIT": RoleCounterStatement,
		"ANNEXURE":          RoleExhibit,
		"INTERIM_ORDER":     RoleOrder,
		"DAILY_ORDER":       RoleOrder,
		"EVIDENCE":          RoleOther,
	}
	for in, want := range cases {
		got, ok := ParseDocumentRole(in)
		if !ok || got != want {
			t.Fatalf("ParseDocumentRole(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
	if _, ok := ParseDocumentRole("AFFIDAVIT_OF_SERVICE"); ok {
		t.Fatalf("expected unknown role to be rejected")
	}
}

func TestInsightIsCurrent(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)

	completed := &Insight{Status: InsightCompleted}
	if !completed.IsCurrent(now) {
		t.Fatalf("completed insight without expiry should be current")
	}

	completed.ExpiresAt = &later
	if !completed.IsCurrent(now) {
		t.Fatalf("insight expiring later should be current")
	}

	completed.ExpiresAt = &now
	if completed.IsCurrent(now) {
		t.Fatalf("insight expiring at now should not be current")
	}

	processing := &Insight{Status: InsightProcessing}
	if processing.IsCurrent(now) {
		t.Fatalf("processing insight should not be current")
	}
}
