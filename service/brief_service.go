package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"caseinsight-backend/models"
	"caseinsight-backend/reasoning"
	"caseinsight-backend/repository"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	defaultBriefContextChars = 30000
	defaultBriefOutputTokens = 8192
	defaultBriefHistory      = 10
	summaryMaxTokens         = 4096
)

// briefInsightKinds are the cached analyses a hearing brief draws on
var briefInsightKinds = []models.AnalysisKind{
	models.KindPrecedents,
	models.KindRisk,
	models.KindRights,
	models.KindCounter,
}

const summaryPrompt = `Analyze this case bundle and provide a comprehensive analysis.

Focus on:
1. Key facts from the petition and subsequent developments
2. Changes since the initial filing
3. Contradictions between documents
4. Relief sought against the opposition raised to it
5. How the arguments evolved across the pleadings

Respond in JSON format:
{
  "keyFacts": ["fact"],
  "changes": [{"stage": "", "description": "", "impact": "POSITIVE|NEGATIVE|NEUTRAL"}],
  "contradictions": [{"documents": [], "issue": "", "description": ""}],
  "reliefMapping": [{"reliefSought": "", "status": "", "oppositionArguments": []}],
  "argumentPoints": [{"topic": "", "petitionerPosition": "", "respondentPosition": "", "strength": ""}]
}`

const briefSystem = `You prepare hearing briefs for an advocate appearing before an Indian High Court. Write in structured markdown that can be read quickly in court. Do not rewrite the petition.`

const briefPrompt = `Generate a concise hearing day brief for the hearing on %s.

Focus areas: %s

The brief should include:
1. Case Summary (3-4 sentences)
2. Key Facts (at most 5 bullet points)
3. Relief Sought
4. Main Arguments (3-5 core points with supporting precedents)
5. Anticipated Counter-Arguments with responses
6. Changes Since Last Hearing, if any
7. Contradictions to Address, if any
8. Constitutional Grounds
9. Critical Precedents (top 3 with citations)
10. Oral Submission Strategy`

// BriefService composes hearing briefs from the bundle and cached insights
type BriefService struct {
	cases           repository.CaseStore
	documents       repository.DocumentStore
	insights        repository.InsightStore
	briefs          repository.BriefStore
	reasoner        reasoning.Reasoner
	logger          *zap.Logger
	now             func() time.Time
	maxContextChars int
	maxOutputTokens int
	historyLimit    int
}

// BriefServiceOption is a functional option for BriefService
type BriefServiceOption func(*BriefService)

// BriefWithCaseStore sets the case store
func BriefWithCaseStore(store repository.CaseStore) BriefServiceOption {
	return func(s *BriefService) {
		s.cases = store
	}
}

// BriefWithDocumentStore sets the document store
func BriefWithDocumentStore(store repository.DocumentStore) BriefServiceOption {
	return func(s *BriefService) {
		s.documents = store
	}
}

// BriefWithInsightStore sets the insight store
func BriefWithInsightStore(store repository.InsightStore) BriefServiceOption {
	return func(s *BriefService) {
		s.insights = store
	}
}

// BriefWithBriefStore sets the brief store
func BriefWithBriefStore(store repository.BriefStore) BriefServiceOption {
	return func(s *BriefService) {
		s.briefs = store
	}
}

// BriefWithReasoner sets the reasoning service
func BriefWithReasoner(r reasoning.Reasoner) BriefServiceOption {
	return func(s *BriefService) {
		s.reasoner = r
	}
}

// BriefWithLogger sets the logger
func BriefWithLogger(logger *zap.Logger) BriefServiceOption {
	return func(s *BriefService) {
		s.logger = logger
	}
}

// BriefWithClock overrides time.Now
func BriefWithClock(now func() time.Time) BriefServiceOption {
	return func(s *BriefService) {
		s.now = now
	}
}

// BriefWithLimits sets the context size, output tokens and history window
func BriefWithLimits(maxContextChars, maxOutputTokens, historyLimit int) BriefServiceOption {
	return func(s *BriefService) {
		if maxContextChars > 0 {
			s.maxContextChars = maxContextChars
		}
		if maxOutputTokens > 0 {
			s.maxOutputTokens = maxOutputTokens
		}
		if historyLimit > 0 {
			s.historyLimit = historyLimit
		}
	}
}

// NewBriefService creates a new brief service
func NewBriefService(opts ...BriefServiceOption) *BriefService {
	s := &BriefService{
		logger:          zap.NewNop(),
		now:             time.Now,
		maxContextChars: defaultBriefContextChars,
		maxOutputTokens: defaultBriefOutputTokens,
		historyLimit:    defaultBriefHistory,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BriefService) ready() error {
	switch {
	case s.cases == nil:
		return errors.New("case store not set")
	case s.documents == nil:
		return errors.New("document store not set")
	case s.insights == nil:
		return errors.New("insight store not set")
	case s.briefs == nil:
		return errors.New("brief store not set")
	case s.reasoner == nil:
		return errors.New("reasoner not set")
	}
	return nil
}

// BriefRequest represents a request to generate a hearing brief
type BriefRequest struct {
	HearingDate time.Time // zero means today
	FocusAreas  []string  // empty means all aspects
}

// SummarizeBundle computes a fresh digest of the case bundle. It is never cached.
func (s *BriefService) SummarizeBundle(ctx context.Context, auth AuthContext) (*models.BundleSummary, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if _, err := authorize(ctx, s.cases, auth); err != nil {
		return nil, err
	}
	bundle, err := NewBundleAssembler(s.documents).Assemble(ctx, auth.CaseID)
	if err != nil {
		return nil, err
	}
	summary, _, err := s.summarize(ctx, bundle)
	return summary, err
}

func (s *BriefService) summarize(ctx context.Context, bundle *models.CaseBundle) (*models.BundleSummary, int, error) {
	resp, err := s.reasoner.Invoke(ctx, reasoning.Request{
		System:           analysisSystem,
		CacheableContext: renderBundleContext(bundle),
		Prompt:           summaryPrompt,
		MaxOutputTokens:  summaryMaxTokens,
		JSON:             true,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("summarize bundle: %w", err)
	}
	recordTokens(ctx, "bundle_summary", resp.TokensUsed)

	var summary models.BundleSummary
	if err := reasoning.DecodeJSON(resp.Text, &summary); err != nil {
		return nil, 0, fmt.Errorf("summarize bundle: %w", err)
	}
	if summary.KeyFacts == nil {
		summary.KeyFacts = []string{}
	}
	return &summary, resp.TokensUsed, nil
}

func renderBundleContext(bundle *models.CaseBundle) string {
	var b strings.Builder
	b.WriteString("# Case Bundle Context\n\n")
	if bundle.Empty() {
		b.WriteString("No documents have been filed yet.\n")
		return b.String()
	}
	for _, part := range []struct {
		heading string
		doc     *models.Document
	}{
		{"Petition", bundle.Petition},
		{"Counter Affidavit", bundle.Counter},
		{"Rejoinder", bundle.Rejoinder},
	} {
		if part.doc != nil {
			fmt.Fprintf(&b, "## %s\n%s\n\n", part.heading, part.doc.ExtractedText)
		}
	}
	if len(bundle.Orders) > 0 {
		b.WriteString("## Orders\n")
		for _, o := range bundle.Orders {
			fmt.Fprintf(&b, "### %s\n%s\n\n", documentTitle(o), o.ExtractedText)
		}
	}
	return b.String()
}

type briefCase struct {
	Number     string `yaml:"number"`
	Type       string `yaml:"type"`
	Court      string `yaml:"court,omitempty"`
	Petitioner string `yaml:"petitioner,omitempty"`
	Respondent string `yaml:"respondent,omitempty"`
}

type briefContext struct {
	Case     briefCase             `yaml:"case"`
	Bundle   *models.BundleSummary `yaml:"bundle_analysis"`
	Analyses map[string]any        `yaml:"analyses,omitempty"`
}

// GenerateBrief writes a new hearing brief. Nothing is stored unless every
// step succeeds; previous briefs are never touched.
func (s *BriefService) GenerateBrief(ctx context.Context, auth AuthContext, req BriefRequest) (*models.HearingBrief, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	c, err := authorize(ctx, s.cases, auth)
	if err != nil {
		return nil, err
	}

	bundle, err := NewBundleAssembler(s.documents).Assemble(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	summary, summaryTokens, err := s.summarize(ctx, bundle)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBriefGenerationFailed, err)
	}

	rows, err := s.insights.ListCurrentInsights(ctx, c.ID, s.now())
	if err != nil {
		return nil, err
	}
	analyses := make(map[string]any)
	var kinds []string
	for _, i := range rows {
		if !wantedForBrief(i.Kind) {
			continue
		}
		var v any
		if err := json.Unmarshal(i.Result, &v); err != nil {
			s.logger.Warn("skipping unreadable insight", zap.String("insight_id", i.ID.String()), zap.Error(err))
			continue
		}
		analyses[string(i.Kind)] = v
		kinds = append(kinds, string(i.Kind))
	}
	sort.Strings(kinds)

	rendered, err := yaml.Marshal(briefContext{
		Case: briefCase{
			Number:     c.CaseNumber,
			Type:       c.CaseType,
			Court:      c.Court,
			Petitioner: c.PetitionerName,
			Respondent: c.RespondentName,
		},
		Bundle:   summary,
		Analyses: analyses,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: render context: %w", ErrBriefGenerationFailed, err)
	}

	hearingDate := req.HearingDate
	if hearingDate.IsZero() {
		hearingDate = s.now()
	}
	hearingDate = time.Date(hearingDate.Year(), hearingDate.Month(), hearingDate.Day(), 0, 0, 0, 0, time.UTC)

	focus := "All aspects"
	focusAreas := req.FocusAreas
	if len(focusAreas) > 0 {
		focus = strings.Join(focusAreas, ", ")
	} else {
		focusAreas = []string{}
	}

	resp, err := s.reasoner.Invoke(ctx, reasoning.Request{
		System:           briefSystem,
		CacheableContext: truncateRunes(string(rendered), s.maxContextChars),
		Prompt:           fmt.Sprintf(briefPrompt, hearingDate.Format("2 January 2006"), focus),
		MaxOutputTokens:  s.maxOutputTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBriefGenerationFailed, err)
	}
	content := strings.TrimSpace(resp.Text)
	if content == "" {
		return nil, fmt.Errorf("%w: %w", ErrBriefGenerationFailed, reasoning.ErrEmptyResponse)
	}
	recordTokens(ctx, "hearing_brief", resp.TokensUsed)

	if kinds == nil {
		kinds = []string{}
	}
	brief := &models.HearingBrief{
		CaseID:         c.ID,
		HearingDate:    hearingDate,
		Content:        content,
		FocusAreas:     focusAreas,
		BundleSnapshot: summary,
		InsightKinds:   kinds,
		TokensUsed:     summaryTokens + resp.TokensUsed,
		CreatedAt:      s.now(),
	}
	if err := s.briefs.CreateBrief(ctx, brief); err != nil {
		return nil, fmt.Errorf("save hearing brief: %w", err)
	}

	s.logger.Info("hearing brief generated",
		zap.String("case_id", c.ID.String()),
		zap.String("brief_id", brief.ID.String()),
		zap.Strings("insights", kinds))
	return brief, nil
}

func wantedForBrief(kind models.AnalysisKind) bool {
	for _, k := range briefInsightKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// ListBriefs returns the most recent briefs of the case, newest first
func (s *BriefService) ListBriefs(ctx context.Context, auth AuthContext) ([]*models.HearingBrief, error) {
	if s.cases == nil || s.briefs == nil {
		return nil, errors.New("brief service stores not set")
	}
	if _, err := authorize(ctx, s.cases, auth); err != nil {
		return nil, err
	}
	return s.briefs.ListBriefs(ctx, auth.CaseID, s.historyLimit)
}
