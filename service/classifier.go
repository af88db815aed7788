package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"caseinsight-backend/models"
	"caseinsight-backend/reasoning"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	shortTextConfidence = 0.3
	heuristicConfidence = 0.6
	classifyMaxTokens   = 2048
)

const classifySystem = `You classify documents filed in Indian High Court writ and criminal proceedings. Respond with a single JSON object and nothing else.`

const classifyPrompt = `Classify this legal document and extract key metadata.

Document filename: %s
Document text (first %d characters):
%s

Respond in JSON format:
{
  "role": "PETITION|COUNTER_STATEMENT|REJOINDER|EXHIBIT|ORDER|JUDGMENT|OTHER",
  "confidence": 0.0-1.0,
  "title": "descriptive title",
  "metadata": {
    "date": "YYYY-MM-DD or null",
    "parties": ["party names"],
    "keyPoints": ["main points"],
    "documentNumber": "if applicable"
  }
}`

// Classifier assigns a procedural role to a document. It never fails:
// when the reasoning service cannot help it falls back to the file name.
type Classifier struct {
	reasoner      reasoning.Reasoner
	logger        *zap.Logger
	minTextLength int
	excerptLength int
	batchSize     int
	batchDelay    time.Duration
}

// ClassifierOption is a functional option for Classifier
type ClassifierOption func(*Classifier)

// WithClassifierReasoner sets the reasoning service
func WithClassifierReasoner(r reasoning.Reasoner) ClassifierOption {
	return func(c *Classifier) {
		c.reasoner = r
	}
}

// WithClassifierLogger sets the logger
func WithClassifierLogger(logger *zap.Logger) ClassifierOption {
	return func(c *Classifier) {
		c.logger = logger
	}
}

// WithMinTextLength sets the length below which text is not sent for classification
func WithMinTextLength(n int) ClassifierOption {
	return func(c *Classifier) {
		c.minTextLength = n
	}
}

// WithExcerptLength sets how much of the text is sent
func WithExcerptLength(n int) ClassifierOption {
	return func(c *Classifier) {
		c.excerptLength = n
	}
}

// WithClassifyBatching sets the group size and the pause between groups
func WithClassifyBatching(size int, delay time.Duration) ClassifierOption {
	return func(c *Classifier) {
		c.batchSize = size
		c.batchDelay = delay
	}
}

// NewClassifier creates a new classifier
func NewClassifier(opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		logger:        zap.NewNop(),
		minTextLength: 100,
		excerptLength: 2000,
		batchSize:     5,
		batchDelay:    time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.batchSize < 1 {
		c.batchSize = 1
	}
	return c
}

type classifyResponse struct {
	Role       string                   `json:"role"`
	Type       string                   `json:"type"`
	Confidence float64                  `json:"confidence"`
	Title      string                   `json:"title"`
	Metadata   *models.DocumentMetadata `json:"metadata"`
}

// Classify determines the role of one document
func (c *Classifier) Classify(ctx context.Context, documentID uuid.UUID, fileName, text string) *models.Classification {
	if utf8.RuneCountInString(text) < c.minTextLength {
		return &models.Classification{
			DocumentID: documentID,
			Role:       models.RoleOther,
			Confidence: shortTextConfidence,
			Title:      fileName,
			Source:     models.SourceShortText,
		}
	}

	classification, err := c.classifyWithModel(ctx, documentID, fileName, text)
	if err != nil {
		c.logger.Warn("document classification fell back to file name",
			zap.String("document_id", documentID.String()),
			zap.String("file_name", fileName),
			zap.Error(err))
		return fallbackClassification(documentID, fileName)
	}
	return classification
}

func (c *Classifier) classifyWithModel(ctx context.Context, documentID uuid.UUID, fileName, text string) (*models.Classification, error) {
	if c.reasoner == nil {
		return nil, errors.New("no reasoning service configured")
	}

	excerpt := truncateRunes(text, c.excerptLength)
	resp, err := c.reasoner.Invoke(ctx, reasoning.Request{
		System:          classifySystem,
		Prompt:          fmt.Sprintf(classifyPrompt, fileName, c.excerptLength, excerpt),
		MaxOutputTokens: classifyMaxTokens,
		JSON:            true,
	})
	if err != nil {
		return nil, err
	}
	recordTokens(ctx, "classify", resp.TokensUsed)

	var parsed classifyResponse
	if err := reasoning.DecodeJSON(resp.Text, &parsed); err != nil {
		return nil, err
	}

	label := parsed.Role
	if label == "" {
		label = parsed.Type
	}
	role, ok := models.ParseDocumentRole(label)
	if !ok {
		return nil, fmt.Errorf("unrecognized role %q", label)
	}

	classification := &models.Classification{
		DocumentID: documentID,
		Role:       role,
		Confidence: clamp01(parsed.Confidence),
		Title:      strings.TrimSpace(parsed.Title),
		Source:     models.SourceModel,
	}
	if classification.Title == "" {
		classification.Title = fileName
	}
	if parsed.Metadata != nil {
		classification.Metadata = *parsed.Metadata
	}
	return classification, nil
}

var fileNameRoles = []struct {
	keywords []string
	role     models.DocumentRole
}{
	{[]string{"petition", "writ"}, models.RolePetition},
	{[]string{"counter", "affidavit"}, models.RoleCounterStatement},
	{[]string{"rejoinder"}, models.RoleRejoinder},
	{[]string{"order"}, models.RoleOrder},
	{[]string{"judgment", "judgement"}, models.RoleJudgment},
	{[]string{"annex", "exhibit"}, models.RoleExhibit},
}

func fallbackClassification(documentID uuid.UUID, fileName string) *models.Classification {
	lower := strings.ToLower(fileName)
	role := models.RoleOther
match:
	for _, candidate := range fileNameRoles {
		for _, kw := range candidate.keywords {
			if strings.Contains(lower, kw) {
				role = candidate.role
				break match
			}
		}
	}

	return &models.Classification{
		DocumentID: documentID,
		Role:       role,
		Confidence: heuristicConfidence,
		Title:      fileName,
		Source:     models.SourceHeuristic,
	}
}

// ClassifyInput is one document to classify
type ClassifyInput struct {
	DocumentID uuid.UUID
	FileName   string
	Text       string
}

// ClassifyOutcome is the tagged result for one document of a batch
type ClassifyOutcome struct {
	DocumentID     uuid.UUID
	Classification *models.Classification
	Err            error
}

// ClassifyBatch classifies documents in concurrent groups, pausing between
// groups. Outcomes are returned in input order. When ctx ends, the documents
// not yet started are tagged with the context error.
func (c *Classifier) ClassifyBatch(ctx context.Context, inputs []ClassifyInput) []ClassifyOutcome {
	outcomes := make([]ClassifyOutcome, len(inputs))
	for i, in := range inputs {
		outcomes[i].DocumentID = in.DocumentID
	}

	for start := 0; start < len(inputs); start += c.batchSize {
		if start > 0 {
			if err := sleepCtx(ctx, c.batchDelay); err != nil {
				failRemaining(outcomes[start:], err)
				return outcomes
			}
		}
		if err := ctx.Err(); err != nil {
			failRemaining(outcomes[start:], err)
			return outcomes
		}

		end := min(start+c.batchSize, len(inputs))
		var g errgroup.Group
		for i := start; i < end; i++ {
			in := inputs[i]
			g.Go(func() error {
				outcomes[i].Classification = c.Classify(ctx, in.DocumentID, in.FileName, in.Text)
				return nil
			})
		}
		g.Wait()
	}
	return outcomes
}

func failRemaining(outcomes []ClassifyOutcome, err error) {
	for i := range outcomes {
		outcomes[i].Err = err
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
