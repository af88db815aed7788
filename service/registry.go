package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"caseinsight-backend/models"
	"caseinsight-backend/reasoning"
)

// BundleField names a part of the bundle an analysis reads
type BundleField string

const (
	FieldPetition      BundleField = "petition"
	FieldCounter       BundleField = "counter"
	FieldRejoinder     BundleField = "rejoinder"
	FieldExhibitTitles BundleField = "exhibit_titles"
	FieldOrders        BundleField = "orders"
)

const analysisSystem = `You are a senior litigation analyst assisting an advocate before an Indian High Court. Base every statement on the case material supplied. Respond with a single JSON object matching the requested shape and nothing else.`

// Analysis is one registry entry: what an analysis reads, how it asks the
// reasoning service, and how large an answer it allows.
type Analysis struct {
	Kind            models.AnalysisKind
	Consumes        []BundleField
	UsesCaseType    bool
	MaxOutputTokens int
	// ContextKinds are analyses whose results may inform this one. The batch
	// runs them in an earlier phase; prompts do not read them yet.
	ContextKinds []models.AnalysisKind
	instructions func(c *models.Case) string
	shape        string
}

// AnalysisOutput is a validated analysis result with its canonical payload
type AnalysisOutput struct {
	Result     models.AnalysisResult
	Payload    json.RawMessage
	TokensUsed int
}

// BuildRequest renders the reasoning request for a case bundle
func (a *Analysis) BuildRequest(c *models.Case, bundle *models.CaseBundle) reasoning.Request {
	var prompt strings.Builder
	prompt.WriteString(a.instructions(c))
	prompt.WriteString("\n\nRespond in JSON with this shape:\n")
	prompt.WriteString(a.shape)

	return reasoning.Request{
		System:           analysisSystem,
		CacheableContext: a.renderContext(c, bundle),
		Prompt:           prompt.String(),
		MaxOutputTokens:  a.MaxOutputTokens,
		JSON:             true,
	}
}

func (a *Analysis) renderContext(c *models.Case, bundle *models.CaseBundle) string {
	var b strings.Builder
	b.WriteString("# Case Context\n\n")
	fmt.Fprintf(&b, "Case: %s\nCourt: %s\n", c.CaseNumber, c.Court)
	if a.UsesCaseType {
		fmt.Fprintf(&b, "Case Type: %s\n", c.CaseType)
	}

	for _, field := range a.Consumes {
		switch field {
		case FieldPetition:
			writeDocumentSection(&b, "Petition", bundle.Petition)
		case FieldCounter:
			writeDocumentSection(&b, "Respondent's Counter", bundle.Counter)
		case FieldRejoinder:
			writeDocumentSection(&b, "Rejoinder", bundle.Rejoinder)
		case FieldExhibitTitles:
			b.WriteString("\n## Exhibits\n")
			if len(bundle.Exhibits) == 0 {
				b.WriteString("None filed.\n")
			}
			for _, d := range bundle.Exhibits {
				fmt.Fprintf(&b, "- %s\n", documentTitle(d))
			}
		case FieldOrders:
			b.WriteString("\n## Orders\n")
			if len(bundle.Orders) == 0 {
				b.WriteString("None passed.\n")
			}
			for _, d := range bundle.Orders {
				fmt.Fprintf(&b, "### %s\n%s\n", documentTitle(d), d.ExtractedText)
			}
		}
	}
	return b.String()
}

func writeDocumentSection(b *strings.Builder, heading string, d *models.Document) {
	fmt.Fprintf(b, "\n## %s\n", heading)
	if d == nil {
		b.WriteString("Not available.\n")
		return
	}
	b.WriteString(d.ExtractedText)
	b.WriteString("\n")
}

func documentTitle(d *models.Document) string {
	if d.Title != "" {
		return d.Title
	}
	return d.FileName
}

// Run asks the reasoning service and validates the answer against the kind's result type
func (a *Analysis) Run(ctx context.Context, r reasoning.Reasoner, c *models.Case, bundle *models.CaseBundle) (*AnalysisOutput, error) {
	resp, err := r.Invoke(ctx, a.BuildRequest(c, bundle))
	if err != nil {
		return nil, err
	}

	result, err := models.DecodeAnalysisResult(a.Kind, []byte(reasoning.ExtractJSON(resp.Text)))
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode %s result: %w", a.Kind, err)
	}

	return &AnalysisOutput{Result: result, Payload: payload, TokensUsed: resp.TokensUsed}, nil
}

var registry = map[models.AnalysisKind]*Analysis{
	models.KindPrecedents: {
		Kind:            models.KindPrecedents,
		Consumes:        []BundleField{FieldPetition},
		UsesCaseType:    true,
		MaxOutputTokens: 8192,
		ContextKinds:    []models.AnalysisKind{models.KindRisk, models.KindRelief},
		instructions:    precedentInstructions,
		shape:           precedentShape,
	},
	models.KindRisk: {
		Kind:            models.KindRisk,
		Consumes:        []BundleField{FieldPetition, FieldCounter},
		UsesCaseType:    true,
		MaxOutputTokens: 8192,
		instructions:    riskInstructions,
		shape:           riskShape,
	},
	models.KindRights: {
		Kind:            models.KindRights,
		Consumes:        []BundleField{FieldPetition},
		MaxOutputTokens: 6144,
		ContextKinds:    []models.AnalysisKind{models.KindRisk, models.KindRelief},
		instructions:    rightsInstructions,
		shape:           rightsShape,
	},
	models.KindNarrative: {
		Kind:            models.KindNarrative,
		Consumes:        []BundleField{FieldPetition},
		UsesCaseType:    true,
		MaxOutputTokens: 8192,
		instructions:    narrativeInstructions,
		shape:           narrativeShape,
	},
	models.KindCounter: {
		Kind:            models.KindCounter,
		Consumes:        []BundleField{FieldPetition, FieldExhibitTitles},
		UsesCaseType:    true,
		MaxOutputTokens: 8192,
		instructions:    counterInstructions,
		shape:           counterShape,
	},
	models.KindRelief: {
		Kind:            models.KindRelief,
		Consumes:        []BundleField{FieldPetition, FieldOrders},
		UsesCaseType:    true,
		MaxOutputTokens: 6144,
		instructions:    reliefInstructions,
		shape:           reliefShape,
	},
}

// LookupAnalysis returns the registry entry for kind
func LookupAnalysis(kind models.AnalysisKind) (*Analysis, error) {
	a, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAnalysisKind, kind)
	}
	return a, nil
}
