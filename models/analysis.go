package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// AnalysisKind identifies one of the fixed report types
type AnalysisKind string

const (
	KindPrecedents AnalysisKind = "precedents"
	KindRisk       AnalysisKind = "risk"
	KindRights     AnalysisKind = "rights"
	KindNarrative  AnalysisKind = "narrative"
	KindCounter    AnalysisKind = "counter"
	KindRelief     AnalysisKind = "relief"
)

// AnalysisKinds lists every kind in display order
var AnalysisKinds = []AnalysisKind{
	KindPrecedents,
	KindRisk,
	KindRights,
	KindNarrative,
	KindCounter,
	KindRelief,
}

// legacy insight type names still sent by older clients
var legacyKinds = map[string]AnalysisKind{
	"PRECEDENTS":           KindPrecedents,
	"RISK_ASSESSMENT":      KindRisk,
	"RIGHTS_MAPPING":       KindRights,
	"NARRATIVE":            KindNarrative,
	"COUNTER_ANTICIPATION": KindCounter,
	"RELIEF_EVALUATION":    KindRelief,
}

// ErrUnknownAnalysisKind is returned for kinds outside the closed set
var ErrUnknownAnalysisKind = errors.New("unknown analysis kind")

// ParseAnalysisKind accepts both the API names and the legacy insight type names
func ParseAnalysisKind(s string) (AnalysisKind, error) {
	trimmed := strings.TrimSpace(s)
	for _, k := range AnalysisKinds {
		if string(k) == trimmed {
			return k, nil
		}
	}
	if k, ok := legacyKinds[strings.ToUpper(trimmed)]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAnalysisKind, s)
}

// AnalysisResult is the typed output of one analysis kind.
// The set of implementations is closed to this package.
type AnalysisResult interface {
	Kind() AnalysisKind
	Validate() error
	analysisResult()
}

// DecodeAnalysisResult parses a stored or generated payload into the type for kind
func DecodeAnalysisResult(kind AnalysisKind, data []byte) (AnalysisResult, error) {
	var result AnalysisResult
	switch kind {
	case KindPrecedents:
		result = &PrecedentAnalysis{}
	case KindRisk:
		result = &RiskAssessment{}
	case KindRights:
		result = &RightsMapping{}
	case KindNarrative:
		result = &NarrativeAnalysis{}
	case KindCounter:
		result = &CounterAffidavitPrediction{}
	case KindRelief:
		result = &PrayerRecommendation{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAnalysisKind, kind)
	}

	if err := json.Unmarshal(data, result); err != nil {
		return nil, fmt.Errorf("decode %s result: %w", kind, err)
	}
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s result: %w", kind, err)
	}
	return result, nil
}

func checkScore(field string, v float64) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("%s %v out of range 0-100", field, v)
	}
	return nil
}

// Precedent is one authority relied upon
type Precedent struct {
	Citation              string   `json:"citation"`
	Title                 string   `json:"title"`
	Court                 string   `json:"court"`
	Year                  int      `json:"year"`
	RelevanceScore        float64  `json:"relevanceScore"`
	Summary               string   `json:"summary"`
	ApplicableFacts       []string `json:"applicableFacts"`
	LegalPrinciples       []string `json:"legalPrinciples"`
	SupportingArgument    string   `json:"supportingArgument"`
	DistinguishingFactors []string `json:"distinguishingFactors,omitempty"`
	CitationFormat        string   `json:"citationFormat"`
}

// PrecedentMapping ties a fact to the precedents supporting it
type PrecedentMapping struct {
	Fact                 string   `json:"fact"`
	SupportingPrecedents []string `json:"supportingPrecedents"`
}

// PrecedentAnalysis is the result of the precedents analysis
type PrecedentAnalysis struct {
	Precedents       []Precedent        `json:"precedents"`
	PrecedentMapping []PrecedentMapping `json:"precedentMapping"`
	OverallStrength  float64            `json:"overallStrength"`
}

func (*PrecedentAnalysis) Kind() AnalysisKind { return KindPrecedents }
func (*PrecedentAnalysis) analysisResult()    {}

func (a *PrecedentAnalysis) Validate() error {
	if a.Precedents == nil {
		return errors.New("missing precedents")
	}
	for _, p := range a.Precedents {
		if err := checkScore("relevanceScore", p.RelevanceScore); err != nil {
			return err
		}
	}
	return checkScore("overallStrength", a.OverallStrength)
}

// Weakness is a vulnerability in the petitioner's case
type Weakness struct {
	Category           string   `json:"category"` // EVIDENCE_GAP, LEGAL_ARGUMENT, PROCEDURAL, FACTUAL_DISPUTE
	Severity           string   `json:"severity"` // FATAL, HIGH, MEDIUM, LOW
	Description        string   `json:"description"`
	Impact             string   `json:"impact"`
	CounterArgument    string   `json:"counterArgument"`
	MitigationStrategy string   `json:"mitigationStrategy"`
	SuggestedEvidence  []string `json:"suggestedEvidence,omitempty"`
}

// CounterArgumentPrediction is an argument the other side is expected to raise
type CounterArgumentPrediction struct {
	Argument          string   `json:"argument"`
	Likelihood        float64  `json:"likelihood"`
	SuggestedResponse string   `json:"suggestedResponse"`
	EvidenceNeeded    []string `json:"evidenceNeeded"`
}

// RiskAssessment is the result of the risk analysis
type RiskAssessment struct {
	OverallScore     float64                     `json:"overallScore"`
	CaseStrength     string                      `json:"caseStrength"`
	Weaknesses       []Weakness                  `json:"weaknesses"`
	CounterArguments []CounterArgumentPrediction `json:"counterArguments"`
	FatalFlaws       []string                    `json:"fatalFlaws"`
	Strengths        []string                    `json:"strengths"`
	Recommendations  []string                    `json:"recommendations"`
}

func (*RiskAssessment) Kind() AnalysisKind { return KindRisk }
func (*RiskAssessment) analysisResult()    {}

func (a *RiskAssessment) Validate() error {
	if err := checkScore("overallScore", a.OverallScore); err != nil {
		return err
	}
	switch a.CaseStrength {
	case "STRONG", "MODERATE", "WEAK":
		return nil
	}
	return fmt.Errorf("caseStrength %q not one of STRONG, MODERATE, WEAK", a.CaseStrength)
}

// LandmarkCase is an authority illustrating a right
type LandmarkCase struct {
	Citation  string `json:"citation"`
	Principle string `json:"principle"`
}

// ConstitutionalRight is one right engaged by the facts
type ConstitutionalRight struct {
	Article            string         `json:"article"`
	ArticleText        string         `json:"articleText"`
	Applicability      string         `json:"applicability"` // STRONG, MODERATE, WEAK
	Explanation        string         `json:"explanation"`
	LandmarkCases      []LandmarkCase `json:"landmarkCases"`
	ApplicationToFacts string         `json:"applicationToFacts"`
	SuggestedLanguage  string         `json:"suggestedLanguage"`
}

// ConstitutionalFramework shows how the engaged rights interact
type ConstitutionalFramework struct {
	PrimaryRights    []string `json:"primaryRights"`
	SupportingRights []string `json:"supportingRights"`
	Interaction      string   `json:"interaction"`
}

// ArticleEvolution traces the case law on one article
type ArticleEvolution struct {
	Article   string `json:"article"`
	Evolution string `json:"evolution"`
}

// RightsMapping is the result of the rights analysis
type RightsMapping struct {
	ApplicableRights        []ConstitutionalRight   `json:"applicableRights"`
	ConstitutionalFramework ConstitutionalFramework `json:"constitutionalFramework"`
	CaseTimeline            []ArticleEvolution      `json:"caseTimeline"`
}

func (*RightsMapping) Kind() AnalysisKind { return KindRights }
func (*RightsMapping) analysisResult()    {}

func (a *RightsMapping) Validate() error {
	if a.ApplicableRights == nil {
		return errors.New("missing applicableRights")
	}
	return nil
}

// NarrativeSection scores one section of the petition
type NarrativeSection struct {
	SectionName  string   `json:"sectionName"`
	CurrentText  string   `json:"currentText"`
	ClarityScore string   `json:"clarityScore"` // EXCELLENT, GOOD, FAIR, POOR
	Issues       []string `json:"issues"`
	Suggestions  []string `json:"suggestions"`
}

// ArgumentSequence proposes a better ordering of arguments
type ArgumentSequence struct {
	CurrentOrder   []string `json:"currentOrder"`
	SuggestedOrder []string `json:"suggestedOrder"`
	Rationale      string   `json:"rationale"`
}

// PersuasivenessMetrics grades the petition's delivery
type PersuasivenessMetrics struct {
	ReaderEngagement         float64 `json:"readerEngagement"`
	EmotionalRationalBalance float64 `json:"emotionalRationalBalance"`
	Tone                     string  `json:"tone"`
	EmphasisClarity          float64 `json:"emphasisClarity"`
}

// RevisionSuggestion is a concrete edit to the petition text
type RevisionSuggestion struct {
	Location      string `json:"location"`
	Issue         string `json:"issue"`
	CurrentText   string `json:"currentText"`
	SuggestedText string `json:"suggestedText"`
	Rationale     string `json:"rationale"`
}

// BenchPerspective anticipates how the bench will read the petition
type BenchPerspective struct {
	LikelyReaction string   `json:"likelyReaction"`
	AttentionRisks []string `json:"attentionRisks"`
	Strengths      []string `json:"strengths"`
}

// AlternativeStructure is another way to lay out the petition
type AlternativeStructure struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Pros        []string `json:"pros"`
	Cons        []string `json:"cons"`
}

// NarrativeAnalysis is the result of the narrative analysis
type NarrativeAnalysis struct {
	Sections              []NarrativeSection     `json:"sections"`
	ArgumentSequence      ArgumentSequence       `json:"argumentSequence"`
	PersuasivenessMetrics PersuasivenessMetrics  `json:"persuasivenessMetrics"`
	RevisionSuggestions   []RevisionSuggestion   `json:"revisionSuggestions"`
	BenchPerspective      BenchPerspective       `json:"benchPerspective"`
	AlternativeStructures []AlternativeStructure `json:"alternativeStructures"`
}

func (*NarrativeAnalysis) Kind() AnalysisKind { return KindNarrative }
func (*NarrativeAnalysis) analysisResult()    {}

func (a *NarrativeAnalysis) Validate() error {
	if a.Sections == nil {
		return errors.New("missing sections")
	}
	m := a.PersuasivenessMetrics
	if err := checkScore("readerEngagement", m.ReaderEngagement); err != nil {
		return err
	}
	if err := checkScore("emotionalRationalBalance", m.EmotionalRationalBalance); err != nil {
		return err
	}
	return checkScore("emphasisClarity", m.EmphasisClarity)
}

// PredictedCounterPoint is the expected response to one factual issue
type PredictedCounterPoint struct {
	Issue                   string `json:"issue"`
	FactualAssertion        string `json:"factualAssertion,omitempty"`
	LikelyToAdmit           bool   `json:"likelyToAdmit"`
	LikelyToDeny            bool   `json:"likelyToDeny"`
	AnticipatedDenialReason string `json:"anticipatedDenialReason,omitempty"`
}

// LegalDefense is a defence the respondent may take
type LegalDefense struct {
	Defense            string   `json:"defense"`
	Likelihood         string   `json:"likelihood"` // HIGH, MEDIUM, LOW
	LegalBasis         string   `json:"legalBasis"`
	Caselaw            []string `json:"caselaw"`
	PetitionerResponse string   `json:"petitionerResponse"`
	EvidenceToCounter  []string `json:"evidenceToCounter"`
}

// DangerousArgument is a respondent argument that needs a prepared answer
type DangerousArgument struct {
	Argument string `json:"argument"`
	Risk     string `json:"risk"`
	Response string `json:"response"`
}

// ContingencyPlan pairs a scenario with the planned response
type ContingencyPlan struct {
	Scenario string `json:"scenario"`
	Response string `json:"response"`
}

// CounterAffidavitPrediction is the result of the counter analysis
type CounterAffidavitPrediction struct {
	PredictedFactualResponses []PredictedCounterPoint `json:"predictedFactualResponses"`
	PredictedLegalDefenses    []LegalDefense          `json:"predictedLegalDefenses"`
	ProceduralDefenses        []string                `json:"proceduralDefenses"`
	ExpectedTone              string                  `json:"expectedTone"` // AGGRESSIVE, DEFENSIVE, TECHNICAL
	DangerousArguments        []DangerousArgument     `json:"dangerousArguments"`
	StrategicRecommendations  []string                `json:"strategicRecommendations"`
	AdditionalEvidenceNeeded  []string                `json:"additionalEvidenceNeeded"`
	ContingencyPlans          []ContingencyPlan       `json:"contingencyPlans"`
}

func (*CounterAffidavitPrediction) Kind() AnalysisKind { return KindCounter }
func (*CounterAffidavitPrediction) analysisResult()    {}

func (a *CounterAffidavitPrediction) Validate() error {
	if a.PredictedFactualResponses == nil && a.PredictedLegalDefenses == nil {
		return errors.New("missing predicted responses and defenses")
	}
	return nil
}

// SimilarOutcome is how a comparable case fared on a relief
type SimilarOutcome struct {
	Citation   string   `json:"citation"`
	Outcome    string   `json:"outcome"` // GRANTED, DENIED, CONDITIONAL
	Conditions []string `json:"conditions,omitempty"`
}

// ReliefOption is one prayer the petitioner could make
type ReliefOption struct {
	Relief                 string           `json:"relief"`
	Type                   string           `json:"type"` // INTERIM, FINAL
	LegalBasis             []string         `json:"legalBasis"`
	ThresholdRequirements  []string         `json:"thresholdRequirements"`
	FeasibilityScore       float64          `json:"feasibilityScore"`
	GrantLikelihood        string           `json:"grantLikelihood"`
	CaseStrengthRequired   string           `json:"caseStrengthRequired"`
	UrgencyFactors         []string         `json:"urgencyFactors"`
	SimilarCaseOutcomes    []SimilarOutcome `json:"similarCaseOutcomes"`
	AffidavitSupportNeeded []string         `json:"affidavitSupportNeeded"`
	UndertakingsRequired   []string         `json:"undertakingsRequired"`
}

// PrayerSequencing orders the recommended prayers
type PrayerSequencing struct {
	Primary     []string `json:"primary"`
	Alternative []string `json:"alternative"`
	Rationale   string   `json:"rationale"`
}

// PrayerToAvoid is a relief that would weaken the petition
type PrayerToAvoid struct {
	Prayer string `json:"prayer"`
	Reason string `json:"reason"`
}

// OralSubmissionStrategy guides the oral hearing
type OralSubmissionStrategy struct {
	OpeningPoints []string `json:"openingPoints"`
	Emphasize     []string `json:"emphasize"`
	Deemphasize   []string `json:"deemphasize"`
}

// PrayerRecommendation is the result of the relief analysis
type PrayerRecommendation struct {
	RecommendedPrayers     []ReliefOption         `json:"recommendedPrayers"`
	Sequencing             PrayerSequencing       `json:"sequencing"`
	SuggestedLanguage      map[string]string      `json:"suggestedLanguage"`
	PrayersToAvoid         []PrayerToAvoid        `json:"prayersToAvoid"`
	OralSubmissionStrategy OralSubmissionStrategy `json:"oralSubmissionStrategy"`
}

func (*PrayerRecommendation) Kind() AnalysisKind { return KindRelief }
func (*PrayerRecommendation) analysisResult()    {}

func (a *PrayerRecommendation) Validate() error {
	if a.RecommendedPrayers == nil {
		return errors.New("missing recommendedPrayers")
	}
	for _, r := range a.RecommendedPrayers {
		if err := checkScore("feasibilityScore", r.FeasibilityScore); err != nil {
			return err
		}
	}
	return nil
}
