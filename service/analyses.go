package service

import (
	"fmt"

	"caseinsight-backend/models"
)

func forum(c *models.Case) string {
	if c.Court != "" {
		return c.Court
	}
	return "the High Court"
}

func precedentInstructions(c *models.Case) string {
	return fmt.Sprintf(`Identify the precedents that best support this %s matter before %s.
Find 5 to 10 decisions of this High Court and the Supreme Court on maintainability and on facts close to these.
For every precedent give the full citation, a relevance score from 0 to 100, a short summary, the facts it shares with this case, the principles it settles, how it supports the petition, any distinguishing factors, and the citation as it should appear in the petition.
Map each material fact to the precedents that support it and score the overall strength of the authorities from 0 to 100.`, c.CaseType, forum(c))
}

const precedentShape = `{
  "precedents": [{"citation": "", "title": "", "court": "SUPREME_COURT|HIGH_COURT|OTHER_HC", "year": 0, "relevanceScore": 0, "summary": "", "applicableFacts": [], "legalPrinciples": [], "supportingArgument": "", "distinguishingFactors": [], "citationFormat": ""}],
  "precedentMapping": [{"fact": "", "supportingPrecedents": []}],
  "overallStrength": 0
}`

func riskInstructions(c *models.Case) string {
	return fmt.Sprintf(`Assess the risks in this %s matter before %s.
Cover evidence gaps, vulnerable legal arguments, facts likely to be disputed, and procedural objections such as alternative remedy and maintainability.
Predict the respondent's counter-arguments with a likelihood from 0 to 100, list any fatal flaws, and score the overall strength of the petitioner's case from 0 to 100.`, c.CaseType, forum(c))
}

const riskShape = `{
  "overallScore": 0,
  "caseStrength": "STRONG|MODERATE|WEAK",
  "weaknesses": [{"category": "EVIDENCE_GAP|LEGAL_ARGUMENT|PROCEDURAL|FACTUAL_DISPUTE", "severity": "FATAL|HIGH|MEDIUM|LOW", "description": "", "impact": "", "counterArgument": "", "mitigationStrategy": "", "suggestedEvidence": []}],
  "counterArguments": [{"argument": "", "likelihood": 0, "suggestedResponse": "", "evidenceNeeded": []}],
  "fatalFlaws": [],
  "strengths": [],
  "recommendations": []
}`

func rightsInstructions(c *models.Case) string {
	return `Identify every constitutional right the facts of this petition engage, including Articles 14, 19, 20, 21 and 226 where they apply.
For each right rate how strongly it applies, explain why, cite landmark decisions with the principle each settles, apply it to these facts, and propose language for the petition.
Show how the rights work together and trace how the case law on each article has developed.`
}

const rightsShape = `{
  "applicableRights": [{"article": "", "articleText": "", "applicability": "STRONG|MODERATE|WEAK", "explanation": "", "landmarkCases": [{"citation": "", "principle": ""}], "applicationToFacts": "", "suggestedLanguage": ""}],
  "constitutionalFramework": {"primaryRights": [], "supportingRights": [], "interaction": ""},
  "caseTimeline": [{"article": "", "evolution": ""}]
}`

func narrativeInstructions(c *models.Case) string {
	return fmt.Sprintf(`Review the structure and persuasiveness of this %s petition as the bench at %s will read it.
Score each section for clarity, propose a better order of arguments if one exists, and rate reader engagement, the balance between emotional and rational appeal (50 is balanced) and clarity of emphasis, each from 0 to 100.
Give concrete revisions with the current and suggested text, describe how the bench is likely to react, and offer alternative structures with their trade-offs.`, c.CaseType, forum(c))
}

const narrativeShape = `{
  "sections": [{"sectionName": "", "currentText": "", "clarityScore": "EXCELLENT|GOOD|FAIR|POOR", "issues": [], "suggestions": []}],
  "argumentSequence": {"currentOrder": [], "suggestedOrder": [], "rationale": ""},
  "persuasivenessMetrics": {"readerEngagement": 0, "emotionalRationalBalance": 50, "tone": "ASSERTIVE|AGGRESSIVE|CAUTIOUS|BALANCED", "emphasisClarity": 0},
  "revisionSuggestions": [{"location": "", "issue": "", "currentText": "", "suggestedText": "", "rationale": ""}],
  "benchPerspective": {"likelyReaction": "", "attentionRisks": [], "strengths": []},
  "alternativeStructures": [{"name": "", "description": "", "pros": [], "cons": []}]
}`

func counterInstructions(c *models.Case) string {
	respondent := c.RespondentName
	if respondent == "" {
		respondent = "the respondent"
	}
	return fmt.Sprintf(`Predict the counter statement %s is likely to file in this %s matter.
Go through the petition's factual assertions and say which are likely to be admitted or denied and why.
List the legal and procedural defences available, the tone the reply will probably take, the arguments most dangerous to the petitioner with a prepared response to each, the evidence to gather now, and contingency plans.`, respondent, c.CaseType)
}

const counterShape = `{
  "predictedFactualResponses": [{"issue": "", "factualAssertion": "", "likelyToAdmit": false, "likelyToDeny": true, "anticipatedDenialReason": ""}],
  "predictedLegalDefenses": [{"defense": "", "likelihood": "HIGH|MEDIUM|LOW", "legalBasis": "", "caselaw": [], "petitionerResponse": "", "evidenceToCounter": []}],
  "proceduralDefenses": [],
  "expectedTone": "AGGRESSIVE|DEFENSIVE|TECHNICAL",
  "dangerousArguments": [{"argument": "", "risk": "", "response": ""}],
  "strategicRecommendations": [],
  "additionalEvidenceNeeded": [],
  "contingencyPlans": [{"scenario": "", "response": ""}]
}`

func reliefInstructions(c *models.Case) string {
	return fmt.Sprintf(`Evaluate the interim and final reliefs open to the petitioner in this %s matter before %s, taking account of any orders already passed.
For each relief give its legal basis, threshold requirements, a feasibility score from 0 to 100, the likelihood of grant, the strength of case it needs, urgency factors, outcomes in similar cases, supporting affidavit material and undertakings the court may require.
Recommend the order of prayers, draft language for each, prayers to avoid, and the points to lead with in oral submissions.`, c.CaseType, forum(c))
}

const reliefShape = `{
  "recommendedPrayers": [{"relief": "", "type": "INTERIM|FINAL", "legalBasis": [], "thresholdRequirements": [], "feasibilityScore": 0, "grantLikelihood": "HIGH|MEDIUM|LOW", "caseStrengthRequired": "PRIMA_FACIE|STRONG|VERY_STRONG", "urgencyFactors": [], "similarCaseOutcomes": [{"citation": "", "outcome": "GRANTED|DENIED|CONDITIONAL", "conditions": []}], "affidavitSupportNeeded": [], "undertakingsRequired": []}],
  "sequencing": {"primary": [], "alternative": [], "rationale": ""},
  "suggestedLanguage": {"relief": "prayer text"},
  "prayersToAvoid": [{"prayer": "", "reason": ""}],
  "oralSubmissionStrategy": {"openingPoints": [], "emphasize": [], "deemphasize": []}
}`
