package narrative

import (
	"context"
	"fmt"
	"strings"
)

// Synthesizer maps gathered evidence to structured narrative content plus a
// fit score (0..1). The authoring step is a replaceable black box: the
// production deployment plugs an LLM-backed implementation in here.
type Synthesizer interface {
	Synthesize(ctx context.Context, bundle EvidenceBundle) (map[string]any, float64, error)
}

// TemplateSynthesizer is the deterministic in-tree implementation. It builds
// the entrepreneur-brief shape directly from the bundle, which also makes
// pipeline tests reproducible.
type TemplateSynthesizer struct{}

// NewTemplateSynthesizer creates a deterministic synthesizer.
func NewTemplateSynthesizer() *TemplateSynthesizer {
	return &TemplateSynthesizer{}
}

// Synthesize builds narrative content from evidence and profile facts.
func (t *TemplateSynthesizer) Synthesize(_ context.Context, bundle EvidenceBundle) (map[string]any, float64, error) {
	content := map[string]any{
		"executive_summary":   executiveSummary(bundle),
		"business_concept":    businessConcept(bundle),
		"market_analysis":     marketAnalysis(bundle),
		"value_proposition":   valueProposition(bundle),
		"business_model":      businessModel(bundle),
		"validation_strategy": validationStrategy(bundle),
		"key_risks":           keyRisks(bundle),
		"next_steps": []any{
			"Run the next validation experiment",
			"Collect customer interview evidence",
			"Re-evaluate the current stage gate",
		},
	}
	return content, fitScore(bundle), nil
}

func executiveSummary(bundle EvidenceBundle) string {
	name := bundle.ProjectName
	if name == "" {
		name = "This venture"
	}
	statement := ""
	if bundle.Hypothesis != nil {
		statement = bundle.Hypothesis.Statement
	}
	return strings.TrimSpace(fmt.Sprintf(
		"%s is built on the hypothesis that %s. The narrative below is derived from %d evidence items and %d validation runs.",
		name, statement, len(bundle.Evidence), len(bundle.ValidationRuns)))
}

func businessConcept(bundle EvidenceBundle) map[string]any {
	concept := map[string]any{
		"problem":  profileField(bundle, "problem_statement"),
		"solution": canvasField(bundle, "value_propositions"),
	}
	if bundle.Hypothesis != nil {
		concept["hypothesis"] = bundle.Hypothesis.Statement
		concept["hypothesis_status"] = string(bundle.Hypothesis.Status)
	}
	return concept
}

func marketAnalysis(bundle EvidenceBundle) map[string]any {
	return map[string]any{
		"target_segments": canvasField(bundle, "customer_segments"),
		"target_customer": profileField(bundle, "target_customer"),
		"industry":        profileField(bundle, "industry"),
		"evidence_count":  len(bundle.Evidence),
	}
}

func valueProposition(bundle EvidenceBundle) map[string]any {
	return map[string]any{
		"unique_value": canvasField(bundle, "value_propositions"),
		"channels":     canvasField(bundle, "channels"),
	}
}

func businessModel(bundle EvidenceBundle) map[string]any {
	return map[string]any{
		"revenue_streams": canvasField(bundle, "revenue_streams"),
		"cost_structure":  canvasField(bundle, "cost_structure"),
	}
}

func validationStrategy(bundle EvidenceBundle) map[string]any {
	strategy := map[string]any{
		"runs_completed": len(bundle.ValidationRuns),
	}
	var gates []any
	for _, run := range bundle.ValidationRuns {
		gates = append(gates, map[string]any{
			"gate":   string(run.Gate),
			"status": string(run.Status),
			"score":  run.ReadinessScore,
		})
	}
	strategy["gates"] = gates
	return strategy
}

func keyRisks(bundle EvidenceBundle) []any {
	risks := []any{"Market validation still in progress"}
	if bundle.Hypothesis != nil && bundle.Hypothesis.Status == "invalidated" {
		risks = append(risks, "Core hypothesis invalidated; pivot under consideration")
	}
	for _, run := range bundle.ValidationRuns {
		if run.Status == "failed" {
			risks = append(risks, fmt.Sprintf("%s gate failed", run.Gate))
		}
	}
	return risks
}

// fitScore is a coarse evidence-coverage score: how much of the expected
// fan-in is actually present.
func fitScore(bundle EvidenceBundle) float64 {
	score := 0.0
	if bundle.Hypothesis != nil {
		score += 0.25
	}
	if bundle.Profile != nil {
		score += 0.2
	}
	if bundle.Canvas != nil {
		score += 0.2
	}
	if len(bundle.Evidence) > 0 {
		score += 0.2
	}
	if len(bundle.ValidationRuns) > 0 {
		score += 0.15
	}
	return score
}

func profileField(bundle EvidenceBundle, field string) any {
	if bundle.Profile == nil {
		return ""
	}
	return bundle.Profile.Fields[field]
}

func canvasField(bundle EvidenceBundle, field string) any {
	if bundle.Canvas == nil {
		return ""
	}
	return bundle.Canvas.Fields[field]
}
