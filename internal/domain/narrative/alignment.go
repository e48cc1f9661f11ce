package narrative

import (
	"fmt"
	"time"
)

// AlignmentStatus summarizes the outcome of an alignment check.
type AlignmentStatus string

const (
	AlignmentAligned    AlignmentStatus = "aligned"
	AlignmentCorrected  AlignmentStatus = "corrected"
	AlignmentMisaligned AlignmentStatus = "misaligned"
)

// AlignmentResult is the recorded outcome of checking narrative content
// against the evidence it was built from.
type AlignmentResult struct {
	Status    AlignmentStatus `json:"status"`
	Issues    []string        `json:"issues,omitempty"`
	CheckedAt time.Time       `json:"checked_at"`
}

// requiredSections are the top-level content sections a complete pitch
// narrative carries.
var requiredSections = []string{
	"executive_summary",
	"business_concept",
	"market_analysis",
	"value_proposition",
	"business_model",
	"validation_strategy",
}

// CheckAlignment validates content against the source bundle. In strict mode
// (forced regeneration) issues are reported without touching the content; in
// soft mode empty required sections are auto-filled from the bundle before
// persisting, and the correction is recorded in the result.
func CheckAlignment(content map[string]any, bundle EvidenceBundle, strict bool) AlignmentResult {
	result := AlignmentResult{Status: AlignmentAligned, CheckedAt: time.Now()}

	for _, section := range requiredSections {
		if !sectionEmpty(content[section]) {
			continue
		}
		if strict {
			result.Issues = append(result.Issues, fmt.Sprintf("section %q is empty", section))
			continue
		}
		content[section] = sectionStub(section, bundle)
		result.Issues = append(result.Issues, fmt.Sprintf("section %q auto-filled", section))
		result.Status = AlignmentCorrected
	}

	if strict && len(result.Issues) > 0 {
		result.Status = AlignmentMisaligned
	}

	if bundle.Hypothesis != nil && bundle.Hypothesis.Status == "invalidated" {
		result.Issues = append(result.Issues,
			"hypothesis is invalidated; narrative claims should be revisited")
		if result.Status == AlignmentAligned {
			result.Status = AlignmentCorrected
		}
	}

	return result
}

// ContentEmpty reports whether every required section of the content is
// empty, i.e. synthesis produced nothing worth persisting.
func ContentEmpty(content map[string]any) bool {
	for _, section := range requiredSections {
		if !sectionEmpty(content[section]) {
			return false
		}
	}
	return true
}

func sectionEmpty(val any) bool {
	switch v := val.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case map[string]any:
		return len(v) == 0
	case []any:
		return len(v) == 0
	default:
		return false
	}
}

func sectionStub(section string, bundle EvidenceBundle) map[string]any {
	stub := map[string]any{
		"summary": fmt.Sprintf("%s pending further evidence", section),
	}
	if bundle.Hypothesis != nil {
		stub["hypothesis"] = bundle.Hypothesis.Statement
	}
	return stub
}
