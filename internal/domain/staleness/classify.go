package staleness

import (
	"fmt"
)

// Classifier maps change events to a (severity, reason) pair. The meaningful
// field sets for canvas and profile writes are product configuration.
type Classifier struct {
	profileFields []string
	canvasFields  []string
}

// NewClassifier creates a classifier with the given meaningful-field sets.
func NewClassifier(profileFields, canvasFields []string) *Classifier {
	return &Classifier{
		profileFields: profileFields,
		canvasFields:  canvasFields,
	}
}

// Classify computes the staleness severity and reason for an event.
// Classification failures (missing fields, unexpected types) degrade to soft
// with a reason naming the source table; they never surface as errors, so the
// triggering write can never fail on account of staleness bookkeeping.
// SeverityNone means the event does not affect staleness at all.
func (c *Classifier) Classify(ev ChangeEvent) (Severity, string) {
	sev, reason, err := c.classify(ev)
	if err != nil {
		return SeveritySoft, fmt.Sprintf("%s change (classification failed: %v)", ev.Source, err)
	}
	return sev, reason
}

func (c *Classifier) classify(ev ChangeEvent) (Severity, string, error) {
	switch ev.Source {
	case SourceEvidence:
		return SeveritySoft, "new evidence added", nil
	case SourceHypothesis:
		return classifyHypothesis(ev)
	case SourceValidationRun:
		return classifyValidationRun(ev)
	case SourceCanvas:
		return classifyFieldSet(ev, c.canvasFields)
	case SourceProfile:
		return classifyFieldSet(ev, c.profileFields)
	default:
		return SeverityNone, "", fmt.Errorf("unknown source %q", ev.Source)
	}
}

func classifyHypothesis(ev ChangeEvent) (Severity, string, error) {
	if ev.Kind == KindInsert {
		return SeveritySoft, "hypothesis updated", nil
	}
	oldStatus, newStatus, changed, err := fieldChange(ev, "status")
	if err != nil {
		return SeverityNone, "", err
	}
	if changed {
		return SeverityHard, fmt.Sprintf("hypothesis status changed: %s -> %s", oldStatus, newStatus), nil
	}
	return SeveritySoft, "hypothesis updated", nil
}

func classifyValidationRun(ev ChangeEvent) (Severity, string, error) {
	if ev.Kind == KindInsert {
		return SeveritySoft, "validation run updated", nil
	}
	oldGate, newGate, changed, err := fieldChange(ev, "gate")
	if err != nil {
		return SeverityNone, "", err
	}
	if changed {
		return SeverityHard, fmt.Sprintf("validation gate changed: %s -> %s", oldGate, newGate), nil
	}
	return SeveritySoft, "validation run updated", nil
}

func classifyFieldSet(ev ChangeEvent, fields []string) (Severity, string, error) {
	if ev.Kind == KindInsert {
		return SeveritySoft, "related data changed", nil
	}
	if ev.New == nil {
		return SeverityNone, "", fmt.Errorf("update event missing new fields")
	}
	for _, field := range fields {
		oldVal, hadOld := ev.Old[field]
		newVal, hasNew := ev.New[field]
		if hadOld != hasNew || fmt.Sprint(oldVal) != fmt.Sprint(newVal) {
			return SeveritySoft, "related data changed", nil
		}
	}
	return SeverityNone, "", nil
}

// fieldChange reports whether a required scalar field differs between the old
// and new images of an update event.
func fieldChange(ev ChangeEvent, field string) (oldVal, newVal string, changed bool, err error) {
	if ev.New == nil {
		return "", "", false, fmt.Errorf("update event missing new fields")
	}
	rawNew, ok := ev.New[field]
	if !ok {
		return "", "", false, fmt.Errorf("missing %q in new fields", field)
	}
	newStr, ok := rawNew.(string)
	if !ok {
		return "", "", false, fmt.Errorf("field %q is %T, want string", field, rawNew)
	}
	if ev.Old == nil {
		return "", newStr, false, nil
	}
	rawOld, ok := ev.Old[field]
	if !ok {
		return "", newStr, false, nil
	}
	oldStr, ok := rawOld.(string)
	if !ok {
		return "", "", false, fmt.Errorf("field %q is %T, want string", field, rawOld)
	}
	return oldStr, newStr, oldStr != newStr, nil
}
