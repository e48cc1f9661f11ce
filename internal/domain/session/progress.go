package session

import "math"

const (
	// stageAdvanceCoverage is the assessed coverage at which a stage is
	// considered done and the conversation advances.
	stageAdvanceCoverage = 0.8

	// Fallback constants used when the upstream quality assessment fails.
	// The substitute is derived purely from message count so the caller
	// never observes a session stuck at zero after a transient failure.
	fallbackBaseProgress = 3
	fallbackPerMessage   = 1
	fallbackMaxProgress  = 15
)

// stageUpdate is the set of session fields a committed turn derives from the
// assessment.
type stageUpdate struct {
	Stage           Stage
	StageProgress   int
	OverallProgress int
	StageAdvanced   bool
	Completed       bool
}

// applyAssessment computes the post-commit stage fields. messageCount is the
// history length including the turn being committed. A nil assessment takes
// the fallback path.
func applyAssessment(sess *Session, assessment *Assessment, messageCount int) stageUpdate {
	if assessment == nil {
		return fallbackUpdate(sess, messageCount)
	}

	coverage := clamp01(assessment.Coverage)
	up := stageUpdate{
		Stage:         sess.Stage,
		StageProgress: int(math.Round(coverage * 100)),
		Completed:     sess.Completed,
	}

	if coverage >= stageAdvanceCoverage {
		if next, ok := sess.Stage.Next(); ok {
			up.Stage = next
			up.StageAdvanced = true
			up.StageProgress = 0
		} else {
			up.StageAdvanced = true
			up.Completed = true
			up.StageProgress = 100
		}
	}

	up.OverallProgress = overallProgress(sess, up, coverage)
	return up
}

// overallProgress maps (stage reached, within-stage coverage, completion) to
// a 0-100 figure that never decreases turn-over-turn for one session.
func overallProgress(sess *Session, up stageUpdate, coverage float64) int {
	if up.Completed {
		return 100
	}
	perStage := 100.0 / float64(StageCount())
	reached := up.Stage.Ordinal()
	if reached == 0 {
		reached = 1
	}
	within := coverage
	if up.StageAdvanced {
		// The advancing turn banks the full stage share; within-stage
		// coverage restarts at zero in the new stage.
		within = 0
	}
	progress := int(math.Round(float64(reached-1)*perStage + within*perStage))
	if progress > 99 {
		progress = 99
	}
	if progress < sess.OverallProgress {
		progress = sess.OverallProgress
	}
	return progress
}

// fallbackUpdate substitutes a bounded, message-count-derived estimate when
// the assessment is unavailable. Stage never advances on a fallback turn.
func fallbackUpdate(sess *Session, messageCount int) stageUpdate {
	estimate := fallbackBaseProgress + messageCount*fallbackPerMessage
	if estimate > fallbackMaxProgress {
		estimate = fallbackMaxProgress
	}

	stageProgress := sess.StageProgress
	if estimate > stageProgress {
		stageProgress = estimate
	}
	overall := sess.OverallProgress
	if estimate > overall {
		overall = estimate
	}

	return stageUpdate{
		Stage:           sess.Stage,
		StageProgress:   stageProgress,
		OverallProgress: overall,
		Completed:       sess.Completed,
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
