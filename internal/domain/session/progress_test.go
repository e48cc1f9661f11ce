package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyAssessment_BelowThresholdStaysInStage(t *testing.T) {
	sess := &Session{Stage: StageBusinessIdea}

	up := applyAssessment(sess, &Assessment{Coverage: 0.4}, 2)
	require.Equal(t, StageBusinessIdea, up.Stage)
	require.False(t, up.StageAdvanced)
	require.Equal(t, 40, up.StageProgress)
	require.Equal(t, 8, up.OverallProgress)
	require.False(t, up.Completed)
}

func TestApplyAssessment_AtThresholdAdvances(t *testing.T) {
	sess := &Session{Stage: StageBusinessIdea}

	up := applyAssessment(sess, &Assessment{Coverage: 0.8}, 2)
	require.Equal(t, StageTargetMarket, up.Stage)
	require.True(t, up.StageAdvanced)
	require.Equal(t, 0, up.StageProgress, "progress resets in the new stage")
	require.Equal(t, 20, up.OverallProgress, "the advancing turn banks the full stage share")
	require.False(t, up.Completed)
}

func TestApplyAssessment_LastStageAdvanceCompletes(t *testing.T) {
	sess := &Session{Stage: StageValidationPlan, OverallProgress: 85}

	up := applyAssessment(sess, &Assessment{Coverage: 0.9}, 20)
	require.Equal(t, StageValidationPlan, up.Stage)
	require.True(t, up.StageAdvanced)
	require.True(t, up.Completed)
	require.Equal(t, 100, up.StageProgress)
	require.Equal(t, 100, up.OverallProgress)
}

func TestApplyAssessment_OverallProgressNeverDecreases(t *testing.T) {
	sess := &Session{Stage: StageTargetMarket, OverallProgress: 35}

	up := applyAssessment(sess, &Assessment{Coverage: 0.1}, 10)
	require.Equal(t, 35, up.OverallProgress)
}

func TestApplyAssessment_CoverageClamped(t *testing.T) {
	sess := &Session{Stage: StageBusinessIdea}

	up := applyAssessment(sess, &Assessment{Coverage: -0.5}, 2)
	require.Equal(t, 0, up.StageProgress)

	up = applyAssessment(sess, &Assessment{Coverage: 1.7}, 2)
	require.True(t, up.StageAdvanced)
}

func TestApplyAssessment_CapsAt99BeforeCompletion(t *testing.T) {
	sess := &Session{Stage: StageValidationPlan, OverallProgress: 80}

	up := applyAssessment(sess, &Assessment{Coverage: 0.79}, 30)
	require.False(t, up.Completed)
	require.LessOrEqual(t, up.OverallProgress, 99)
}

func TestFallbackUpdate_DerivesFromMessageCount(t *testing.T) {
	sess := &Session{Stage: StageTargetMarket, StageProgress: 2, OverallProgress: 2}

	up := applyAssessment(sess, nil, 4)
	require.Equal(t, StageTargetMarket, up.Stage, "fallback never advances the stage")
	require.False(t, up.StageAdvanced)
	require.Equal(t, 7, up.StageProgress) // 3 + 4*1
	require.Equal(t, 7, up.OverallProgress)
}

func TestFallbackUpdate_Bounded(t *testing.T) {
	sess := &Session{Stage: StageBusinessIdea}

	up := applyAssessment(sess, nil, 100)
	require.Equal(t, fallbackMaxProgress, up.StageProgress)
	require.Equal(t, fallbackMaxProgress, up.OverallProgress)
}

func TestFallbackUpdate_NeverRegresses(t *testing.T) {
	sess := &Session{Stage: StageBusinessIdea, StageProgress: 60, OverallProgress: 12}

	up := applyAssessment(sess, nil, 2)
	require.Equal(t, 60, up.StageProgress)
	require.Equal(t, 12, up.OverallProgress)
}

func TestStage_Ordering(t *testing.T) {
	require.Equal(t, 1, StageBusinessIdea.Ordinal())
	require.Equal(t, 5, StageValidationPlan.Ordinal())
	require.Equal(t, 5, StageCount())

	next, ok := StageBusinessIdea.Next()
	require.True(t, ok)
	require.Equal(t, StageTargetMarket, next)

	_, ok = StageValidationPlan.Next()
	require.False(t, ok)

	require.Equal(t, 0, Stage("bogus").Ordinal())
}
