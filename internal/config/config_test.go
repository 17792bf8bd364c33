package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultThresholds(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 60.0, cfg.Matching.MinSpeakerScore)
	assert.Equal(t, 90.0, cfg.Matching.ExactSpeakerScore)
	assert.Equal(t, 3.0, cfg.Matching.MinActivityScore)
	assert.Equal(t, 1.0, cfg.Matching.ActivityLeadMargin)
	assert.Equal(t, 1.0, cfg.Matching.ActivityLeadMinScore)
	assert.Equal(t, 300*time.Second, cfg.Time.StartTolerance)
	assert.Equal(t, 600*time.Second, cfg.Time.OverlapBuffer)
	assert.Equal(t, 2*time.Hour, cfg.Time.ZoneOffset)
	assert.Equal(t, 200, cfg.Processing.MaxActivityCandidates)
	assert.Equal(t, 80.0, cfg.Analysis.ControversialBelow)
	assert.Equal(t, 95.0, cfg.Analysis.UnanimousAtLeast)
	assert.Equal(t, 150, cfg.Analysis.SpeechPreviewLen)
	assert.Equal(t, 100, cfg.Analysis.ConnectionPreviewLen)
	assert.True(t, cfg.Analysis.DetectFragmentInterruptions)
	assert.True(t, cfg.Analysis.DetectSequentialInterruptions)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("VLOS_TIME_TOLERANCE_SEC", "120")
	t.Setenv("VLOS_MIN_SPEAKER_SCORE", "70")
	t.Setenv("VLOS_MAX_ACTIVITY_CANDIDATES", "50")
	t.Setenv("VLOS_DETECT_SEQUENTIAL_INTERRUPTIONS", "false")

	cfg := FromEnv()
	assert.Equal(t, 120*time.Second, cfg.Time.StartTolerance)
	assert.Equal(t, 70.0, cfg.Matching.MinSpeakerScore)
	assert.Equal(t, 50, cfg.Processing.MaxActivityCandidates)
	assert.False(t, cfg.Analysis.DetectSequentialInterruptions)
	assert.True(t, cfg.Analysis.DetectFragmentInterruptions)
	// untouched keys keep defaults
	assert.Equal(t, 600*time.Second, cfg.Time.OverlapBuffer)
}

func TestFromEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("VLOS_MIN_ACTIVITY_SCORE", "not-a-number")
	cfg := FromEnv()
	assert.Equal(t, 3.0, cfg.Matching.MinActivityScore)
}
