package config

import (
	"os"
	"strconv"
	"time"
)

// MatchingConfig holds the scoring thresholds and weights for entity binding.
type MatchingConfig struct {
	MinSpeakerScore    float64
	ExactSpeakerScore  float64
	SurnameScore       float64
	FirstNameHighBoost float64
	FirstNameMidBoost  float64
	FirstNameHighRatio int
	FirstNameMidRatio  int
	FuzzyPenalty       float64

	MinActivityScore     float64
	ActivityLeadMargin   float64
	ActivityLeadMinScore float64
	ActivityExactBonus   float64
	TimeStartWeight      float64
	TimeOverlapWeight    float64
	SoortExactWeight     float64
	SoortXmlInAPIWeight  float64
	SoortAPIInXmlWeight  float64
	TopicExactWeight     float64
	TopicHighWeight      float64
	TopicMidWeight       float64
	TitleExactWeight     float64
	TitleHighWeight      float64
	TitleMidWeight       float64
	TopicHighRatio       int
	TopicMidRatio        int
}

// TimeConfig holds the temporal tolerances used when comparing XML and
// canonical timestamps. XML timestamps are naive local times; ZoneOffset is
// applied before comparison.
type TimeConfig struct {
	StartTolerance time.Duration
	OverlapBuffer  time.Duration
	ZoneOffset     time.Duration
	MeetingLookup  time.Duration
	ActivityBuffer time.Duration
}

// ProcessingConfig bounds candidate lookups.
type ProcessingConfig struct {
	MaxActivityCandidates int
	MaxMeetingCandidates  int
	MaxPersoonCandidates  int
	MaxZaakCandidates     int
}

// AnalysisConfig holds the discourse-analysis thresholds. The two detection
// rules can be switched off independently.
type AnalysisConfig struct {
	ControversialBelow            float64
	UnanimousAtLeast              float64
	SpeechPreviewLen              int
	ConnectionPreviewLen          int
	DetectFragmentInterruptions   bool
	DetectSequentialInterruptions bool
}

// VlosConfig is the full pipeline configuration.
type VlosConfig struct {
	Matching   MatchingConfig
	Time       TimeConfig
	Processing ProcessingConfig
	Analysis   AnalysisConfig
}

// Default returns the configuration the pipeline was tuned with.
func Default() VlosConfig {
	return VlosConfig{
		Matching: MatchingConfig{
			MinSpeakerScore:    60,
			ExactSpeakerScore:  90,
			SurnameScore:       60,
			FirstNameHighBoost: 40,
			FirstNameMidBoost:  20,
			FirstNameHighRatio: 75,
			FirstNameMidRatio:  60,
			FuzzyPenalty:       20,

			MinActivityScore:     3.0,
			ActivityLeadMargin:   1.0,
			ActivityLeadMinScore: 1.0,
			ActivityExactBonus:   2.0,
			TimeStartWeight:      3.0,
			TimeOverlapWeight:    1.5,
			SoortExactWeight:     2.0,
			SoortXmlInAPIWeight:  2.0,
			SoortAPIInXmlWeight:  1.5,
			TopicExactWeight:     4.0,
			TopicHighWeight:      2.5,
			TopicMidWeight:       2.0,
			TitleExactWeight:     1.5,
			TitleHighWeight:      1.25,
			TitleMidWeight:       0.5,
			TopicHighRatio:       85,
			TopicMidRatio:        70,
		},
		Time: TimeConfig{
			StartTolerance: 300 * time.Second,
			OverlapBuffer:  600 * time.Second,
			ZoneOffset:     2 * time.Hour,
			MeetingLookup:  24 * time.Hour,
			ActivityBuffer: time.Hour,
		},
		Processing: ProcessingConfig{
			MaxActivityCandidates: 200,
			MaxMeetingCandidates:  5,
			MaxPersoonCandidates:  100,
			MaxZaakCandidates:     10,
		},
		Analysis: AnalysisConfig{
			ControversialBelow:            80,
			UnanimousAtLeast:              95,
			SpeechPreviewLen:              150,
			ConnectionPreviewLen:          100,
			DetectFragmentInterruptions:   true,
			DetectSequentialInterruptions: true,
		},
	}
}

// FromEnv returns Default overridden by environment variables. main loads
// .env via godotenv before calling this.
func FromEnv() VlosConfig {
	cfg := Default()
	cfg.Time.StartTolerance = envSeconds("VLOS_TIME_TOLERANCE_SEC", cfg.Time.StartTolerance)
	cfg.Time.OverlapBuffer = envSeconds("VLOS_TIME_BUFFER_SEC", cfg.Time.OverlapBuffer)
	cfg.Time.ZoneOffset = envSeconds("VLOS_ZONE_OFFSET_SEC", cfg.Time.ZoneOffset)
	cfg.Matching.MinSpeakerScore = envFloat("VLOS_MIN_SPEAKER_SCORE", cfg.Matching.MinSpeakerScore)
	cfg.Matching.MinActivityScore = envFloat("VLOS_MIN_ACTIVITY_SCORE", cfg.Matching.MinActivityScore)
	cfg.Processing.MaxActivityCandidates = envInt("VLOS_MAX_ACTIVITY_CANDIDATES", cfg.Processing.MaxActivityCandidates)
	cfg.Analysis.SpeechPreviewLen = envInt("VLOS_SPEECH_PREVIEW_LEN", cfg.Analysis.SpeechPreviewLen)
	cfg.Analysis.ConnectionPreviewLen = envInt("VLOS_CONNECTION_PREVIEW_LEN", cfg.Analysis.ConnectionPreviewLen)
	cfg.Analysis.DetectFragmentInterruptions = envBool("VLOS_DETECT_FRAGMENT_INTERRUPTIONS", cfg.Analysis.DetectFragmentInterruptions)
	cfg.Analysis.DetectSequentialInterruptions = envBool("VLOS_DETECT_SEQUENTIAL_INTERRUPTIONS", cfg.Analysis.DetectSequentialInterruptions)
	return cfg
}

func envFloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envSeconds(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return def
}
