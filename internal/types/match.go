package types

import "time"

// MatchKind classifies how a canonical entity was bound to an XML record.
type MatchKind string

const (
	MatchExact    MatchKind = "exact"
	MatchFuzzy    MatchKind = "fuzzy"
	MatchFallback MatchKind = "fallback"
	MatchNone     MatchKind = "no_match"
)

// InterruptionKind classifies a detected interruption event.
type InterruptionKind string

const (
	FragmentInterruption     InterruptionKind = "fragment_interruption"
	SimpleInterruption       InterruptionKind = "simple_interruption"
	InterruptionWithResponse InterruptionKind = "interruption_with_response"
)

// EntityRef points at a canonical graph entity by label and id.
type EntityRef struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// MatchResult is the outcome of one binding attempt. Success, Matched and
// Kind move together: a successful result always carries a matched ref and
// a kind other than MatchNone. Use NoMatch/Matched to construct.
type MatchResult struct {
	Success  bool       `json:"success"`
	Kind     MatchKind  `json:"kind"`
	Score    float64    `json:"score"`
	Matched  *EntityRef `json:"matched,omitempty"`
	Fallback *EntityRef `json:"fallback,omitempty"`
	Reasons  []string   `json:"reasons,omitempty"`
}

// NoMatch builds a failed result carrying the reasons no candidate was bound.
func NoMatch(reasons ...string) MatchResult {
	return MatchResult{Success: false, Kind: MatchNone, Reasons: reasons}
}

// Matched builds a successful result for the given entity.
func Matched(kind MatchKind, score float64, ref EntityRef, reasons ...string) MatchResult {
	if kind == MatchNone {
		kind = MatchFuzzy
	}
	return MatchResult{Success: true, Kind: kind, Score: score, Matched: &ref, Reasons: reasons}
}

// ActivityMatch pairs an XML activity with its canonical resolution.
type ActivityMatch struct {
	XmlActivity  XmlActivity `json:"xml_activity"`
	Result       MatchResult `json:"result"`
	ActiviteitID string      `json:"activiteit_id,omitempty"`
}

// SpeakerMatch pairs an XML speaker with a canonical Persoon.
type SpeakerMatch struct {
	XmlSpeaker  XmlSpeaker  `json:"xml_speaker"`
	Result      MatchResult `json:"result"`
	PersoonID   string      `json:"persoon_id,omitempty"`
	PersoonName string      `json:"persoon_name,omitempty"`
}

// ZaakMatch pairs an XML zaak with its canonical resolution. ZaakID and
// DossierID are mutually exclusive; MatchedKind records which tier bound
// ("zaak" or "dossier"). A tier-3 document lives on Result.Fallback.
type ZaakMatch struct {
	XmlZaak     XmlZaak     `json:"xml_zaak"`
	Result      MatchResult `json:"result"`
	ZaakID      string      `json:"zaak_id,omitempty"`
	DossierID   string      `json:"dossier_id,omitempty"`
	DocumentID  string      `json:"document_id,omitempty"`
	MatchedKind string      `json:"matched_kind,omitempty"`
}

// SpeakerZaakConnection records that a resolved speaker spoke on a resolved
// zaak. ConnectionKind is "activity_based" (speaker and zaak share an
// activity) or "direct_zaak_link" (speaker listed under the zaak element).
type SpeakerZaakConnection struct {
	Speaker        SpeakerMatch `json:"speaker"`
	Zaak           ZaakMatch    `json:"zaak"`
	ActivityID     string       `json:"activity_id,omitempty"`
	ActivityTitle  string       `json:"activity_title,omitempty"`
	Context        string       `json:"context,omitempty"`
	SpeechPreview  string       `json:"speech_preview,omitempty"`
	ConnectionKind string       `json:"connection_kind"`
}

// InterruptionEvent is one detected interruption inside an activity.
type InterruptionEvent struct {
	Kind                InterruptionKind `json:"kind"`
	OriginalSpeaker     *SpeakerMatch    `json:"original_speaker,omitempty"`
	InterruptingSpeaker *SpeakerMatch    `json:"interrupting_speaker,omitempty"`
	RespondingSpeaker   *SpeakerMatch    `json:"responding_speaker,omitempty"`
	ActivityID          string           `json:"activity_id,omitempty"`
	FragmentID          string           `json:"fragment_id,omitempty"`
	Context             string           `json:"context,omitempty"`
	SpeechContext       string           `json:"speech_context,omitempty"`
	Topics              []string         `json:"topics,omitempty"`
	InterruptionLength  int              `json:"interruption_length,omitempty"`
}

// VotingAnalysis is the per-event voting breakdown.
type VotingAnalysis struct {
	Event          XmlVoteEvent        `json:"event"`
	ActivityID     string              `json:"activity_id,omitempty"`
	Topics         []string            `json:"topics,omitempty"`
	VoteBreakdown  map[string][]string `json:"vote_breakdown"`
	ConsensusLevel float64             `json:"consensus_level"`
	TotalVotes     int                 `json:"total_votes"`
}

// InterruptionPair tracks how often one member interrupts another.
type InterruptionPair struct {
	Count       int      `json:"count"`
	Interrupter string   `json:"interrupter"`
	Interrupted string   `json:"interrupted"`
	Topics      []string `json:"topics,omitempty"`
}

// ResponsePattern counts how often a speaker responds to one interrupter.
type ResponsePattern struct {
	Count       int      `json:"count"`
	Responder   string   `json:"responder"`
	Interrupter string   `json:"interrupter"`
	Topics      []string `json:"topics,omitempty"`
}

// InterruptionAnalysis is the document-level interruption aggregation.
type InterruptionAnalysis struct {
	TotalInterruptions       int                          `json:"total_interruptions"`
	KindCounts               map[InterruptionKind]int     `json:"kind_counts"`
	MostFrequentInterrupters map[string]int               `json:"most_frequent_interrupters"`
	MostInterruptedSpeakers  map[string]int               `json:"most_interrupted_speakers"`
	InterruptionPairs        map[string]*InterruptionPair `json:"interruption_pairs"`
	TopicCounts              map[string]int               `json:"topic_counts"`
	ResponsePatterns         map[string]*ResponsePattern  `json:"response_patterns"`
}

// FractieVotes tallies one faction's votes across the document.
type FractieVotes struct {
	Voor            int `json:"voor"`
	Tegen           int `json:"tegen"`
	Onthouding      int `json:"onthouding"`
	NietDeelgenomen int `json:"niet_deelgenomen"`
	Total           int `json:"total"`
}

// FractieAlignment is a faction's vote distribution in percentages.
type FractieAlignment struct {
	TotalVotes    int     `json:"total_votes"`
	VoorPct       float64 `json:"voor_pct"`
	TegenPct      float64 `json:"tegen_pct"`
	OnthoudingPct float64 `json:"onthouding_pct"`
}

// TopicVotes groups votes under one normalized topic.
type TopicVotes struct {
	Votes          map[string][]string `json:"votes"`
	ConsensusLevel float64             `json:"consensus_level"`
	TotalVotes     int                 `json:"total_votes"`
}

// VotingPatternAnalysis is the document-level voting aggregation.
type VotingPatternAnalysis struct {
	TotalVoteEvents      int                          `json:"total_vote_events"`
	TotalIndividualVotes int                          `json:"total_individual_votes"`
	FractieVoteCounts    map[string]*FractieVotes     `json:"fractie_vote_counts"`
	FractieAlignment     map[string]*FractieAlignment `json:"fractie_alignment"`
	TopicVotePatterns    map[string]*TopicVotes       `json:"topic_vote_patterns"`
	VoteTypeDistribution map[string]int               `json:"vote_type_distribution"`
	ControversialTopics  []string                     `json:"controversial_topics,omitempty"`
	UnanimousTopics      []string                     `json:"unanimous_topics,omitempty"`
}

// ProcessingStatistics counts what a run attempted and bound.
type ProcessingStatistics struct {
	ActivitiesTotal   int `json:"activities_total"`
	ActivitiesMatched int `json:"activities_matched"`
	SpeakersTotal     int `json:"speakers_total"`
	SpeakersMatched   int `json:"speakers_matched"`
	ZakenTotal        int `json:"zaken_total"`
	ZakenMatched      int `json:"zaken_matched"`
	Connections       int `json:"connections"`
	Interruptions     int `json:"interruptions"`
	VoteEvents        int `json:"vote_events"`
}

func rate(matched, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(matched) / float64(total) * 100
}

func (s ProcessingStatistics) ActivityMatchRate() float64 {
	return rate(s.ActivitiesMatched, s.ActivitiesTotal)
}

func (s ProcessingStatistics) SpeakerMatchRate() float64 {
	return rate(s.SpeakersMatched, s.SpeakersTotal)
}

func (s ProcessingStatistics) ZaakMatchRate() float64 {
	return rate(s.ZakenMatched, s.ZakenTotal)
}

// VlosProcessingResult is the full outcome of processing one verslag.
type VlosProcessingResult struct {
	RunID                  string                  `json:"run_id"`
	XmlMeeting             *XmlMeeting             `json:"xml_meeting,omitempty"`
	CanonicalVergaderingID string                  `json:"canonical_vergadering_id,omitempty"`
	ActivityMatches        []ActivityMatch         `json:"activity_matches,omitempty"`
	SpeakerMatches         []SpeakerMatch          `json:"speaker_matches,omitempty"`
	ZaakMatches            []ZaakMatch             `json:"zaak_matches,omitempty"`
	Connections            []SpeakerZaakConnection `json:"connections,omitempty"`
	InterruptionEvents     []InterruptionEvent     `json:"interruption_events,omitempty"`
	VotingAnalyses         []VotingAnalysis        `json:"voting_analyses,omitempty"`
	InterruptionAnalysis   *InterruptionAnalysis   `json:"interruption_analysis,omitempty"`
	VotingPatternAnalysis  *VotingPatternAnalysis  `json:"voting_pattern_analysis,omitempty"`
	Statistics             ProcessingStatistics    `json:"statistics"`
	ProcessedAt            time.Time               `json:"processed_at"`
	Success                bool                    `json:"success"`
	ErrorMessages          []string                `json:"error_messages,omitempty"`
	Warnings               []string                `json:"warnings,omitempty"`
}
