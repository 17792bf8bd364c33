// Package analyzer derives discourse analytics from bound activities:
// interruption dynamics and faction voting behavior.
package analyzer

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"vlos-insights-go/internal/config"
	"vlos-insights-go/internal/types"
)

// InterruptionAnalyzer detects interruptions per activity and aggregates
// them across a document.
type InterruptionAnalyzer struct {
	cfg config.AnalysisConfig
}

func NewInterruptionAnalyzer(cfg config.AnalysisConfig) *InterruptionAnalyzer {
	return &InterruptionAnalyzer{cfg: cfg}
}

type sequenceEntry struct {
	fragmentID string
	match      *types.SpeakerMatch
	speechText string
}

// DetectInActivity finds fragment and sequential interruptions within one
// activity. Fragment rule: every speaker after the first in a multi-speaker
// fragment interrupts the first. Sequential rule: a speaker change followed
// by the previous speaker returning counts as an interruption with response,
// any other speaker change as a simple interruption. Each rule can be
// disabled independently through the config.
func (a *InterruptionAnalyzer) DetectInActivity(act types.XmlActivity, speakers []types.SpeakerMatch, zaken []types.ZaakMatch, activityID string) []types.InterruptionEvent {
	topics := matchedZaakTitles(zaken)

	var events []types.InterruptionEvent
	var sequence []sequenceEntry

	for _, frag := range act.Fragments {
		var fragEntries []sequenceEntry
		for _, sp := range frag.Speakers {
			entry := sequenceEntry{
				fragmentID: frag.ID,
				match:      findActivitySpeaker(sp, speakers),
				speechText: frag.Text,
			}
			fragEntries = append(fragEntries, entry)
			sequence = append(sequence, entry)
		}

		for i := 1; a.cfg.DetectFragmentInterruptions && i < len(fragEntries); i++ {
			first, cur := fragEntries[0], fragEntries[i]
			if first.match == nil || cur.match == nil || first.match.PersoonID == cur.match.PersoonID {
				continue
			}
			events = append(events, types.InterruptionEvent{
				Kind:                types.FragmentInterruption,
				OriginalSpeaker:     first.match,
				InterruptingSpeaker: cur.match,
				ActivityID:          activityID,
				FragmentID:          frag.ID,
				Context:             fmt.Sprintf("multiple speakers in fragment %s", frag.ID),
				SpeechContext:       preview(frag.Text, a.cfg.SpeechPreviewLen),
				Topics:              topics,
				InterruptionLength:  len(cur.speechText),
			})
		}
	}

	if a.cfg.DetectSequentialInterruptions && len(sequence) >= 3 {
		events = append(events, a.detectSequential(sequence, activityID, topics)...)
	}
	return events
}

func (a *InterruptionAnalyzer) detectSequential(sequence []sequenceEntry, activityID string, topics []string) []types.InterruptionEvent {
	var events []types.InterruptionEvent
	for i := 1; i < len(sequence)-1; i++ {
		prev, cur, next := sequence[i-1], sequence[i], sequence[i+1]
		if prev.match == nil || cur.match == nil || prev.match.PersoonID == cur.match.PersoonID {
			continue
		}

		ev := types.InterruptionEvent{
			OriginalSpeaker:     prev.match,
			InterruptingSpeaker: cur.match,
			ActivityID:          activityID,
			FragmentID:          cur.fragmentID,
			SpeechContext:       preview(cur.speechText, a.cfg.SpeechPreviewLen),
			Topics:              topics,
			InterruptionLength:  len(cur.speechText),
		}
		if next.match != nil && next.match.PersoonID == prev.match.PersoonID {
			ev.Kind = types.InterruptionWithResponse
			ev.RespondingSpeaker = next.match
			ev.Context = fmt.Sprintf("%s interrupted by %s, then responds", prev.match.PersoonName, cur.match.PersoonName)
		} else {
			ev.Kind = types.SimpleInterruption
			ev.Context = fmt.Sprintf("%s interrupted by %s", prev.match.PersoonName, cur.match.PersoonName)
		}
		events = append(events, ev)
	}
	return events
}

// AnalyzePatterns aggregates all interruption events of a document.
func (a *InterruptionAnalyzer) AnalyzePatterns(events []types.InterruptionEvent) *types.InterruptionAnalysis {
	analysis := &types.InterruptionAnalysis{
		TotalInterruptions:       len(events),
		KindCounts:               map[types.InterruptionKind]int{},
		MostFrequentInterrupters: map[string]int{},
		MostInterruptedSpeakers:  map[string]int{},
		InterruptionPairs:        map[string]*types.InterruptionPair{},
		TopicCounts:              map[string]int{},
		ResponsePatterns:         map[string]*types.ResponsePattern{},
	}

	pairTopics := map[string]map[string]bool{}
	responseTopics := map[string]map[string]bool{}

	for i := range events {
		ev := &events[i]
		analysis.KindCounts[ev.Kind]++

		if ev.InterruptingSpeaker != nil && ev.OriginalSpeaker != nil &&
			ev.InterruptingSpeaker.PersoonID != "" && ev.OriginalSpeaker.PersoonID != "" {
			interrupter := nameOrUnknown(ev.InterruptingSpeaker.PersoonName)
			interrupted := nameOrUnknown(ev.OriginalSpeaker.PersoonName)
			key := interrupter + " -> " + interrupted

			pair := analysis.InterruptionPairs[key]
			if pair == nil {
				pair = &types.InterruptionPair{Interrupter: interrupter, Interrupted: interrupted}
				analysis.InterruptionPairs[key] = pair
				pairTopics[key] = map[string]bool{}
			}
			pair.Count++
			for _, topic := range ev.Topics {
				pairTopics[key][topic] = true
			}

			analysis.MostFrequentInterrupters[interrupter]++
			analysis.MostInterruptedSpeakers[interrupted]++
		}

		for _, topic := range ev.Topics {
			analysis.TopicCounts[topic]++
		}

		if ev.Kind == types.InterruptionWithResponse && ev.RespondingSpeaker != nil && ev.InterruptingSpeaker != nil {
			responder := nameOrUnknown(ev.RespondingSpeaker.PersoonName)
			interrupter := nameOrUnknown(ev.InterruptingSpeaker.PersoonName)
			key := responder + " responds to " + interrupter

			rp := analysis.ResponsePatterns[key]
			if rp == nil {
				rp = &types.ResponsePattern{Responder: responder, Interrupter: interrupter}
				analysis.ResponsePatterns[key] = rp
				responseTopics[key] = map[string]bool{}
			}
			rp.Count++
			for _, topic := range ev.Topics {
				responseTopics[key][topic] = true
			}
		}
	}

	for key, topics := range pairTopics {
		analysis.InterruptionPairs[key].Topics = sortedKeys(topics)
	}
	for key, topics := range responseTopics {
		analysis.ResponsePatterns[key].Topics = sortedKeys(topics)
	}
	return analysis
}

// findActivitySpeaker relinks a fragment speaker to the already resolved
// activity speaker list by surname.
func findActivitySpeaker(sp types.XmlSpeaker, speakers []types.SpeakerMatch) *types.SpeakerMatch {
	surname := sp.Verslagnaam
	if surname == "" {
		surname = sp.Achternaam
	}
	lower := strings.ToLower(surname)
	for i := range speakers {
		sm := &speakers[i]
		if strings.ToLower(sm.XmlSpeaker.Achternaam) == lower {
			return sm
		}
		if sm.PersoonName != "" && strings.Contains(strings.ToLower(sm.PersoonName), lower) {
			return sm
		}
	}
	return nil
}

func matchedZaakTitles(zaken []types.ZaakMatch) []string {
	var topics []string
	for _, z := range zaken {
		if z.Result.Success && z.XmlZaak.Titel != "" {
			topics = append(topics, z.XmlZaak.Titel)
		}
	}
	return topics
}

// preview truncates to at most n bytes without splitting a rune.
func preview(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func nameOrUnknown(name string) string {
	if name == "" {
		return "Unknown"
	}
	return name
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
