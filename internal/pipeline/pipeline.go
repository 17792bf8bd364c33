// Package pipeline orchestrates one verslag run: extract the XML, resolve
// the meeting, bind activities, speakers and zaken, then derive the
// discourse analytics. A run always produces a result object; per-activity
// trouble becomes a warning, only document-level failure marks the run
// failed.
package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"vlos-insights-go/internal/analyzer"
	"vlos-insights-go/internal/candidates"
	"vlos-insights-go/internal/config"
	"vlos-insights-go/internal/extractor"
	"vlos-insights-go/internal/logger"
	"vlos-insights-go/internal/matcher"
	"vlos-insights-go/internal/types"
)

type stage string

const (
	stageExtracting          stage = "extracting"
	stageResolvingMeeting    stage = "resolving_meeting"
	stageResolvingActivities stage = "resolving_activities"
	stageAnalyzing           stage = "analyzing"
	stageDone                stage = "done"
	stageFailed              stage = "failed"
)

// Pipeline wires the extractor, matchers, candidate provider and analyzers
// together. One Process call is synchronous and owns all its state; separate
// runs may share a Pipeline.
type Pipeline struct {
	cfg           config.VlosConfig
	extractor     *extractor.Extractor
	provider      candidates.Provider
	names         *matcher.NameMatcher
	activities    *matcher.ActivityMatcher
	interruptions *analyzer.InterruptionAnalyzer
	voting        *analyzer.VotingAnalyzer
	log           *logrus.Entry
}

func New(cfg config.VlosConfig, provider candidates.Provider) *Pipeline {
	return &Pipeline{
		cfg:           cfg,
		extractor:     extractor.New(cfg),
		provider:      provider,
		names:         matcher.NewNameMatcher(cfg.Matching),
		activities:    matcher.NewActivityMatcher(cfg),
		interruptions: analyzer.NewInterruptionAnalyzer(cfg.Analysis),
		voting:        analyzer.NewVotingAnalyzer(cfg.Analysis),
		log:           logger.New().WithField("component", "pipeline"),
	}
}

// Process runs the full reconciliation and analysis for one verslag
// document.
func (p *Pipeline) Process(ctx context.Context, content []byte) *types.VlosProcessingResult {
	result := &types.VlosProcessingResult{
		RunID:       uuid.New().String(),
		ProcessedAt: time.Now().UTC(),
	}
	log := p.log.WithField("run_id", result.RunID)

	log.WithField("stage", stageExtracting).Info("extracting verslag")
	meeting, xmlActivities, err := p.extractor.Extract(content)
	if err != nil {
		return p.fail(result, log, err)
	}
	result.XmlMeeting = meeting

	log.WithField("stage", stageResolvingMeeting).Info("resolving canonical vergadering")
	meetings, err := p.provider.CandidateMeetings(ctx, *meeting)
	if err != nil {
		return p.fail(result, log, fmt.Errorf("meeting lookup: %w", err))
	}
	if len(meetings) == 0 {
		return p.fail(result, log, &candidates.NoCanonicalMeetingError{Datum: meeting.Datum})
	}
	canonical := meetings[0]
	if len(meetings) > 1 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%d vergadering candidates near %s, using %s", len(meetings), meeting.Datum.Format("2006-01-02"), canonical.ID))
	}
	result.CanonicalVergaderingID = canonical.ID

	log.WithField("stage", stageResolvingActivities).WithField("vergadering", canonical.ID).Info("resolving activities")
	apiActivities, err := p.provider.CandidateActivities(ctx, canonical)
	if err != nil {
		return p.fail(result, log, fmt.Errorf("activity lookup: %w", err))
	}

	// Agendapunt-derived zaken are deduped per run by canonical id.
	seenAgendapuntZaken := map[string]bool{}

	for _, xmlAct := range xmlActivities {
		actMatch := p.activities.Match(xmlAct, canonical, apiActivities)
		result.ActivityMatches = append(result.ActivityMatches, actMatch)

		activityID := actMatch.ActiviteitID
		if activityID == "" {
			activityID = "unmatched_" + xmlAct.ObjectID
		}

		var actors []types.Persoon
		if actMatch.Result.Success {
			for _, api := range apiActivities {
				if api.ID == actMatch.ActiviteitID {
					actors = api.Actors
					break
				}
			}
		}

		speakerMatches := p.matchSpeakers(ctx, result, xmlAct.Speakers, actors)
		result.SpeakerMatches = append(result.SpeakerMatches, speakerMatches...)

		zaakMatches := p.matchZaken(ctx, result, xmlAct.Zaken)
		if actMatch.Result.Success {
			zaakMatches = append(zaakMatches, p.agendapuntZaken(ctx, result, actMatch.ActiviteitID, seenAgendapuntZaken)...)
		}
		result.ZaakMatches = append(result.ZaakMatches, zaakMatches...)

		result.Connections = append(result.Connections,
			p.activityConnections(speakerMatches, zaakMatches, activityID, xmlAct.Titel)...)
		result.Connections = append(result.Connections,
			p.directZaakConnections(ctx, result, xmlAct, zaakMatches, activityID)...)

		if len(xmlAct.VoteEvents) > 0 {
			result.VotingAnalyses = append(result.VotingAnalyses,
				p.voting.AnalyzeActivity(xmlAct.VoteEvents, zaakMatches, activityID)...)
		}
		result.InterruptionEvents = append(result.InterruptionEvents,
			p.interruptions.DetectInActivity(xmlAct, speakerMatches, zaakMatches, activityID)...)
	}

	log.WithField("stage", stageAnalyzing).Info("aggregating document analytics")
	if len(result.InterruptionEvents) > 0 {
		result.InterruptionAnalysis = p.interruptions.AnalyzePatterns(result.InterruptionEvents)
	}
	if len(result.VotingAnalyses) > 0 {
		result.VotingPatternAnalysis = p.voting.AnalyzePatterns(result.VotingAnalyses)
	}

	result.Statistics = p.statistics(len(xmlActivities), result)
	result.Success = true

	log.WithFields(logrus.Fields{
		"stage":      stageDone,
		"activities": result.Statistics.ActivitiesMatched,
		"speakers":   result.Statistics.SpeakersMatched,
		"zaken":      result.Statistics.ZakenMatched,
		"warnings":   len(result.Warnings),
	}).Info("run complete")
	return result
}

func (p *Pipeline) fail(result *types.VlosProcessingResult, log *logrus.Entry, err error) *types.VlosProcessingResult {
	log.WithField("stage", stageFailed).WithField("error", err.Error()).Warn("run failed")
	result.Success = false
	result.ErrorMessages = append(result.ErrorMessages, err.Error())
	return result
}

func (p *Pipeline) matchSpeakers(ctx context.Context, result *types.VlosProcessingResult, speakers []types.XmlSpeaker, actors []types.Persoon) []types.SpeakerMatch {
	var matches []types.SpeakerMatch
	for _, sp := range speakers {
		// Activity actors take priority over the general persoon search.
		if len(actors) > 0 {
			if m := p.names.MatchSpeaker(sp, actors); m.Result.Success {
				matches = append(matches, m)
				continue
			}
		}

		surname := sp.Verslagnaam
		if surname == "" {
			surname = sp.Achternaam
		}
		personen, err := p.provider.CandidatePersonen(ctx, surname)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("persoon lookup for %q: %v", surname, err))
			matches = append(matches, types.SpeakerMatch{XmlSpeaker: sp, Result: types.NoMatch("persoon lookup failed")})
			continue
		}
		matches = append(matches, p.names.MatchSpeaker(sp, personen))
	}
	return matches
}

func (p *Pipeline) matchZaken(ctx context.Context, result *types.VlosProcessingResult, zaken []types.XmlZaak) []types.ZaakMatch {
	var matches []types.ZaakMatch
	for _, xz := range zaken {
		lookup, err := p.provider.FindZaakWithFallback(ctx, xz.Dossiernummer, xz.Stuknummer)
		if err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("zaak lookup %s/%s: %v", xz.Dossiernummer, xz.Stuknummer, err))
			matches = append(matches, types.ZaakMatch{XmlZaak: xz, Result: types.NoMatch("zaak lookup failed")})
			continue
		}
		matches = append(matches, zaakMatchFromLookup(xz, lookup))
	}
	return matches
}

func zaakMatchFromLookup(xz types.XmlZaak, lookup candidates.ZaakLookup) types.ZaakMatch {
	switch {
	case lookup.Zaak != nil:
		return types.ZaakMatch{
			XmlZaak: xz,
			Result: types.Matched(types.MatchExact, 100,
				types.EntityRef{Kind: "Zaak", ID: lookup.Zaak.ID, Name: lookup.Zaak.Onderwerp},
				"found zaak"),
			ZaakID:      lookup.Zaak.ID,
			MatchedKind: "zaak",
		}
	case lookup.Dossier != nil:
		m := types.ZaakMatch{
			XmlZaak: xz,
			Result: types.Matched(types.MatchFallback, 75,
				types.EntityRef{Kind: "Dossier", ID: lookup.Dossier.ID, Name: lookup.Dossier.Titel},
				"fell back to dossier"),
			DossierID:   lookup.Dossier.ID,
			MatchedKind: "dossier",
		}
		if lookup.Document != nil {
			m.DocumentID = lookup.Document.ID
			m.Result.Fallback = &types.EntityRef{Kind: "Document", ID: lookup.Document.ID, Name: lookup.Document.Titel}
		}
		return m
	default:
		return types.ZaakMatch{XmlZaak: xz, Result: types.NoMatch("no matching zaak or dossier")}
	}
}

func (p *Pipeline) agendapuntZaken(ctx context.Context, result *types.VlosProcessingResult, activiteitID string, seen map[string]bool) []types.ZaakMatch {
	zaken, err := p.provider.AgendapuntZaken(ctx, activiteitID)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("agendapunt zaken for %s: %v", activiteitID, err))
		return nil
	}

	var matches []types.ZaakMatch
	for _, z := range zaken {
		if z.ID == "" || seen[z.ID] {
			continue
		}
		seen[z.ID] = true
		// Synthetic XML zaak so the agendapunt-derived match carries the
		// same shape as the document-derived ones.
		synthetic := types.XmlZaak{
			Dossiernummer: strconv.Itoa(z.DossierNummer),
			Stuknummer:    strconv.Itoa(z.Volgnummer),
			Titel:         z.Onderwerp,
		}
		if z.DossierNummer == 0 {
			synthetic.Dossiernummer = z.Nummer
		}
		matches = append(matches, types.ZaakMatch{
			XmlZaak: synthetic,
			Result: types.Matched(types.MatchExact, 100,
				types.EntityRef{Kind: "Zaak", ID: z.ID, Name: z.Onderwerp},
				"found via agendapunt connection"),
			ZaakID:      z.ID,
			MatchedKind: "zaak",
		})
	}
	return matches
}

func (p *Pipeline) activityConnections(speakers []types.SpeakerMatch, zaken []types.ZaakMatch, activityID, activityTitle string) []types.SpeakerZaakConnection {
	var connections []types.SpeakerZaakConnection
	for _, sm := range speakers {
		if !sm.Result.Success {
			continue
		}
		for _, zm := range zaken {
			if !zm.Result.Success {
				continue
			}
			connections = append(connections, types.SpeakerZaakConnection{
				Speaker:        sm,
				Zaak:           zm,
				ActivityID:     activityID,
				ActivityTitle:  activityTitle,
				Context:        fmt.Sprintf("spoke in activity about %s", zaakLabel(zm.XmlZaak)),
				SpeechPreview:  preview(sm.XmlSpeaker.SpeechText, p.cfg.Analysis.ConnectionPreviewLen),
				ConnectionKind: "activity_based",
			})
		}
	}
	return connections
}

// directZaakConnections links speakers listed under the zaak element itself,
// independent of the fragment-based activity speakers.
func (p *Pipeline) directZaakConnections(ctx context.Context, result *types.VlosProcessingResult, xmlAct types.XmlActivity, zaakMatches []types.ZaakMatch, activityID string) []types.SpeakerZaakConnection {
	var connections []types.SpeakerZaakConnection
	for _, zm := range zaakMatches {
		if !zm.Result.Success || len(zm.XmlZaak.Speakers) == 0 {
			continue
		}
		for _, sm := range p.matchSpeakers(ctx, result, zm.XmlZaak.Speakers, nil) {
			if !sm.Result.Success {
				continue
			}
			connections = append(connections, types.SpeakerZaakConnection{
				Speaker:        sm,
				Zaak:           zm,
				ActivityID:     activityID,
				ActivityTitle:  xmlAct.Titel,
				Context:        fmt.Sprintf("directly linked to %s", zaakLabel(zm.XmlZaak)),
				SpeechPreview:  preview(sm.XmlSpeaker.SpeechText, p.cfg.Analysis.ConnectionPreviewLen),
				ConnectionKind: "direct_zaak_link",
			})
		}
	}
	return connections
}

func (p *Pipeline) statistics(totalActivities int, result *types.VlosProcessingResult) types.ProcessingStatistics {
	stats := types.ProcessingStatistics{
		ActivitiesTotal: totalActivities,
		SpeakersTotal:   len(result.SpeakerMatches),
		ZakenTotal:      len(result.ZaakMatches),
		Connections:     len(result.Connections),
		Interruptions:   len(result.InterruptionEvents),
		VoteEvents:      len(result.VotingAnalyses),
	}
	for _, m := range result.ActivityMatches {
		if m.Result.Success {
			stats.ActivitiesMatched++
		}
	}
	for _, m := range result.SpeakerMatches {
		if m.Result.Success {
			stats.SpeakersMatched++
		}
	}
	for _, m := range result.ZaakMatches {
		if m.Result.Success {
			stats.ZakenMatched++
		}
	}
	return stats
}

func zaakLabel(z types.XmlZaak) string {
	if z.Titel != "" {
		return z.Titel
	}
	return z.Dossiernummer
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
