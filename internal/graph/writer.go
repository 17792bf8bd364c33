package graph

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/sirupsen/logrus"

	"vlos-insights-go/internal/logger"
	"vlos-insights-go/internal/types"
)

// Writer persists a processing result as derived nodes next to the canonical
// entities. All writes are MERGEs keyed on deterministic ids, so re-ingesting
// the same verslag is idempotent.
type Writer struct {
	conn *Connection
	log  *logrus.Entry
}

func NewWriter(conn *Connection) *Writer {
	return &Writer{conn: conn, log: logger.New().WithField("component", "graph.writer")}
}

// PersistResult writes the document node and everything derived from it.
// Failures on individual derived nodes are logged and counted, only the
// document node itself is fatal.
func (w *Writer) PersistResult(ctx context.Context, result *types.VlosProcessingResult) error {
	docID := documentID(result)
	log := w.log.WithField("doc_id", docID)

	props := map[string]any{
		"run_id":             result.RunID,
		"processed_at":       result.ProcessedAt.Format("2006-01-02T15:04:05Z07:00"),
		"success":            result.Success,
		"activities_total":   result.Statistics.ActivitiesTotal,
		"activities_matched": result.Statistics.ActivitiesMatched,
		"speakers_matched":   result.Statistics.SpeakersMatched,
		"zaken_matched":      result.Statistics.ZakenMatched,
		"interruptions":      result.Statistics.Interruptions,
		"vote_events":        result.Statistics.VoteEvents,
	}
	if result.XmlMeeting != nil {
		props["xml_object_id"] = result.XmlMeeting.ObjectID
		props["titel"] = result.XmlMeeting.Titel
		props["datum"] = result.XmlMeeting.Datum.Format("2006-01-02")
	}
	if err := w.conn.MergeNode(ctx, "VlosDocument", "id", docID, props); err != nil {
		return fmt.Errorf("persist document node: %w", err)
	}
	if result.CanonicalVergaderingID != "" {
		w.rel(ctx, log, "VlosDocument", docID, "Vergadering", result.CanonicalVergaderingID, "ANALYZES_VERGADERING")
	}

	var failed int
	failed += w.persistActivities(ctx, log, docID, result.ActivityMatches)
	failed += w.persistSpeakers(ctx, log, docID, result.SpeakerMatches)
	failed += w.persistZaken(ctx, log, docID, result.ZaakMatches)
	failed += w.persistConnections(ctx, log, docID, result.Connections)
	failed += w.persistInterruptions(ctx, log, docID, result.InterruptionEvents)
	failed += w.persistVotes(ctx, log, docID, result.VotingAnalyses)

	log.WithFields(logrus.Fields{
		"activities":    len(result.ActivityMatches),
		"speakers":      len(result.SpeakerMatches),
		"zaken":         len(result.ZaakMatches),
		"connections":   len(result.Connections),
		"interruptions": len(result.InterruptionEvents),
		"failed_writes": failed,
	}).Info("persisted processing result")
	return nil
}

func (w *Writer) persistActivities(ctx context.Context, log *logrus.Entry, docID string, matches []types.ActivityMatch) int {
	var failed int
	for _, m := range matches {
		id := derivedID("vlos_activity", docID, m.XmlActivity.ObjectID)
		props := map[string]any{
			"xml_object_id": m.XmlActivity.ObjectID,
			"soort":         m.XmlActivity.Soort,
			"titel":         m.XmlActivity.Titel,
			"onderwerp":     m.XmlActivity.Onderwerp,
			"match_kind":    string(m.Result.Kind),
			"match_score":   m.Result.Score,
		}
		if err := w.conn.MergeNode(ctx, "VlosActivity", "id", id, props); err != nil {
			log.WithField("error", err.Error()).Warn("activity node write failed")
			failed++
			continue
		}
		w.rel(ctx, log, "VlosActivity", id, "VlosDocument", docID, "PART_OF_DOCUMENT")
		if m.Result.Success {
			w.rel(ctx, log, "VlosActivity", id, "Activiteit", m.ActiviteitID, "MATCHES_ACTIVITEIT")
		}
	}
	return failed
}

func (w *Writer) persistSpeakers(ctx context.Context, log *logrus.Entry, docID string, matches []types.SpeakerMatch) int {
	var failed int
	for _, m := range matches {
		id := derivedID("vlos_speaker", docID, m.XmlSpeaker.FragmentID, m.XmlSpeaker.Voornaam, m.XmlSpeaker.Achternaam)
		props := map[string]any{
			"voornaam":    m.XmlSpeaker.Voornaam,
			"achternaam":  m.XmlSpeaker.Achternaam,
			"fractie":     m.XmlSpeaker.Fractie,
			"fragment_id": m.XmlSpeaker.FragmentID,
			"match_kind":  string(m.Result.Kind),
			"match_score": m.Result.Score,
		}
		if err := w.conn.MergeNode(ctx, "VlosSpeaker", "id", id, props); err != nil {
			log.WithField("error", err.Error()).Warn("speaker node write failed")
			failed++
			continue
		}
		w.rel(ctx, log, "VlosSpeaker", id, "VlosDocument", docID, "PART_OF_DOCUMENT")
		if m.Result.Success && m.PersoonID != "" {
			w.rel(ctx, log, "VlosSpeaker", id, "Persoon", m.PersoonID, "MATCHES_PERSOON")
		}
	}
	return failed
}

func (w *Writer) persistZaken(ctx context.Context, log *logrus.Entry, docID string, matches []types.ZaakMatch) int {
	var failed int
	for _, m := range matches {
		id := derivedID("vlos_zaak", docID, m.XmlZaak.Dossiernummer, m.XmlZaak.Stuknummer)
		props := map[string]any{
			"dossiernummer": m.XmlZaak.Dossiernummer,
			"stuknummer":    m.XmlZaak.Stuknummer,
			"titel":         m.XmlZaak.Titel,
			"match_kind":    string(m.Result.Kind),
			"match_score":   m.Result.Score,
			"matched_as":    m.MatchedKind,
		}
		if err := w.conn.MergeNode(ctx, "VlosZaak", "id", id, props); err != nil {
			log.WithField("error", err.Error()).Warn("zaak node write failed")
			failed++
			continue
		}
		w.rel(ctx, log, "VlosZaak", id, "VlosDocument", docID, "PART_OF_DOCUMENT")
		if m.ZaakID != "" {
			w.rel(ctx, log, "VlosZaak", id, "Zaak", m.ZaakID, "MATCHES_ZAAK")
		}
		if m.DossierID != "" {
			w.rel(ctx, log, "VlosZaak", id, "Dossier", m.DossierID, "FALLBACK_DOSSIER")
		}
		if m.DocumentID != "" {
			w.rel(ctx, log, "VlosZaak", id, "Document", m.DocumentID, "FALLBACK_DOCUMENT")
		}
	}
	return failed
}

func (w *Writer) persistConnections(ctx context.Context, log *logrus.Entry, docID string, connections []types.SpeakerZaakConnection) int {
	var failed int
	for _, c := range connections {
		id := derivedID("connection", docID, c.ActivityID, c.Speaker.PersoonID, c.Zaak.XmlZaak.Dossiernummer, c.Zaak.XmlZaak.Stuknummer, c.ConnectionKind)
		props := map[string]any{
			"kind":           c.ConnectionKind,
			"activity_id":    c.ActivityID,
			"activity_title": c.ActivityTitle,
			"context":        c.Context,
			"speech_preview": c.SpeechPreview,
		}
		if err := w.conn.MergeNode(ctx, "SpeakerZaakConnection", "id", id, props); err != nil {
			log.WithField("error", err.Error()).Warn("connection node write failed")
			failed++
			continue
		}
		w.rel(ctx, log, "SpeakerZaakConnection", id, "VlosDocument", docID, "PART_OF_DOCUMENT")
		if c.Speaker.PersoonID != "" {
			w.rel(ctx, log, "SpeakerZaakConnection", id, "Persoon", c.Speaker.PersoonID, "CONNECTS_PERSOON")
		}
		if c.Zaak.ZaakID != "" {
			w.rel(ctx, log, "SpeakerZaakConnection", id, "Zaak", c.Zaak.ZaakID, "ABOUT_ZAAK")
		}
		if c.Zaak.DossierID != "" {
			w.rel(ctx, log, "SpeakerZaakConnection", id, "Dossier", c.Zaak.DossierID, "ABOUT_DOSSIER")
		}
	}
	return failed
}

func (w *Writer) persistInterruptions(ctx context.Context, log *logrus.Entry, docID string, events []types.InterruptionEvent) int {
	var failed int
	for i, ev := range events {
		id := derivedID("interruption", docID, ev.ActivityID, ev.FragmentID, fmt.Sprintf("%d", i))
		props := map[string]any{
			"kind":        string(ev.Kind),
			"activity_id": ev.ActivityID,
			"fragment_id": ev.FragmentID,
			"context":     ev.Context,
			"topics":      strings.Join(ev.Topics, "; "),
		}
		if err := w.conn.MergeNode(ctx, "InterruptionEvent", "id", id, props); err != nil {
			log.WithField("error", err.Error()).Warn("interruption node write failed")
			failed++
			continue
		}
		w.rel(ctx, log, "InterruptionEvent", id, "VlosDocument", docID, "PART_OF_DOCUMENT")
		if ev.OriginalSpeaker != nil && ev.OriginalSpeaker.PersoonID != "" {
			w.rel(ctx, log, "InterruptionEvent", id, "Persoon", ev.OriginalSpeaker.PersoonID, "INTERRUPTED_SPEAKER")
		}
		if ev.InterruptingSpeaker != nil && ev.InterruptingSpeaker.PersoonID != "" {
			w.rel(ctx, log, "InterruptionEvent", id, "Persoon", ev.InterruptingSpeaker.PersoonID, "INTERRUPTING_SPEAKER")
		}
		if ev.RespondingSpeaker != nil && ev.RespondingSpeaker.PersoonID != "" {
			w.rel(ctx, log, "InterruptionEvent", id, "Persoon", ev.RespondingSpeaker.PersoonID, "RESPONDING_SPEAKER")
		}
	}
	return failed
}

func (w *Writer) persistVotes(ctx context.Context, log *logrus.Entry, docID string, analyses []types.VotingAnalysis) int {
	var failed int
	for _, va := range analyses {
		id := derivedID("voting_event", docID, va.ActivityID, va.Event.Titel)
		props := map[string]any{
			"titel":           va.Event.Titel,
			"besluitvorm":     va.Event.Besluitvorm,
			"uitslag":         va.Event.Uitslag,
			"activity_id":     va.ActivityID,
			"consensus_level": va.ConsensusLevel,
			"total_votes":     va.TotalVotes,
		}
		for vote, fracties := range va.VoteBreakdown {
			props["fracties_"+vote] = fracties
		}
		if err := w.conn.MergeNode(ctx, "VotingEvent", "id", id, props); err != nil {
			log.WithField("error", err.Error()).Warn("voting node write failed")
			failed++
			continue
		}
		w.rel(ctx, log, "VotingEvent", id, "VlosDocument", docID, "PART_OF_DOCUMENT")
		if va.ActivityID != "" && !strings.HasPrefix(va.ActivityID, "unmatched_") {
			w.rel(ctx, log, "VotingEvent", id, "Activiteit", va.ActivityID, "HELD_IN")
		}
	}
	return failed
}

func (w *Writer) rel(ctx context.Context, log *logrus.Entry, fromLabel, fromID, toLabel, toID, relType string) {
	if err := w.conn.MergeRel(ctx, fromLabel, "id", fromID, toLabel, "id", toID, relType); err != nil {
		log.WithFields(logrus.Fields{"rel": relType, "error": err.Error()}).Warn("relationship write failed")
	}
}

// documentID keys the document node on the XML object id so re-ingesting the
// same verslag updates in place. Runs without a meeting fall back to the run
// id and stay unique.
func documentID(result *types.VlosProcessingResult) string {
	if result.XmlMeeting != nil && result.XmlMeeting.ObjectID != "" && result.XmlMeeting.ObjectID != "unknown" {
		return "vlos_" + result.XmlMeeting.ObjectID
	}
	return "vlos_run_" + result.RunID
}

func derivedID(parts ...string) string {
	h := fnv.New64a()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%s_%016x", parts[0], h.Sum64())
}
