// Package report exports a processing result as an xlsx workbook for the
// analysts who review reconciliation quality by hand.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"vlos-insights-go/internal/logger"
	"vlos-insights-go/internal/types"
)

// Build renders the workbook in memory. The caller decides whether to save
// it to disk or stream it over HTTP.
func Build(result *types.VlosProcessingResult) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := writeSummary(f, result); err != nil {
		return nil, err
	}
	if err := writeActivities(f, result.ActivityMatches); err != nil {
		return nil, err
	}
	if err := writeSpeakers(f, result.SpeakerMatches); err != nil {
		return nil, err
	}
	if err := writeInterruptions(f, result); err != nil {
		return nil, err
	}
	if err := writeVoting(f, result); err != nil {
		return nil, err
	}

	// excelize starts with a default sheet named Sheet1
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	return f, nil
}

// Save writes the workbook to disk.
func Save(result *types.VlosProcessingResult, path string) error {
	log := logger.New().WithField("component", "report").WithField("path", path)
	f, err := Build(result)
	if err != nil {
		log.WithError(err).Error("report build failed")
		return err
	}
	if err := f.SaveAs(path); err != nil {
		log.WithError(err).Error("report save failed")
		return fmt.Errorf("save report: %w", err)
	}
	log.Info("report written")
	return nil
}

func writeSummary(f *excelize.File, result *types.VlosProcessingResult) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	stats := result.Statistics
	rows := [][]any{
		{"Run", result.RunID},
		{"Processed at", result.ProcessedAt.Format("2006-01-02 15:04:05")},
		{"Success", result.Success},
		{"Canonical vergadering", result.CanonicalVergaderingID},
		{},
		{"Activities", stats.ActivitiesTotal, "matched", stats.ActivitiesMatched, "rate %", stats.ActivityMatchRate()},
		{"Speakers", stats.SpeakersTotal, "matched", stats.SpeakersMatched, "rate %", stats.SpeakerMatchRate()},
		{"Zaken", stats.ZakenTotal, "matched", stats.ZakenMatched, "rate %", stats.ZaakMatchRate()},
		{"Connections", stats.Connections},
		{"Interruptions", stats.Interruptions},
		{"Vote events", stats.VoteEvents},
	}
	if result.XmlMeeting != nil {
		rows = append(rows, []any{}, []any{"Meeting", result.XmlMeeting.Titel}, []any{"Date", result.XmlMeeting.Datum.Format("2006-01-02")})
	}
	for _, w := range result.Warnings {
		rows = append(rows, []any{"Warning", w})
	}
	return setRows(f, sheet, rows)
}

func writeActivities(f *excelize.File, matches []types.ActivityMatch) error {
	const sheet = "Activities"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	rows := [][]any{{"XML id", "Soort", "Onderwerp", "Match", "Score", "Activiteit id", "Reasons"}}
	for _, m := range matches {
		rows = append(rows, []any{
			m.XmlActivity.ObjectID,
			m.XmlActivity.Soort,
			m.XmlActivity.Onderwerp,
			string(m.Result.Kind),
			m.Result.Score,
			m.ActiviteitID,
			strings.Join(m.Result.Reasons, "; "),
		})
	}
	return setRows(f, sheet, rows)
}

func writeSpeakers(f *excelize.File, matches []types.SpeakerMatch) error {
	const sheet = "Speakers"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	rows := [][]any{{"Voornaam", "Achternaam", "Fractie", "Fragment", "Match", "Score", "Persoon"}}
	for _, m := range matches {
		rows = append(rows, []any{
			m.XmlSpeaker.Voornaam,
			m.XmlSpeaker.Achternaam,
			m.XmlSpeaker.Fractie,
			m.XmlSpeaker.FragmentID,
			string(m.Result.Kind),
			m.Result.Score,
			m.PersoonName,
		})
	}
	return setRows(f, sheet, rows)
}

func writeInterruptions(f *excelize.File, result *types.VlosProcessingResult) error {
	const sheet = "Interruptions"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	rows := [][]any{{"Kind", "Activity", "Fragment", "Context", "Topics"}}
	for _, ev := range result.InterruptionEvents {
		rows = append(rows, []any{
			string(ev.Kind),
			ev.ActivityID,
			ev.FragmentID,
			ev.Context,
			strings.Join(ev.Topics, "; "),
		})
	}
	if a := result.InterruptionAnalysis; a != nil {
		rows = append(rows, []any{}, []any{"Most frequent interrupters"})
		for _, e := range topCounts(a.MostFrequentInterrupters, 10) {
			rows = append(rows, []any{e.name, e.count})
		}
		rows = append(rows, []any{}, []any{"Most interrupted speakers"})
		for _, e := range topCounts(a.MostInterruptedSpeakers, 10) {
			rows = append(rows, []any{e.name, e.count})
		}
	}
	return setRows(f, sheet, rows)
}

func writeVoting(f *excelize.File, result *types.VlosProcessingResult) error {
	const sheet = "Voting"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	rows := [][]any{{"Titel", "Uitslag", "Activity", "Consensus %", "Total votes"}}
	for _, va := range result.VotingAnalyses {
		rows = append(rows, []any{
			va.Event.Titel,
			va.Event.Uitslag,
			va.ActivityID,
			va.ConsensusLevel,
			va.TotalVotes,
		})
	}
	if a := result.VotingPatternAnalysis; a != nil {
		rows = append(rows, []any{}, []any{"Fractie", "Voor", "Tegen", "Onthouding", "Total"})
		for _, fractie := range sortedKeys(a.FractieVoteCounts) {
			fv := a.FractieVoteCounts[fractie]
			rows = append(rows, []any{fractie, fv.Voor, fv.Tegen, fv.Onthouding, fv.Total})
		}
		if len(a.ControversialTopics) > 0 {
			rows = append(rows, []any{}, []any{"Controversial", strings.Join(a.ControversialTopics, "; ")})
		}
		if len(a.UnanimousTopics) > 0 {
			rows = append(rows, []any{"Unanimous", strings.Join(a.UnanimousTopics, "; ")})
		}
	}
	return setRows(f, sheet, rows)
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

type nameCount struct {
	name  string
	count int
}

func topCounts(m map[string]int, limit int) []nameCount {
	var arr []nameCount
	for k, v := range m {
		arr = append(arr, nameCount{k, v})
	}
	sort.Slice(arr, func(i, j int) bool {
		if arr[i].count != arr[j].count {
			return arr[i].count > arr[j].count
		}
		return arr[i].name < arr[j].name
	})
	if len(arr) > limit {
		arr = arr[:limit]
	}
	return arr
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
