package analyzer

import (
	"sort"

	"vlos-insights-go/internal/config"
	"vlos-insights-go/internal/types"
)

// VotingAnalyzer computes per-event vote breakdowns and document-level
// faction voting patterns.
type VotingAnalyzer struct {
	cfg config.AnalysisConfig
}

func NewVotingAnalyzer(cfg config.AnalysisConfig) *VotingAnalyzer {
	return &VotingAnalyzer{cfg: cfg}
}

// AnalyzeActivity turns the vote events of one activity into breakdowns with
// a consensus level. Consensus is the share of the larger voor/tegen camp.
func (a *VotingAnalyzer) AnalyzeActivity(events []types.XmlVoteEvent, zaken []types.ZaakMatch, activityID string) []types.VotingAnalysis {
	topics := matchedZaakTitles(zaken)

	var analyses []types.VotingAnalysis
	for _, ev := range events {
		breakdown := map[string][]string{}
		for _, vote := range ev.FractieVotes {
			breakdown[vote.VoteNormalized] = append(breakdown[vote.VoteNormalized], vote.Fractie)
		}
		total := len(ev.FractieVotes)
		analyses = append(analyses, types.VotingAnalysis{
			Event:          ev,
			ActivityID:     activityID,
			Topics:         topics,
			VoteBreakdown:  breakdown,
			ConsensusLevel: consensusLevel(len(breakdown["voor"]), len(breakdown["tegen"]), total),
			TotalVotes:     total,
		})
	}
	return analyses
}

// AnalyzePatterns aggregates all vote events of a document.
func (a *VotingAnalyzer) AnalyzePatterns(analyses []types.VotingAnalysis) *types.VotingPatternAnalysis {
	out := &types.VotingPatternAnalysis{
		TotalVoteEvents:      len(analyses),
		FractieVoteCounts:    map[string]*types.FractieVotes{},
		FractieAlignment:     map[string]*types.FractieAlignment{},
		TopicVotePatterns:    map[string]*types.TopicVotes{},
		VoteTypeDistribution: map[string]int{},
	}

	for _, analysis := range analyses {
		for _, vote := range analysis.Event.FractieVotes {
			counts := out.FractieVoteCounts[vote.Fractie]
			if counts == nil {
				counts = &types.FractieVotes{}
				out.FractieVoteCounts[vote.Fractie] = counts
			}
			switch vote.VoteNormalized {
			case "voor":
				counts.Voor++
			case "tegen":
				counts.Tegen++
			case "onthouding":
				counts.Onthouding++
			case "niet_deelgenomen":
				counts.NietDeelgenomen++
			}
			counts.Total++

			for _, topic := range analysis.Topics {
				tv := out.TopicVotePatterns[topic]
				if tv == nil {
					tv = &types.TopicVotes{Votes: map[string][]string{"voor": nil, "tegen": nil, "onthouding": nil}}
					out.TopicVotePatterns[topic] = tv
				}
				if _, tracked := tv.Votes[vote.VoteNormalized]; tracked {
					tv.Votes[vote.VoteNormalized] = append(tv.Votes[vote.VoteNormalized], vote.Fractie)
				}
				tv.TotalVotes++
			}

			out.VoteTypeDistribution[vote.VoteNormalized]++
			out.TotalIndividualVotes++
		}
	}

	for topic, tv := range out.TopicVotePatterns {
		tv.ConsensusLevel = consensusLevel(len(tv.Votes["voor"]), len(tv.Votes["tegen"]), tv.TotalVotes)
		if tv.TotalVotes > 0 {
			if tv.ConsensusLevel < a.cfg.ControversialBelow {
				out.ControversialTopics = append(out.ControversialTopics, topic)
			}
			if tv.ConsensusLevel >= a.cfg.UnanimousAtLeast {
				out.UnanimousTopics = append(out.UnanimousTopics, topic)
			}
		}
	}

	sort.Strings(out.ControversialTopics)
	sort.Strings(out.UnanimousTopics)

	for fractie, counts := range out.FractieVoteCounts {
		out.FractieAlignment[fractie] = &types.FractieAlignment{
			TotalVotes:    counts.Total,
			VoorPct:       pct(counts.Voor, counts.Total),
			TegenPct:      pct(counts.Tegen, counts.Total),
			OnthoudingPct: pct(counts.Onthouding, counts.Total),
		}
	}
	return out
}

func consensusLevel(voor, tegen, total int) float64 {
	if total == 0 {
		return 0
	}
	majority := voor
	if tegen > majority {
		majority = tegen
	}
	return float64(majority) / float64(total) * 100
}

func pct(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
