package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vlos-insights-go/internal/config"
	"vlos-insights-go/internal/types"
)

func voteEvent(titel string, votes ...types.FractieVote) types.XmlVoteEvent {
	return types.XmlVoteEvent{Titel: titel, FractieVotes: votes}
}

func fv(fractie, stem string) types.FractieVote {
	return types.FractieVote{Fractie: fractie, Vote: stem, VoteNormalized: stem}
}

func newVotingAnalyzer() *VotingAnalyzer {
	return NewVotingAnalyzer(config.Default().Analysis)
}

func TestAnalyzeActivityConsensus(t *testing.T) {
	a := newVotingAnalyzer()

	split := voteEvent("motie 1", fv("PvdA", "voor"), fv("VVD", "tegen"))
	unanimous := voteEvent("motie 2", fv("PvdA", "voor"), fv("VVD", "voor"))

	got := a.AnalyzeActivity([]types.XmlVoteEvent{split, unanimous}, nil, "act-1")
	require.Len(t, got, 2)

	assert.Equal(t, 50.0, got[0].ConsensusLevel)
	assert.Equal(t, 2, got[0].TotalVotes)
	assert.Equal(t, []string{"PvdA"}, got[0].VoteBreakdown["voor"])

	assert.Equal(t, 100.0, got[1].ConsensusLevel)
}

func TestAnalyzeActivityEmptyEvent(t *testing.T) {
	a := newVotingAnalyzer()
	got := a.AnalyzeActivity([]types.XmlVoteEvent{voteEvent("leeg")}, nil, "act-1")
	require.Len(t, got, 1)
	assert.Equal(t, 0.0, got[0].ConsensusLevel)
	assert.Equal(t, 0, got[0].TotalVotes)
}

func TestAnalyzePatternsVoting(t *testing.T) {
	a := newVotingAnalyzer()
	analyses := a.AnalyzeActivity(
		[]types.XmlVoteEvent{
			voteEvent("motie 1", fv("PvdA", "voor"), fv("VVD", "tegen"), fv("D66", "voor")),
			voteEvent("motie 2", fv("PvdA", "voor"), fv("VVD", "voor"), fv("D66", "onthouding")),
		},
		[]types.ZaakMatch{{
			XmlZaak: types.XmlZaak{Titel: "Wet open overheid"},
			Result:  types.Matched(types.MatchExact, 100, types.EntityRef{Kind: "Zaak", ID: "z1"}),
		}},
		"act-1",
	)

	got := a.AnalyzePatterns(analyses)
	assert.Equal(t, 2, got.TotalVoteEvents)
	assert.Equal(t, 6, got.TotalIndividualVotes)

	pvda := got.FractieVoteCounts["PvdA"]
	require.NotNil(t, pvda)
	assert.Equal(t, 2, pvda.Voor)
	assert.Equal(t, 2, pvda.Total)

	align := got.FractieAlignment["D66"]
	require.NotNil(t, align)
	assert.Equal(t, 50.0, align.VoorPct)
	assert.Equal(t, 50.0, align.OnthoudingPct)

	topic := got.TopicVotePatterns["Wet open overheid"]
	require.NotNil(t, topic)
	assert.Equal(t, 6, topic.TotalVotes)
	// 4 voor vs 1 tegen over 6 votes
	assert.InDelta(t, 66.67, topic.ConsensusLevel, 0.01)
	assert.Equal(t, []string{"Wet open overheid"}, got.ControversialTopics)
	assert.Empty(t, got.UnanimousTopics)

	assert.Equal(t, 4, got.VoteTypeDistribution["voor"])
	assert.Equal(t, 1, got.VoteTypeDistribution["tegen"])
}

func TestAnalyzePatternsVotingEmpty(t *testing.T) {
	got := newVotingAnalyzer().AnalyzePatterns(nil)
	assert.Equal(t, 0, got.TotalVoteEvents)
	assert.Empty(t, got.FractieVoteCounts)
}
