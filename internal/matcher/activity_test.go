package matcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vlos-insights-go/internal/config"
	"vlos-insights-go/internal/types"
)

func newActivityMatcher() *ActivityMatcher {
	return NewActivityMatcher(config.Default())
}

func ts(h, m int) time.Time {
	return time.Date(2024, 3, 12, h, m, 0, 0, time.UTC)
}

func tsp(h, m int) *time.Time {
	t := ts(h, m)
	return &t
}

func TestAcceptTable(t *testing.T) {
	m := newActivityMatcher()
	cases := []struct {
		top, second float64
		count       int
		want        bool
	}{
		{5.0, 4.9, 2, true},  // clears absolute threshold
		{2.0, 0.9, 2, true},  // clear lead over runner-up
		{1.5, 1.0, 2, false}, // lead too small
		{0.9, 0.0, 2, false}, // lead but no evidence
		{2.0, 0.0, 1, false}, // separation needs a real runner-up
		{3.0, 0.0, 1, true},  // lone candidate still wins on the threshold
	}
	for _, c := range cases {
		assert.Equal(t, c.want, m.accept(c.top, c.second, c.count), "top=%.1f second=%.1f count=%d", c.top, c.second, c.count)
	}
}

func TestMatchRejectsLoneWeakCandidate(t *testing.T) {
	m := newActivityMatcher()
	meeting := types.Vergadering{ID: "v1", Begin: ts(10, 0), Einde: ts(17, 0)}
	x := types.XmlActivity{ObjectID: "x1", Start: tsp(10, 0), End: tsp(11, 0)}
	// Overlap-only time signal, no soort or topic evidence: score 1.5.
	weak := types.Activiteit{ID: "a1", Begin: tsp(10, 9), Einde: tsp(11, 0)}

	got := m.Match(x, meeting, []types.Activiteit{weak})
	assert.False(t, got.Result.Success)

	// The same score wins once a scoreless runner-up makes the lead real.
	got = m.Match(x, meeting, []types.Activiteit{weak, {ID: "a2"}})
	require.True(t, got.Result.Success)
	assert.Equal(t, "a1", got.ActiviteitID)
}

func TestMatchIdenticalActivity(t *testing.T) {
	m := newActivityMatcher()
	meeting := types.Vergadering{ID: "v1", Begin: ts(10, 0), Einde: ts(17, 0)}
	x := types.XmlActivity{
		ObjectID:  "x1",
		Soort:     "Wetgevingsoverleg",
		Titel:     "Wet open overheid",
		Onderwerp: "Wet open overheid",
		Start:     tsp(10, 15),
		End:       tsp(12, 0),
	}
	candidates := []types.Activiteit{
		{ID: "a1", Soort: "Wetgevingsoverleg", Onderwerp: "Wet open overheid", Begin: tsp(10, 16), Einde: tsp(12, 0)},
		{ID: "a2", Soort: "Plenair debat", Onderwerp: "Begroting Defensie", Begin: tsp(14, 0), Einde: tsp(16, 0)},
	}

	got := m.Match(x, meeting, candidates)
	require.True(t, got.Result.Success)
	assert.Equal(t, "a1", got.ActiviteitID)
	assert.Equal(t, types.MatchExact, got.Result.Kind)
	assert.GreaterOrEqual(t, got.Result.Score, 6.0)
}

func TestMatchNoCandidates(t *testing.T) {
	m := newActivityMatcher()
	got := m.Match(types.XmlActivity{ObjectID: "x1"}, types.Vergadering{}, nil)
	assert.False(t, got.Result.Success)
	assert.Equal(t, types.MatchNone, got.Result.Kind)
}

func TestMatchRejectsWeakEvidence(t *testing.T) {
	m := newActivityMatcher()
	meeting := types.Vergadering{ID: "v1", Begin: ts(10, 0), Einde: ts(17, 0)}
	x := types.XmlActivity{ObjectID: "x1", Onderwerp: "Stikstofbeleid"}
	candidates := []types.Activiteit{
		{ID: "a1", Soort: "Plenair debat", Onderwerp: "Begroting Defensie"},
	}

	got := m.Match(x, meeting, candidates)
	assert.False(t, got.Result.Success)
}

func TestTimeScoreFallsBackToMeetingWindow(t *testing.T) {
	m := newActivityMatcher()
	meeting := types.Vergadering{ID: "v1", Begin: ts(10, 0), Einde: ts(17, 0)}
	x := types.XmlActivity{ObjectID: "x1"} // no times of its own
	c := types.Activiteit{ID: "a1", Begin: tsp(10, 2), Einde: tsp(11, 0)}

	w, _ := m.timeScore(x, meeting, c)
	assert.Equal(t, m.matching.TimeStartWeight, w)
}

func TestSoortAliases(t *testing.T) {
	m := newActivityMatcher()

	w, _ := m.soortScore("sluiting", "Einde vergadering")
	assert.Equal(t, m.matching.SoortXmlInAPIWeight, w)

	w, _ = m.soortScore("opening", "Regeling van werkzaamheden")
	assert.Equal(t, m.matching.SoortXmlInAPIWeight, w)

	w, _ = m.soortScore("opening", "Stemmingen")
	assert.Equal(t, 0.0, w)
}

func TestIsProcedural(t *testing.T) {
	assert.True(t, IsProcedural(types.XmlActivity{Soort: "Opening"}))
	assert.True(t, IsProcedural(types.XmlActivity{Soort: "debat", Titel: "Einde vergadering: stemmingen"}))
	assert.False(t, IsProcedural(types.XmlActivity{Soort: "Wetgevingsoverleg", Titel: "Wet open overheid"}))
}
