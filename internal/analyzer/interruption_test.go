package analyzer

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vlos-insights-go/internal/config"
	"vlos-insights-go/internal/types"
)

func speakerMatch(id, surname, name string) types.SpeakerMatch {
	return types.SpeakerMatch{
		XmlSpeaker:  types.XmlSpeaker{Achternaam: surname},
		Result:      types.Matched(types.MatchExact, 100, types.EntityRef{Kind: "Persoon", ID: id, Name: name}),
		PersoonID:   id,
		PersoonName: name,
	}
}

func fragment(id, text string, surnames ...string) types.XmlFragment {
	f := types.XmlFragment{ID: id, Text: text}
	for _, s := range surnames {
		f.Speakers = append(f.Speakers, types.XmlSpeaker{Achternaam: s, SpeechText: text, FragmentID: id})
	}
	return f
}

func newInterruptionAnalyzer() *InterruptionAnalyzer {
	return NewInterruptionAnalyzer(config.Default().Analysis)
}

func TestDetectFragmentRuleDisabled(t *testing.T) {
	cfg := config.Default().Analysis
	cfg.DetectFragmentInterruptions = false
	a := NewInterruptionAnalyzer(cfg)

	speakers := []types.SpeakerMatch{
		speakerMatch("p1", "Jansen", "Jan Jansen"),
		speakerMatch("p2", "Visser", "Maria Visser"),
	}
	act := types.XmlActivity{
		ObjectID: "act-1",
		Fragments: []types.XmlFragment{
			fragment("f1", "gezamenlijk fragment", "Jansen", "Visser"),
		},
	}

	events := a.DetectInActivity(act, speakers, nil, "act-1")
	assert.Empty(t, events)
}

func TestDetectSequentialRuleDisabled(t *testing.T) {
	cfg := config.Default().Analysis
	cfg.DetectSequentialInterruptions = false
	a := NewInterruptionAnalyzer(cfg)

	speakers := []types.SpeakerMatch{
		speakerMatch("p1", "Jansen", "Jan Jansen"),
		speakerMatch("p2", "Visser", "Maria Visser"),
	}
	act := types.XmlActivity{
		ObjectID: "act-1",
		Fragments: []types.XmlFragment{
			fragment("f1", "eerste betoog", "Jansen"),
			fragment("f2", "korte vraag", "Visser"),
			fragment("f3", "antwoord daarop", "Jansen"),
		},
	}

	events := a.DetectInActivity(act, speakers, nil, "act-1")
	assert.Empty(t, events)
}

func TestPreviewKeepsRunesWhole(t *testing.T) {
	s := "privéles over privéles" // é is two bytes
	for n := 1; n <= len(s); n++ {
		p := preview(s, n)
		assert.LessOrEqual(t, len(p), n)
		assert.True(t, utf8.ValidString(p), "n=%d got %q", n, p)
	}
	assert.Equal(t, s, preview(s, len(s)))
	assert.Equal(t, s, preview(s, 0))
}

func TestDetectSequentialWithResponse(t *testing.T) {
	a := newInterruptionAnalyzer()
	speakers := []types.SpeakerMatch{
		speakerMatch("p1", "Jansen", "Jan Jansen"),
		speakerMatch("p2", "Visser", "Maria Visser"),
	}
	act := types.XmlActivity{
		ObjectID: "act-1",
		Fragments: []types.XmlFragment{
			fragment("f1", "eerste betoog", "Jansen"),
			fragment("f2", "korte vraag", "Visser"),
			fragment("f3", "antwoord daarop", "Jansen"),
		},
	}

	events := a.DetectInActivity(act, speakers, nil, "act-1")
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, types.InterruptionWithResponse, ev.Kind)
	assert.Equal(t, "p1", ev.OriginalSpeaker.PersoonID)
	assert.Equal(t, "p2", ev.InterruptingSpeaker.PersoonID)
	require.NotNil(t, ev.RespondingSpeaker)
	assert.Equal(t, "p1", ev.RespondingSpeaker.PersoonID)
	assert.Equal(t, "f2", ev.FragmentID)
}

func TestDetectSequentialSimple(t *testing.T) {
	a := newInterruptionAnalyzer()
	speakers := []types.SpeakerMatch{
		speakerMatch("p1", "Jansen", "Jan Jansen"),
		speakerMatch("p2", "Visser", "Maria Visser"),
		speakerMatch("p3", "Bakker", "Piet Bakker"),
	}
	act := types.XmlActivity{
		ObjectID: "act-1",
		Fragments: []types.XmlFragment{
			fragment("f1", "betoog a", "Jansen"),
			fragment("f2", "betoog b", "Visser"),
			fragment("f3", "betoog c", "Bakker"),
		},
	}

	events := a.DetectInActivity(act, speakers, nil, "act-1")
	require.Len(t, events, 1)
	assert.Equal(t, types.SimpleInterruption, events[0].Kind)
	assert.Nil(t, events[0].RespondingSpeaker)
}

func TestDetectFragmentInterruption(t *testing.T) {
	a := newInterruptionAnalyzer()
	speakers := []types.SpeakerMatch{
		speakerMatch("p1", "Jansen", "Jan Jansen"),
		speakerMatch("p2", "Visser", "Maria Visser"),
	}
	act := types.XmlActivity{
		ObjectID:  "act-1",
		Fragments: []types.XmlFragment{fragment("f1", "interruptiedebat", "Jansen", "Visser")},
	}

	events := a.DetectInActivity(act, speakers, nil, "act-1")
	require.Len(t, events, 1)
	assert.Equal(t, types.FragmentInterruption, events[0].Kind)
	assert.Equal(t, "p1", events[0].OriginalSpeaker.PersoonID)
	assert.Equal(t, "p2", events[0].InterruptingSpeaker.PersoonID)
}

func TestDetectSkipsUnresolvedSpeakers(t *testing.T) {
	a := newInterruptionAnalyzer()
	speakers := []types.SpeakerMatch{speakerMatch("p1", "Jansen", "Jan Jansen")}
	act := types.XmlActivity{
		ObjectID: "act-1",
		Fragments: []types.XmlFragment{
			fragment("f1", "betoog", "Jansen"),
			fragment("f2", "tussenroep", "Onbekend"),
			fragment("f3", "vervolg", "Jansen"),
		},
	}

	events := a.DetectInActivity(act, speakers, nil, "act-1")
	assert.Empty(t, events)
}

func TestAnalyzePatterns(t *testing.T) {
	a := newInterruptionAnalyzer()
	p1 := speakerMatch("p1", "Jansen", "Jan Jansen")
	p2 := speakerMatch("p2", "Visser", "Maria Visser")

	events := []types.InterruptionEvent{
		{Kind: types.SimpleInterruption, OriginalSpeaker: &p1, InterruptingSpeaker: &p2, Topics: []string{"Wet open overheid"}},
		{Kind: types.InterruptionWithResponse, OriginalSpeaker: &p1, InterruptingSpeaker: &p2, RespondingSpeaker: &p1, Topics: []string{"Wet open overheid"}},
	}

	got := a.AnalyzePatterns(events)
	assert.Equal(t, 2, got.TotalInterruptions)
	assert.Equal(t, 1, got.KindCounts[types.SimpleInterruption])
	assert.Equal(t, 1, got.KindCounts[types.InterruptionWithResponse])
	assert.Equal(t, 2, got.MostFrequentInterrupters["Maria Visser"])
	assert.Equal(t, 2, got.MostInterruptedSpeakers["Jan Jansen"])

	pair, ok := got.InterruptionPairs["Maria Visser -> Jan Jansen"]
	require.True(t, ok)
	assert.Equal(t, 2, pair.Count)
	assert.Equal(t, []string{"Wet open overheid"}, pair.Topics)

	rp, ok := got.ResponsePatterns["Jan Jansen responds to Maria Visser"]
	require.True(t, ok)
	assert.Equal(t, 1, rp.Count)
	assert.Equal(t, 2, got.TopicCounts["Wet open overheid"])
}

func TestAnalyzePatternsEmpty(t *testing.T) {
	got := newInterruptionAnalyzer().AnalyzePatterns(nil)
	assert.Equal(t, 0, got.TotalInterruptions)
	assert.Empty(t, got.InterruptionPairs)
}
