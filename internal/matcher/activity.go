package matcher

import (
	"fmt"
	"strings"
	"time"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"vlos-insights-go/internal/config"
	"vlos-insights-go/internal/normalizer"
	"vlos-insights-go/internal/types"
)

// soortAliases maps XML activity kinds to canonical kinds that describe the
// same slot under a different name.
var soortAliases = map[string][]string{
	"opening":      {"aanvang", "regeling van werkzaamheden", "reglementair"},
	"sluiting":     {"einde vergadering", "stemmingen", "stemmen"},
	"mededelingen": {"procedurevergadering", "procedures en brieven", "uitstel brieven"},
}

// ActivityMatcher binds XML agenda segments to canonical Activiteit records
// by combining time, kind and topic evidence.
type ActivityMatcher struct {
	matching config.MatchingConfig
	timing   config.TimeConfig
}

func NewActivityMatcher(cfg config.VlosConfig) *ActivityMatcher {
	return &ActivityMatcher{matching: cfg.Matching, timing: cfg.Time}
}

type scored struct {
	candidate types.Activiteit
	score     float64
	reasons   []string
}

// Match scores every candidate and accepts the top one when it clears the
// absolute threshold, or when it leads the runner-up by the configured
// margin and carries at least some evidence.
func (m *ActivityMatcher) Match(x types.XmlActivity, meeting types.Vergadering, candidates []types.Activiteit) types.ActivityMatch {
	match := types.ActivityMatch{XmlActivity: x}
	if len(candidates) == 0 {
		match.Result = types.NoMatch("no canonical activity candidates")
		return match
	}

	var top, second scored
	for _, c := range candidates {
		s := m.score(x, meeting, c)
		if s.score > top.score {
			second = top
			top = s
		} else if s.score > second.score {
			second = s
		}
	}

	if !m.accept(top.score, second.score, len(candidates)) {
		match.Result = types.NoMatch(fmt.Sprintf("best score %.2f (runner-up %.2f) below acceptance", top.score, second.score))
		return match
	}

	kind := types.MatchFuzzy
	if top.score >= m.matching.MinActivityScore+m.matching.ActivityExactBonus {
		kind = types.MatchExact
	}
	match.Result = types.Matched(kind, top.score,
		types.EntityRef{Kind: "Activiteit", ID: top.candidate.ID, Name: top.candidate.Onderwerp},
		top.reasons...)
	match.ActiviteitID = top.candidate.ID
	return match
}

// accept applies the absolute threshold first. The separation rule only
// makes sense against a real runner-up; a lone weak candidate is rejected.
func (m *ActivityMatcher) accept(top, second float64, candidateCount int) bool {
	if top >= m.matching.MinActivityScore {
		return true
	}
	if candidateCount < 2 {
		return false
	}
	return top-second >= m.matching.ActivityLeadMargin && top >= m.matching.ActivityLeadMinScore
}

func (m *ActivityMatcher) score(x types.XmlActivity, meeting types.Vergadering, c types.Activiteit) scored {
	s := scored{candidate: c}

	if w, why := m.timeScore(x, meeting, c); w > 0 {
		s.score += w
		s.reasons = append(s.reasons, why)
	}
	if w, why := m.soortScore(x.Soort, c.Soort); w > 0 {
		s.score += w
		s.reasons = append(s.reasons, why)
	}
	if w, why := m.topicScore(x.Onderwerp, c.Onderwerp, m.matching.TopicExactWeight, m.matching.TopicHighWeight, m.matching.TopicMidWeight, "onderwerp"); w > 0 {
		s.score += w
		s.reasons = append(s.reasons, why)
	}
	if w, why := m.topicScore(x.Titel, c.Onderwerp, m.matching.TitleExactWeight, m.matching.TitleHighWeight, m.matching.TitleMidWeight, "titel"); w > 0 {
		s.score += w
		s.reasons = append(s.reasons, why)
	}
	return s
}

// timeScore rewards a start within tolerance, or failing that any overlap of
// the buffered windows. XML times missing on either side fall back to the
// meeting window.
func (m *ActivityMatcher) timeScore(x types.XmlActivity, meeting types.Vergadering, c types.Activiteit) (float64, string) {
	xStart, xEnd := x.Start, x.End
	if xStart == nil {
		b := meeting.Begin
		xStart = &b
	}
	if xEnd == nil {
		e := meeting.Einde
		xEnd = &e
	}
	cStart, cEnd := c.Begin, c.Einde
	if cStart == nil {
		return 0, ""
	}
	if cEnd == nil {
		cEnd = cStart
	}

	diff := xStart.UTC().Sub(cStart.UTC())
	if diff < 0 {
		diff = -diff
	}
	if diff <= m.timing.StartTolerance {
		return m.matching.TimeStartWeight, fmt.Sprintf("start within %s", m.timing.StartTolerance)
	}

	bufferedStart := xStart.UTC().Add(-m.timing.OverlapBuffer)
	bufferedEnd := xEnd.UTC().Add(m.timing.OverlapBuffer)
	if cStart.UTC().Before(bufferedEnd) && cEnd.UTC().After(bufferedStart) {
		return m.matching.TimeOverlapWeight, "windows overlap within buffer"
	}
	return 0, ""
}

func (m *ActivityMatcher) soortScore(xmlSoort, apiSoort string) (float64, string) {
	xs := strings.ToLower(strings.TrimSpace(xmlSoort))
	as := strings.ToLower(strings.TrimSpace(apiSoort))
	if xs == "" || as == "" {
		return 0, ""
	}
	switch {
	case xs == as:
		return m.matching.SoortExactWeight, "soort exact"
	case strings.Contains(as, xs):
		return m.matching.SoortXmlInAPIWeight, "xml soort contained in canonical soort"
	case strings.Contains(xs, as):
		return m.matching.SoortAPIInXmlWeight, "canonical soort contained in xml soort"
	}
	for _, alias := range soortAliases[xs] {
		if strings.Contains(as, alias) {
			return m.matching.SoortXmlInAPIWeight, fmt.Sprintf("soort alias %q", alias)
		}
	}
	return 0, ""
}

func (m *ActivityMatcher) topicScore(xmlTopic, apiTopic string, exact, high, mid float64, label string) (float64, string) {
	xt := normalizer.NormalizeTopic(xmlTopic)
	at := normalizer.NormalizeTopic(apiTopic)
	if xt == "" || at == "" {
		return 0, ""
	}
	if xt == at {
		return exact, label + " exact"
	}
	r := fuzzy.Ratio(xt, at)
	switch {
	case r >= m.matching.TopicHighRatio:
		return high, fmt.Sprintf("%s fuzzy %d", label, r)
	case r >= m.matching.TopicMidRatio:
		return mid, fmt.Sprintf("%s fuzzy %d", label, r)
	}
	return 0, ""
}

// proceduralSoorten are agenda bookkeeping segments with no matchable
// content of their own.
var proceduralSoorten = []string{"opening", "sluiting", "aanvang", "einde vergadering"}

// IsProcedural reports whether an XML activity is a procedural segment that
// should not be bound to a canonical activity.
func IsProcedural(x types.XmlActivity) bool {
	soort := strings.ToLower(strings.TrimSpace(x.Soort))
	titel := strings.ToLower(x.Titel)
	for _, p := range proceduralSoorten {
		if soort == p || (titel != "" && strings.Contains(titel, p)) {
			return true
		}
	}
	return false
}

// MeetingWindow is the search window around an XML meeting date used for
// canonical meeting lookup.
func MeetingWindow(datum time.Time, lookup time.Duration) (time.Time, time.Time) {
	return datum.Add(-lookup), datum.Add(lookup)
}
