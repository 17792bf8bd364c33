// Package matcher scores XML records against canonical candidates. Fuzzy
// comparisons use the fuzzywuzzy ratio; all thresholds come from config.
package matcher

import (
	"fmt"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"vlos-insights-go/internal/config"
	"vlos-insights-go/internal/types"
)

// NameMatcher binds transcript speakers to Persoon candidates.
type NameMatcher struct {
	cfg config.MatchingConfig
}

func NewNameMatcher(cfg config.MatchingConfig) *NameMatcher {
	return &NameMatcher{cfg: cfg}
}

// Score rates how well a speaker name fits one Persoon. Surname is the
// anchor: an exact hit (bare or tussenvoegsel-qualified) scores full surname
// points, anything else pays the fuzzy penalty. A matching first name boosts
// the score, capped at 100.
func (m *NameMatcher) Score(voornaam, achternaam string, p types.Persoon) float64 {
	last := strings.ToLower(strings.TrimSpace(achternaam))
	if last == "" || p.Achternaam == "" {
		return 0
	}

	surnames := []string{strings.ToLower(p.Achternaam)}
	if p.Tussenvoegsel != "" {
		surnames = append(surnames, strings.ToLower(p.Tussenvoegsel+" "+p.Achternaam))
	}

	var score float64
	exact := false
	for _, s := range surnames {
		if s == last {
			exact = true
			break
		}
	}
	if exact {
		score = m.cfg.SurnameScore
	} else {
		best := 0
		for _, s := range surnames {
			if r := fuzzy.Ratio(s, last); r > best {
				best = r
			}
		}
		score = float64(best) - m.cfg.FuzzyPenalty
		if score < 0 {
			score = 0
		}
	}

	if first := strings.ToLower(strings.TrimSpace(voornaam)); first != "" {
		best := 0
		for _, cand := range []string{p.Roepnaam, p.Voornamen} {
			if cand == "" {
				continue
			}
			if r := fuzzy.Ratio(strings.ToLower(cand), first); r > best {
				best = r
			}
		}
		switch {
		case best >= m.cfg.FirstNameHighRatio:
			score += m.cfg.FirstNameHighBoost
		case best >= m.cfg.FirstNameMidRatio:
			score += m.cfg.FirstNameMidBoost
		}
	}

	if score > 100 {
		score = 100
	}
	return score
}

// Best returns the highest-scoring candidate and its score. Candidates below
// the acceptance threshold still rank; acceptance is decided by the caller
// through MatchSpeaker.
func (m *NameMatcher) Best(voornaam, achternaam string, candidates []types.Persoon) (*types.Persoon, float64) {
	var best *types.Persoon
	bestScore := -1.0
	for i := range candidates {
		if s := m.Score(voornaam, achternaam, candidates[i]); s > bestScore {
			bestScore = s
			best = &candidates[i]
		}
	}
	if best == nil {
		return nil, 0
	}
	return best, bestScore
}

// MatchSpeaker resolves one XML speaker against the candidate list. The
// verslagnaam takes precedence over the parsed achternaam when both exist.
func (m *NameMatcher) MatchSpeaker(sp types.XmlSpeaker, candidates []types.Persoon) types.SpeakerMatch {
	surname := sp.Verslagnaam
	if surname == "" {
		surname = sp.Achternaam
	}

	match := types.SpeakerMatch{XmlSpeaker: sp}
	best, score := m.Best(sp.Voornaam, surname, candidates)
	if best == nil || score < m.cfg.MinSpeakerScore {
		match.Result = types.NoMatch(fmt.Sprintf("no persoon candidate reached %.0f for %q", m.cfg.MinSpeakerScore, surname))
		return match
	}

	kind := types.MatchFuzzy
	if score >= m.cfg.ExactSpeakerScore {
		kind = types.MatchExact
	}
	match.Result = types.Matched(kind, score,
		types.EntityRef{Kind: "Persoon", ID: best.ID, Name: best.FullName()},
		fmt.Sprintf("name score %.0f against %q", score, best.FullName()))
	match.PersoonID = best.ID
	match.PersoonName = best.FullName()
	return match
}
