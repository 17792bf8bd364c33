// Package normalizer canonicalizes topic strings so onderwerp values from
// the verslag and the canonical API can be compared directly.
package normalizer

import (
	"regexp"
	"strings"
)

// topicPrefixes are procedural lead-ins that carry no topical meaning.
// Longer prefixes come first so "einde vergadering" wins over a bare match.
var topicPrefixes = []string{
	"tweeminutendebat",
	"procedurevergadering",
	"wetgevingsoverleg",
	"plenaire afronding",
	"plenaire debat",
	"debate over",
	"debate",
	"aanvang",
	"einde vergadering",
	"regeling van werkzaamheden",
	"stemmingen",
	"aanbieding",
	"technische briefing",
}

var (
	prefixRe     *regexp.Regexp
	whitespaceRe = regexp.MustCompile(`\s+`)
)

func init() {
	quoted := make([]string, len(topicPrefixes))
	for i, p := range topicPrefixes {
		quoted[i] = regexp.QuoteMeta(p)
	}
	prefixRe = regexp.MustCompile(`^(?:` + strings.Join(quoted, "|") + `)[\s:,-]+`)
}

// NormalizeTopic lowercases, strips at most one leading procedural prefix
// and collapses internal whitespace. Idempotent.
func NormalizeTopic(s string) string {
	out := strings.ToLower(strings.TrimSpace(s))
	out = prefixRe.ReplaceAllString(out, "")
	out = whitespaceRe.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}
