package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTopic(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Tweeminutendebat Stikstofbeleid", "stikstofbeleid"},
		{"Debate over de begroting", "de begroting"},
		{"STEMMINGEN: moties klimaat", "moties klimaat"},
		{"Regeling van werkzaamheden - week 12", "week 12"},
		{"  Gewoon   een onderwerp  ", "gewoon een onderwerp"},
		{"", ""},
		// prefix without separator is left alone
		{"stemmingenlijst", "stemmingenlijst"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NormalizeTopic(c.in), "input %q", c.in)
	}
}

func TestNormalizeTopicStripsOnlyOnePrefix(t *testing.T) {
	got := NormalizeTopic("Tweeminutendebat Stemmingen over moties")
	assert.Equal(t, "stemmingen over moties", got)
}

func TestNormalizeTopicIdempotent(t *testing.T) {
	inputs := []string{
		"Tweeminutendebat Stikstofbeleid",
		"Plenaire afronding: Wet open overheid",
		"gewone tekst",
	}
	for _, in := range inputs {
		once := NormalizeTopic(in)
		assert.Equal(t, once, NormalizeTopic(once))
	}
}
