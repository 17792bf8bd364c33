// Package extractor parses VLOS verslag XML into the intermediate records
// the pipeline binds against canonical data. Extraction is pure: no lookups,
// no matching, no graph access.
package extractor

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"vlos-insights-go/internal/config"
	"vlos-insights-go/internal/logger"
	"vlos-insights-go/internal/matcher"
	"vlos-insights-go/internal/types"
)

// ParseError marks a document the extractor cannot get a meeting out of.
// Anything less severe is reported as partial output, not an error.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vlos parse: %s: %v", e.Reason, e.Err)
	}
	return "vlos parse: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

// Unqualified tags match the VLOS namespace by local name.
type documentXML struct {
	Vergadering *meetingXML `xml:"vergadering"`
}

type meetingXML struct {
	ObjectID   string        `xml:"objectid,attr"`
	Soort      string        `xml:"soort,attr"`
	Titel      string        `xml:"titel"`
	Nummer     string        `xml:"vergaderingnummer"`
	Datum      string        `xml:"datum"`
	Activities []activityXML `xml:"activiteit"`
}

type activityXML struct {
	ObjectID     string `xml:"objectid,attr"`
	Soort        string `xml:"soort,attr"`
	Titel        string `xml:"titel"`
	Onderwerp    string `xml:"onderwerp"`
	Aanvangstijd string `xml:"aanvangstijd"`
	MarkeerBegin string `xml:"markeertijdbegin"`
	Eindtijd     string `xml:"eindtijd"`
	MarkeerEind  string `xml:"markeertijdeind"`

	SubActivities []activityXML `xml:"activiteit"`
	Items         []itemXML     `xml:"activiteititem"`
	Fragments     []fragmentXML `xml:"draadboekfragment"`
	Zaken         []zaakXML     `xml:"zaak"`
	Sprekers      []sprekerXML  `xml:"sprekers>spreker"`
}

type itemXML struct {
	Soort       string        `xml:"soort,attr"`
	Titel       string        `xml:"titel"`
	Besluitvorm string        `xml:"besluitvorm"`
	Uitslag     string        `xml:"uitslag"`
	Stemmingen  []stemmingXML `xml:"stemmingen>stemming"`

	Items     []itemXML     `xml:"activiteititem"`
	Fragments []fragmentXML `xml:"draadboekfragment"`
	Zaken     []zaakXML     `xml:"zaak"`
	Sprekers  []sprekerXML  `xml:"sprekers>spreker"`
}

type stemmingXML struct {
	Fractie string `xml:"fractie"`
	Stem    string `xml:"stem"`
}

type fragmentXML struct {
	Tekst    *tekstXML    `xml:"tekst"`
	Sprekers []sprekerXML `xml:"sprekers>spreker"`
}

type tekstXML struct {
	Inner string `xml:",innerxml"`
}

type sprekerXML struct {
	Voornaam    string `xml:"voornaam"`
	Achternaam  string `xml:"achternaam"`
	Verslagnaam string `xml:"verslagnaam"`
	Fractie     string `xml:"fractie"`
}

type zaakXML struct {
	ObjectID      string       `xml:"objectid,attr"`
	Dossiernummer string       `xml:"dossiernummer"`
	Stuknummer    string       `xml:"stuknummer"`
	Titel         string       `xml:"titel"`
	Sprekers      []sprekerXML `xml:"sprekers>spreker"`
}

// Extractor parses one verslag document at a time. Safe for reuse.
type Extractor struct {
	cfg  config.VlosConfig
	zone *time.Location
	log  *logrus.Entry
}

func New(cfg config.VlosConfig) *Extractor {
	return &Extractor{
		cfg:  cfg,
		zone: time.FixedZone("vlos", int(cfg.Time.ZoneOffset.Seconds())),
		log:  logger.New().WithField("component", "extractor"),
	}
}

// Extract parses the document and returns the meeting header plus all
// non-procedural activities with their fragments, speakers, zaken and vote
// events attached. A document without a vergadering element or a parseable
// date is fatal.
func (e *Extractor) Extract(content []byte) (*types.XmlMeeting, []types.XmlActivity, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, nil, &ParseError{Reason: "malformed document", Err: err}
	}
	if doc.Vergadering == nil {
		return nil, nil, &ParseError{Reason: "no vergadering element"}
	}

	m := doc.Vergadering
	datum := e.parseTime(m.Datum)
	if datum == nil {
		return nil, nil, &ParseError{Reason: fmt.Sprintf("vergadering datum missing or unparseable: %q", m.Datum)}
	}

	objectID := m.ObjectID
	if objectID == "" {
		objectID = "unknown"
	}
	meeting := &types.XmlMeeting{
		ObjectID: objectID,
		Soort:    m.Soort,
		Titel:    strings.TrimSpace(m.Titel),
		Nummer:   strings.TrimSpace(m.Nummer),
		Datum:    *datum,
	}

	var activities []types.XmlActivity
	skipped := 0
	for i, raw := range m.Activities {
		act := e.buildActivity(raw, i+1)
		if matcher.IsProcedural(act) {
			skipped++
			continue
		}
		activities = append(activities, act)
	}

	e.log.WithFields(logrus.Fields{
		"meeting":    meeting.ObjectID,
		"activities": len(activities),
		"procedural": skipped,
	}).Debug("extracted verslag")

	return meeting, activities, nil
}

func (e *Extractor) buildActivity(raw activityXML, seq int) types.XmlActivity {
	objectID := raw.ObjectID
	if objectID == "" {
		objectID = fmt.Sprintf("activity_%d", seq)
	}

	act := types.XmlActivity{
		ObjectID:  objectID,
		Soort:     raw.Soort,
		Titel:     strings.TrimSpace(raw.Titel),
		Onderwerp: strings.TrimSpace(raw.Onderwerp),
		Start:     e.firstTime(raw.Aanvangstijd, raw.MarkeerBegin),
		End:       e.firstTime(raw.Eindtijd, raw.MarkeerEind),
	}

	fragments := collectFragments(raw)
	seen := map[string]bool{}
	fragSeq := 0
	for _, frag := range fragments {
		if frag.Tekst == nil {
			continue
		}
		fragSeq++
		text := collapseText(frag.Tekst.Inner)
		if text == "" {
			continue
		}
		xf := types.XmlFragment{
			ID:   fmt.Sprintf("%s_frag_%d", objectID, fragSeq),
			Text: text,
		}
		for _, sp := range frag.Sprekers {
			speaker, ok := buildSpeaker(sp, text, xf.ID)
			if !ok {
				continue
			}
			xf.Speakers = append(xf.Speakers, speaker)
			if key := speakerKey(speaker); !seen[key] {
				seen[key] = true
				act.Speakers = append(act.Speakers, speaker)
			}
		}
		act.Fragments = append(act.Fragments, xf)
	}

	// Speakers outside draadboekfragment elements carry no speech text.
	looseSeq := 0
	for _, sp := range collectLooseSpeakers(raw) {
		speaker, ok := buildSpeaker(sp, "", "")
		if !ok {
			continue
		}
		if key := speakerKey(speaker); !seen[key] {
			seen[key] = true
			looseSeq++
			speaker.FragmentID = fmt.Sprintf("%s_speaker_%d", objectID, looseSeq)
			act.Speakers = append(act.Speakers, speaker)
		}
	}

	for _, z := range collectZaken(raw) {
		dossiernr := strings.TrimSpace(z.Dossiernummer)
		stuknr := strings.TrimSpace(z.Stuknummer)
		// Zaken without both numbers arrive via agendapunt connections instead.
		if dossiernr == "" || stuknr == "" {
			continue
		}
		xz := types.XmlZaak{
			Dossiernummer: dossiernr,
			Stuknummer:    stuknr,
			Titel:         strings.TrimSpace(z.Titel),
		}
		for _, sp := range z.Sprekers {
			speaker, ok := buildSpeaker(sp, "", fmt.Sprintf("zaak_%s_%s", dossiernr, stuknr))
			if ok {
				xz.Speakers = append(xz.Speakers, speaker)
			}
		}
		act.Zaken = append(act.Zaken, xz)
	}

	act.VoteEvents = collectVotes(raw)
	return act
}

func buildSpeaker(sp sprekerXML, speechText, fragmentID string) (types.XmlSpeaker, bool) {
	achternaam := strings.TrimSpace(sp.Verslagnaam)
	if achternaam == "" {
		achternaam = strings.TrimSpace(sp.Achternaam)
	}
	if achternaam == "" {
		return types.XmlSpeaker{}, false
	}
	return types.XmlSpeaker{
		Voornaam:    strings.TrimSpace(sp.Voornaam),
		Achternaam:  achternaam,
		Verslagnaam: strings.TrimSpace(sp.Verslagnaam),
		Fractie:     strings.TrimSpace(sp.Fractie),
		SpeechText:  speechText,
		FragmentID:  fragmentID,
	}, true
}

func speakerKey(sp types.XmlSpeaker) string {
	fractie := sp.Fractie
	if fractie == "" {
		fractie = "none"
	}
	return sp.Voornaam + "|" + sp.Achternaam + "|" + fractie
}

func collectFragments(a activityXML) []fragmentXML {
	out := append([]fragmentXML{}, a.Fragments...)
	for _, item := range a.Items {
		out = append(out, collectItemFragments(item)...)
	}
	for _, sub := range a.SubActivities {
		out = append(out, collectFragments(sub)...)
	}
	return out
}

func collectItemFragments(item itemXML) []fragmentXML {
	out := append([]fragmentXML{}, item.Fragments...)
	for _, sub := range item.Items {
		out = append(out, collectItemFragments(sub)...)
	}
	return out
}

func collectLooseSpeakers(a activityXML) []sprekerXML {
	out := append([]sprekerXML{}, a.Sprekers...)
	for _, item := range a.Items {
		out = append(out, collectItemSpeakers(item)...)
	}
	for _, sub := range a.SubActivities {
		out = append(out, collectLooseSpeakers(sub)...)
	}
	return out
}

func collectItemSpeakers(item itemXML) []sprekerXML {
	out := append([]sprekerXML{}, item.Sprekers...)
	for _, sub := range item.Items {
		out = append(out, collectItemSpeakers(sub)...)
	}
	return out
}

func collectZaken(a activityXML) []zaakXML {
	out := append([]zaakXML{}, a.Zaken...)
	for _, item := range a.Items {
		out = append(out, collectItemZaken(item)...)
	}
	for _, sub := range a.SubActivities {
		out = append(out, collectZaken(sub)...)
	}
	return out
}

func collectItemZaken(item itemXML) []zaakXML {
	out := append([]zaakXML{}, item.Zaken...)
	for _, sub := range item.Items {
		out = append(out, collectItemZaken(sub)...)
	}
	return out
}

func collectVotes(a activityXML) []types.XmlVoteEvent {
	var out []types.XmlVoteEvent
	var walkItems func(items []itemXML)
	walkItems = func(items []itemXML) {
		for _, item := range items {
			soort := strings.ToLower(strings.TrimSpace(item.Soort))
			if soort == "besluit" || soort == "stemming" || soort == "vote" {
				event := types.XmlVoteEvent{
					Titel:       strings.TrimSpace(item.Titel),
					Besluitvorm: strings.TrimSpace(item.Besluitvorm),
					Uitslag:     strings.TrimSpace(item.Uitslag),
				}
				for _, s := range item.Stemmingen {
					fractie := strings.TrimSpace(s.Fractie)
					stem := strings.TrimSpace(s.Stem)
					if fractie == "" || stem == "" {
						continue
					}
					event.FractieVotes = append(event.FractieVotes, types.FractieVote{
						Fractie:        fractie,
						Vote:           stem,
						VoteNormalized: strings.ToLower(stem),
					})
				}
				// A vote item without per-fractie votes is just a decision record.
				if len(event.FractieVotes) > 0 {
					out = append(out, event)
				}
			}
			walkItems(item.Items)
		}
	}
	walkItems(a.Items)
	for _, sub := range a.SubActivities {
		out = append(out, collectVotes(sub)...)
	}
	return out
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTime handles zoned and naive timestamps. Naive values are local VLOS
// times and get the configured zone offset attached.
func (e *Extractor) parseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, e.zone); err == nil {
			return &t
		}
	}
	return nil
}

func (e *Extractor) firstTime(values ...string) *time.Time {
	for _, v := range values {
		if t := e.parseTime(v); t != nil {
			return t
		}
	}
	return nil
}

var (
	tagRe        = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

var entityReplacer = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
	"&amp;", "&",
)

// collapseText flattens a tekst element's markup into one whitespace-
// normalized line of speech text.
func collapseText(inner string) string {
	text := tagRe.ReplaceAllString(inner, " ")
	text = entityReplacer.Replace(text)
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
