package types

import "time"

// XmlMeeting is the vergadering header extracted from a VLOS verslag document.
type XmlMeeting struct {
	ObjectID string    `json:"object_id"`
	Soort    string    `json:"soort"`
	Titel    string    `json:"titel"`
	Nummer   string    `json:"nummer,omitempty"`
	Datum    time.Time `json:"datum"`
}

// XmlActivity is one agenda segment extracted from the verslag. The fragment,
// zaak and vote payloads are collected at parse time so the activity can yield
// its own speakers, cases and vote events without touching the document again.
type XmlActivity struct {
	ObjectID  string     `json:"object_id"`
	Soort     string     `json:"soort"`
	Titel     string     `json:"titel"`
	Onderwerp string     `json:"onderwerp"`
	Start     *time.Time `json:"start,omitempty"`
	End       *time.Time `json:"end,omitempty"`

	Fragments  []XmlFragment  `json:"fragments,omitempty"`
	Speakers   []XmlSpeaker   `json:"speakers,omitempty"`
	Zaken      []XmlZaak      `json:"zaken,omitempty"`
	VoteEvents []XmlVoteEvent `json:"vote_events,omitempty"`
}

// XmlFragment is one contiguous block of transcribed speech, possibly
// attributed to multiple speakers.
type XmlFragment struct {
	ID       string       `json:"id"`
	Text     string       `json:"text"`
	Speakers []XmlSpeaker `json:"speakers,omitempty"`
}

type XmlSpeaker struct {
	Voornaam    string `json:"voornaam"`
	Achternaam  string `json:"achternaam"`
	Verslagnaam string `json:"verslagnaam,omitempty"`
	Fractie     string `json:"fractie,omitempty"`
	SpeechText  string `json:"speech_text,omitempty"`
	FragmentID  string `json:"fragment_id"`
}

type XmlZaak struct {
	Dossiernummer string       `json:"dossiernummer"`
	Stuknummer    string       `json:"stuknummer"`
	Titel         string       `json:"titel"`
	Speakers      []XmlSpeaker `json:"speakers,omitempty"`
}

type XmlVoteEvent struct {
	Titel        string        `json:"titel"`
	Besluitvorm  string        `json:"besluitvorm"`
	Uitslag      string        `json:"uitslag"`
	FractieVotes []FractieVote `json:"fractie_votes"`
}

type FractieVote struct {
	Fractie        string `json:"fractie"`
	Vote           string `json:"vote"`
	VoteNormalized string `json:"vote_normalized"`
}

// Canonical entities as they live in the graph, loaded there by the upstream
// entity loaders. Optional timestamps are pointers; absence means the graph
// has no value, not a zero time.

type Vergadering struct {
	ID     string    `json:"id"`
	Soort  string    `json:"soort"`
	Titel  string    `json:"titel"`
	Nummer int       `json:"nummer,omitempty"`
	Begin  time.Time `json:"begin"`
	Einde  time.Time `json:"einde"`
}

type Activiteit struct {
	ID        string     `json:"id"`
	Soort     string     `json:"soort"`
	Onderwerp string     `json:"onderwerp"`
	Begin     *time.Time `json:"begin,omitempty"`
	Einde     *time.Time `json:"einde,omitempty"`
	Actors    []Persoon  `json:"actors,omitempty"`
}

type Persoon struct {
	ID            string `json:"id"`
	Roepnaam      string `json:"roepnaam,omitempty"`
	Voornamen     string `json:"voornamen,omitempty"`
	Tussenvoegsel string `json:"tussenvoegsel,omitempty"`
	Achternaam    string `json:"achternaam"`
}

// FullName is the display name used on match results and leaderboards.
func (p Persoon) FullName() string {
	parts := make([]string, 0, 3)
	if p.Roepnaam != "" {
		parts = append(parts, p.Roepnaam)
	} else if p.Voornamen != "" {
		parts = append(parts, p.Voornamen)
	}
	if p.Tussenvoegsel != "" {
		parts = append(parts, p.Tussenvoegsel)
	}
	parts = append(parts, p.Achternaam)
	out := ""
	for i, part := range parts {
		if i > 0 {
			out += " "
		}
		out += part
	}
	return out
}

type Zaak struct {
	ID            string `json:"id"`
	Nummer        string `json:"nummer,omitempty"`
	Onderwerp     string `json:"onderwerp,omitempty"`
	Volgnummer    int    `json:"volgnummer,omitempty"`
	DossierNummer int    `json:"dossier_nummer,omitempty"`
}

type Dossier struct {
	ID         string `json:"id"`
	Nummer     int    `json:"nummer"`
	Toevoeging string `json:"toevoeging,omitempty"`
	Titel      string `json:"titel,omitempty"`
}

type Document struct {
	ID         string `json:"id"`
	Volgnummer int    `json:"volgnummer"`
	Titel      string `json:"titel,omitempty"`
}

type Agendapunt struct {
	ID        string `json:"id"`
	Onderwerp string `json:"onderwerp,omitempty"`
	Zaken     []Zaak `json:"zaken,omitempty"`
}
