package extractor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vlos-insights-go/internal/config"
	"vlos-insights-go/internal/types"
)

const sampleDoc = `<?xml version="1.0" encoding="UTF-8"?>
<vlosCoreDocument xmlns="http://www.tweedekamer.nl/xsd/vlosCoreDocument/v1">
  <vergadering objectid="verg-1" soort="Plenair">
    <titel>42e vergadering, dinsdag 12 maart 2024</titel>
    <vergaderingnummer>42</vergaderingnummer>
    <datum>2024-03-12T10:00:00</datum>
    <activiteit objectid="act-open" soort="Opening">
      <titel>Opening</titel>
    </activiteit>
    <activiteit objectid="act-1" soort="Wetgevingsoverleg">
      <titel>Wet open overheid</titel>
      <onderwerp>Wet open overheid</onderwerp>
      <aanvangstijd>2024-03-12T10:15:00</aanvangstijd>
      <eindtijd>2024-03-12T12:00:00</eindtijd>
      <draadboekfragment>
        <sprekers>
          <spreker>
            <voornaam>Jan</voornaam>
            <achternaam>Jansen</achternaam>
            <fractie>PvdA</fractie>
          </spreker>
        </sprekers>
        <tekst><alinea>Voorzitter, de wet is <nadruk>nodig</nadruk></alinea></tekst>
      </draadboekfragment>
      <draadboekfragment>
        <sprekers>
          <spreker>
            <voornaam>Jan</voornaam>
            <achternaam>Jansen</achternaam>
            <fractie>PvdA</fractie>
          </spreker>
          <spreker>
            <voornaam>Maria</voornaam>
            <verslagnaam>Visser</verslagnaam>
            <fractie>VVD</fractie>
          </spreker>
        </sprekers>
        <tekst><alinea>Mag ik daar iets over vragen?</alinea></tekst>
      </draadboekfragment>
      <activiteititem soort="besluit">
        <titel>Motie over openbaarheid</titel>
        <besluitvorm>hoofdelijk</besluitvorm>
        <uitslag>aangenomen</uitslag>
        <stemmingen>
          <stemming><fractie>PvdA</fractie><stem>Voor</stem></stemming>
          <stemming><fractie>VVD</fractie><stem>Tegen</stem></stemming>
        </stemmingen>
      </activiteititem>
      <zaak objectid="z-1">
        <dossiernummer>33328</dossiernummer>
        <stuknummer>12</stuknummer>
        <titel>Wet open overheid</titel>
        <sprekers>
          <spreker>
            <voornaam>Jan</voornaam>
            <achternaam>Jansen</achternaam>
          </spreker>
        </sprekers>
      </zaak>
      <zaak objectid="z-2">
        <dossiernummer>33328</dossiernummer>
        <stuknummer></stuknummer>
      </zaak>
    </activiteit>
  </vergadering>
</vlosCoreDocument>`

func newExtractor() *Extractor {
	return New(config.Default())
}

func TestExtractMeeting(t *testing.T) {
	meeting, activities, err := newExtractor().Extract([]byte(sampleDoc))
	require.NoError(t, err)
	require.NotNil(t, meeting)

	assert.Equal(t, "verg-1", meeting.ObjectID)
	assert.Equal(t, "Plenair", meeting.Soort)
	assert.Equal(t, "42", meeting.Nummer)
	assert.Equal(t, 2024, meeting.Datum.Year())
	// naive timestamps carry the configured offset, 10:00 local is 08:00 UTC
	assert.Equal(t, 8, meeting.Datum.UTC().Hour())

	// the procedural opening is skipped
	require.Len(t, activities, 1)
	assert.Equal(t, "act-1", activities[0].ObjectID)
}

func TestExtractActivityContent(t *testing.T) {
	_, activities, err := newExtractor().Extract([]byte(sampleDoc))
	require.NoError(t, err)
	require.Len(t, activities, 1)
	act := activities[0]

	require.NotNil(t, act.Start)
	require.NotNil(t, act.End)
	assert.True(t, act.End.After(*act.Start))

	require.Len(t, act.Fragments, 2)
	assert.Equal(t, "act-1_frag_1", act.Fragments[0].ID)
	assert.Equal(t, "Voorzitter, de wet is nodig", act.Fragments[0].Text)
	require.Len(t, act.Fragments[1].Speakers, 2)
	assert.Equal(t, "Visser", act.Fragments[1].Speakers[1].Achternaam)

	// duplicates collapse: Jansen speaks in both fragments and in the zaak
	require.Len(t, act.Speakers, 2)
	assert.Equal(t, "Jansen", act.Speakers[0].Achternaam)
	assert.Equal(t, "Visser", act.Speakers[1].Achternaam)
}

func TestExtractZakenRequireBothNumbers(t *testing.T) {
	_, activities, err := newExtractor().Extract([]byte(sampleDoc))
	require.NoError(t, err)
	act := activities[0]

	require.Len(t, act.Zaken, 1)
	assert.Equal(t, "33328", act.Zaken[0].Dossiernummer)
	assert.Equal(t, "12", act.Zaken[0].Stuknummer)
	require.Len(t, act.Zaken[0].Speakers, 1)
	assert.Equal(t, "zaak_33328_12", act.Zaken[0].Speakers[0].FragmentID)
}

func TestExtractVoteEvents(t *testing.T) {
	_, activities, err := newExtractor().Extract([]byte(sampleDoc))
	require.NoError(t, err)
	act := activities[0]

	require.Len(t, act.VoteEvents, 1)
	ev := act.VoteEvents[0]
	assert.Equal(t, "Motie over openbaarheid", ev.Titel)
	assert.Equal(t, "aangenomen", ev.Uitslag)
	require.Len(t, ev.FractieVotes, 2)
	assert.Equal(t, types.FractieVote{Fractie: "PvdA", Vote: "Voor", VoteNormalized: "voor"}, ev.FractieVotes[0])
}

func TestExtractFatalCases(t *testing.T) {
	ex := newExtractor()

	_, _, err := ex.Extract([]byte("not xml at all <"))
	var perr *ParseError
	require.ErrorAs(t, err, &perr)

	_, _, err = ex.Extract([]byte(`<doc><iets/></doc>`))
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Reason, "vergadering")

	_, _, err = ex.Extract([]byte(`<doc><vergadering objectid="v"><titel>x</titel></vergadering></doc>`))
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Reason, "datum")
}

func TestParseTimeLayouts(t *testing.T) {
	ex := newExtractor()

	zoned := ex.parseTime("2024-03-12T10:00:00+02:00")
	require.NotNil(t, zoned)
	assert.Equal(t, 8, zoned.UTC().Hour())

	naive := ex.parseTime("2024-03-12T10:00:00")
	require.NotNil(t, naive)
	assert.True(t, zoned.Equal(*naive))

	assert.Nil(t, ex.parseTime(""))
	assert.Nil(t, ex.parseTime("12 maart 2024"))

	dateOnly := ex.parseTime("2024-03-12")
	require.NotNil(t, dateOnly)
	assert.Equal(t, time.March, dateOnly.Month())
}
