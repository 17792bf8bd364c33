package candidates

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"vlos-insights-go/internal/config"
	"vlos-insights-go/internal/graph"
	"vlos-insights-go/internal/logger"
	"vlos-insights-go/internal/types"
)

// Neo4jProvider reads canonical entities from the graph the entity loaders
// populate.
type Neo4jProvider struct {
	conn *graph.Connection
	cfg  config.VlosConfig
	log  *logrus.Entry
}

func NewNeo4jProvider(conn *graph.Connection, cfg config.VlosConfig) *Neo4jProvider {
	return &Neo4jProvider{
		conn: conn,
		cfg:  cfg,
		log:  logger.New().WithField("component", "candidates"),
	}
}

func (p *Neo4jProvider) CandidateMeetings(ctx context.Context, m types.XmlMeeting) ([]types.Vergadering, error) {
	start := m.Datum.UTC().Add(-p.cfg.Time.MeetingLookup)
	end := m.Datum.UTC().Add(p.cfg.Time.MeetingLookup)

	query := `MATCH (v:Vergadering)
WHERE v.begin IS NOT NULL
  AND datetime(v.begin) >= datetime($start)
  AND datetime(v.begin) <= datetime($end)`
	params := map[string]any{
		"start": start.Format(time.RFC3339),
		"end":   end.Format(time.RFC3339),
		"limit": p.cfg.Processing.MaxMeetingCandidates,
	}

	soort := strings.ToLower(strings.TrimSpace(m.Soort))
	if soort == "plenair" || soort == "commissie" {
		query += "\n  AND toLower(v.soort) = $soort"
		params["soort"] = soort
	}
	if nummer, err := strconv.Atoi(strings.TrimSpace(m.Nummer)); err == nil {
		query += "\n  AND v.nummer = $nummer"
		params["nummer"] = nummer
	}
	query += `
RETURN v.id AS id, v.soort AS soort, v.titel AS titel, v.nummer AS nummer,
       v.begin AS begin, v.einde AS einde
ORDER BY datetime(v.begin)
LIMIT $limit`

	records, err := p.conn.Read(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("candidate meetings: %w", err)
	}

	var meetings []types.Vergadering
	for _, rec := range records {
		begin := graph.RecordTime(rec, "begin")
		if begin == nil {
			continue
		}
		einde := graph.RecordTime(rec, "einde")
		if einde == nil {
			einde = begin
		}
		meetings = append(meetings, types.Vergadering{
			ID:     graph.RecordString(rec, "id"),
			Soort:  graph.RecordString(rec, "soort"),
			Titel:  graph.RecordString(rec, "titel"),
			Nummer: graph.RecordInt(rec, "nummer"),
			Begin:  *begin,
			Einde:  *einde,
		})
	}
	p.log.WithField("candidates", len(meetings)).Debug("meeting lookup")
	return meetings, nil
}

func (p *Neo4jProvider) CandidateActivities(ctx context.Context, v types.Vergadering) ([]types.Activiteit, error) {
	start := v.Begin.UTC().Add(-p.cfg.Time.ActivityBuffer)
	end := v.Einde.UTC().Add(p.cfg.Time.ActivityBuffer)

	query := `MATCH (a:Activiteit)
WHERE a.begin IS NOT NULL
  AND datetime(a.begin) >= datetime($start)
  AND datetime(a.begin) <= datetime($end)
OPTIONAL MATCH (a)<-[:BELONGS_TO_ACTIVITEIT]-(:ActiviteitActor)-[:ACTED_AS_PERSOON]->(p:Persoon)
RETURN a.id AS id, a.soort AS soort, a.onderwerp AS onderwerp,
       a.begin AS begin, a.einde AS einde,
       collect(DISTINCT {id: p.id, roepnaam: p.roepnaam, voornamen: p.voornamen,
                         tussenvoegsel: p.tussenvoegsel, achternaam: p.achternaam}) AS actors
LIMIT $limit`
	params := map[string]any{
		"start": start.Format(time.RFC3339),
		"end":   end.Format(time.RFC3339),
		"limit": p.cfg.Processing.MaxActivityCandidates,
	}

	records, err := p.conn.Read(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("candidate activities: %w", err)
	}

	var activities []types.Activiteit
	for _, rec := range records {
		act := types.Activiteit{
			ID:        graph.RecordString(rec, "id"),
			Soort:     graph.RecordString(rec, "soort"),
			Onderwerp: graph.RecordString(rec, "onderwerp"),
			Begin:     graph.RecordTime(rec, "begin"),
			Einde:     graph.RecordTime(rec, "einde"),
		}
		if raw, ok := rec.Get("actors"); ok {
			if list, ok := raw.([]any); ok {
				for _, item := range list {
					if persoon, ok := persoonFromValue(item); ok {
						act.Actors = append(act.Actors, persoon)
					}
				}
			}
		}
		activities = append(activities, act)
	}
	p.log.WithField("candidates", len(activities)).Debug("activity lookup")
	return activities, nil
}

func (p *Neo4jProvider) CandidatePersonen(ctx context.Context, achternaam string) ([]types.Persoon, error) {
	achternaam = strings.TrimSpace(achternaam)
	if achternaam == "" {
		return nil, nil
	}

	exact, err := p.queryPersonen(ctx,
		"MATCH (p:Persoon) WHERE toLower(p.achternaam) = toLower($name) RETURN "+persoonReturn+" LIMIT 20",
		map[string]any{"name": achternaam})
	if err != nil {
		return nil, fmt.Errorf("persoon lookup: %w", err)
	}
	if len(exact) > 0 {
		return exact, nil
	}

	// Contains search on the main surname token catches tussenvoegsel and
	// compound-name variations.
	tokens := strings.Fields(achternaam)
	token := strings.ToLower(tokens[len(tokens)-1])
	fuzzy, err := p.queryPersonen(ctx,
		"MATCH (p:Persoon) WHERE toLower(p.achternaam) CONTAINS $token RETURN "+persoonReturn+" LIMIT $limit",
		map[string]any{"token": token, "limit": p.cfg.Processing.MaxPersoonCandidates})
	if err != nil {
		return nil, fmt.Errorf("persoon fallback lookup: %w", err)
	}
	return fuzzy, nil
}

const persoonReturn = `p.id AS id, p.roepnaam AS roepnaam, p.voornamen AS voornamen,
       p.tussenvoegsel AS tussenvoegsel, p.achternaam AS achternaam`

func (p *Neo4jProvider) queryPersonen(ctx context.Context, query string, params map[string]any) ([]types.Persoon, error) {
	records, err := p.conn.Read(ctx, query, params)
	if err != nil {
		return nil, err
	}
	var personen []types.Persoon
	for _, rec := range records {
		persoon := types.Persoon{
			ID:            graph.RecordString(rec, "id"),
			Roepnaam:      graph.RecordString(rec, "roepnaam"),
			Voornamen:     graph.RecordString(rec, "voornamen"),
			Tussenvoegsel: graph.RecordString(rec, "tussenvoegsel"),
			Achternaam:    graph.RecordString(rec, "achternaam"),
		}
		if persoon.ID != "" && persoon.Achternaam != "" {
			personen = append(personen, persoon)
		}
	}
	return personen, nil
}

var dossierCodeRe = regexp.MustCompile(`^(\d+)(?:[-\s]?([A-Za-z0-9]+))?$`)

func (p *Neo4jProvider) FindZaakWithFallback(ctx context.Context, dossiernummer, stuknummer string) (ZaakLookup, error) {
	var lookup ZaakLookup

	zaak, err := p.findBestZaak(ctx, dossiernummer, stuknummer)
	if err != nil {
		return lookup, err
	}
	if zaak != nil {
		lookup.Zaak = zaak
		return lookup, nil
	}

	if dossiernummer == "" {
		return lookup, nil
	}
	dossier, err := p.findDossier(ctx, dossiernummer)
	if err != nil {
		return lookup, err
	}
	if dossier == nil {
		return lookup, nil
	}
	lookup.Dossier = dossier

	if stuknummer != "" {
		document, err := p.findDocument(ctx, dossier.Nummer, stuknummer)
		if err != nil {
			return lookup, err
		}
		lookup.Document = document
	}
	return lookup, nil
}

func (p *Neo4jProvider) findBestZaak(ctx context.Context, dossiernummer, stuknummer string) (*types.Zaak, error) {
	if dossiernummer == "" && stuknummer == "" {
		return nil, nil
	}

	conditions := []string{}
	params := map[string]any{"limit": p.cfg.Processing.MaxZaakCandidates}

	dnr, dnrOk := safeInt(dossiernummer)
	if dnrOk {
		conditions = append(conditions, "d.nummer = $dossier_nummer")
		params["dossier_nummer"] = dnr
	} else if dossiernummer != "" {
		conditions = append(conditions, "z.nummer = $zaak_nummer")
		params["zaak_nummer"] = dossiernummer
	}
	snr, snrOk := safeInt(stuknummer)
	if snrOk {
		conditions = append(conditions, "z.volgnummer = $volgnummer")
		params["volgnummer"] = snr
	}
	if len(conditions) == 0 {
		return nil, nil
	}

	query := `MATCH (z:Zaak)
OPTIONAL MATCH (z)-[:BELONGS_TO_DOSSIER]->(d:Dossier)
WITH z, d
WHERE ` + strings.Join(conditions, " AND ") + `
RETURN z.id AS id, z.nummer AS nummer, z.onderwerp AS onderwerp,
       z.volgnummer AS volgnummer, d.nummer AS dossier_nummer
LIMIT $limit`

	records, err := p.conn.Read(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("zaak lookup: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	zaken := make([]types.Zaak, 0, len(records))
	for _, rec := range records {
		zaken = append(zaken, types.Zaak{
			ID:            graph.RecordString(rec, "id"),
			Nummer:        graph.RecordString(rec, "nummer"),
			Onderwerp:     graph.RecordString(rec, "onderwerp"),
			Volgnummer:    graph.RecordInt(rec, "volgnummer"),
			DossierNummer: graph.RecordInt(rec, "dossier_nummer"),
		})
	}
	if len(zaken) == 1 {
		return &zaken[0], nil
	}
	// Prefer the exact dossier+stuk combination.
	for i := range zaken {
		if dnrOk && zaken[i].DossierNummer == dnr && (!snrOk || zaken[i].Volgnummer == snr) {
			return &zaken[i], nil
		}
	}
	return &zaken[0], nil
}

func (p *Neo4jProvider) findDossier(ctx context.Context, code string) (*types.Dossier, error) {
	m := dossierCodeRe.FindStringSubmatch(strings.TrimSpace(code))
	if m == nil {
		return nil, nil
	}
	nummer, _ := strconv.Atoi(m[1])
	toevoeging := m[2]

	query := `MATCH (d:Dossier) WHERE d.nummer = $nummer`
	params := map[string]any{"nummer": nummer}
	if toevoeging != "" {
		query += " AND d.toevoegingsnummer = $toevoeging"
		params["toevoeging"] = toevoeging
	}
	query += `
RETURN d.id AS id, d.nummer AS nummer, d.toevoegingsnummer AS toevoeging, d.titel AS titel
LIMIT 5`

	records, err := p.conn.Read(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("dossier lookup: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	rec := records[0]
	return &types.Dossier{
		ID:         graph.RecordString(rec, "id"),
		Nummer:     graph.RecordInt(rec, "nummer"),
		Toevoeging: graph.RecordString(rec, "toevoeging"),
		Titel:      graph.RecordString(rec, "titel"),
	}, nil
}

func (p *Neo4jProvider) findDocument(ctx context.Context, dossierNummer int, stuknummer string) (*types.Document, error) {
	volgnummer, ok := safeInt(stuknummer)
	if !ok {
		return nil, nil
	}

	query := `MATCH (doc:Document)-[:HAS_DOSSIER]->(d:Dossier {nummer: $dossier_nummer})
WHERE doc.volgnummer = $volgnummer
RETURN doc.id AS id, doc.volgnummer AS volgnummer, doc.titel AS titel
LIMIT 5`
	params := map[string]any{"dossier_nummer": dossierNummer, "volgnummer": volgnummer}

	records, err := p.conn.Read(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("document lookup: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	rec := records[0]
	return &types.Document{
		ID:         graph.RecordString(rec, "id"),
		Volgnummer: graph.RecordInt(rec, "volgnummer"),
		Titel:      graph.RecordString(rec, "titel"),
	}, nil
}

func (p *Neo4jProvider) AgendapuntZaken(ctx context.Context, activiteitID string) ([]types.Zaak, error) {
	query := `MATCH (ap:Agendapunt)-[:BELONGS_TO_ACTIVITEIT]->(a:Activiteit {id: $activiteit_id})
MATCH (ap)-[:ABOUT_ZAAK]->(z:Zaak)
OPTIONAL MATCH (z)-[:BELONGS_TO_DOSSIER]->(d:Dossier)
RETURN DISTINCT z.id AS id, z.nummer AS nummer, z.onderwerp AS onderwerp,
       z.volgnummer AS volgnummer, d.nummer AS dossier_nummer
LIMIT 50`

	records, err := p.conn.Read(ctx, query, map[string]any{"activiteit_id": activiteitID})
	if err != nil {
		return nil, fmt.Errorf("agendapunt zaken: %w", err)
	}
	var zaken []types.Zaak
	for _, rec := range records {
		zaken = append(zaken, types.Zaak{
			ID:            graph.RecordString(rec, "id"),
			Nummer:        graph.RecordString(rec, "nummer"),
			Onderwerp:     graph.RecordString(rec, "onderwerp"),
			Volgnummer:    graph.RecordInt(rec, "volgnummer"),
			DossierNummer: graph.RecordInt(rec, "dossier_nummer"),
		})
	}
	return zaken, nil
}

func persoonFromValue(v any) (types.Persoon, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return types.Persoon{}, false
	}
	get := func(k string) string {
		s, _ := m[k].(string)
		return s
	}
	persoon := types.Persoon{
		ID:            get("id"),
		Roepnaam:      get("roepnaam"),
		Voornamen:     get("voornamen"),
		Tussenvoegsel: get("tussenvoegsel"),
		Achternaam:    get("achternaam"),
	}
	return persoon, persoon.ID != "" && persoon.Achternaam != ""
}

func safeInt(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}

var _ Provider = (*Neo4jProvider)(nil)
