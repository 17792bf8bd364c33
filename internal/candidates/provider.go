// Package candidates looks up canonical entities for the matchers to score.
// Lookups return bounded candidate lists; an empty list is a normal outcome,
// not an error.
package candidates

import (
	"context"
	"fmt"
	"time"

	"vlos-insights-go/internal/types"
)

// ZaakLookup is the outcome of the three-tier zaak fallback. Zaak and
// Dossier are mutually exclusive; Document only accompanies a Dossier.
type ZaakLookup struct {
	Zaak     *types.Zaak
	Dossier  *types.Dossier
	Document *types.Document
}

// Success reports whether any tier bound.
func (z ZaakLookup) Success() bool {
	return z.Zaak != nil || z.Dossier != nil
}

// NoCanonicalMeetingError means no Vergadering exists near the XML date.
// The pipeline cannot bind anything without one.
type NoCanonicalMeetingError struct {
	Datum time.Time
}

func (e *NoCanonicalMeetingError) Error() string {
	return fmt.Sprintf("no canonical vergadering found near %s", e.Datum.Format("2006-01-02"))
}

// Provider supplies canonical candidates from the graph.
type Provider interface {
	// CandidateMeetings returns meetings within the lookup window around the
	// XML date, narrowed by soort and nummer when present.
	CandidateMeetings(ctx context.Context, m types.XmlMeeting) ([]types.Vergadering, error)

	// CandidateActivities returns activities starting within the buffered
	// meeting window, with their actors attached.
	CandidateActivities(ctx context.Context, v types.Vergadering) ([]types.Activiteit, error)

	// CandidatePersonen returns persons by exact surname, falling back to a
	// substring search on the last surname token.
	CandidatePersonen(ctx context.Context, achternaam string) ([]types.Persoon, error)

	// FindZaakWithFallback resolves zaak -> dossier -> document tiers.
	FindZaakWithFallback(ctx context.Context, dossiernummer, stuknummer string) (ZaakLookup, error)

	// AgendapuntZaken returns the zaken reachable through the agendapunten
	// of a canonical activity.
	AgendapuntZaken(ctx context.Context, activiteitID string) ([]types.Zaak, error)
}
