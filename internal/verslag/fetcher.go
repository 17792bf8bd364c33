// Package verslag downloads verslag XML documents from the Tweede Kamer
// open data API.
package verslag

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"vlos-insights-go/internal/logger"
)

const defaultBaseURL = "https://gegevensmagazijn.tweedekamer.nl/OData/v4/2.0"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Fetcher downloads verslag resources by id. Transient failures are retried
// with exponential backoff; client errors abort immediately.
type Fetcher struct {
	baseURL string
	client  *http.Client
	log     *logrus.Entry
}

// NewFetcher reads VLOS_API_BASE_URL, falling back to the public endpoint.
func NewFetcher() *Fetcher {
	base := os.Getenv("VLOS_API_BASE_URL")
	if base == "" {
		base = defaultBaseURL
	}
	return &Fetcher{
		baseURL: strings.TrimRight(base, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     logger.New().WithField("component", "verslag.fetcher"),
	}
}

// Fetch downloads the XML resource of one verslag. The returned bytes have
// the UTF-8 BOM stripped, some verslagen carry one.
func (f *Fetcher) Fetch(ctx context.Context, verslagID string) ([]byte, error) {
	if verslagID == "" {
		return nil, fmt.Errorf("verslag id is empty")
	}
	endpoint := fmt.Sprintf("%s/Verslag(%s)/resource", f.baseURL, verslagID)
	log := f.log.WithField("verslag_id", verslagID)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 60 * time.Second

	var body []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := f.client.Do(req)
		if err != nil {
			log.WithField("error", err.Error()).Warn("verslag fetch failed, retrying")
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return backoff.Permanent(fmt.Errorf("verslag %s: status %d", verslagID, resp.StatusCode))
		}
		if resp.StatusCode >= 500 {
			log.WithField("status", resp.StatusCode).Warn("verslag fetch server error, retrying")
			return fmt.Errorf("verslag %s: status %d", verslagID, resp.StatusCode)
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}

	body = bytes.TrimPrefix(body, utf8BOM)
	log.WithField("bytes", len(body)).Info("verslag downloaded")
	return body, nil
}
