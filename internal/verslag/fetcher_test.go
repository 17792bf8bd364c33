package verslag

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(t *testing.T, handler http.HandlerFunc) *Fetcher {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	t.Setenv("VLOS_API_BASE_URL", srv.URL)
	return NewFetcher()
}

func TestFetchStripsBOM(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Verslag(abc-123)/resource", r.URL.Path)
		w.Write([]byte{0xEF, 0xBB, 0xBF})
		w.Write([]byte("<vergadering/>"))
	})

	body, err := f.Fetch(context.Background(), "abc-123")
	require.NoError(t, err)
	assert.Equal(t, "<vergadering/>", string(body))
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls int
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("<vergadering/>"))
	})

	body, err := f.Fetch(context.Background(), "abc-123")
	require.NoError(t, err)
	assert.Equal(t, "<vergadering/>", string(body))
	assert.Equal(t, 3, calls)
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := f.Fetch(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Equal(t, 1, calls)
}

func TestFetchEmptyID(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := f.Fetch(context.Background(), "")
	assert.Error(t, err)
}
