package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGraph(t *testing.T, h http.HandlerFunc, timeout time.Duration, opts ...GraphOption) *Graph {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewGraph(NewHTTPClient(timeout), srv.URL, "v19.0", "secret-token", opts...)
}

func TestGraphHandles500(t *testing.T) {
	g := newTestGraph(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}, 2*time.Second)

	_, err := g.Get(context.Background(), "act_1/insights", nil)
	var ue *UpstreamDataError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusInternalServerError, ue.Status)
	assert.Contains(t, ue.Message, "internal error")
}

func TestGraphHandles404(t *testing.T) {
	g := newTestGraph(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}, 2*time.Second)

	_, err := g.Get(context.Background(), "missing", nil)
	var ue *UpstreamDataError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusNotFound, ue.Status)
}

func TestGraphErrorFieldInOKBody(t *testing.T) {
	g := newTestGraph(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error":{"message":"Invalid OAuth access token.","type":"OAuthException","code":190}}`))
	}, 2*time.Second)

	_, err := g.Get(context.Background(), "act_1/insights", nil)
	var ue *UpstreamDataError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusOK, ue.Status)
	assert.Equal(t, "OAuthException: Invalid OAuth access token. (code 190)", ue.Message)
}

func TestGraphHandlesTimeoutWithoutLeakingToken(t *testing.T) {
	g := newTestGraph(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}, 50*time.Millisecond)

	_, err := g.Get(context.Background(), "act_1/insights", nil)
	var ue *UpstreamDataError
	require.True(t, errors.As(err, &ue))
	assert.NotContains(t, err.Error(), "secret-token")
}

func TestGraphCancelledContextIsNotUpstreamError(t *testing.T) {
	g := newTestGraph(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}, 2*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Get(ctx, "act_1/insights", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	var ue *UpstreamDataError
	assert.False(t, errors.As(err, &ue))
	assert.NotContains(t, err.Error(), "secret-token")
}

func TestGraphEncodesParamsAndToken(t *testing.T) {
	var seenPath string
	var seenQuery map[string][]string
	var outcomes []string
	g := newTestGraph(t, func(w http.ResponseWriter, r *http.Request) {
		seenPath = r.URL.Path
		seenQuery = r.URL.Query()
		w.Write([]byte(`{"data":[]}`))
	}, 2*time.Second, WithObserver(func(o string) { outcomes = append(outcomes, o) }))

	_, err := g.Get(context.Background(), "/act_1/insights", map[string]any{
		"fields":     "spend",
		"time_range": map[string]string{"since": "2024-01-01", "until": "today"},
	})
	require.NoError(t, err)
	assert.Equal(t, "/v19.0/act_1/insights", seenPath)
	assert.Equal(t, "spend", seenQuery["fields"][0])
	assert.Equal(t, "secret-token", seenQuery["access_token"][0])

	var tr map[string]string
	require.NoError(t, json.Unmarshal([]byte(seenQuery["time_range"][0]), &tr))
	assert.Equal(t, "today", tr["until"])
	assert.Equal(t, []string{OutcomeOK}, outcomes)
}

func TestGraphRejectsNonJSON(t *testing.T) {
	g := newTestGraph(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	}, 2*time.Second)

	_, err := g.Get(context.Background(), "act_1/insights", nil)
	var ue *UpstreamDataError
	require.True(t, errors.As(err, &ue))
	assert.Contains(t, ue.Message, "invalid JSON")
}
