package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

func NewHTTPClient(timeout time.Duration) HTTPClient {
	return &http.Client{Timeout: timeout}
}

// UpstreamDataError is the single failure kind for the Graph API: transport
// errors, non-2xx statuses and 200 bodies carrying an "error" object.
type UpstreamDataError struct {
	Path    string
	Status  int
	Message string
}

func (e *UpstreamDataError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("Meta API error %d on %s: %s", e.Status, e.Path, e.Message)
	}
	return fmt.Sprintf("Meta API error on %s: %s", e.Path, e.Message)
}

// Outcome labels passed to a Graph observer.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Graph is a thin, non-retrying client for the Marketing API. One Graph is
// built per request because it carries that request's access token.
type Graph struct {
	c       HTTPClient
	baseURL string
	token   string
	observe func(outcome string)
}

type GraphOption func(*Graph)

// WithObserver reports the outcome of every call, e.g. to a counter.
func WithObserver(fn func(outcome string)) GraphOption {
	return func(g *Graph) { g.observe = fn }
}

func NewGraph(c HTTPClient, baseURL, version, token string, opts ...GraphOption) *Graph {
	g := &Graph{
		c:       c,
		baseURL: strings.TrimRight(baseURL, "/") + "/" + strings.Trim(version, "/"),
		token:   token,
		observe: func(string) {},
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Get issues one GET. Non-string params are JSON-encoded, which is how the
// API expects time_range and filtering.
func (g *Graph) Get(ctx context.Context, path string, params map[string]any) (map[string]any, error) {
	out, err := g.get(ctx, path, params)
	if err != nil {
		g.observe(OutcomeError)
		return nil, err
	}
	g.observe(OutcomeOK)
	return out, nil
}

func (g *Graph) get(ctx context.Context, path string, params map[string]any) (map[string]any, error) {
	path = strings.TrimLeft(path, "/")
	q, err := encodeParams(params)
	if err != nil {
		return nil, &UpstreamDataError{Path: path, Message: err.Error()}
	}
	q.Set("access_token", g.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/"+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, &UpstreamDataError{Path: path, Message: err.Error()}
	}
	resp, err := g.c.Do(req)
	if err != nil {
		// caller cancellation is not an upstream failure
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s: %w", path, ctxErr)
		}
		// url.Error would echo the query string, token included
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, &UpstreamDataError{Path: path, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamDataError{Path: path, Status: resp.StatusCode, Message: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamDataError{Path: path, Status: resp.StatusCode, Message: truncate(string(body), 1024)}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, &UpstreamDataError{Path: path, Status: resp.StatusCode, Message: "invalid JSON: " + err.Error()}
	}
	if apiErr, ok := payload["error"]; ok {
		return nil, &UpstreamDataError{Path: path, Status: resp.StatusCode, Message: describeAPIError(apiErr)}
	}
	return payload, nil
}

func encodeParams(params map[string]any) (url.Values, error) {
	q := url.Values{}
	for k, v := range params {
		switch tv := v.(type) {
		case string:
			q.Set(k, tv)
		default:
			b, err := json.Marshal(tv)
			if err != nil {
				return nil, fmt.Errorf("encode param %s: %w", k, err)
			}
			q.Set(k, string(b))
		}
	}
	return q, nil
}

func describeAPIError(v any) string {
	m, ok := v.(map[string]any)
	if !ok {
		return fmt.Sprint(v)
	}
	msg, _ := m["message"].(string)
	if msg == "" {
		b, _ := json.Marshal(m)
		return string(b)
	}
	if typ, _ := m["type"].(string); typ != "" {
		msg = typ + ": " + msg
	}
	if code, ok := m["code"]; ok {
		msg = fmt.Sprintf("%s (code %v)", msg, code)
	}
	return msg
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
