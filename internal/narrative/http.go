package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTP posts {prompt, data} to a generic completion endpoint and returns the
// response body verbatim.
type HTTP struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewHTTP(endpoint, apiKey string, timeout time.Duration) *HTTP {
	return &HTTP{endpoint: endpoint, apiKey: apiKey, client: &http.Client{Timeout: timeout}}
}

func (h *HTTP) Summarize(ctx context.Context, p Payload) (string, error) {
	if h.endpoint == "" {
		return "", fmt.Errorf("%w: LLM_ENDPOINT is required when LLM_PROVIDER is http", ErrUnavailable)
	}
	body, err := json.Marshal(map[string]any{"prompt": Instruction, "data": p})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: LLM request failed %d: %s", ErrUnavailable, resp.StatusCode, truncate(string(text), 512))
	}
	return string(text), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
