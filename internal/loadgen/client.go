package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

// httpClient wraps http.Client with context-aware JSON helpers.
type httpClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *httpClient {
	return &httpClient{client: &http.Client{Timeout: timeout}}
}

// get performs a GET and returns the status and parsed body.
func (c *httpClient) get(ctx context.Context, url string) (int, gjson.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return 0, gjson.Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req)
}

// post marshals body and POSTs it as JSON.
func (c *httpClient) post(ctx context.Context, url string, body any) (int, gjson.Result, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, gjson.Result{}, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, gjson.Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *httpClient) do(req *http.Request) (int, gjson.Result, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, gjson.Result{}, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, gjson.Result{}, fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) > 0 && !gjson.ValidBytes(body) {
		return resp.StatusCode, gjson.Result{}, nil
	}
	return resp.StatusCode, gjson.ParseBytes(body), nil
}
