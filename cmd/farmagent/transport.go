package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sandahltim/StardewAI-sub000/internal/bridge"
	"github.com/sandahltim/StardewAI-sub000/internal/world"
)

// httpTransport is the production bridge.Transport: a plain net/http
// client against the in-process bridge's REST surface, following the
// teacher's llm adapter idiom (marshal, NewRequestWithContext, Do,
// check status, unmarshal) rather than introducing a new HTTP client
// library the corpus never reaches for.
type httpTransport struct {
	baseURL string
	client  *http.Client
}

func newHTTPTransport(baseURL string, timeout time.Duration) *httpTransport {
	return &httpTransport{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (t *httpTransport) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bridge error (status %d): %s", resp.StatusCode, string(body))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func (t *httpTransport) GetState(ctx context.Context) (world.WorldSnapshot, error) {
	var snap world.WorldSnapshot
	err := t.get(ctx, "/state", &snap)
	return snap, err
}

func (t *httpTransport) GetSurroundings(ctx context.Context) (world.Surroundings, error) {
	var s world.Surroundings
	err := t.get(ctx, "/surroundings", &s)
	return s, err
}

func (t *httpTransport) GetFarm(ctx context.Context) (world.FarmSnapshot, error) {
	var f world.FarmSnapshot
	err := t.get(ctx, "/farm", &f)
	return f, err
}

func (t *httpTransport) CheckPath(ctx context.Context, from, to world.Tile) (bridge.PathResult, error) {
	q := url.Values{}
	q.Set("sx", strconv.Itoa(from.X))
	q.Set("sy", strconv.Itoa(from.Y))
	q.Set("ex", strconv.Itoa(to.X))
	q.Set("ey", strconv.Itoa(to.Y))

	var r bridge.PathResult
	err := t.get(ctx, "/check-path?"+q.Encode(), &r)
	return r, err
}

func (t *httpTransport) Execute(ctx context.Context, action bridge.PrimitiveAction) (bridge.ActionResult, error) {
	body, err := json.Marshal(action)
	if err != nil {
		return bridge.ActionResult{}, fmt.Errorf("marshal action: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/action", bytes.NewReader(body))
	if err != nil {
		return bridge.ActionResult{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return bridge.ActionResult{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return bridge.ActionResult{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return bridge.ActionResult{}, fmt.Errorf("bridge error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result bridge.ActionResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return bridge.ActionResult{}, fmt.Errorf("unmarshal response: %w", err)
	}
	return result, nil
}
