package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sandahltim/StardewAI-sub000/internal/config"
)

// anthropicVLMProvider implements vlm.Provider against Claude's vision
// API, following the teacher's AnthropicAdapter (src/internal/llm/
// adapters.go) request/response shape, narrowed to the one-image,
// one-turn call the VLM collaborator contract needs.
type anthropicVLMProvider struct {
	apiKey    string
	model     string
	baseURL   string
	maxTokens int
	client    *http.Client
}

func newVLMProvider(cfg config.LLMConfig, apiKey string) *anthropicVLMProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com/v1"
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &anthropicVLMProvider{
		apiKey:    apiKey,
		model:     cfg.Model,
		baseURL:   baseURL,
		maxTokens: cfg.MaxTokens,
		client:    &http.Client{Timeout: timeout},
	}
}

type vlmRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	Messages  []vlmMessage `json:"messages"`
}

type vlmMessage struct {
	Role    string         `json:"role"`
	Content []vlmContent   `json:"content"`
}

type vlmContent struct {
	Type   string        `json:"type"`
	Text   string        `json:"text,omitempty"`
	Source *vlmImageBlob `json:"source,omitempty"`
}

type vlmImageBlob struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type vlmResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Complete implements vlm.Provider: one image plus one prompt in, raw
// text out. The tolerant JSON extraction of that text happens in
// vlm.ParseResponse, not here.
func (p *anthropicVLMProvider) Complete(ctx context.Context, imagePNG []byte, prompt string) (string, error) {
	req := vlmRequest{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		Messages: []vlmMessage{
			{
				Role: "user",
				Content: []vlmContent{
					{
						Type: "image",
						Source: &vlmImageBlob{
							Type:      "base64",
							MediaType: "image/png",
							Data:      base64.StdEncoding.EncodeToString(imagePNG),
						},
					},
					{Type: "text", Text: prompt},
				},
			},
		},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal VLM request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build VLM request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("VLM request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read VLM response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("VLM API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var parsed vlmResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("unmarshal VLM response: %w", err)
	}

	var out string
	for _, c := range parsed.Content {
		if c.Type == "text" {
			out += c.Text
		}
	}
	return out, nil
}
