package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sandahltim/StardewAI-sub000/internal/config"
)

func TestNewVLMProvider_DefaultsBaseURLAndTimeout(t *testing.T) {
	p := newVLMProvider(config.LLMConfig{Model: "claude-vision"}, "key")
	if p.baseURL != "https://api.anthropic.com/v1" {
		t.Errorf("baseURL = %q, want the default Anthropic endpoint", p.baseURL)
	}
	if p.client.Timeout <= 0 {
		t.Error("expected a positive default timeout")
	}
}

func TestNewVLMProvider_RespectsConfiguredValues(t *testing.T) {
	p := newVLMProvider(config.LLMConfig{BaseURL: "https://example.test", TimeoutSec: 5, Model: "m"}, "key")
	if p.baseURL != "https://example.test" {
		t.Errorf("baseURL = %q, want override preserved", p.baseURL)
	}
}

func TestAnthropicVLMProvider_Complete_SendsImageAndPromptReturnsText(t *testing.T) {
	var gotReq vlmRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "secret" {
			t.Errorf("x-api-key = %q, want secret", r.Header.Get("x-api-key"))
		}
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"content": []map[string]string{{"type": "text", "text": `{"actions":[]}`}},
		})
	}))
	defer srv.Close()

	p := newVLMProvider(config.LLMConfig{BaseURL: srv.URL, Model: "claude-vision", MaxTokens: 100}, "secret")
	out, err := p.Complete(context.Background(), []byte{1, 2, 3}, "what should I do?")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != `{"actions":[]}` {
		t.Errorf("Complete() = %q", out)
	}
	if len(gotReq.Messages) != 1 || len(gotReq.Messages[0].Content) != 2 {
		t.Fatalf("request shape = %+v, want one message with image+text content", gotReq)
	}
	if gotReq.Messages[0].Content[1].Text != "what should I do?" {
		t.Errorf("prompt content = %q", gotReq.Messages[0].Content[1].Text)
	}
}

func TestAnthropicVLMProvider_Complete_NonOKStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := newVLMProvider(config.LLMConfig{BaseURL: srv.URL}, "secret")
	if _, err := p.Complete(context.Background(), nil, "prompt"); err == nil {
		t.Fatal("expected an error for a non-200 VLM response")
	}
}
