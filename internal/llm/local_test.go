package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLocalProvider_Generate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/completions" {
			t.Errorf("Expected path /v1/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer local-key" {
			t.Errorf("Unexpected Authorization header: %q", r.Header.Get("Authorization"))
		}
		var req localRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.N != 1 || req.MaxTokens != 1500 {
			t.Errorf("Unexpected request: %+v", req)
		}
		_, _ = w.Write([]byte(`{"choices": [{"text": "  {\"a\": 1}  "}]}`))
	}))
	defer server.Close()

	provider, err := NewLocalProvider(Config{BaseURL: server.URL + "/v1/completions", APIKey: "local-key"})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	text, err := provider.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text != `{"a": 1}` {
		t.Errorf("Unexpected text: %q", text)
	}
}

func TestLocalProvider_Generate_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	provider, _ := NewLocalProvider(Config{BaseURL: server.URL})
	_, err := provider.Generate(context.Background(), "prompt")
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("Expected ErrEmptyResponse, got %v", err)
	}
}

func TestLocalProvider_Generate_Status(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	provider, _ := NewLocalProvider(Config{BaseURL: server.URL})
	_, err := provider.Generate(context.Background(), "prompt")

	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusBadGateway {
		t.Fatalf("Expected StatusError 502, got %v", err)
	}
	if !Retryable(err) {
		t.Error("Expected 502 to be retryable")
	}
}

func TestLocalProvider_RequiresEndpoint(t *testing.T) {
	if _, err := NewLocalProvider(Config{}); err == nil {
		t.Fatal("Expected error without endpoint")
	}
}
