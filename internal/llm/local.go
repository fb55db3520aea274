package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// LocalProvider talks to a self-hosted OpenAI-compatible completions
// endpoint such as LM Studio. BaseURL is the full endpoint URL.
type LocalProvider struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	config     Config
}

type localRequest struct {
	Model       string  `json:"model,omitempty"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	N           int     `json:"n"`
}

type localResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

// NewLocalProvider creates a provider for a local completions endpoint
func NewLocalProvider(config Config) (*LocalProvider, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("local LLM endpoint is required (set LOCAL_LLM_API_ENDPOINT)")
	}
	return &LocalProvider{
		endpoint:   config.BaseURL,
		apiKey:     config.APIKey,
		httpClient: newHTTPClient(config, config.timeout(60*time.Second)),
		config:     config,
	}, nil
}

// Name returns the provider name
func (p *LocalProvider) Name() string {
	return "local"
}

// IsAvailable checks the endpoint answers a GET with 200
func (p *LocalProvider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return false
	}
	p.setHeaders(req)
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

func (p *LocalProvider) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
}

// Generate posts a single completion request and returns choices[0].text
func (p *LocalProvider) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(localRequest{
		Model:       p.config.Model,
		Prompt:      prompt,
		MaxTokens:   p.config.maxTokens(),
		Temperature: p.config.Temperature,
		N:           1,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	p.setHeaders(httpReq)

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("local LLM request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return "", &StatusError{Provider: "local", StatusCode: httpResp.StatusCode, Message: string(respBody)}
	}

	var resp localResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Text) == "" {
		return "", fmt.Errorf("local: %w", ErrEmptyResponse)
	}
	return strings.TrimSpace(resp.Choices[0].Text), nil
}
