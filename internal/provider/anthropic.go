package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/factgate/internal/model"
)

// AnthropicGateway implements Gateway for Anthropic Claude models.
type AnthropicGateway struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	config     model.ProviderConfig
	retries    int
}

// Anthropic Messages API structures
type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	Temperature float64            `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
}

type anthropicError struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewAnthropicGateway creates a new Anthropic gateway.
func NewAnthropicGateway(config model.ProviderConfig, retries int) (*AnthropicGateway, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}

	timeout := time.Duration(config.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &AnthropicGateway{
		apiKey:     config.APIKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		config:     config,
		retries:    retries,
	}, nil
}

// Name returns the provider name.
func (g *AnthropicGateway) Name() string {
	return "anthropic"
}

// Evaluate sends the review prompt through the Messages API.
func (g *AnthropicGateway) Evaluate(ctx context.Context, prompt string) (*model.Verdict, error) {
	return withRetries(ctx, g.retries, func() (*model.Verdict, error) {
		return g.evaluateOnce(ctx, prompt)
	})
}

func (g *AnthropicGateway) evaluateOnce(ctx context.Context, prompt string) (*model.Verdict, error) {
	chatModel := g.config.Model
	if chatModel == "" {
		chatModel = "claude-3-5-haiku-20241022"
	}

	reqBody := anthropicRequest{
		Model:       chatModel,
		MaxTokens:   1024,
		System:      reviewSystemMessage,
		Messages:    []anthropicMessage{{Role: "user", Content: prompt}},
		Temperature: 0.2,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &ParseFailure{Provider: g.Name(), Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return nil, &TransportError{Provider: g.Name(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", g.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Provider: g.Name(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Provider: g.Name(), Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode >= 500 {
		return nil, &TransportError{Provider: g.Name(), Err: fmt.Errorf("API returned %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr anthropicError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, &TransportError{Provider: g.Name(), Err: fmt.Errorf("API error %d: %s", resp.StatusCode, apiErr.Error.Message)}
		}
		return nil, &TransportError{Provider: g.Name(), Err: fmt.Errorf("API returned %d", resp.StatusCode)}
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &ParseFailure{Provider: g.Name(), Raw: string(body), Err: err}
	}
	if len(parsed.Content) == 0 {
		return nil, &ParseFailure{Provider: g.Name(), Raw: string(body), Err: fmt.Errorf("empty content blocks")}
	}

	return parseVerdict(g.Name(), parsed.Content[0].Text)
}
