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

// GoogleGateway implements Gateway for Google Gemini models.
type GoogleGateway struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	config     model.ProviderConfig
	retries    int
}

// Gemini generateContent API structures
type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig *geminiGenCfg   `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenCfg struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
}

// NewGoogleGateway creates a new Google Gemini gateway.
func NewGoogleGateway(config model.ProviderConfig, retries int) (*GoogleGateway, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Google API key is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	timeout := time.Duration(config.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &GoogleGateway{
		apiKey:     config.APIKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		config:     config,
		retries:    retries,
	}, nil
}

// Name returns the provider name.
func (g *GoogleGateway) Name() string {
	return "google"
}

// Evaluate sends the review prompt through the generateContent API.
func (g *GoogleGateway) Evaluate(ctx context.Context, prompt string) (*model.Verdict, error) {
	return withRetries(ctx, g.retries, func() (*model.Verdict, error) {
		return g.evaluateOnce(ctx, prompt)
	})
}

func (g *GoogleGateway) evaluateOnce(ctx context.Context, prompt string) (*model.Verdict, error) {
	chatModel := g.config.Model
	if chatModel == "" {
		chatModel = "gemini-1.5-flash"
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: reviewSystemMessage + "\n\n" + prompt}}},
		},
		GenerationConfig: &geminiGenCfg{Temperature: 0.2, MaxOutputTokens: 1024},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &ParseFailure{Provider: g.Name(), Err: fmt.Errorf("marshal request: %w", err)}
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, chatModel)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &TransportError{Provider: g.Name(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Provider: g.Name(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Provider: g.Name(), Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Provider: g.Name(), Err: fmt.Errorf("API returned %d", resp.StatusCode)}
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &ParseFailure{Provider: g.Name(), Raw: string(body), Err: err}
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, &ParseFailure{Provider: g.Name(), Raw: string(body), Err: fmt.Errorf("no candidates in response")}
	}

	return parseVerdict(g.Name(), parsed.Candidates[0].Content.Parts[0].Text)
}
