package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/factgate/internal/model"
)

const reviewSystemMessage = "You are an adversarial fact-check reviewer. " +
	"You respond with a single JSON object and nothing else."

// OpenAIGateway implements Gateway for OpenAI models.
type OpenAIGateway struct {
	client  *openai.Client
	config  model.ProviderConfig
	retries int
}

// NewOpenAIGateway creates a new OpenAI gateway.
func NewOpenAIGateway(config model.ProviderConfig, retries int) (*OpenAIGateway, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIGateway{
		client:  openai.NewClientWithConfig(clientConfig),
		config:  config,
		retries: retries,
	}, nil
}

// Name returns the provider name.
func (g *OpenAIGateway) Name() string {
	return "openai"
}

// Evaluate sends the review prompt through the Chat Completions API.
func (g *OpenAIGateway) Evaluate(ctx context.Context, prompt string) (*model.Verdict, error) {
	return withRetries(ctx, g.retries, func() (*model.Verdict, error) {
		return g.evaluateOnce(ctx, prompt)
	})
}

func (g *OpenAIGateway) evaluateOnce(ctx context.Context, prompt string) (*model.Verdict, error) {
	chatModel := g.config.Model
	if chatModel == "" {
		chatModel = openai.GPT4oMini
	}

	timeout := time.Duration(g.config.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := g.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: reviewSystemMessage},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, &TransportError{Provider: g.Name(), Err: err}
	}

	if len(resp.Choices) == 0 {
		return nil, &ParseFailure{Provider: g.Name(), Err: fmt.Errorf("empty choice list")}
	}

	return parseVerdict(g.Name(), resp.Choices[0].Message.Content)
}
