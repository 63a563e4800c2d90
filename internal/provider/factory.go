package provider

import (
	"fmt"
	"strings"

	"github.com/ppiankov/factgate/internal/model"
)

// New creates a gateway for the named provider. retries is the number of
// transport-level retries per call.
func New(config model.ProviderConfig, retries int) (Gateway, error) {
	switch strings.ToLower(config.Name) {
	case "openai":
		return NewOpenAIGateway(config, retries)

	case "anthropic", "claude":
		return NewAnthropicGateway(config, retries)

	case "google", "gemini":
		return NewGoogleGateway(config, retries)

	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: openai, anthropic, google)", config.Name)
	}
}
