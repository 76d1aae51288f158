package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/eser/ajan/logfx"

	"github.com/nakomis/nakom-admin/pkg/api/business/importing"
)

var (
	ErrProviderNotConfigured = errors.New("embedding provider not configured")
	ErrUnknownProvider       = errors.New("unknown embedding provider")
)

// Embedder is the business-side contract every provider client satisfies.
type Embedder = importing.Embedder

// Initer is implemented by clients that need startup-time setup. The app
// context calls Init on whichever client NewFromConfig hands back.
type Initer interface {
	Init(ctx context.Context) error
}

// NewFromConfig picks the embedding client named by the configuration.
func NewFromConfig(config *Config, logger *logfx.Logger) (Embedder, error) {
	switch config.Provider {
	case "bedrock":
		return NewBedrockClient(config, logger), nil
	case "openai":
		return NewOpenAIClient(config, logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, config.Provider)
	}
}
