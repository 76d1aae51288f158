package providers

import (
	"context"
	"fmt"

	"github.com/eser/ajan/logfx"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var _ Embedder = (*OpenAIClient)(nil)

// EmbeddingDimensions is pinned so OpenAI vectors stay interchangeable with
// the Titan vectors already stored in the analytics database.
const EmbeddingDimensions = 1024

// OpenAIClient is an alternative embedder for environments without Bedrock
// access. Dimensions are forced down to match the Titan vector width.
type OpenAIClient struct {
	Config *Config

	logger *logfx.Logger
	client *openai.Client
}

func NewOpenAIClient(config *Config, logger *logfx.Logger) *OpenAIClient {
	return &OpenAIClient{Config: config, logger: logger}
}

func (o *OpenAIClient) Init(ctx context.Context) error {
	if o.Config.OpenAIAPIKey == "" {
		return fmt.Errorf("%w: OPENAI_API_KEY is required for the openai provider", ErrProviderNotConfigured)
	}

	o.client = openai.NewClient(option.WithAPIKey(o.Config.OpenAIAPIKey))

	o.logger.InfoContext(ctx, "[Providers] OpenAI embedder initialized", "module", "providers", "model", o.Config.OpenAIModel)

	return nil
}

func (o *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := o.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model:      openai.F(o.Config.OpenAIModel),
		Input:      openai.F(openai.EmbeddingNewParamsInputUnion(openai.EmbeddingNewParamsInputArrayOfStrings{text})),
		Dimensions: openai.F(int64(EmbeddingDimensions)),
	})
	if err != nil {
		o.logger.ErrorContext(ctx, "[Providers] OpenAI embedding failed", "module", "providers", "model", o.Config.OpenAIModel, "error", err)

		return nil, fmt.Errorf("openai embeddings request failed: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai embeddings request returned no data")
	}

	embedding := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		embedding[i] = float32(v)
	}

	return embedding, nil
}
