package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/eser/ajan/logfx"
)

var _ Embedder = (*BedrockClient)(nil)

type titanEmbedRequest struct {
	InputText string `json:"inputText"`
}

type titanEmbedResponse struct {
	Embedding           []float32 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}

// BedrockClient produces embeddings through Amazon Titan Text Embeddings V2.
type BedrockClient struct {
	Config *Config

	logger *logfx.Logger
	client *bedrockruntime.Client
}

func NewBedrockClient(config *Config, logger *logfx.Logger) *BedrockClient {
	return &BedrockClient{Config: config, logger: logger}
}

func (b *BedrockClient) Init(ctx context.Context) error {
	sdkConfig, err := config.LoadDefaultConfig(ctx, config.WithRegion(b.Config.BedrockRegion))
	if err != nil {
		b.logger.ErrorContext(ctx, "[Providers] unable to load SDK config", "module", "providers", "error", err)

		return fmt.Errorf("failed to load AWS SDK config: %w", err)
	}

	b.client = bedrockruntime.NewFromConfig(sdkConfig)

	b.logger.InfoContext(ctx, "[Providers] Bedrock embedder initialized", "module", "providers", "model", b.Config.BedrockModel)

	return nil
}

func (b *BedrockClient) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(titanEmbedRequest{InputText: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embed request: %w", err)
	}

	output, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.Config.BedrockModel),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		b.logger.ErrorContext(ctx, "[Providers] Bedrock invocation failed", "module", "providers", "model", b.Config.BedrockModel, "error", err)

		return nil, fmt.Errorf("bedrockruntime.InvokeModel failed for %s: %w", b.Config.BedrockModel, err)
	}

	var response titanEmbedResponse

	err = json.Unmarshal(output.Body, &response)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal embed response: %w", err)
	}

	return response.Embedding, nil
}
