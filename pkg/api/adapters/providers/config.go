package providers

type Config struct {
	// Provider selects the embedding backend: "bedrock" or "openai".
	Provider string `conf:"PROVIDER" default:"bedrock"`

	// Bedrock runs out of a fixed region independent of the rest of the
	// stack; Titan v2 returns 1024-dimension vectors.
	BedrockRegion string `conf:"BEDROCK_REGION" default:"eu-west-2"`
	BedrockModel  string `conf:"BEDROCK_MODEL" default:"amazon.titan-embed-text-v2:0"`

	OpenAIAPIKey string `conf:"OPENAI_API_KEY" default:""`
	OpenAIModel  string `conf:"OPENAI_MODEL" default:"text-embedding-3-small"`
}
