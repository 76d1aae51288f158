package analytics_db

type Config struct {
	Host     string `conf:"HOST" default:"localhost"`
	Port     int    `conf:"PORT" default:"5432"`
	Database string `conf:"DATABASE" default:"analytics"`
	User     string `conf:"USER" default:"analytics"`
	Password string `conf:"PASSWORD" default:""`
	SSLMode  string `conf:"SSL_MODE" default:"require"`

	// EmbeddingDims must match the embedder output; a chat_logs table
	// created with a different vector width is dropped and recreated.
	EmbeddingDims int `conf:"EMBEDDING_DIMS" default:"1024"`
}
