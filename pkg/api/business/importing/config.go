package importing

type Config struct {
	CursorParam string `conf:"CURSOR_PARAM" default:"/nakom.is/analytics/CVCHAT/last-imported-timestamp"`

	LogType string `conf:"LOG_TYPE" default:"CVCHAT"`

	StagingPrefix string `conf:"STAGING_PREFIX" default:"import-staging"`

	// Soft upper bound on embedding input; oversized messages are
	// truncated rather than rejected.
	MaxEmbedChars int `conf:"MAX_EMBED_CHARS" default:"8000"`
}
