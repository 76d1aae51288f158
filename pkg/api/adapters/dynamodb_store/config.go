package dynamodb_store

type Config struct {
	ConnectionEndpoint string `conf:"CONNECTION_ENDPOINT" default:""`
	ConnectionProfile  string `conf:"CONNECTION_PROFILE" default:""`
	ConnectionRegion   string `conf:"CONNECTION_REGION" default:"eu-west-2"`

	TableName string `conf:"TABLE_NAME" default:"cv-chat-logs"`
}
