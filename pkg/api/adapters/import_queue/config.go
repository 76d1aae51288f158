package import_queue

type Config struct {
	ConnectionEndpoint string `conf:"CONNECTION_ENDPOINT" default:""`
	ConnectionProfile  string `conf:"CONNECTION_PROFILE" default:""`
	ConnectionRegion   string `conf:"CONNECTION_REGION" default:"eu-west-2"`

	QueueName string `conf:"QUEUE_NAME" default:"nakom-admin-import-execute"`

	MaxNumberOfMessages int32 `conf:"MAX_NUMBER_OF_MESSAGES" default:"10"`
	WaitTimeSeconds     int32 `conf:"WAIT_TIME_SECONDS" default:"10"`
	VisibilityTimeout   int32 `conf:"VISIBILITY_TIMEOUT" default:"300"`
}
