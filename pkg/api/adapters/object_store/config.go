package object_store

type Config struct {
	ConnectionEndpoint string `conf:"CONNECTION_ENDPOINT" default:""`
	ConnectionProfile  string `conf:"CONNECTION_PROFILE" default:""`
	ConnectionRegion   string `conf:"CONNECTION_REGION" default:"eu-west-2"`

	// StagingBucket holds staged import batches; it carries a 1-day
	// expiry rule, the batches are pure transport.
	StagingBucket string `conf:"STAGING_BUCKET" default:""`
}
