package rds_instance

type Config struct {
	ConnectionProfile string `conf:"CONNECTION_PROFILE" default:""`
	ConnectionRegion  string `conf:"CONNECTION_REGION" default:"eu-west-2"`

	// Restores always go into a fresh instance; this is its class.
	RestoreInstanceClass string `conf:"RESTORE_INSTANCE_CLASS" default:"db.t4g.micro"`
}
