package lifecycle

import "time"

type Config struct {
	InstanceIDParam string `conf:"INSTANCE_ID_PARAM" default:"/nakom-admin/rds/instance-id"`
	ShutdownAtParam string `conf:"SHUTDOWN_AT_PARAM" default:"/nakom-admin/rds/shutdown-at"`

	ShutdownAfter time.Duration `conf:"SHUTDOWN_AFTER" default:"4h"`

	SnapshotPrefix  string `conf:"SNAPSHOT_PREFIX" default:"nakom-admin"`
	SnapshotsToKeep int    `conf:"SNAPSHOTS_TO_KEEP" default:"4"`
}
