package scheduler

type Config struct {
	ConnectionProfile string `conf:"CONNECTION_PROFILE" default:""`
	ConnectionRegion  string `conf:"CONNECTION_REGION" default:"eu-west-2"`

	ScheduleName  string `conf:"SCHEDULE_NAME" default:"nakom-admin-rds-shutdown"`
	ScheduleGroup string `conf:"SCHEDULE_GROUP" default:"default"`

	// TargetArn is the function the one-shot trigger invokes; RoleArn is
	// what the scheduler service assumes to do so.
	TargetArn string `conf:"TARGET_ARN" default:""`
	RoleArn   string `conf:"ROLE_ARN" default:""`

	// TargetInput is the payload delivered on firing.
	TargetInput string `conf:"TARGET_INPUT" default:"{\"action\":\"stop\"}"`
}
