package lambda_invoker

type Config struct {
	ConnectionProfile string `conf:"CONNECTION_PROFILE" default:""`
	ConnectionRegion  string `conf:"CONNECTION_REGION" default:"eu-west-2"`

	ExecuteFunctionName string `conf:"EXECUTE_FUNCTION_NAME" default:"nakom-admin-import-execute"`
}
