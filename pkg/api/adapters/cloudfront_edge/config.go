package cloudfront_edge

type Config struct {
	FunctionName string `conf:"FUNCTION_NAME" default:"nakomis-social-redirect"`

	// The CloudFront control plane is global and served out of us-east-1.
	ConnectionRegion  string `conf:"REGION" default:"us-east-1"`
	ConnectionProfile string `conf:"PROFILE" default:""`
}
