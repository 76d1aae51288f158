package cloudfront_edge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	"github.com/eser/ajan/logfx"

	"github.com/nakomis/nakom-admin/pkg/api/business/blocklist"
)

var _ blocklist.EdgeDeployer = (*Deployer)(nil)

// Deployer rewrites and republishes the CloudFront viewer-request function
// with the current blocked IP set embedded in its source.
type Deployer struct {
	Config *Config

	logger *logfx.Logger
	client *cloudfront.Client
}

func New(config *Config, logger *logfx.Logger) *Deployer {
	return &Deployer{Config: config, logger: logger}
}

func (d *Deployer) Init(ctx context.Context) error {
	var cfgOptions []func(*config.LoadOptions) error

	if d.Config.ConnectionProfile != "" {
		cfgOptions = append(cfgOptions, config.WithSharedConfigProfile(d.Config.ConnectionProfile))
	}

	if d.Config.ConnectionRegion != "" {
		cfgOptions = append(cfgOptions, config.WithRegion(d.Config.ConnectionRegion))
	}

	sdkConfig, err := config.LoadDefaultConfig(ctx, cfgOptions...)
	if err != nil {
		d.logger.ErrorContext(ctx, "[CloudFrontEdge] unable to load SDK config", "module", "cloudfront_edge", "error", err)

		return fmt.Errorf("failed to load AWS SDK config: %w", err)
	}

	d.client = cloudfront.NewFromConfig(sdkConfig)

	d.logger.InfoContext(ctx, "[CloudFrontEdge] Edge deployer initialized", "module", "cloudfront_edge", "functionName", d.Config.FunctionName)

	return nil
}

// Redeploy describes the LIVE function for its ETag, uploads the rendered
// source against that ETag, and publishes the resulting revision. A
// concurrent deploy changes the ETag and fails the update, which is the
// intended conflict behavior.
func (d *Deployer) Redeploy(ctx context.Context, blockedIPs []string) error {
	described, err := d.client.DescribeFunction(ctx, &cloudfront.DescribeFunctionInput{
		Name:  aws.String(d.Config.FunctionName),
		Stage: types.FunctionStageLive,
	})
	if err != nil {
		d.logger.ErrorContext(ctx, "[CloudFrontEdge] Failed to describe function", "module", "cloudfront_edge", "functionName", d.Config.FunctionName, "error", err)

		return fmt.Errorf("cloudfront.DescribeFunction failed for %s: %w", d.Config.FunctionName, err)
	}

	code, err := renderFunction(blockedIPs)
	if err != nil {
		return err
	}

	updated, err := d.client.UpdateFunction(ctx, &cloudfront.UpdateFunctionInput{
		Name:    aws.String(d.Config.FunctionName),
		IfMatch: described.ETag,
		FunctionConfig: &types.FunctionConfig{
			Comment: aws.String("Social redirect + IP block"),
			Runtime: types.FunctionRuntimeCloudfrontJs20,
		},
		FunctionCode: code,
	})
	if err != nil {
		d.logger.ErrorContext(ctx, "[CloudFrontEdge] Failed to update function", "module", "cloudfront_edge", "functionName", d.Config.FunctionName, "error", err)

		return fmt.Errorf("cloudfront.UpdateFunction failed for %s: %w", d.Config.FunctionName, err)
	}

	_, err = d.client.PublishFunction(ctx, &cloudfront.PublishFunctionInput{
		Name:    aws.String(d.Config.FunctionName),
		IfMatch: updated.ETag,
	})
	if err != nil {
		d.logger.ErrorContext(ctx, "[CloudFrontEdge] Failed to publish function", "module", "cloudfront_edge", "functionName", d.Config.FunctionName, "error", err)

		return fmt.Errorf("cloudfront.PublishFunction failed for %s: %w", d.Config.FunctionName, err)
	}

	d.logger.InfoContext(ctx, "[CloudFrontEdge] Function republished", "module", "cloudfront_edge", "functionName", d.Config.FunctionName, "blockedIps", len(blockedIPs))

	return nil
}

// renderFunction embeds the blocked IP set into the viewer-request function
// source. The non-blocklist behavior (the /social redirect pair) is part of
// the deployed function and must be preserved verbatim on every redeploy.
func renderFunction(blockedIPs []string) ([]byte, error) {
	if blockedIPs == nil {
		blockedIPs = []string{}
	}

	ipSet, err := json.Marshal(blockedIPs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal blocked ip set: %w", err)
	}

	code := fmt.Sprintf(`function handler(event) {
    var BLOCKED = %s;
    var ip = (event.request.headers['x-forwarded-for'] || {value:''}).value.split(',')[0].trim();
    if (BLOCKED.indexOf(ip) !== -1) {
        return { statusCode: 403, statusDescription: 'Forbidden' };
    }
    var uri = event.request.uri;
    if (uri === '/social' || uri === '/social/') {
        return { statusCode: 301, statusDescription: 'Moved Permanently',
                 headers: { location: { value: '/' } } };
    }
    if (uri === '/') { event.request.uri = '/social'; }
    return event.request;
}`, ipSet)

	return []byte(code), nil
}
