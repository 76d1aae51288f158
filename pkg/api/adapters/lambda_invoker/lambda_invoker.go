package lambda_invoker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/eser/ajan/logfx"

	"github.com/nakomis/nakom-admin/pkg/api/business/importing"
)

var _ importing.ExecuteInvoker = (*Invoker)(nil)

// Invoker hands staged batches to the deployed load-stage function by
// asynchronous invocation. The caller does not wait for load completion.
type Invoker struct {
	Config *Config

	logger *logfx.Logger
	client *lambda.Client
}

func New(config *Config, logger *logfx.Logger) *Invoker {
	return &Invoker{Config: config, logger: logger}
}

func (i *Invoker) Init(ctx context.Context) error {
	var cfgOptions []func(*config.LoadOptions) error

	if i.Config.ConnectionProfile != "" {
		cfgOptions = append(cfgOptions, config.WithSharedConfigProfile(i.Config.ConnectionProfile))
	}

	if i.Config.ConnectionRegion != "" {
		cfgOptions = append(cfgOptions, config.WithRegion(i.Config.ConnectionRegion))
	}

	sdkConfig, err := config.LoadDefaultConfig(ctx, cfgOptions...)
	if err != nil {
		i.logger.ErrorContext(ctx, "[LambdaInvoker] unable to load SDK config", "module", "lambda_invoker", "error", err)

		return fmt.Errorf("failed to load AWS SDK config: %w", err)
	}

	i.client = lambda.NewFromConfig(sdkConfig)

	i.logger.InfoContext(ctx, "[LambdaInvoker] Lambda invoker initialized", "module", "lambda_invoker", "functionName", i.Config.ExecuteFunctionName)

	return nil
}

func (i *Invoker) InvokeExecute(ctx context.Context, payload importing.ExecutePayload) error {
	i.logger.DebugContext(ctx, "[LambdaInvoker] Invoking load stage", "module", "lambda_invoker", "functionName", i.Config.ExecuteFunctionName, "stagingKey", payload.StagingKey)

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal execute payload: %w", err)
	}

	_, err = i.client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(i.Config.ExecuteFunctionName),
		InvocationType: types.InvocationTypeEvent,
		Payload:        body,
	})
	if err != nil {
		i.logger.ErrorContext(ctx, "[LambdaInvoker] Failed to invoke load stage", "module", "lambda_invoker", "functionName", i.Config.ExecuteFunctionName, "error", err)

		return fmt.Errorf("lambda.Invoke failed for %s: %w", i.Config.ExecuteFunctionName, err)
	}

	return nil
}
