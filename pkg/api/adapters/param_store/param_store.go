package param_store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/eser/ajan/logfx"

	"github.com/nakomis/nakom-admin/pkg/api/business/blocklist"
	"github.com/nakomis/nakom-admin/pkg/api/business/importing"
	"github.com/nakomis/nakom-admin/pkg/api/business/lifecycle"
)

var (
	_ lifecycle.ParamStore  = (*Store)(nil)
	_ importing.CursorStore = (*Store)(nil)
	_ blocklist.ParamStore  = (*Store)(nil)
)

// Store is the Parameter Store adapter. Reads and writes are atomic per
// key, last-write-wins; deletes of missing parameters report success.
type Store struct {
	Config *Config

	logger *logfx.Logger
	client *ssm.Client
}

func New(config *Config, logger *logfx.Logger) *Store {
	return &Store{Config: config, logger: logger}
}

func (s *Store) Init(ctx context.Context) error {
	var cfgOptions []func(*config.LoadOptions) error
	var ssmClientOptions []func(*ssm.Options)

	if s.Config.ConnectionEndpoint != "" {
		customResolver := NewEndpointResolver(s.Config.ConnectionEndpoint)
		ssmClientOptions = append(ssmClientOptions, ssm.WithEndpointResolverV2(customResolver))
	}

	if s.Config.ConnectionProfile != "" {
		cfgOptions = append(cfgOptions, config.WithSharedConfigProfile(s.Config.ConnectionProfile))
	}

	if s.Config.ConnectionRegion != "" {
		cfgOptions = append(cfgOptions, config.WithRegion(s.Config.ConnectionRegion))
	}

	sdkConfig, err := config.LoadDefaultConfig(ctx, cfgOptions...)
	if err != nil {
		s.logger.ErrorContext(ctx, "[ParamStore] unable to load SDK config", "module", "param_store", "error", err)

		return fmt.Errorf("failed to load AWS SDK config: %w", err)
	}

	s.client = ssm.NewFromConfig(sdkConfig, ssmClientOptions...)

	s.logger.InfoContext(ctx, "[ParamStore] Parameter Store initialized", "module", "param_store", "region", s.Config.ConnectionRegion, "endpoint", s.Config.ConnectionEndpoint)

	return nil
}

func (s *Store) GetParam(ctx context.Context, name string) (string, bool, error) {
	s.logger.DebugContext(ctx, "[ParamStore] Getting parameter", "module", "param_store", "name", name)

	result, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name: aws.String(name),
	})
	if err != nil {
		var notFoundEx *types.ParameterNotFound

		if errors.As(err, &notFoundEx) {
			return "", false, nil
		}

		s.logger.ErrorContext(ctx, "[ParamStore] Failed to get parameter", "module", "param_store", "name", name, "error", err)

		return "", false, fmt.Errorf("ssm.GetParameter failed for %s: %w", name, err)
	}

	return aws.ToString(result.Parameter.Value), true, nil
}

func (s *Store) PutParam(ctx context.Context, name string, value string) error {
	s.logger.DebugContext(ctx, "[ParamStore] Putting parameter", "module", "param_store", "name", name)

	_, err := s.client.PutParameter(ctx, &ssm.PutParameterInput{
		Name:      aws.String(name),
		Value:     aws.String(value),
		Type:      types.ParameterTypeString,
		Overwrite: aws.Bool(true),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "[ParamStore] Failed to put parameter", "module", "param_store", "name", name, "error", err)

		return fmt.Errorf("ssm.PutParameter failed for %s: %w", name, err)
	}

	return nil
}

// DeleteParam treats a missing parameter as success; idempotent delete is
// a first-class policy of the callers.
func (s *Store) DeleteParam(ctx context.Context, name string) error {
	s.logger.DebugContext(ctx, "[ParamStore] Deleting parameter", "module", "param_store", "name", name)

	_, err := s.client.DeleteParameter(ctx, &ssm.DeleteParameterInput{
		Name: aws.String(name),
	})
	if err != nil {
		var notFoundEx *types.ParameterNotFound

		if errors.As(err, &notFoundEx) {
			return nil
		}

		s.logger.ErrorContext(ctx, "[ParamStore] Failed to delete parameter", "module", "param_store", "name", name, "error", err)

		return fmt.Errorf("ssm.DeleteParameter failed for %s: %w", name, err)
	}

	return nil
}
