package dynamodb_store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/eser/ajan/logfx"

	"github.com/nakomis/nakom-admin/pkg/api/business/importing"
)

var _ importing.SourceStore = (*Store)(nil)

// Store reads raw chat-log records out of the key-value source table.
// The table is externally owned; this adapter only ever queries it.
type Store struct {
	Config *Config

	logger *logfx.Logger
	client *dynamodb.Client
}

func New(config *Config, logger *logfx.Logger) *Store {
	return &Store{Config: config, logger: logger}
}

func (s *Store) Init(ctx context.Context) error {
	var cfgOptions []func(*config.LoadOptions) error
	var ddbClientOptions []func(*dynamodb.Options)

	if s.Config.ConnectionEndpoint != "" {
		customResolver := NewEndpointResolver(s.Config.ConnectionEndpoint)
		ddbClientOptions = append(ddbClientOptions, dynamodb.WithEndpointResolverV2(customResolver))
	}

	if s.Config.ConnectionProfile != "" {
		cfgOptions = append(cfgOptions, config.WithSharedConfigProfile(s.Config.ConnectionProfile))
	}

	if s.Config.ConnectionRegion != "" {
		cfgOptions = append(cfgOptions, config.WithRegion(s.Config.ConnectionRegion))
	}

	sdkConfig, err := config.LoadDefaultConfig(ctx, cfgOptions...)
	if err != nil {
		s.logger.ErrorContext(ctx, "[DynamoDbStore] unable to load SDK config for DynamoDb", "module", "dynamodb_store", "error", err)

		return fmt.Errorf("failed to load AWS SDK config: %w", err)
	}

	s.client = dynamodb.NewFromConfig(sdkConfig, ddbClientOptions...)

	s.logger.InfoContext(ctx, "[DynamoDbStore] DynamoDb Store initialized", "module", "dynamodb_store", "region", s.Config.ConnectionRegion, "endpoint", s.Config.ConnectionEndpoint, "tableName", s.Config.TableName)

	return nil
}

// QueryChatLogsAfter returns the chat records whose sort key is strictly
// greater than the cursor. Sentinel records sharing the partition key are
// excluded by the userMessage existence filter.
func (s *Store) QueryChatLogsAfter(ctx context.Context, logType string, cursor string) ([]importing.SourceRecord, error) {
	s.logger.DebugContext(ctx, "[DynamoDbStore] Querying chat logs past cursor", "module", "dynamodb_store", "tableName", s.Config.TableName, "logType", logType, "cursor", cursor)

	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.Config.TableName),
		KeyConditionExpression: aws.String("logType = :lt AND sk > :cursor"),
		FilterExpression:       aws.String("attribute_exists(userMessage)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":lt":     &types.AttributeValueMemberS{Value: logType},
			":cursor": &types.AttributeValueMemberS{Value: cursor},
		},
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "[DynamoDbStore] Failed to query chat logs", "module", "dynamodb_store", "tableName", s.Config.TableName, "error", err)

		return nil, fmt.Errorf("dynamodb.Query failed for table %s: %w", s.Config.TableName, err)
	}

	var records []importing.SourceRecord

	err = attributevalue.UnmarshalListOfMaps(result.Items, &records)
	if err != nil {
		s.logger.ErrorContext(ctx, "[DynamoDbStore] Failed to unmarshal chat logs", "module", "dynamodb_store", "tableName", s.Config.TableName, "error", err)

		return nil, fmt.Errorf("attributevalue.UnmarshalListOfMaps failed for table %s: %w", s.Config.TableName, err)
	}

	return records, nil
}
