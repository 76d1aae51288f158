package object_store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/eser/ajan/logfx"

	"github.com/nakomis/nakom-admin/pkg/api/business/importing"
	"github.com/nakomis/nakom-admin/pkg/api/business/logmining"
)

var (
	_ importing.BatchStage     = (*Store)(nil)
	_ logmining.LogObjectStore = (*Store)(nil)
)

// Store is the object-storage adapter: the write-once staging area between
// the import stages, and the read path over the CDN access-log bucket.
type Store struct {
	Config *Config

	logger *logfx.Logger
	client *s3.Client
}

func New(config *Config, logger *logfx.Logger) *Store {
	return &Store{Config: config, logger: logger}
}

func (s *Store) Init(ctx context.Context) error {
	var cfgOptions []func(*config.LoadOptions) error
	var s3ClientOptions []func(*s3.Options)

	if s.Config.ConnectionEndpoint != "" {
		customResolver := NewEndpointResolver(s.Config.ConnectionEndpoint)
		s3ClientOptions = append(s3ClientOptions, s3.WithEndpointResolverV2(customResolver))
		s3ClientOptions = append(s3ClientOptions, func(o *s3.Options) { o.UsePathStyle = true })
	}

	if s.Config.ConnectionProfile != "" {
		cfgOptions = append(cfgOptions, config.WithSharedConfigProfile(s.Config.ConnectionProfile))
	}

	if s.Config.ConnectionRegion != "" {
		cfgOptions = append(cfgOptions, config.WithRegion(s.Config.ConnectionRegion))
	}

	sdkConfig, err := config.LoadDefaultConfig(ctx, cfgOptions...)
	if err != nil {
		s.logger.ErrorContext(ctx, "[ObjectStore] unable to load SDK config", "module", "object_store", "error", err)

		return fmt.Errorf("failed to load AWS SDK config: %w", err)
	}

	s.client = s3.NewFromConfig(sdkConfig, s3ClientOptions...)

	s.logger.InfoContext(ctx, "[ObjectStore] Object store initialized", "module", "object_store", "region", s.Config.ConnectionRegion, "stagingBucket", s.Config.StagingBucket)

	return nil
}

func (s *Store) StagingBucket() string {
	return s.Config.StagingBucket
}

func (s *Store) PutBatch(ctx context.Context, key string, records []importing.ChatLogRecord) error {
	s.logger.DebugContext(ctx, "[ObjectStore] Staging batch", "module", "object_store", "bucket", s.Config.StagingBucket, "key", key, "records", len(records))

	body, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal batch %s: %w", key, err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Config.StagingBucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "[ObjectStore] Failed to stage batch", "module", "object_store", "bucket", s.Config.StagingBucket, "key", key, "error", err)

		return fmt.Errorf("s3.PutObject failed for %s: %w", key, err)
	}

	return nil
}

func (s *Store) GetBatch(ctx context.Context, bucket string, key string) ([]importing.ChatLogRecord, error) {
	s.logger.DebugContext(ctx, "[ObjectStore] Reading staged batch", "module", "object_store", "bucket", bucket, "key", key)

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3.GetObject failed for %s: %w", key, err)
	}
	defer result.Body.Close() //nolint:errcheck

	var records []importing.ChatLogRecord

	err = json.NewDecoder(result.Body).Decode(&records)
	if err != nil {
		return nil, fmt.Errorf("failed to decode staged batch %s: %w", key, err)
	}

	return records, nil
}

// ListKeysSince pages through the prefix and keeps the objects modified at
// or after the given instant.
func (s *Store) ListKeysSince(ctx context.Context, bucket string, prefix string, since time.Time) ([]string, error) {
	s.logger.DebugContext(ctx, "[ObjectStore] Listing objects", "module", "object_store", "bucket", bucket, "prefix", prefix, "since", since)

	var keys []string
	var token *string

	for {
		result, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("s3.ListObjectsV2 failed for %s/%s: %w", bucket, prefix, err)
		}

		for _, object := range result.Contents {
			if object.LastModified != nil && !object.LastModified.Before(since) {
				keys = append(keys, aws.ToString(object.Key))
			}
		}

		if result.NextContinuationToken == nil {
			break
		}

		token = result.NextContinuationToken
	}

	return keys, nil
}

func (s *Store) GetObject(ctx context.Context, bucket string, key string) (io.ReadCloser, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3.GetObject failed for %s: %w", key, err)
	}

	return result.Body, nil
}
