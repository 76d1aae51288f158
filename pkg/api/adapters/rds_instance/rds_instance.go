package rds_instance

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/eser/ajan/logfx"

	"github.com/nakomis/nakom-admin/pkg/api/business/lifecycle"
)

var _ lifecycle.InstanceAdmin = (*Client)(nil)

// Client drives the managed PostgreSQL instance and its manual snapshots.
type Client struct {
	Config *Config

	logger *logfx.Logger
	client *rds.Client
}

func New(config *Config, logger *logfx.Logger) *Client {
	return &Client{Config: config, logger: logger}
}

func (c *Client) Init(ctx context.Context) error {
	var cfgOptions []func(*config.LoadOptions) error

	if c.Config.ConnectionProfile != "" {
		cfgOptions = append(cfgOptions, config.WithSharedConfigProfile(c.Config.ConnectionProfile))
	}

	if c.Config.ConnectionRegion != "" {
		cfgOptions = append(cfgOptions, config.WithRegion(c.Config.ConnectionRegion))
	}

	sdkConfig, err := config.LoadDefaultConfig(ctx, cfgOptions...)
	if err != nil {
		c.logger.ErrorContext(ctx, "[RdsInstance] unable to load SDK config", "module", "rds_instance", "error", err)

		return fmt.Errorf("failed to load AWS SDK config: %w", err)
	}

	c.client = rds.NewFromConfig(sdkConfig)

	c.logger.InfoContext(ctx, "[RdsInstance] RDS client initialized", "module", "rds_instance", "region", c.Config.ConnectionRegion)

	return nil
}

func (c *Client) DescribeInstance(ctx context.Context, instanceID string) (*lifecycle.InstanceStatus, error) {
	result, err := c.client.DescribeDBInstances(ctx, &rds.DescribeDBInstancesInput{
		DBInstanceIdentifier: aws.String(instanceID),
	})
	if err != nil {
		return nil, fmt.Errorf("rds.DescribeDBInstances failed for %s: %w", instanceID, err)
	}

	if len(result.DBInstances) == 0 {
		return &lifecycle.InstanceStatus{}, nil
	}

	db := result.DBInstances[0]
	status := &lifecycle.InstanceStatus{Status: aws.ToString(db.DBInstanceStatus)}

	if db.Endpoint != nil {
		status.Endpoint = aws.ToString(db.Endpoint.Address)
	}

	return status, nil
}

func (c *Client) StartInstance(ctx context.Context, instanceID string) error {
	c.logger.DebugContext(ctx, "[RdsInstance] Starting instance", "module", "rds_instance", "instanceId", instanceID)

	_, err := c.client.StartDBInstance(ctx, &rds.StartDBInstanceInput{
		DBInstanceIdentifier: aws.String(instanceID),
	})
	if err != nil {
		return fmt.Errorf("rds.StartDBInstance failed for %s: %w", instanceID, err)
	}

	return nil
}

func (c *Client) StopInstance(ctx context.Context, instanceID string) error {
	c.logger.DebugContext(ctx, "[RdsInstance] Stopping instance", "module", "rds_instance", "instanceId", instanceID)

	_, err := c.client.StopDBInstance(ctx, &rds.StopDBInstanceInput{
		DBInstanceIdentifier: aws.String(instanceID),
	})
	if err != nil {
		return fmt.Errorf("rds.StopDBInstance failed for %s: %w", instanceID, err)
	}

	return nil
}

func (c *Client) CreateSnapshot(ctx context.Context, instanceID string, snapshotID string) error {
	c.logger.DebugContext(ctx, "[RdsInstance] Creating snapshot", "module", "rds_instance", "instanceId", instanceID, "snapshotId", snapshotID)

	_, err := c.client.CreateDBSnapshot(ctx, &rds.CreateDBSnapshotInput{
		DBInstanceIdentifier: aws.String(instanceID),
		DBSnapshotIdentifier: aws.String(snapshotID),
	})
	if err != nil {
		return fmt.Errorf("rds.CreateDBSnapshot failed for %s: %w", snapshotID, err)
	}

	return nil
}

func (c *Client) DeleteSnapshot(ctx context.Context, snapshotID string) error {
	c.logger.DebugContext(ctx, "[RdsInstance] Deleting snapshot", "module", "rds_instance", "snapshotId", snapshotID)

	_, err := c.client.DeleteDBSnapshot(ctx, &rds.DeleteDBSnapshotInput{
		DBSnapshotIdentifier: aws.String(snapshotID),
	})
	if err != nil {
		return fmt.Errorf("rds.DeleteDBSnapshot failed for %s: %w", snapshotID, err)
	}

	return nil
}

// ListManualSnapshots projects the instance's available manual snapshots.
func (c *Client) ListManualSnapshots(ctx context.Context, instanceID string) ([]lifecycle.Snapshot, error) {
	result, err := c.client.DescribeDBSnapshots(ctx, &rds.DescribeDBSnapshotsInput{
		DBInstanceIdentifier: aws.String(instanceID),
		SnapshotType:         aws.String("manual"),
	})
	if err != nil {
		return nil, fmt.Errorf("rds.DescribeDBSnapshots failed for %s: %w", instanceID, err)
	}

	snapshots := make([]lifecycle.Snapshot, 0, len(result.DBSnapshots))

	for _, snapshot := range result.DBSnapshots {
		if aws.ToString(snapshot.Status) != "available" {
			continue
		}

		entry := lifecycle.Snapshot{ID: aws.ToString(snapshot.DBSnapshotIdentifier)}

		if snapshot.SnapshotCreateTime != nil {
			entry.CreatedAt = *snapshot.SnapshotCreateTime
		}

		if snapshot.AllocatedStorage != nil {
			entry.SizeGb = *snapshot.AllocatedStorage
		}

		snapshots = append(snapshots, entry)
	}

	return snapshots, nil
}

func (c *Client) RestoreFromSnapshot(ctx context.Context, newInstanceID string, snapshotID string) error {
	c.logger.DebugContext(ctx, "[RdsInstance] Restoring snapshot", "module", "rds_instance", "snapshotId", snapshotID, "newInstanceId", newInstanceID)

	_, err := c.client.RestoreDBInstanceFromDBSnapshot(ctx, &rds.RestoreDBInstanceFromDBSnapshotInput{
		DBInstanceIdentifier: aws.String(newInstanceID),
		DBSnapshotIdentifier: aws.String(snapshotID),
		DBInstanceClass:      aws.String(c.Config.RestoreInstanceClass),
	})
	if err != nil {
		return fmt.Errorf("rds.RestoreDBInstanceFromDBSnapshot failed for %s: %w", snapshotID, err)
	}

	return nil
}
