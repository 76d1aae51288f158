package lifecycle

import (
	"context"
	"time"
)

// InstanceStatus mirrors the externally-owned power state of the managed
// database instance. The endpoint is empty while the instance is stopped.
type InstanceStatus struct {
	Status   string `json:"status"`
	Endpoint string `json:"endpoint,omitempty"`
}

// Snapshot is a manual point-in-time copy of the instance. Only snapshots
// whose external status is "available" are surfaced.
type Snapshot struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	SizeGb    int32     `json:"sizeGb"`
}

type StartResult struct {
	Ok         bool      `json:"ok"`
	ShutdownAt time.Time `json:"shutdownAt"`
}

type SnapshotResult struct {
	Ok         bool   `json:"ok"`
	SnapshotID string `json:"snapshotId"`
	Pruned     int    `json:"pruned"`
}

type RestoreResult struct {
	Ok            bool   `json:"ok"`
	NewInstanceID string `json:"newInstanceId"`
}

type TimerResult struct {
	ShutdownAt *time.Time `json:"shutdownAt"`
}

// ParamStore is the durable key-value store for the small strings the
// controller owns (shutdown timestamp) or consumes (instance id).
type ParamStore interface {
	GetParam(ctx context.Context, name string) (string, bool, error)
	PutParam(ctx context.Context, name string, value string) error

	// DeleteParam must succeed when the parameter does not exist.
	DeleteParam(ctx context.Context, name string) error
}

// InstanceAdmin drives the external database instance and its snapshots.
type InstanceAdmin interface {
	DescribeInstance(ctx context.Context, instanceID string) (*InstanceStatus, error)
	StartInstance(ctx context.Context, instanceID string) error
	StopInstance(ctx context.Context, instanceID string) error
	CreateSnapshot(ctx context.Context, instanceID string, snapshotID string) error
	DeleteSnapshot(ctx context.Context, snapshotID string) error

	// ListManualSnapshots returns the available manual snapshots of the
	// instance, in no particular order.
	ListManualSnapshots(ctx context.Context, instanceID string) ([]Snapshot, error)

	RestoreFromSnapshot(ctx context.Context, newInstanceID string, snapshotID string) error
}

// ShutdownScheduler manages the single one-shot trigger that invokes the
// stop action. The schedule self-deletes after firing, so Disarm must
// succeed when no schedule exists.
type ShutdownScheduler interface {
	Arm(ctx context.Context, at time.Time) error
	Disarm(ctx context.Context) error
}
