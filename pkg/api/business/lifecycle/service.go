package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/eser/ajan/logfx"
)

var (
	ErrInstanceIDNotConfigured = errors.New("instance id parameter is not configured")
	ErrNoSnapshotAvailable     = errors.New("no snapshots available")
)

// Service is the state machine over the managed instance's power state and
// its auto-shutdown timer. The power state itself is externally owned; the
// timer sub-state (NO_TIMER / ARMED) is owned here, persisted as the
// shutdown-at parameter and mirrored by the one-shot schedule.
type Service struct {
	Config *Config

	logger   *logfx.Logger
	params   ParamStore
	instance InstanceAdmin
	schedule ShutdownScheduler

	now func() time.Time
}

func NewService(
	config *Config,
	logger *logfx.Logger,
	params ParamStore,
	instance InstanceAdmin,
	schedule ShutdownScheduler,
) *Service {
	return &Service{
		Config:   config,
		logger:   logger,
		params:   params,
		instance: instance,
		schedule: schedule,

		now: time.Now,
	}
}

func (s *Service) instanceID(ctx context.Context) (string, error) {
	id, found, err := s.params.GetParam(ctx, s.Config.InstanceIDParam)
	if err != nil {
		return "", fmt.Errorf("failed to read instance id parameter: %w", err)
	}

	if !found {
		return "", fmt.Errorf("%w: %s", ErrInstanceIDNotConfigured, s.Config.InstanceIDParam)
	}

	return id, nil
}

func (s *Service) Status(ctx context.Context) (*InstanceStatus, error) {
	instanceID, err := s.instanceID(ctx)
	if err != nil {
		return nil, err
	}

	status, err := s.instance.DescribeInstance(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to describe instance %s: %w", instanceID, err)
	}

	return status, nil
}

// Start brings the instance up and unconditionally re-arms the shutdown
// timer. Repeated starts replace the previous schedule rather than
// accumulating duplicates, so the instance is never left running
// unattended.
func (s *Service) Start(ctx context.Context) (*StartResult, error) {
	instanceID, err := s.instanceID(ctx)
	if err != nil {
		return nil, err
	}

	err = s.instance.StartInstance(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to start instance %s: %w", instanceID, err)
	}

	shutdownAt, err := s.armTimer(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "[Lifecycle] Instance starting, shutdown timer armed",
		"module", "lifecycle", "instanceId", instanceID, "shutdownAt", shutdownAt)

	return &StartResult{Ok: true, ShutdownAt: shutdownAt}, nil
}

// ExtendTimer re-arms the shutdown timer without touching the instance.
func (s *Service) ExtendTimer(ctx context.Context) (*StartResult, error) {
	shutdownAt, err := s.armTimer(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "[Lifecycle] Shutdown timer extended",
		"module", "lifecycle", "shutdownAt", shutdownAt)

	return &StartResult{Ok: true, ShutdownAt: shutdownAt}, nil
}

func (s *Service) armTimer(ctx context.Context) (time.Time, error) {
	shutdownAt := s.now().Add(s.Config.ShutdownAfter).UTC()

	err := s.params.PutParam(ctx, s.Config.ShutdownAtParam, shutdownAt.Format(time.RFC3339))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to persist shutdown timestamp: %w", err)
	}

	// Replace-not-accumulate: the previous schedule, if any, goes first.
	err = s.schedule.Disarm(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to remove previous shutdown schedule: %w", err)
	}

	err = s.schedule.Arm(ctx, shutdownAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to create shutdown schedule: %w", err)
	}

	return shutdownAt, nil
}

// Stop shuts the instance down and clears the timer state. This is the
// payload the scheduler fires, so it must be safe on a cold path with no
// prior Start in the same process and with the schedule already
// self-deleted.
func (s *Service) Stop(ctx context.Context) (*StartResult, error) {
	instanceID, err := s.instanceID(ctx)
	if err != nil {
		return nil, err
	}

	err = s.instance.StopInstance(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to stop instance %s: %w", instanceID, err)
	}

	err = s.clearTimer(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "[Lifecycle] Instance stopping, shutdown timer cleared",
		"module", "lifecycle", "instanceId", instanceID)

	return &StartResult{Ok: true}, nil
}

func (s *Service) clearTimer(ctx context.Context) error {
	err := s.params.DeleteParam(ctx, s.Config.ShutdownAtParam)
	if err != nil {
		return fmt.Errorf("failed to clear shutdown timestamp: %w", err)
	}

	err = s.schedule.Disarm(ctx)
	if err != nil {
		return fmt.Errorf("failed to remove shutdown schedule: %w", err)
	}

	return nil
}

// Snapshot creates a new manual snapshot, enforces the retention bound and
// clears the shutdown timer (a snapshot implies the instance is about to
// be stopped). Pruning is best-effort per item: one stale snapshot that
// refuses to delete must not abort the others or fail the action.
func (s *Service) Snapshot(ctx context.Context) (*SnapshotResult, error) {
	instanceID, err := s.instanceID(ctx)
	if err != nil {
		return nil, err
	}

	snapshotID := fmt.Sprintf("%s-%d", s.Config.SnapshotPrefix, s.now().UnixMilli())

	err = s.instance.CreateSnapshot(ctx, instanceID, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot %s: %w", snapshotID, err)
	}

	snapshots, err := s.availableSnapshots(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	pruned := 0

	for _, old := range snapshots[min(len(snapshots), s.Config.SnapshotsToKeep):] {
		err = s.instance.DeleteSnapshot(ctx, old.ID)
		if err != nil {
			s.logger.ErrorContext(ctx, "[Lifecycle] Failed to prune snapshot, continuing",
				"module", "lifecycle", "snapshotId", old.ID, "error", err)

			continue
		}

		pruned++
	}

	err = s.clearTimer(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "[Lifecycle] Snapshot created",
		"module", "lifecycle", "instanceId", instanceID, "snapshotId", snapshotID, "pruned", pruned)

	return &SnapshotResult{Ok: true, SnapshotID: snapshotID, Pruned: pruned}, nil
}

// Snapshots lists the available manual snapshots, newest first.
func (s *Service) Snapshots(ctx context.Context) ([]Snapshot, error) {
	instanceID, err := s.instanceID(ctx)
	if err != nil {
		return nil, err
	}

	return s.availableSnapshots(ctx, instanceID)
}

func (s *Service) availableSnapshots(ctx context.Context, instanceID string) ([]Snapshot, error) {
	snapshots, err := s.instance.ListManualSnapshots(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots for instance %s: %w", instanceID, err)
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].CreatedAt.After(snapshots[j].CreatedAt)
	})

	return snapshots, nil
}

// Restore restores the most recent snapshot into a fresh instance. The
// original instance is never touched; the caller gets the new identifier
// while restoration proceeds asynchronously.
func (s *Service) Restore(ctx context.Context) (*RestoreResult, error) {
	instanceID, err := s.instanceID(ctx)
	if err != nil {
		return nil, err
	}

	snapshots, err := s.availableSnapshots(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	if len(snapshots) == 0 {
		return nil, ErrNoSnapshotAvailable
	}

	newInstanceID := fmt.Sprintf("%s-restored-%d", instanceID, s.now().UnixMilli())

	err = s.instance.RestoreFromSnapshot(ctx, newInstanceID, snapshots[0].ID)
	if err != nil {
		return nil, fmt.Errorf("failed to restore snapshot %s: %w", snapshots[0].ID, err)
	}

	s.logger.InfoContext(ctx, "[Lifecycle] Restore requested",
		"module", "lifecycle", "snapshotId", snapshots[0].ID, "newInstanceId", newInstanceID)

	return &RestoreResult{Ok: true, NewInstanceID: newInstanceID}, nil
}

// Timer reports the persisted shutdown timestamp, or nil when no timer is
// armed.
func (s *Service) Timer(ctx context.Context) (*TimerResult, error) {
	value, found, err := s.params.GetParam(ctx, s.Config.ShutdownAtParam)
	if err != nil {
		return nil, fmt.Errorf("failed to read shutdown timestamp: %w", err)
	}

	if !found {
		return &TimerResult{ShutdownAt: nil}, nil
	}

	shutdownAt, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("failed to parse shutdown timestamp %q: %w", value, err)
	}

	return &TimerResult{ShutdownAt: &shutdownAt}, nil
}
