package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/eser/ajan/logfx"
)

type fakeParamStore struct {
	params map[string]string
}

func newFakeParamStore() *fakeParamStore {
	return &fakeParamStore{params: make(map[string]string)}
}

func (f *fakeParamStore) GetParam(_ context.Context, name string) (string, bool, error) {
	value, found := f.params[name]

	return value, found, nil
}

func (f *fakeParamStore) PutParam(_ context.Context, name string, value string) error {
	f.params[name] = value

	return nil
}

func (f *fakeParamStore) DeleteParam(_ context.Context, name string) error {
	delete(f.params, name)

	return nil
}

type fakeInstanceAdmin struct {
	status    string
	starts    int
	stops     int
	snapshots []Snapshot
	deleted   []string
	restored  map[string]string

	failDelete map[string]error
}

func newFakeInstanceAdmin() *fakeInstanceAdmin {
	return &fakeInstanceAdmin{
		status:     "stopped",
		restored:   make(map[string]string),
		failDelete: make(map[string]error),
	}
}

func (f *fakeInstanceAdmin) DescribeInstance(_ context.Context, _ string) (*InstanceStatus, error) {
	return &InstanceStatus{Status: f.status}, nil
}

func (f *fakeInstanceAdmin) StartInstance(_ context.Context, _ string) error {
	f.starts++
	f.status = "starting"

	return nil
}

func (f *fakeInstanceAdmin) StopInstance(_ context.Context, _ string) error {
	f.stops++
	f.status = "stopping"

	return nil
}

func (f *fakeInstanceAdmin) CreateSnapshot(_ context.Context, _ string, snapshotID string) error {
	f.snapshots = append(f.snapshots, Snapshot{ID: snapshotID, CreatedAt: time.Now(), SizeGb: 20})

	return nil
}

func (f *fakeInstanceAdmin) DeleteSnapshot(_ context.Context, snapshotID string) error {
	if err, failing := f.failDelete[snapshotID]; failing {
		return err
	}

	f.deleted = append(f.deleted, snapshotID)

	kept := f.snapshots[:0]
	for _, snapshot := range f.snapshots {
		if snapshot.ID != snapshotID {
			kept = append(kept, snapshot)
		}
	}
	f.snapshots = kept

	return nil
}

func (f *fakeInstanceAdmin) ListManualSnapshots(_ context.Context, _ string) ([]Snapshot, error) {
	out := make([]Snapshot, len(f.snapshots))
	copy(out, f.snapshots)

	return out, nil
}

func (f *fakeInstanceAdmin) RestoreFromSnapshot(_ context.Context, newInstanceID string, snapshotID string) error {
	f.restored[newInstanceID] = snapshotID

	return nil
}

type fakeScheduler struct {
	armed   *time.Time
	arms    int
	disarms int
}

func (f *fakeScheduler) Arm(_ context.Context, at time.Time) error {
	f.armed = &at
	f.arms++

	return nil
}

func (f *fakeScheduler) Disarm(_ context.Context) error {
	f.armed = nil
	f.disarms++

	return nil
}

func newTestService(t *testing.T) (*Service, *fakeParamStore, *fakeInstanceAdmin, *fakeScheduler) {
	t.Helper()

	logger, err := logfx.NewLoggerAsDefault(io.Discard, &logfx.Config{}) //nolint:exhaustruct
	if err != nil {
		t.Fatalf("create logger: %v", err)
	}

	config := &Config{
		InstanceIDParam: "/nakom-admin/rds/instance-id",
		ShutdownAtParam: "/nakom-admin/rds/shutdown-at",
		ShutdownAfter:   4 * time.Hour,
		SnapshotPrefix:  "nakom-admin",
		SnapshotsToKeep: 4,
	}

	params := newFakeParamStore()
	params.params[config.InstanceIDParam] = "nakomis-db"

	instance := newFakeInstanceAdmin()
	schedule := &fakeScheduler{} //nolint:exhaustruct

	service := NewService(config, logger, params, instance, schedule)

	return service, params, instance, schedule
}

func TestStatusWithoutInstanceID(t *testing.T) {
	service, params, _, _ := newTestService(t)
	delete(params.params, service.Config.InstanceIDParam)

	_, err := service.Status(t.Context())
	if !errors.Is(err, ErrInstanceIDNotConfigured) {
		t.Fatalf("expected ErrInstanceIDNotConfigured, got %v", err)
	}
}

func TestStartArmsTimer(t *testing.T) {
	service, params, instance, schedule := newTestService(t)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }

	result, err := service.Start(t.Context())
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if instance.starts != 1 {
		t.Fatalf("expected 1 start call, got %d", instance.starts)
	}

	wantShutdown := now.Add(4 * time.Hour)
	if !result.ShutdownAt.Equal(wantShutdown) {
		t.Fatalf("unexpected shutdown time: %v", result.ShutdownAt)
	}

	stored := params.params[service.Config.ShutdownAtParam]
	if stored != wantShutdown.Format(time.RFC3339) {
		t.Fatalf("unexpected stored shutdown timestamp: %q", stored)
	}

	if schedule.armed == nil || !schedule.armed.Equal(wantShutdown) {
		t.Fatalf("schedule not armed at %v: %v", wantShutdown, schedule.armed)
	}
}

func TestRepeatedStartReplacesSchedule(t *testing.T) {
	service, _, _, schedule := newTestService(t)

	for range 3 {
		_, err := service.Start(t.Context())
		if err != nil {
			t.Fatalf("start: %v", err)
		}
	}

	// Each arm is preceded by a disarm, so triggers never accumulate.
	if schedule.arms != 3 || schedule.disarms != 3 {
		t.Fatalf("expected 3 arms and 3 disarms, got %d and %d", schedule.arms, schedule.disarms)
	}

	if schedule.armed == nil {
		t.Fatal("expected a schedule to remain armed")
	}
}

func TestStopClearsTimerAndIsRepeatable(t *testing.T) {
	service, params, instance, schedule := newTestService(t)

	_, err := service.Start(t.Context())
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	for range 2 {
		_, err := service.Stop(t.Context())
		if err != nil {
			t.Fatalf("stop: %v", err)
		}
	}

	if instance.stops != 2 {
		t.Fatalf("expected 2 stop calls, got %d", instance.stops)
	}

	if _, found := params.params[service.Config.ShutdownAtParam]; found {
		t.Fatal("shutdown timestamp should be cleared")
	}

	if schedule.armed != nil {
		t.Fatal("schedule should be disarmed")
	}
}

func TestExtendTimerDoesNotTouchInstance(t *testing.T) {
	service, _, instance, schedule := newTestService(t)

	result, err := service.ExtendTimer(t.Context())
	if err != nil {
		t.Fatalf("extend timer: %v", err)
	}

	if !result.Ok {
		t.Fatal("expected ok result")
	}

	if instance.starts != 0 || instance.stops != 0 {
		t.Fatal("extend timer must not start or stop the instance")
	}

	if schedule.armed == nil {
		t.Fatal("expected schedule to be armed")
	}
}

func TestSnapshotRetention(t *testing.T) {
	service, _, instance, _ := newTestService(t)

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := range 6 {
		service.now = func() time.Time { return base.Add(time.Duration(i) * time.Hour) }

		result, err := service.Snapshot(t.Context())
		if err != nil {
			t.Fatalf("snapshot %d: %v", i, err)
		}

		if !result.Ok {
			t.Fatalf("snapshot %d not ok", i)
		}
	}

	if len(instance.snapshots) != service.Config.SnapshotsToKeep {
		t.Fatalf("expected %d snapshots, got %d", service.Config.SnapshotsToKeep, len(instance.snapshots))
	}

	// The survivors must be the newest four.
	want := fmt.Sprintf("%s-%d", service.Config.SnapshotPrefix, base.Add(5*time.Hour).UnixMilli())

	found := false
	for _, snapshot := range instance.snapshots {
		if snapshot.ID == want {
			found = true
		}
	}

	if !found {
		t.Fatalf("latest snapshot %s missing from %v", want, instance.snapshots)
	}
}

func TestSnapshotPruneFailureDoesNotAbort(t *testing.T) {
	service, _, instance, _ := newTestService(t)

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	// Seed five older snapshots; the two oldest are prune candidates once a
	// sixth is created, and the very oldest refuses to delete.
	for i := range 5 {
		instance.snapshots = append(instance.snapshots, Snapshot{
			ID:        fmt.Sprintf("nakom-admin-%d", base.Add(time.Duration(i)*time.Hour).UnixMilli()),
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
			SizeGb:    20,
		})
	}

	stuck := instance.snapshots[0].ID
	instance.failDelete[stuck] = errors.New("snapshot busy")

	service.now = func() time.Time { return base.Add(6 * time.Hour) }

	result, err := service.Snapshot(t.Context())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	if result.Pruned != 1 {
		t.Fatalf("expected 1 pruned, got %d", result.Pruned)
	}

	for _, deleted := range instance.deleted {
		if deleted == stuck {
			t.Fatalf("stuck snapshot %s should not be recorded as deleted", stuck)
		}
	}
}

func TestSnapshotClearsTimer(t *testing.T) {
	service, params, _, schedule := newTestService(t)

	_, err := service.Start(t.Context())
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	_, err = service.Snapshot(t.Context())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	if _, found := params.params[service.Config.ShutdownAtParam]; found {
		t.Fatal("snapshot should clear the shutdown timestamp")
	}

	if schedule.armed != nil {
		t.Fatal("snapshot should disarm the schedule")
	}
}

func TestRestoreWithoutSnapshots(t *testing.T) {
	service, _, _, _ := newTestService(t)

	_, err := service.Restore(t.Context())
	if !errors.Is(err, ErrNoSnapshotAvailable) {
		t.Fatalf("expected ErrNoSnapshotAvailable, got %v", err)
	}
}

func TestRestoreUsesNewestSnapshot(t *testing.T) {
	service, _, instance, _ := newTestService(t)

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	instance.snapshots = []Snapshot{
		{ID: "nakom-admin-old", CreatedAt: base, SizeGb: 20},
		{ID: "nakom-admin-new", CreatedAt: base.Add(time.Hour), SizeGb: 20},
	}

	now := base.Add(2 * time.Hour)
	service.now = func() time.Time { return now }

	result, err := service.Restore(t.Context())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	wantID := fmt.Sprintf("nakomis-db-restored-%d", now.UnixMilli())
	if result.NewInstanceID != wantID {
		t.Fatalf("unexpected new instance id: %s", result.NewInstanceID)
	}

	if instance.restored[wantID] != "nakom-admin-new" {
		t.Fatalf("expected restore from newest snapshot, got %s", instance.restored[wantID])
	}
}

func TestTimerReflectsTimerState(t *testing.T) {
	service, _, _, _ := newTestService(t)

	result, err := service.Timer(t.Context())
	if err != nil {
		t.Fatalf("timer: %v", err)
	}

	if result.ShutdownAt != nil {
		t.Fatalf("expected no timer, got %v", result.ShutdownAt)
	}

	_, err = service.Start(t.Context())
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	result, err = service.Timer(t.Context())
	if err != nil {
		t.Fatalf("timer: %v", err)
	}

	if result.ShutdownAt == nil {
		t.Fatal("expected an armed timer")
	}
}

func TestSnapshotsNewestFirst(t *testing.T) {
	service, _, instance, _ := newTestService(t)

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	instance.snapshots = []Snapshot{
		{ID: "a", CreatedAt: base.Add(time.Hour)},
		{ID: "b", CreatedAt: base.Add(3 * time.Hour)},
		{ID: "c", CreatedAt: base.Add(2 * time.Hour)},
	}

	snapshots, err := service.Snapshots(t.Context())
	if err != nil {
		t.Fatalf("snapshots: %v", err)
	}

	wantOrder := []string{"b", "c", "a"}
	for i, want := range wantOrder {
		if snapshots[i].ID != want {
			t.Fatalf("unexpected order at %d: got %s, want %s", i, snapshots[i].ID, want)
		}
	}
}
