package blocklist

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/eser/ajan/logfx"
)

type fakeParamStore struct {
	params map[string]string
}

func (f *fakeParamStore) GetParam(_ context.Context, name string) (string, bool, error) {
	value, found := f.params[name]

	return value, found, nil
}

func (f *fakeParamStore) PutParam(_ context.Context, name string, value string) error {
	f.params[name] = value

	return nil
}

type fakeEdgeDeployer struct {
	deploys [][]string
}

func (f *fakeEdgeDeployer) Redeploy(_ context.Context, blockedIPs []string) error {
	f.deploys = append(f.deploys, blockedIPs)

	return nil
}

func newTestService(t *testing.T) (*Service, *fakeParamStore, *fakeEdgeDeployer) {
	t.Helper()

	logger, err := logfx.NewLoggerAsDefault(io.Discard, &logfx.Config{}) //nolint:exhaustruct
	if err != nil {
		t.Fatalf("create logger: %v", err)
	}

	config := &Config{
		BlockedIPsParam:  "/nakom.is/blocked-ips",
		MaxDocumentBytes: 3500,
	}

	params := &fakeParamStore{params: make(map[string]string)}
	edge := &fakeEdgeDeployer{} //nolint:exhaustruct

	return NewService(config, logger, params, edge), params, edge
}

func TestListEmptyWhenMissing(t *testing.T) {
	service, _, _ := newTestService(t)

	entries, err := service.List(t.Context())
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if len(entries) != 0 {
		t.Fatalf("expected empty list, got %d entries", len(entries))
	}
}

func TestListTreatsCorruptDocumentAsEmpty(t *testing.T) {
	service, params, _ := newTestService(t)
	params.params[service.Config.BlockedIPsParam] = "{not json"

	entries, err := service.List(t.Context())
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if len(entries) != 0 {
		t.Fatalf("expected empty list, got %d entries", len(entries))
	}
}

func TestAddBlocksAndRedeploys(t *testing.T) {
	service, params, edge := newTestService(t)

	result, err := service.Add(t.Context(), "203.0.113.7", "scanner")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if !result.Ok || result.Blocked != "203.0.113.7" {
		t.Fatalf("unexpected result: %+v", result)
	}

	var stored []Entry
	if err := json.Unmarshal([]byte(params.params[service.Config.BlockedIPsParam]), &stored); err != nil {
		t.Fatalf("unmarshal stored document: %v", err)
	}

	if len(stored) != 1 || stored[0].IP != "203.0.113.7" || stored[0].Reason != "scanner" {
		t.Fatalf("unexpected stored entries: %+v", stored)
	}

	if len(edge.deploys) != 1 || edge.deploys[0][0] != "203.0.113.7" {
		t.Fatalf("expected one redeploy with the blocked ip, got %+v", edge.deploys)
	}
}

func TestAddAlreadyBlockedIsNoOp(t *testing.T) {
	service, _, edge := newTestService(t)

	_, err := service.Add(t.Context(), "203.0.113.7", "scanner")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	result, err := service.Add(t.Context(), "203.0.113.7", "again")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if !result.AlreadyBlocked {
		t.Fatalf("expected alreadyBlocked, got %+v", result)
	}

	if len(edge.deploys) != 1 {
		t.Fatalf("no redeploy expected for a duplicate add, got %d", len(edge.deploys))
	}
}

func TestRemoveUnblocksAndRedeploys(t *testing.T) {
	service, _, edge := newTestService(t)

	_, err := service.Add(t.Context(), "203.0.113.7", "scanner")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	result, err := service.Remove(t.Context(), "203.0.113.7")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}

	if !result.Ok || result.Unblocked != "203.0.113.7" {
		t.Fatalf("unexpected result: %+v", result)
	}

	lastDeploy := edge.deploys[len(edge.deploys)-1]
	if len(lastDeploy) != 0 {
		t.Fatalf("expected empty ip set after removal, got %v", lastDeploy)
	}
}

func TestListNewestFirst(t *testing.T) {
	service, _, _ := newTestService(t)

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := range 3 {
		service.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }

		_, err := service.Add(t.Context(), fmt.Sprintf("203.0.113.%d", i), "")
		if err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	entries, err := service.List(t.Context())
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if entries[0].IP != "203.0.113.2" || entries[2].IP != "203.0.113.0" {
		t.Fatalf("expected newest first, got %+v", entries)
	}
}

func TestWritePrunesOldestWhenOversized(t *testing.T) {
	service, params, _ := newTestService(t)
	service.Config.MaxDocumentBytes = 300

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := range 20 {
		service.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }

		_, err := service.Add(t.Context(), fmt.Sprintf("198.51.100.%d", i), "high volume")
		if err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}

	document := params.params[service.Config.BlockedIPsParam]
	if len(document) > service.Config.MaxDocumentBytes {
		t.Fatalf("document exceeds budget: %d bytes", len(document))
	}

	var stored []Entry
	if err := json.Unmarshal([]byte(document), &stored); err != nil {
		t.Fatalf("unmarshal stored document: %v", err)
	}

	if len(stored) == 0 || len(stored) == 20 {
		t.Fatalf("expected partial pruning, got %d entries", len(stored))
	}

	// Survivors are the most recently blocked.
	last := stored[len(stored)-1]
	if last.IP != "198.51.100.19" {
		t.Fatalf("newest entry should survive pruning, got %s", last.IP)
	}
}
