package blocklist

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/eser/ajan/logfx"
)

type Service struct {
	Config *Config

	logger *logfx.Logger
	params ParamStore
	edge   EdgeDeployer

	now func() time.Time
}

func NewService(config *Config, logger *logfx.Logger, params ParamStore, edge EdgeDeployer) *Service {
	return &Service{
		Config: config,
		logger: logger,
		params: params,
		edge:   edge,

		now: time.Now,
	}
}

// List returns the current entries, newest first. A missing or unparsable
// document reads as an empty list.
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	entries, err := s.read(ctx)
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].BlockedAt.After(entries[j].BlockedAt)
	})

	return entries, nil
}

// Add blocks an IP and redeploys the edge function with the new set.
// Adding an already-blocked IP is a no-op.
func (s *Service) Add(ctx context.Context, ip string, reason string) (*AddResult, error) {
	entries, err := s.read(ctx)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if entry.IP == ip {
			return &AddResult{Ok: true, AlreadyBlocked: true}, nil
		}
	}

	entries = append(entries, Entry{IP: ip, BlockedAt: s.now().UTC(), Reason: reason})

	err = s.write(ctx, entries)
	if err != nil {
		return nil, err
	}

	err = s.edge.Redeploy(ctx, ips(entries))
	if err != nil {
		return nil, fmt.Errorf("failed to redeploy edge function: %w", err)
	}

	s.logger.InfoContext(ctx, "[Blocklist] IP blocked",
		"module", "blocklist", "ip", ip, "reason", reason)

	return &AddResult{Ok: true, Blocked: ip}, nil
}

// Remove unblocks an IP and redeploys the edge function.
func (s *Service) Remove(ctx context.Context, ip string) (*RemoveResult, error) {
	entries, err := s.read(ctx)
	if err != nil {
		return nil, err
	}

	filtered := entries[:0]

	for _, entry := range entries {
		if entry.IP != ip {
			filtered = append(filtered, entry)
		}
	}

	err = s.write(ctx, filtered)
	if err != nil {
		return nil, err
	}

	err = s.edge.Redeploy(ctx, ips(filtered))
	if err != nil {
		return nil, fmt.Errorf("failed to redeploy edge function: %w", err)
	}

	s.logger.InfoContext(ctx, "[Blocklist] IP unblocked", "module", "blocklist", "ip", ip)

	return &RemoveResult{Ok: true, Unblocked: ip}, nil
}

func (s *Service) read(ctx context.Context) ([]Entry, error) {
	value, found, err := s.params.GetParam(ctx, s.Config.BlockedIPsParam)
	if err != nil {
		return nil, fmt.Errorf("failed to read blocklist parameter: %w", err)
	}

	if !found {
		return []Entry{}, nil
	}

	var entries []Entry

	err = json.Unmarshal([]byte(value), &entries)
	if err != nil {
		// A corrupted document is recoverable: start over empty.
		s.logger.ErrorContext(ctx, "[Blocklist] Unparsable blocklist document, treating as empty",
			"module", "blocklist", "error", err)

		return []Entry{}, nil
	}

	return entries, nil
}

// write persists the entries oldest-first, pruning from the front until
// the serialized document fits the size budget.
func (s *Service) write(ctx context.Context, entries []Entry) error {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].BlockedAt.Before(sorted[j].BlockedAt)
	})

	document, err := json.Marshal(sorted)
	if err != nil {
		return fmt.Errorf("failed to marshal blocklist: %w", err)
	}

	for len(document) > s.Config.MaxDocumentBytes && len(sorted) > 0 {
		sorted = sorted[1:]

		document, err = json.Marshal(sorted)
		if err != nil {
			return fmt.Errorf("failed to marshal blocklist: %w", err)
		}
	}

	err = s.params.PutParam(ctx, s.Config.BlockedIPsParam, string(document))
	if err != nil {
		return fmt.Errorf("failed to write blocklist parameter: %w", err)
	}

	return nil
}

func ips(entries []Entry) []string {
	result := make([]string, len(entries))
	for i, entry := range entries {
		result[i] = entry.IP
	}

	return result
}
