package logmining

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/eser/ajan/logfx"
)

// CDN access log tab-separated field indices, after the two header lines.
const (
	fieldIP      = 4
	fieldMethod  = 5
	fieldURIStem = 7
	fieldStatus  = 8
)

var scannerPaths = []string{
	".env", "wp-admin", "wp-login", "phpmyadmin", ".git",
	"xmlrpc", "shell.php", "config.php", "admin.php", ".aws",
}

type ipStats struct {
	total       int
	scannerHits int
	errors      int
	methods     map[string]struct{}
}

type Service struct {
	Config *Config

	logger *logfx.Logger
	store  LogObjectStore

	now func() time.Time
}

func NewService(config *Config, logger *logfx.Logger, store LogObjectStore) *Service {
	return &Service{
		Config: config,
		logger: logger,
		store:  store,

		now: time.Now,
	}
}

// Mine scans the access-log objects modified within the window, aggregates
// per-IP request stats and returns the flagged or high-volume IPs, busiest
// first.
func (s *Service) Mine(ctx context.Context, days int) (*MineResult, error) {
	if days <= 0 {
		days = s.Config.DefaultDays
	}

	since := s.now().Add(-time.Duration(days) * 24 * time.Hour)

	keys, err := s.store.ListKeysSince(ctx, s.Config.LogsBucket, s.Config.LogsPrefix, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list access-log objects: %w", err)
	}

	stats := make(map[string]*ipStats)

	for _, key := range keys {
		err = s.scanObject(ctx, key, stats)
		if err != nil {
			return nil, err
		}
	}

	suspects := score(stats, s.Config)
	if len(suspects) > s.Config.MaxSuspects {
		suspects = suspects[:s.Config.MaxSuspects]
	}

	s.logger.InfoContext(ctx, "[LogMining] Scan complete",
		"module", "logmining", "filesScanned", len(keys), "suspects", len(suspects))

	return &MineResult{
		Period:       fmt.Sprintf("last %d days", days),
		FilesScanned: len(keys),
		Suspects:     suspects,
	}, nil
}

func (s *Service) scanObject(ctx context.Context, key string, stats map[string]*ipStats) error {
	body, err := s.store.GetObject(ctx, s.Config.LogsBucket, key)
	if err != nil {
		return fmt.Errorf("failed to read access-log object %s: %w", key, err)
	}
	defer body.Close() //nolint:errcheck

	gz, err := gzip.NewReader(body)
	if err != nil {
		return fmt.Errorf("failed to decompress access-log object %s: %w", key, err)
	}
	defer gz.Close() //nolint:errcheck

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		scanLine(scanner.Text(), stats)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to scan access-log object %s: %w", key, err)
	}

	return nil
}

func scanLine(line string, stats map[string]*ipStats) {
	if strings.HasPrefix(line, "#") {
		return
	}

	fields := strings.Split(line, "\t")
	if len(fields) <= fieldStatus {
		return
	}

	ip := fields[fieldIP]
	if ip == "" || ip == "-" {
		return
	}

	entry, ok := stats[ip]
	if !ok {
		entry = &ipStats{methods: make(map[string]struct{})}
		stats[ip] = entry
	}

	entry.total++

	if isScannerPath(fields[fieldURIStem]) {
		entry.scannerHits++
	}

	status, err := strconv.Atoi(fields[fieldStatus])
	if err == nil && status >= 400 {
		entry.errors++
	}

	entry.methods[fields[fieldMethod]] = struct{}{}
}

func isScannerPath(uri string) bool {
	lowered := strings.ToLower(uri)

	for _, path := range scannerPaths {
		if strings.Contains(lowered, path) {
			return true
		}
	}

	return false
}

func score(stats map[string]*ipStats, config *Config) []Suspect {
	suspects := make([]Suspect, 0, len(stats))

	for ip, entry := range stats {
		var flags []string

		if entry.scannerHits > 0 {
			flags = append(flags, "SCANNER")
		}

		if entry.total > config.HighVolumeThreshold {
			flags = append(flags, "HIGH_VOLUME")
		}

		if len(flags) == 0 && entry.total <= config.MinUnflaggedVolume {
			continue
		}

		if flags == nil {
			flags = []string{}
		}

		suspects = append(suspects, Suspect{
			IP:             ip,
			TotalRequests:  entry.total,
			ScannerHitRate: float64(entry.scannerHits) / float64(entry.total),
			ErrorRate:      float64(entry.errors) / float64(entry.total),
			Flags:          flags,
		})
	}

	sort.Slice(suspects, func(i, j int) bool {
		return suspects[i].TotalRequests > suspects[j].TotalRequests
	})

	return suspects
}
