package logmining

import (
	"context"
	"io"
	"time"
)

// Suspect is one scored source IP from the CDN access logs.
type Suspect struct {
	IP             string   `json:"ip"`
	TotalRequests  int      `json:"totalRequests"`
	ScannerHitRate float64  `json:"scannerHitRate"`
	ErrorRate      float64  `json:"errorRate"`
	Flags          []string `json:"flags"`
}

type MineResult struct {
	Period       string    `json:"period"`
	FilesScanned int       `json:"filesScanned"`
	Suspects     []Suspect `json:"suspects"`
}

// LogObjectStore lists and opens raw gzip access-log objects.
type LogObjectStore interface {
	ListKeysSince(ctx context.Context, bucket string, prefix string, since time.Time) ([]string, error)
	GetObject(ctx context.Context, bucket string, key string) (io.ReadCloser, error)
}
