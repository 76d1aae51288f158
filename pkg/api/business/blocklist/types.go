package blocklist

import (
	"context"
	"time"
)

// Entry is one blocked source IP.
type Entry struct {
	IP        string    `json:"ip"`
	BlockedAt time.Time `json:"blockedAt"`
	Reason    string    `json:"reason"`
}

type AddResult struct {
	Ok             bool   `json:"ok"`
	Blocked        string `json:"blocked,omitempty"`
	AlreadyBlocked bool   `json:"alreadyBlocked,omitempty"`
}

type RemoveResult struct {
	Ok        bool   `json:"ok"`
	Unblocked string `json:"unblocked"`
}

// ParamStore persists the blocklist as a single JSON document.
type ParamStore interface {
	GetParam(ctx context.Context, name string) (string, bool, error)
	PutParam(ctx context.Context, name string, value string) error
}

// EdgeDeployer pushes the current IP set to the CDN edge.
type EdgeDeployer interface {
	Redeploy(ctx context.Context, blockedIPs []string) error
}
