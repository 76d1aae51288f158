package analytics

import (
	"context"
	"time"
)

// SimilarityEdge is one pair of semantically close messages.
type SimilarityEdge struct {
	IDA        string  `json:"id_a"`
	IDB        string  `json:"id_b"`
	Similarity float64 `json:"similarity"`
	MsgA       string  `json:"msg_a"`
	MsgB       string  `json:"msg_b"`
	IPA        *string `json:"ip_a"`
	IPB        *string `json:"ip_b"`
}

type Node struct {
	ID             string    `json:"id"`
	ConversationID *string   `json:"conversation_id"`
	RecordedAt     time.Time `json:"recorded_at"`
	IP             *string   `json:"ip"`
	Country        *string   `json:"country"`
	UserMessage    *string   `json:"user_message"`
	MessageCount   *int      `json:"message_count"`
	ToolsCalled    []string  `json:"tools_called"`
	TotalTokens    *int      `json:"total_tokens"`
}

type ToolUsage struct {
	Tool string `json:"tool"`
	Uses int64  `json:"uses"`
}

type IPActivity struct {
	IP            string    `json:"ip"`
	TotalRequests int64     `json:"total_requests"`
	ActiveDays    int64     `json:"active_days"`
	FirstSeen     time.Time `json:"first_seen"`
	LastSeen      time.Time `json:"last_seen"`
	RateLimitHits int64     `json:"rate_limit_hits"`
}

type Conversation struct {
	ConversationID string    `json:"conversation_id"`
	Turns          int64     `json:"turns"`
	Started        time.Time `json:"started"`
	Ended          time.Time `json:"ended"`
	Messages       []string  `json:"messages"`
}

// QueryParams carries the optional knobs a query type accepts.
type QueryParams struct {
	Threshold *float64 `json:"threshold,omitempty"`
	Limit     *int     `json:"limit,omitempty"`
}

// Store is the read-only analytical surface over the relational store.
type Store interface {
	SimilarityGraph(ctx context.Context, threshold float64, limit int) ([]SimilarityEdge, error)
	Nodes(ctx context.Context, limit int) ([]Node, error)
	ToolUsage(ctx context.Context) ([]ToolUsage, error)
	IPActivity(ctx context.Context, limit int) ([]IPActivity, error)
	Conversations(ctx context.Context, limit int) ([]Conversation, error)
}
