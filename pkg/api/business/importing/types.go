package importing

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// SourceRecord is a raw chat-log row as it sits in the key-value source
// store. The sort key doubles as the import cursor; records without a
// user message are sentinels sharing the same partition and are filtered
// out at query time.
type SourceRecord struct {
	LogType        string   `dynamodbav:"logType"`
	SortKey        string   `dynamodbav:"sk"`
	ConversationID *string  `dynamodbav:"conversationId"`
	IP             *string  `dynamodbav:"ip"`
	UserAgent      *string  `dynamodbav:"userAgent"`
	Country        *string  `dynamodbav:"country"`
	UserMessage    *string  `dynamodbav:"userMessage"`
	MessageCount   *int     `dynamodbav:"messageCount"`
	ToolsCalled    []string `dynamodbav:"toolsCalled"`
	InputTokens    *int     `dynamodbav:"inputTokens"`
	OutputTokens   *int     `dynamodbav:"outputTokens"`
	DurationMs     *int     `dynamodbav:"durationMs"`
	RateLimited    *bool    `dynamodbav:"rateLimited"`
}

// ChatLogRecord is the normalized record staged between the two import
// stages and loaded into the relational store. The id is the source sort
// key: an ISO-8601 timestamp plus a uniqueness suffix, globally unique,
// and the sole conflict key for idempotent insertion.
type ChatLogRecord struct {
	ID             string    `json:"id"`
	LogType        string    `json:"logType"`
	ConversationID *string   `json:"conversationId"`
	IP             *string   `json:"ip"`
	UserAgent      *string   `json:"userAgent"`
	Country        *string   `json:"country"`
	UserMessage    string    `json:"userMessage"`
	MessageCount   int       `json:"messageCount"`
	ToolsCalled    []string  `json:"toolsCalled"`
	InputTokens    int       `json:"inputTokens"`
	OutputTokens   int       `json:"outputTokens"`
	DurationMs     int       `json:"durationMs"`
	RateLimited    bool      `json:"rateLimited"`
	Embedding      []float32 `json:"embedding"`
}

// RecordedAt derives the record's timestamp from the leading segment of
// its id (format: "2026-02-26T10:15:00.000Z#uuid").
func (r *ChatLogRecord) RecordedAt() (time.Time, error) {
	segment, _, _ := strings.Cut(r.ID, "#")

	recordedAt, err := time.Parse(time.RFC3339, segment)
	if err != nil {
		return time.Time{}, fmt.Errorf("record id %q has no parseable timestamp: %w", r.ID, err)
	}

	return recordedAt, nil
}

type ExecutePayload struct {
	StagingBucket string `json:"stagingBucket"`
	StagingKey    string `json:"stagingKey"`
}

type GenerateResult struct {
	Queued     int    `json:"queued"`
	StagingKey string `json:"stagingKey"`
}

type ExecuteResult struct {
	// Inserted counts attempted rows; duplicates are absorbed silently by
	// the conflict policy and still counted here.
	Inserted int `json:"inserted"`
}

// CursorStore persists the import cursor.
type CursorStore interface {
	GetParam(ctx context.Context, name string) (string, bool, error)
	PutParam(ctx context.Context, name string, value string) error
}

// SourceStore queries the key-value source for chat records past a cursor.
type SourceStore interface {
	QueryChatLogsAfter(ctx context.Context, logType string, cursor string) ([]SourceRecord, error)
}

// Embedder turns message text into a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// BatchStage is the write-once staging area between the two stages.
type BatchStage interface {
	StagingBucket() string
	PutBatch(ctx context.Context, key string, records []ChatLogRecord) error
	GetBatch(ctx context.Context, bucket string, key string) ([]ChatLogRecord, error)
}

// ExecuteInvoker hands a staged batch to the load stage, fire-and-forget.
type ExecuteInvoker interface {
	InvokeExecute(ctx context.Context, payload ExecutePayload) error
}

// LogStore is the relational destination for chat log records.
type LogStore interface {
	EnsureSchema(ctx context.Context) error
	InsertChatLog(ctx context.Context, record ChatLogRecord, recordedAt time.Time) error
}
