package importing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eser/ajan/logfx"
)

var ErrCursorNotInitialized = errors.New("import cursor parameter is not initialized")

// Service is the two-stage, cursor-driven import pipeline. Generate is
// advance-then-load: the cursor moves to the maximum staged key before the
// load stage is signaled, trading a small loss window on staging failure
// for never reprocessing embeddings. Execute reconciles retried or
// duplicated batches through conflict-tolerant inserts.
type Service struct {
	Config *Config

	logger   *logfx.Logger
	cursor   CursorStore
	source   SourceStore
	embedder Embedder
	stage    BatchStage
	invoker  ExecuteInvoker
	store    LogStore

	now func() time.Time
}

func NewService(
	config *Config,
	logger *logfx.Logger,
	cursor CursorStore,
	source SourceStore,
	embedder Embedder,
	stage BatchStage,
	invoker ExecuteInvoker,
	store LogStore,
) *Service {
	return &Service{
		Config:   config,
		logger:   logger,
		cursor:   cursor,
		source:   source,
		embedder: embedder,
		stage:    stage,
		invoker:  invoker,
		store:    store,

		now: time.Now,
	}
}

// Generate pulls source records past the cursor, embeds them, stages the
// batch and signals the load stage. A nil result means the delta was
// empty: the cursor did not move and nothing was staged.
//
// Not safe for concurrent invocation; the design assumes a single
// low-frequency caller rather than a distributed lock on the cursor.
func (s *Service) Generate(ctx context.Context) (*GenerateResult, error) {
	cursor, found, err := s.cursor.GetParam(ctx, s.Config.CursorParam)
	if err != nil {
		return nil, fmt.Errorf("failed to read import cursor: %w", err)
	}

	if !found {
		return nil, fmt.Errorf("%w: %s", ErrCursorNotInitialized, s.Config.CursorParam)
	}

	sourceRecords, err := s.source.QueryChatLogsAfter(ctx, s.Config.LogType, cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to query source records: %w", err)
	}

	if len(sourceRecords) == 0 {
		s.logger.InfoContext(ctx, "[Importing] No new records past cursor",
			"module", "importing", "cursor", cursor)

		return nil, nil
	}

	records := make([]ChatLogRecord, 0, len(sourceRecords))
	newCursor := cursor

	for _, item := range sourceRecords {
		record := normalizeRecord(item)

		embedding, err := s.embedder.Embed(ctx, truncate(record.UserMessage, s.Config.MaxEmbedChars))
		if err != nil {
			return nil, fmt.Errorf("failed to embed record %s: %w", record.ID, err)
		}

		record.Embedding = embedding
		records = append(records, record)

		if record.ID > newCursor {
			newCursor = record.ID
		}
	}

	stagingKey := fmt.Sprintf("%s/%d.json", s.Config.StagingPrefix, s.now().UnixMilli())

	err = s.stage.PutBatch(ctx, stagingKey, records)
	if err != nil {
		return nil, fmt.Errorf("failed to stage batch %s: %w", stagingKey, err)
	}

	// Advance the cursor before signaling the load stage; a retried or
	// duplicated batch is absorbed downstream by the conflict policy.
	err = s.cursor.PutParam(ctx, s.Config.CursorParam, newCursor)
	if err != nil {
		return nil, fmt.Errorf("failed to advance import cursor: %w", err)
	}

	payload := ExecutePayload{StagingBucket: s.stage.StagingBucket(), StagingKey: stagingKey}

	err = s.invoker.InvokeExecute(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to queue load stage for %s: %w", stagingKey, err)
	}

	s.logger.InfoContext(ctx, "[Importing] Batch staged and queued",
		"module", "importing", "queued", len(records), "stagingKey", stagingKey, "cursor", newCursor)

	return &GenerateResult{Queued: len(records), StagingKey: stagingKey}, nil
}

// Execute loads a staged batch into the relational store. Inserts are a
// set-union over record ids: re-running the same batch is safe, partial
// progress from an aborted run is completed by re-invocation.
func (s *Service) Execute(ctx context.Context, payload ExecutePayload) (*ExecuteResult, error) {
	records, err := s.stage.GetBatch(ctx, payload.StagingBucket, payload.StagingKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read staged batch %s: %w", payload.StagingKey, err)
	}

	err = s.store.EnsureSchema(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	for _, record := range records {
		recordedAt, err := record.RecordedAt()
		if err != nil {
			return nil, err
		}

		err = s.store.InsertChatLog(ctx, record, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to insert record %s: %w", record.ID, err)
		}
	}

	s.logger.InfoContext(ctx, "[Importing] Batch loaded",
		"module", "importing", "stagingKey", payload.StagingKey, "inserted", len(records))

	return &ExecuteResult{Inserted: len(records)}, nil
}

func normalizeRecord(item SourceRecord) ChatLogRecord {
	record := ChatLogRecord{
		ID:             item.SortKey,
		LogType:        item.LogType,
		ConversationID: item.ConversationID,
		IP:             item.IP,
		UserAgent:      item.UserAgent,
		Country:        item.Country,
		ToolsCalled:    item.ToolsCalled,
	}

	if item.UserMessage != nil {
		record.UserMessage = *item.UserMessage
	}

	if item.MessageCount != nil {
		record.MessageCount = *item.MessageCount
	}

	if item.InputTokens != nil {
		record.InputTokens = *item.InputTokens
	}

	if item.OutputTokens != nil {
		record.OutputTokens = *item.OutputTokens
	}

	if item.DurationMs != nil {
		record.DurationMs = *item.DurationMs
	}

	if item.RateLimited != nil {
		record.RateLimited = *item.RateLimited
	}

	if record.ToolsCalled == nil {
		record.ToolsCalled = []string{}
	}

	return record
}

func truncate(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}

	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	return string(runes[:limit])
}
