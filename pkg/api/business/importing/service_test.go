package importing

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/eser/ajan/logfx"
)

type fakeCursorStore struct {
	params map[string]string
	puts   int
}

func (f *fakeCursorStore) GetParam(_ context.Context, name string) (string, bool, error) {
	value, found := f.params[name]

	return value, found, nil
}

func (f *fakeCursorStore) PutParam(_ context.Context, name string, value string) error {
	f.params[name] = value
	f.puts++

	return nil
}

type fakeSourceStore struct {
	records []SourceRecord
}

func (f *fakeSourceStore) QueryChatLogsAfter(_ context.Context, _ string, cursor string) ([]SourceRecord, error) {
	out := []SourceRecord{}

	for _, record := range f.records {
		if record.SortKey > cursor {
			out = append(out, record)
		}
	}

	return out, nil
}

type fakeEmbedder struct {
	inputs []string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.inputs = append(f.inputs, text)

	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeBatchStage struct {
	batches map[string][]ChatLogRecord
}

func (f *fakeBatchStage) StagingBucket() string {
	return "nakomis-import-staging"
}

func (f *fakeBatchStage) PutBatch(_ context.Context, key string, records []ChatLogRecord) error {
	f.batches[key] = records

	return nil
}

func (f *fakeBatchStage) GetBatch(_ context.Context, _ string, key string) ([]ChatLogRecord, error) {
	records, found := f.batches[key]
	if !found {
		return nil, errors.New("no such staged batch")
	}

	return records, nil
}

type fakeInvoker struct {
	payloads []ExecutePayload
}

func (f *fakeInvoker) InvokeExecute(_ context.Context, payload ExecutePayload) error {
	f.payloads = append(f.payloads, payload)

	return nil
}

type fakeLogStore struct {
	rows          map[string]ChatLogRecord
	schemaEnsured bool
}

func (f *fakeLogStore) EnsureSchema(_ context.Context) error {
	f.schemaEnsured = true

	return nil
}

func (f *fakeLogStore) InsertChatLog(_ context.Context, record ChatLogRecord, _ time.Time) error {
	// Set-union semantics: duplicate ids are silently absorbed.
	if _, exists := f.rows[record.ID]; exists {
		return nil
	}

	f.rows[record.ID] = record

	return nil
}

type fixture struct {
	service  *Service
	cursor   *fakeCursorStore
	source   *fakeSourceStore
	embedder *fakeEmbedder
	stage    *fakeBatchStage
	invoker  *fakeInvoker
	store    *fakeLogStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger, err := logfx.NewLoggerAsDefault(io.Discard, &logfx.Config{}) //nolint:exhaustruct
	if err != nil {
		t.Fatalf("create logger: %v", err)
	}

	config := &Config{
		CursorParam:   "/nakom.is/analytics/CVCHAT/last-imported-timestamp",
		LogType:       "CVCHAT",
		StagingPrefix: "import-staging",
		MaxEmbedChars: 8000,
	}

	f := &fixture{
		cursor:   &fakeCursorStore{params: map[string]string{config.CursorParam: "2026-01-01T00:00:00.000Z"}},
		source:   &fakeSourceStore{},
		embedder: &fakeEmbedder{},
		stage:    &fakeBatchStage{batches: make(map[string][]ChatLogRecord)},
		invoker:  &fakeInvoker{},
		store:    &fakeLogStore{rows: make(map[string]ChatLogRecord)},
	}

	f.service = NewService(config, logger, f.cursor, f.source, f.embedder, f.stage, f.invoker, f.store)

	return f
}

func strPtr(s string) *string { return &s }

func sourceRecord(sk string, message string) SourceRecord {
	return SourceRecord{
		LogType:     "CVCHAT",
		SortKey:     sk,
		UserMessage: strPtr(message),
	}
}

func TestGenerateFailsWithoutCursor(t *testing.T) {
	f := newFixture(t)
	delete(f.cursor.params, f.service.Config.CursorParam)

	_, err := f.service.Generate(t.Context())
	if !errors.Is(err, ErrCursorNotInitialized) {
		t.Fatalf("expected ErrCursorNotInitialized, got %v", err)
	}
}

func TestGenerateEmptyDeltaIsNoOp(t *testing.T) {
	f := newFixture(t)

	result, err := f.service.Generate(t.Context())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if result != nil {
		t.Fatalf("expected nil result for empty delta, got %+v", result)
	}

	if f.cursor.puts != 0 {
		t.Fatal("cursor must not move on empty delta")
	}

	if len(f.stage.batches) != 0 {
		t.Fatal("nothing should be staged on empty delta")
	}

	if len(f.invoker.payloads) != 0 {
		t.Fatal("load stage must not be queued on empty delta")
	}
}

func TestGenerateStagesAndAdvancesCursor(t *testing.T) {
	f := newFixture(t)
	f.source.records = []SourceRecord{
		sourceRecord("2026-02-26T10:15:00.000Z#aaa", "how do I reset my password"),
		sourceRecord("2026-02-26T11:00:00.000Z#bbb", "what does the analytics page show"),
	}

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f.service.now = func() time.Time { return now }

	result, err := f.service.Generate(t.Context())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if result.Queued != 2 {
		t.Fatalf("expected 2 queued, got %d", result.Queued)
	}

	if !strings.HasPrefix(result.StagingKey, "import-staging/") || !strings.HasSuffix(result.StagingKey, ".json") {
		t.Fatalf("unexpected staging key: %s", result.StagingKey)
	}

	staged := f.stage.batches[result.StagingKey]
	if len(staged) != 2 {
		t.Fatalf("expected 2 staged records, got %d", len(staged))
	}

	if len(staged[0].Embedding) == 0 {
		t.Fatal("staged records must carry embeddings")
	}

	// Cursor lands on the maximum staged sort key.
	if got := f.cursor.params[f.service.Config.CursorParam]; got != "2026-02-26T11:00:00.000Z#bbb" {
		t.Fatalf("unexpected cursor: %s", got)
	}

	if len(f.invoker.payloads) != 1 {
		t.Fatalf("expected 1 load-stage payload, got %d", len(f.invoker.payloads))
	}

	payload := f.invoker.payloads[0]
	if payload.StagingBucket != "nakomis-import-staging" || payload.StagingKey != result.StagingKey {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestGenerateTruncatesEmbeddingInput(t *testing.T) {
	f := newFixture(t)
	f.service.Config.MaxEmbedChars = 10

	f.source.records = []SourceRecord{
		sourceRecord("2026-02-26T10:15:00.000Z#aaa", strings.Repeat("x", 50)),
	}

	_, err := f.service.Generate(t.Context())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if len(f.embedder.inputs) != 1 || len(f.embedder.inputs[0]) != 10 {
		t.Fatalf("expected truncated embed input of 10 chars, got %v", f.embedder.inputs)
	}

	// Staged record keeps the full message.
	for _, staged := range f.stage.batches {
		if len(staged[0].UserMessage) != 50 {
			t.Fatalf("staged message should be untruncated, got %d chars", len(staged[0].UserMessage))
		}
	}
}

func TestGenerateNormalizesSparseRecords(t *testing.T) {
	f := newFixture(t)
	f.source.records = []SourceRecord{
		{LogType: "CVCHAT", SortKey: "2026-02-26T10:15:00.000Z#aaa", UserMessage: strPtr("hello")},
	}

	result, err := f.service.Generate(t.Context())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	staged := f.stage.batches[result.StagingKey][0]

	if staged.ToolsCalled == nil {
		t.Fatal("tools_called must normalize to an empty slice")
	}

	if staged.MessageCount != 0 || staged.InputTokens != 0 || staged.RateLimited {
		t.Fatalf("missing numerics must normalize to zero values: %+v", staged)
	}
}

func TestExecuteIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.source.records = []SourceRecord{
		sourceRecord("2026-02-26T10:15:00.000Z#aaa", "first"),
		sourceRecord("2026-02-26T11:00:00.000Z#bbb", "second"),
	}

	generated, err := f.service.Generate(t.Context())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	payload := f.invoker.payloads[0]

	for range 2 {
		result, err := f.service.Execute(t.Context(), payload)
		if err != nil {
			t.Fatalf("execute: %v", err)
		}

		if result.Inserted != generated.Queued {
			t.Fatalf("expected %d inserted, got %d", generated.Queued, result.Inserted)
		}
	}

	if len(f.store.rows) != 2 {
		t.Fatalf("replayed batch must not duplicate rows: got %d", len(f.store.rows))
	}

	if !f.store.schemaEnsured {
		t.Fatal("execute must ensure the schema")
	}
}

func TestExecuteRejectsMissingBatch(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Execute(t.Context(), ExecutePayload{StagingBucket: "b", StagingKey: "missing.json"})
	if err == nil {
		t.Fatal("expected error for missing staged batch")
	}
}

func TestRecordedAtParsesLeadingTimestamp(t *testing.T) {
	record := ChatLogRecord{ID: "2026-02-26T10:15:00.000Z#uuid-1234"} //nolint:exhaustruct

	recordedAt, err := record.RecordedAt()
	if err != nil {
		t.Fatalf("recorded at: %v", err)
	}

	want := time.Date(2026, 2, 26, 10, 15, 0, 0, time.UTC)
	if !recordedAt.Equal(want) {
		t.Fatalf("unexpected recorded at: %v", recordedAt)
	}

	malformed := ChatLogRecord{ID: "not-a-timestamp#x"} //nolint:exhaustruct
	if _, err := malformed.RecordedAt(); err == nil {
		t.Fatal("expected error for malformed id")
	}
}
