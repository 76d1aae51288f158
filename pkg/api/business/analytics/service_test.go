package analytics

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/eser/ajan/logfx"
)

type fakeStore struct {
	similarityThreshold float64
	similarityLimit     int
	nodesLimit          int
	ipActivityLimit     int
	conversationsLimit  int
}

func (f *fakeStore) SimilarityGraph(_ context.Context, threshold float64, limit int) ([]SimilarityEdge, error) {
	f.similarityThreshold = threshold
	f.similarityLimit = limit

	return []SimilarityEdge{}, nil
}

func (f *fakeStore) Nodes(_ context.Context, limit int) ([]Node, error) {
	f.nodesLimit = limit

	return []Node{}, nil
}

func (f *fakeStore) ToolUsage(_ context.Context) ([]ToolUsage, error) {
	return []ToolUsage{{Tool: "search", Uses: 3}}, nil
}

func (f *fakeStore) IPActivity(_ context.Context, limit int) ([]IPActivity, error) {
	f.ipActivityLimit = limit

	return []IPActivity{}, nil
}

func (f *fakeStore) Conversations(_ context.Context, limit int) ([]Conversation, error) {
	f.conversationsLimit = limit

	return []Conversation{}, nil
}

func newTestService(t *testing.T) (*Service, *fakeStore) {
	t.Helper()

	logger, err := logfx.NewLoggerAsDefault(io.Discard, &logfx.Config{}) //nolint:exhaustruct
	if err != nil {
		t.Fatalf("create logger: %v", err)
	}

	store := &fakeStore{} //nolint:exhaustruct

	return NewService(logger, store), store
}

func TestQueryUnknownType(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.Query(t.Context(), "word_cloud", QueryParams{}) //nolint:exhaustruct
	if !errors.Is(err, ErrUnknownQueryType) {
		t.Fatalf("expected ErrUnknownQueryType, got %v", err)
	}
}

func TestQuerySimilarityGraphDefaults(t *testing.T) {
	service, store := newTestService(t)

	_, err := service.Query(t.Context(), "similarity_graph", QueryParams{}) //nolint:exhaustruct
	if err != nil {
		t.Fatalf("query: %v", err)
	}

	if store.similarityThreshold != DefaultSimilarityThreshold || store.similarityLimit != DefaultSimilarityLimit {
		t.Fatalf("expected defaults, got %f / %d", store.similarityThreshold, store.similarityLimit)
	}
}

func TestQuerySimilarityGraphOverrides(t *testing.T) {
	service, store := newTestService(t)

	threshold := 0.92
	limit := 40

	_, err := service.Query(t.Context(), "similarity_graph", QueryParams{Threshold: &threshold, Limit: &limit})
	if err != nil {
		t.Fatalf("query: %v", err)
	}

	if store.similarityThreshold != threshold || store.similarityLimit != limit {
		t.Fatalf("expected overrides, got %f / %d", store.similarityThreshold, store.similarityLimit)
	}
}

func TestQueryDispatch(t *testing.T) {
	service, store := newTestService(t)

	for _, queryType := range []string{"nodes", "tool_usage", "ip_activity", "conversations"} {
		_, err := service.Query(t.Context(), queryType, QueryParams{}) //nolint:exhaustruct
		if err != nil {
			t.Fatalf("query %s: %v", queryType, err)
		}
	}

	if store.nodesLimit != DefaultNodesLimit {
		t.Fatalf("unexpected nodes limit: %d", store.nodesLimit)
	}

	if store.ipActivityLimit != DefaultIPActivityLimit {
		t.Fatalf("unexpected ip activity limit: %d", store.ipActivityLimit)
	}

	if store.conversationsLimit != DefaultConversationsLimit {
		t.Fatalf("unexpected conversations limit: %d", store.conversationsLimit)
	}
}
