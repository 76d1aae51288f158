package analytics

import (
	"context"
	"errors"
	"fmt"

	"github.com/eser/ajan/logfx"
)

var ErrUnknownQueryType = errors.New("unknown query type")

const (
	DefaultSimilarityThreshold = 0.85
	DefaultSimilarityLimit     = 500
	DefaultNodesLimit          = 1000
	DefaultIPActivityLimit     = 200
	DefaultConversationsLimit  = 100
)

type Service struct {
	logger *logfx.Logger
	store  Store
}

func NewService(logger *logfx.Logger, store Store) *Service {
	return &Service{logger: logger, store: store}
}

// Query dispatches an ad-hoc analytical query by type. Results are plain
// row slices; shaping them for display is the dashboard's concern.
func (s *Service) Query(ctx context.Context, queryType string, params QueryParams) (any, error) {
	s.logger.DebugContext(ctx, "[Analytics] Running query",
		"module", "analytics", "queryType", queryType)

	switch queryType {
	case "similarity_graph":
		threshold := DefaultSimilarityThreshold
		if params.Threshold != nil {
			threshold = *params.Threshold
		}

		limit := DefaultSimilarityLimit
		if params.Limit != nil {
			limit = *params.Limit
		}

		return s.store.SimilarityGraph(ctx, threshold, limit)

	case "nodes":
		return s.store.Nodes(ctx, DefaultNodesLimit)

	case "tool_usage":
		return s.store.ToolUsage(ctx)

	case "ip_activity":
		return s.store.IPActivity(ctx, DefaultIPActivityLimit)

	case "conversations":
		return s.store.Conversations(ctx, DefaultConversationsLimit)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownQueryType, queryType)
	}
}
