package analytics_db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/eser/ajan/logfx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/nakomis/nakom-admin/pkg/api/business/analytics"
	"github.com/nakomis/nakom-admin/pkg/api/business/importing"
)

var (
	_ importing.LogStore = (*AnalyticsDB)(nil)
	_ analytics.Store    = (*AnalyticsDB)(nil)
)

// AnalyticsDB is the relational store holding imported chat logs and their
// embeddings. It is both the load target of the import pipeline and the
// read surface for the analytical queries.
type AnalyticsDB struct {
	Config *Config

	logger *logfx.Logger
	pool   *pgxpool.Pool

	schemaMutex   sync.Mutex
	schemaEnsured bool
}

func New(config *Config, logger *logfx.Logger) *AnalyticsDB {
	return &AnalyticsDB{Config: config, logger: logger}
}

func (a *AnalyticsDB) Init(ctx context.Context) error {
	dsn := fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		a.Config.Host, a.Config.Port, a.Config.Database, a.Config.User, a.Config.Password, a.Config.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		a.logger.ErrorContext(ctx, "[AnalyticsDB] unable to create connection pool", "module", "analytics_db", "error", err)

		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	a.pool = pool

	a.logger.InfoContext(ctx, "[AnalyticsDB] Analytics database initialized", "module", "analytics_db", "host", a.Config.Host, "database", a.Config.Database)

	return nil
}

func (a *AnalyticsDB) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// EnsureSchema bootstraps the chat_logs table on first use. A table whose
// embedding column was created with a different vector width is dropped
// first; imported rows are reproducible from the source store.
func (a *AnalyticsDB) EnsureSchema(ctx context.Context) error {
	a.schemaMutex.Lock()
	defer a.schemaMutex.Unlock()

	if a.schemaEnsured {
		return nil
	}

	_, err := a.pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`)
	if err != nil {
		return fmt.Errorf("failed to install vector extension: %w", err)
	}

	_, err = a.pool.Exec(ctx, fmt.Sprintf(`
		DO $$
		BEGIN
			IF EXISTS (
				SELECT 1 FROM pg_attribute a
				JOIN pg_class c ON c.oid = a.attrelid
				WHERE c.relname = 'chat_logs' AND a.attname = 'embedding'
				  AND a.atttypmod <> %d
			) THEN
				DROP TABLE chat_logs;
			END IF;
		END $$;
	`, a.Config.EmbeddingDims))
	if err != nil {
		return fmt.Errorf("failed to check embedding dimensions: %w", err)
	}

	_, err = a.pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS chat_logs (
			id              TEXT PRIMARY KEY,
			log_type        TEXT NOT NULL,
			conversation_id TEXT,
			recorded_at     TIMESTAMPTZ NOT NULL,
			ip              TEXT,
			user_agent      TEXT,
			country         TEXT,
			user_message    TEXT,
			message_count   INT,
			tools_called    TEXT[],
			input_tokens    INT,
			output_tokens   INT,
			duration_ms     INT,
			rate_limited    BOOLEAN,
			embedding       vector(%d)
		)
	`, a.Config.EmbeddingDims))
	if err != nil {
		return fmt.Errorf("failed to create chat_logs table: %w", err)
	}

	_, err = a.pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS chat_logs_embedding_idx
		ON chat_logs USING hnsw (embedding vector_cosine_ops)
	`)
	if err != nil {
		return fmt.Errorf("failed to create embedding index: %w", err)
	}

	a.schemaEnsured = true

	a.logger.DebugContext(ctx, "[AnalyticsDB] Schema ensured", "module", "analytics_db")

	return nil
}

// InsertChatLog writes one record, silently absorbing duplicates so the
// load stage stays safe to replay.
func (a *AnalyticsDB) InsertChatLog(ctx context.Context, record importing.ChatLogRecord, recordedAt time.Time) error {
	_, err := a.pool.Exec(ctx, `
		INSERT INTO chat_logs (id, log_type, conversation_id, recorded_at, ip, user_agent,
			country, user_message, message_count, tools_called, input_tokens, output_tokens,
			duration_ms, rate_limited, embedding)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		ON CONFLICT (id) DO NOTHING
	`,
		record.ID, record.LogType, record.ConversationID, recordedAt, record.IP, record.UserAgent,
		record.Country, record.UserMessage, record.MessageCount, record.ToolsCalled,
		record.InputTokens, record.OutputTokens, record.DurationMs, record.RateLimited,
		pgvector.NewVector(record.Embedding),
	)
	if err != nil {
		return fmt.Errorf("failed to insert chat log %s: %w", record.ID, err)
	}

	return nil
}

func (a *AnalyticsDB) SimilarityGraph(ctx context.Context, threshold float64, limit int) ([]analytics.SimilarityEdge, error) {
	rows, err := a.pool.Query(ctx, `
		SELECT a.id AS id_a, b.id AS id_b,
		       1 - (a.embedding <=> b.embedding) AS similarity,
		       a.user_message AS msg_a, b.user_message AS msg_b,
		       a.ip AS ip_a, b.ip AS ip_b
		FROM chat_logs a
		JOIN chat_logs b ON a.id < b.id
		WHERE 1 - (a.embedding <=> b.embedding) > $1
		LIMIT $2
	`, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("similarity graph query failed: %w", err)
	}
	defer rows.Close()

	edges := []analytics.SimilarityEdge{}

	for rows.Next() {
		var edge analytics.SimilarityEdge

		err := rows.Scan(&edge.IDA, &edge.IDB, &edge.Similarity, &edge.MsgA, &edge.MsgB, &edge.IPA, &edge.IPB)
		if err != nil {
			return nil, fmt.Errorf("failed to scan similarity edge: %w", err)
		}

		edges = append(edges, edge)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("similarity graph query failed: %w", err)
	}

	return edges, nil
}

func (a *AnalyticsDB) Nodes(ctx context.Context, limit int) ([]analytics.Node, error) {
	rows, err := a.pool.Query(ctx, `
		SELECT id, conversation_id, recorded_at, ip, country,
		       user_message, message_count, tools_called,
		       input_tokens + output_tokens AS total_tokens
		FROM chat_logs
		ORDER BY recorded_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("nodes query failed: %w", err)
	}
	defer rows.Close()

	nodes := []analytics.Node{}

	for rows.Next() {
		var node analytics.Node

		err := rows.Scan(
			&node.ID, &node.ConversationID, &node.RecordedAt, &node.IP, &node.Country,
			&node.UserMessage, &node.MessageCount, &node.ToolsCalled, &node.TotalTokens,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}

		nodes = append(nodes, node)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("nodes query failed: %w", err)
	}

	return nodes, nil
}

func (a *AnalyticsDB) ToolUsage(ctx context.Context) ([]analytics.ToolUsage, error) {
	rows, err := a.pool.Query(ctx, `
		SELECT unnest(tools_called) AS tool, count(*) AS uses
		FROM chat_logs
		WHERE tools_called IS NOT NULL
		GROUP BY 1
		ORDER BY 2 DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("tool usage query failed: %w", err)
	}
	defer rows.Close()

	usages := []analytics.ToolUsage{}

	for rows.Next() {
		var usage analytics.ToolUsage

		err := rows.Scan(&usage.Tool, &usage.Uses)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tool usage: %w", err)
		}

		usages = append(usages, usage)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tool usage query failed: %w", err)
	}

	return usages, nil
}

func (a *AnalyticsDB) IPActivity(ctx context.Context, limit int) ([]analytics.IPActivity, error) {
	rows, err := a.pool.Query(ctx, `
		SELECT ip,
		       count(*) AS total_requests,
		       count(DISTINCT DATE(recorded_at)) AS active_days,
		       min(recorded_at) AS first_seen,
		       max(recorded_at) AS last_seen,
		       sum(CASE WHEN rate_limited THEN 1 ELSE 0 END) AS rate_limit_hits
		FROM chat_logs
		WHERE ip != 'unknown'
		GROUP BY ip
		ORDER BY total_requests DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("ip activity query failed: %w", err)
	}
	defer rows.Close()

	activities := []analytics.IPActivity{}

	for rows.Next() {
		var activity analytics.IPActivity

		err := rows.Scan(
			&activity.IP, &activity.TotalRequests, &activity.ActiveDays,
			&activity.FirstSeen, &activity.LastSeen, &activity.RateLimitHits,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ip activity: %w", err)
		}

		activities = append(activities, activity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ip activity query failed: %w", err)
	}

	return activities, nil
}

func (a *AnalyticsDB) Conversations(ctx context.Context, limit int) ([]analytics.Conversation, error) {
	rows, err := a.pool.Query(ctx, `
		SELECT conversation_id, count(*) AS turns,
		       min(recorded_at) AS started, max(recorded_at) AS ended,
		       array_agg(user_message ORDER BY recorded_at) AS messages
		FROM chat_logs
		WHERE conversation_id IS NOT NULL
		GROUP BY conversation_id
		ORDER BY started DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("conversations query failed: %w", err)
	}
	defer rows.Close()

	conversations := []analytics.Conversation{}

	for rows.Next() {
		var conversation analytics.Conversation

		err := rows.Scan(
			&conversation.ConversationID, &conversation.Turns,
			&conversation.Started, &conversation.Ended, &conversation.Messages,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}

		conversations = append(conversations, conversation)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("conversations query failed: %w", err)
	}

	return conversations, nil
}
