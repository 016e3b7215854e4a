package chread

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"
)

// Reader provides read access to the ClickHouse moderation_events table.
type Reader struct {
	conn   driver.Conn
	logger *zap.Logger
}

// NewReader opens a ClickHouse connection for read queries.
func NewReader(dsn string, logger *zap.Logger) (*Reader, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("NewReader: %w", err)
	}
	if opts.TLS == nil {
		opts.TLS = &tls.Config{}
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("NewReader: %w", err)
	}
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("NewReader: %w", err)
	}

	return &Reader{conn: conn, logger: logger}, nil
}

// Close closes the ClickHouse connection.
func (r *Reader) Close() error {
	return r.conn.Close()
}

// EventRow represents a single row from the moderation_events table.
type EventRow struct {
	RequestID     string
	GuildID       string
	ChannelID     string
	UserID        string
	MessageID     string
	Timestamp     time.Time
	TextPreview   string
	Action        string
	AlwaysFlag    uint8
	Severity      float64
	Categories    []string
	HitSurfaces   []string
	HitKinds      []string
	HitWeights    []float64
	LabelNames    []string
	LabelScores   []float64
	ClientTraceID string
	LatencyMs     float32
	Source        string
}

const eventColumns = "request_id, guild_id, channel_id, user_id, message_id, timestamp, " +
	"text_preview, action, always_flag, severity, categories, " +
	"hit_surfaces, hit_kinds, hit_weights, label_names, label_scores, " +
	"client_trace_id, latency_ms, source"

func scanEventRow(row interface{ Scan(...any) error }, e *EventRow) error {
	return row.Scan(
		&e.RequestID, &e.GuildID, &e.ChannelID, &e.UserID, &e.MessageID, &e.Timestamp,
		&e.TextPreview, &e.Action, &e.AlwaysFlag, &e.Severity, &e.Categories,
		&e.HitSurfaces, &e.HitKinds, &e.HitWeights, &e.LabelNames, &e.LabelScores,
		&e.ClientTraceID, &e.LatencyMs, &e.Source,
	)
}

// ListEventsParams holds filters and pagination for event listing.
type ListEventsParams struct {
	GuildID   string
	ChannelID *string
	UserID    *string
	Action    *string
	Category  *string
	StartTime *time.Time
	EndTime   *time.Time
	Page      int
	PageSize  int
}

// ListEvents returns paginated, filtered moderation events and the total count.
func (r *Reader) ListEvents(ctx context.Context, params ListEventsParams) ([]EventRow, int, error) {
	conditions := []string{"guild_id = @guild_id"}
	args := []any{
		clickhouse.Named("guild_id", params.GuildID),
	}

	if params.ChannelID != nil {
		conditions = append(conditions, "channel_id = @channel_id")
		args = append(args, clickhouse.Named("channel_id", *params.ChannelID))
	}
	if params.UserID != nil {
		conditions = append(conditions, "user_id = @user_id")
		args = append(args, clickhouse.Named("user_id", *params.UserID))
	}
	if params.Action != nil {
		conditions = append(conditions, "action = @action")
		args = append(args, clickhouse.Named("action", *params.Action))
	}
	if params.Category != nil {
		conditions = append(conditions, "has(categories, @category)")
		args = append(args, clickhouse.Named("category", *params.Category))
	}
	if params.StartTime != nil {
		conditions = append(conditions, "timestamp >= @start_time")
		args = append(args, clickhouse.Named("start_time", *params.StartTime))
	}
	if params.EndTime != nil {
		conditions = append(conditions, "timestamp <= @end_time")
		args = append(args, clickhouse.Named("end_time", *params.EndTime))
	}

	where := strings.Join(conditions, " AND ")
	offset := (params.Page - 1) * params.PageSize

	var total uint64
	countQuery := fmt.Sprintf("SELECT count() FROM moderation_events WHERE %s", where)
	if err := r.conn.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ListEvents count: %w", err)
	}

	dataQuery := fmt.Sprintf(
		"SELECT %s FROM moderation_events WHERE %s ORDER BY timestamp DESC LIMIT @limit OFFSET @offset",
		eventColumns, where,
	)
	args = append(args,
		clickhouse.Named("limit", uint32(params.PageSize)),
		clickhouse.Named("offset", uint32(offset)),
	)

	rows, err := r.conn.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ListEvents query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []EventRow
	for rows.Next() {
		var e EventRow
		if err := scanEventRow(rows, &e); err != nil {
			return nil, 0, fmt.Errorf("ListEvents scan: %w", err)
		}
		events = append(events, e)
	}

	return events, int(total), rows.Err()
}

// GetEvent returns a single event by guild ID and request ID, or nil if not found.
func (r *Reader) GetEvent(ctx context.Context, guildID, requestID string) (*EventRow, error) {
	row := r.conn.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM moderation_events WHERE guild_id = @guild_id AND request_id = @request_id", eventColumns),
		clickhouse.Named("guild_id", guildID),
		clickhouse.Named("request_id", requestID),
	)

	var e EventRow
	if err := scanEventRow(row, &e); err != nil {
		// ClickHouse doesn't return sql.ErrNoRows, so check for empty result
		return nil, fmt.Errorf("GetEvent: %w", err)
	}
	if e.RequestID == "" {
		return nil, nil
	}
	return &e, nil
}

// UserScoreRow is one historical score sample for a user.
type UserScoreRow struct {
	Timestamp   time.Time
	Action      string
	Severity    float64
	LabelNames  []string
	LabelScores []float64
}

// RecentUserScores returns a user's score history over the last N days
// in ascending time order, for the caller's report/cooldown UI.
func (r *Reader) RecentUserScores(ctx context.Context, guildID, userID string, days int) ([]UserScoreRow, error) {
	if days <= 0 {
		days = 7
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	rows, err := r.conn.Query(ctx,
		"SELECT timestamp, action, severity, label_names, label_scores "+
			"FROM moderation_events "+
			"WHERE guild_id = @guild_id AND user_id = @user_id AND timestamp >= @cutoff "+
			"ORDER BY timestamp ASC",
		clickhouse.Named("guild_id", guildID),
		clickhouse.Named("user_id", userID),
		clickhouse.Named("cutoff", cutoff),
	)
	if err != nil {
		return nil, fmt.Errorf("RecentUserScores: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []UserScoreRow
	for rows.Next() {
		var s UserScoreRow
		if err := rows.Scan(&s.Timestamp, &s.Action, &s.Severity, &s.LabelNames, &s.LabelScores); err != nil {
			return nil, fmt.Errorf("RecentUserScores scan: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
