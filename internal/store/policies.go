package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// ChannelPolicy represents a row in the channel_policies table.
// Channels without a row use server defaults.
type ChannelPolicy struct {
	GuildID          string
	ChannelID        string
	DeleteThreshold  float64
	HeadsUpThreshold float64
	LabelThresholds  json.RawMessage // nullable JSONB: {"toxicity": 0.5, ...}
	UpdatedAt        time.Time
}

// GetChannelPolicy returns the policy for a channel, or nil if not set.
func (s *Store) GetChannelPolicy(ctx context.Context, guildID, channelID string) (*ChannelPolicy, error) {
	var p ChannelPolicy
	err := s.db.QueryRowContext(ctx, `
		SELECT guild_id, channel_id, delete_threshold, heads_up_threshold,
		       COALESCE(label_thresholds, 'null'::jsonb), updated_at
		FROM channel_policies WHERE guild_id = $1 AND channel_id = $2`,
		guildID, channelID,
	).Scan(&p.GuildID, &p.ChannelID, &p.DeleteThreshold, &p.HeadsUpThreshold,
		&p.LabelThresholds, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetChannelPolicy: %w", err)
	}
	return &p, nil
}

// UpsertChannelPolicy creates or replaces a channel's policy.
func (s *Store) UpsertChannelPolicy(ctx context.Context, p ChannelPolicy) (*ChannelPolicy, error) {
	var out ChannelPolicy
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO channel_policies (guild_id, channel_id, delete_threshold, heads_up_threshold, label_thresholds)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (guild_id, channel_id) DO UPDATE SET
			delete_threshold   = excluded.delete_threshold,
			heads_up_threshold = excluded.heads_up_threshold,
			label_thresholds   = excluded.label_thresholds,
			updated_at         = now()
		RETURNING guild_id, channel_id, delete_threshold, heads_up_threshold,
		          COALESCE(label_thresholds, 'null'::jsonb), updated_at`,
		p.GuildID, p.ChannelID, p.DeleteThreshold, p.HeadsUpThreshold, nullableRaw(p.LabelThresholds),
	).Scan(&out.GuildID, &out.ChannelID, &out.DeleteThreshold, &out.HeadsUpThreshold,
		&out.LabelThresholds, &out.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("UpsertChannelPolicy: %w", err)
	}
	return &out, nil
}

// DeleteChannelPolicy removes a channel's policy, reverting it to the
// server defaults. Returns false if no row existed.
func (s *Store) DeleteChannelPolicy(ctx context.Context, guildID, channelID string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM channel_policies WHERE guild_id = $1 AND channel_id = $2`,
		guildID, channelID)
	if err != nil {
		return false, fmt.Errorf("DeleteChannelPolicy: %w", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// nullableRaw returns nil (SQL NULL) if the raw message is nil or empty.
func nullableRaw(v json.RawMessage) interface{} {
	if len(v) == 0 || string(v) == "null" {
		return nil
	}
	return v
}
