package api

import (
	"encoding/json"
	"time"

	"github.com/modsentry/modsentry/internal/policy"
)

// --- POST /v1/classify request/response ---

// ClassifyRequest is the JSON body for POST /v1/classify. The guild is
// taken from the authenticated API key, not the body.
type ClassifyRequest struct {
	Text      string `json:"text"`
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user_id,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
}

// HitResp is one evidence span for the explanation UI.
type HitResp struct {
	Surface    string   `json:"surface"`
	Kind       string   `json:"kind"`
	Start      int      `json:"start"`
	End        int      `json:"end"`
	Categories []string `json:"categories"`
	Weight     float64  `json:"weight"`
	AlwaysFlag bool     `json:"always_flag"`
}

// ClassifyResponse carries the verdict, the derived label scores and
// the gate decision.
type ClassifyResponse struct {
	RequestID  string                          `json:"request_id"`
	Action     string                          `json:"action"`
	AlwaysFlag bool                            `json:"always_flag"`
	Severity   float64                         `json:"severity"`
	Categories []string                        `json:"categories"`
	Hits       []HitResp                       `json:"hits"`
	Labels     map[string]policy.LabelDecision `json:"labels"`
	Normalized string                          `json:"normalized"`
	LatencyMs  float64                         `json:"latency_ms"`
}

// --- Guild CRUD ---

// CreateGuildReq is the JSON body for POST /api/moderation/guilds.
type CreateGuildReq struct {
	Name string `json:"name"`
}

// CreateGuildResp includes the plaintext API key (shown once).
type CreateGuildResp struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	APIKey       string    `json:"api_key"`
	APIKeyPrefix string    `json:"api_key_prefix"`
	CreatedAt    time.Time `json:"created_at"`
}

// GuildResp never carries the plaintext key.
type GuildResp struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	APIKeyPrefix string    `json:"api_key_prefix"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RotateKeyResp includes the new plaintext API key (shown once).
type RotateKeyResp struct {
	APIKey       string `json:"api_key"`
	APIKeyPrefix string `json:"api_key_prefix"`
}

// --- Channel policy ---

// ChannelPolicyReq is the JSON body for PUT channel policy.
type ChannelPolicyReq struct {
	DeleteThreshold  float64         `json:"delete_threshold"`
	HeadsUpThreshold float64         `json:"heads_up_threshold"`
	LabelThresholds  json.RawMessage `json:"label_thresholds,omitempty"`
}

// ChannelPolicyResp mirrors a channel_policies row; Default is true
// when the channel has no stored row and server defaults apply.
type ChannelPolicyResp struct {
	GuildID          string          `json:"guild_id"`
	ChannelID        string          `json:"channel_id"`
	DeleteThreshold  float64         `json:"delete_threshold"`
	HeadsUpThreshold float64         `json:"heads_up_threshold"`
	LabelThresholds  json.RawMessage `json:"label_thresholds"`
	Default          bool            `json:"default"`
	UpdatedAt        *time.Time      `json:"updated_at,omitempty"`
}

// --- Moderation events ---

// ModerationEventResp mirrors a moderation_events row.
type ModerationEventResp struct {
	RequestID   string             `json:"request_id"`
	GuildID     string             `json:"guild_id"`
	ChannelID   string             `json:"channel_id"`
	UserID      string             `json:"user_id"`
	MessageID   string             `json:"message_id"`
	Timestamp   time.Time          `json:"timestamp"`
	TextPreview string             `json:"text_preview"`
	Action      string             `json:"action"`
	AlwaysFlag  bool               `json:"always_flag"`
	Severity    float64            `json:"severity"`
	Categories  []string           `json:"categories"`
	Hits        []HitResp          `json:"hits"`
	Labels      map[string]float64 `json:"labels"`
	LatencyMs   float32            `json:"latency_ms"`
	Source      string             `json:"source"`
}

// EventListResp is a page of moderation events.
type EventListResp struct {
	Events   []ModerationEventResp `json:"events"`
	Total    int                   `json:"total"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
}

// UserReportResp is a user's recent score history.
type UserReportResp struct {
	GuildID string          `json:"guild_id"`
	UserID  string          `json:"user_id"`
	Days    int             `json:"days"`
	Samples []UserScoreResp `json:"samples"`
}

// UserScoreResp is one historical sample in a user report.
type UserScoreResp struct {
	Timestamp time.Time          `json:"timestamp"`
	Action    string             `json:"action"`
	Severity  float64            `json:"severity"`
	Labels    map[string]float64 `json:"labels"`
}

// ErrorResp is a standard error response body.
type ErrorResp struct {
	Detail string `json:"detail"`
}
