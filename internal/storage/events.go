package storage

import "time"

// EventWriter is the interface for writing moderation events.
// Write() must NEVER block the caller.
type EventWriter interface {
	Write(event *ModerationEvent)
	Close()
}

// ModerationEvent represents a single classify() result to be
// persisted. Only a preview of the message text is stored, alongside a
// hash of the full text for audit.
type ModerationEvent struct {
	RequestID     string
	GuildID       string
	ChannelID     string
	UserID        string
	MessageID     string
	Timestamp     time.Time
	TextPreview   string // first 500 chars
	TextHash      string // SHA256 of full text
	TextSize      uint32
	Action        string
	AlwaysFlag    bool
	Severity      float64
	Categories    []string
	HitSurfaces   []string
	HitKinds      []string
	HitWeights    []float64
	LabelNames    []string
	LabelScores   []float64
	ClientTraceID string
	LatencyMs     float32
	Source        string // "bot" or "api"
}

// TextPreviewLength is the max chars stored in text_preview.
const TextPreviewLength = 500

// TruncateText returns the first N characters (runes) of message text
// for preview storage. It never splits a multi-byte UTF-8 character.
func TruncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen])
}
