package api

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/modsentry/modsentry/internal/chread"
)

// handleListEvents serves GET /v1/events (filtered, paginated) for the
// authenticated guild.
func (d *Dependencies) handleListEvents(w http.ResponseWriter, r *http.Request) {
	guild := guildFromContext(r.Context())
	if guild == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResp{Detail: "Unauthorized"})
		return
	}
	if d.Reader == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResp{Detail: "Event history not configured"})
		return
	}

	params, err := parseListParams(r, guild.ID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: err.Error()})
		return
	}

	rows, total, err := d.Reader.ListEvents(r.Context(), params)
	if err != nil {
		d.Logger.Error("list events failed", zap.Error(err), zap.String("guild_id", guild.ID))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to list events"})
		return
	}

	events := make([]ModerationEventResp, 0, len(rows))
	for i := range rows {
		events = append(events, eventResp(&rows[i]))
	}
	writeJSON(w, http.StatusOK, EventListResp{
		Events:   events,
		Total:    total,
		Page:     params.Page,
		PageSize: params.PageSize,
	})
}

// handleGetEvent serves GET /v1/events/{request_id}.
func (d *Dependencies) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	guild := guildFromContext(r.Context())
	if guild == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResp{Detail: "Unauthorized"})
		return
	}
	if d.Reader == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResp{Detail: "Event history not configured"})
		return
	}

	requestID := r.PathValue("request_id")
	row, err := d.Reader.GetEvent(r.Context(), guild.ID, requestID)
	if err != nil {
		d.Logger.Error("get event failed", zap.Error(err), zap.String("request_id", requestID))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to get event"})
		return
	}
	if row == nil {
		writeJSON(w, http.StatusNotFound, ErrorResp{Detail: "Event not found"})
		return
	}
	writeJSON(w, http.StatusOK, eventResp(row))
}

// handleEventsExport serves GET /v1/events/export as CSV, using the
// same filters as the list endpoint.
func (d *Dependencies) handleEventsExport(w http.ResponseWriter, r *http.Request) {
	guild := guildFromContext(r.Context())
	if guild == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResp{Detail: "Unauthorized"})
		return
	}
	if d.Reader == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResp{Detail: "Event history not configured"})
		return
	}

	params, err := parseListParams(r, guild.ID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: err.Error()})
		return
	}
	// Export ignores pagination and caps rows instead.
	params.Page = 1
	params.PageSize = 10000

	rows, _, err := d.Reader.ListEvents(r.Context(), params)
	if err != nil {
		d.Logger.Error("export events failed", zap.Error(err), zap.String("guild_id", guild.ID))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to export events"})
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="moderation_events_%s.csv"`, time.Now().UTC().Format("20060102T150405")))

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{
		"request_id", "timestamp", "channel_id", "user_id", "message_id",
		"action", "always_flag", "severity", "categories", "hits", "text_preview",
	})
	for i := range rows {
		e := &rows[i]
		_ = cw.Write([]string{
			e.RequestID,
			e.Timestamp.UTC().Format(time.RFC3339),
			e.ChannelID,
			e.UserID,
			e.MessageID,
			e.Action,
			strconv.FormatBool(e.AlwaysFlag != 0),
			strconv.FormatFloat(e.Severity, 'f', 4, 64),
			strings.Join(e.Categories, " "),
			strings.Join(e.HitSurfaces, " "),
			e.TextPreview,
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		d.Logger.Warn("csv flush failed", zap.Error(err))
	}
}

// handleUserReport serves GET /v1/users/{user_id}/report?days=N.
func (d *Dependencies) handleUserReport(w http.ResponseWriter, r *http.Request) {
	guild := guildFromContext(r.Context())
	if guild == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResp{Detail: "Unauthorized"})
		return
	}
	if d.Reader == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResp{Detail: "Event history not configured"})
		return
	}

	userID := r.PathValue("user_id")
	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 90 {
			writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "days must be between 1 and 90"})
			return
		}
		days = n
	}

	rows, err := d.Reader.RecentUserScores(r.Context(), guild.ID, userID, days)
	if err != nil {
		d.Logger.Error("user report failed", zap.Error(err),
			zap.String("guild_id", guild.ID), zap.String("user_id", userID))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to build user report"})
		return
	}

	samples := make([]UserScoreResp, 0, len(rows))
	for _, row := range rows {
		labels := make(map[string]float64, len(row.LabelNames))
		for i, name := range row.LabelNames {
			if i < len(row.LabelScores) {
				labels[name] = row.LabelScores[i]
			}
		}
		samples = append(samples, UserScoreResp{
			Timestamp: row.Timestamp,
			Action:    row.Action,
			Severity:  row.Severity,
			Labels:    labels,
		})
	}

	writeJSON(w, http.StatusOK, UserReportResp{
		GuildID: guild.ID,
		UserID:  userID,
		Days:    days,
		Samples: samples,
	})
}

// parseListParams extracts list filters and pagination from the query string.
func parseListParams(r *http.Request, guildID string) (chread.ListEventsParams, error) {
	q := r.URL.Query()
	params := chread.ListEventsParams{
		GuildID:  guildID,
		Page:     1,
		PageSize: 50,
	}

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return params, fmt.Errorf("invalid page")
		}
		params.Page = n
	}
	if v := q.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			return params, fmt.Errorf("invalid page_size")
		}
		params.PageSize = n
	}
	if v := q.Get("channel_id"); v != "" {
		params.ChannelID = &v
	}
	if v := q.Get("user_id"); v != "" {
		params.UserID = &v
	}
	if v := q.Get("action"); v != "" {
		switch v {
		case "ignore", "heads_up", "delete":
			params.Action = &v
		default:
			return params, fmt.Errorf("invalid action filter")
		}
	}
	if v := q.Get("category"); v != "" {
		params.Category = &v
	}
	if v := q.Get("start_time"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return params, fmt.Errorf("invalid start_time, want RFC3339")
		}
		params.StartTime = &t
	}
	if v := q.Get("end_time"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return params, fmt.Errorf("invalid end_time, want RFC3339")
		}
		params.EndTime = &t
	}
	return params, nil
}

func eventResp(e *chread.EventRow) ModerationEventResp {
	hits := make([]HitResp, 0, len(e.HitSurfaces))
	for i, surface := range e.HitSurfaces {
		h := HitResp{Surface: surface}
		if i < len(e.HitKinds) {
			h.Kind = e.HitKinds[i]
		}
		if i < len(e.HitWeights) {
			h.Weight = e.HitWeights[i]
		}
		hits = append(hits, h)
	}

	labels := make(map[string]float64, len(e.LabelNames))
	for i, name := range e.LabelNames {
		if i < len(e.LabelScores) {
			labels[name] = e.LabelScores[i]
		}
	}

	return ModerationEventResp{
		RequestID:   e.RequestID,
		GuildID:     e.GuildID,
		ChannelID:   e.ChannelID,
		UserID:      e.UserID,
		MessageID:   e.MessageID,
		Timestamp:   e.Timestamp,
		TextPreview: e.TextPreview,
		Action:      e.Action,
		AlwaysFlag:  e.AlwaysFlag != 0,
		Severity:    e.Severity,
		Categories:  e.Categories,
		Hits:        hits,
		Labels:      labels,
		LatencyMs:   e.LatencyMs,
		Source:      e.Source,
	}
}
