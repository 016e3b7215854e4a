package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/modsentry/modsentry/internal/engine"
	"github.com/modsentry/modsentry/internal/lexicon"
	"github.com/modsentry/modsentry/internal/policy"
	"github.com/modsentry/modsentry/internal/storage"
	"github.com/modsentry/modsentry/internal/store"
)

// handleClassify handles POST /v1/classify. It runs the detection engine
// over the submitted text, gates the verdict through the channel policy,
// records a moderation event, and returns the decision.
func (d *Dependencies) handleClassify(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	guild := guildFromContext(r.Context())
	if guild == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResp{Detail: "Unauthorized"})
		return
	}

	var req ClassifyRequest
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "text is required"})
		return
	}

	verdict, err := engine.Match(req.Text, d.Lexicon(), d.Rules)
	if err != nil {
		d.Logger.Error("match failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Classification failed"})
		return
	}

	// Channel policy: per-channel row if one exists, server defaults otherwise.
	pol := d.Defaults
	if req.ChannelID != "" {
		row, err := d.Store.GetChannelPolicy(r.Context(), guild.ID, req.ChannelID)
		if err != nil {
			d.Logger.Error("channel policy lookup failed", zap.Error(err),
				zap.String("guild_id", guild.ID), zap.String("channel_id", req.ChannelID))
		} else if row != nil {
			pol = rowPolicy(row)
		}
	}

	decision := policy.Decide(verdict, pol)

	requestID := uuid.New().String()
	latency := time.Since(start)

	resp := ClassifyResponse{
		RequestID:  requestID,
		Action:     decision.Action.String(),
		AlwaysFlag: verdict.AlwaysFlag,
		Severity:   verdict.Severity,
		Categories: categoryStrings(verdict.Categories),
		Hits:       hitResponses(verdict.Hits),
		Labels:     decision.Labels,
		Normalized: verdict.Normalized,
		LatencyMs:  float64(latency.Microseconds()) / 1000.0,
	}

	d.writeEvent(guild, &req, verdict, decision, requestID, latency)

	writeJSON(w, http.StatusOK, resp)
}

// writeEvent records the moderation event asynchronously via the event writer.
func (d *Dependencies) writeEvent(guild *authGuild, req *ClassifyRequest, verdict *engine.Verdict, decision policy.Decision, requestID string, latency time.Duration) {
	hash := sha256.Sum256([]byte(req.Text))
	scores := verdict.Scores()

	surfaces := make([]string, len(verdict.Hits))
	kinds := make([]string, len(verdict.Hits))
	weights := make([]float64, len(verdict.Hits))
	for i, h := range verdict.Hits {
		surfaces[i] = h.Surface
		kinds[i] = h.Kind
		weights[i] = h.Weight
	}

	labelScores := make([]float64, len(engine.LabelNames))
	for i, name := range engine.LabelNames {
		labelScores[i] = scores.Get(name)
	}

	event := storage.ModerationEvent{
		RequestID:     requestID,
		GuildID:       guild.ID,
		ChannelID:     req.ChannelID,
		UserID:        req.UserID,
		MessageID:     req.MessageID,
		Timestamp:     time.Now().UTC(),
		TextPreview:   storage.TruncateText(req.Text, storage.TextPreviewLength),
		TextHash:      hex.EncodeToString(hash[:]),
		TextSize:      uint32(len(req.Text)),
		Action:        decision.Action.String(),
		AlwaysFlag:    verdict.AlwaysFlag,
		Severity:      verdict.Severity,
		Categories:    categoryStrings(verdict.Categories),
		HitSurfaces:   surfaces,
		HitKinds:      kinds,
		HitWeights:    weights,
		LabelNames:    engine.LabelNames,
		LabelScores:   labelScores,
		ClientTraceID: req.TraceID,
		LatencyMs:     float32(latency.Microseconds()) / 1000.0,
		Source:        "api",
	}

	d.Writer.Write(&event)
}

// rowPolicy converts a stored channel policy row into gate thresholds.
func rowPolicy(row *store.ChannelPolicy) policy.ChannelPolicy {
	pol := policy.ChannelPolicy{
		DeleteThreshold:  row.DeleteThreshold,
		HeadsUpThreshold: row.HeadsUpThreshold,
	}
	if len(row.LabelThresholds) > 0 && string(row.LabelThresholds) != "null" {
		var labels map[string]float64
		if err := json.Unmarshal(row.LabelThresholds, &labels); err == nil {
			pol.LabelThresholds = labels
		}
	}
	return pol
}

func categoryStrings(cats []lexicon.Category) []string {
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = string(c)
	}
	return out
}

func hitResponses(hits []engine.MatchHit) []HitResp {
	out := make([]HitResp, len(hits))
	for i, h := range hits {
		out[i] = HitResp{
			Start:      h.Start,
			End:        h.End,
			Surface:    h.Surface,
			Kind:       h.Kind,
			Categories: categoryStrings(h.Categories),
			Weight:     h.Weight,
			AlwaysFlag: h.AlwaysFlag,
		}
	}
	return out
}
