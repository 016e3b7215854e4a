package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/modsentry/modsentry/internal/policy"
	"github.com/modsentry/modsentry/internal/store"
)

// handleGetChannelPolicy returns the stored policy row, or server
// defaults with Default=true when the channel has none.
func (d *Dependencies) handleGetChannelPolicy(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guild_id")
	channelID := r.PathValue("channel_id")

	row, err := d.Store.GetChannelPolicy(r.Context(), guildID, channelID)
	if err != nil {
		d.Logger.Error("get channel policy failed", zap.Error(err),
			zap.String("guild_id", guildID), zap.String("channel_id", channelID))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to get channel policy"})
		return
	}
	if row == nil {
		defaults := policy.Defaults()
		writeJSON(w, http.StatusOK, ChannelPolicyResp{
			GuildID:          guildID,
			ChannelID:        channelID,
			DeleteThreshold:  defaults.DeleteThreshold,
			HeadsUpThreshold: defaults.HeadsUpThreshold,
			Default:          true,
		})
		return
	}
	writeJSON(w, http.StatusOK, policyResp(row))
}

func (d *Dependencies) handleReplaceChannelPolicy(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guild_id")
	channelID := r.PathValue("channel_id")

	var req ChannelPolicyReq
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}
	if req.DeleteThreshold < 0 || req.HeadsUpThreshold < 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "thresholds must be non-negative"})
		return
	}
	if req.DeleteThreshold > 0 && req.HeadsUpThreshold > req.DeleteThreshold {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "heads_up_threshold must not exceed delete_threshold"})
		return
	}

	guild, err := d.Store.GetGuild(r.Context(), guildID)
	if err != nil {
		d.Logger.Error("get guild failed", zap.Error(err), zap.String("guild_id", guildID))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to store channel policy"})
		return
	}
	if guild == nil {
		writeJSON(w, http.StatusNotFound, ErrorResp{Detail: "Guild not found"})
		return
	}

	row, err := d.Store.UpsertChannelPolicy(r.Context(), store.ChannelPolicy{
		GuildID:          guildID,
		ChannelID:        channelID,
		DeleteThreshold:  req.DeleteThreshold,
		HeadsUpThreshold: req.HeadsUpThreshold,
		LabelThresholds:  req.LabelThresholds,
	})
	if err != nil {
		d.Logger.Error("upsert channel policy failed", zap.Error(err),
			zap.String("guild_id", guildID), zap.String("channel_id", channelID))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to store channel policy"})
		return
	}
	writeJSON(w, http.StatusOK, policyResp(row))
}

func (d *Dependencies) handleDeleteChannelPolicy(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guild_id")
	channelID := r.PathValue("channel_id")

	existed, err := d.Store.DeleteChannelPolicy(r.Context(), guildID, channelID)
	if err != nil {
		d.Logger.Error("delete channel policy failed", zap.Error(err),
			zap.String("guild_id", guildID), zap.String("channel_id", channelID))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to delete channel policy"})
		return
	}
	if !existed {
		writeJSON(w, http.StatusNotFound, ErrorResp{Detail: "Channel policy not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func policyResp(row *store.ChannelPolicy) ChannelPolicyResp {
	updated := row.UpdatedAt
	return ChannelPolicyResp{
		GuildID:          row.GuildID,
		ChannelID:        row.ChannelID,
		DeleteThreshold:  row.DeleteThreshold,
		HeadsUpThreshold: row.HeadsUpThreshold,
		LabelThresholds:  row.LabelThresholds,
		UpdatedAt:        &updated,
	}
}
