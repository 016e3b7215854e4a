package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

func (d *Dependencies) handleCreateGuild(w http.ResponseWriter, r *http.Request) {
	var req CreateGuildReq
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "name is required"})
		return
	}

	guild, apiKey, err := d.Store.CreateGuild(r.Context(), req.Name)
	if err != nil {
		d.Logger.Error("create guild failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to create guild"})
		return
	}

	writeJSON(w, http.StatusCreated, CreateGuildResp{
		ID:           guild.ID,
		Name:         guild.Name,
		APIKey:       apiKey,
		APIKeyPrefix: guild.APIKeyPrefix,
		CreatedAt:    guild.CreatedAt,
	})
}

func (d *Dependencies) handleListGuilds(w http.ResponseWriter, r *http.Request) {
	guilds, err := d.Store.ListGuilds(r.Context())
	if err != nil {
		d.Logger.Error("list guilds failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to list guilds"})
		return
	}

	out := make([]GuildResp, 0, len(guilds))
	for _, g := range guilds {
		out = append(out, GuildResp{
			ID:           g.ID,
			Name:         g.Name,
			APIKeyPrefix: g.APIKeyPrefix,
			CreatedAt:    g.CreatedAt,
			UpdatedAt:    g.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (d *Dependencies) handleGetGuild(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("guild_id")
	guild, err := d.Store.GetGuild(r.Context(), id)
	if err != nil {
		d.Logger.Error("get guild failed", zap.Error(err), zap.String("guild_id", id))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to get guild"})
		return
	}
	if guild == nil {
		writeJSON(w, http.StatusNotFound, ErrorResp{Detail: "Guild not found"})
		return
	}
	writeJSON(w, http.StatusOK, GuildResp{
		ID:           guild.ID,
		Name:         guild.Name,
		APIKeyPrefix: guild.APIKeyPrefix,
		CreatedAt:    guild.CreatedAt,
		UpdatedAt:    guild.UpdatedAt,
	})
}

func (d *Dependencies) handleDeleteGuild(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("guild_id")
	err := d.Store.DeleteGuild(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeJSON(w, http.StatusNotFound, ErrorResp{Detail: "Guild not found"})
		return
	}
	if err != nil {
		d.Logger.Error("delete guild failed", zap.Error(err), zap.String("guild_id", id))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to delete guild"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (d *Dependencies) handleRotateKey(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("guild_id")
	guild, apiKey, err := d.Store.RotateAPIKey(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeJSON(w, http.StatusNotFound, ErrorResp{Detail: "Guild not found"})
		return
	}
	if err != nil {
		d.Logger.Error("rotate key failed", zap.Error(err), zap.String("guild_id", id))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to rotate API key"})
		return
	}
	writeJSON(w, http.StatusOK, RotateKeyResp{
		APIKey:       apiKey,
		APIKeyPrefix: guild.APIKeyPrefix,
	})
}
