// Package api implements the HTTP surface: the classify endpoint the
// moderation bots call, guild and channel-policy administration, and
// moderation event history backed by ClickHouse.
package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/modsentry/modsentry/internal/chread"
	"github.com/modsentry/modsentry/internal/engine"
	"github.com/modsentry/modsentry/internal/lexicon"
	"github.com/modsentry/modsentry/internal/policy"
	"github.com/modsentry/modsentry/internal/storage"
	"github.com/modsentry/modsentry/internal/store"
)

// Dependencies holds everything the handlers need.
type Dependencies struct {
	Store *store.Store

	// Lexicon returns the current compiled lexicon snapshot. The server
	// swaps snapshots atomically on artifact reload; handlers call this
	// once per request and use the snapshot throughout.
	Lexicon func() *lexicon.Compiled

	Rules    *engine.RuleSet
	Writer   storage.EventWriter
	Reader   *chread.Reader // nil when ClickHouse is not configured
	Defaults policy.ChannelPolicy
	Logger   *zap.Logger
	CacheTTL time.Duration
}

// NewRouter builds the HTTP handler tree.
func NewRouter(deps *Dependencies) http.Handler {
	if deps.CacheTTL <= 0 {
		deps.CacheTTL = 5 * time.Minute
	}

	mux := http.NewServeMux()

	// Bot-facing endpoints (guild API key auth)
	mux.HandleFunc("POST /v1/classify", deps.authMiddleware(deps.handleClassify))
	mux.HandleFunc("GET /v1/events", deps.authMiddleware(deps.handleListEvents))
	mux.HandleFunc("GET /v1/events/export", deps.authMiddleware(deps.handleEventsExport))
	mux.HandleFunc("GET /v1/events/{request_id}", deps.authMiddleware(deps.handleGetEvent))
	mux.HandleFunc("GET /v1/users/{user_id}/report", deps.authMiddleware(deps.handleUserReport))

	// Guild CRUD (no auth — dashboard auth added later)
	mux.HandleFunc("POST /api/moderation/guilds", deps.handleCreateGuild)
	mux.HandleFunc("GET /api/moderation/guilds", deps.handleListGuilds)
	mux.HandleFunc("GET /api/moderation/guilds/{guild_id}", deps.handleGetGuild)
	mux.HandleFunc("DELETE /api/moderation/guilds/{guild_id}", deps.handleDeleteGuild)
	mux.HandleFunc("POST /api/moderation/guilds/{guild_id}/rotate-key", deps.handleRotateKey)

	// Channel policy CRUD (no auth)
	mux.HandleFunc("GET /api/moderation/guilds/{guild_id}/channels/{channel_id}/policy", deps.handleGetChannelPolicy)
	mux.HandleFunc("PUT /api/moderation/guilds/{guild_id}/channels/{channel_id}/policy", deps.handleReplaceChannelPolicy)
	mux.HandleFunc("DELETE /api/moderation/guilds/{guild_id}/channels/{channel_id}/policy", deps.handleDeleteChannelPolicy)

	// Health check
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return corsMiddleware(requestLogging(mux, deps.Logger))
}
