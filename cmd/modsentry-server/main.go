package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx as database/sql driver
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/modsentry/modsentry/internal/api"
	"github.com/modsentry/modsentry/internal/chread"
	"github.com/modsentry/modsentry/internal/engine"
	"github.com/modsentry/modsentry/internal/lexicon"
	"github.com/modsentry/modsentry/internal/policy"
	"github.com/modsentry/modsentry/internal/storage"
	"github.com/modsentry/modsentry/internal/store"
)

func main() {
	// Logger
	logger := mustBuildLogger(envOrDefault("SENTRY_LOG_LEVEL", "info"))
	defer logger.Sync() //nolint:errcheck // best-effort flush

	// Config from env
	httpPort := envOrDefault("SENTRY_HTTP_PORT", "8080")
	lexiconPath := os.Getenv("SENTRY_LEXICON_PATH")
	rulesPath := os.Getenv("SENTRY_RULES_PATH")
	deleteThreshold := envOrDefaultFloat("SENTRY_DELETE_THRESHOLD", 3.0)
	headsUpThreshold := envOrDefaultFloat("SENTRY_HEADS_UP_THRESHOLD", 1.0)
	clickhouseDSN := os.Getenv("CLICKHOUSE_DSN")
	postgresDSN := os.Getenv("POSTGRES_DSN")
	cacheTTL := envOrDefaultInt("SENTRY_AUTH_CACHE_TTL_S", 30)

	if lexiconPath == "" {
		logger.Fatal("SENTRY_LEXICON_PATH is required")
	}

	logger.Info("starting modsentry server",
		zap.String("http_port", httpPort),
		zap.String("lexicon_path", lexiconPath),
		zap.Float64("delete_threshold", deleteThreshold),
		zap.Float64("heads_up_threshold", headsUpThreshold),
	)

	// Lexicon — the compiled artifact is required; the server refuses to
	// start without it rather than running with an empty word list.
	compiled, err := lexicon.LoadArtifact(lexiconPath)
	if err != nil {
		logger.Fatal("failed to load lexicon artifact", zap.Error(err), zap.String("path", lexiconPath))
	}
	logger.Info("lexicon loaded",
		zap.Int("terms", compiled.Manifest.Terms),
		zap.Int("phrases", compiled.Manifest.Phrases),
		zap.Int("inflections", compiled.Manifest.Inflections),
	)

	var current atomic.Pointer[lexicon.Compiled]
	current.Store(compiled)

	// Hot reload: swap the snapshot when the artifact file is rewritten.
	// In-flight requests keep using the snapshot they started with.
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("fsnotify unavailable, lexicon hot reload disabled", zap.Error(err))
	} else {
		defer watcher.Close()
		if err := watcher.Add(filepath.Dir(lexiconPath)); err != nil {
			logger.Warn("failed to watch lexicon directory, hot reload disabled", zap.Error(err))
		} else {
			go watchLexicon(watcher, lexiconPath, &current, logger)
		}
	}

	// Heuristic rules: YAML file if configured, built-in defaults otherwise.
	var rules *engine.RuleSet
	if rulesPath != "" {
		rules, err = engine.LoadRules(rulesPath)
		if err != nil {
			logger.Fatal("failed to load heuristic rules", zap.Error(err), zap.String("path", rulesPath))
		}
		logger.Info("heuristic rules loaded", zap.String("path", rulesPath))
	} else {
		rules = engine.DefaultRules()
		logger.Info("using built-in heuristic rules")
	}

	// Storage — ClickHouse or LogWriter fallback
	var writer storage.EventWriter
	if clickhouseDSN != "" {
		chWriter, err := storage.NewClickHouseWriter(clickhouseDSN, logger)
		if err != nil {
			logger.Warn("clickhouse connection failed, falling back to log writer",
				zap.Error(err),
			)
			writer = storage.NewLogWriter(logger)
		} else {
			writer = chWriter
			logger.Info("clickhouse writer connected")
		}
	} else {
		writer = storage.NewLogWriter(logger)
		logger.Info("no CLICKHOUSE_DSN set, using log writer")
	}
	defer writer.Close()

	// Postgres pool (required for the HTTP API)
	if postgresDSN == "" {
		logger.Fatal("POSTGRES_DSN is required")
	}
	db, err := sql.Open("pgx", postgresDSN)
	if err != nil {
		logger.Fatal("failed to open postgres", zap.Error(err))
	}
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.PingContext(context.Background()); err != nil {
		logger.Fatal("failed to ping postgres", zap.Error(err))
	}
	pgStore := store.NewStore(db)
	logger.Info("postgres connected")

	// ClickHouse reader (for event history HTTP endpoints)
	var chReader *chread.Reader
	if clickhouseDSN != "" {
		chReader, err = chread.NewReader(clickhouseDSN, logger)
		if err != nil {
			logger.Warn("clickhouse reader connection failed", zap.Error(err))
		} else {
			defer func() { _ = chReader.Close() }()
			logger.Info("clickhouse reader connected")
		}
	}

	deps := &api.Dependencies{
		Store:   pgStore,
		Lexicon: current.Load, // atomic snapshot per request
		Rules:   rules,
		Writer:  writer,
		Reader:  chReader,
		Defaults: policy.ChannelPolicy{
			DeleteThreshold:  deleteThreshold,
			HeadsUpThreshold: headsUpThreshold,
		},
		Logger:   logger,
		CacheTTL: time.Duration(cacheTTL) * time.Second,
	}
	httpServer := &http.Server{
		Addr:         ":" + httpPort,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("http server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	// Block until shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", zap.String("signal", sig.String()))

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", zap.Error(err))
	}

	logger.Info("modsentry server stopped")
}

// watchLexicon reloads the artifact when it is rewritten and swaps the
// snapshot pointer. A broken artifact keeps the previous snapshot.
func watchLexicon(watcher *fsnotify.Watcher, path string, current *atomic.Pointer[lexicon.Compiled], logger *zap.Logger) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			evAbs, err := filepath.Abs(event.Name)
			if err != nil || evAbs != abs {
				continue
			}
			// Writers may still be flushing; retry once after a beat.
			time.Sleep(200 * time.Millisecond)
			compiled, err := lexicon.LoadArtifact(path)
			if err != nil {
				logger.Error("lexicon reload failed, keeping previous snapshot",
					zap.Error(err), zap.String("path", path))
				continue
			}
			current.Store(compiled)
			logger.Info("lexicon reloaded",
				zap.Int("terms", compiled.Manifest.Terms),
				zap.Int("phrases", compiled.Manifest.Phrases),
			)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("lexicon watcher error", zap.Error(err))
		}
	}
}

func mustBuildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	return logger
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func envOrDefaultFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
