package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fairyforge/fairy-server-go/internal/archive"
	"github.com/fairyforge/fairy-server-go/internal/config"
	"github.com/fairyforge/fairy-server-go/internal/game"
	"github.com/fairyforge/fairy-server-go/internal/game/layouts"
	"github.com/fairyforge/fairy-server-go/internal/game/rules"
	"github.com/fairyforge/fairy-server-go/internal/server"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting fairy server",
		zap.String("version", version),
		zap.String("config", *configPath),
		zap.Strings("layouts", layouts.Names()),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	engine := game.NewEngine(logger, cfg.EngineOptions())

	var recorder *game.ReplayRecorder
	if cfg.Replay.Enabled {
		recorder = game.NewReplayRecorder(logger, cfg.Replay.Directory)
		engine.SetReplayRecorder(recorder)
	}

	var archiver *archive.Archiver
	if cfg.Archive.Enabled {
		archiver = archive.NewArchiver(cfg.Archive.Directory, logger)
	}

	hub := server.NewHub(engine, logger, server.HubOptions{
		Layout: cfg.Server.Layout,
		Clock:  cfg.DefaultClock(),
	})
	engine.SetNotificationHandler(func(ev rules.Event) {
		hub.Forward(ev)
		if ev.Type == rules.EventGameOver {
			go persistFinishedGame(engine, archiver, recorder, ev.GameID, logger)
		}
	})
	go hub.Run(ctx)

	if cfg.Server.TickInterval > 0 {
		go runClocks(ctx, hub, cfg.Server.TickInterval)
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	httpServer := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting websocket server", zap.String("address", cfg.Server.Address))
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("websocket server error", zap.Error(serveErr))
			sigChan <- syscall.SIGTERM
		}
	}()

	logger.Info("fairy server initialized",
		zap.String("version", version),
		zap.String("address", cfg.Server.Address),
		zap.String("default_layout", cfg.Server.Layout),
		zap.Bool("archive", cfg.Archive.Enabled),
		zap.Bool("replay", cfg.Replay.Enabled),
	)

	// Wait for termination signal
	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	// Graceful shutdown
	logger.Info("shutting down gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown failed", zap.Error(err))
	}
	cancel()

	for _, gameID := range engine.GameIDs() {
		if err := engine.EndGame(gameID); err != nil {
			logger.Warn("failed to end game", zap.String("game_id", gameID), zap.Error(err))
		}
	}

	logger.Info("fairy server stopped")
}

// runClocks ticks every game's active clock by the wall time that passed.
func runClocks(ctx context.Context, hub *server.Hub, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			hub.TickAll(now.Sub(last))
			last = now
		}
	}
}

// persistFinishedGame archives a finished game and saves its replay. The
// game stays in memory so clients can still view it.
func persistFinishedGame(engine *game.Engine, archiver *archive.Archiver, recorder *game.ReplayRecorder, gameID string, logger *zap.Logger) {
	if archiver != nil {
		rec, err := engine.Record(gameID)
		if err != nil {
			logger.Warn("failed to read finished game", zap.String("game_id", gameID), zap.Error(err))
		} else if _, err := archiver.WriteGame(rec); err != nil {
			logger.Error("failed to archive game", zap.String("game_id", gameID), zap.Error(err))
		}
	}
	if recorder != nil && recorder.IsRecording(gameID) {
		if err := recorder.SaveReplay(gameID); err != nil {
			logger.Error("failed to save replay", zap.String("game_id", gameID), zap.Error(err))
		}
	}
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
