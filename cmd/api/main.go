package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/zhouzirui/ergodesk/backend/internal/config"
	"github.com/zhouzirui/ergodesk/backend/internal/handler"
	"github.com/zhouzirui/ergodesk/backend/internal/model/persona"
	"github.com/zhouzirui/ergodesk/backend/internal/service/ai"
	"github.com/zhouzirui/ergodesk/backend/internal/service/chat"
)

// generatorFactory builds the text generator for the configured provider.
type generatorFactory func(ctx context.Context, cfg config.GeneratorConfig) (ai.Generator, error)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, ai.NewGenerator); err != nil {
		zap.L().Fatal("backend stopped", zap.Error(err))
	}
}

// run wires the backend and serves until ctx is done. A missing credential is
// reported before newGenerator is ever called.
func run(ctx context.Context, newGenerator generatorFactory) error {
	// Load .env file
	envErr := godotenv.Load()

	cfg, cfgErr := config.Load()

	var logCfg config.LogConfig
	if cfg != nil {
		logCfg = cfg.Log
	}
	logger := newLogger(logCfg)
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if envErr != nil {
		logger.Info("no .env file loaded, using system environment only", zap.Error(envErr))
	}
	if cfgErr != nil {
		if errors.Is(cfgErr, config.ErrMissingCredential) {
			return fmt.Errorf("generator credential missing, refusing to start: %w", cfgErr)
		}
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}

	generator, err := newGenerator(ctx, cfg.Generator)
	if err != nil {
		return fmt.Errorf("failed to initialize %s generator: %w", cfg.Generator.Provider, err)
	}
	logger.Info("generator initialized",
		zap.String("provider", string(cfg.Generator.Provider)),
		zap.String("model", cfg.Generator.Model))

	personaStore := persona.NewMemoryStore(persona.Seed())
	if _, ok := personaStore.FindByID(cfg.DefaultPersona); !ok {
		return fmt.Errorf("default persona %q not found", cfg.DefaultPersona)
	}

	chatService := chat.NewService(generator, personaStore, ai.NewInstructionBuilder(),
		chat.WithDefaultPersona(cfg.DefaultPersona),
		chat.WithLogger(logger.Named("chat")))

	router := handler.NewRouter(personaStore, chatService, logger.Named("http"))

	return startServer(ctx, logger, cfg.Server, router)
}

func newLogger(cfg config.LogConfig) *zap.Logger {
	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		if level, err := zapcore.ParseLevel(cfg.Level); err == nil {
			zcfg.Level = zap.NewAtomicLevelAt(level)
		}
	}

	logger, err := zcfg.Build()
	if err != nil {
		return zap.NewExample()
	}
	return logger
}

func startServer(ctx context.Context, logger *zap.Logger, serverCfg config.ServerConfig, router http.Handler) error {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("ergonomic consultant backend listening", zap.String("addr", serverCfg.Addr))
	if err := runServer(ctx, srv); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
