// Command server runs the pattern securities market: the exchange
// simulation, its tick driver and the HTTP API.
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

	"github.com/duskvale/patternmarket/internal/api"
	"github.com/duskvale/patternmarket/internal/bots"
	"github.com/duskvale/patternmarket/internal/config"
	"github.com/duskvale/patternmarket/internal/exchange"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadServerFromEnv()

	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg config.ServerConfig, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := exchange.NewService(exchange.Config{
		StartingCash:   cfg.StartingCash,
		TrendEvalEvery: cfg.TrendEvalEvery,
		TrendShockProb: cfg.TrendShockProb,
		EventLogSize:   cfg.EventLogSize,
		Seed:           cfg.Seed,
		Logger:         logger.Named("exchange"),
	})
	defer svc.Close()

	var runners []*bots.Runner
	for i := 0; i < cfg.BotCount; i++ {
		name := fmt.Sprintf("bot-%02d", i+1)
		runners = append(runners, bots.NewRunner(bots.Config{}, name, svc, logger.Named("bots")))
	}
	defer func() {
		for _, r := range runners {
			r.Close()
		}
	}()

	// Tick driver: one external caller advances the simulation.
	go func() {
		ticker := time.NewTicker(cfg.TickEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := svc.Tick(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Warn("tick failed", zap.Error(err))
				}
			}
		}
	}()

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: api.New(svc, logger.Named("api")).Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.Addr),
			zap.Duration("tick_every", cfg.TickEvery),
			zap.Int("bots", cfg.BotCount))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
