// Command casino-bridge serves the game engine over HTTP and websocket.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bhaeesma-sketch/Bhaeesgame/internal/api"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/casino"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/config"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/history"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/ledger"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/logger"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/metrics"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/scripting"
)

func main() {
	if err := run(); err != nil {
		slog.Error("casino-bridge exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.Setup(cfg.Logger(api.EngineVersion))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := history.Open(ctx)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()
	recorder := history.NewRecorder(store, cfg.History.FlushSize)

	balance, err := cfg.StartingBalance()
	if err != nil {
		return err
	}
	book := ledger.New(ledger.WithStartingBalance(balance))
	metrics.Balance.Set(balance.InexactFloat64())

	hub := api.NewHub(cfg.AllowedOrigins)
	go hub.Run(ctx)

	eng := casino.New(
		casino.WithLedger(book),
		casino.WithSource(cfg.Source()),
		casino.WithNotifier(hub),
		casino.WithHistory(recorder),
		casino.WithOutcomeCache(cfg.OutcomeCache.Size, cfg.OutcomeCache.TTL),
	)

	autoplay := casino.NewAutoplay(eng, store)
	runner := scripting.NewEngine(autoplay, hub)
	runner.SetRecorder(autoplay)

	srv := api.NewServer(eng,
		api.WithAutoplay(runner),
		api.WithHub(hub),
		api.WithHistoryPinger(store),
		api.WithAllowedOrigins(cfg.AllowedOrigins),
	)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("casino-bridge listening",
			"addr", cfg.Addr,
			"rng", cfg.RNG.Mode,
			"starting_balance", balance.String())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := runner.Stop(); err != nil && !errors.Is(err, scripting.ErrNotRunning) {
		log.Warn("failed to stop autoplay", "error", err)
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown incomplete", "error", err)
	}
	if err := recorder.Flush(shutdownCtx); err != nil {
		log.Warn("history flush failed", "error", err)
	}
	log.Info("casino-bridge stopped", "balance", eng.Snapshot().Balance.String())
	return nil
}
