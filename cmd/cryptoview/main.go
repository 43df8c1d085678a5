package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cryptoview/internal/alert"
	"cryptoview/internal/coinlore"
	"cryptoview/internal/config"
	"cryptoview/internal/logger"
	"cryptoview/internal/market"
	"cryptoview/internal/store"
	"go.uber.org/zap"
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		panic(fmt.Sprintf("could not load config: %v", err))
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Initialize the local store; schema migration runs here.
	st, err := store.New(cfg.Database.DSN, log)
	if err != nil {
		log.Fatal("Failed to open store", zap.Error(err))
	}
	log.Info("Store ready", zap.Stringer("mode", st.Mode()))

	// Ingestion pipeline
	client := coinlore.NewClient(&cfg.API, log)
	normalizer := coinlore.NewTimeNormalizer(cfg.Market.FreshnessWindow, nil)
	parser := coinlore.NewParser(normalizer)
	snapshot := market.NewSnapshot()
	svc := market.NewService(log, client, parser, snapshot, st)
	prober := coinlore.NewProber(&cfg.API, log)

	// Alert engine
	engine := alert.NewEngine(log, st, snapshot, time.Duration(cfg.Alerts.CheckInterval)*time.Second)
	if err := engine.Load(); err != nil {
		log.Fatal("Failed to load alerts", zap.Error(err))
	}

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	go engine.Run(ctx)
	go func() {
		for trigger := range engine.Triggers() {
			log.Info("PRICE ALERT TRIGGERED",
				zap.String("symbol", trigger.Symbol),
				zap.String("target", trigger.TargetPrice.String()),
				zap.Stringer("direction", trigger.Direction),
				zap.String("price", trigger.Price.String()),
			)
		}
	}()

	// Probe the preferred sources in order and load the first usable one.
	selected := selectSource(ctx, log, prober, cfg.Market.DefaultSources)
	if selected == "" {
		log.Warn("No usable default source found; waiting for a manual refresh")
	} else if _, err := svc.Refresh(ctx, selected); err != nil {
		log.Error("Initial refresh failed", zap.String("source", selected), zap.Error(err))
	}

	runRefreshLoop(ctx, log, svc, selected, cfg.Market.RefreshInterval)

	log.Info("cryptoview has been shut down.")
}

// selectSource probes the preference list serially and returns the first
// source judged valid, or "" when none is.
func selectSource(ctx context.Context, log *zap.Logger, prober *coinlore.Prober, candidates []string) string {
	for res := range prober.FilterSources(ctx, candidates) {
		log.Info("Probed source",
			zap.String("id", res.ID),
			zap.Bool("valid", res.Valid),
			zap.Int("checked", res.Checked),
			zap.Int("valid_count", res.ValidCount),
		)
		if res.Valid {
			return res.ID
		}
	}
	return ""
}

// runRefreshLoop re-ingests the selected source on a fixed cadence until the
// context is cancelled. A zero interval disables the loop and just blocks.
func runRefreshLoop(ctx context.Context, log *zap.Logger, svc *market.Service, sourceID string, intervalSec int) {
	if intervalSec <= 0 || sourceID == "" {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.Refresh(ctx, sourceID); err != nil {
				log.Error("Refresh failed", zap.String("source", sourceID), zap.Error(err))
			}
		}
	}
}
