// FILE: main.go
// Package main – Process entrypoint.
//
// Boot order:
//   1) hydrate env from .env, parse flags, load config
//   2) build the logger and data sinks
//   3) build the gateway (okx or paper) and the bot, restoring saved state
//   4) start the ops HTTP server (/metrics, /healthz)
//   5) run the trading loop until SIGINT/SIGTERM
//   6) persist runtime state and flush sinks on the way out
//
// A failed boot (bad config, unreachable exchange with no saved anchor)
// exits non-zero before any order is touched.

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

func main() {
	loadBotEnv()

	configPath := flag.String("config", "", "path to YAML config file (optional)")
	dataDir := flag.String("data", "", "data directory override (logs, CSVs, runtime state)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	logger, err := newLogger(cfg.DataDir, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil && err != context.Canceled {
		logger.WithError(err).Error("[MAIN] exited with error")
		os.Exit(1)
	}
	logger.Info("[MAIN] shutdown complete")
}

func run(cfg Config, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	priceLog, err := NewPriceLog(cfg.DataDir)
	if err != nil {
		return err
	}
	defer priceLog.Close()

	orderLog, err := NewOrderLog(cfg.DataDir)
	if err != nil {
		return err
	}
	defer orderLog.Close()

	gw, err := buildGateway(cfg, logger)
	if err != nil {
		return err
	}
	logger.WithField("gateway", gw.Name()).Info("[MAIN] gateway ready")

	store := NewRuntimeStateStore(cfg.DataDir)
	bot, err := NewBot(ctx, cfg, gw, store, priceLog, orderLog, logger)
	if err != nil {
		return err
	}

	srv := startOpsServer(cfg.Port, logger)
	defer func() {
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()

	err = bot.Run(ctx)

	if perr := bot.Persist(); perr != nil {
		logger.WithError(perr).Error("[MAIN] final persist failed")
	} else {
		logger.Info("[MAIN] runtime state persisted")
	}
	return err
}

func buildGateway(cfg Config, logger *logrus.Logger) (ExchangeGateway, error) {
	switch cfg.Gateway {
	case "okx":
		return NewOKXGateway(cfg.Asset, cfg.Exchange, logger)
	default:
		return NewPaperGateway(
			cfg.Asset,
			cfg.PaperStartPrice,
			cfg.PaperBaseBalance,
			cfg.PaperQuoteBalance,
			0, // exchange-default minimum size
			cfg.MakerFeeRate,
			logger,
		), nil
	}
}

// startOpsServer exposes /metrics and /healthz and serves in the background.
func startOpsServer(port int, logger *logrus.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	go func() {
		logger.WithField("addr", srv.Addr).Info("[MAIN] ops server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("[MAIN] ops server failed")
		}
	}()
	return srv
}
