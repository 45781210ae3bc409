package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/uhyunpark/crossbook/params"
	"github.com/uhyunpark/crossbook/pkg/api"
	"github.com/uhyunpark/crossbook/pkg/app/node"
	"github.com/uhyunpark/crossbook/pkg/engine"
	"github.com/uhyunpark/crossbook/pkg/events"
	"github.com/uhyunpark/crossbook/pkg/storage"
	"github.com/uhyunpark/crossbook/pkg/util"
)

func main() {
	// Load config from .env file and environment variables
	cfg := params.LoadFromEnv("")

	level := zapcore.InfoLevel
	if cfg.Node.Verbose {
		level = zapcore.DebugLevel
	}
	logger, err := util.NewLoggerWithFile(cfg.Node.LogFile, level)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", cfg.Node.LogFile)

	rule, err := engine.ParsePricingRule(cfg.Engine.SellPricing)
	if err != nil {
		sugar.Fatalw("config_invalid", "err", err)
	}

	// ---- App: sequencer around the matching engine ----
	app := node.NewApp(node.Config{
		SellPricing: rule,
		Interval:    cfg.Node.SequencerInterval,
		MaxBatch:    cfg.Node.MaxBatch,
	})
	app.Logger = sugar

	// ---- Fill tape ----
	if cfg.Node.DataDir != "" {
		store, err := storage.NewPebbleStore(cfg.Node.DataDir)
		if err != nil {
			sugar.Fatalw("fill_store_open_failed", "dir", cfg.Node.DataDir, "err", err)
		}
		app.Store = store
		sugar.Infow("fill_store", "backend", "pebble", "dir", cfg.Node.DataDir)
	} else {
		sugar.Infow("fill_store", "backend", "memory")
	}
	defer app.Store.Close()

	// ---- Fill publishing ----
	if len(cfg.Kafka.Brokers) > 0 {
		app.Publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		sugar.Infow("fill_publisher", "backend", "kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}
	defer app.Publisher.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Instruction feeder (optional) ----
	// Enable with: ENABLE_TXGEN=true
	if cfg.TxGen.Enabled {
		txCfg := node.DefaultFeederConfig()
		txCfg.NumFirms = cfg.TxGen.Firms
		txCfg.Symbols = cfg.TxGen.Symbols
		txCfg.Interval = cfg.TxGen.Interval
		txCfg.BatchSize = cfg.TxGen.Batch
		sugar.Infow("txgen_enabled",
			"firms", txCfg.NumFirms, "symbols", txCfg.Symbols,
			"batch", txCfg.BatchSize, "interval_ms", txCfg.Interval.Milliseconds())

		cancelFeeder := node.StartTxFeeder(ctx, app, txCfg)
		defer cancelFeeder()
	}

	// ---- API Server ----
	apiServer := api.NewServer(app, cfg.API.AllowedOrigins, sugar)
	go func() {
		if err := apiServer.Start(cfg.API.Addr); err != nil {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	}()

	// Broadcast fills and touched books after every batch
	app.OnFills = apiServer.BroadcastFills
	app.OnBatch = apiServer.BroadcastBooks

	sugar.Infow("node_starting",
		"sell_pricing", rule.String(),
		"sequencer_interval_ms", cfg.Node.SequencerInterval.Milliseconds(),
		"max_batch", cfg.Node.MaxBatch)

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	// Progress logging loop
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			hash := app.StateHash()
			sugar.Infow("node_stopped", "height", app.Height(), "fills", app.FillCount(), "state_hash", fmt.Sprintf("%x", hash))
			return
		case <-ticker.C:
			sugar.Infow("sequencer_progress",
				"height", app.Height(),
				"fills", app.FillCount(),
				"mempool", app.MempoolSize())
		}
	}
}
