package node

import (
	"context"
	"time"
)

// TxFeederConfig controls instruction generation rate
type TxFeederConfig struct {
	BatchSize int           // Number of instructions per batch
	Interval  time.Duration // How often to generate batches
	NumFirms  int
	Symbols   []string
	Seed      int64
}

func DefaultFeederConfig() TxFeederConfig {
	return TxFeederConfig{
		BatchSize: 10,
		Interval:  100 * time.Millisecond,
		NumFirms:  20,
		Symbols:   []string{"AAPL", "MSFT"},
		Seed:      time.Now().UnixNano(),
	}
}

// StartTxFeeder starts a background goroutine that continuously feeds
// instructions to the app. Returns a cancel function to stop the feeder.
func StartTxFeeder(ctx context.Context, app *App, cfg TxFeederConfig) context.CancelFunc {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultFeederConfig().Interval
	}
	gen := NewTxGenerator(cfg.NumFirms, cfg.Symbols, cfg.Seed)
	feedCtx, cancel := context.WithCancel(ctx)

	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		startTime := time.Now()
		total := 0
		app.Logger.Infow("txfeeder_started", "batch", cfg.BatchSize, "interval", cfg.Interval.String(),
			"firms", cfg.NumFirms, "symbols", cfg.Symbols)

		for {
			select {
			case <-feedCtx.Done():
				elapsed := time.Since(startTime)
				app.Logger.Infow("txfeeder_stopped", "instructions", total,
					"elapsed", elapsed.Round(time.Second).String(),
					"rate_per_sec", float64(total)/elapsed.Seconds())
				return
			case <-ticker.C:
				for _, in := range gen.GenerateBatch(cfg.BatchSize) {
					app.Submit(in)
				}
				total += cfg.BatchSize
			}
		}
	}()

	return cancel
}
