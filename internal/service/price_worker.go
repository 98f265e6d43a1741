package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// PriceWorker is a background worker that periodically refreshes market prices
type PriceWorker struct {
	priceService *PriceService
	logger       zerolog.Logger
	interval     time.Duration
	stopCh       chan struct{}
	doneCh       chan struct{}
	mu           sync.Mutex
	running      bool
}

// PriceWorkerConfig holds configuration for the price worker
type PriceWorkerConfig struct {
	Interval time.Duration // How often to refresh prices
}

// DefaultPriceWorkerConfig returns sensible defaults
func DefaultPriceWorkerConfig() PriceWorkerConfig {
	return PriceWorkerConfig{
		Interval: 15 * time.Minute,
	}
}

// NewPriceWorker creates a new price worker
func NewPriceWorker(priceService *PriceService, logger zerolog.Logger, config PriceWorkerConfig) *PriceWorker {
	if config.Interval <= 0 {
		config.Interval = DefaultPriceWorkerConfig().Interval
	}

	return &PriceWorker{
		priceService: priceService,
		logger:       logger.With().Str("component", "price_worker").Logger(),
		interval:     config.Interval,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// Start begins the background refresh loop
func (w *PriceWorker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info().
		Dur("interval", w.interval).
		Msg("Starting price worker")

	go w.run(ctx)
}

// Stop gracefully stops the price worker
func (w *PriceWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	w.logger.Info().Msg("Stopping price worker")
	close(w.stopCh)
	<-w.doneCh
	w.logger.Info().Msg("Price worker stopped")
}

func (w *PriceWorker) run(ctx context.Context) {
	defer close(w.doneCh)
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	// Run immediately on startup
	w.refresh(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *PriceWorker) refresh(ctx context.Context) {
	startTime := time.Now()

	result, err := w.priceService.RefreshPrices(ctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("Price refresh failed")
		return
	}

	w.logger.Info().
		Int("symbols", result.Symbols).
		Int("updated", result.Updated).
		Int("positions", result.Positions).
		Strs("missing", result.Missing).
		Int("errors", result.Errors).
		Dur("elapsed", time.Since(startTime)).
		Msg("Completed price refresh")
}

// IsRunning returns whether the worker is currently running
func (w *PriceWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
