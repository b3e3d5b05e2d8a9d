package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/amount"
	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/config"
	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/market"
	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/quote"
	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/swap"
)

// Runner is the service runner
// Responsible for orchestrating and starting all components
type Runner struct {
	cfg        *config.Config
	logger     *slog.Logger
	source     market.Source
	refreshers []*market.Refresher
	byName     map[string]*market.Refresher

	wg sync.WaitGroup
}

// New creates a service runner
func New(cfg *config.Config, logger *slog.Logger) (*Runner, error) {
	r := &Runner{
		cfg:    cfg,
		logger: logger,
		byName: make(map[string]*market.Refresher),
	}

	// 1. Resolve wallet
	wallet, err := cfg.Wallet.GetAddress()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve wallet: %w", err)
	}
	if wallet == "" {
		logger.Info("No wallet configured, balances will be zero")
	} else {
		logger.Info("Wallet configured", "address", wallet)
	}

	// 2. Initialize market data source (using mock source)
	source, err := newMockSource(cfg, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to create market source: %w", err)
	}
	r.source = source
	logger.Info("Market source initialized (mock)")

	// 3. Initialize market price estimator
	loc, err := cfg.Pricing.Location()
	if err != nil {
		return nil, err
	}
	estimator := quote.NewEstimator(amount.FromFloat(cfg.Pricing.OutlierFactor), loc)

	// 4. Initialize one refresher per pair
	opts := market.Options{
		Wallet:         wallet,
		Interval:       cfg.Market.RefreshInterval,
		MaxBackoff:     cfg.Market.MaxBackoff,
		HistoryLimit:   cfg.Market.HistoryLimit,
		HistoryDisplay: cfg.Market.HistoryDisplay,
		Display: market.Display{
			Bounds: quote.Bounds{
				Low:  amount.FromFloat(cfg.Pricing.LowDeviation),
				High: amount.FromFloat(cfg.Pricing.HighDeviation),
			},
			PricePrecision: cfg.Pricing.PairPricePrecision,
			FormPrecision:  cfg.Pricing.DisplayPrecision,
		},
	}
	for _, pair := range cfg.Pairs {
		// A pair listed twice, in either direction, would be refreshed twice
		if first := cfg.GetPairConfig(pair.BaseToken, pair.QuoteToken); first.Name != pair.Name {
			return nil, fmt.Errorf("pair %s duplicates pair %s", pair.Name, first.Name)
		}
		if _, ok := r.byName[pair.Name]; ok {
			return nil, fmt.Errorf("duplicate pair name %s", pair.Name)
		}

		p := swap.NewPair(pair.BaseToken, pair.QuoteToken)
		refresher := market.NewRefresher(r.source, estimator, p, opts, logger)
		r.refreshers = append(r.refreshers, refresher)
		r.byName[pair.Name] = refresher
		logger.Info("Registered market pair", "name", pair.Name, "pair", p.Name())
	}

	return r, nil
}

// newMockSource builds the mock source from the default tokens plus the configured pairs
func newMockSource(cfg *config.Config, wallet string) (*market.MockSource, error) {
	source := market.DefaultMockSource()

	for _, pair := range cfg.Pairs {
		if pair.BaseSymbol != "" {
			source.SetToken(pair.BaseToken, pair.BaseSymbol, pair.BaseTokenDecimals)
		}
		if pair.QuoteSymbol != "" {
			source.SetToken(pair.QuoteToken, pair.QuoteSymbol, pair.QuoteTokenDecimals)
		}
		if pair.MockPrice > 0 {
			source.SetBasePrice(pair.BaseToken, pair.QuoteToken, pair.MockPrice)
		}
		if wallet == "" {
			continue
		}

		balances := []struct {
			contract string
			value    string
			decimals int
		}{
			{pair.BaseToken, pair.MockBaseBalance, pair.BaseTokenDecimals},
			{pair.QuoteToken, pair.MockQuoteBalance, pair.QuoteTokenDecimals},
		}
		for _, b := range balances {
			if b.value == "" {
				continue
			}
			units, err := amount.Parse(b.value)
			if err != nil {
				return nil, fmt.Errorf("pair %s: %w", pair.Name, err)
			}
			source.SetBalance(wallet, b.contract, amount.FromBig(units.ToRaw(b.decimals), 0))
		}
	}

	return source, nil
}

// Refreshers returns the market refreshers, one per configured pair
func (r *Runner) Refreshers() []*market.Refresher {
	return r.refreshers
}

// View returns the refresher of the configured pair trading tokenA against tokenB
// The refresher is switched to view tokenA as base, flipping the configured orientation if needed.
func (r *Runner) View(tokenA, tokenB string) (*market.Refresher, error) {
	pair := r.cfg.GetPairConfig(tokenA, tokenB)
	if pair == nil {
		return nil, fmt.Errorf("no pair configured for %s/%s", tokenA, tokenB)
	}
	refresher := r.byName[pair.Name]

	if current := refresher.Pair(); !swap.SameContract(current.Base, tokenA) {
		refresher.SetPair(current.Flip())
	}
	return refresher, nil
}

// Run runs the service
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("Starting market engine",
		"app", r.cfg.App.Name,
		"pairs", len(r.refreshers))

	// Create cancellable context
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Listen for system signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	// Start refreshers
	for _, refresher := range r.refreshers {
		if err := refresher.Start(ctx); err != nil {
			return fmt.Errorf("failed to start refresher: %w", err)
		}
	}

	// Start staleness monitor
	if r.cfg.Market.StaleAfter > 0 {
		r.wg.Add(1)
		go r.monitorLoop(ctx)
	}

	r.logger.Info("Market engine started successfully")

	// Wait for signal or context cancellation
	select {
	case sig := <-sigCh:
		r.logger.Info("Received signal, shutting down", "signal", sig)
	case <-ctx.Done():
		r.logger.Info("Context cancelled, shutting down")
	}

	cancel()
	return r.Shutdown()
}

// monitorLoop warns about markets whose snapshot is older than market.staleAfter
func (r *Runner) monitorLoop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.Market.StaleAfter)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, refresher := range r.refreshers {
				if refresher.Stale(r.cfg.Market.StaleAfter) {
					r.logger.Warn("Market snapshot is stale",
						"pair", refresher.Pair().Name(),
						"staleAfter", r.cfg.Market.StaleAfter)
				}
			}
		}
	}
}

// Shutdown gracefully shuts down the service
func (r *Runner) Shutdown() error {
	r.logger.Info("Shutting down market engine...")

	// Stop refreshers
	for _, refresher := range r.refreshers {
		if err := refresher.Stop(); err != nil {
			r.logger.Error("Failed to stop refresher", "error", err)
		}
	}
	r.wg.Wait()

	r.logger.Info("Market engine stopped")
	return nil
}
