package market

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/amount"
	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/depth"
	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/quote"
	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/swap"
)

// ErrSuperseded is returned by Refresh when a refresh started later has already published
var ErrSuperseded = errors.New("snapshot superseded by a newer refresh")

// Options refresh cycle options
type Options struct {
	Wallet         string        // wallet whose balances are fetched, may be empty
	Interval       time.Duration // delay between refreshes
	MaxBackoff     time.Duration // upper bound of the retry delay after failures
	HistoryLimit   int           // filled swaps fetched per refresh
	HistoryDisplay int           // filled swaps kept on the snapshot
	Display        Display       // presentation settings stamped on snapshots
}

// Refresher periodically rebuilds the market snapshot of one pair
//
// Each refresh fetches all inputs concurrently and publishes a new snapshot atomically.
// Refreshes are numbered when they start; a result is dropped if a later-started refresh has
// already been published.
type Refresher struct {
	source    Source
	estimator *quote.Estimator
	opts      Options
	logger    *slog.Logger
	now       func() time.Time

	pair    atomic.Pointer[swap.Pair]
	current atomic.Pointer[Snapshot]
	seq     atomic.Uint64
	backoff *Backoff
	trigger chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRefresher creates a refresher for pair
func NewRefresher(
	source Source,
	estimator *quote.Estimator,
	pair swap.Pair,
	opts Options,
	logger *slog.Logger,
) *Refresher {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	if estimator == nil {
		estimator = quote.DefaultEstimator()
	}
	opts.Display = opts.Display.withDefaults()

	r := &Refresher{
		source:    source,
		estimator: estimator,
		opts:      opts,
		logger:    logger.With("component", "MarketRefresher"),
		now:       time.Now,
		backoff:   NewBackoff(opts.Interval, opts.MaxBackoff),
		trigger: make(chan struct{}, 1),
	}
	r.pair.Store(&pair)
	return r
}

// Start starts the refresh loop, the first refresh runs immediately
func (r *Refresher) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go r.loop()

	r.logger.Info("Market refresher started",
		"pair", r.Pair().Name(),
		"interval", r.opts.Interval)
	return nil
}

// Stop stops the refresh loop
func (r *Refresher) Stop() error {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	r.logger.Info("Market refresher stopped", "pair", r.Pair().Name())
	return nil
}

// Pair returns the pair currently viewed
func (r *Refresher) Pair() swap.Pair {
	return *r.pair.Load()
}

// SetPair switches the viewed pair and requests an immediate refresh
func (r *Refresher) SetPair(pair swap.Pair) {
	r.pair.Store(&pair)
	r.backoff.Reset()
	r.logger.Info("Market pair changed", "pair", pair.Name())

	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Flip views the current pair the other way round
func (r *Refresher) Flip() {
	r.SetPair(r.Pair().Flip())
}

// Snapshot returns the latest published snapshot, nil before the first success
func (r *Refresher) Snapshot() *Snapshot {
	return r.current.Load()
}

// Stale reports whether the published snapshot is missing or older than maxAge
func (r *Refresher) Stale(maxAge time.Duration) bool {
	return r.Snapshot().Stale(r.now(), maxAge)
}

// Refresh fetches inputs for the current pair and publishes a new snapshot
func (r *Refresher) Refresh(ctx context.Context) (*Snapshot, error) {
	seq := r.seq.Add(1)
	pair := r.Pair()

	in, err := r.fetch(ctx, pair)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh %s: %w", pair.Name(), err)
	}

	snap := Build(in, r.estimator, r.opts.HistoryDisplay, r.now())
	snap.ID = uuid.NewString()
	snap.Seq = seq
	snap.Display = r.opts.Display

	if !r.publish(snap) {
		return nil, ErrSuperseded
	}
	return snap, nil
}

// publish stores snap unless a snapshot from a later refresh is already published
func (r *Refresher) publish(snap *Snapshot) bool {
	for {
		cur := r.current.Load()
		if cur != nil && cur.Seq > snap.Seq {
			return false
		}
		if r.current.CompareAndSwap(cur, snap) {
			return true
		}
	}
}

// fetch loads all refresh inputs concurrently
func (r *Refresher) fetch(ctx context.Context, pair swap.Pair) (Inputs, error) {
	in := Inputs{Pair: pair}
	var baseSymbol, quoteSymbol string

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		swaps, err := r.source.PendingSwaps(ctx, pair.Name(), Buyers)
		if err != nil {
			return fmt.Errorf("failed to fetch buyers: %w", err)
		}
		in.Buyers = swaps
		return nil
	})
	g.Go(func() error {
		swaps, err := r.source.PendingSwaps(ctx, pair.Name(), Sellers)
		if err != nil {
			return fmt.Errorf("failed to fetch sellers: %w", err)
		}
		in.Sellers = swaps
		return nil
	})
	g.Go(func() error {
		swaps, err := r.source.FilledSwaps(ctx, pair.Name(), 0, r.opts.HistoryLimit)
		if err != nil {
			return fmt.Errorf("failed to fetch filled swaps: %w", err)
		}
		in.Filled = swaps
		return nil
	})
	g.Go(func() (err error) {
		in.Balances.Base, err = r.balance(ctx, pair.Base)
		return err
	})
	g.Go(func() (err error) {
		in.Balances.Quote, err = r.balance(ctx, pair.Quote)
		return err
	})
	g.Go(func() (err error) {
		in.Decimals.Base, err = r.decimals(ctx, pair.Base)
		return err
	})
	g.Go(func() (err error) {
		in.Decimals.Quote, err = r.decimals(ctx, pair.Quote)
		return err
	})
	g.Go(func() (err error) {
		baseSymbol, err = r.symbol(ctx, pair.Base)
		return err
	})
	g.Go(func() (err error) {
		quoteSymbol, err = r.symbol(ctx, pair.Quote)
		return err
	})

	if err := g.Wait(); err != nil {
		return Inputs{}, err
	}

	in.Symbols = map[string]string{
		pair.Base:  baseSymbol,
		pair.Quote: quoteSymbol,
	}
	return in, nil
}

func (r *Refresher) balance(ctx context.Context, contract string) (amount.Amount, error) {
	if r.opts.Wallet == "" {
		return amount.Zero, nil
	}
	b, err := r.source.Balance(ctx, r.opts.Wallet, contract)
	if err != nil {
		return amount.Zero, fmt.Errorf("failed to fetch balance of %s: %w", contract, err)
	}
	return b, nil
}

func (r *Refresher) decimals(ctx context.Context, contract string) (int, error) {
	if contract == swap.NativeContract {
		return swap.NativeDecimals, nil
	}
	d, err := r.source.Decimals(ctx, contract)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch decimals of %s: %w", contract, err)
	}
	return d, nil
}

func (r *Refresher) symbol(ctx context.Context, contract string) (string, error) {
	if contract == swap.NativeContract {
		return swap.NativeSymbol, nil
	}
	s, err := r.source.Symbol(ctx, contract)
	if err != nil {
		return "", fmt.Errorf("failed to fetch symbol of %s: %w", contract, err)
	}
	return s, nil
}

// loop is the periodic refresh loop
func (r *Refresher) loop() {
	defer r.wg.Done()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-r.trigger:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		case <-timer.C:
		}

		timer.Reset(r.refreshOnce())
	}
}

// refreshOnce runs one refresh and returns the delay before the next one
func (r *Refresher) refreshOnce() time.Duration {
	snap, err := r.Refresh(r.ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrSuperseded), r.ctx.Err() != nil:
		return r.opts.Interval
	default:
		delay := r.backoff.Failed()
		r.logger.Error("Failed to refresh market",
			"pair", r.Pair().Name(),
			"failures", r.backoff.Failures(),
			"retryIn", delay,
			"error", err)
		return delay
	}

	r.backoff.Reset()

	if dropped := snap.Dropped(); len(dropped) > 0 {
		r.logger.Warn("Dropped malformed swaps",
			"pair", snap.Pair.Name(),
			"ids", dropped,
			"error", swap.ErrMalformedSwap)
	}

	r.logger.Info("Market snapshot published",
		"id", snap.ID,
		"pair", snap.Pair.Name(),
		"inverted", snap.Inverted,
		"bids", snap.Bids.Len(),
		"asks", snap.Asks.Len(),
		"spread", snap.Spread.Truncate(2).String(),
		"marketPrice", snap.Format(snap.MarketPrice),
		"lastPrice", snap.Format(snap.LastPrice))

	if bid, ok := snap.Bids.Best(); ok {
		r.logger.Debug("Best bid", "price", snap.Format(amount.Some(snap.UnitPrice(bid))), "amount", bid.Relevant(depth.Bids).String())
	}
	if ask, ok := snap.Asks.Best(); ok {
		r.logger.Debug("Best ask", "price", snap.Format(amount.Some(snap.UnitPrice(ask))), "amount", ask.Relevant(depth.Asks).String())
	}

	return r.opts.Interval
}
