// Package bots runs simple in-process noise traders against the
// exchange, keeping the resting set and the event feed alive.
package bots

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/duskvale/patternmarket/internal/exchange"
	"github.com/duskvale/patternmarket/internal/market"
)

// Config holds configuration for a bot runner.
type Config struct {
	// TickInterval is the interval between bot decisions.
	TickInterval time.Duration
	// MaxQuantity bounds a single order.
	MaxQuantity int64
	// LimitRatio is the fraction of orders placed as limits near the
	// current price instead of at-market.
	LimitRatio float64
	// Seed fixes the bot's random source; 0 seeds from the clock.
	Seed int64
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		TickInterval: 500 * time.Millisecond,
		MaxQuantity:  10,
		LimitRatio:   0.5,
	}
}

// Runner trades one bot portfolio on a timer.
type Runner struct {
	cfg   Config
	owner string
	svc   *exchange.Service
	log   *zap.Logger
	rng   *rand.Rand

	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewRunner registers the bot's portfolio and starts trading.
func NewRunner(cfg Config, owner string, svc *exchange.Service, logger *zap.Logger) *Runner {
	def := DefaultConfig()
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = def.TickInterval
	}
	if cfg.MaxQuantity <= 0 {
		cfg.MaxQuantity = def.MaxQuantity
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Runner{
		cfg:    cfg,
		owner:  owner,
		svc:    svc,
		log:    logger,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		closed: make(chan struct{}),
	}

	r.wg.Add(1)
	go r.run()

	return r
}

func (r *Runner) run() {
	defer r.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.TickInterval)
	_, err := r.svc.CreatePortfolio(ctx, r.owner)
	cancel()
	if err != nil {
		r.log.Warn("bot registration failed", zap.String("bot", r.owner), zap.Error(err))
		return
	}

	ticker := time.NewTicker(r.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.closed:
			return
		case <-ticker.C:
			r.step()
		}
	}
}

func (r *Runner) step() {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.TickInterval)
	defer cancel()

	snap, err := r.svc.Snapshot(ctx)
	if err != nil || len(snap.Instruments) == 0 {
		return
	}
	pv, err := r.svc.Portfolio(ctx, r.owner)
	if err != nil {
		return
	}

	in := snap.Instruments[r.rng.Intn(len(snap.Instruments))]
	req := r.decide(in, pv)
	if req == nil {
		return
	}

	if _, err := r.svc.PlaceOrder(ctx, *req); err != nil {
		// Rejections (funds, holdings) are part of normal bot life.
		r.log.Debug("bot order rejected",
			zap.String("bot", r.owner),
			zap.Stringer("side", req.Side),
			zap.String("symbol", req.Symbol),
			zap.Error(err))
	}
}

func (r *Runner) decide(in market.Snapshot, pv exchange.PortfolioView) *exchange.OrderRequest {
	req := exchange.OrderRequest{
		Owner:    r.owner,
		Symbol:   in.Symbol,
		Leverage: 1.0,
		Strategy: "noise",
	}

	held := pv.Holdings[in.Symbol]
	short := pv.Shorts[in.Symbol]
	roll := r.rng.Float64()
	switch {
	case short > 0 && roll < 0.3:
		req.Side = exchange.Cover
		req.Quantity = 1 + r.rng.Int63n(short)
	case held > 0 && roll < 0.6:
		req.Side = exchange.Sell
		req.Quantity = 1 + r.rng.Int63n(held)
	case roll < 0.7:
		req.Side = exchange.Short
		req.Quantity = 1 + r.rng.Int63n(r.cfg.MaxQuantity)
	default:
		req.Side = exchange.Buy
		qty := 1 + r.rng.Int63n(r.cfg.MaxQuantity)
		// Stay inside the balance so the order is accepted.
		if afford := int64(pv.Cash.InexactFloat64() / in.Price); afford < qty {
			qty = afford
		}
		if qty < 1 {
			return nil
		}
		req.Quantity = qty
	}

	if r.rng.Float64() < r.cfg.LimitRatio {
		// Rest a limit just off the current price.
		req.Price = in.Price * (1 + (r.rng.Float64()-0.5)*0.02)
	}
	return &req
}

// Close stops the bot and waits for its goroutine.
func (r *Runner) Close() {
	r.closeOnce.Do(func() {
		close(r.closed)
	})
	r.wg.Wait()
}
