// Package exchange runs the pattern securities market: price
// simulation, order execution, portfolio accounting and challenge
// rewards, all serialized through one command-processing actor.
package exchange

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/duskvale/patternmarket/internal/challenge"
	"github.com/duskvale/patternmarket/internal/feed"
	"github.com/duskvale/patternmarket/internal/market"
)

// command types
type cmdType int

const (
	cmdCreatePortfolio cmdType = iota
	cmdTick
	cmdPlaceOrder
	cmdCancelOrder
	cmdNewChallenge
	cmdSolveChallenge
	cmdInstrument
	cmdPortfolio
	cmdOrders
	cmdSnapshot
	cmdForceTrend
)

type command struct {
	typ      cmdType
	owner    string
	symbol   string
	orderID  string
	req      OrderRequest
	ctype    challenge.Type
	solution string
	trend    market.Trend
	respCh   chan<- response
}

type response struct {
	portfolio  PortfolioView
	order      Order
	orders     []Order
	challenge  challenge.View
	bonus      BonusApplied
	instrument market.Snapshot
	snapshot   MarketSnapshot
	err        error
}

// OrderRequest is the caller's side of PlaceOrder. Price 0 requests an
// at-market fill on the next scan.
type OrderRequest struct {
	Owner      string  `json:"owner"`
	Symbol     string  `json:"symbol"`
	Side       Side    `json:"-"`
	Quantity   int64   `json:"quantity"`
	Price      float64 `json:"price"`
	Leverage   float64 `json:"leverage"`
	StopLoss   float64 `json:"stop_loss"`
	TakeProfit float64 `json:"take_profit"`
	Strategy   string  `json:"strategy"`
}

// Service owns the market registry, trend controller, price engine,
// execution core and challenge state, providing thread-safe access.
// All mutation happens on the command processor goroutine; snapshots
// are immutable copies.
type Service struct {
	cfg Config
	log *zap.Logger

	reg    *market.Registry
	trend  *market.TrendController
	engine *market.PriceEngine
	core   *Core
	gen    *challenge.Generator

	// outstanding challenges, owner then type
	outstanding map[string]map[challenge.Type]*challenge.Challenge

	events *feed.Log
	rng    *rand.Rand
	now    func() time.Time
	tick   int64

	cmdCh          chan command
	internalEvents chan feed.Item
	externalEvents chan feed.Item

	droppedExternal atomic.Int64

	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewService creates and starts an exchange Service.
func NewService(cfg Config) *Service {
	def := DefaultConfig()
	if cfg.StartingCash <= 0 {
		cfg.StartingCash = def.StartingCash
	}
	if cfg.TrendEvalEvery <= 0 {
		cfg.TrendEvalEvery = def.TrendEvalEvery
	}
	if cfg.EventLogSize <= 0 {
		cfg.EventLogSize = def.EventLogSize
	}
	if cfg.SnapshotEvents <= 0 {
		cfg.SnapshotEvents = def.SnapshotEvents
	}
	if cfg.CommandBuffer <= 0 {
		cfg.CommandBuffer = def.CommandBuffer
	}
	if cfg.ExternalEventBuffer <= 0 {
		cfg.ExternalEventBuffer = def.ExternalEventBuffer
	}
	if cfg.Params == (market.Params{}) {
		cfg.Params = def.Params
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	s := &Service{
		cfg:            cfg,
		log:            cfg.Logger,
		reg:            market.NewRegistry(),
		trend:          market.NewTrendController(cfg.TrendEvalEvery, cfg.TrendShockProb),
		engine:         market.NewPriceEngine(cfg.Params, rng),
		core:           NewCore(),
		gen:            challenge.NewGenerator(rng),
		outstanding:    make(map[string]map[challenge.Type]*challenge.Challenge),
		events:         feed.NewLog(cfg.EventLogSize),
		rng:            rng,
		now:            time.Now,
		cmdCh:          make(chan command, cfg.CommandBuffer),
		internalEvents: make(chan feed.Item, cfg.ExternalEventBuffer),
		externalEvents: make(chan feed.Item, cfg.ExternalEventBuffer),
		closed:         make(chan struct{}),
	}

	s.wg.Add(1)
	go s.runCommandProcessor()

	s.wg.Add(1)
	go s.runEventDispatcher()

	return s
}

func (s *Service) runCommandProcessor() {
	defer s.wg.Done()

	for {
		select {
		case <-s.closed:
			return
		case cmd := <-s.cmdCh:
			s.processCommand(cmd)
		}
	}
}

func (s *Service) processCommand(cmd command) {
	var resp response
	now := s.now()

	switch cmd.typ {
	case cmdCreatePortfolio:
		p := s.core.CreatePortfolio(cmd.owner, decimal.NewFromFloat(s.cfg.StartingCash), now)
		resp.portfolio = p.View()

	case cmdTick:
		resp.snapshot = s.processTick(now)

	case cmdPlaceOrder:
		resp.order, resp.err = s.placeOrder(cmd.req, now)

	case cmdCancelOrder:
		o, err := s.core.Cancel(cmd.orderID, now)
		if err == nil {
			resp.order = *o
			s.emitEvent(feed.Item{
				Tick:    s.tick,
				Kind:    feed.KindCancel,
				Symbol:  o.Symbol,
				Message: fmt.Sprintf("%s %s %d %s withdrawn", o.Owner, o.Side, o.Quantity, o.Symbol),
				At:      now,
			})
		}
		resp.err = err

	case cmdNewChallenge:
		resp.challenge, resp.err = s.newChallenge(cmd.owner, cmd.ctype)

	case cmdSolveChallenge:
		resp.bonus, resp.err = s.solveChallenge(cmd.owner, cmd.ctype, cmd.solution, now)

	case cmdInstrument:
		in := s.reg.Get(cmd.symbol)
		if in == nil {
			resp.err = ErrUnknownInstrument
		} else {
			resp.instrument = in.Snapshot()
		}

	case cmdPortfolio:
		p, err := s.core.Portfolio(cmd.owner)
		if err == nil {
			resp.portfolio = p.View()
		}
		resp.err = err

	case cmdOrders:
		resp.orders = s.core.OrdersFor(cmd.owner)

	case cmdSnapshot:
		resp.snapshot = s.buildSnapshot(now)

	case cmdForceTrend:
		s.trend.Force(cmd.trend)
	}

	if cmd.respCh != nil {
		cmd.respCh <- resp
	}
}

// processTick runs one simulation step: trend evaluation, price
// advance, order scan, unrealized recompute, then the snapshot copy.
func (s *Service) processTick(now time.Time) MarketSnapshot {
	s.tick++

	if s.trend.ShouldEvaluate(s.tick) {
		prev := s.trend.Current()
		next, forced := s.trend.Evaluate(s.reg.MeanRSI(), s.rng)
		if next != prev || forced {
			msg := fmt.Sprintf("market regime shifts to %s", next)
			if forced {
				msg = fmt.Sprintf("shock event forces the market into %s", next)
			}
			s.emitEvent(feed.Item{Tick: s.tick, Kind: feed.KindTrend, Message: msg, At: now})
			s.log.Info("trend transition",
				zap.Stringer("from", prev),
				zap.Stringer("to", next),
				zap.Bool("forced", forced),
				zap.Int64("tick", s.tick))
		}
	}

	mult := s.trend.Current().Multiplier()
	s.reg.All(func(in *market.Instrument) {
		if shock := s.engine.AdvanceTick(in, mult); shock != nil {
			s.emitEvent(feed.Item{
				Tick:    s.tick,
				Kind:    feed.KindShock,
				Symbol:  shock.Symbol,
				Message: fmt.Sprintf("%s %s to %.2f", shock.Symbol, shock.Kind, in.Price),
				At:      now,
			})
		}
	})

	prices := s.reg.Prices()
	for _, fill := range s.core.Scan(prices, now) {
		o := fill.Order
		if fill.Err != nil {
			s.emitEvent(feed.Item{
				Tick:    s.tick,
				Kind:    feed.KindCancel,
				Symbol:  o.Symbol,
				Message: fmt.Sprintf("%s %s %d %s cancelled: %v", o.Owner, o.Side, o.Quantity, o.Symbol, fill.Err),
				At:      now,
			})
			continue
		}
		s.emitEvent(feed.Item{
			Tick:    s.tick,
			Kind:    feed.KindFill,
			Symbol:  o.Symbol,
			Message: fmt.Sprintf("%s %s %d %s @ %.2f", o.Owner, o.Side, o.Quantity, o.Symbol, fill.Price),
			At:      now,
		})
		s.log.Debug("order filled",
			zap.String("order", o.ID),
			zap.String("owner", o.Owner),
			zap.Stringer("side", o.Side),
			zap.String("symbol", o.Symbol),
			zap.Float64("price", fill.Price))
	}

	s.core.RecomputeUnrealized(prices)
	return s.buildSnapshot(now)
}

func (s *Service) placeOrder(req OrderRequest, now time.Time) (Order, error) {
	in := s.reg.Get(req.Symbol)
	if in == nil {
		return Order{}, ErrUnknownInstrument
	}
	o := &Order{
		ID:          uuid.NewString(),
		Owner:       req.Owner,
		Symbol:      req.Symbol,
		Side:        req.Side,
		Quantity:    req.Quantity,
		Price:       req.Price,
		Leverage:    req.Leverage,
		StopLoss:    req.StopLoss,
		TakeProfit:  req.TakeProfit,
		Strategy:    req.Strategy,
		SubmittedAt: now,
	}
	if err := s.core.Submit(o, in.Price); err != nil {
		return Order{}, err
	}
	return *o, nil
}

func (s *Service) newChallenge(owner string, t challenge.Type) (challenge.View, error) {
	p, err := s.core.Portfolio(owner)
	if err != nil {
		return challenge.View{}, err
	}
	ch := s.gen.Generate(t, p.NextDifficulty(t))
	byType, ok := s.outstanding[owner]
	if !ok {
		byType = make(map[challenge.Type]*challenge.Challenge)
		s.outstanding[owner] = byType
	}
	byType[t] = ch
	return ch.View(), nil
}

func (s *Service) solveChallenge(owner string, t challenge.Type, solution string, now time.Time) (BonusApplied, error) {
	p, err := s.core.Portfolio(owner)
	if err != nil {
		return BonusApplied{}, err
	}
	ch := s.outstanding[owner][t]
	if ch == nil {
		return BonusApplied{}, ErrChallengeNotFound
	}
	if ch.Expired(now) {
		delete(s.outstanding[owner], t)
		return BonusApplied{}, ErrChallengeExpired
	}
	if ch.Difficulty != p.NextDifficulty(t) {
		return BonusApplied{}, ErrDifficultyMismatch
	}
	if !ch.Validate(solution) {
		// A wrong answer mutates nothing; the challenge stays open
		// until the time limit passes.
		return BonusApplied{}, ErrInvalidSolution
	}

	delete(s.outstanding[owner], t)
	p.RecordSolve(t)

	var boosted []string
	for _, cat := range t.AffectedCategories() {
		for _, in := range s.reg.ByCategory(cat) {
			in.Bonus = math.Min(market.MaxBonus, in.Bonus*ch.Reward)
			in.SolvedBy = append(in.SolvedBy, t.String())
			boosted = append(boosted, in.Symbol)
		}
	}

	s.emitEvent(feed.Item{
		Tick:    s.tick,
		Kind:    feed.KindChallenge,
		Message: fmt.Sprintf("%s solves a %s challenge at difficulty %d", owner, t, ch.Difficulty),
		At:      now,
	})
	s.log.Info("challenge solved",
		zap.String("owner", owner),
		zap.Stringer("type", t),
		zap.Int("difficulty", ch.Difficulty),
		zap.Float64("reward", ch.Reward),
		zap.Strings("instruments", boosted))

	return BonusApplied{
		Type:           t.String(),
		Difficulty:     ch.Difficulty,
		Reward:         ch.Reward,
		Instruments:    boosted,
		NextDifficulty: p.NextDifficulty(t),
	}, nil
}

func (s *Service) buildSnapshot(now time.Time) MarketSnapshot {
	symbols := s.reg.Symbols()
	instruments := make([]market.Snapshot, 0, len(symbols))
	for _, sym := range symbols {
		instruments = append(instruments, s.reg.Get(sym).Snapshot())
	}
	return MarketSnapshot{
		State: market.State{
			Trend:           s.trend.Current(),
			Multiplier:      s.trend.Current().Multiplier(),
			Tick:            s.tick,
			Index:           s.reg.Index(),
			VolatilityIndex: s.reg.VolatilityIndex(),
		},
		Instruments: instruments,
		Events:      s.events.Latest(s.cfg.SnapshotEvents),
		TakenAt:     now,
	}
}

func (s *Service) emitEvent(it feed.Item) {
	// The log is authoritative for "recent events" reads; the external
	// channel is best-effort for subscribers.
	s.events.Append(it)
	select {
	case s.internalEvents <- it:
	case <-s.closed:
	}
}

func (s *Service) runEventDispatcher() {
	defer s.wg.Done()
	defer close(s.externalEvents)

	for {
		select {
		case <-s.closed:
			return
		case it := <-s.internalEvents:
			if s.cfg.DropExternalEvents {
				select {
				case s.externalEvents <- it:
				default:
					s.droppedExternal.Add(1)
				}
			} else {
				select {
				case s.externalEvents <- it:
				case <-s.closed:
					return
				}
			}
		}
	}
}

func (s *Service) do(ctx context.Context, cmd command) (response, error) {
	respCh := make(chan response, 1)
	cmd.respCh = respCh

	select {
	case <-s.closed:
		return response{}, context.Canceled
	case <-ctx.Done():
		return response{}, ctx.Err()
	case s.cmdCh <- cmd:
	}

	select {
	case <-s.closed:
		return response{}, context.Canceled
	case <-ctx.Done():
		return response{}, ctx.Err()
	case resp := <-respCh:
		return resp, resp.err
	}
}

// CreatePortfolio registers a participant and returns the ledger view.
// Registration is idempotent.
func (s *Service) CreatePortfolio(ctx context.Context, owner string) (PortfolioView, error) {
	resp, err := s.do(ctx, command{typ: cmdCreatePortfolio, owner: owner})
	return resp.portfolio, err
}

// Tick advances the simulation one step and returns the end-of-tick
// snapshot.
func (s *Service) Tick(ctx context.Context) (MarketSnapshot, error) {
	resp, err := s.do(ctx, command{typ: cmdTick})
	return resp.snapshot, err
}

// PlaceOrder validates and rests an order. Rejected orders never rest
// and nothing is mutated.
func (s *Service) PlaceOrder(ctx context.Context, req OrderRequest) (Order, error) {
	resp, err := s.do(ctx, command{typ: cmdPlaceOrder, req: req})
	return resp.order, err
}

// CancelOrder withdraws a pending order.
func (s *Service) CancelOrder(ctx context.Context, orderID string) (Order, error) {
	resp, err := s.do(ctx, command{typ: cmdCancelOrder, orderID: orderID})
	return resp.order, err
}

// Orders lists the owner's orders, resting first.
func (s *Service) Orders(ctx context.Context, owner string) ([]Order, error) {
	resp, err := s.do(ctx, command{typ: cmdOrders, owner: owner})
	return resp.orders, err
}

// NewChallenge issues a challenge of type t at the owner's current
// difficulty, replacing any outstanding challenge of the same type.
func (s *Service) NewChallenge(ctx context.Context, owner string, t challenge.Type) (challenge.View, error) {
	resp, err := s.do(ctx, command{typ: cmdNewChallenge, owner: owner, ctype: t})
	return resp.challenge, err
}

// SolveChallenge validates a candidate solution against the owner's
// outstanding challenge of type t. On success the affected instrument
// bonuses rise and the owner's difficulty counter bumps; on any
// rejection nothing changes.
func (s *Service) SolveChallenge(ctx context.Context, owner string, t challenge.Type, solution string) (BonusApplied, error) {
	resp, err := s.do(ctx, command{typ: cmdSolveChallenge, owner: owner, ctype: t, solution: solution})
	return resp.bonus, err
}

// Instrument returns a snapshot of one instrument.
func (s *Service) Instrument(ctx context.Context, symbol string) (market.Snapshot, error) {
	resp, err := s.do(ctx, command{typ: cmdInstrument, symbol: symbol})
	return resp.instrument, err
}

// Portfolio returns the owner's ledger view.
func (s *Service) Portfolio(ctx context.Context, owner string) (PortfolioView, error) {
	resp, err := s.do(ctx, command{typ: cmdPortfolio, owner: owner})
	return resp.portfolio, err
}

// Snapshot returns the current market copy without advancing the
// simulation.
func (s *Service) Snapshot(ctx context.Context) (MarketSnapshot, error) {
	resp, err := s.do(ctx, command{typ: cmdSnapshot})
	return resp.snapshot, err
}

// ForceTrend pins the trend controller to t. Deterministic scenarios
// and drills use this; the next evaluation may move the market again.
func (s *Service) ForceTrend(ctx context.Context, t market.Trend) error {
	_, err := s.do(ctx, command{typ: cmdForceTrend, trend: t})
	return err
}

// RecentEvents returns up to n log entries, newest first. Served from
// the bounded log without touching the command processor.
func (s *Service) RecentEvents(n int) []feed.Item {
	return s.events.Latest(n)
}

// Events returns the external event channel for subscribers.
func (s *Service) Events() <-chan feed.Item {
	return s.externalEvents
}

// DroppedExternalEvents returns the count of events dropped for slow
// subscribers.
func (s *Service) DroppedExternalEvents() int64 {
	return s.droppedExternal.Load()
}

// Close shuts down the service and waits for its goroutines.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
	})
	s.wg.Wait()
}
