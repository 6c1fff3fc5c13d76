package exchange

import (
	"time"

	"github.com/shopspring/decimal"
)

// Core is the deterministic execution state: portfolios, orders and the
// resting queue. It has no goroutines, mutexes, channels, or time
// calls; timestamps and prices come in as arguments, and the owning
// service serializes every call.
type Core struct {
	portfolios map[string]*Portfolio
	orders     map[string]*Order
	resting    []string // order IDs, submission sequence
}

// NewCore creates an empty core.
func NewCore() *Core {
	return &Core{
		portfolios: make(map[string]*Portfolio),
		orders:     make(map[string]*Order),
	}
}

// CreatePortfolio registers a participant ledger. Registration is
// idempotent: an existing ledger is returned unchanged.
func (c *Core) CreatePortfolio(id string, cash decimal.Decimal, now time.Time) *Portfolio {
	if p, ok := c.portfolios[id]; ok {
		return p
	}
	p := NewPortfolio(id, cash, now)
	c.portfolios[id] = p
	return p
}

// Portfolio looks up a ledger.
func (c *Core) Portfolio(id string) (*Portfolio, error) {
	p, ok := c.portfolios[id]
	if !ok {
		return nil, ErrUnknownPortfolio
	}
	return p, nil
}

// Portfolios visits every ledger.
func (c *Core) Portfolios(visit func(*Portfolio)) {
	for _, p := range c.portfolios {
		visit(p)
	}
}

// Submit validates an order and adds it to the resting set. Validation
// happens here, synchronously: an order that would violate an invariant
// at the reference price is rejected and never rests, with no mutation
// anywhere. refPrice is the instrument's current price, used when the
// order is at-market.
func (c *Core) Submit(o *Order, refPrice float64) error {
	if o.Quantity <= 0 {
		return ErrInvalidOrder
	}
	if o.Leverage < 1.0 {
		o.Leverage = 1.0
	}
	p, ok := c.portfolios[o.Owner]
	if !ok {
		return ErrUnknownPortfolio
	}

	ref := o.Price
	if ref <= 0 {
		ref = refPrice
	}
	switch o.Side {
	case Buy:
		need := settlement(ref, o.Quantity).Mul(decimal.NewFromFloat(o.Leverage))
		if p.Cash.LessThan(need) {
			return ErrInsufficientFunds
		}
	case Sell:
		if p.Holdings[o.Symbol] < o.Quantity {
			return ErrInsufficientHoldings
		}
	case Cover:
		if p.Shorts[o.Symbol] < o.Quantity {
			return ErrInsufficientShortPosition
		}
	case Short:
		// Margin-style, no position check.
	default:
		return ErrInvalidOrder
	}

	o.Status = Pending
	c.orders[o.ID] = o
	c.resting = append(c.resting, o.ID)
	return nil
}

// Cancel withdraws a pending order. Orders that already transitioned
// are not resurrected and report ErrOrderNotFound.
func (c *Core) Cancel(id string, now time.Time) (*Order, error) {
	o, ok := c.orders[id]
	if !ok || o.Status != Pending {
		return nil, ErrOrderNotFound
	}
	o.Status = Cancelled
	o.FilledAt = now
	c.dropResting(id)
	return o, nil
}

// Order looks up any known order, resting or settled.
func (c *Core) Order(id string) (*Order, error) {
	o, ok := c.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// OrdersFor returns copies of every order owned by owner. Resting
// orders come first in submission sequence; settled orders follow.
func (c *Core) OrdersFor(owner string) []Order {
	var out []Order
	for _, id := range c.resting {
		if o := c.orders[id]; o.Owner == owner {
			out = append(out, *o)
		}
	}
	for _, o := range c.orders {
		if o.Owner == owner && o.Status != Pending {
			out = append(out, *o)
		}
	}
	return out
}

// RestingCount reports the number of pending orders.
func (c *Core) RestingCount() int { return len(c.resting) }

// Fill is the outcome of one resting order leaving the queue during a
// scan. Err is non-nil when the trigger fired but settlement was no
// longer possible; the order is cancelled in that case.
type Fill struct {
	Order *Order
	Price float64
	Err   error
}

// Scan walks the resting queue in submission sequence against the
// given prices. Triggered orders settle and transition to Filled;
// triggered orders whose settlement fails transition to Cancelled.
// Untriggered orders keep resting.
func (c *Core) Scan(prices map[string]float64, now time.Time) []Fill {
	var fills []Fill
	keep := c.resting[:0]
	for _, id := range c.resting {
		o := c.orders[id]
		price, ok := prices[o.Symbol]
		if !ok || !o.triggered(price) {
			keep = append(keep, id)
			continue
		}
		err := c.settle(o, price)
		if err != nil {
			o.Status = Cancelled
		} else {
			o.Status = Filled
			o.FillPrice = price
		}
		o.FilledAt = now
		fills = append(fills, Fill{Order: o, Price: price, Err: err})
	}
	c.resting = keep
	return fills
}

func (c *Core) settle(o *Order, price float64) error {
	p, ok := c.portfolios[o.Owner]
	if !ok {
		return ErrUnknownPortfolio
	}
	switch o.Side {
	case Buy:
		return p.buy(o.Symbol, o.Quantity, price, o.Leverage)
	case Sell:
		return p.sell(o.Symbol, o.Quantity, price)
	case Short:
		return p.short(o.Symbol, o.Quantity, price)
	case Cover:
		return p.cover(o.Symbol, o.Quantity, price)
	default:
		return ErrInvalidOrder
	}
}

// RecomputeUnrealized refreshes every ledger's unrealized gain against
// the given prices.
func (c *Core) RecomputeUnrealized(prices map[string]float64) {
	for _, p := range c.portfolios {
		p.RecomputeUnrealized(prices)
	}
}

func (c *Core) dropResting(id string) {
	for i, v := range c.resting {
		if v == id {
			c.resting = append(c.resting[:i], c.resting[i+1:]...)
			return
		}
	}
}
