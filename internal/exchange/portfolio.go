package exchange

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/duskvale/patternmarket/internal/challenge"
)

// Portfolio is a participant's ledger. Cash and realized gains are held
// in decimal so settlement arithmetic is exact; a BUY followed by a SELL
// of the same quantity at the same price restores cash to the cent.
// Mutated only by order settlement and challenge solves, and only from
// the service's command processor.
type Portfolio struct {
	ID        string
	Cash      decimal.Decimal
	Holdings  map[string]int64
	Shorts    map[string]int64
	Realized  decimal.Decimal
	Solved    map[challenge.Type]int
	CreatedAt time.Time

	// Unrealized is recomputed from prices each tick, never persisted
	// forward.
	Unrealized float64

	costBasis  map[string]float64 // volume-weighted cash paid per held unit
	shortBasis map[string]float64 // volume-weighted entry price per shorted unit
}

// NewPortfolio creates an empty ledger with the given starting cash.
func NewPortfolio(id string, cash decimal.Decimal, createdAt time.Time) *Portfolio {
	return &Portfolio{
		ID:         id,
		Cash:       cash,
		Holdings:   make(map[string]int64),
		Shorts:     make(map[string]int64),
		Solved:     make(map[challenge.Type]int),
		CreatedAt:  createdAt,
		costBasis:  make(map[string]float64),
		shortBasis: make(map[string]float64),
	}
}

// NextDifficulty is the difficulty the next challenge of type t is
// issued at: one past the number of prior solves.
func (p *Portfolio) NextDifficulty(t challenge.Type) int {
	return p.Solved[t] + 1
}

// RecordSolve bumps the per-type solved counter.
func (p *Portfolio) RecordSolve(t challenge.Type) {
	p.Solved[t]++
}

// buy debits quantity*price*leverage and credits holdings. No mutation
// on insufficient funds.
func (p *Portfolio) buy(symbol string, qty int64, price, leverage float64) error {
	cost := settlement(price, qty).Mul(decimal.NewFromFloat(leverage))
	if p.Cash.LessThan(cost) {
		return ErrInsufficientFunds
	}
	p.Cash = p.Cash.Sub(cost)
	held := p.Holdings[symbol]
	p.costBasis[symbol] = weightedBasis(p.costBasis[symbol], held, price*leverage, qty)
	p.Holdings[symbol] = held + qty
	return nil
}

// sell credits proceeds and realizes the gain over the recorded cost
// basis. No mutation on insufficient holdings.
func (p *Portfolio) sell(symbol string, qty int64, price float64) error {
	held := p.Holdings[symbol]
	if held < qty {
		return ErrInsufficientHoldings
	}
	proceeds := settlement(price, qty)
	basis := settlement(p.costBasis[symbol], qty)
	p.Cash = p.Cash.Add(proceeds)
	p.Realized = p.Realized.Add(proceeds.Sub(basis))
	if held == qty {
		delete(p.Holdings, symbol)
		delete(p.costBasis, symbol)
	} else {
		p.Holdings[symbol] = held - qty
	}
	return nil
}

// short credits the proceeds immediately, margin-style, and records the
// entry price. There is no holdings check.
func (p *Portfolio) short(symbol string, qty int64, price float64) error {
	p.Cash = p.Cash.Add(settlement(price, qty))
	open := p.Shorts[symbol]
	p.shortBasis[symbol] = weightedBasis(p.shortBasis[symbol], open, price, qty)
	p.Shorts[symbol] = open + qty
	return nil
}

// cover debits the buy-back cost and realizes entry minus cover price.
// Cash stays non-negative; a cover the ledger cannot pay for is
// rejected rather than driving the balance below zero.
func (p *Portfolio) cover(symbol string, qty int64, price float64) error {
	open := p.Shorts[symbol]
	if open < qty {
		return ErrInsufficientShortPosition
	}
	cost := settlement(price, qty)
	if p.Cash.LessThan(cost) {
		return ErrInsufficientFunds
	}
	entry := settlement(p.shortBasis[symbol], qty)
	p.Cash = p.Cash.Sub(cost)
	p.Realized = p.Realized.Add(entry.Sub(cost))
	if open == qty {
		delete(p.Shorts, symbol)
		delete(p.shortBasis, symbol)
	} else {
		p.Shorts[symbol] = open - qty
	}
	return nil
}

// RecomputeUnrealized rebuilds the unrealized gain from current prices.
// Long positions are marked against their cost basis, shorts against
// their entry price.
func (p *Portfolio) RecomputeUnrealized(prices map[string]float64) {
	total := 0.0
	for sym, qty := range p.Holdings {
		if price, ok := prices[sym]; ok {
			total += float64(qty) * (price - p.costBasis[sym])
		}
	}
	for sym, qty := range p.Shorts {
		if price, ok := prices[sym]; ok {
			total += float64(qty) * (p.shortBasis[sym] - price)
		}
	}
	p.Unrealized = total
}

// settlement converts a float price and integer quantity into exact
// decimal cash.
func settlement(price float64, qty int64) decimal.Decimal {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(qty))
}

// weightedBasis folds qty new units at price into an existing
// volume-weighted per-unit basis over held units.
func weightedBasis(basis float64, held int64, price float64, qty int64) float64 {
	if held+qty <= 0 {
		return 0
	}
	return (basis*float64(held) + price*float64(qty)) / float64(held+qty)
}

// PortfolioView is the caller-facing copy of a ledger.
type PortfolioView struct {
	ID         string           `json:"id"`
	Cash       decimal.Decimal  `json:"cash"`
	Holdings   map[string]int64 `json:"holdings"`
	Shorts     map[string]int64 `json:"shorts"`
	Realized   decimal.Decimal  `json:"realized_gains"`
	Unrealized float64          `json:"unrealized_gains"`
	Solved     map[string]int   `json:"solved"`
	CreatedAt  time.Time        `json:"created_at"`
}

// View copies the ledger for readers outside the command processor.
func (p *Portfolio) View() PortfolioView {
	holdings := make(map[string]int64, len(p.Holdings))
	for k, v := range p.Holdings {
		holdings[k] = v
	}
	shorts := make(map[string]int64, len(p.Shorts))
	for k, v := range p.Shorts {
		shorts[k] = v
	}
	solved := make(map[string]int, len(p.Solved))
	for t, n := range p.Solved {
		solved[t.String()] = n
	}
	return PortfolioView{
		ID:         p.ID,
		Cash:       p.Cash,
		Holdings:   holdings,
		Shorts:     shorts,
		Realized:   p.Realized,
		Unrealized: p.Unrealized,
		Solved:     solved,
		CreatedAt:  p.CreatedAt,
	}
}
