package exchange

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var t0 = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func newFundedCore(t *testing.T, cash float64) (*Core, *Portfolio) {
	t.Helper()
	c := NewCore()
	p := c.CreatePortfolio("alice", decimal.NewFromFloat(cash), t0)
	return c, p
}

func submit(t *testing.T, c *Core, o *Order, ref float64) {
	t.Helper()
	if err := c.Submit(o, ref); err != nil {
		t.Fatalf("submit %s %s: %v", o.Side, o.Symbol, err)
	}
}

func TestCreatePortfolioIdempotent(t *testing.T) {
	c := NewCore()
	a := c.CreatePortfolio("bob", decimal.NewFromInt(500), t0)
	a.Holdings["ECHO"] = 3
	b := c.CreatePortfolio("bob", decimal.NewFromInt(9999), t0)
	if a != b {
		t.Fatal("re-registration must return the existing ledger")
	}
	if !b.Cash.Equal(decimal.NewFromInt(500)) {
		t.Errorf("cash = %s, want original 500", b.Cash)
	}
}

func TestUnknownPortfolio(t *testing.T) {
	c := NewCore()
	if _, err := c.Portfolio("ghost"); !errors.Is(err, ErrUnknownPortfolio) {
		t.Errorf("err = %v, want ErrUnknownPortfolio", err)
	}
	o := &Order{ID: "o1", Owner: "ghost", Symbol: "ECHO", Side: Buy, Quantity: 1}
	if err := c.Submit(o, 100); !errors.Is(err, ErrUnknownPortfolio) {
		t.Errorf("submit err = %v, want ErrUnknownPortfolio", err)
	}
}

func TestBuySettlementExact(t *testing.T) {
	c, p := newFundedCore(t, 10_000)
	submit(t, c, &Order{ID: "o1", Owner: "alice", Symbol: "ECHO", Side: Buy, Quantity: 7, Price: 100}, 100)

	fills := c.Scan(map[string]float64{"ECHO": 100}, t0)
	if len(fills) != 1 || fills[0].Err != nil {
		t.Fatalf("fills = %+v", fills)
	}
	want := decimal.NewFromFloat(10_000 - 7*100)
	if !p.Cash.Equal(want) {
		t.Errorf("cash = %s, want %s", p.Cash, want)
	}
	if p.Holdings["ECHO"] != 7 {
		t.Errorf("holdings = %d, want 7", p.Holdings["ECHO"])
	}
}

func TestBuyWithLeverageDebitsScaledCost(t *testing.T) {
	c, p := newFundedCore(t, 10_000)
	submit(t, c, &Order{ID: "o1", Owner: "alice", Symbol: "ECHO", Side: Buy, Quantity: 10, Price: 100, Leverage: 3}, 100)

	c.Scan(map[string]float64{"ECHO": 100}, t0)
	want := decimal.NewFromFloat(10_000 - 10*100*3)
	if !p.Cash.Equal(want) {
		t.Errorf("cash = %s, want %s", p.Cash, want)
	}
	if p.Holdings["ECHO"] != 10 {
		t.Errorf("holdings = %d, want 10", p.Holdings["ECHO"])
	}
}

func TestInsufficientFundsRejectsWithoutMutation(t *testing.T) {
	c, p := newFundedCore(t, 1_000)
	o := &Order{ID: "o1", Owner: "alice", Symbol: "ECHO", Side: Buy, Quantity: 20, Price: 100}
	err := c.Submit(o, 100)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
	if !p.Cash.Equal(decimal.NewFromInt(1_000)) {
		t.Errorf("cash changed to %s on a rejected order", p.Cash)
	}
	if c.RestingCount() != 0 {
		t.Error("rejected order must never rest")
	}
	if len(p.Holdings) != 0 {
		t.Error("holdings mutated on a rejected order")
	}
}

func TestSellRequiresHoldings(t *testing.T) {
	c, _ := newFundedCore(t, 1_000)
	o := &Order{ID: "o1", Owner: "alice", Symbol: "ECHO", Side: Sell, Quantity: 5, Price: 100}
	if err := c.Submit(o, 100); !errors.Is(err, ErrInsufficientHoldings) {
		t.Errorf("err = %v, want ErrInsufficientHoldings", err)
	}
}

func TestBuySellRoundTripRestoresCashExactly(t *testing.T) {
	c, p := newFundedCore(t, 10_000)
	before := p.Cash

	submit(t, c, &Order{ID: "b", Owner: "alice", Symbol: "ECHO", Side: Buy, Quantity: 13, Price: 107.37}, 107.37)
	c.Scan(map[string]float64{"ECHO": 107.37}, t0)

	submit(t, c, &Order{ID: "s", Owner: "alice", Symbol: "ECHO", Side: Sell, Quantity: 13, Price: 107.37}, 107.37)
	c.Scan(map[string]float64{"ECHO": 107.37}, t0)

	if !p.Cash.Equal(before) {
		t.Errorf("cash = %s after round trip, want %s exactly", p.Cash, before)
	}
	if !p.Realized.IsZero() {
		t.Errorf("realized = %s after flat round trip, want 0", p.Realized)
	}
	if len(p.Holdings) != 0 {
		t.Errorf("holdings = %v, want empty", p.Holdings)
	}
}

func TestSellRealizesGainOverWeightedBasis(t *testing.T) {
	c, p := newFundedCore(t, 100_000)

	// 10 @ 100 then 10 @ 200: weighted basis 150.
	submit(t, c, &Order{ID: "b1", Owner: "alice", Symbol: "ECHO", Side: Buy, Quantity: 10, Price: 100}, 100)
	c.Scan(map[string]float64{"ECHO": 100}, t0)
	submit(t, c, &Order{ID: "b2", Owner: "alice", Symbol: "ECHO", Side: Buy, Quantity: 10, Price: 200}, 200)
	c.Scan(map[string]float64{"ECHO": 200}, t0)

	submit(t, c, &Order{ID: "s", Owner: "alice", Symbol: "ECHO", Side: Sell, Quantity: 20, Price: 180}, 180)
	c.Scan(map[string]float64{"ECHO": 180}, t0)

	want := decimal.NewFromInt(20 * (180 - 150))
	if !p.Realized.Equal(want) {
		t.Errorf("realized = %s, want %s", p.Realized, want)
	}
}

func TestShortCreditsProceedsAndCoverRealizes(t *testing.T) {
	c, p := newFundedCore(t, 1_000)

	submit(t, c, &Order{ID: "sh", Owner: "alice", Symbol: "ECHO", Side: Short, Quantity: 10, Price: 100}, 100)
	c.Scan(map[string]float64{"ECHO": 100}, t0)
	if !p.Cash.Equal(decimal.NewFromInt(2_000)) {
		t.Fatalf("cash = %s after short, want 2000", p.Cash)
	}
	if p.Shorts["ECHO"] != 10 {
		t.Fatalf("shorts = %d, want 10", p.Shorts["ECHO"])
	}

	// Cover half at a lower price: entry 100, cover 80, gain 20 per unit.
	submit(t, c, &Order{ID: "cv", Owner: "alice", Symbol: "ECHO", Side: Cover, Quantity: 5, Price: 80}, 80)
	c.Scan(map[string]float64{"ECHO": 80}, t0)

	if !p.Cash.Equal(decimal.NewFromInt(2_000 - 5*80)) {
		t.Errorf("cash = %s, want 1600", p.Cash)
	}
	if !p.Realized.Equal(decimal.NewFromInt(5 * 20)) {
		t.Errorf("realized = %s, want 100", p.Realized)
	}
	if p.Shorts["ECHO"] != 5 {
		t.Errorf("shorts = %d, want 5", p.Shorts["ECHO"])
	}
}

func TestCoverRequiresShortPosition(t *testing.T) {
	c, _ := newFundedCore(t, 1_000)
	o := &Order{ID: "cv", Owner: "alice", Symbol: "ECHO", Side: Cover, Quantity: 1, Price: 100}
	if err := c.Submit(o, 100); !errors.Is(err, ErrInsufficientShortPosition) {
		t.Errorf("err = %v, want ErrInsufficientShortPosition", err)
	}
}

func TestCancelOnlyWhilePending(t *testing.T) {
	c, _ := newFundedCore(t, 10_000)
	submit(t, c, &Order{ID: "o1", Owner: "alice", Symbol: "ECHO", Side: Buy, Quantity: 1, Price: 100}, 100)

	o, err := c.Cancel("o1", t0)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if o.Status != Cancelled {
		t.Errorf("status = %s, want CANCELLED", o.Status)
	}
	if c.RestingCount() != 0 {
		t.Error("cancelled order still resting")
	}

	// Second transition attempt.
	if _, err := c.Cancel("o1", t0); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("re-cancel err = %v, want ErrOrderNotFound", err)
	}
	// Cancelled orders are never resurrected by a scan.
	if fills := c.Scan(map[string]float64{"ECHO": 100}, t0); len(fills) != 0 {
		t.Errorf("scan filled a cancelled order: %+v", fills)
	}
}

func TestCancelUnknownOrder(t *testing.T) {
	c, _ := newFundedCore(t, 1_000)
	if _, err := c.Cancel("nope", t0); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("err = %v, want ErrOrderNotFound", err)
	}
}

func TestStopLossTrigger(t *testing.T) {
	c, _ := newFundedCore(t, 100_000)
	submit(t, c, &Order{ID: "o1", Owner: "alice", Symbol: "ECHO", Side: Buy, Quantity: 1, Price: 50, StopLoss: 90}, 120)

	if fills := c.Scan(map[string]float64{"ECHO": 95}, t0); len(fills) != 0 {
		t.Fatal("filled above the stop price")
	}
	fills := c.Scan(map[string]float64{"ECHO": 90}, t0)
	if len(fills) != 1 || fills[0].Order.Status != Filled {
		t.Fatalf("fills = %+v, want one fill at the stop", fills)
	}
	if fills[0].Price != 90 {
		t.Errorf("fill price = %v, want 90", fills[0].Price)
	}
}

func TestTakeProfitTrigger(t *testing.T) {
	c, _ := newFundedCore(t, 100_000)
	submit(t, c, &Order{ID: "o1", Owner: "alice", Symbol: "ECHO", Side: Buy, Quantity: 1, Price: 300, TakeProfit: 150}, 120)

	if fills := c.Scan(map[string]float64{"ECHO": 149}, t0); len(fills) != 0 {
		t.Fatal("filled below the take-profit price")
	}
	fills := c.Scan(map[string]float64{"ECHO": 151}, t0)
	if len(fills) != 1 || fills[0].Order.Status != Filled {
		t.Fatalf("fills = %+v, want one fill", fills)
	}
}

func TestLimitFillsWithinToleranceBand(t *testing.T) {
	c, _ := newFundedCore(t, 100_000)
	submit(t, c, &Order{ID: "o1", Owner: "alice", Symbol: "ECHO", Side: Buy, Quantity: 1, Price: 100}, 100)

	// 2% away: keeps resting.
	if fills := c.Scan(map[string]float64{"ECHO": 102}, t0); len(fills) != 0 {
		t.Fatal("filled outside the tolerance band")
	}
	if c.RestingCount() != 1 {
		t.Fatal("order left the resting set without filling")
	}
	// 0.5% away: fills at the current price, not the requested one.
	fills := c.Scan(map[string]float64{"ECHO": 100.5}, t0)
	if len(fills) != 1 {
		t.Fatalf("fills = %+v, want one", fills)
	}
	if fills[0].Price != 100.5 {
		t.Errorf("fill price = %v, want 100.5", fills[0].Price)
	}
}

func TestMarketOrderFillsOnNextScan(t *testing.T) {
	c, _ := newFundedCore(t, 100_000)
	submit(t, c, &Order{ID: "o1", Owner: "alice", Symbol: "ECHO", Side: Buy, Quantity: 2, Price: 0}, 100)

	fills := c.Scan(map[string]float64{"ECHO": 117.5}, t0)
	if len(fills) != 1 || fills[0].Price != 117.5 {
		t.Fatalf("fills = %+v, want market fill at 117.5", fills)
	}
}

func TestScanCancelsWhenSettlementImpossible(t *testing.T) {
	c, p := newFundedCore(t, 1_000)
	// Both orders pass the submission check against the same cash, but
	// only one can settle.
	submit(t, c, &Order{ID: "a", Owner: "alice", Symbol: "ECHO", Side: Buy, Quantity: 9, Price: 100}, 100)
	submit(t, c, &Order{ID: "b", Owner: "alice", Symbol: "ECHO", Side: Buy, Quantity: 9, Price: 100}, 100)

	fills := c.Scan(map[string]float64{"ECHO": 100}, t0)
	if len(fills) != 2 {
		t.Fatalf("fills = %+v, want 2", fills)
	}
	if fills[0].Err != nil {
		t.Fatalf("first order should settle: %v", fills[0].Err)
	}
	if !errors.Is(fills[1].Err, ErrInsufficientFunds) {
		t.Fatalf("second order err = %v, want ErrInsufficientFunds", fills[1].Err)
	}
	if fills[1].Order.Status != Cancelled {
		t.Error("unsettleable order must transition to CANCELLED")
	}
	if !p.Cash.Equal(decimal.NewFromInt(100)) {
		t.Errorf("cash = %s, want 100", p.Cash)
	}
	if p.Cash.IsNegative() {
		t.Error("cash went negative")
	}
}

func TestScanPreservesSubmissionSequence(t *testing.T) {
	c, _ := newFundedCore(t, 100_000)
	for i, id := range []string{"first", "second", "third"} {
		submit(t, c, &Order{ID: id, Owner: "alice", Symbol: "ECHO", Side: Buy, Quantity: int64(i + 1), Price: 0}, 100)
	}
	fills := c.Scan(map[string]float64{"ECHO": 100}, t0)
	if len(fills) != 3 {
		t.Fatalf("fills = %d, want 3", len(fills))
	}
	for i, id := range []string{"first", "second", "third"} {
		if fills[i].Order.ID != id {
			t.Errorf("fill[%d] = %s, want %s", i, fills[i].Order.ID, id)
		}
	}
}

func TestInvalidOrderRejected(t *testing.T) {
	c, _ := newFundedCore(t, 1_000)
	o := &Order{ID: "o1", Owner: "alice", Symbol: "ECHO", Side: Buy, Quantity: 0, Price: 100}
	if err := c.Submit(o, 100); !errors.Is(err, ErrInvalidOrder) {
		t.Errorf("err = %v, want ErrInvalidOrder", err)
	}
}

func TestRecomputeUnrealized(t *testing.T) {
	c, p := newFundedCore(t, 100_000)
	submit(t, c, &Order{ID: "b", Owner: "alice", Symbol: "ECHO", Side: Buy, Quantity: 10, Price: 100}, 100)
	c.Scan(map[string]float64{"ECHO": 100}, t0)
	submit(t, c, &Order{ID: "sh", Owner: "alice", Symbol: "FIBON", Side: Short, Quantity: 4, Price: 50}, 50)
	c.Scan(map[string]float64{"FIBON": 50}, t0)

	c.RecomputeUnrealized(map[string]float64{"ECHO": 110, "FIBON": 45})
	// Long: 10*(110-100) = 100. Short: 4*(50-45) = 20.
	if p.Unrealized != 120 {
		t.Errorf("unrealized = %v, want 120", p.Unrealized)
	}

	// Derived, never accumulated: recomputing at flat prices zeroes it.
	c.RecomputeUnrealized(map[string]float64{"ECHO": 100, "FIBON": 50})
	if p.Unrealized != 0 {
		t.Errorf("unrealized = %v, want 0", p.Unrealized)
	}
}
