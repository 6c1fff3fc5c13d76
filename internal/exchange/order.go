package exchange

import (
	"encoding/json"
	"fmt"
	"time"
)

// Side is the order direction.
type Side int

const (
	Buy Side = iota
	Sell
	Short
	Cover
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	case Short:
		return "SHORT"
	case Cover:
		return "COVER"
	default:
		return "UNKNOWN"
	}
}

// ParseSide resolves a side tag. The second result reports success.
func ParseSide(tag string) (Side, bool) {
	switch tag {
	case "BUY":
		return Buy, true
	case "SELL":
		return Sell, true
	case "SHORT":
		return Short, true
	case "COVER":
		return Cover, true
	}
	return 0, false
}

// Status is the order lifecycle state. An order transitions exactly
// once, Pending to Filled or Pending to Cancelled, and is removed from
// the resting set on transition.
type Status int

const (
	Pending Status = iota
	Filled
	Cancelled
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Filled:
		return "FILLED"
	case Cancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// Order is a resting instruction against one instrument. Price 0 means
// at-market: the order fills on the next scan at the prevailing price.
type Order struct {
	ID          string    `json:"id"`
	Owner       string    `json:"owner"`
	Symbol      string    `json:"symbol"`
	Side        Side      `json:"side"`
	Quantity    int64     `json:"quantity"`
	Price       float64   `json:"price"`
	Leverage    float64   `json:"leverage"`
	StopLoss    float64   `json:"stop_loss,omitempty"`
	TakeProfit  float64   `json:"take_profit,omitempty"`
	Strategy    string    `json:"strategy,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`

	Status    Status    `json:"status"`
	FillPrice float64   `json:"fill_price,omitempty"`
	FilledAt  time.Time `json:"filled_at"`
}

// MarshalJSON renders the side as its tag.
func (s Side) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON parses a side tag.
func (s *Side) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}
	side, ok := ParseSide(tag)
	if !ok {
		return fmt.Errorf("unknown side %q", tag)
	}
	*s = side
	return nil
}

// MarshalJSON renders the status as its tag.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON parses a status tag.
func (s *Status) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}
	switch tag {
	case "PENDING":
		*s = Pending
	case "FILLED":
		*s = Filled
	case "CANCELLED":
		*s = Cancelled
	default:
		return fmt.Errorf("unknown status %q", tag)
	}
	return nil
}

// limitTolerance is the fractional band around the requested price
// within which a resting limit order fills. This is a recurring check
// against the current price, not a price-time-priority book.
const limitTolerance = 0.01

// triggered reports whether the order should fill at price.
func (o *Order) triggered(price float64) bool {
	if o.StopLoss > 0 && price <= o.StopLoss {
		return true
	}
	if o.TakeProfit > 0 && price >= o.TakeProfit {
		return true
	}
	if o.Price <= 0 {
		return true // at-market
	}
	return abs(price-o.Price) <= limitTolerance*o.Price
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
