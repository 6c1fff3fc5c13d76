package market

// Category groups instruments into families that react to the same
// outside influences (challenge rewards, themed events).
type Category int

const (
	CategorySequence Category = iota
	CategoryCipher
	CategoryFractal
	CategoryQuant
	CategoryArcane
)

func (c Category) String() string {
	switch c {
	case CategorySequence:
		return "SEQUENCE"
	case CategoryCipher:
		return "CIPHER"
	case CategoryFractal:
		return "FRACTAL"
	case CategoryQuant:
		return "QUANT"
	case CategoryArcane:
		return "ARCANE"
	default:
		return "UNKNOWN"
	}
}

// Categories returns all instrument categories.
func Categories() []Category {
	return []Category{CategorySequence, CategoryCipher, CategoryFractal, CategoryQuant, CategoryArcane}
}

// Indicators holds the derived technical values for one instrument.
// They are recomputed from the price history after every tick and carry
// no state of their own.
type Indicators struct {
	SMA7       float64
	SMA30      float64
	RSI        float64
	BollUpper  float64
	BollMiddle float64
	BollLower  float64
}

// Instrument is a tradable pattern instrument. The price engine owns the
// mutable fields; everything outside the engine sees copies (Snapshot).
type Instrument struct {
	Symbol   string
	Name     string
	Category Category

	Price      float64
	OpenPrice  float64
	High24     float64
	Low24      float64
	Volume24   float64
	Supply     float64 // circulating units, fixed; MarketCap = Price * Supply
	Volatility float64 // 0..1
	TrendBias  float64 // 0..1, sensitivity to the global trend

	// Bonus is a persistent drift multiplier granted by solved
	// challenges. Always >= 1.0, capped at MaxBonus.
	Bonus    float64
	SolvedBy []string // challenge type tags that raised Bonus

	History    *History
	Indicators Indicators
}

// MarketCap returns the current capitalization.
func (in *Instrument) MarketCap() float64 {
	return in.Price * in.Supply
}

// Snapshot is an immutable copy of an instrument for readers.
type Snapshot struct {
	Symbol     string     `json:"symbol"`
	Name       string     `json:"name"`
	Category   string     `json:"category"`
	Price      float64    `json:"price"`
	OpenPrice  float64    `json:"open_price"`
	High24     float64    `json:"high_24"`
	Low24      float64    `json:"low_24"`
	Volume24   float64    `json:"volume_24"`
	MarketCap  float64    `json:"market_cap"`
	Volatility float64    `json:"volatility"`
	Bonus      float64    `json:"bonus"`
	SolvedBy   []string   `json:"solved_by,omitempty"`
	Indicators Indicators `json:"indicators"`
	History    []float64  `json:"history,omitempty"`
}

// Snapshot copies the instrument's current state.
func (in *Instrument) Snapshot() Snapshot {
	solved := make([]string, len(in.SolvedBy))
	copy(solved, in.SolvedBy)
	return Snapshot{
		Symbol:     in.Symbol,
		Name:       in.Name,
		Category:   in.Category.String(),
		Price:      in.Price,
		OpenPrice:  in.OpenPrice,
		High24:     in.High24,
		Low24:      in.Low24,
		Volume24:   in.Volume24,
		MarketCap:  in.MarketCap(),
		Volatility: in.Volatility,
		Bonus:      in.Bonus,
		SolvedBy:   solved,
		Indicators: in.Indicators,
		History:    in.History.Values(),
	}
}

// Trend is the global market regime.
type Trend int

const (
	TrendNeutral Trend = iota
	TrendBull
	TrendBullRun
	TrendBear
	TrendCrash
	TrendBubble
)

func (t Trend) String() string {
	switch t {
	case TrendNeutral:
		return "NEUTRAL"
	case TrendBull:
		return "BULL"
	case TrendBullRun:
		return "BULL_RUN"
	case TrendBear:
		return "BEAR"
	case TrendCrash:
		return "CRASH"
	case TrendBubble:
		return "BUBBLE"
	default:
		return "UNKNOWN"
	}
}

// Multiplier returns the price-change multiplier for the trend.
func (t Trend) Multiplier() float64 {
	switch t {
	case TrendBull:
		return 1.2
	case TrendBullRun:
		return 1.5
	case TrendBear:
		return 0.8
	case TrendCrash:
		return 0.5
	case TrendBubble:
		return 2.0
	default:
		return 1.0
	}
}

// State is the per-exchange market state, advanced once per tick. It is
// a plain value passed around explicitly so independent sessions can run
// their own markets.
type State struct {
	Trend           Trend   `json:"trend"`
	Multiplier      float64 `json:"multiplier"`
	Tick            int64   `json:"tick"`
	Index           float64 `json:"index"`            // cap-weighted vs baseline, 100 = unchanged
	VolatilityIndex float64 `json:"volatility_index"` // mean instrument volatility
}
