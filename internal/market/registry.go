package market

import "sort"

// HistoryCapacity is the bounded length of every instrument's price
// history. It must cover the longest indicator window.
const HistoryCapacity = 96

// MaxBonus caps the challenge-granted drift multiplier.
const MaxBonus = 3.0

// Registry is the fixed set of tradable instruments for one session.
type Registry struct {
	bySymbol map[string]*Instrument
	symbols  []string // stable iteration order

	baselineCap float64 // capitalization at registry creation, index = 100
}

// seed describes one instrument at listing time.
type seed struct {
	Symbol     string
	Name       string
	Category   Category
	Price      float64
	Supply     float64
	Volatility float64
	TrendBias  float64
}

var defaultSeeds = []seed{
	{"FIBON", "Fibonacci Weave", CategorySequence, 112.0, 90_000, 0.35, 0.85},
	{"LUCAS", "Lucas Chain", CategorySequence, 64.0, 140_000, 0.45, 0.75},
	{"COLLZ", "Collatz Drift", CategorySequence, 27.0, 310_000, 0.70, 0.60},
	{"VIGNR", "Vigenere Standard", CategoryCipher, 151.0, 70_000, 0.30, 0.80},
	{"ROTOR", "Rotor Works", CategoryCipher, 83.0, 120_000, 0.50, 0.70},
	{"ENIGM", "Enigma Holdings", CategoryCipher, 198.0, 55_000, 0.40, 0.90},
	{"MANDL", "Mandel Group", CategoryFractal, 133.0, 80_000, 0.55, 0.80},
	{"SIERP", "Sierpinski Lattice", CategoryFractal, 47.0, 260_000, 0.65, 0.55},
	{"KOCHS", "Koch Snowfield", CategoryFractal, 72.0, 150_000, 0.60, 0.65},
	{"ECHO", "Echo Series", CategoryQuant, 100.0, 100_000, 0.40, 0.80},
	{"GAUSS", "Gauss Capital", CategoryQuant, 175.0, 60_000, 0.25, 0.95},
	{"MONTE", "Monte Carlo Mining", CategoryQuant, 58.0, 220_000, 0.75, 0.50},
	{"ORACL", "Oracle Bones", CategoryArcane, 240.0, 40_000, 0.45, 0.85},
	{"RUNES", "Runic Assets", CategoryArcane, 36.0, 400_000, 0.80, 0.45},
	{"HEXED", "Hexed Futures", CategoryArcane, 91.0, 110_000, 0.55, 0.70},
}

// NewRegistry builds the default instrument set.
func NewRegistry() *Registry {
	return newRegistry(defaultSeeds)
}

func newRegistry(seeds []seed) *Registry {
	r := &Registry{bySymbol: make(map[string]*Instrument, len(seeds))}
	for _, s := range seeds {
		// Each instrument owns its history buffer; the shared seed
		// table carries only plain values.
		in := &Instrument{
			Symbol:     s.Symbol,
			Name:       s.Name,
			Category:   s.Category,
			Price:      s.Price,
			OpenPrice:  s.Price,
			High24:     s.Price,
			Low24:      s.Price,
			Supply:     s.Supply,
			Volatility: s.Volatility,
			TrendBias:  s.TrendBias,
			Bonus:      1.0,
			History:    NewHistory(HistoryCapacity),
		}
		in.History.Append(s.Price)
		r.bySymbol[s.Symbol] = in
		r.symbols = append(r.symbols, s.Symbol)
		r.baselineCap += in.MarketCap()
	}
	sort.Strings(r.symbols)
	return r
}

// Get returns the instrument for symbol, or nil.
func (r *Registry) Get(symbol string) *Instrument {
	return r.bySymbol[symbol]
}

// Symbols returns all symbols in stable order.
func (r *Registry) Symbols() []string {
	out := make([]string, len(r.symbols))
	copy(out, r.symbols)
	return out
}

// All visits every instrument in stable symbol order.
func (r *Registry) All(visit func(*Instrument)) {
	for _, sym := range r.symbols {
		visit(r.bySymbol[sym])
	}
}

// ByCategory returns the instruments in a category, in symbol order.
func (r *Registry) ByCategory(c Category) []*Instrument {
	var out []*Instrument
	for _, sym := range r.symbols {
		if in := r.bySymbol[sym]; in.Category == c {
			out = append(out, in)
		}
	}
	return out
}

// Prices returns a symbol -> current price map.
func (r *Registry) Prices() map[string]float64 {
	out := make(map[string]float64, len(r.symbols))
	for sym, in := range r.bySymbol {
		out[sym] = in.Price
	}
	return out
}

// MeanRSI averages RSI across all instruments.
func (r *Registry) MeanRSI() float64 {
	if len(r.symbols) == 0 {
		return 50
	}
	sum := 0.0
	for _, in := range r.bySymbol {
		sum += in.Indicators.RSI
	}
	return sum / float64(len(r.symbols))
}

// Index returns the cap-weighted market index: 100 means capitalization
// is unchanged from the baseline taken at registry creation.
func (r *Registry) Index() float64 {
	if r.baselineCap == 0 {
		return 100
	}
	total := 0.0
	for _, in := range r.bySymbol {
		total += in.MarketCap()
	}
	return 100 * total / r.baselineCap
}

// VolatilityIndex returns the mean instrument volatility.
func (r *Registry) VolatilityIndex() float64 {
	if len(r.symbols) == 0 {
		return 0
	}
	sum := 0.0
	for _, in := range r.bySymbol {
		sum += in.Volatility
	}
	return sum / float64(len(r.symbols))
}
