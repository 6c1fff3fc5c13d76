package challenge

import (
	"time"

	"github.com/duskvale/patternmarket/internal/market"
)

// Type enumerates the algorithmic puzzle families.
type Type int

const (
	TypeSequence Type = iota
	TypeFactorization
	TypeHashPrefix
	TypePattern
	TypeAllocation
	TypePrediction
	TypeArbitrage
	TypeProbability
	TypeFractal
	TypeCipher
)

// Types returns all challenge types.
func Types() []Type {
	return []Type{
		TypeSequence, TypeFactorization, TypeHashPrefix, TypePattern,
		TypeAllocation, TypePrediction, TypeArbitrage, TypeProbability,
		TypeFractal, TypeCipher,
	}
}

func (t Type) String() string {
	switch t {
	case TypeSequence:
		return "SEQUENCE"
	case TypeFactorization:
		return "FACTORIZATION"
	case TypeHashPrefix:
		return "HASH_PREFIX"
	case TypePattern:
		return "PATTERN"
	case TypeAllocation:
		return "ALLOCATION"
	case TypePrediction:
		return "PREDICTION"
	case TypeArbitrage:
		return "ARBITRAGE"
	case TypeProbability:
		return "PROBABILITY"
	case TypeFractal:
		return "FRACTAL"
	case TypeCipher:
		return "CIPHER"
	default:
		return "UNKNOWN"
	}
}

// ParseType resolves a type tag. The second result reports success.
func ParseType(tag string) (Type, bool) {
	for _, t := range Types() {
		if t.String() == tag {
			return t, true
		}
	}
	return 0, false
}

// affectedCategories is the static table mapping each challenge type to
// the instrument categories whose bonus it raises on a solve. Resolved
// at initialization, never via runtime lookups on string tags.
var affectedCategories = map[Type][]market.Category{
	TypeSequence:      {market.CategorySequence},
	TypeFactorization: {market.CategoryQuant, market.CategorySequence},
	TypeHashPrefix:    {market.CategoryCipher},
	TypePattern:       {market.CategorySequence, market.CategoryFractal},
	TypeAllocation:    {market.CategoryQuant},
	TypePrediction:    {market.CategoryQuant, market.CategoryArcane},
	TypeArbitrage:     {market.CategoryQuant, market.CategoryCipher},
	TypeProbability:   {market.CategoryQuant},
	TypeFractal:       {market.CategoryFractal},
	TypeCipher:        {market.CategoryCipher, market.CategoryArcane},
}

// AffectedCategories returns the categories a solved challenge of this
// type boosts.
func (t Type) AffectedCategories() []market.Category {
	return affectedCategories[t]
}

// answerKind selects the validation mode.
type answerKind int

const (
	answerExact answerKind = iota
	answerNumeric
	answerPredicate
)

// Challenge is one issued puzzle. The solution (or its predicate) stays
// unexported; callers only see the prompt and metadata.
type Challenge struct {
	ID         string
	Type       Type
	Difficulty int
	Prompt     string
	Reward     float64 // bonus multiplier applied to affected instruments
	TimeLimit  time.Duration
	IssuedAt   time.Time

	kind      answerKind
	exact     string
	numeric   float64
	tolerance float64
	check     func(candidate string) bool
}

// Expired reports whether the time limit has passed at now.
func (c *Challenge) Expired(now time.Time) bool {
	return now.Sub(c.IssuedAt) > c.TimeLimit
}

// View is the caller-facing copy of a challenge.
type View struct {
	ID         string        `json:"id"`
	Type       string        `json:"type"`
	Difficulty int           `json:"difficulty"`
	Prompt     string        `json:"prompt"`
	Reward     float64       `json:"reward"`
	TimeLimit  time.Duration `json:"time_limit"`
	IssuedAt   time.Time     `json:"issued_at"`
}

// View returns the caller-facing copy.
func (c *Challenge) View() View {
	return View{
		ID:         c.ID,
		Type:       c.Type.String(),
		Difficulty: c.Difficulty,
		Prompt:     c.Prompt,
		Reward:     c.Reward,
		TimeLimit:  c.TimeLimit,
		IssuedAt:   c.IssuedAt,
	}
}
