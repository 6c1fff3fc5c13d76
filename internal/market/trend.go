package market

import "math/rand"

// TrendController is the global regime state machine. It is evaluated
// every EvalEvery ticks from the mean RSI across all instruments, with
// momentum: an established BULL deepens into BULL_RUN and an established
// BEAR into CRASH. A small per-evaluation probability forces a shock
// regime (BULL_RUN, CRASH or BUBBLE) regardless of RSI.
type TrendController struct {
	current   Trend
	evalEvery int64
	shockProb float64
}

// NewTrendController creates a controller starting at NEUTRAL.
func NewTrendController(evalEvery int64, shockProb float64) *TrendController {
	if evalEvery <= 0 {
		evalEvery = 10
	}
	return &TrendController{
		current:   TrendNeutral,
		evalEvery: evalEvery,
		shockProb: shockProb,
	}
}

// Current returns the active trend.
func (c *TrendController) Current() Trend { return c.current }

// Force overrides the trend. Used by session scripts and tests.
func (c *TrendController) Force(t Trend) { c.current = t }

// ShouldEvaluate reports whether the given tick is an evaluation tick.
func (c *TrendController) ShouldEvaluate(tick int64) bool {
	return tick%c.evalEvery == 0
}

// Evaluate advances the state machine. It returns the new trend and
// whether a shock event forced the transition.
func (c *TrendController) Evaluate(meanRSI float64, rng *rand.Rand) (Trend, bool) {
	if rng.Float64() < c.shockProb {
		shocks := []Trend{TrendBullRun, TrendCrash, TrendBubble}
		c.current = shocks[rng.Intn(len(shocks))]
		return c.current, true
	}

	prev := c.current
	switch {
	case meanRSI >= 70:
		if prev == TrendBull || prev == TrendBullRun {
			c.current = TrendBullRun
		} else {
			c.current = TrendBull
		}
	case meanRSI >= 55:
		c.current = TrendBull
	case meanRSI > 45:
		c.current = TrendNeutral
	case meanRSI > 30:
		c.current = TrendBear
	default:
		if prev == TrendBear || prev == TrendCrash {
			c.current = TrendCrash
		} else {
			c.current = TrendBear
		}
	}
	return c.current, false
}
