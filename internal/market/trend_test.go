package market

import (
	"math/rand"
	"testing"
)

func TestTrendMultipliers(t *testing.T) {
	tests := []struct {
		trend Trend
		want  float64
	}{
		{TrendNeutral, 1.0},
		{TrendBull, 1.2},
		{TrendBullRun, 1.5},
		{TrendBear, 0.8},
		{TrendCrash, 0.5},
		{TrendBubble, 2.0},
	}
	for _, tc := range tests {
		if got := tc.trend.Multiplier(); got != tc.want {
			t.Errorf("%s multiplier = %v, want %v", tc.trend, got, tc.want)
		}
	}
}

func TestTrendEvaluateMapping(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	tests := []struct {
		name    string
		start   Trend
		meanRSI float64
		want    Trend
	}{
		{"neutral band", TrendNeutral, 50, TrendNeutral},
		{"bull entry", TrendNeutral, 60, TrendBull},
		{"hot rsi from neutral stays bull", TrendNeutral, 80, TrendBull},
		{"bull deepens to bull run", TrendBull, 80, TrendBullRun},
		{"bull run persists", TrendBullRun, 75, TrendBullRun},
		{"bear entry", TrendNeutral, 40, TrendBear},
		{"cold rsi from neutral stays bear", TrendNeutral, 20, TrendBear},
		{"bear deepens to crash", TrendBear, 20, TrendCrash},
		{"crash persists", TrendCrash, 25, TrendCrash},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := NewTrendController(10, 0) // shocks disabled
			c.Force(tc.start)
			got, shocked := c.Evaluate(tc.meanRSI, rng)
			if shocked {
				t.Fatal("unexpected shock with zero probability")
			}
			if got != tc.want {
				t.Errorf("from %s at RSI %v: got %s, want %s", tc.start, tc.meanRSI, got, tc.want)
			}
		})
	}
}

func TestTrendForcedShock(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	c := NewTrendController(10, 1.0) // always shock

	got, shocked := c.Evaluate(50, rng)
	if !shocked {
		t.Fatal("expected forced shock")
	}
	switch got {
	case TrendBullRun, TrendCrash, TrendBubble:
	default:
		t.Errorf("shock landed on %s, want BULL_RUN/CRASH/BUBBLE", got)
	}
}

func TestTrendShouldEvaluate(t *testing.T) {
	c := NewTrendController(5, 0)
	if !c.ShouldEvaluate(10) {
		t.Error("tick 10 should evaluate with evalEvery=5")
	}
	if c.ShouldEvaluate(7) {
		t.Error("tick 7 should not evaluate with evalEvery=5")
	}
}
