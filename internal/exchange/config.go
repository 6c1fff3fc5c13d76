package exchange

import (
	"go.uber.org/zap"

	"github.com/duskvale/patternmarket/internal/market"
)

// Config controls an exchange Service.
type Config struct {
	// StartingCash is the initial balance for new portfolios.
	StartingCash float64

	// TrendEvalEvery is the tick period between trend evaluations.
	TrendEvalEvery int64
	// TrendShockProb is the per-evaluation probability of a forced
	// BULL_RUN/CRASH/BUBBLE transition.
	TrendShockProb float64

	// Params tunes the price engine.
	Params market.Params

	// EventLogSize bounds the market event log.
	EventLogSize int
	// SnapshotEvents is how many recent events a MarketSnapshot carries.
	SnapshotEvents int

	CommandBuffer       int
	ExternalEventBuffer int
	// DropExternalEvents drops events for slow subscribers instead of
	// backpressuring the command processor.
	DropExternalEvents bool

	// Seed fixes the random source; 0 seeds from the clock.
	Seed int64

	Logger *zap.Logger
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		StartingCash:        10_000,
		TrendEvalEvery:      10,
		TrendShockProb:      0.02,
		Params:              market.DefaultParams(),
		EventLogSize:        256,
		SnapshotEvents:      20,
		CommandBuffer:       128,
		ExternalEventBuffer: 256,
		DropExternalEvents:  true,
	}
}
