package exchange

import (
	"time"

	"github.com/duskvale/patternmarket/internal/feed"
	"github.com/duskvale/patternmarket/internal/market"
)

// MarketSnapshot is the immutable market copy taken at the end of a
// tick. Readers need no synchronization.
type MarketSnapshot struct {
	State       market.State      `json:"state"`
	Instruments []market.Snapshot `json:"instruments"`
	Events      []feed.Item       `json:"events,omitempty"`
	TakenAt     time.Time         `json:"taken_at"`
}

// BonusApplied reports the outcome of a successful challenge solve.
type BonusApplied struct {
	Type           string   `json:"type"`
	Difficulty     int      `json:"difficulty"`
	Reward         float64  `json:"reward"`
	Instruments    []string `json:"instruments"`
	NextDifficulty int      `json:"next_difficulty"`
}
