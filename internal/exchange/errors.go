package exchange

import "errors"

// Rejections are ordinary results. The engine has no fatal errors;
// malformed input always comes back as one of these.
var (
	ErrUnknownInstrument         = errors.New("unknown instrument")
	ErrUnknownPortfolio          = errors.New("unknown portfolio")
	ErrInsufficientFunds         = errors.New("insufficient funds")
	ErrInsufficientHoldings      = errors.New("insufficient holdings")
	ErrInsufficientShortPosition = errors.New("insufficient short position")
	ErrOrderNotFound             = errors.New("order not found")
	ErrChallengeExpired          = errors.New("challenge expired")
	ErrChallengeNotFound         = errors.New("no outstanding challenge")
	ErrInvalidSolution           = errors.New("invalid solution")
	ErrDifficultyMismatch        = errors.New("difficulty mismatch")
	ErrInvalidOrder              = errors.New("invalid order")
)
