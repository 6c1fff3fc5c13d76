package challenge

import (
	"math"
	"strconv"
	"strings"
)

// Validate checks a candidate solution against the challenge. It never
// mutates anything; applying rewards is the exchange's job.
func (c *Challenge) Validate(candidate string) bool {
	candidate = strings.TrimSpace(candidate)
	switch c.kind {
	case answerExact:
		return strings.EqualFold(candidate, c.exact)
	case answerNumeric:
		v, err := strconv.ParseFloat(candidate, 64)
		if err != nil {
			return false
		}
		return math.Abs(v-c.numeric) <= c.tolerance
	case answerPredicate:
		return c.check != nil && c.check(candidate)
	default:
		return false
	}
}
