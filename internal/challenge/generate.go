package challenge

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Generator produces challenges. The random source is injected so
// sessions and tests can be deterministic.
type Generator struct {
	rng *rand.Rand
	now func() time.Time
}

// NewGenerator creates a Generator.
func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng, now: time.Now}
}

// WithClock overrides the issue timestamp source. Used by tests.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds a fresh challenge of the given type and difficulty.
// Difficulty starts at 1 and scales the payload size and reward.
func (g *Generator) Generate(t Type, difficulty int) *Challenge {
	if difficulty < 1 {
		difficulty = 1
	}
	c := &Challenge{
		ID:         uuid.NewString(),
		Type:       t,
		Difficulty: difficulty,
		Reward:     rewardFor(difficulty),
		TimeLimit:  timeLimitFor(difficulty),
		IssuedAt:   g.now(),
	}

	switch t {
	case TypeSequence:
		g.buildSequence(c)
	case TypeFactorization:
		g.buildFactorization(c)
	case TypeHashPrefix:
		g.buildHashPrefix(c)
	case TypePattern:
		g.buildPattern(c)
	case TypeAllocation:
		g.buildAllocation(c)
	case TypePrediction:
		g.buildPrediction(c)
	case TypeArbitrage:
		g.buildArbitrage(c)
	case TypeProbability:
		g.buildProbability(c)
	case TypeFractal:
		g.buildFractal(c)
	case TypeCipher:
		g.buildCipher(c)
	}
	return c
}

func rewardFor(difficulty int) float64 {
	d := difficulty
	if d > 10 {
		d = 10
	}
	return 1.02 + 0.01*float64(d)
}

func timeLimitFor(difficulty int) time.Duration {
	d := difficulty
	if d > 6 {
		d = 6
	}
	return 90*time.Second + time.Duration(d)*30*time.Second
}

func (g *Generator) buildSequence(c *Challenge) {
	d := c.Difficulty
	var terms []int64
	switch g.rng.Intn(3) {
	case 0: // arithmetic
		start := int64(1 + g.rng.Intn(10*d))
		step := int64(1 + g.rng.Intn(3*d))
		for i := int64(0); i < 5; i++ {
			terms = append(terms, start+i*step)
		}
		c.exact = strconv.FormatInt(start+5*step, 10)
	case 1: // geometric
		start := int64(1 + g.rng.Intn(4))
		ratio := int64(2 + g.rng.Intn(2))
		v := start
		for i := 0; i < 5; i++ {
			terms = append(terms, v)
			v *= ratio
		}
		c.exact = strconv.FormatInt(v, 10)
	default: // fibonacci-like
		a := int64(1 + g.rng.Intn(4+d))
		b := int64(1 + g.rng.Intn(4+d))
		for i := 0; i < 5; i++ {
			terms = append(terms, a)
			a, b = b, a+b
		}
		c.exact = strconv.FormatInt(a, 10)
	}
	parts := make([]string, len(terms))
	for i, v := range terms {
		parts[i] = strconv.FormatInt(v, 10)
	}
	c.kind = answerExact
	c.Prompt = fmt.Sprintf("Complete the sequence: %s, ?", strings.Join(parts, ", "))
}

func (g *Generator) buildFactorization(c *Challenge) {
	lo := 10 * c.Difficulty
	hi := 100 * c.Difficulty
	primes := primesBetween(lo, hi)
	if len(primes) < 2 {
		primes = primesBetween(10, 100)
	}
	p := primes[g.rng.Intn(len(primes))]
	q := primes[g.rng.Intn(len(primes))]
	n := int64(p) * int64(q)

	c.kind = answerPredicate
	c.Prompt = fmt.Sprintf("Factor %d into two primes (answer as \"p,q\")", n)
	c.check = func(candidate string) bool {
		a, b, ok := parsePair(candidate)
		if !ok {
			return false
		}
		return a > 1 && b > 1 && a*b == n && isPrime(a) && isPrime(b)
	}
}

func (g *Generator) buildHashPrefix(c *Challenge) {
	zeros := 1 + (c.Difficulty+1)/2
	if zeros > 4 {
		zeros = 4
	}
	payload := make([]byte, 8)
	g.rng.Read(payload)
	prefix := hex.EncodeToString(payload)
	target := strings.Repeat("0", zeros)

	c.kind = answerPredicate
	c.Prompt = fmt.Sprintf("Find a suffix s such that sha256(%q + s) starts with %q in hex", prefix, target)
	c.check = func(candidate string) bool {
		sum := sha256.Sum256([]byte(prefix + strings.TrimSpace(candidate)))
		return strings.HasPrefix(hex.EncodeToString(sum[:]), target)
	}
}

func (g *Generator) buildPattern(c *Challenge) {
	const letters = "ABCDEFGH"
	unitLen := 2 + c.Difficulty%3
	unit := make([]byte, unitLen)
	for i := range unit {
		unit[i] = letters[g.rng.Intn(len(letters))]
	}
	shown := strings.Repeat(string(unit), 3)

	c.kind = answerExact
	c.exact = string(unit)
	c.Prompt = fmt.Sprintf("Pattern: %s. What are the next %d characters?", shown, unitLen)
}

func (g *Generator) buildAllocation(c *Challenge) {
	budget := float64(1000 * c.Difficulty)
	type offer struct {
		sym   string
		price float64
	}
	pool := []string{"FIBON", "VIGNR", "MANDL", "ECHO", "GAUSS", "ORACL"}
	g.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	offers := make([]offer, 4)
	lines := make([]string, 4)
	prices := make(map[string]float64, 4)
	for i := range offers {
		offers[i] = offer{sym: pool[i], price: 10 + 190*g.rng.Float64()}
		prices[offers[i].sym] = offers[i].price
		lines[i] = fmt.Sprintf("%s @ %.2f", offers[i].sym, offers[i].price)
	}

	c.kind = answerPredicate
	c.Prompt = fmt.Sprintf(
		"Allocate a budget of %.2f across at least two of [%s] without exceeding it (answer as \"SYM:QTY,SYM:QTY\")",
		budget, strings.Join(lines, ", "))
	c.check = func(candidate string) bool {
		total := 0.0
		seen := map[string]bool{}
		for _, part := range strings.Split(candidate, ",") {
			kv := strings.SplitN(strings.TrimSpace(part), ":", 2)
			if len(kv) != 2 {
				return false
			}
			sym := strings.ToUpper(strings.TrimSpace(kv[0]))
			qty, err := strconv.ParseInt(strings.TrimSpace(kv[1]), 10, 64)
			if err != nil || qty < 1 {
				return false
			}
			price, ok := prices[sym]
			if !ok || seen[sym] {
				return false
			}
			seen[sym] = true
			total += float64(qty) * price
		}
		return len(seen) >= 2 && total <= budget
	}
}

func (g *Generator) buildPrediction(c *Challenge) {
	growth := 1.01 + 0.08*g.rng.Float64()
	v := 50 + 100*g.rng.Float64()
	parts := make([]string, 6)
	for i := 0; i < 6; i++ {
		parts[i] = fmt.Sprintf("%.2f", v)
		v *= growth
	}

	c.kind = answerNumeric
	c.numeric = v
	c.tolerance = 0.05 * v
	c.Prompt = fmt.Sprintf("A price series grows by a fixed rate: %s. Predict the next value.", strings.Join(parts, ", "))
}

func (g *Generator) buildArbitrage(c *Challenge) {
	nodes := []string{"A", "B", "C", "D", "E"}
	n := 3 + c.Difficulty
	if n > len(nodes) {
		n = len(nodes)
	}
	nodes = nodes[:n]

	rates := make(map[string]map[string]float64, n)
	for _, from := range nodes {
		rates[from] = make(map[string]float64, n-1)
	}
	for i, from := range nodes {
		for _, to := range nodes[i+1:] {
			r := 0.5 + 1.5*g.rng.Float64()
			rates[from][to] = r
			rates[to][from] = (1 / r) * 0.98 // spread
		}
	}
	// Plant one profitable 3-cycle.
	cycle := []string{nodes[0], nodes[1], nodes[2]}
	profit := 1.05 + 0.05*g.rng.Float64()
	rates[cycle[0]][cycle[1]] = 1.0
	rates[cycle[1]][cycle[2]] = 1.0
	rates[cycle[2]][cycle[0]] = profit

	var lines []string
	for _, from := range nodes {
		tos := make([]string, 0, n-1)
		for _, to := range nodes {
			if to == from {
				continue
			}
			tos = append(tos, fmt.Sprintf("%s=%.4f", to, rates[from][to]))
		}
		sort.Strings(tos)
		lines = append(lines, fmt.Sprintf("%s: {%s}", from, strings.Join(tos, ", ")))
	}

	c.kind = answerPredicate
	c.Prompt = fmt.Sprintf(
		"Find a cyclic conversion path with product > 1.01 (answer as \"A->B->C->A\"). Rates:\n%s",
		strings.Join(lines, "\n"))
	c.check = func(candidate string) bool {
		hops := strings.Split(strings.ToUpper(strings.ReplaceAll(candidate, " ", "")), "->")
		if len(hops) < 4 || hops[0] != hops[len(hops)-1] {
			return false
		}
		product := 1.0
		for i := 0; i+1 < len(hops); i++ {
			rate, ok := rates[hops[i]][hops[i+1]]
			if !ok {
				return false
			}
			product *= rate
		}
		return product > 1.01
	}
}

func (g *Generator) buildProbability(c *Challenge) {
	n := 4 + c.Difficulty
	if n > 12 {
		n = 12
	}
	m := n/2 + g.rng.Intn(n/2+1)

	// P(at least m heads in n fair flips)
	prob := 0.0
	for k := m; k <= n; k++ {
		prob += binomial(n, k)
	}
	prob /= math.Pow(2, float64(n))

	c.kind = answerNumeric
	c.numeric = prob
	c.tolerance = 0.01
	c.Prompt = fmt.Sprintf("What is the probability of at least %d heads in %d fair coin flips? (within 0.01)", m, n)
}

func (g *Generator) buildFractal(c *Challenge) {
	// L-system: A -> AB, B -> A
	depth := 4 + c.Difficulty
	if depth > 10 {
		depth = 10
	}
	s := "A"
	for i := 0; i < depth; i++ {
		var next strings.Builder
		for _, r := range s {
			if r == 'A' {
				next.WriteString("AB")
			} else {
				next.WriteString("A")
			}
		}
		s = next.String()
	}
	const tail = 4
	shown, hidden := s[:len(s)-tail], s[len(s)-tail:]

	c.kind = answerExact
	c.exact = hidden
	c.Prompt = fmt.Sprintf("The string grows by the rules A->AB, B->A. Complete the last %d characters: %s…", tail, shown)
}

var cipherWords = []string{
	"PATTERN", "MARKET", "SIGNAL", "LEDGER", "CIPHER", "ORACLE",
	"FRACTAL", "SEQUENCE", "ARBITRAGE", "QUANT", "RUNE", "ECHO",
}

func (g *Generator) buildCipher(c *Challenge) {
	words := 2 + c.Difficulty/2
	if words > 4 {
		words = 4
	}
	parts := make([]string, words)
	for i := range parts {
		parts[i] = cipherWords[g.rng.Intn(len(cipherWords))]
	}
	plaintext := strings.Join(parts, " ")

	key := []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	g.rng.Shuffle(len(key), func(i, j int) { key[i], key[j] = key[j], key[i] })
	encrypt := func(s string) string {
		out := []byte(strings.ToUpper(s))
		for i, b := range out {
			if b >= 'A' && b <= 'Z' {
				out[i] = key[b-'A']
			}
		}
		return string(out)
	}
	ciphertext := encrypt(plaintext)

	c.kind = answerPredicate
	c.Prompt = fmt.Sprintf("Recover the plaintext of the substitution cipher: %q", ciphertext)
	c.check = func(candidate string) bool {
		return encrypt(strings.TrimSpace(candidate)) == ciphertext
	}
}

// parsePair reads two integers separated by a comma, space or "x".
func parsePair(s string) (int64, int64, bool) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == 'x' || r == '*'
	})
	if len(fields) != 2 {
		return 0, 0, false
	}
	a, errA := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
	b, errB := strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 64)
	if errA != nil || errB != nil {
		return 0, 0, false
	}
	return a, b, true
}

func isPrime(n int64) bool {
	if n < 2 {
		return false
	}
	for i := int64(2); i*i <= n; i++ {
		if n%i == 0 {
			return false
		}
	}
	return true
}

func primesBetween(lo, hi int) []int {
	var out []int
	for n := lo; n <= hi; n++ {
		if isPrime(int64(n)) {
			out = append(out, n)
		}
	}
	return out
}

func binomial(n, k int) float64 {
	if k < 0 || k > n {
		return 0
	}
	res := 1.0
	for i := 1; i <= k; i++ {
		res = res * float64(n-k+i) / float64(i)
	}
	return res
}
