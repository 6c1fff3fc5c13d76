package market

// History is a fixed-capacity ring buffer of prices (bounded memory).
// Appending beyond capacity overwrites the oldest entry.
type History struct {
	buf   []float64
	size  int
	start int
	count int
}

// NewHistory creates a History with the given capacity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 1
	}
	return &History{
		buf:  make([]float64, capacity),
		size: capacity,
	}
}

// Append adds a price, evicting the oldest entry when full.
func (h *History) Append(price float64) {
	if h.count < h.size {
		h.buf[(h.start+h.count)%h.size] = price
		h.count++
		return
	}
	// overwrite oldest
	h.buf[h.start] = price
	h.start = (h.start + 1) % h.size
}

// Len returns the number of stored prices.
func (h *History) Len() int { return h.count }

// Cap returns the buffer capacity.
func (h *History) Cap() int { return h.size }

// Last returns the last n prices in chronological order (oldest first).
// Returns a copy, never internal references.
func (h *History) Last(n int) []float64 {
	if n <= 0 || h.count == 0 {
		return nil
	}
	if n > h.count {
		n = h.count
	}
	out := make([]float64, n)
	first := (h.start + (h.count - n)) % h.size
	for i := 0; i < n; i++ {
		out[i] = h.buf[(first+i)%h.size]
	}
	return out
}

// Values returns all stored prices in chronological order.
func (h *History) Values() []float64 {
	return h.Last(h.count)
}
