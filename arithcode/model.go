// Package arithcode implements arithmetic coding for data compression.
// Arithmetic coding is an entropy encoding technique that represents
// messages as fractional values, achieving compression rates close to
// the information content assigned by the probability model.
//
// The package is used as a real compressor next to the general purpose
// codecs: EncodeBytes codes a byte stream with adaptive order-k context
// models, so its output size is a measurable compressed size.
package arithcode

// Model defines the interface for probability models used in arithmetic coding.
// A model provides the probability distribution for symbols in the data stream.
type Model interface {
	// SymbolCount returns the total number of possible symbols in this model.
	SymbolCount() int

	// Freq returns the cumulative frequency range [low, high) for the given symbol.
	// The range is relative to the total frequency returned by TotalFreq().
	// Returns (low, high) where 0 <= low < high <= TotalFreq().
	Freq(symbol int) (low, high uint64)

	// TotalFreq returns the sum of all symbol frequencies.
	TotalFreq() uint64

	// Find returns the symbol corresponding to the given cumulative frequency.
	// The cumFreq must be in range [0, TotalFreq()).
	Find(cumFreq uint64) int
}

// UniformModel implements a model where all symbols have equal probability.
type UniformModel struct {
	numSymbols int
}

// NewUniformModel creates a uniform probability model with the given number of symbols.
func NewUniformModel(numSymbols int) *UniformModel {
	if numSymbols <= 0 {
		panic("numSymbols must be positive")
	}
	return &UniformModel{numSymbols: numSymbols}
}

func (m *UniformModel) SymbolCount() int {
	return m.numSymbols
}

func (m *UniformModel) Freq(symbol int) (low, high uint64) {
	if symbol < 0 || symbol >= m.numSymbols {
		panic("symbol out of range")
	}
	return uint64(symbol), uint64(symbol + 1)
}

func (m *UniformModel) TotalFreq() uint64 {
	return uint64(m.numSymbols)
}

func (m *UniformModel) Find(cumFreq uint64) int {
	if cumFreq >= uint64(m.numSymbols) {
		panic("cumFreq out of range")
	}
	return int(cumFreq)
}

const (
	// adaptiveIncrement is added to a symbol's frequency on every update.
	adaptiveIncrement = 32
	// adaptiveLimit is the total above which all frequencies are halved,
	// keeping the model responsive and well inside the coder precision.
	adaptiveLimit = 1 << 16
)

// AdaptiveModel is a frequency model that learns while coding. Every symbol
// starts with frequency 1. The encoder and the decoder must call Update with
// the same symbols in the same order.
//
// Cumulative frequencies are kept in a Fenwick tree, so Freq, Find and
// Update are O(log n).
type AdaptiveModel struct {
	freqs []uint64
	tree  []uint64 // 1-based Fenwick tree over freqs
	total uint64
	top   int // highest power of two <= len(freqs)
}

// NewAdaptiveModel creates an adaptive model over numSymbols symbols.
func NewAdaptiveModel(numSymbols int) *AdaptiveModel {
	if numSymbols <= 0 {
		panic("numSymbols must be positive")
	}
	m := &AdaptiveModel{
		freqs: make([]uint64, numSymbols),
		tree:  make([]uint64, numSymbols+1),
		top:   1,
	}
	for m.top*2 <= numSymbols {
		m.top *= 2
	}
	for i := range m.freqs {
		m.freqs[i] = 1
	}
	m.rebuild()
	return m
}

func (m *AdaptiveModel) SymbolCount() int {
	return len(m.freqs)
}

func (m *AdaptiveModel) Freq(symbol int) (low, high uint64) {
	if symbol < 0 || symbol >= len(m.freqs) {
		panic("symbol out of range")
	}
	low = m.prefix(symbol)
	return low, low + m.freqs[symbol]
}

func (m *AdaptiveModel) TotalFreq() uint64 {
	return m.total
}

func (m *AdaptiveModel) Find(cumFreq uint64) int {
	if cumFreq >= m.total {
		panic("cumFreq out of range")
	}
	pos, rem := 0, cumFreq
	for step := m.top; step > 0; step >>= 1 {
		if next := pos + step; next < len(m.tree) && m.tree[next] <= rem {
			pos = next
			rem -= m.tree[next]
		}
	}
	return pos
}

// Update records an occurrence of symbol.
func (m *AdaptiveModel) Update(symbol int) {
	m.freqs[symbol] += adaptiveIncrement
	m.total += adaptiveIncrement
	for i := symbol + 1; i < len(m.tree); i += i & -i {
		m.tree[i] += adaptiveIncrement
	}
	if m.total > adaptiveLimit {
		for i, f := range m.freqs {
			m.freqs[i] = (f + 1) / 2
		}
		m.rebuild()
	}
}

// prefix returns the sum of the frequencies of symbols [0, i).
func (m *AdaptiveModel) prefix(i int) uint64 {
	var sum uint64
	for ; i > 0; i -= i & -i {
		sum += m.tree[i]
	}
	return sum
}

func (m *AdaptiveModel) rebuild() {
	m.total = 0
	for i := range m.tree {
		m.tree[i] = 0
	}
	for i, f := range m.freqs {
		m.total += f
		m.tree[i+1] += f
		if parent := (i + 1) + ((i + 1) & -(i + 1)); parent < len(m.tree) {
			m.tree[parent] += m.tree[i+1]
		}
	}
}
