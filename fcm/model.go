// Package fcm implements adaptive finite-context models.
//
// A Model counts how often each symbol follows each context of a fixed
// order k and turns the counts into smoothed probabilities. The same model
// serves characters, words, bytes and quantized audio or pixel levels: the
// symbol type is a type parameter and a Codec gives each symbol a binary
// form so that contexts can be used as map keys.
//
// Training is online and single-pass. Scoring and sampling only read the
// model, so a trained model can be shared between goroutines as long as
// nobody trains it at the same time.
package fcm

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidOrder is returned for a context order below 1.
	ErrInvalidOrder = errors.New("fcm: order must be at least 1")
	// ErrInvalidAlpha is returned for a negative or NaN smoothing factor.
	ErrInvalidAlpha = errors.New("fcm: alpha must be a non-negative number")
)

// Count is the number of times Symbol followed a context.
type Count[S comparable] struct {
	Symbol S
	Count  uint64
}

// entry holds the next-symbol counts of a single context.
// Symbols are kept in first-seen order so that sampling and persistence are
// deterministic.
type entry[S comparable] struct {
	context []S
	next    []Count[S]
	index   map[S]int
	total   uint64
}

func (e *entry[S]) add(s S, n uint64) {
	i, ok := e.index[s]
	if !ok {
		i = len(e.next)
		e.index[s] = i
		e.next = append(e.next, Count[S]{Symbol: s})
	}
	e.next[i].Count += n
	e.total += n
}

func (e *entry[S]) count(s S) uint64 {
	if i, ok := e.index[s]; ok {
		return e.next[i].Count
	}
	return 0
}

// Option configures a Model.
type Option func(*options)

type options struct {
	maxContexts int
}

// WithMaxContexts caps the number of distinct contexts in the count table.
// Once the cap is reached, counts are still added to known contexts but new
// contexts are ignored. The default is unbounded.
func WithMaxContexts(n int) Option {
	return func(o *options) { o.maxContexts = n }
}

// Model is an adaptive order-k context model over symbols of type S.
type Model[S comparable] struct {
	order int
	alpha float64
	codec Codec[S]
	opts  options

	window *Window[S]

	// symbols is the observed alphabet in first-seen order.
	symbols []S
	seen    map[S]struct{}

	table map[string]*entry[S]
	// keys lists table keys in insertion order.
	keys []string
}

// New creates an empty model of the given order and smoothing factor.
func New[S comparable](order int, alpha float64, codec Codec[S], opts ...Option) (*Model[S], error) {
	if order < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidOrder, order)
	}
	if alpha < 0 || math.IsNaN(alpha) || math.IsInf(alpha, 0) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidAlpha, alpha)
	}
	if codec == nil {
		panic("codec must not be nil")
	}
	m := &Model[S]{
		order:  order,
		alpha:  alpha,
		codec:  codec,
		window: NewWindow[S](order),
		seen:   make(map[S]struct{}),
		table:  make(map[string]*entry[S]),
	}
	for _, opt := range opts {
		opt(&m.opts)
	}
	return m, nil
}

// Order returns the context length k.
func (m *Model[S]) Order() int { return m.order }

// Alpha returns the smoothing factor.
func (m *Model[S]) Alpha() float64 { return m.alpha }

// Codec returns the symbol codec used for context keys.
func (m *Model[S]) Codec() Codec[S] { return m.codec }

// Train feeds the next symbol of a stream.
//
// When the rolling context already holds k symbols, s is counted against
// that context and the oldest symbol is dropped. s is then appended, so it
// becomes part of the context for the following symbol. Nothing is counted
// before k symbols have been seen.
func (m *Model[S]) Train(s S) {
	m.see(s)
	if m.window.Full() {
		if e := m.entryFor(m.window.Symbols(), true); e != nil {
			e.add(s, 1)
		}
	}
	m.window.Push(s)
}

// TrainAll trains every symbol of seq in order.
func (m *Model[S]) TrainAll(seq []S) {
	for _, s := range seq {
		m.Train(s)
	}
}

// Observe counts s against an explicitly supplied context. It is used by
// context strategies that do not follow a 1-D stream, such as 2-D
// neighborhoods. The rolling window is not touched.
func (m *Model[S]) Observe(ctx []S, s S) {
	m.see(s)
	if e := m.entryFor(ctx, true); e != nil {
		e.add(s, 1)
	}
}

func (m *Model[S]) see(s S) {
	if _, ok := m.seen[s]; ok {
		return
	}
	m.seen[s] = struct{}{}
	m.symbols = append(m.symbols, s)
}

func (m *Model[S]) key(dst []byte, ctx []S) []byte {
	for _, s := range ctx {
		dst = m.codec.Append(dst, s)
	}
	return dst
}

// entryFor finds the table entry for ctx, creating it when create is set
// and the capacity allows.
func (m *Model[S]) entryFor(ctx []S, create bool) *entry[S] {
	var buf [64]byte
	key := m.key(buf[:0], ctx)
	if e, ok := m.table[string(key)]; ok {
		return e
	}
	if !create {
		return nil
	}
	if m.opts.maxContexts > 0 && len(m.table) >= m.opts.maxContexts {
		return nil
	}
	e := &entry[S]{
		context: append([]S(nil), ctx...),
		index:   make(map[S]int),
	}
	k := string(key)
	m.table[k] = e
	m.keys = append(m.keys, k)
	return e
}

// Probability returns the smoothed probability of s following ctx:
//
//	(count(ctx, s) + alpha) / (total(ctx) + alpha*V)
//
// where V is the number of distinct symbols observed so far. V grows while
// the model trains. When the denominator is zero the probability is 0.
func (m *Model[S]) Probability(ctx []S, s S) float64 {
	var count, total float64
	if e := m.entryFor(ctx, false); e != nil {
		count = float64(e.count(s))
		total = float64(e.total)
	}
	denom := total + m.alpha*float64(len(m.symbols))
	if denom == 0 {
		return 0
	}
	return (count + m.alpha) / denom
}

// Count returns how often s followed ctx.
func (m *Model[S]) Count(ctx []S, s S) uint64 {
	if e := m.entryFor(ctx, false); e != nil {
		return e.count(s)
	}
	return 0
}

// Total returns the number of symbols counted after ctx.
func (m *Model[S]) Total(ctx []S) uint64 {
	if e := m.entryFor(ctx, false); e != nil {
		return e.total
	}
	return 0
}

// Distribution returns the raw next-symbol counts of ctx in first-seen
// order. The returned slice must not be modified.
func (m *Model[S]) Distribution(ctx []S) []Count[S] {
	if e := m.entryFor(ctx, false); e != nil {
		return e.next
	}
	return nil
}

// Symbols returns the observed alphabet in first-seen order.
func (m *Model[S]) Symbols() []S { return append([]S(nil), m.symbols...) }

// AlphabetSize returns the number of distinct observed symbols.
func (m *Model[S]) AlphabetSize() int { return len(m.symbols) }

// Contexts returns the number of entries in the count table.
func (m *Model[S]) Contexts() int { return len(m.table) }

// Window returns a copy of the rolling training context.
func (m *Model[S]) Window() []S { return append([]S(nil), m.window.Symbols()...) }

// Each calls fn for every context in insertion order.
func (m *Model[S]) Each(fn func(ctx []S, next []Count[S])) {
	for _, k := range m.keys {
		e := m.table[k]
		fn(e.context, e.next)
	}
}
