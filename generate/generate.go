// Package generate samples new sequences from trained context models.
//
// Sampling walks the raw next-symbol counts of the current context in the
// order the model first saw them. The smoothing parameter of the model is
// not used, so only continuations that occurred in the training data are
// produced while the context is known.
package generate

import (
	"errors"

	"github.com/egonelbre/exp-fcm/fcm"
)

// ErrEmptyModel is returned when there is nothing to sample from.
var ErrEmptyModel = errors.New("generate: model has no symbols")

// Rand is the source of randomness used for sampling; *rand.Rand
// implements it.
type Rand interface {
	// Float64 returns a number in [0, 1).
	Float64() float64
	// Intn returns a number in [0, n).
	Intn(n int) int
}

// Option configures a Generator.
type Option[S comparable] func(*options[S])

type options[S comparable] struct {
	fallback    S
	hasFallback bool
}

// WithFallback emits s whenever the current context was never seen.
// Without it a symbol is drawn uniformly from the observed alphabet.
func WithFallback[S comparable](s S) Option[S] {
	return func(o *options[S]) {
		o.fallback = s
		o.hasFallback = true
	}
}

// Generator emits symbols one at a time from a single model.
type Generator[S comparable] struct {
	model   *fcm.Model[S]
	rng     Rand
	opts    options[S]
	context *fcm.Window[S]
}

// New returns a generator over model. The model must not be trained while
// the generator is in use.
func New[S comparable](model *fcm.Model[S], rng Rand, opts ...Option[S]) (*Generator[S], error) {
	g := &Generator[S]{
		model:   model,
		rng:     rng,
		context: fcm.NewWindow[S](model.Order()),
	}
	for _, opt := range opts {
		opt(&g.opts)
	}
	if model.AlphabetSize() == 0 && !g.opts.hasFallback {
		return nil, ErrEmptyModel
	}
	return g, nil
}

// Seed replaces the context with the last k symbols of prior, or all of
// prior when it is shorter.
func (g *Generator[S]) Seed(prior []S) {
	g.context.Reset(prior)
}

// Context returns a copy of the current context.
func (g *Generator[S]) Context() []S { return append([]S(nil), g.context.Symbols()...) }

// Next samples one symbol and appends it to the context.
func (g *Generator[S]) Next() S {
	s := g.sample()
	g.context.Push(s)
	return s
}

func (g *Generator[S]) sample() S {
	var next []fcm.Count[S]
	if g.context.Full() {
		next = g.model.Distribution(g.context.Symbols())
	}

	var total uint64
	for _, c := range next {
		total += c.Count
	}
	if total > 0 {
		threshold := g.rng.Float64()
		var cumulative float64
		for _, c := range next {
			cumulative += float64(c.Count) / float64(total)
			if threshold <= cumulative {
				return c.Symbol
			}
		}
	}
	return g.fallback()
}

func (g *Generator[S]) fallback() S {
	if g.opts.hasFallback {
		return g.opts.fallback
	}
	symbols := g.model.Symbols()
	return symbols[g.rng.Intn(len(symbols))]
}

// Generate seeds the generator with prior and returns prior followed by n
// generated symbols.
func (g *Generator[S]) Generate(prior []S, n int) []S {
	g.Seed(prior)
	out := make([]S, 0, len(prior)+n)
	out = append(out, prior...)
	for i := 0; i < n; i++ {
		out = append(out, g.Next())
	}
	return out
}
