package generate

import (
	"errors"
	"fmt"
	"sort"

	"github.com/egonelbre/exp-fcm/fcm"
)

// ErrNoStages is returned by NewMulti without any stage.
var ErrNoStages = errors.New("generate: no stages")

// Stage is a model that takes over once the output holds From symbols.
type Stage[S comparable] struct {
	Model *fcm.Model[S]
	From  int
}

// Multi switches between models of different orders as the output grows,
// typically starting with a low order and moving to higher ones once there
// is enough output to fill their contexts.
type Multi[S comparable] struct {
	stages []*Generator[S]
	from   []int
}

// NewMulti creates a generator over stages. The stages are ordered by From
// and the first one is active from the start regardless of its From.
func NewMulti[S comparable](stages []Stage[S], rng Rand, opts ...Option[S]) (*Multi[S], error) {
	if len(stages) == 0 {
		return nil, ErrNoStages
	}
	sorted := append([]Stage[S](nil), stages...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].From < sorted[j].From })

	m := &Multi[S]{}
	for i, stage := range sorted {
		g, err := New(stage.Model, rng, opts...)
		if err != nil {
			return nil, fmt.Errorf("stage %d (order %d): %w", i, stage.Model.Order(), err)
		}
		m.stages = append(m.stages, g)
		m.from = append(m.from, stage.From)
	}
	return m, nil
}

// active returns the index of the last stage whose From is at most n.
func (m *Multi[S]) active(n int) int {
	i := 0
	for i+1 < len(m.from) && m.from[i+1] <= n {
		i++
	}
	return i
}

// Generate returns prior followed by n generated symbols. Whenever the
// active stage changes, its context is rebuilt from the tail of the output.
func (m *Multi[S]) Generate(prior []S, n int) []S {
	out := make([]S, 0, len(prior)+n)
	out = append(out, prior...)

	current := m.active(len(out))
	m.stages[current].Seed(out)
	for i := 0; i < n; i++ {
		if next := m.active(len(out)); next != current {
			current = next
			m.stages[current].Seed(out)
		}
		out = append(out, m.stages[current].Next())
	}
	return out
}
