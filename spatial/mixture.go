package spatial

import (
	"errors"
	"fmt"
	"math"

	"github.com/egonelbre/exp-fcm/fcm"
	"github.com/egonelbre/exp-fcm/quant"
)

// ErrInvalidGamma is returned for a forgetting factor outside (0, 1].
var ErrInvalidGamma = errors.New("spatial: gamma must be in (0, 1]")

// Mixture combines context models of several neighborhood orders.
//
// Each order is trained independently on the same grid. When scoring, the
// per-pixel predictions are blended with weights that are updated after
// every pixel as
//
//	w_k = w_k^gamma * p_k, renormalized to sum to 1
//
// so the order that recently predicted best gains trust. Lower gamma
// forgets older performance faster.
type Mixture struct {
	gamma  float64
	hoods  []Neighborhood
	models []*fcm.Model[int]
}

// NewMixture creates untrained models for the given orders. Without orders
// all supported orders are used.
func NewMixture(alpha, gamma float64, orders ...int) (*Mixture, error) {
	if !(gamma > 0 && gamma <= 1) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidGamma, gamma)
	}
	if len(orders) == 0 {
		orders = Orders()
	}
	mix := &Mixture{gamma: gamma}
	for _, order := range orders {
		hood, err := NewNeighborhood(order)
		if err != nil {
			return nil, err
		}
		model, err := hood.NewModel(alpha)
		if err != nil {
			return nil, err
		}
		mix.hoods = append(mix.hoods, hood)
		mix.models = append(mix.models, model)
	}
	return mix, nil
}

// Gamma returns the forgetting factor.
func (mix *Mixture) Gamma() float64 { return mix.gamma }

// Orders returns the neighborhood orders in mixing order.
func (mix *Mixture) Orders() []int {
	orders := make([]int, len(mix.hoods))
	for i, h := range mix.hoods {
		orders[i] = h.Order()
	}
	return orders
}

// Model returns the model of the i-th order.
func (mix *Mixture) Model(i int) *fcm.Model[int] { return mix.models[i] }

// Train trains every order on g.
func (mix *Mixture) Train(g *Grid) {
	for i, hood := range mix.hoods {
		hood.Train(mix.models[i], g)
	}
}

// InformationContent returns the bits needed to code g with the mixed
// prediction. Weights start uniform for every call.
func (mix *Mixture) InformationContent(g *Grid) float64 {
	s := mix.NewScorer()
	var total float64
	for r := 0; r < g.Height; r++ {
		for c := 0; c < g.Width; c++ {
			total += s.Step(g, r, c)
		}
	}
	return total
}

// NRC returns InformationContent(g) / (pixels * log2(levels)).
func (mix *Mixture) NRC(g *Grid) float64 {
	return quant.NRC(mix.InformationContent(g), g.Len(), g.Levels)
}

// Scorer walks a grid pixel by pixel with its own mixing weights. A scorer
// only reads the trained models, so several scorers may run concurrently.
type Scorer struct {
	mix     *Mixture
	weights []float64
	probs   []float64
	ctx     []int
}

// NewScorer returns a scorer with uniform weights.
func (mix *Mixture) NewScorer() *Scorer {
	s := &Scorer{
		mix:     mix,
		weights: make([]float64, len(mix.models)),
		probs:   make([]float64, len(mix.models)),
	}
	s.reset()
	return s
}

func (s *Scorer) reset() {
	for i := range s.weights {
		s.weights[i] = 1 / float64(len(s.weights))
	}
}

// Weights returns the current mixing weights.
func (s *Scorer) Weights() []float64 { return append([]float64(nil), s.weights...) }

// Step updates the weights with the predictions for pixel (r, c) and returns
// the information cost of the pixel under the updated mixture.
func (s *Scorer) Step(g *Grid, r, c int) float64 {
	pixel := g.At(r, c)

	var sum float64
	for i, hood := range s.mix.hoods {
		s.ctx = hood.Context(s.ctx[:0], g, r, c)
		p := s.mix.models[i].Probability(s.ctx, pixel)
		s.probs[i] = p
		s.weights[i] = math.Pow(s.weights[i], s.mix.gamma) * p
		sum += s.weights[i]
	}
	if sum > 0 {
		for i := range s.weights {
			s.weights[i] /= sum
		}
	} else {
		// no order could predict the pixel
		s.reset()
	}

	var mixed float64
	for i, w := range s.weights {
		mixed += w * s.probs[i]
	}
	return fcm.Bits(mixed)
}
