package spatial

import (
	"errors"
	"fmt"

	"github.com/egonelbre/exp-fcm/fcm"
)

// ErrUnsupportedOrder is returned for a neighborhood order without an
// offset table.
var ErrUnsupportedOrder = errors.New("spatial: unsupported neighborhood order")

// offset is a (row, column) displacement relative to the current pixel.
type offset struct{ dr, dc int }

// offsets lists the neighbors of each supported order. Every order extends
// the previous one.
var offsets = map[int][]offset{
	2: {{-1, 0}, {0, -1}},
	4: {{-1, 0}, {0, -1}, {-1, -1}, {-1, 1}},
	6: {{-1, 0}, {0, -1}, {-1, -1}, {-1, 1}, {-2, 0}, {0, -2}},
}

// Orders returns the supported neighborhood orders in ascending order.
func Orders() []int { return []int{2, 4, 6} }

// Neighborhood is the causal context strategy for grids.
type Neighborhood struct {
	order   int
	offsets []offset
}

// NewNeighborhood returns the neighborhood of the given order (2, 4 or 6).
func NewNeighborhood(order int) (Neighborhood, error) {
	offs, ok := offsets[order]
	if !ok {
		return Neighborhood{}, fmt.Errorf("%w: %d", ErrUnsupportedOrder, order)
	}
	return Neighborhood{order: order, offsets: offs}, nil
}

// Order returns the number of neighbors in the context.
func (n Neighborhood) Order() int { return n.order }

// Context appends the context of pixel (r, c) to dst. Neighbors outside the
// grid are replaced by the value of the pixel itself.
func (n Neighborhood) Context(dst []int, g *Grid, r, c int) []int {
	self := g.At(r, c)
	for _, o := range n.offsets {
		rr, cc := r+o.dr, c+o.dc
		if g.Inside(rr, cc) {
			dst = append(dst, g.At(rr, cc))
		} else {
			dst = append(dst, self)
		}
	}
	return dst
}

// NewModel creates an empty model whose order matches the neighborhood.
func (n Neighborhood) NewModel(alpha float64) (*fcm.Model[int], error) {
	return fcm.New(n.order, alpha, fcm.Levels)
}

// Train counts every pixel of g against its neighborhood, in row-major order.
func (n Neighborhood) Train(m *fcm.Model[int], g *Grid) {
	ctx := make([]int, 0, n.order)
	for r := 0; r < g.Height; r++ {
		for c := 0; c < g.Width; c++ {
			ctx = n.Context(ctx[:0], g, r, c)
			m.Observe(ctx, g.At(r, c))
		}
	}
}

// InformationContent returns the bits needed to code g with a single model
// trained by this neighborhood.
func (n Neighborhood) InformationContent(m *fcm.Model[int], g *Grid) float64 {
	ctx := make([]int, 0, n.order)
	var total float64
	for r := 0; r < g.Height; r++ {
		for c := 0; c < g.Width; c++ {
			ctx = n.Context(ctx[:0], g, r, c)
			total += fcm.Bits(m.Probability(ctx, g.At(r, c)))
		}
	}
	return total
}
