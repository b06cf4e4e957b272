package ncd

import (
	"math"

	"github.com/egonelbre/exp-fcm/fcm"
)

// FromSizes applies the NCD formula to precomputed sizes. Two empty blobs
// are at distance 0.
func FromSizes(cx, cy, cxy float64) float64 {
	hi := math.Max(cx, cy)
	if hi == 0 {
		return 0
	}
	return (cxy - math.Min(cx, cy)) / hi
}

// Distance returns NCD(x, y) under the oracle.
func Distance(o Oracle, x, y []byte) (float64, error) {
	cx, err := o.Size(x)
	if err != nil {
		return 0, err
	}
	cy, err := o.Size(y)
	if err != nil {
		return 0, err
	}
	xy := make([]byte, 0, len(x)+len(y))
	xy = append(append(xy, x...), y...)
	cxy, err := o.Size(xy)
	if err != nil {
		return 0, err
	}
	return FromSizes(float64(cx), float64(cy), float64(cxy)), nil
}

// Query caches the compressed size of a fixed blob that is compared against
// many candidates.
type Query struct {
	oracle Oracle
	data   []byte
	size   int
}

// NewQuery compresses x once.
func NewQuery(o Oracle, x []byte) (*Query, error) {
	size, err := o.Size(x)
	if err != nil {
		return nil, err
	}
	return &Query{oracle: o, data: x, size: size}, nil
}

// Distance returns NCD(query, y).
func (q *Query) Distance(y []byte) (float64, error) {
	cy, err := q.oracle.Size(y)
	if err != nil {
		return 0, err
	}
	xy := make([]byte, 0, len(q.data)+len(y))
	xy = append(append(xy, q.data...), y...)
	cxy, err := q.oracle.Size(xy)
	if err != nil {
		return 0, err
	}
	return FromSizes(float64(q.size), float64(cy), float64(cxy)), nil
}

// ModelSize returns the bits an adaptive context model spends on seq when
// it learns the sequence while predicting it. It replaces the compressed
// size when the distance is computed with context models instead of a
// compressor.
func ModelSize[S comparable](seq []S, order int, alpha float64, codec fcm.Codec[S]) (float64, error) {
	m, err := fcm.New(order, alpha, codec)
	if err != nil {
		return 0, err
	}
	return m.TrainCost(seq), nil
}

// ModelDistance returns the NCD of x and y with C(s) = ModelSize(s).
func ModelDistance[S comparable](x, y []S, order int, alpha float64, codec fcm.Codec[S]) (float64, error) {
	cx, err := ModelSize(x, order, alpha, codec)
	if err != nil {
		return 0, err
	}
	cy, err := ModelSize(y, order, alpha, codec)
	if err != nil {
		return 0, err
	}
	xy := make([]S, 0, len(x)+len(y))
	xy = append(append(xy, x...), y...)
	cxy, err := ModelSize(xy, order, alpha, codec)
	if err != nil {
		return 0, err
	}
	return FromSizes(cx, cy, cxy), nil
}
