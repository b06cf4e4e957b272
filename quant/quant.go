// Package quant maps continuous signals onto a small number of discrete
// levels so that they can be modeled as symbols.
package quant

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidLevels is returned for a level count outside the supported range.
var ErrInvalidLevels = errors.New("quant: invalid number of levels")

const (
	// MaxPixelLevels is the largest level count for 8-bit image data.
	MaxPixelLevels = 256
	// MaxAudioLevels is the largest level count for audio samples.
	MaxAudioLevels = 256
)

// Validate checks that levels lies in [1, limit].
func Validate(levels, limit int) error {
	if levels < 1 || levels > limit {
		return fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidLevels, levels, limit)
	}
	return nil
}

// Sample quantizes an audio sample in [-1, 1] into one of levels buckets.
// Out of range samples are clamped to the first or last bucket.
func Sample(x float64, levels int) int {
	q := int(math.Floor((x + 1) / 2 * float64(levels)))
	return min(max(q, 0), levels-1)
}

// Samples quantizes every sample of xs.
func Samples(xs []float64, levels int) []int {
	out := make([]int, len(xs))
	for i, x := range xs {
		out[i] = Sample(x, levels)
	}
	return out
}

// Pixel quantizes an 8-bit intensity into one of levels buckets.
func Pixel(v uint8, levels int) int {
	return int(v) * levels / 256
}

// NRC normalizes an information content by the cost of coding n symbols
// without a model:
//
//	bits / (n * log2(levels))
//
// It is used for quantized audio and images. When the denominator is zero
// (no symbols or a single level) the result is 0.
func NRC(bits float64, n, levels int) float64 {
	denom := float64(n) * math.Log2(float64(levels))
	if denom <= 0 {
		return 0
	}
	return bits / denom
}
