// Package spatial models 2-D grids of quantized pixels.
//
// Contexts are causal neighborhoods: only pixels that precede the current
// one in row-major order are used, so the context is always known while
// scanning an image left to right, top to bottom. Several neighborhood
// orders can be combined with a Mixture whose weights follow the order that
// has been predicting best.
package spatial

import (
	"fmt"
	"image"
	"image/color"

	"github.com/egonelbre/exp-fcm/quant"
)

// Grid is a rectangular image of quantized levels stored row by row.
type Grid struct {
	Width  int
	Height int
	Levels int
	Pix    []int
}

// NewGrid creates a zeroed grid.
func NewGrid(width, height, levels int) *Grid {
	if width < 0 || height < 0 {
		panic("negative grid size")
	}
	return &Grid{
		Width:  width,
		Height: height,
		Levels: levels,
		Pix:    make([]int, width*height),
	}
}

// FromImage converts img to gray and quantizes every pixel to levels.
func FromImage(img image.Image, levels int) (*Grid, error) {
	if err := quant.Validate(levels, quant.MaxPixelLevels); err != nil {
		return nil, err
	}
	b := img.Bounds()
	g := NewGrid(b.Dx(), b.Dy(), levels)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			g.Set(y-b.Min.Y, x-b.Min.X, quant.Pixel(gray.Y, levels))
		}
	}
	return g, nil
}

// FromRows builds a grid from equally long rows.
func FromRows(levels int, rows ...[]int) (*Grid, error) {
	if len(rows) == 0 {
		return NewGrid(0, 0, levels), nil
	}
	g := NewGrid(len(rows[0]), len(rows), levels)
	for r, row := range rows {
		if len(row) != g.Width {
			return nil, fmt.Errorf("row %d has %d pixels, expected %d", r, len(row), g.Width)
		}
		copy(g.Pix[r*g.Width:], row)
	}
	return g, nil
}

// Len returns the number of pixels.
func (g *Grid) Len() int { return g.Width * g.Height }

// At returns the level at row r, column c.
func (g *Grid) At(r, c int) int { return g.Pix[r*g.Width+c] }

// Set stores a level at row r, column c.
func (g *Grid) Set(r, c, v int) { g.Pix[r*g.Width+c] = v }

// Inside reports whether (r, c) lies within the grid.
func (g *Grid) Inside(r, c int) bool {
	return r >= 0 && r < g.Height && c >= 0 && c < g.Width
}

// Bytes returns the pixels in row-major order, one byte per pixel. It is the
// blob handed to general purpose compressors.
func (g *Grid) Bytes() []byte {
	out := make([]byte, len(g.Pix))
	for i, v := range g.Pix {
		out[i] = byte(v)
	}
	return out
}
