// Package chart renders complexity profiles: the information cost of every
// position of a sequence, one panel per sequence in a grid.
package chart

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/raster"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/math/fixed"
)

// ErrNoSeries is returned when there is nothing to draw.
var ErrNoSeries = errors.New("chart: no series")

// Series is a named profile.
type Series struct {
	Name   string
	Values []float64
}

// Options controls the layout.
type Options struct {
	Columns     int
	PanelWidth  int
	PanelHeight int
	// Ceiling is the top of the y axis in bits. Zero uses the largest
	// finite value of each panel. Infinite costs are drawn at the ceiling.
	Ceiling float64
}

// DefaultOptions lays panels out in three columns.
func DefaultOptions() Options {
	return Options{Columns: 3, PanelWidth: 480, PanelHeight: 240}
}

const (
	fontSize = 12
	margin   = 8
	titleH   = 20
	labelW   = 56
)

var (
	lineColor = color.RGBA{0x1f, 0x5f, 0xbf, 0xff}
	axisColor = color.RGBA{0x80, 0x80, 0x80, 0xff}
)

var loadFont = sync.OnceValues(func() (*truetype.Font, error) {
	return freetype.ParseFont(gomono.TTF)
})

// Render draws every series into its own panel.
func Render(series []Series, opts Options) (*image.RGBA, error) {
	if len(series) == 0 {
		return nil, ErrNoSeries
	}
	if opts.Columns <= 0 || opts.PanelWidth <= 2*labelW || opts.PanelHeight <= 2*titleH {
		return nil, fmt.Errorf("chart: invalid layout %+v", opts)
	}
	f, err := loadFont()
	if err != nil {
		return nil, err
	}

	cols := min(opts.Columns, len(series))
	rows := (len(series) + cols - 1) / cols
	m := image.NewRGBA(image.Rect(0, 0, cols*opts.PanelWidth, rows*opts.PanelHeight))
	draw.Draw(m, m.Bounds(), image.White, image.Point{}, draw.Src)

	c := freetype.NewContext()
	c.SetDPI(72)
	c.SetFont(f)
	c.SetFontSize(fontSize)
	c.SetClip(m.Bounds())
	c.SetDst(m)
	c.SetSrc(image.Black)
	c.SetHinting(font.HintingFull)

	for i, s := range series {
		panel := image.Rect(0, 0, opts.PanelWidth, opts.PanelHeight).
			Add(image.Pt((i%cols)*opts.PanelWidth, (i/cols)*opts.PanelHeight))
		if err := drawPanel(m, c, panel, s, opts.Ceiling); err != nil {
			return nil, fmt.Errorf("chart: %s: %w", s.Name, err)
		}
	}
	return m, nil
}

// WritePNG renders series and encodes the result as PNG.
func WritePNG(w io.Writer, series []Series, opts Options) error {
	m, err := Render(series, opts)
	if err != nil {
		return err
	}
	return png.Encode(w, m)
}

func drawPanel(m *image.RGBA, c *freetype.Context, panel image.Rectangle, s Series, ceiling float64) error {
	if ceiling <= 0 {
		ceiling = maxFinite(s.Values)
	}
	if ceiling <= 0 {
		ceiling = 1
	}

	plot := image.Rect(
		panel.Min.X+labelW, panel.Min.Y+titleH+margin,
		panel.Max.X-margin, panel.Max.Y-titleH,
	)

	if _, err := c.DrawString(s.Name, freetype.Pt(panel.Min.X+margin, panel.Min.Y+titleH-4)); err != nil {
		return err
	}
	if _, err := c.DrawString(fmt.Sprintf("%5.1f", ceiling), freetype.Pt(panel.Min.X+margin, plot.Min.Y+fontSize)); err != nil {
		return err
	}
	if _, err := c.DrawString("  0.0", freetype.Pt(panel.Min.X+margin, plot.Max.Y)); err != nil {
		return err
	}
	if _, err := c.DrawString(fmt.Sprintf("n=%d", len(s.Values)), freetype.Pt(plot.Max.X-80, panel.Max.Y-4)); err != nil {
		return err
	}

	var axes raster.Path
	axes.Start(fixed.P(plot.Min.X, plot.Min.Y))
	axes.Add1(fixed.P(plot.Min.X, plot.Max.Y))
	axes.Add1(fixed.P(plot.Max.X, plot.Max.Y))
	stroke(m, axes, 1, axisColor)

	if len(s.Values) == 0 {
		return nil
	}

	var line raster.Path
	for i, v := range s.Values {
		x := float64(plot.Min.X)
		if len(s.Values) > 1 {
			x += float64(i) * float64(plot.Dx()) / float64(len(s.Values)-1)
		}
		switch {
		case math.IsNaN(v) || v > ceiling:
			v = ceiling
		case v < 0:
			v = 0
		}
		y := float64(plot.Max.Y) - v/ceiling*float64(plot.Dy())

		p := fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)}
		if i == 0 {
			line.Start(p)
			if len(s.Values) == 1 {
				line.Add1(fixed.Point26_6{X: fixed.I(plot.Max.X), Y: p.Y})
			}
		} else {
			line.Add1(p)
		}
	}
	stroke(m, line, 1.5, lineColor)
	return nil
}

func stroke(m *image.RGBA, path raster.Path, width float64, col color.Color) {
	b := m.Bounds()
	r := raster.NewRasterizer(b.Dx(), b.Dy())
	raster.Stroke(r, path, fixed.Int26_6(width*64), raster.RoundCapper, raster.RoundJoiner)

	painter := raster.NewRGBAPainter(m)
	painter.SetColor(col)
	r.Rasterize(painter)
}

func maxFinite(values []float64) float64 {
	var hi float64
	for _, v := range values {
		if !math.IsInf(v, 0) && !math.IsNaN(v) && v > hi {
			hi = v
		}
	}
	return hi
}
