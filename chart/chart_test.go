package chart

import (
	"bytes"
	"errors"
	"image/png"
	"math"
	"testing"
)

func TestRenderLayout(t *testing.T) {
	series := []Series{
		{Name: "a", Values: []float64{1, 2, 3, 2, 1}},
		{Name: "b", Values: []float64{0.5, math.Inf(1), 4}},
		{Name: "c", Values: []float64{2}},
		{Name: "empty"},
	}
	opts := DefaultOptions()
	m, err := Render(series, opts)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := m.Bounds().Dx(), 3*opts.PanelWidth; got != want {
		t.Errorf("width %d, expected %d", got, want)
	}
	if got, want := m.Bounds().Dy(), 2*opts.PanelHeight; got != want {
		t.Errorf("height %d, expected %d", got, want)
	}

	// the first panel must contain part of the profile line
	var colored int
	for y := 0; y < opts.PanelHeight; y++ {
		for x := labelW; x < opts.PanelWidth; x++ {
			r, g, b, _ := m.At(x, y).RGBA()
			if b > r && b > g {
				colored++
			}
		}
	}
	if colored == 0 {
		t.Error("no profile line drawn")
	}
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	opts := Options{Columns: 2, PanelWidth: 200, PanelHeight: 100, Ceiling: 8}
	if err := WritePNG(&buf, []Series{{Name: "x", Values: []float64{1, 9, 3}}}, opts); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 100 {
		t.Errorf("unexpected bounds %v", img.Bounds())
	}
}

func TestRenderErrors(t *testing.T) {
	if _, err := Render(nil, DefaultOptions()); !errors.Is(err, ErrNoSeries) {
		t.Errorf("expected ErrNoSeries, got %v", err)
	}
	if _, err := Render([]Series{{Name: "x"}}, Options{Columns: 0, PanelWidth: 200, PanelHeight: 100}); err == nil {
		t.Error("expected layout error")
	}
}
