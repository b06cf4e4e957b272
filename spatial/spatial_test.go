package spatial

import (
	"errors"
	"image"
	"image/color"
	"math"
	"math/rand"
	"testing"
)

func mustRows(t *testing.T, levels int, rows ...[]int) *Grid {
	t.Helper()
	g, err := FromRows(levels, rows...)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestNeighborhoodContext(t *testing.T) {
	g := mustRows(t, 16,
		[]int{1, 2, 3},
		[]int{4, 5, 6},
		[]int{7, 8, 9},
	)

	tests := []struct {
		order int
		r, c  int
		want  []int
	}{
		{2, 1, 1, []int{2, 4}},
		{2, 0, 0, []int{1, 1}},
		{2, 0, 2, []int{3, 2}},
		{4, 1, 1, []int{2, 4, 1, 3}},
		{4, 1, 2, []int{3, 5, 2, 6}}, // north-east falls outside
		{6, 2, 2, []int{6, 8, 5, 9, 3, 7}},
		{6, 1, 1, []int{2, 4, 1, 3, 5, 5}},
	}
	for _, tt := range tests {
		hood, err := NewNeighborhood(tt.order)
		if err != nil {
			t.Fatal(err)
		}
		got := hood.Context(nil, g, tt.r, tt.c)
		if len(got) != len(tt.want) {
			t.Fatalf("order %d (%d,%d): got %v, expected %v", tt.order, tt.r, tt.c, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("order %d (%d,%d): got %v, expected %v", tt.order, tt.r, tt.c, got, tt.want)
				break
			}
		}
	}
}

func TestUnsupportedOrder(t *testing.T) {
	for _, order := range []int{0, 1, 3, 8} {
		if _, err := NewNeighborhood(order); !errors.Is(err, ErrUnsupportedOrder) {
			t.Errorf("order %d: expected ErrUnsupportedOrder, got %v", order, err)
		}
	}
}

func TestNeighborhoodTrain(t *testing.T) {
	g := mustRows(t, 4,
		[]int{0, 0},
		[]int{0, 1},
	)
	hood, _ := NewNeighborhood(2)
	m, err := hood.NewModel(0)
	if err != nil {
		t.Fatal(err)
	}
	hood.Train(m, g)

	// (0,0),(0,1),(1,0) all see context {0,0}; (1,1) sees {0,0} as well
	if got := m.Count([]int{0, 0}, 0); got != 3 {
		t.Errorf("count({0,0}, 0) = %d, expected 3", got)
	}
	if got := m.Count([]int{0, 0}, 1); got != 1 {
		t.Errorf("count({0,0}, 1) = %d, expected 1", got)
	}
	if bits := hood.InformationContent(m, g); bits <= 0 {
		t.Errorf("expected positive information content, got %v", bits)
	}
}

func randomGrid(rng *rand.Rand, width, height, levels int) *Grid {
	g := NewGrid(width, height, levels)
	for i := range g.Pix {
		g.Pix[i] = rng.Intn(levels)
	}
	return g
}

func gradientGrid(width, height, levels int) *Grid {
	g := NewGrid(width, height, levels)
	for r := 0; r < height; r++ {
		for c := 0; c < width; c++ {
			g.Set(r, c, ((r+c)/4)%levels)
		}
	}
	return g
}

func TestMixtureWeightsSumToOne(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	train := gradientGrid(32, 32, 8)
	probe := randomGrid(rng, 16, 16, 8)

	for _, gamma := range []float64{0.1, 0.5, 0.9, 1} {
		mix, err := NewMixture(0.01, gamma)
		if err != nil {
			t.Fatal(err)
		}
		mix.Train(train)

		s := mix.NewScorer()
		for r := 0; r < probe.Height; r++ {
			for c := 0; c < probe.Width; c++ {
				bits := s.Step(probe, r, c)
				if bits < 0 || math.IsNaN(bits) {
					t.Fatalf("gamma %v: bad cost %v at (%d,%d)", gamma, bits, r, c)
				}
				var sum float64
				for _, w := range s.Weights() {
					sum += w
				}
				if math.Abs(sum-1) > 1e-9 {
					t.Fatalf("gamma %v: weights sum to %v at (%d,%d)", gamma, sum, r, c)
				}
			}
		}
	}
}

func TestMixtureWeightsWithoutPrediction(t *testing.T) {
	mix, err := NewMixture(0, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	mix.Train(mustRows(t, 4, []int{0, 0}, []int{0, 0}))

	s := mix.NewScorer()
	probe := mustRows(t, 4, []int{3})
	if bits := s.Step(probe, 0, 0); !math.IsInf(bits, 1) {
		t.Errorf("expected +Inf for an unpredictable pixel, got %v", bits)
	}
	for _, w := range s.Weights() {
		if math.Abs(w-1.0/3) > 1e-12 {
			t.Errorf("weights should reset to uniform, got %v", s.Weights())
		}
	}
}

func TestMixtureRanksSimilarImagesLower(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	query := gradientGrid(40, 40, 16)
	similar := gradientGrid(30, 30, 16)
	noise := randomGrid(rng, 30, 30, 16)

	mix, err := NewMixture(0.01, 0.9)
	if err != nil {
		t.Fatal(err)
	}
	mix.Train(query)

	a, b := mix.NRC(similar), mix.NRC(noise)
	if a >= b {
		t.Errorf("similar image NRC %v should be lower than noise NRC %v", a, b)
	}
	if a <= 0 || b <= 0 {
		t.Errorf("expected positive NRC values, got %v and %v", a, b)
	}
}

func TestMixtureSingleOrderMatchesModel(t *testing.T) {
	g := gradientGrid(12, 12, 8)
	mix, err := NewMixture(0.5, 1, 4)
	if err != nil {
		t.Fatal(err)
	}
	mix.Train(g)

	hood, _ := NewNeighborhood(4)
	want := hood.InformationContent(mix.Model(0), g)
	if got := mix.InformationContent(g); math.Abs(got-want) > 1e-9 {
		t.Errorf("single order mixture = %v, expected %v", got, want)
	}
}

func TestNewMixtureRejectsGamma(t *testing.T) {
	for _, gamma := range []float64{0, -1, 1.5, math.NaN()} {
		if _, err := NewMixture(0.1, gamma); !errors.Is(err, ErrInvalidGamma) {
			t.Errorf("gamma %v: expected ErrInvalidGamma, got %v", gamma, err)
		}
	}
}

func TestFromImage(t *testing.T) {
	img := image.NewGray(image.Rect(10, 20, 13, 22))
	img.SetGray(10, 20, color.Gray{Y: 0})
	img.SetGray(12, 21, color.Gray{Y: 255})
	img.SetGray(11, 20, color.Gray{Y: 128})

	g, err := FromImage(img, 4)
	if err != nil {
		t.Fatal(err)
	}
	if g.Width != 3 || g.Height != 2 {
		t.Fatalf("grid is %dx%d, expected 3x2", g.Width, g.Height)
	}
	if g.At(0, 0) != 0 || g.At(0, 1) != 2 || g.At(1, 2) != 3 {
		t.Errorf("unexpected levels %v", g.Pix)
	}
	if got := g.Bytes(); len(got) != 6 || got[5] != 3 {
		t.Errorf("Bytes() = %v", got)
	}

	if _, err := FromImage(img, 0); err == nil {
		t.Error("expected error for zero levels")
	}
}
