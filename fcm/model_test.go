package fcm

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func mustNew[S comparable](t testing.TB, order int, alpha float64, codec Codec[S]) *Model[S] {
	t.Helper()
	m, err := New(order, alpha, codec)
	if err != nil {
		t.Fatalf("New(%d, %v) failed: %v", order, alpha, err)
	}
	return m
}

func TestNewRejectsInvalidParameters(t *testing.T) {
	tests := []struct {
		name  string
		order int
		alpha float64
		want  error
	}{
		{"zero order", 0, 0.1, ErrInvalidOrder},
		{"negative order", -3, 0.1, ErrInvalidOrder},
		{"negative alpha", 2, -0.5, ErrInvalidAlpha},
		{"nan alpha", 2, math.NaN(), ErrInvalidAlpha},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.order, tt.alpha, Runes)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := New(1, 0, Runes); err != nil {
		t.Errorf("alpha 0 should be accepted, got %v", err)
	}
}

func TestTrainTrace(t *testing.T) {
	m := mustNew(t, 2, 0, Runes)
	m.TrainAll([]rune("aabb"))

	if m.Contexts() != 2 {
		t.Fatalf("expected 2 contexts, got %d", m.Contexts())
	}
	if got := m.Count([]rune("aa"), 'b'); got != 1 {
		t.Errorf("count(aa, b) = %d, expected 1", got)
	}
	if got := m.Count([]rune("ab"), 'b'); got != 1 {
		t.Errorf("count(ab, b) = %d, expected 1", got)
	}
	for _, ctx := range []string{"bb", "ba"} {
		if got := m.Total([]rune(ctx)); got != 0 {
			t.Errorf("context %q should not exist, total %d", ctx, got)
		}
	}
	if got := string(m.Window()); got != "bb" {
		t.Errorf("window = %q, expected %q", got, "bb")
	}
	if got := string(m.Symbols()); got != "ab" {
		t.Errorf("symbols = %q, expected %q", got, "ab")
	}
}

func TestTrainShorterThanOrder(t *testing.T) {
	m := mustNew(t, 5, 0.1, Runes)
	m.TrainAll([]rune("abc"))

	if m.Contexts() != 0 {
		t.Errorf("expected no contexts, got %d", m.Contexts())
	}
	if m.AlphabetSize() != 3 {
		t.Errorf("expected 3 observed symbols, got %d", m.AlphabetSize())
	}
	if got := m.InformationContent([]rune("abc")); got != 0 {
		t.Errorf("information content = %v, expected 0", got)
	}
}

func TestProbability(t *testing.T) {
	m := mustNew(t, 1, 0.5, Runes)
	m.TrainAll([]rune("abab"))
	// contexts: a->{b:2}, b->{a:1}; V = 2

	tests := []struct {
		ctx  string
		sym  rune
		want float64
	}{
		{"a", 'b', (2 + 0.5) / (2 + 0.5*2)},
		{"a", 'a', (0 + 0.5) / (2 + 0.5*2)},
		{"b", 'a', (1 + 0.5) / (1 + 0.5*2)},
		{"z", 'a', 0.5 / (0.5 * 2)},
	}
	for _, tt := range tests {
		got := m.Probability([]rune(tt.ctx), tt.sym)
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("P(%c|%s) = %v, expected %v", tt.sym, tt.ctx, got, tt.want)
		}
	}
}

func TestProbabilityUsesObservedAlphabet(t *testing.T) {
	m := mustNew(t, 1, 1, Bytes)
	m.TrainAll([]byte{1, 2})
	before := m.Probability([]byte{9}, 1)

	m.TrainAll([]byte{3, 4, 5})
	after := m.Probability([]byte{9}, 1)

	// unseen context: 1 / V, with V growing from 2 to 5
	if math.Abs(before-0.5) > 1e-12 || math.Abs(after-0.2) > 1e-12 {
		t.Errorf("expected 0.5 then 0.2, got %v then %v", before, after)
	}
}

func TestProbabilityZeroDenominator(t *testing.T) {
	m := mustNew(t, 1, 0, Runes)
	m.TrainAll([]rune("ab"))

	if p := m.Probability([]rune("x"), 'a'); p != 0 {
		t.Errorf("expected 0 for unseen context without smoothing, got %v", p)
	}
	if bits := m.InformationContent([]rune("xa")); !math.IsInf(bits, 1) {
		t.Errorf("expected +Inf bits, got %v", bits)
	}
}

func TestProbabilitySumsToOne(t *testing.T) {
	rng := rand.New(rand.NewSource(12345))

	for trial := 0; trial < 20; trial++ {
		order := 1 + rng.Intn(3)
		alpha := rng.Float64()
		m := mustNew(t, order, alpha, Bytes)

		data := make([]byte, 200+rng.Intn(200))
		for i := range data {
			data[i] = byte(rng.Intn(6))
		}
		m.TrainAll(data)

		m.Each(func(ctx []byte, next []Count[byte]) {
			var sum float64
			for _, s := range m.Symbols() {
				sum += m.Probability(ctx, s)
			}
			if math.Abs(sum-1) > 1e-9 {
				t.Errorf("trial %d: probabilities of context %v sum to %v", trial, ctx, sum)
			}
		})
	}
}

func TestInformationContentNonNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	train := []rune("the quick brown fox jumps over the lazy dog")

	for _, order := range []int{1, 2, 3, 8} {
		for _, alpha := range []float64{0.01, 0.5, 1} {
			m := mustNew(t, order, alpha, Runes)
			m.TrainAll(train)

			seq := make([]rune, rng.Intn(60))
			for i := range seq {
				seq[i] = train[rng.Intn(len(train))]
			}
			if bits := m.InformationContent(seq); bits < 0 || math.IsNaN(bits) {
				t.Errorf("order %d alpha %v: information content %v", order, alpha, bits)
			}
		}
	}
}

func TestProfileMatchesInformationContent(t *testing.T) {
	m := mustNew(t, 2, 0.1, Runes)
	text := []rune("abracadabra abracadabra")
	m.TrainAll(text)

	profile := m.Profile(text)
	if len(profile) != len(text)-2 {
		t.Fatalf("expected %d profile entries, got %d", len(text)-2, len(profile))
	}
	var sum float64
	for _, v := range profile {
		sum += v
	}
	if math.Abs(sum-m.InformationContent(text)) > 1e-9 {
		t.Errorf("profile sum %v != information content %v", sum, m.InformationContent(text))
	}
}

func TestNRC(t *testing.T) {
	m := mustNew(t, 2, 0.1, Runes)
	m.TrainAll([]rune("ACGTACGTACGTTTGA"))

	if got := m.NRC(nil); got != 0 {
		t.Errorf("empty sequence NRC = %v, expected 0", got)
	}

	seq := []rune("ACGTACGA")
	want := m.InformationContent(seq) / (2 * float64(len(seq)))
	if got := m.NRC(seq); math.Abs(got-want) > 1e-12 {
		t.Errorf("NRC = %v, expected %v", got, want)
	}

	similar := m.NRC([]rune("ACGTACGTACGT"))
	different := m.NRC([]rune("GGGGCCCCAAAA"))
	if similar >= different {
		t.Errorf("similar sequence should score lower: %v >= %v", similar, different)
	}
}

func TestTrainCost(t *testing.T) {
	m := mustNew(t, 1, 1, Runes)
	bits := m.TrainCost([]rune("aab"))
	// P(a|a) = 1/1 with only a seen, then P(b|a) = 1/3
	if want := math.Log2(3); math.Abs(bits-want) > 1e-12 {
		t.Errorf("TrainCost = %v, expected %v", bits, want)
	}

	ref := mustNew(t, 1, 1, Runes)
	ref.TrainAll([]rune("aab"))
	if m.Count([]rune("a"), 'a') != ref.Count([]rune("a"), 'a') || m.Total([]rune("a")) != ref.Total([]rune("a")) {
		t.Errorf("TrainCost should leave the same counts as TrainAll")
	}

	// a repeated sequence is cheaper the second time
	text := []rune("the cat sat on the mat ")
	first := mustNew(t, 2, 0.1, Runes).TrainCost(text)
	twice := mustNew(t, 2, 0.1, Runes).TrainCost(append(append([]rune{}, text...), text...))
	if twice-first >= first {
		t.Errorf("second copy cost %v, first %v", twice-first, first)
	}
}

func TestWordModel(t *testing.T) {
	m := mustNew(t, 1, 0.01, Words)
	m.TrainAll([]string{"the", "cat", "sat", "on", "the", "mat"})

	if got := m.Count([]string{"the"}, "cat"); got != 1 {
		t.Errorf("count(the, cat) = %d, expected 1", got)
	}
	if got := m.Total([]string{"the"}); got != 2 {
		t.Errorf("total(the) = %d, expected 2", got)
	}
	// keys must not collide when words are concatenated
	if got := m.Total([]string{"th"}); got != 0 {
		t.Errorf("total(th) = %d, expected 0", got)
	}
}

func TestObserve(t *testing.T) {
	m := mustNew(t, 2, 0, Levels)
	m.Observe([]int{3, 4}, 5)
	m.Observe([]int{3, 4}, 5)
	m.Observe([]int{3, 4}, 6)

	if got := m.Probability([]int{3, 4}, 5); math.Abs(got-2.0/3) > 1e-12 {
		t.Errorf("P(5|3,4) = %v, expected 2/3", got)
	}
	if len(m.Window()) != 0 {
		t.Errorf("Observe should not touch the rolling window")
	}
	if m.AlphabetSize() != 2 {
		t.Errorf("expected alphabet {5, 6}, got %v", m.Symbols())
	}
}

func TestMaxContexts(t *testing.T) {
	m, err := New(1, 0, Runes, WithMaxContexts(2))
	if err != nil {
		t.Fatal(err)
	}
	m.TrainAll([]rune("abcabc"))

	if m.Contexts() != 2 {
		t.Fatalf("expected 2 contexts, got %d", m.Contexts())
	}
	if got := m.Count([]rune("a"), 'b'); got != 2 {
		t.Errorf("count(a, b) = %d, expected 2", got)
	}
	if got := m.Total([]rune("c")); got != 0 {
		t.Errorf("context c should have been refused, total %d", got)
	}
}

func TestDistributionOrder(t *testing.T) {
	m := mustNew(t, 1, 0, Runes)
	m.TrainAll([]rune("xcxaxbxa"))

	dist := m.Distribution([]rune("x"))
	want := []Count[rune]{{'c', 1}, {'a', 2}, {'b', 1}}
	if len(dist) != len(want) {
		t.Fatalf("expected %d entries, got %v", len(want), dist)
	}
	for i := range want {
		if dist[i] != want[i] {
			t.Errorf("entry %d: expected %v, got %v", i, want[i], dist[i])
		}
	}
}

func TestWindow(t *testing.T) {
	w := NewWindow[rune](3)
	for _, r := range "abcde" {
		w.Push(r)
		if w.Len() > 3 {
			t.Fatalf("window grew to %d", w.Len())
		}
	}
	if got := string(w.Symbols()); got != "cde" {
		t.Errorf("window = %q, expected cde", got)
	}

	w.Reset([]rune("xy"))
	if got := string(w.Symbols()); got != "xy" || w.Full() {
		t.Errorf("after short reset window = %q full=%v", got, w.Full())
	}
	w.Reset([]rune("uvwxyz"))
	if got := string(w.Symbols()); got != "xyz" {
		t.Errorf("after long reset window = %q, expected xyz", got)
	}
}
