package fcm

import "math"

// Bits returns the information cost -log2(p) of an event with probability p.
// Impossible events cost +Inf.
func Bits(p float64) float64 {
	if p <= 0 {
		return math.Inf(1)
	}
	return -math.Log2(p)
}

// InformationContent returns the number of bits needed to encode seq.
//
// Every window of k+1 symbols is split into a context and the symbol that
// follows it. The final trained counts are used, so scoring the training
// data itself is optimistic. Sequences of k symbols or fewer cost 0 bits.
func (m *Model[S]) InformationContent(seq []S) float64 {
	var total float64
	for i := 0; i+m.order < len(seq); i++ {
		total += Bits(m.Probability(seq[i:i+m.order], seq[i+m.order]))
	}
	return total
}

// Profile returns the per-position bit costs that InformationContent sums.
func (m *Model[S]) Profile(seq []S) []float64 {
	if len(seq) <= m.order {
		return nil
	}
	profile := make([]float64, 0, len(seq)-m.order)
	for i := 0; i+m.order < len(seq); i++ {
		profile = append(profile, Bits(m.Probability(seq[i:i+m.order], seq[i+m.order])))
	}
	return profile
}

// AverageInformation returns the information content of seq divided by its
// length. An empty sequence has an average of 0.
func (m *Model[S]) AverageInformation(seq []S) float64 {
	if len(seq) == 0 {
		return 0
	}
	return m.InformationContent(seq) / float64(len(seq))
}

// NRC returns the normalized relative compression of seq under the model:
//
//	InformationContent(seq) / (2 * len(seq))
//
// An empty sequence has an NRC of 0.
func (m *Model[S]) NRC(seq []S) float64 {
	if len(seq) == 0 {
		return 0
	}
	return m.InformationContent(seq) / (2 * float64(len(seq)))
}

// TrainCost trains the model on seq and returns the bits spent predicting
// each symbol from the counts gathered before it, the way an adaptive coder
// pays for a stream. Symbols seen before the context is full cost nothing.
func (m *Model[S]) TrainCost(seq []S) float64 {
	var total float64
	for _, s := range seq {
		m.see(s)
		if m.window.Full() {
			total += Bits(m.Probability(m.window.Symbols(), s))
		}
		m.Train(s)
	}
	return total
}
