package fcm

// Window is the sliding-window context strategy for 1-D streams.
// It keeps at most the last order symbols that were pushed.
type Window[S comparable] struct {
	order int
	buf   []S
}

// NewWindow creates an empty window holding up to order symbols.
func NewWindow[S comparable](order int) *Window[S] {
	if order <= 0 {
		panic("order must be positive")
	}
	return &Window[S]{order: order, buf: make([]S, 0, order+1)}
}

// Order returns the maximum number of symbols in the window.
func (w *Window[S]) Order() int { return w.order }

// Len returns the number of symbols currently held.
func (w *Window[S]) Len() int { return len(w.buf) }

// Full reports whether the window holds exactly order symbols.
func (w *Window[S]) Full() bool { return len(w.buf) == w.order }

// Push appends s, dropping the oldest symbol when the window overflows.
func (w *Window[S]) Push(s S) {
	w.buf = append(w.buf, s)
	if len(w.buf) > w.order {
		copy(w.buf, w.buf[1:])
		w.buf = w.buf[:w.order]
	}
}

// Reset replaces the window contents with the tail of seed.
func (w *Window[S]) Reset(seed []S) {
	if len(seed) > w.order {
		seed = seed[len(seed)-w.order:]
	}
	w.buf = append(w.buf[:0], seed...)
}

// Symbols returns the current context. The slice is only valid until the
// next Push or Reset.
func (w *Window[S]) Symbols() []S { return w.buf }
