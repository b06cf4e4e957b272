package arithcode

import "io"

// The coder state lives in the low 32 bits of a uint64, which leaves room
// for width*freq products as long as model totals stay below 2^32.
const (
	precision = 32

	top     uint64 = 1<<precision - 1
	half    uint64 = 1 << (precision - 1)
	quarter uint64 = 1 << (precision - 2)
)

// Encoder writes symbols as an arithmetic coded bit stream.
// Each call to Encode may use a different model, which is how context
// models switch their distribution between symbols.
type Encoder struct {
	bits    bitWriter
	low     uint64
	high    uint64
	pending int // underflow bits waiting for the next emitted bit
}

// NewEncoder creates an encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{bits: bitWriter{w: w}, high: top}
}

// Encode narrows the interval to symbol's share of model.
func (e *Encoder) Encode(symbol int, model Model) error {
	lo, hi := model.Freq(symbol)
	total := model.TotalFreq()

	width := e.high - e.low + 1
	e.high = e.low + width*hi/total - 1
	e.low += width * lo / total

	for {
		switch {
		case e.high < half:
			if err := e.emit(0); err != nil {
				return err
			}
		case e.low >= half:
			if err := e.emit(1); err != nil {
				return err
			}
			e.low -= half
			e.high -= half
		case e.low >= quarter && e.high < 3*quarter:
			e.pending++
			e.low -= quarter
			e.high -= quarter
		default:
			return nil
		}
		e.low = e.low << 1 & top
		e.high = e.high<<1&top | 1
	}
}

// emit writes bit followed by the pending underflow bits, which take the
// opposite value.
func (e *Encoder) emit(bit byte) error {
	if err := e.bits.write(bit); err != nil {
		return err
	}
	for ; e.pending > 0; e.pending-- {
		if err := e.bits.write(bit ^ 1); err != nil {
			return err
		}
	}
	return nil
}

// Close writes the bits that select the final interval and flushes the
// last partial byte.
func (e *Encoder) Close() error {
	e.pending++
	var bit byte = 1
	if e.low < quarter {
		bit = 0
	}
	if err := e.emit(bit); err != nil {
		return err
	}
	return e.bits.flush()
}

// Written returns the number of bytes written so far. After Close it is the
// compressed size of the stream.
func (e *Encoder) Written() int { return e.bits.written }

// bitWriter packs bits into bytes, most significant bit first.
type bitWriter struct {
	w       io.Writer
	buf     [1]byte
	n       int
	written int
}

func (b *bitWriter) write(bit byte) error {
	b.buf[0] = b.buf[0]<<1 | bit&1
	b.n++
	if b.n < 8 {
		return nil
	}
	return b.flush()
}

// flush writes the buffered bits, zero padded to a full byte.
func (b *bitWriter) flush() error {
	if b.n == 0 {
		return nil
	}
	b.buf[0] <<= 8 - b.n
	if _, err := b.w.Write(b.buf[:]); err != nil {
		return err
	}
	b.written++
	b.buf[0], b.n = 0, 0
	return nil
}
