package arithcode

import (
	"errors"
	"io"
)

// Decoder reads symbols from a stream written by Encoder. The models must be
// used in the same order as during encoding.
type Decoder struct {
	bits  bitReader
	low   uint64
	high  uint64
	value uint64
}

// NewDecoder creates a decoder reading from r. Streams shorter than the
// coder state are padded with zero bits.
func NewDecoder(r io.Reader) (*Decoder, error) {
	d := &Decoder{bits: bitReader{r: r}, high: top}
	for i := 0; i < precision; i++ {
		bit, err := d.bits.read()
		if err != nil {
			return nil, err
		}
		d.value = d.value<<1 | uint64(bit)
	}
	if d.bits.consumed == 0 {
		return nil, io.ErrUnexpectedEOF
	}
	return d, nil
}

// Decode returns the next symbol under model.
func (d *Decoder) Decode(model Model) (int, error) {
	total := model.TotalFreq()
	width := d.high - d.low + 1
	symbol := model.Find(((d.value-d.low+1)*total - 1) / width)

	lo, hi := model.Freq(symbol)
	d.high = d.low + width*hi/total - 1
	d.low += width * lo / total

	for {
		var shift uint64
		switch {
		case d.high < half:
		case d.low >= half:
			shift = half
		case d.low >= quarter && d.high < 3*quarter:
			shift = quarter
		default:
			return symbol, nil
		}
		d.low -= shift
		d.high -= shift
		d.value -= shift

		bit, err := d.bits.read()
		if err != nil {
			return 0, err
		}
		d.low = d.low << 1 & top
		d.high = d.high<<1&top | 1
		d.value = d.value<<1&top | uint64(bit)
	}
}

// bitReader unpacks bytes most significant bit first. Past the end of the
// input it yields zero bits.
type bitReader struct {
	r        io.Reader
	buf      [1]byte
	n        int
	eof      bool
	consumed int
}

func (b *bitReader) read() (byte, error) {
	if b.n == 0 {
		if b.eof {
			return 0, nil
		}
		if _, err := io.ReadFull(b.r, b.buf[:]); err != nil {
			if errors.Is(err, io.EOF) {
				b.eof = true
				return 0, nil
			}
			return 0, err
		}
		b.consumed++
		b.n = 8
	}
	b.n--
	return b.buf[0] >> b.n & 1, nil
}
