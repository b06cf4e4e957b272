package arithcode

import (
	"errors"
	"io"
)

// ErrLength is returned when a stream declares an unreasonable length.
var ErrLength = errors.New("arithcode: invalid stream length")

// maxLengthBytes bounds the length prefix; 10 bytes hold any uint64 varint.
const maxLengthBytes = 10

// contextModels holds one adaptive byte model per order-k context.
type contextModels struct {
	order  int
	models map[string]*AdaptiveModel
	hist   []byte
}

func newContextModels(order int) *contextModels {
	if order < 0 {
		panic("order must not be negative")
	}
	return &contextModels{
		order:  order,
		models: make(map[string]*AdaptiveModel),
		hist:   make([]byte, 0, order+1),
	}
}

// current returns the model for the last order bytes.
func (c *contextModels) current() *AdaptiveModel {
	m, ok := c.models[string(c.hist)]
	if !ok {
		m = NewAdaptiveModel(256)
		c.models[string(c.hist)] = m
	}
	return m
}

func (c *contextModels) push(b byte) {
	if c.order == 0 {
		return
	}
	c.hist = append(c.hist, b)
	if len(c.hist) > c.order {
		copy(c.hist, c.hist[1:])
		c.hist = c.hist[:c.order]
	}
}

// EncodeBytes compresses data with adaptive order-k byte context models and
// writes the result to w. The length of data is stored in front so that
// DecodeBytes knows where to stop.
func EncodeBytes(data []byte, order int, w io.Writer) error {
	_, err := encodeBytes(data, order, w)
	return err
}

func encodeBytes(data []byte, order int, w io.Writer) (int, error) {
	enc := NewEncoder(w)
	byteModel := NewUniformModel(256)

	// Length as variable-length quantity
	length := uint64(len(data))
	for {
		b := byte(length & 0x7F)
		length >>= 7
		if length != 0 {
			b |= 0x80
		}
		if err := enc.Encode(int(b), byteModel); err != nil {
			return 0, err
		}
		if length == 0 {
			break
		}
	}

	ctx := newContextModels(order)
	for _, b := range data {
		m := ctx.current()
		if err := enc.Encode(int(b), m); err != nil {
			return 0, err
		}
		m.Update(int(b))
		ctx.push(b)
	}

	if err := enc.Close(); err != nil {
		return 0, err
	}
	return enc.Written(), nil
}

// DecodeBytes decompresses a stream written by EncodeBytes with the same order.
func DecodeBytes(r io.Reader, order int) ([]byte, error) {
	dec, err := NewDecoder(r)
	if err != nil {
		return nil, err
	}
	byteModel := NewUniformModel(256)

	var length uint64
	for i := 0; ; i++ {
		if i == maxLengthBytes {
			return nil, ErrLength
		}
		symbol, err := dec.Decode(byteModel)
		if err != nil {
			return nil, err
		}
		length |= uint64(symbol&0x7F) << (7 * i)
		if symbol&0x80 == 0 {
			break
		}
	}
	if length > 1<<40 {
		return nil, ErrLength
	}

	ctx := newContextModels(order)
	result := make([]byte, 0, min(length, 1<<20))
	for uint64(len(result)) < length {
		m := ctx.current()
		symbol, err := dec.Decode(m)
		if err != nil {
			return nil, err
		}
		m.Update(symbol)
		ctx.push(byte(symbol))
		result = append(result, byte(symbol))
	}
	return result, nil
}

// CompressedSize returns the size in bytes of EncodeBytes(data, order).
func CompressedSize(data []byte, order int) (int, error) {
	return encodeBytes(data, order, io.Discard)
}
