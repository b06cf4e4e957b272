package fcm

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the binary model format. The layout is plain protobuf
// wire format so that standard tooling (protoc --decode_raw) can inspect it.
const (
	fieldOrder   protowire.Number = 1
	fieldAlpha   protowire.Number = 2
	fieldSymbol  protowire.Number = 3
	fieldWindow  protowire.Number = 4
	fieldContext protowire.Number = 5

	// inside a context message
	fieldContextKey  protowire.Number = 1
	fieldContextNext protowire.Number = 2

	// inside a next-symbol message
	fieldNextSymbol protowire.Number = 1
	fieldNextCount  protowire.Number = 2
)

// AppendBinary appends the binary encoding of the model to dst.
func AppendBinary[S comparable](dst []byte, m *Model[S]) []byte {
	snap := m.snapshot()

	dst = protowire.AppendTag(dst, fieldOrder, protowire.VarintType)
	dst = protowire.AppendVarint(dst, uint64(snap.order))
	dst = protowire.AppendTag(dst, fieldAlpha, protowire.Fixed64Type)
	dst = protowire.AppendFixed64(dst, math.Float64bits(snap.alpha))

	var scratch []byte
	for _, s := range snap.symbols {
		scratch = m.codec.Append(scratch[:0], s)
		dst = protowire.AppendTag(dst, fieldSymbol, protowire.BytesType)
		dst = protowire.AppendBytes(dst, scratch)
	}
	if len(snap.window) > 0 {
		dst = protowire.AppendTag(dst, fieldWindow, protowire.BytesType)
		dst = protowire.AppendBytes(dst, m.key(nil, snap.window))
	}

	var ctxbuf, nextbuf []byte
	for _, c := range snap.contexts {
		ctxbuf = protowire.AppendTag(ctxbuf[:0], fieldContextKey, protowire.BytesType)
		ctxbuf = protowire.AppendBytes(ctxbuf, m.key(scratch[:0], c.context))
		for _, n := range c.next {
			nextbuf = protowire.AppendTag(nextbuf[:0], fieldNextSymbol, protowire.BytesType)
			nextbuf = protowire.AppendBytes(nextbuf, m.codec.Append(scratch[:0], n.Symbol))
			nextbuf = protowire.AppendTag(nextbuf, fieldNextCount, protowire.VarintType)
			nextbuf = protowire.AppendVarint(nextbuf, n.Count)

			ctxbuf = protowire.AppendTag(ctxbuf, fieldContextNext, protowire.BytesType)
			ctxbuf = protowire.AppendBytes(ctxbuf, nextbuf)
		}
		dst = protowire.AppendTag(dst, fieldContext, protowire.BytesType)
		dst = protowire.AppendBytes(dst, ctxbuf)
	}
	return dst
}

// ReadBinary decodes a model written by AppendBinary.
func ReadBinary[S comparable](data []byte, codec Codec[S]) (*Model[S], error) {
	var snap snapshot[S]
	var haveOrder, haveAlpha bool

	err := walk(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldOrder && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return n, nil
			}
			if v > math.MaxInt32 {
				return 0, fmt.Errorf("order %d out of range", v)
			}
			snap.order, haveOrder = int(v), true
			return n, nil
		case num == fieldAlpha && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			snap.alpha, haveAlpha = math.Float64frombits(v), true
			return n, nil
		case num == fieldSymbol && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			s, used, err := codec.Read(v)
			if err != nil {
				return 0, err
			}
			if used != len(v) {
				return 0, fmt.Errorf("trailing bytes after symbol")
			}
			snap.symbols = append(snap.symbols, s)
			return n, nil
		case num == fieldWindow && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			w, err := readSymbols(v, codec)
			if err != nil {
				return 0, err
			}
			snap.window = w
			return n, nil
		case num == fieldContext && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			c, err := readContext(v, codec)
			if err != nil {
				return 0, err
			}
			snap.contexts = append(snap.contexts, c)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptModel, err)
	}
	if !haveOrder || !haveAlpha {
		return nil, fmt.Errorf("%w: missing order or alpha", ErrCorruptModel)
	}
	return restore(snap, codec)
}

func readContext[S comparable](data []byte, codec Codec[S]) (contextSnapshot[S], error) {
	var c contextSnapshot[S]
	err := walk(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ != protowire.BytesType {
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return n, nil
		}
		switch num {
		case fieldContextKey:
			ctx, err := readSymbols(v, codec)
			if err != nil {
				return 0, err
			}
			c.context = ctx
		case fieldContextNext:
			next, err := readNext(v, codec)
			if err != nil {
				return 0, err
			}
			c.next = append(c.next, next)
		}
		return n, nil
	})
	return c, err
}

func readNext[S comparable](data []byte, codec Codec[S]) (Count[S], error) {
	var c Count[S]
	var haveSymbol bool
	err := walk(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldNextSymbol && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			s, used, err := codec.Read(v)
			if err != nil {
				return 0, err
			}
			if used != len(v) {
				return 0, fmt.Errorf("trailing bytes after symbol")
			}
			c.Symbol, haveSymbol = s, true
			return n, nil
		case num == fieldNextCount && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			c.Count = v
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	if err == nil && !haveSymbol {
		err = fmt.Errorf("count without symbol")
	}
	return c, err
}

func readSymbols[S comparable](data []byte, codec Codec[S]) ([]S, error) {
	var out []S
	for len(data) > 0 {
		s, n, err := codec.Read(data)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
		data = data[n:]
	}
	return out, nil
}

// walk iterates over the fields of a protobuf message. fn consumes the
// field value and returns the number of bytes used, or a negative
// protowire error code.
func walk(data []byte, fn func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]

		m, err := fn(num, typ, data)
		if err != nil {
			return err
		}
		if m < 0 {
			return protowire.ParseError(m)
		}
		data = data[m:]
	}
	return nil
}
