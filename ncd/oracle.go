// Package ncd computes the normalized compression distance between blobs.
//
// The distance only needs the compressed size of a blob, which is supplied
// by an Oracle wrapping a general purpose compressor:
//
//	NCD(x, y) = (C(xy) - min(C(x), C(y))) / max(C(x), C(y))
//
// C(xy) depends on the order of concatenation, so the distance is only
// approximately symmetric.
package ncd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"

	"github.com/egonelbre/exp-fcm/arithcode"
)

// ErrUnknownCompressor is returned by Lookup for an unsupported tag.
var ErrUnknownCompressor = errors.New("ncd: unknown compressor")

// Oracle reports the compressed size of a blob.
//
// Implementations must be safe for concurrent use.
type Oracle interface {
	// Name is the tag the oracle was selected with.
	Name() string
	// Size returns the number of bytes data compresses to.
	Size(data []byte) (int, error)
}

// contextOrder is the byte context order of the "ac" oracle.
const contextOrder = 2

var oracles = map[string]func() (Oracle, error){
	"gz":   func() (Oracle, error) { return streamOracle{name: "gz", open: openGzip}, nil },
	"bz2":  func() (Oracle, error) { return streamOracle{name: "bz2", open: openBzip2}, nil },
	"xz":   func() (Oracle, error) { return streamOracle{name: "xz", open: openXz}, nil },
	"lzma": func() (Oracle, error) { return streamOracle{name: "lzma", open: openLzma}, nil },
	"zstd": func() (Oracle, error) { return newZstdOracle("zstd") },
	"zst":  func() (Oracle, error) { return newZstdOracle("zst") },
	"ac":   func() (Oracle, error) { return acOracle{}, nil },
}

// Tags returns the supported compressor tags in sorted order.
func Tags() []string {
	tags := make([]string, 0, len(oracles))
	for tag := range oracles {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Lookup returns the oracle for a compressor tag.
func Lookup(tag string) (Oracle, error) {
	mk, ok := oracles[tag]
	if !ok {
		return nil, fmt.Errorf("%w %q (supported: %v)", ErrUnknownCompressor, tag, Tags())
	}
	return mk()
}

// streamOracle measures the output of a streaming compressor.
type streamOracle struct {
	name string
	open func(w io.Writer) (io.WriteCloser, error)
}

func (o streamOracle) Name() string { return o.name }

func (o streamOracle) Size(data []byte) (int, error) {
	var buf bytes.Buffer
	w, err := o.open(&buf)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", o.name, err)
	}
	if _, err := w.Write(data); err != nil {
		return 0, fmt.Errorf("%s: %w", o.name, err)
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("%s: %w", o.name, err)
	}
	return buf.Len(), nil
}

func openGzip(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriterLevel(w, gzip.DefaultCompression)
}

func openBzip2(w io.Writer) (io.WriteCloser, error) {
	return bzip2.NewWriter(w, &bzip2.WriterConfig{Level: bzip2.DefaultCompression})
}

func openXz(w io.Writer) (io.WriteCloser, error) {
	return xz.NewWriter(w)
}

func openLzma(w io.Writer) (io.WriteCloser, error) {
	return lzma.NewWriter(w)
}

// zstdOracle compresses whole blobs with a shared encoder; EncodeAll may be
// called concurrently.
type zstdOracle struct {
	name string
	enc  *zstd.Encoder
}

func newZstdOracle(name string) (Oracle, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	return zstdOracle{name: name, enc: enc}, nil
}

func (o zstdOracle) Name() string { return o.name }

func (o zstdOracle) Size(data []byte) (int, error) {
	return len(o.enc.EncodeAll(data, nil)), nil
}

// acOracle codes blobs with adaptive byte context models and an arithmetic
// coder.
type acOracle struct{}

func (acOracle) Name() string { return "ac" }

func (acOracle) Size(data []byte) (int, error) {
	return arithcode.CompressedSize(data, contextOrder)
}
