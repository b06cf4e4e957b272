package fcm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"
)

// Codec converts symbols to and from their binary and text forms.
//
// The binary form must be self-delimiting: concatenated encodings of a
// context are used as the context's map key, so two different symbol
// sequences must never produce the same bytes.
type Codec[S comparable] interface {
	// Append appends the binary encoding of s to dst.
	Append(dst []byte, s S) []byte
	// Read decodes one symbol from the front of src and returns the
	// number of bytes consumed.
	Read(src []byte) (S, int, error)
	// Format returns the human readable form of s.
	Format(s S) string
	// Parse is the inverse of Format.
	Parse(text string) (S, error)
}

var errShortSymbol = errors.New("truncated symbol")

// Runes encodes characters as UTF-8.
var Runes Codec[rune] = runeCodec{}

// Bytes encodes raw bytes.
var Bytes Codec[byte] = byteCodec{}

// Words encodes words as a length-prefixed string.
var Words Codec[string] = wordCodec{}

// Levels encodes quantized audio or pixel levels as varints.
var Levels Codec[int] = levelCodec{}

type runeCodec struct{}

func (runeCodec) Append(dst []byte, r rune) []byte { return utf8.AppendRune(dst, r) }

func (runeCodec) Read(src []byte) (rune, int, error) {
	if len(src) == 0 {
		return 0, 0, errShortSymbol
	}
	r, n := utf8.DecodeRune(src)
	if r == utf8.RuneError && n == 1 {
		return 0, 0, fmt.Errorf("invalid utf-8 symbol %x", src[0])
	}
	return r, n, nil
}

func (runeCodec) Format(r rune) string { return string(r) }

func (runeCodec) Parse(text string) (rune, error) {
	r, n := utf8.DecodeRuneInString(text)
	if n == 0 || n != len(text) {
		return 0, fmt.Errorf("%q is not a single character", text)
	}
	return r, nil
}

type byteCodec struct{}

func (byteCodec) Append(dst []byte, b byte) []byte { return append(dst, b) }

func (byteCodec) Read(src []byte) (byte, int, error) {
	if len(src) == 0 {
		return 0, 0, errShortSymbol
	}
	return src[0], 1, nil
}

func (byteCodec) Format(b byte) string { return strconv.Itoa(int(b)) }

func (byteCodec) Parse(text string) (byte, error) {
	v, err := strconv.ParseUint(text, 10, 8)
	if err != nil {
		return 0, err
	}
	return byte(v), nil
}

type wordCodec struct{}

func (wordCodec) Append(dst []byte, w string) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(w)))
	return append(dst, w...)
}

func (wordCodec) Read(src []byte) (string, int, error) {
	size, n := binary.Uvarint(src)
	if n <= 0 {
		return "", 0, errShortSymbol
	}
	end := uint64(n) + size
	if end > uint64(len(src)) {
		return "", 0, errShortSymbol
	}
	return string(src[n:end]), int(end), nil
}

func (wordCodec) Format(w string) string { return w }

func (wordCodec) Parse(text string) (string, error) { return text, nil }

type levelCodec struct{}

func (levelCodec) Append(dst []byte, v int) []byte { return binary.AppendVarint(dst, int64(v)) }

func (levelCodec) Read(src []byte) (int, int, error) {
	v, n := binary.Varint(src)
	if n <= 0 {
		return 0, 0, errShortSymbol
	}
	return int(v), n, nil
}

func (levelCodec) Format(v int) string { return strconv.Itoa(v) }

func (levelCodec) Parse(text string) (int, error) { return strconv.Atoi(text) }
