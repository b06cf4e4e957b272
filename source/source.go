// Package source reads the inputs that models are trained on: text as
// characters, words or raw bytes, WAV audio and raster images.
package source

import (
	"errors"
	"fmt"
	"image"
	"os"
	"strings"

	// image formats accepted by ReadImage
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnknownUnit is returned by ParseUnit.
var ErrUnknownUnit = errors.New("source: unknown unit")

// Unit selects how text is split into symbols.
type Unit string

const (
	Char Unit = "char"
	Word Unit = "word"
	Byte Unit = "byte"
)

// ParseUnit validates a unit name.
func ParseUnit(s string) (Unit, error) {
	switch u := Unit(strings.ToLower(s)); u {
	case Char, Word, Byte:
		return u, nil
	}
	return "", fmt.Errorf("%w %q (expected char, word or byte)", ErrUnknownUnit, s)
}

// Runes splits text into characters. Invalid UTF-8 becomes U+FFFD.
func Runes(text string) []rune { return []rune(text) }

// Words splits text on white space.
func Words(text string) []string { return strings.Fields(text) }

// ReadText reads the whole file at path as text.
func ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadBytes reads the whole file at path.
func ReadBytes(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// ReadImage decodes a PNG, JPEG, GIF, BMP, TIFF or WebP image.
func ReadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}
