package source

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func TestParseUnit(t *testing.T) {
	for _, name := range []string{"char", "WORD", "byte"} {
		_, err := ParseUnit(name)
		assert.NoError(t, err, name)
	}
	_, err := ParseUnit("sentence")
	assert.ErrorIs(t, err, ErrUnknownUnit)
}

func TestTextUnits(t *testing.T) {
	assert.Equal(t, []rune("héllo"), Runes("héllo"))
	assert.Equal(t, []string{"the", "cat", "sat"}, Words("  the\tcat\nsat "))

	path := filepath.Join(t.TempDir(), "text.txt")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o644))

	text, err := ReadText(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", text)

	data, err := ReadBytes(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)
}

func writeWAV(t *testing.T, path string, rate, depth, channels int, data []int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	enc := wav.NewEncoder(f, rate, depth, channels, wavPCM)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: depth,
	}))
	require.NoError(t, enc.Close())
}

func TestReadWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeWAV(t, path, 8000, 16, 2, []int{0, 16384, -16384, -32768, 32767, 0})

	a, err := ReadWAV(path)
	require.NoError(t, err)
	assert.Equal(t, 8000, a.SampleRate)
	assert.Equal(t, 2, a.Channels)
	assert.Equal(t, 16, a.BitDepth)

	want := []float64{0, 0.5, -0.5, -1, 32767.0 / 32768, 0}
	require.Len(t, a.Samples, len(want))
	for i := range want {
		assert.InDelta(t, want[i], a.Samples[i], 1e-12, "sample %d", i)
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	_, err := DecodeWAV(bytes.NewReader([]byte("definitely not a riff file")))
	assert.ErrorIs(t, err, ErrUnsupportedAudio)
}

func TestReadImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	img.SetGray(1, 1, color.Gray{Y: 200})

	dir := t.TempDir()
	encoders := map[string]func(*os.File) error{
		"a.png": func(f *os.File) error { return png.Encode(f, img) },
		"a.bmp": func(f *os.File) error { return bmp.Encode(f, img) },
	}
	for name, encode := range encoders {
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		require.NoError(t, err)
		require.NoError(t, encode(f))
		require.NoError(t, f.Close())

		got, err := ReadImage(path)
		require.NoError(t, err, name)
		assert.Equal(t, image.Rect(0, 0, 2, 2), got.Bounds(), name)
		gray := color.GrayModel.Convert(got.At(1, 1)).(color.Gray)
		assert.Equal(t, uint8(200), gray.Y, name)
	}

	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("nope"), 0o644))
	_, err := ReadImage(bad)
	assert.ErrorIs(t, err, image.ErrFormat)
}
