package source

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"
)

// ErrUnsupportedAudio is returned for WAV files that are not integer PCM.
var ErrUnsupportedAudio = errors.New("source: unsupported audio")

// wavPCM is the WAVE format tag of integer PCM.
const wavPCM = 1

// Audio holds decoded samples normalized to [-1, 1). Channels are kept
// interleaved.
type Audio struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Samples    []float64
}

// ReadWAV decodes the WAV file at path.
func ReadWAV(path string) (*Audio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	a, err := DecodeWAV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// DecodeWAV decodes 8, 16, 24 or 32 bit integer PCM audio.
func DecodeWAV(r io.ReadSeeker) (*Audio, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a WAV file", ErrUnsupportedAudio)
	}
	if dec.WavAudioFormat != wavPCM {
		return nil, fmt.Errorf("%w: format tag %d", ErrUnsupportedAudio, dec.WavAudioFormat)
	}

	depth := int(dec.BitDepth)
	switch depth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d bits per sample", ErrUnsupportedAudio, depth)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, err
	}

	a := &Audio{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   depth,
		Samples:    make([]float64, len(buf.Data)),
	}
	scale := float64(int64(1) << (depth - 1))
	for i, v := range buf.Data {
		if depth == 8 {
			// 8 bit WAV samples are unsigned
			v -= 128
		}
		a.Samples[i] = float64(v) / scale
	}
	return a, nil
}
