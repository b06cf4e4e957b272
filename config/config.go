// Package config holds the tunable parameters of the fcm tool.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/egonelbre/exp-fcm/ncd"
	"github.com/egonelbre/exp-fcm/quant"
	"github.com/egonelbre/exp-fcm/source"
	"github.com/egonelbre/exp-fcm/spatial"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid config")

// Mode selects the similarity metric.
type Mode string

const (
	// NRC scores candidates under a model trained on the query.
	NRC Mode = "nrc"
	// NCD compares candidates with the query through a compressor.
	NCD Mode = "ncd"
)

// Config is the on-disk configuration.
type Config struct {
	Model    ModelConfig    `yaml:"model"`
	Image    ImageConfig    `yaml:"image"`
	Audio    AudioConfig    `yaml:"audio"`
	Compare  CompareConfig  `yaml:"compare"`
	Generate GenerateConfig `yaml:"generate"`
}

// ModelConfig configures context models.
type ModelConfig struct {
	Order int     `yaml:"order"`
	Alpha float64 `yaml:"alpha"`
	Unit  string  `yaml:"unit"`
	// MaxContexts caps the count table, zero is unbounded.
	MaxContexts int `yaml:"max_contexts"`
}

// ImageConfig configures image comparisons.
type ImageConfig struct {
	Levels int     `yaml:"levels"`
	Gamma  float64 `yaml:"gamma"`
	Orders []int   `yaml:"orders"`
}

// AudioConfig configures audio comparisons.
type AudioConfig struct {
	Levels int `yaml:"levels"`
}

// CompareConfig configures corpus ranking.
type CompareConfig struct {
	Mode       Mode    `yaml:"mode"`
	Compressor string  `yaml:"compressor"`
	TopK       int     `yaml:"top_k"`
	Threshold  float64 `yaml:"threshold"`
	Workers    int     `yaml:"workers"`
	Marker     string  `yaml:"marker"`
}

// GenerateConfig configures sampling.
type GenerateConfig struct {
	Length int   `yaml:"length"`
	Seed   int64 `yaml:"seed"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Order: 3,
			Alpha: 0.01,
			Unit:  string(source.Char),
		},
		Image: ImageConfig{
			Levels: 16,
			Gamma:  0.9,
			Orders: spatial.Orders(),
		},
		Audio: AudioConfig{
			Levels: 256,
		},
		Compare: CompareConfig{
			Mode:       NRC,
			Compressor: "gz",
			TopK:       20,
			Threshold:  0.5,
			Workers:    4,
			Marker:     "@",
		},
		Generate: GenerateConfig{
			Length: 500,
			Seed:   1,
		},
	}
}

// Load reads configuration from a YAML file on top of the defaults and
// applies environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies FCM_ORDER, FCM_ALPHA, FCM_COMPRESSOR and
// FCM_WORKERS.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("FCM_ORDER"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FCM_ORDER: %w", err)
		}
		c.Model.Order = n
	}
	if v := os.Getenv("FCM_ALPHA"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("FCM_ALPHA: %w", err)
		}
		c.Model.Alpha = f
	}
	if v := os.Getenv("FCM_COMPRESSOR"); v != "" {
		c.Compare.Compressor = v
	}
	if v := os.Getenv("FCM_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FCM_WORKERS: %w", err)
		}
		c.Compare.Workers = n
	}
	return nil
}

// Validate checks every parameter before any work starts.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Model.Order <= 0 {
		fail("model.order must be positive, got %d", c.Model.Order)
	}
	if c.Model.Alpha < 0 || math.IsNaN(c.Model.Alpha) || math.IsInf(c.Model.Alpha, 0) {
		fail("model.alpha must be a finite non-negative number, got %v", c.Model.Alpha)
	}
	if _, err := source.ParseUnit(c.Model.Unit); err != nil {
		fail("model.unit: %v", err)
	}
	if c.Model.MaxContexts < 0 {
		fail("model.max_contexts must not be negative, got %d", c.Model.MaxContexts)
	}

	if err := quant.Validate(c.Image.Levels, quant.MaxPixelLevels); err != nil {
		fail("image.levels: %v", err)
	}
	if !(c.Image.Gamma > 0 && c.Image.Gamma <= 1) {
		fail("image.gamma must be in (0, 1], got %v", c.Image.Gamma)
	}
	for _, order := range c.Image.Orders {
		if !slices.Contains(spatial.Orders(), order) {
			fail("image.orders: unsupported order %d (supported: %v)", order, spatial.Orders())
		}
	}
	if err := quant.Validate(c.Audio.Levels, quant.MaxAudioLevels); err != nil {
		fail("audio.levels: %v", err)
	}

	switch c.Compare.Mode {
	case NRC, NCD:
	default:
		fail("compare.mode must be %q or %q, got %q", NRC, NCD, c.Compare.Mode)
	}
	if !slices.Contains(ncd.Tags(), c.Compare.Compressor) {
		fail("compare.compressor: %w %q (supported: %v)", ncd.ErrUnknownCompressor, c.Compare.Compressor, ncd.Tags())
	}
	if c.Compare.Workers < 0 {
		fail("compare.workers must not be negative, got %d", c.Compare.Workers)
	}
	if len([]rune(c.Compare.Marker)) != 1 {
		fail("compare.marker must be a single character, got %q", c.Compare.Marker)
	}
	if c.Generate.Length < 0 {
		fail("generate.length must not be negative, got %d", c.Generate.Length)
	}

	return errors.Join(errs...)
}

// MarkerRune returns the corpus record marker.
func (c *Config) MarkerRune() rune {
	for _, r := range c.Compare.Marker {
		return r
	}
	return '@'
}
