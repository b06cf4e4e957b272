package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egonelbre/exp-fcm/ncd"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"FCM_ORDER", "FCM_ALPHA", "FCM_COMPRESSOR", "FCM_WORKERS"} {
		t.Setenv(key, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 3, cfg.Model.Order)
	assert.Equal(t, NRC, cfg.Compare.Mode)
	assert.Equal(t, []int{2, 4, 6}, cfg.Image.Orders)
	assert.Equal(t, '@', cfg.MarkerRune())
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "fcm.yaml")

	cfg := DefaultConfig()
	cfg.Model.Order = 5
	cfg.Model.Unit = "word"
	cfg.Image.Orders = []int{4}
	cfg.Compare.Compressor = "xz"
	cfg.Compare.Mode = NCD
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("config mismatch (-saved +loaded):\n%s", diff)
	}
}

func TestConfig_LoadPartial(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "fcm.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model:\n  alpha: 0.5\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Model.Alpha)
	assert.Equal(t, 3, cfg.Model.Order, "unset fields keep their defaults")
}

func TestConfig_LoadMissing(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestConfig_LoadMalformed(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "fcm.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: [1, 2"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("FCM_ORDER", "7")
	t.Setenv("FCM_ALPHA", "0.25")
	t.Setenv("FCM_COMPRESSOR", "bz2")
	t.Setenv("FCM_WORKERS", "9")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Model.Order)
	assert.Equal(t, 0.25, cfg.Model.Alpha)
	assert.Equal(t, "bz2", cfg.Compare.Compressor)
	assert.Equal(t, 9, cfg.Compare.Workers)

	t.Setenv("FCM_ORDER", "three")
	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero order", func(c *Config) { c.Model.Order = 0 }},
		{"negative alpha", func(c *Config) { c.Model.Alpha = -1 }},
		{"unknown unit", func(c *Config) { c.Model.Unit = "sentence" }},
		{"too many image levels", func(c *Config) { c.Image.Levels = 300 }},
		{"zero gamma", func(c *Config) { c.Image.Gamma = 0 }},
		{"unsupported image order", func(c *Config) { c.Image.Orders = []int{2, 3} }},
		{"zero audio levels", func(c *Config) { c.Audio.Levels = 0 }},
		{"unknown mode", func(c *Config) { c.Compare.Mode = "cosine" }},
		{"unknown compressor", func(c *Config) { c.Compare.Compressor = "rar" }},
		{"long marker", func(c *Config) { c.Compare.Marker = ">>" }},
		{"negative length", func(c *Config) { c.Generate.Length = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}

	cfg := DefaultConfig()
	cfg.Compare.Compressor = "rar"
	assert.ErrorIs(t, cfg.Validate(), ncd.ErrUnknownCompressor)
}
