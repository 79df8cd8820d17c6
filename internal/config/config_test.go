// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Backend.Name != "auto" {
		t.Errorf("Backend.Name = %q, want %q", cfg.Backend.Name, "auto")
	}
	if cfg.Data.Count != 8 {
		t.Errorf("Data.Count = %d, want 8", cfg.Data.Count)
	}
	if cfg.Kernel.Mode != KernelInline {
		t.Errorf("Kernel.Mode = %q, want %q", cfg.Kernel.Mode, KernelInline)
	}
	if cfg.Kernel.EntryPoint != "add_arrays" {
		t.Errorf("Kernel.EntryPoint = %q, want %q", cfg.Kernel.EntryPoint, "add_arrays")
	}
	if cfg.ExitZeroOnFailure {
		t.Error("ExitZeroOnFailure should default to false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Defaults().Validate() = %v", err)
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	cfg, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if cfg.Data.Count != Defaults().Data.Count {
		t.Errorf("Data.Count = %d, want default", cfg.Data.Count)
	}
}

func TestLoadFromFile_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addarrays.yaml")
	yml := `
backend:
  name: software
  workers: 2
kernel:
  mode: file
  path: kernels/add_arrays.wgsl
data:
  count: 3
  fill: values
  a: [1, 2, 3]
  b: [10, 20, 30]
logging:
  level: debug
exit_zero_on_failure: true
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if cfg.Backend.Name != "software" || cfg.Backend.Workers != 2 {
		t.Errorf("Backend = %+v", cfg.Backend)
	}
	if cfg.Kernel.Mode != KernelFile || cfg.Kernel.Path != "kernels/add_arrays.wgsl" {
		t.Errorf("Kernel = %+v", cfg.Kernel)
	}
	// Unset keys keep their defaults.
	if cfg.Kernel.EntryPoint != "add_arrays" {
		t.Errorf("Kernel.EntryPoint = %q, want default", cfg.Kernel.EntryPoint)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format = %q, want default", cfg.Logging.Format)
	}
	if !slices.Equal(cfg.Data.B, []uint32{10, 20, 30}) {
		t.Errorf("Data.B = %v", cfg.Data.B)
	}
	if !cfg.ExitZeroOnFailure {
		t.Error("ExitZeroOnFailure = false, want true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadFromFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("data: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := LoadFromFile(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Errorf("LoadFromFile() error = %v, want parse error", err)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("ADDARRAYS_BACKEND", "native")
	t.Setenv("ADDARRAYS_COUNT", "16")
	t.Setenv("ADDARRAYS_SPIRV", "yes")
	t.Setenv("ADDARRAYS_FILL", "random")
	t.Setenv("ADDARRAYS_SEED", "42")
	t.Setenv("ADDARRAYS_A", "1, 2,3")
	t.Setenv("ADDARRAYS_WORKERS", "not-a-number")
	t.Setenv("ADDARRAYS_LOG_FORMAT", "json")

	cfg := Defaults()
	ApplyEnv(cfg)

	if cfg.Backend.Name != "native" {
		t.Errorf("Backend.Name = %q, want native", cfg.Backend.Name)
	}
	if cfg.Data.Count != 16 {
		t.Errorf("Data.Count = %d, want 16", cfg.Data.Count)
	}
	if !cfg.Backend.SPIRV {
		t.Error("Backend.SPIRV = false, want true")
	}
	if cfg.Data.Fill != FillRandom || cfg.Data.Seed != 42 {
		t.Errorf("Data fill = %q seed = %d", cfg.Data.Fill, cfg.Data.Seed)
	}
	if !slices.Equal(cfg.Data.A, []uint32{1, 2, 3}) {
		t.Errorf("Data.A = %v, want [1 2 3]", cfg.Data.A)
	}
	if cfg.Backend.Workers != 0 {
		t.Errorf("Backend.Workers = %d, want unparsable value ignored", cfg.Backend.Workers)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want json", cfg.Logging.Format)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Setenv("ADDARRAYS_CONFIG", "")
	if got := FindConfigFile(); got != DefaultFile {
		t.Errorf("FindConfigFile() = %q, want %q", got, DefaultFile)
	}
	t.Setenv("ADDARRAYS_CONFIG", "/etc/addarrays.yaml")
	if got := FindConfigFile(); got != "/etc/addarrays.yaml" {
		t.Errorf("FindConfigFile() = %q", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string // substring; empty means valid
	}{
		{"defaults", func(*Config) {}, ""},
		{"empty backend", func(c *Config) { c.Backend.Name = "" }, "backend name"},
		{"negative workers", func(c *Config) { c.Backend.Workers = -1 }, "workers"},
		{"negative max threads", func(c *Config) { c.Backend.MaxThreadsPerGroup = -4 }, "max_threads_per_group"},
		{"file without path", func(c *Config) { c.Kernel.Mode = KernelFile }, "requires a path"},
		{"url with path", func(c *Config) { c.Kernel.Mode = KernelURL; c.Kernel.Path = "k.wgsl" }, ""},
		{"unknown kernel mode", func(c *Config) { c.Kernel.Mode = "http" }, "unknown kernel mode"},
		{"empty entry point", func(c *Config) { c.Kernel.EntryPoint = "" }, "entry point"},
		{"zero count", func(c *Config) { c.Data.Count = 0 }, "element count"},
		{"random full range", func(c *Config) { c.Data.Fill = FillRandom; c.Data.Max = 0 }, ""},
		{"values short", func(c *Config) { c.Data.Fill = FillValues; c.Data.A = []uint32{1} }, "values fill"},
		{"values ok", func(c *Config) {
			c.Data.Fill = FillValues
			c.Data.Count = 2
			c.Data.A = []uint32{1, 2}
			c.Data.B = []uint32{3, 4}
		}, ""},
		{"unknown fill", func(c *Config) { c.Data.Fill = "zeros" }, "unknown fill mode"},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }, "log level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.want)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestLoggingLevel(t *testing.T) {
	tests := []struct {
		level   string
		want    slog.Level
		enabled bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"off", slog.LevelInfo, false},
		{"bogus", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		l := LoggingConfig{Level: tt.level}
		if got := l.SlogLevel(); got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
		if got := l.LoggingEnabled(); got != tt.enabled {
			t.Errorf("LoggingEnabled(%q) = %v, want %v", tt.level, got, tt.enabled)
		}
	}
}

func TestParseValues(t *testing.T) {
	got, err := ParseValues("0, 1,2,,4294967295")
	if err != nil {
		t.Fatalf("ParseValues() error = %v", err)
	}
	if want := []uint32{0, 1, 2, 4294967295}; !slices.Equal(got, want) {
		t.Errorf("ParseValues() = %v, want %v", got, want)
	}
	if _, err := ParseValues("1,-2"); err == nil {
		t.Error("ParseValues(negative) should fail")
	}
	if _, err := ParseValues("4294967296"); err == nil {
		t.Error("ParseValues(overflow) should fail")
	}
}

func TestString(t *testing.T) {
	s := Defaults().String()
	for _, want := range []string{"auto", "inline", "add_arrays", "Count: 8"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}

func TestExitZeroFromEnv(t *testing.T) {
	t.Setenv("ADDARRAYS_EXIT_ZERO_ON_FAILURE", "")
	if ExitZeroFromEnv(false) {
		t.Error("ExitZeroFromEnv(false) with env unset = true")
	}
	t.Setenv("ADDARRAYS_EXIT_ZERO_ON_FAILURE", "on")
	if !ExitZeroFromEnv(false) {
		t.Error("ExitZeroFromEnv(false) with env on = false")
	}
}
