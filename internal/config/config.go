// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package config loads addarrays settings.
//
// Configuration is resolved in the following order (highest wins):
//  1. Command-line flags (applied by cmd/addarrays)
//  2. Environment variables (ADDARRAYS_*)
//  3. Config file (addarrays.yaml)
//  4. Built-in defaults
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "addarrays.yaml"

// Kernel source modes.
const (
	KernelInline = "inline"
	KernelFile   = "file"
	KernelURL    = "url"
)

// Fill modes.
const (
	FillSequence = "sequence"
	FillRandom   = "random"
	FillValues   = "values"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid configuration")

// Config holds every addarrays setting.
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Kernel  KernelConfig  `yaml:"kernel"`
	Data    DataConfig    `yaml:"data"`
	Logging LoggingConfig `yaml:"logging"`

	// ExitZeroOnFailure makes the CLI exit 0 even when the dispatch fails.
	ExitZeroOnFailure bool `yaml:"exit_zero_on_failure"`
}

// BackendConfig selects and tunes the compute device.
type BackendConfig struct {
	Name               string `yaml:"name"`                  // auto, metal, native, rust, webgpu, software
	Adapter            string `yaml:"adapter"`               // substring of the GPU name
	Workers            int    `yaml:"workers"`               // software device; 0 = GOMAXPROCS
	MaxThreadsPerGroup int    `yaml:"max_threads_per_group"` // 0 = device limit
	SPIRV              bool   `yaml:"spirv"`                 // native device consumes SPIR-V
}

// KernelConfig says where the kernel comes from.
type KernelConfig struct {
	Mode       string `yaml:"mode"` // inline, file, url
	Path       string `yaml:"path"`
	EntryPoint string `yaml:"entry_point"`
}

// DataConfig describes the input arrays.
type DataConfig struct {
	Count int      `yaml:"count"`
	Fill  string   `yaml:"fill"` // sequence, random, values
	Start uint32   `yaml:"start"`
	Seed  uint64   `yaml:"seed"`
	Max   uint32   `yaml:"max"` // random fill bound; 0 = full range
	A     []uint32 `yaml:"a"`
	B     []uint32 `yaml:"b"`
}

// LoggingConfig configures the slog handler built by the CLI.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error, off
	Format string `yaml:"format"` // text, json
}

// Defaults returns the built-in configuration: eight elements filled with
// 0..7 in both arrays, the embedded kernel, and automatic backend
// selection.
func Defaults() *Config {
	return &Config{
		Backend: BackendConfig{Name: "auto"},
		Kernel: KernelConfig{
			Mode:       KernelInline,
			EntryPoint: "add_arrays",
		},
		Data: DataConfig{
			Count: 8,
			Fill:  FillSequence,
			Max:   1 << 16,
		},
		Logging: LoggingConfig{
			Level:  "off",
			Format: "text",
		},
	}
}

// LoadFromFile returns defaults overlaid with the YAML file at path. A
// missing file is not an error.
func LoadFromFile(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Load reads the config file FindConfigFile names and applies environment
// overrides.
func Load() (*Config, error) {
	cfg, err := LoadFromFile(FindConfigFile())
	if err != nil {
		return nil, err
	}
	ApplyEnv(cfg)
	return cfg, nil
}

// FindConfigFile returns ADDARRAYS_CONFIG if set, otherwise DefaultFile.
func FindConfigFile() string {
	return getEnv("ADDARRAYS_CONFIG", DefaultFile)
}

// ApplyEnv overrides cfg with ADDARRAYS_* environment variables.
// Unparsable values are ignored.
func ApplyEnv(cfg *Config) {
	cfg.Backend.Name = getEnv("ADDARRAYS_BACKEND", cfg.Backend.Name)
	cfg.Backend.Adapter = getEnv("ADDARRAYS_ADAPTER", cfg.Backend.Adapter)
	cfg.Backend.Workers = getEnvInt("ADDARRAYS_WORKERS", cfg.Backend.Workers)
	cfg.Backend.MaxThreadsPerGroup = getEnvInt("ADDARRAYS_MAX_THREADS_PER_GROUP", cfg.Backend.MaxThreadsPerGroup)
	cfg.Backend.SPIRV = getEnvBool("ADDARRAYS_SPIRV", cfg.Backend.SPIRV)

	cfg.Kernel.Mode = getEnv("ADDARRAYS_KERNEL_MODE", cfg.Kernel.Mode)
	cfg.Kernel.Path = getEnv("ADDARRAYS_KERNEL_PATH", cfg.Kernel.Path)
	cfg.Kernel.EntryPoint = getEnv("ADDARRAYS_ENTRY_POINT", cfg.Kernel.EntryPoint)

	cfg.Data.Count = getEnvInt("ADDARRAYS_COUNT", cfg.Data.Count)
	cfg.Data.Fill = getEnv("ADDARRAYS_FILL", cfg.Data.Fill)
	cfg.Data.Start = getEnvUint32("ADDARRAYS_START", cfg.Data.Start)
	cfg.Data.Seed = getEnvUint64("ADDARRAYS_SEED", cfg.Data.Seed)
	cfg.Data.Max = getEnvUint32("ADDARRAYS_RANDOM_MAX", cfg.Data.Max)
	cfg.Data.A = getEnvUint32Slice("ADDARRAYS_A", cfg.Data.A)
	cfg.Data.B = getEnvUint32Slice("ADDARRAYS_B", cfg.Data.B)

	cfg.Logging.Level = getEnv("ADDARRAYS_LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("ADDARRAYS_LOG_FORMAT", cfg.Logging.Format)

	cfg.ExitZeroOnFailure = ExitZeroFromEnv(cfg.ExitZeroOnFailure)
}

// ExitZeroFromEnv returns ADDARRAYS_EXIT_ZERO_ON_FAILURE, or defaultVal when
// it is unset. The CLI reads it before the config file so the exit policy
// also covers a file that fails to load.
func ExitZeroFromEnv(defaultVal bool) bool {
	return getEnvBool("ADDARRAYS_EXIT_ZERO_ON_FAILURE", defaultVal)
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	if c.Backend.Name == "" {
		return fmt.Errorf("%w: backend name is empty", ErrInvalid)
	}
	if c.Backend.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative: %d", ErrInvalid, c.Backend.Workers)
	}
	if c.Backend.MaxThreadsPerGroup < 0 {
		return fmt.Errorf("%w: max_threads_per_group must not be negative: %d", ErrInvalid, c.Backend.MaxThreadsPerGroup)
	}

	switch c.Kernel.Mode {
	case KernelInline:
	case KernelFile, KernelURL:
		if c.Kernel.Path == "" {
			return fmt.Errorf("%w: kernel mode %q requires a path", ErrInvalid, c.Kernel.Mode)
		}
	default:
		return fmt.Errorf("%w: unknown kernel mode %q", ErrInvalid, c.Kernel.Mode)
	}
	if c.Kernel.EntryPoint == "" {
		return fmt.Errorf("%w: entry point is empty", ErrInvalid)
	}

	if c.Data.Count <= 0 {
		return fmt.Errorf("%w: element count must be positive: %d", ErrInvalid, c.Data.Count)
	}
	switch c.Data.Fill {
	case FillSequence, FillRandom:
	case FillValues:
		if len(c.Data.A) != c.Data.Count || len(c.Data.B) != c.Data.Count {
			return fmt.Errorf("%w: values fill needs %d values per array, got %d and %d",
				ErrInvalid, c.Data.Count, len(c.Data.A), len(c.Data.B))
		}
	default:
		return fmt.Errorf("%w: unknown fill mode %q", ErrInvalid, c.Data.Fill)
	}

	if _, ok := parseLevel(c.Logging.Level); !ok {
		return fmt.Errorf("%w: unknown log level %q", ErrInvalid, c.Logging.Level)
	}
	if !slices.Contains([]string{"text", "json"}, c.Logging.Format) {
		return fmt.Errorf("%w: unknown log format %q", ErrInvalid, c.Logging.Format)
	}
	return nil
}

// LoggingEnabled reports whether a log handler should be installed.
func (l LoggingConfig) LoggingEnabled() bool {
	return strings.ToLower(l.Level) != "off"
}

// SlogLevel returns the configured level. Unknown levels map to info.
func (l LoggingConfig) SlogLevel() slog.Level {
	level, ok := parseLevel(l.Level)
	if !ok {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "off":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return 0, false
	}
}

// String returns a one-line summary suitable for logging.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Backend: %s, Kernel: %s %s, Count: %d, Fill: %s}",
		c.Backend.Name, c.Kernel.Mode, c.Kernel.EntryPoint, c.Data.Count, c.Data.Fill)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvUint32(key string, defaultVal uint32) uint32 {
	if val := os.Getenv(key); val != "" {
		if u, err := strconv.ParseUint(val, 10, 32); err == nil {
			return uint32(u)
		}
	}
	return defaultVal
}

func getEnvUint64(key string, defaultVal uint64) uint64 {
	if val := os.Getenv(key); val != "" {
		if u, err := strconv.ParseUint(val, 10, 64); err == nil {
			return u
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(val)
		return val == "true" || val == "1" || val == "yes" || val == "on"
	}
	return defaultVal
}

// getEnvUint32Slice parses a comma-separated list. Any bad element discards
// the whole value.
func getEnvUint32Slice(key string, defaultVal []uint32) []uint32 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	vals, err := ParseValues(val)
	if err != nil {
		return defaultVal
	}
	return vals
}

// ParseValues parses a comma-separated list of unsigned 32-bit integers.
func ParseValues(s string) ([]uint32, error) {
	parts := strings.Split(s, ",")
	out := make([]uint32, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		u, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", p, err)
		}
		out = append(out, uint32(u))
	}
	return out, nil
}
