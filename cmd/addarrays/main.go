// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command addarrays adds two arrays on the GPU and prints them with their
// sum.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gogpu/addarrays"
	"github.com/gogpu/addarrays/backend"
	"github.com/gogpu/addarrays/compute"
	"github.com/gogpu/addarrays/internal/config"
	"github.com/gogpu/addarrays/internal/report"
)

var (
	version   = "0.1.0"
	commit    = "dev"
	buildTime = "unknown" // Set via ldflags: -X main.buildTime=$(date +%Y%m%d-%H%M%S)
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// app carries the streams and the exit policy between the command and the
// exit handler.
type app struct {
	stdout   io.Writer
	stderr   io.Writer
	exitZero bool
}

// execute runs the command line and returns the process exit code. Every
// failure is printed once, here.
func execute(args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return 0
	}
	fmt.Fprintln(stderr, err)
	if a.exitZero {
		return 0
	}
	return 1
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "addarrays",
		Short: "Add two arrays on the GPU",
		Long: `addarrays compiles the add_arrays kernel, dispatches it over two input
arrays, and prints both inputs and the element-wise sum.

Settings come from flags, then ADDARRAYS_* environment variables, then
addarrays.yaml, then built-in defaults.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.runDispatch,
	}

	f := rootCmd.Flags()
	f.String("config", "", "Config file (default: $ADDARRAYS_CONFIG or ./addarrays.yaml)")
	f.String("backend", "auto", "Backend: auto, metal, native, rust, webgpu, software")
	f.String("adapter", "", "Select the GPU whose name contains this string")
	f.Int("workers", 0, "Software device workers (0 = GOMAXPROCS)")
	f.Int("max-threads", 0, "Cap threads per thread group (0 = device limit)")
	f.Bool("spirv", false, "Hand SPIR-V instead of WGSL to the native backend")
	f.String("kernel-mode", config.KernelInline, "Kernel source: inline, file, url")
	f.String("kernel", "", "Kernel file for file and url modes")
	f.String("entry", "add_arrays", "Kernel entry point")
	f.Int("count", 8, "Number of elements")
	f.String("fill", config.FillSequence, "Input fill: sequence, random, values")
	f.Uint32("start", 0, "First value for sequence fill")
	f.Uint64("seed", 0, "Seed for random fill (array B uses seed+1)")
	f.Uint32("max", 1<<16, "Exclusive upper bound for random fill (0 = full range)")
	f.String("a", "", "Comma-separated values for array A (values fill)")
	f.String("b", "", "Comma-separated values for array B (values fill)")
	f.String("log-level", "off", "Log level: off, debug, info, warn, error")
	f.String("log-format", "text", "Log format: text, json")
	f.Bool("exit-zero-on-failure", false, "Exit 0 even when the dispatch fails")
	f.Bool("verify", false, "Check the sum on the host and fail on mismatch")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "addarrays v%s (%s) built %s\n", version, commit, buildTime)
		},
	})

	backendsCmd := &cobra.Command{
		Use:   "backends",
		Short: "List registered backends",
		RunE:  a.runBackends,
	}
	backendsCmd.Flags().Bool("probe", false, "Open each backend and report its device")
	rootCmd.AddCommand(backendsCmd)

	return rootCmd
}

func (a *app) runDispatch(cmd *cobra.Command, args []string) error {
	// Settled from flag and environment first, then from the full config.
	a.exitZero = config.ExitZeroFromEnv(false)
	if cmd.Flags().Changed("exit-zero-on-failure") {
		a.exitZero, _ = cmd.Flags().GetBool("exit-zero-on-failure")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a.exitZero = cfg.ExitZeroOnFailure
	if err := cfg.Validate(); err != nil {
		return err
	}
	setupLogging(a.stderr, cfg.Logging)
	addarrays.Logger().Debug("addarrays: configuration", "config", cfg.String())

	opts, err := runnerOptions(cfg)
	if err != nil {
		return err
	}
	res, err := addarrays.Run(opts...)
	if err != nil {
		return err
	}
	if verify, _ := cmd.Flags().GetBool("verify"); verify {
		if err := res.Verify(); err != nil {
			return err
		}
	}
	addarrays.Logger().Info("addarrays: dispatch complete",
		"backend", res.Backend,
		"device", res.Device,
		"threadgroup", res.DispatchWidth)
	return report.Arrays(a.stdout, res.A, res.B, res.Sum)
}

func (a *app) runBackends(cmd *cobra.Command, args []string) error {
	probe, _ := cmd.Flags().GetBool("probe")
	out := cmd.OutOrStdout()
	for _, name := range backend.Available() {
		if !probe {
			fmt.Fprintln(out, name)
			continue
		}
		dev, err := backend.Open(name, backend.Options{})
		if err != nil {
			fmt.Fprintf(out, "%-10s unavailable: %v\n", name, err)
			continue
		}
		fmt.Fprintf(out, "%-10s %s (%s)\n", name, dev.Name(), dev.Language())
		dev.Release()
	}
	return nil
}

// loadConfig resolves defaults, file, environment and flags, in rising
// precedence. Only flags the user set override the lower layers.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	f := cmd.Flags()

	path := config.FindConfigFile()
	if f.Changed("config") {
		path, _ = f.GetString("config")
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	config.ApplyEnv(cfg)

	if f.Changed("backend") {
		cfg.Backend.Name, _ = f.GetString("backend")
	}
	if f.Changed("adapter") {
		cfg.Backend.Adapter, _ = f.GetString("adapter")
	}
	if f.Changed("workers") {
		cfg.Backend.Workers, _ = f.GetInt("workers")
	}
	if f.Changed("max-threads") {
		cfg.Backend.MaxThreadsPerGroup, _ = f.GetInt("max-threads")
	}
	if f.Changed("spirv") {
		cfg.Backend.SPIRV, _ = f.GetBool("spirv")
	}
	if f.Changed("kernel-mode") {
		cfg.Kernel.Mode, _ = f.GetString("kernel-mode")
	}
	if f.Changed("kernel") {
		cfg.Kernel.Path, _ = f.GetString("kernel")
		if !f.Changed("kernel-mode") && cfg.Kernel.Mode == config.KernelInline {
			cfg.Kernel.Mode = config.KernelFile
		}
	}
	if f.Changed("entry") {
		cfg.Kernel.EntryPoint, _ = f.GetString("entry")
	}
	if f.Changed("count") {
		cfg.Data.Count, _ = f.GetInt("count")
	}
	if f.Changed("fill") {
		cfg.Data.Fill, _ = f.GetString("fill")
	}
	if f.Changed("start") {
		cfg.Data.Start, _ = f.GetUint32("start")
	}
	if f.Changed("seed") {
		cfg.Data.Seed, _ = f.GetUint64("seed")
	}
	if f.Changed("max") {
		cfg.Data.Max, _ = f.GetUint32("max")
	}
	for _, arr := range []struct {
		flag string
		dst  *[]uint32
	}{{"a", &cfg.Data.A}, {"b", &cfg.Data.B}} {
		if !f.Changed(arr.flag) {
			continue
		}
		s, _ := f.GetString(arr.flag)
		vals, err := config.ParseValues(s)
		if err != nil {
			return nil, fmt.Errorf("flag --%s: %w", arr.flag, err)
		}
		*arr.dst = vals
	}
	if f.Changed("log-level") {
		cfg.Logging.Level, _ = f.GetString("log-level")
	}
	if f.Changed("log-format") {
		cfg.Logging.Format, _ = f.GetString("log-format")
	}
	if f.Changed("exit-zero-on-failure") {
		cfg.ExitZeroOnFailure, _ = f.GetBool("exit-zero-on-failure")
	}

	// Values given without a count set the count.
	if cfg.Data.Fill == config.FillValues && !f.Changed("count") && len(cfg.Data.A) > 0 &&
		len(cfg.Data.A) == len(cfg.Data.B) {
		cfg.Data.Count = len(cfg.Data.A)
	}
	return cfg, nil
}

// setupLogging installs a slog handler on stderr unless logging is off.
func setupLogging(w io.Writer, lc config.LoggingConfig) {
	if !lc.LoggingEnabled() {
		addarrays.SetLogger(nil)
		return
	}
	hopts := &slog.HandlerOptions{Level: lc.SlogLevel()}
	var h slog.Handler
	if lc.Format == "json" {
		h = slog.NewJSONHandler(w, hopts)
	} else {
		h = slog.NewTextHandler(w, hopts)
	}
	addarrays.SetLogger(slog.New(h))
}

// runnerOptions maps the configuration onto addarrays options.
func runnerOptions(cfg *config.Config) ([]addarrays.Option, error) {
	opts := []addarrays.Option{
		addarrays.WithBackend(cfg.Backend.Name),
		addarrays.WithBackendOptions(backend.Options{
			Adapter:            cfg.Backend.Adapter,
			MaxThreadsPerGroup: cfg.Backend.MaxThreadsPerGroup,
			Workers:            cfg.Backend.Workers,
			SPIRV:              cfg.Backend.SPIRV,
		}),
		addarrays.WithEntryPoint(cfg.Kernel.EntryPoint),
		addarrays.WithElementCount(cfg.Data.Count),
	}

	switch cfg.Kernel.Mode {
	case config.KernelInline:
	case config.KernelFile:
		opts = append(opts, addarrays.WithKernelSource(compute.FileSource(cfg.Kernel.Path)))
	case config.KernelURL:
		opts = append(opts, addarrays.WithKernelSource(compute.URLSource(cfg.Kernel.Path)))
	default:
		return nil, fmt.Errorf("unknown kernel mode %q", cfg.Kernel.Mode)
	}

	switch cfg.Data.Fill {
	case config.FillSequence:
		opts = append(opts, addarrays.WithFill(addarrays.Sequence(cfg.Data.Start)))
	case config.FillRandom:
		opts = append(opts,
			addarrays.WithFillA(addarrays.Random(cfg.Data.Seed, cfg.Data.Max)),
			addarrays.WithFillB(addarrays.Random(cfg.Data.Seed+1, cfg.Data.Max)))
	case config.FillValues:
		opts = append(opts,
			addarrays.WithFillA(addarrays.Values(cfg.Data.A...)),
			addarrays.WithFillB(addarrays.Values(cfg.Data.B...)))
	default:
		return nil, fmt.Errorf("unknown fill mode %q", cfg.Data.Fill)
	}
	return opts, nil
}
