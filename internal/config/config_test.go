package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/example/go-deconv/internal/harness"
)

// fakeBinder wraps a pflag.FlagSet to satisfy the flagBinder interface.
type fakeBinder struct {
	fs *pflag.FlagSet
}

func (f *fakeBinder) Flags() *pflag.FlagSet { return f.fs }

// newFlagBinder creates a FlagSet with all config flags registered at their defaults.
func newFlagBinder(defaults Config) *fakeBinder {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)

	return &fakeBinder{fs: fs}
}

// --- DefaultConfig ---

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "info")
	}

	if cfg.Harness.Seed != 1 {
		t.Errorf("Harness.Seed = %d; want 1", cfg.Harness.Seed)
	}

	if cfg.Harness.FloatTolerance != 1e-5 {
		t.Errorf("Harness.FloatTolerance = %v; want 1e-5", cfg.Harness.FloatTolerance)
	}

	if cfg.Harness.QuantTolerance != 0.1 {
		t.Errorf("Harness.QuantTolerance = %v; want 0.1", cfg.Harness.QuantTolerance)
	}

	if cfg.Bench.Runs != 5 || cfg.Bench.Warmup != 1 {
		t.Errorf("Bench = %+v; want runs 5 warmup 1", cfg.Bench)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
}

// --- RegisterFlags ---

func TestRegisterFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, DefaultConfig())

	checks := []struct {
		flag string
		want string
	}{
		{"log-level", "info"},
		{"harness-seed", "1"},
		{"harness-workers", "0"},
		{"harness-quant-tolerance", "0.1"},
		{"bench-runs", "5"},
	}

	for _, c := range checks {
		f := fs.Lookup(c.flag)
		if f == nil {
			t.Errorf("flag %q not registered", c.flag)
			continue
		}

		if f.DefValue != c.want {
			t.Errorf("flag %q default = %q; want %q", c.flag, f.DefValue, c.want)
		}
	}

	for name := range flagKeys {
		if fs.Lookup(name) == nil {
			t.Errorf("flagKeys entry %q has no registered flag", name)
		}
	}
}

// --- Load ---

func TestLoad_Defaults(t *testing.T) {
	defaults := DefaultConfig()

	cfg, err := Load(LoadOptions{
		Cmd:      newFlagBinder(defaults),
		Defaults: defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != defaults.LogLevel {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, defaults.LogLevel)
	}

	if cfg.Harness.Seed != defaults.Harness.Seed {
		t.Errorf("Harness.Seed = %d; want %d", cfg.Harness.Seed, defaults.Harness.Seed)
	}

	if cfg.Harness.QuantTolerance != defaults.Harness.QuantTolerance {
		t.Errorf("Harness.QuantTolerance = %v; want %v", cfg.Harness.QuantTolerance, defaults.Harness.QuantTolerance)
	}

	if len(cfg.Harness.Sweep) != 0 {
		t.Errorf("Harness.Sweep = %v; want empty", cfg.Harness.Sweep)
	}
}

func TestLoad_FlagOverride(t *testing.T) {
	defaults := DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)

	err := fs.Parse([]string{
		"--log-level=debug",
		"--harness-seed=99",
		"--harness-workers=3",
		"--harness-quant-tolerance=0.05",
		"--bench-runs=12",
	})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	cfg, err := Load(LoadOptions{
		Cmd:      &fakeBinder{fs: fs},
		Defaults: defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "debug")
	}

	if cfg.Harness.Seed != 99 {
		t.Errorf("Harness.Seed = %d; want 99", cfg.Harness.Seed)
	}

	if cfg.Harness.Workers != 3 {
		t.Errorf("Harness.Workers = %d; want 3", cfg.Harness.Workers)
	}

	if cfg.Harness.QuantTolerance != 0.05 {
		t.Errorf("Harness.QuantTolerance = %v; want 0.05", cfg.Harness.QuantTolerance)
	}

	if cfg.Bench.Runs != 12 {
		t.Errorf("Bench.Runs = %d; want 12", cfg.Bench.Runs)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("DECONVCHECK_LOG_LEVEL", "warn")
	t.Setenv("DECONVCHECK_HARNESS_SEED", "17")
	t.Setenv("DECONVCHECK_BENCH_WARMUP", "0")

	cfg, err := Load(LoadOptions{
		Defaults: DefaultConfig(),
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "warn")
	}

	if cfg.Harness.Seed != 17 {
		t.Errorf("Harness.Seed = %d; want 17", cfg.Harness.Seed)
	}

	if cfg.Bench.Warmup != 0 {
		t.Errorf("Bench.Warmup = %d; want 0", cfg.Bench.Warmup)
	}
}

func TestLoad_FlagBeatsEnv(t *testing.T) {
	t.Setenv("DECONVCHECK_HARNESS_WORKERS", "2")

	defaults := DefaultConfig()
	binder := newFlagBinder(defaults)

	if err := binder.fs.Parse([]string{"--harness-workers=6"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cfg, err := Load(LoadOptions{Cmd: binder, Defaults: defaults})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Harness.Workers != 6 {
		t.Errorf("Harness.Workers = %d; want 6", cfg.Harness.Workers)
	}
}

func TestLoad_ConfigFileWithSweep(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "deconvcheck.yaml")

	content := `
log_level: error
harness:
  seed: 5
  quant_tolerance: 0.08
  sweep:
    - kernel: group_deconv2d
      channels: 8
      height: 6
      width: 6
      kernel_h: 3
      kernel_w: 3
      padding: same
      stride_h: 2
      stride_w: 2
      groups: 4
      multiplier: 2
    - kernel: depthwise_deconv2d
      batch: 2
      channels: 4
      height: 4
      width: 4
      kernel_h: 3
      kernel_w: 3
      expect_unsupported: true
bench:
  runs: 3
`

	if err := os.WriteFile(cfgFile, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	defaults := DefaultConfig()

	cfg, err := Load(LoadOptions{
		Cmd:        newFlagBinder(defaults),
		ConfigFile: cfgFile,
		Defaults:   defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "error")
	}

	if cfg.Harness.Seed != 5 {
		t.Errorf("Harness.Seed = %d; want 5", cfg.Harness.Seed)
	}

	if cfg.Harness.QuantTolerance != 0.08 {
		t.Errorf("Harness.QuantTolerance = %v; want 0.08", cfg.Harness.QuantTolerance)
	}

	if cfg.Bench.Runs != 3 {
		t.Errorf("Bench.Runs = %d; want 3", cfg.Bench.Runs)
	}

	cases := cfg.Harness.Cases()
	if len(cases) != 2 {
		t.Fatalf("Cases() = %d cases; want 2", len(cases))
	}

	first := cases[0]
	if first.Kernel != "group_deconv2d" || first.Groups != 4 || first.Multiplier != 2 || first.StrideW != 2 || first.KernelH != 3 {
		t.Errorf("sweep[0] = %+v", first)
	}

	if first.Batch != 1 || first.DilationH != 1 {
		t.Errorf("sweep[0] not normalized: %+v", first)
	}

	if !cases[1].ExpectUnsupported || cases[1].Batch != 2 {
		t.Errorf("sweep[1] = %+v", cases[1])
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestCasesFallsBackToDefaultSweep(t *testing.T) {
	cfg := DefaultConfig()
	if len(cfg.Harness.Cases()) < 9 {
		t.Errorf("Cases() = %d; want the built-in sweep", len(cfg.Harness.Cases()))
	}
}

func TestLoad_InvalidConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "bad.yaml")

	err := os.WriteFile(cfgFile, []byte(":\t:bad yaml:::"), 0o644)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err = Load(LoadOptions{
		ConfigFile: cfgFile,
		Defaults:   DefaultConfig(),
	})
	if err == nil {
		t.Error("Load() = nil; want error for invalid config file")
	}
}

func TestLoad_MissingExplicitConfigFile(t *testing.T) {
	_, err := Load(LoadOptions{
		ConfigFile: "/nonexistent/path/deconvcheck.yaml",
		Defaults:   DefaultConfig(),
	})
	if err == nil {
		t.Error("Load() = nil; want error for missing explicit config file")
	}
}

func TestLoad_NilCmd(t *testing.T) {
	cfg, err := Load(LoadOptions{
		Cmd:      nil,
		Defaults: DefaultConfig(),
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Bench.Runs != 5 {
		t.Errorf("Bench.Runs = %d; want 5", cfg.Bench.Runs)
	}
}

// --- Validate ---

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "unknown log level"},
		{"workers", func(c *Config) { c.Harness.Workers = -1 }, "harness.workers"},
		{"tolerance", func(c *Config) { c.Harness.QuantTolerance = -0.1 }, "tolerances"},
		{"runs", func(c *Config) { c.Bench.Runs = 0 }, "bench.runs"},
		{"warmup", func(c *Config) { c.Bench.Warmup = -2 }, "bench.warmup"},
		{"sweep", func(c *Config) {
			c.Harness.Sweep = []harness.Case{{Kernel: "nope", Channels: 1, Height: 1, Width: 1, KernelH: 1, KernelW: 1}}
		}, "harness.sweep[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v; want error containing %q", err, tt.want)
			}
		})
	}
}

// --- ParseLogLevel ---

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"DEBUG", slog.LevelDebug},
		{" warn ", slog.LevelWarn},
		{"error", slog.LevelError},
	}

	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}

	if _, err := ParseLogLevel("trace"); err == nil {
		t.Error("ParseLogLevel(trace) = nil error; want error")
	}
}
