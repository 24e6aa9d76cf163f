package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/example/go-deconv/internal/harness"
)

type Config struct {
	LogLevel string        `mapstructure:"log_level"`
	Harness  HarnessConfig `mapstructure:"harness"`
	Bench    BenchConfig   `mapstructure:"bench"`
}

type HarnessConfig struct {
	Seed    uint64 `mapstructure:"seed"`
	Workers int    `mapstructure:"workers"`
	// FloatTolerance and QuantTolerance are absolute tolerances for the
	// float and int8 paths.
	FloatTolerance float64 `mapstructure:"float_tolerance"`
	QuantTolerance float64 `mapstructure:"quant_tolerance"`
	// Sweep replaces the built-in sweep when non-empty. Config file only.
	Sweep []harness.Case `mapstructure:"sweep"`
}

type BenchConfig struct {
	Runs   int `mapstructure:"runs"`
	Warmup int `mapstructure:"warmup"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

// flagKeys maps flag names onto config keys.
var flagKeys = map[string]string{
	"log-level":               "log_level",
	"harness-seed":            "harness.seed",
	"harness-workers":         "harness.workers",
	"harness-float-tolerance": "harness.float_tolerance",
	"harness-quant-tolerance": "harness.quant_tolerance",
	"bench-runs":              "bench.runs",
	"bench-warmup":            "bench.warmup",
}

func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Harness: HarnessConfig{
			Seed:           1,
			Workers:        0,
			FloatTolerance: 1e-5,
			QuantTolerance: 0.1,
		},
		Bench: BenchConfig{
			Runs:   5,
			Warmup: 1,
		},
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
	fs.Uint64("harness-seed", defaults.Harness.Seed, "Seed for generated sweep data")
	fs.Int("harness-workers", defaults.Harness.Workers, "Concurrent sweep cases (0 = GOMAXPROCS)")
	fs.Float64("harness-float-tolerance", defaults.Harness.FloatTolerance, "Absolute tolerance of the float path versus the float64 reference")
	fs.Float64("harness-quant-tolerance", defaults.Harness.QuantTolerance, "Absolute tolerance of the int8 path versus the float path")
	fs.Int("bench-runs", defaults.Bench.Runs, "Timed runs per bench configuration")
	fs.Int("bench-warmup", defaults.Bench.Warmup, "Untimed warmup runs before timing")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("DECONVCHECK")
	replacer := strings.NewReplacer("-", "_", ".", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("deconvcheck")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

// Validate checks ranges the loader cannot enforce.
func (c Config) Validate() error {
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}

	if c.Harness.Workers < 0 {
		return fmt.Errorf("harness.workers must be >= 0, got %d", c.Harness.Workers)
	}

	if c.Harness.FloatTolerance < 0 || c.Harness.QuantTolerance < 0 {
		return fmt.Errorf("harness tolerances must be >= 0, got %g and %g", c.Harness.FloatTolerance, c.Harness.QuantTolerance)
	}

	if c.Bench.Runs < 1 {
		return fmt.Errorf("bench.runs must be >= 1, got %d", c.Bench.Runs)
	}

	if c.Bench.Warmup < 0 {
		return fmt.Errorf("bench.warmup must be >= 0, got %d", c.Bench.Warmup)
	}

	for i, hc := range c.Harness.Sweep {
		if err := hc.Normalize().Validate(); err != nil {
			return fmt.Errorf("harness.sweep[%d]: %w", i, err)
		}
	}

	return nil
}

// Options converts the harness section into runner options.
func (h HarnessConfig) Options() harness.Options {
	return harness.Options{
		Seed:           h.Seed,
		Workers:        h.Workers,
		FloatTolerance: h.FloatTolerance,
		QuantTolerance: h.QuantTolerance,
	}
}

// Cases returns the configured sweep, or the built-in one when none is set.
func (h HarnessConfig) Cases() []harness.Case {
	if len(h.Sweep) == 0 {
		return harness.DefaultSweep()
	}

	cases := make([]harness.Case, len(h.Sweep))
	for i, c := range h.Sweep {
		cases[i] = c.Normalize()
	}

	return cases
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("log_level", c.LogLevel)
	v.SetDefault("harness.seed", c.Harness.Seed)
	v.SetDefault("harness.workers", c.Harness.Workers)
	v.SetDefault("harness.float_tolerance", c.Harness.FloatTolerance)
	v.SetDefault("harness.quant_tolerance", c.Harness.QuantTolerance)
	v.SetDefault("bench.runs", c.Bench.Runs)
	v.SetDefault("bench.warmup", c.Bench.Warmup)
}

// bindFlags binds every registered config flag to its key. Flags a command
// does not register are skipped.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}

		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	return nil
}
