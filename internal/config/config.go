// Package config loads run configuration from YAML, JSON or TOML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"hybrid/internal/evo"
	"hybrid/internal/fitness"
)

const (
	ModeSerial = "serial"
	ModePaced  = "paced"
)

var ErrUnsupportedFormat = errors.New("unsupported config format")

type Config struct {
	Population PopulationConfig  `yaml:"population" toml:"population"`
	Fitness    FitnessConfig     `yaml:"fitness" toml:"fitness"`
	Selection  SelectionConfig   `yaml:"selection" toml:"selection"`
	Crossover  ProbabilityConfig `yaml:"crossover" toml:"crossover"`
	Mutation   ProbabilityConfig `yaml:"mutation" toml:"mutation"`
	Stop       StopConfig        `yaml:"stop" toml:"stop"`
	Elitism    ElitismConfig     `yaml:"elitism" toml:"elitism"`
	Engine     EngineConfig      `yaml:"engine" toml:"engine"`
	Observe    ObserveConfig     `yaml:"observe" toml:"observe"`
	Store      StoreConfig       `yaml:"store" toml:"store"`
	Sample     SampleConfig      `yaml:"sample" toml:"sample"`
}

type PopulationConfig struct {
	Size       int `yaml:"size" toml:"size"`
	Generation int `yaml:"generation" toml:"generation"`
}

type FitnessConfig struct {
	Direction string `yaml:"direction" toml:"direction"`
}

type SelectionConfig struct {
	Name string `yaml:"name" toml:"name"`
	// Rate is the tournament sampling rate; other strategies ignore it.
	Rate float64 `yaml:"rate" toml:"rate"`
}

type ProbabilityConfig struct {
	Probability float64 `yaml:"probability" toml:"probability"`
}

type StopConfig struct {
	Generations int      `yaml:"generations" toml:"generations"`
	FitnessGoal *float64 `yaml:"fitness_goal,omitempty" toml:"fitness_goal,omitempty"`
}

type ElitismConfig struct {
	Size int `yaml:"size" toml:"size"`
}

type EngineConfig struct {
	Seed int64    `yaml:"seed" toml:"seed"`
	Mode string   `yaml:"mode" toml:"mode"`
	Tick Duration `yaml:"tick" toml:"tick"`
}

type ObserveConfig struct {
	LogLevel     string `yaml:"log_level" toml:"log_level"`
	MetricsAddr  string `yaml:"metrics_addr,omitempty" toml:"metrics_addr,omitempty"`
	OTLPEndpoint string `yaml:"otlp_endpoint,omitempty" toml:"otlp_endpoint,omitempty"`
}

type StoreConfig struct {
	Kind   string `yaml:"kind" toml:"kind"`
	DBPath string `yaml:"db_path,omitempty" toml:"db_path,omitempty"`
}

type SampleConfig struct {
	Target string `yaml:"target" toml:"target"`
}

func Defaults() Config {
	return Config{
		Population: PopulationConfig{Size: evo.DefaultPopulationSize},
		Fitness:    FitnessConfig{Direction: fitness.HigherIsBetter.String()},
		Selection:  SelectionConfig{Name: "ranking", Rate: evo.DefaultTournamentRate},
		Crossover:  ProbabilityConfig{Probability: evo.DefaultCrossoverProbability},
		Mutation:   ProbabilityConfig{Probability: evo.DefaultMutationProbability},
		Stop:       StopConfig{Generations: evo.DefaultGenerationLimit},
		Engine:     EngineConfig{Seed: 1, Mode: ModeSerial},
		Observe:    ObserveConfig{LogLevel: "info"},
		Store:      StoreConfig{Kind: "memory"},
		Sample:     SampleConfig{Target: "hello world"},
	}
}

// Load reads path over Defaults. The format follows the file extension:
// .yaml, .yml and .json go through the YAML decoder, .toml through the TOML
// decoder. The result is validated.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data, formatOf(path))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data in the named format ("yaml", "json" or "toml") over
// Defaults and validates the result.
func Parse(data []byte, format string) (Config, error) {
	cfg := Defaults()
	switch format {
	case "yaml", "json":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("%w: %v", evo.ErrConfiguration, err)
		}
	case "toml":
		meta, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %v", evo.ErrConfiguration, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("%w: unknown key %s", evo.ErrConfiguration, undecoded[0])
		}
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Write stores cfg at path as YAML or TOML, following the file extension.
func Write(path string, cfg Config) error {
	var buf bytes.Buffer
	switch formatOf(path) {
	case "yaml":
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
	case "toml":
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func (c Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Population.Size <= 0 {
		fail("population.size must be > 0, got %d", c.Population.Size)
	}
	if _, err := fitness.ParseDirection(c.Fitness.Direction); err != nil {
		fail("fitness.direction: %v", err)
	}
	if _, err := evo.ResolveSelection(c.Selection.Name, c.Selection.Rate); err != nil {
		fail("selection.name: %v", err)
	}
	for name, v := range map[string]float64{
		"selection.rate":        c.Selection.Rate,
		"crossover.probability": c.Crossover.Probability,
		"mutation.probability":  c.Mutation.Probability,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			fail("%s must be finite", name)
		}
	}
	if c.Stop.Generations < 0 {
		fail("stop.generations must be >= 0, got %d", c.Stop.Generations)
	}
	if c.Elitism.Size < 0 || c.Elitism.Size > c.Population.Size {
		fail("elitism.size must be within [0, %d], got %d", c.Population.Size, c.Elitism.Size)
	}
	switch c.Engine.Mode {
	case ModeSerial, ModePaced:
	default:
		fail("engine.mode must be %s or %s, got %q", ModeSerial, ModePaced, c.Engine.Mode)
	}
	if c.Engine.Tick < 0 {
		fail("engine.tick must be >= 0, got %s", c.Engine.Tick)
	}
	if _, err := ParseLogLevel(c.Observe.LogLevel); err != nil {
		fail("observe.log_level: %v", err)
	}
	switch c.Store.Kind {
	case "", "memory":
	case "sqlite":
		if c.Store.DBPath == "" {
			fail("store.db_path is required for sqlite")
		}
	default:
		fail("store.kind must be memory or sqlite, got %q", c.Store.Kind)
	}
	if c.Sample.Target == "" {
		fail("sample.target must not be empty")
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", evo.ErrConfiguration, errors.Join(errs...))
}

func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	case ".toml":
		return "toml"
	default:
		return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
}

// Duration decodes Go duration strings such as "250ms".
type Duration time.Duration

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}
