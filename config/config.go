package config

import (
	"encoding/binary"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for a fuzz run.
type Config struct {
	Fuzzing    FuzzingConfig    `yaml:"fuzzing"`
	Output     OutputConfig     `yaml:"output"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Shapes     []ShapeDef       `yaml:"shapes"`
}

// FuzzingConfig tunes the generation/mutation engine.
type FuzzingConfig struct {
	Seed     uint64 `yaml:"seed"` // 0 means derive from the clock
	Count    int    `yaml:"count"`
	Parallel int    `yaml:"parallel"`

	// MaxSize is the serialized byte budget per generated value;
	// 0 leaves generation unbounded.
	MaxSize int `yaml:"max_size"`

	// Endianness applies to all multi-byte numeric encodes: "big",
	// "little", or "random" to draw per entry.
	Endianness string `yaml:"endianness"`

	EarlyBailRate   float64 `yaml:"early_bail_rate"`
	InvalidEnumRate float64 `yaml:"invalid_enum_rate"`
	RunFixups       bool    `yaml:"run_fixups"`

	// MutationRounds is how many mutation passes each generated value
	// receives before it is persisted.
	MutationRounds int `yaml:"mutation_rounds"`
}

// OutputConfig holds corpus output settings.
type OutputConfig struct {
	Directory string `yaml:"directory"`
}

// MonitoringConfig holds metrics settings.
type MonitoringConfig struct {
	Enabled     bool `yaml:"enabled"`
	MetricsPort int  `yaml:"metrics_port"`
}

// DefaultConfig returns a runnable configuration with no shapes.
func DefaultConfig() *Config {
	return &Config{
		Fuzzing: FuzzingConfig{
			Count:           100,
			Parallel:        1,
			MaxSize:         1024,
			Endianness:      "big",
			EarlyBailRate:   0.1,
			InvalidEnumRate: 0.05,
			RunFixups:       true,
			MutationRounds:  0,
		},
		Output: OutputConfig{
			Directory: "corpus",
		},
		Monitoring: MonitoringConfig{
			Enabled:     false,
			MetricsPort: 9090,
		},
	}
}

// LoadConfig reads and validates a YAML configuration file. Unset engine
// fields keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports configuration errors up front, before any fuzzing runs.
func (c *Config) Validate() error {
	if c.Fuzzing.Count < 0 {
		return fmt.Errorf("fuzzing.count must not be negative, got %d", c.Fuzzing.Count)
	}
	if c.Fuzzing.Parallel < 0 {
		return fmt.Errorf("fuzzing.parallel must not be negative, got %d", c.Fuzzing.Parallel)
	}
	if c.Fuzzing.MaxSize < 0 {
		return fmt.Errorf("fuzzing.max_size must not be negative, got %d", c.Fuzzing.MaxSize)
	}
	switch c.Fuzzing.Endianness {
	case "big", "little", "random":
	default:
		return fmt.Errorf("fuzzing.endianness must be big, little or random, got %q", c.Fuzzing.Endianness)
	}
	if r := c.Fuzzing.EarlyBailRate; r < 0 || r > 1 {
		return fmt.Errorf("fuzzing.early_bail_rate must be between 0.0 and 1.0, got %f", r)
	}
	if r := c.Fuzzing.InvalidEnumRate; r < 0 || r > 1 {
		return fmt.Errorf("fuzzing.invalid_enum_rate must be between 0.0 and 1.0, got %f", r)
	}
	if c.Fuzzing.MutationRounds < 0 {
		return fmt.Errorf("fuzzing.mutation_rounds must not be negative, got %d", c.Fuzzing.MutationRounds)
	}
	if c.Output.Directory == "" {
		return fmt.Errorf("output.directory must not be empty")
	}
	return nil
}

// ByteOrder maps the configured endianness, defaulting to big-endian for
// the "random" setting (drivers draw per entry themselves).
func (c *Config) ByteOrder() binary.ByteOrder {
	if c.Fuzzing.Endianness == "little" {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// RandomEndianness reports whether drivers should draw the byte order per
// corpus entry.
func (c *Config) RandomEndianness() bool {
	return c.Fuzzing.Endianness == "random"
}
