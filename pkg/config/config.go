// Package config loads the TOML configuration shared by the discfix commands.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"

	"github.com/pelletier/go-toml/v2"

	"github.com/hansbonini/discfix/pkg/common"
	"github.com/hansbonini/discfix/pkg/subchannel"
)

// Subchannel contains the repair engine switches.
type Subchannel struct {
	Fix         bool   `toml:"fix"`
	FixCRC      bool   `toml:"fix_crc"`
	FixPosition bool   `toml:"fix_position"`
	Mode        string `toml:"mode"`         // what the input file holds
	DesiredMode string `toml:"desired_mode"` // what the output should hold
	PassLength  int    `toml:"pass_length"`  // sectors per engine pass
}

// ECC contains sector verification settings.
type ECC struct {
	Workers     int `toml:"workers"`
	MaxFailures int `toml:"max_failures"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level string `toml:"level"`
	Color string `toml:"color"`
}

// Config encapsulates all configuration values for discfix.
type Config struct {
	Subchannel Subchannel `toml:"subchannel"`
	ECC        ECC        `toml:"ecc"`
	Logging    Logging    `toml:"logging"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Subchannel: Subchannel{
			Fix:         false,
			FixCRC:      false,
			FixPosition: true,
			Mode:        "raw",
			DesiredMode: "raw",
			PassLength:  64,
		},
		ECC: ECC{
			Workers:     runtime.GOMAXPROCS(0),
			MaxFailures: 20,
		},
		Logging: Logging{
			Level: "info",
			Color: "auto",
		},
	}
}

// Load parses path over the defaults and validates the result. A missing
// file is not an error; the second return value reports whether it existed.
func Load(path string) (*Config, bool, error) {
	cfg := Default()
	if path == "" {
		return &cfg, false, nil
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &cfg, false, nil
		}
		return nil, false, common.FormatError(common.ErrFailedToLoadConfig, err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return nil, true, common.FormatError(common.ErrFailedToLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, true, err
	}
	return &cfg, true, nil
}

// Save writes c as TOML to path.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// EngineOptions converts the subchannel section into engine options.
func (c *Config) EngineOptions() (subchannel.Options, error) {
	supported, err := subchannel.ParseMode(c.Subchannel.Mode)
	if err != nil {
		return subchannel.Options{}, fmt.Errorf("%w: subchannel.mode: %v", ErrInvalidMode, err)
	}
	desired, err := subchannel.ParseMode(c.Subchannel.DesiredMode)
	if err != nil {
		return subchannel.Options{}, fmt.Errorf("%w: subchannel.desired_mode: %v", ErrInvalidMode, err)
	}
	return subchannel.Options{
		FixSubchannel:         c.Subchannel.Fix,
		FixSubchannelCRC:      c.Subchannel.FixCRC,
		FixSubchannelPosition: c.Subchannel.FixPosition,
		Supported:             supported,
		Desired:               desired,
	}, nil
}

// Verbosity maps the logging level to a logr verbosity.
func (c *Config) Verbosity() int {
	switch c.Logging.Level {
	case "debug":
		return common.LevelDebug
	case "trace":
		return common.LevelTrace
	default:
		return common.LevelInfo
	}
}
