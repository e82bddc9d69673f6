package config

import (
	"errors"
	"fmt"

	"github.com/hansbonini/discfix/pkg/subchannel"
)

// Validation errors
var (
	ErrInvalidMode       = errors.New("invalid subchannel mode")
	ErrInvalidPassLength = errors.New("subchannel.pass_length must be at least 1")
	ErrInvalidWorkers    = errors.New("ecc.workers must be at least 1")
	ErrInvalidLogLevel   = errors.New("logging.level must be info, debug or trace")
	ErrInvalidColor      = errors.New("logging.color must be auto, always or never")
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSubchannel(); err != nil {
		return err
	}
	if c.ECC.Workers < 1 {
		return ErrInvalidWorkers
	}
	if c.ECC.MaxFailures < 0 {
		return errors.New("ecc.max_failures must not be negative")
	}
	return c.validateLogging()
}

func (c *Config) validateSubchannel() error {
	supported, err := subchannel.ParseMode(c.Subchannel.Mode)
	if err != nil {
		return fmt.Errorf("%w: subchannel.mode %q", ErrInvalidMode, c.Subchannel.Mode)
	}
	if supported == subchannel.ModeNone {
		return fmt.Errorf("%w: subchannel.mode cannot be none", ErrInvalidMode)
	}
	if _, err := subchannel.ParseMode(c.Subchannel.DesiredMode); err != nil {
		return fmt.Errorf("%w: subchannel.desired_mode %q", ErrInvalidMode, c.Subchannel.DesiredMode)
	}
	if c.Subchannel.PassLength < 1 {
		return ErrInvalidPassLength
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "info", "debug", "trace":
	default:
		return ErrInvalidLogLevel
	}
	switch c.Logging.Color {
	case "auto", "always", "never":
	default:
		return ErrInvalidColor
	}
	return nil
}
