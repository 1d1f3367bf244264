// Package config loads the settings shared by the tftlcd command and its
// remote-control server.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/flavioheleno/tftlcd"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"
)

// DefaultPath is where the command looks for its configuration file.
const DefaultPath = "/etc/tftlcd/config.yaml"

// Config holds all tool configuration.
type Config struct {
	Device  DeviceConfig  `yaml:"device"`
	Serial  SerialConfig  `yaml:"serial"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

type DeviceConfig struct {
	// I2C bus name, empty for the first one.
	Bus string `yaml:"bus"`
	// 7-bit address, 0 for the default.
	Address  uint16 `yaml:"address" validate:"lte=127"`
	Protocol string `yaml:"protocol" validate:"omitempty,oneof=v1 v2"`
	// Bus clock, 0 keeps the driver's.
	SpeedKHz int64 `yaml:"speed_khz" validate:"gte=0,lte=3400"`

	// Overrides of the protocol's timing.
	BootDelay    *time.Duration `yaml:"boot_delay,omitempty" validate:"omitempty,gte=0"`
	CommandDelay *time.Duration `yaml:"command_delay,omitempty" validate:"omitempty,gte=0"`
	SettleDelay  *time.Duration `yaml:"settle_delay,omitempty" validate:"omitempty,gte=0"`
}

// SerialConfig selects a USB-serial bridge instead of the I2C bus when Port
// is set.
type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud" validate:"gt=0"`
}

type ServerConfig struct {
	Listen      string   `yaml:"listen" validate:"required"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error"`
	File  string `yaml:"file"`
}

// Default returns a config with sensible defaults.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			Address:  tftlcd.DefaultAddress,
			Protocol: tftlcd.ProtocolV2.String(),
		},
		Serial: SerialConfig{
			Baud: 115200,
		},
		Server: ServerConfig{
			Listen:      "127.0.0.1:7070",
			CORSOrigins: []string{"*"},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads the YAML file at path from fsys, then applies environment
// overrides and validates the result. A missing file leaves the defaults in
// place.
func Load(fsys afero.Fs, path string) (*Config, error) {
	cfg := Default()

	data, err := afero.ReadFile(fsys, path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Debug().Str("path", path).Msg("config: no config file, using defaults")
	case err != nil:
		return nil, fmt.Errorf("config: %w", err)
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
		log.Debug().Str("path", path).Msg("config: loaded")
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field against its documented range.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s failed %s %s", fe.Namespace(), fe.Tag(), fe.Param())
			}
			return fmt.Errorf("config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// applyEnvOverrides reads TFTLCD_* environment variables over the file values.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("TFTLCD_BUS"); v != "" {
		c.Device.Bus = v
	}
	if v := os.Getenv("TFTLCD_ADDR"); v != "" {
		n, err := strconv.ParseUint(v, 0, 16)
		if err != nil {
			return fmt.Errorf("config: TFTLCD_ADDR: %w", err)
		}
		c.Device.Address = uint16(n)
	}
	if v := os.Getenv("TFTLCD_PROTOCOL"); v != "" {
		c.Device.Protocol = v
	}
	if v := os.Getenv("TFTLCD_SERIAL"); v != "" {
		c.Serial.Port = v
	}
	if v := os.Getenv("TFTLCD_BAUD"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: TFTLCD_BAUD: %w", err)
		}
		c.Serial.Baud = n
	}
	if v := os.Getenv("TFTLCD_LISTEN"); v != "" {
		c.Server.Listen = v
	}
	if v := os.Getenv("TFTLCD_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("TFTLCD_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
	return nil
}

// Opts returns the driver options for the configured device.
func (c *Config) Opts() (*tftlcd.Opts, error) {
	p, err := tftlcd.ParseProtocol(c.Device.Protocol)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	opts := tftlcd.DefaultOpts(p)
	if c.Device.Address != 0 {
		opts.Addr = c.Device.Address
	}
	if d := c.Device.BootDelay; d != nil {
		opts.BootDelay = *d
	}
	if d := c.Device.CommandDelay; d != nil {
		opts.CommandDelay = *d
	}
	if d := c.Device.SettleDelay; d != nil {
		opts.SettleDelay = *d
	}
	return opts, nil
}

// BusSpeed returns the requested I2C clock, or 0 to leave the bus alone.
func (c *Config) BusSpeed() physic.Frequency {
	return physic.Frequency(c.Device.SpeedKHz) * physic.KiloHertz
}
