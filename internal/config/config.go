// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package config loads the fliplot configuration from YAML or TOML files and
// environment variables.
//
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/raczben/fliplot-sub000/internal/logging"
	"github.com/raczben/fliplot-sub000/radix"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of all environment variables read by Load.
const EnvPrefix = "FLIPLOT_"

// Config contains all fliplot settings.
//
type Config struct {
	Logging LoggingConfig `json:"logging" yaml:"logging" toml:"logging"`
	Parser  ParserConfig  `json:"parser" yaml:"parser" toml:"parser"`
	Display DisplayConfig `json:"display" yaml:"display" toml:"display"`
	Zoom    ZoomConfig    `json:"zoom" yaml:"zoom" toml:"zoom"`
	Server  ServerConfig  `json:"server" yaml:"server" toml:"server"`
	Watch   WatchConfig   `json:"watch" yaml:"watch" toml:"watch"`
}

// LoggingConfig configures the operational log written to stderr.
//
type LoggingConfig struct {
	// Level is one of trace, debug, info (default), warn or error.
	Level string `json:"level" yaml:"level" toml:"level" validate:"loglevel"`
	// Format is "text" (default) or "json".
	Format string `json:"format" yaml:"format" toml:"format" validate:"omitempty,oneof=text json"`
}

// ParserConfig configures VCD loading.
//
type ParserConfig struct {
	// KeepDuplicates keeps value changes equal to the previous value.
	KeepDuplicates bool `json:"keep_duplicates" yaml:"keep_duplicates" toml:"keep_duplicates"`
	// PadInitial prepends an all-x change at time 0 to signals that start later.
	PadInitial bool `json:"pad_initial" yaml:"pad_initial" toml:"pad_initial"`
}

// DisplayConfig configures value rendering.
//
type DisplayConfig struct {
	// Radix is the default radix name or alias (bin, hex, u0, signed, ...).
	Radix string `json:"radix" yaml:"radix" toml:"radix" validate:"radix"`
	// Color is auto (default), always or never.
	Color string `json:"color" yaml:"color" toml:"color" validate:"omitempty,oneof=auto always never"`
}

// ZoomConfig configures zoom compression of dense waves.
//
type ZoomConfig struct {
	// Changes is the number of changes above which a span is compressed.
	Changes int `json:"changes" yaml:"changes" toml:"changes" validate:"gte=1"`
	// Pixels is the width of the span in pixels.
	Pixels float64 `json:"pixels" yaml:"pixels" toml:"pixels" validate:"gt=0"`
}

// ServerConfig configures the HTTP server.
//
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" toml:"addr"`
	// MaxUploadBytes limits the size of uploaded VCD files.
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes" toml:"max_upload_bytes" validate:"gt=0"`
	// Debug enables gin debug mode.
	Debug bool `json:"debug" yaml:"debug" toml:"debug"`
}

// WatchConfig configures the watch command.
//
type WatchConfig struct {
	// Debounce is the quiet period after a write before a file is reloaded.
	Debounce time.Duration `json:"debounce" yaml:"debounce" toml:"debounce" validate:"gte=0"`
}

// Default returns a Config with default settings.
//
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Parser:  ParserConfig{PadInitial: true},
		Display: DisplayConfig{Radix: "bin", Color: "auto"},
		Zoom:    ZoomConfig{Changes: 6, Pixels: 6},
		Server:  ServerConfig{Addr: ":8080", MaxUploadBytes: 64 << 20},
		Watch:   WatchConfig{Debounce: 200 * time.Millisecond},
	}
}

// Load returns the default configuration, overridden by the contents of the
// file at path if path is not empty, then by FLIPLOT_* environment variables.
//
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		var err error
		if c, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	if err := applyEnvOverrides(c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFromFile loads a configuration file. Files with a .toml extension are
// decoded as TOML, all others as YAML. Missing settings keep their default
// value.
//
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}
	c := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err = toml.Decode(string(data), c); err != nil {
			return nil, errors.Wrapf(err, "parsing config file %s", path)
		}
	default:
		if err = yaml.Unmarshal(data, c); err != nil {
			return nil, errors.Wrapf(err, "parsing config file %s", path)
		}
	}
	return c, nil
}

// Radix returns the parsed default display radix and its prefix.
//
func (c *Config) Radix() (radix.Radix, string, error) {
	name, prefix := radix.Alias(c.Display.Radix)
	r, err := radix.ParseRadix(name)
	return r, prefix, err
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("loglevel", func(f validator.FieldLevel) bool {
		return logging.ValidLevel(f.Field().String())
	})
	_ = v.RegisterValidation("radix", func(f validator.FieldLevel) bool {
		name, _ := radix.Alias(f.Field().String())
		_, err := radix.ParseRadix(name)
		return err == nil
	})
	return v
}

// Validate checks that the configuration is valid. The error names the first
// invalid setting.
//
func (c *Config) Validate() error {
	err := validate.Struct(c)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		e := verrs[0]
		return errors.Errorf("invalid %s: %v (rule %s)", strings.ToLower(strings.TrimPrefix(e.Namespace(), "Config.")), e.Value(), e.ActualTag())
	}
	return errors.Wrap(err, "validate config")
}

func envBool(v string) bool {
	return v == "true" || v == "1"
}

func applyEnvOverrides(c *Config) error {
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv(EnvPrefix + "KEEP_DUPLICATES"); v != "" {
		c.Parser.KeepDuplicates = envBool(v)
	}
	if v := os.Getenv(EnvPrefix + "PAD_INITIAL"); v != "" {
		c.Parser.PadInitial = envBool(v)
	}
	if v := os.Getenv(EnvPrefix + "RADIX"); v != "" {
		c.Display.Radix = v
	}
	if v := os.Getenv(EnvPrefix + "COLOR"); v != "" {
		c.Display.Color = v
	}
	if v := os.Getenv(EnvPrefix + "ZOOM_CHANGES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, EnvPrefix+"ZOOM_CHANGES")
		}
		c.Zoom.Changes = n
	}
	if v := os.Getenv(EnvPrefix + "ZOOM_PIXELS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.Wrap(err, EnvPrefix+"ZOOM_PIXELS")
		}
		c.Zoom.Pixels = f
	}
	if v := os.Getenv(EnvPrefix + "SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(EnvPrefix + "WATCH_DEBOUNCE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrap(err, EnvPrefix+"WATCH_DEBOUNCE")
		}
		c.Watch.Debounce = d
	}
	return nil
}
