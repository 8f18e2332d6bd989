// Package config loads and validates tcpconnect settings.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// command-line flags that were set explicitly.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// validate is a package-level singleton; building a validator is expensive.
var validate = validator.New()

// Config holds everything the client needs for one connection attempt
type Config struct {
	Address        string        `yaml:"address" validate:"required,ipv4"`
	Port           uint16        `yaml:"port" validate:"required"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" validate:"gte=0s"`
	IOTimeout      time.Duration `yaml:"io_timeout" validate:"gte=0s"`
	Linger         time.Duration `yaml:"linger" validate:"gte=0s"`
	Engine         string        `yaml:"engine" validate:"oneof=poll iouring ring"`
	Payload        string        `yaml:"payload"`
	LogLevel       string        `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat      string        `yaml:"log_format" validate:"oneof=text json"`
}

// Default returns the settings used when nothing else is given
func Default() Config {
	return Config{
		Address:        "127.0.0.1",
		Port:           8080,
		ConnectTimeout: 5 * time.Second,
		IOTimeout:      5 * time.Second,
		Linger:         2 * time.Second,
		Engine:         "poll",
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// Load returns the defaults overlaid with the YAML file at path.
// An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := Parse(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Parse unmarshals YAML into cfg, keeping fields the document omits.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

// Validate checks cfg against its field rules
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Flags holds command-line overrides registered on a FlagSet
type Flags struct {
	fs     *flag.FlagSet
	values Config
	port   uint
}

// RegisterFlags defines the override flags on fs
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	def := Default()

	fs.StringVar(&f.values.Address, "addr", def.Address, "IPv4 address to connect to")
	fs.UintVar(&f.port, "port", uint(def.Port), "TCP port to connect to")
	fs.DurationVar(&f.values.ConnectTimeout, "connect-timeout", def.ConnectTimeout, "Connect timeout (0 waits indefinitely)")
	fs.DurationVar(&f.values.IOTimeout, "io-timeout", def.IOTimeout, "Send/receive timeout (0 waits indefinitely)")
	fs.DurationVar(&f.values.Linger, "linger", def.Linger, "Delay before exit")
	fs.StringVar(&f.values.Engine, "engine", def.Engine, "I/O engine: poll, iouring or ring")
	fs.StringVar(&f.values.Payload, "payload", def.Payload, "Bytes to send after connecting")
	fs.StringVar(&f.values.LogLevel, "log-level", def.LogLevel, "Log level: debug, info, warn or error")
	fs.StringVar(&f.values.LogFormat, "log-format", def.LogFormat, "Log format: text or json")

	return f
}

// Apply copies the flags that were set explicitly into cfg.
// It must be called after the FlagSet is parsed.
func (f *Flags) Apply(cfg *Config) error {
	var err error
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "addr":
			cfg.Address = f.values.Address
		case "port":
			if f.port > 65535 {
				err = fmt.Errorf("port %d out of range", f.port)
				return
			}
			cfg.Port = uint16(f.port)
		case "connect-timeout":
			cfg.ConnectTimeout = f.values.ConnectTimeout
		case "io-timeout":
			cfg.IOTimeout = f.values.IOTimeout
		case "linger":
			cfg.Linger = f.values.Linger
		case "engine":
			cfg.Engine = f.values.Engine
		case "payload":
			cfg.Payload = f.values.Payload
		case "log-level":
			cfg.LogLevel = f.values.LogLevel
		case "log-format":
			cfg.LogFormat = f.values.LogFormat
		}
	})
	return err
}
