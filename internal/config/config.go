// Package config loads contrastlens settings from an optional YAML file,
// CONTRASTLENS_* environment variables and command-line flags, in that order
// of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/jmylchreest/contrastlens/internal/colour"
	"github.com/jmylchreest/contrastlens/internal/contrast"
	"github.com/jmylchreest/contrastlens/internal/logging"
)

// EnvPrefix is prepended to upper-cased keys to form environment variable names.
const EnvPrefix = "CONTRASTLENS_"

// Defaults.
const (
	DefaultThreshold       = 1.0
	DefaultMaxImageBytes   = 20 * 1024 * 1024
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 8080
	DefaultRequestTimeout  = 30 * time.Second
	DefaultAnalysisTimeout = 20 * time.Second
	DefaultFetchTimeout    = 10 * time.Second
	DefaultLogLevel        = "info"
	DefaultOverlayColor    = "#ff3b30"
)

var (
	ErrInvalidWorkers       = errors.New("workers must be at least 1")
	ErrInvalidMaxImageBytes = errors.New("max_image_bytes must be positive")
	ErrInvalidPort          = errors.New("port must be between 1 and 65535")
	ErrInvalidTimeout       = errors.New("timeouts must be positive")
	ErrInvalidLogLevel      = errors.New("log_level must be one of trace, debug, info, warn, error, off")
)

// Config holds all runtime settings.
type Config struct {
	BlockSize     int     `koanf:"block_size"`
	Workers       int     `koanf:"workers"`
	Threshold     float64 `koanf:"threshold"`
	MaxImageBytes int64   `koanf:"max_image_bytes"`

	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
	AnalysisTimeout time.Duration `koanf:"analysis_timeout"`
	FetchTimeout    time.Duration `koanf:"fetch_timeout"`

	LogLevel string `koanf:"log_level"`
	LogJSON  bool   `koanf:"log_json"`

	OverlayColor string `koanf:"overlay_color"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		BlockSize:       contrast.DefaultBlockSize,
		Workers:         runtime.NumCPU(),
		Threshold:       DefaultThreshold,
		MaxImageBytes:   DefaultMaxImageBytes,
		Host:            DefaultHost,
		Port:            DefaultPort,
		RequestTimeout:  DefaultRequestTimeout,
		AnalysisTimeout: DefaultAnalysisTimeout,
		FetchTimeout:    DefaultFetchTimeout,
		LogLevel:        DefaultLogLevel,
		OverlayColor:    DefaultOverlayColor,
	}
}

// Load builds a Config from defaults, the YAML file at path (if non-empty)
// and the environment. All parse and validation problems are returned together.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	var errs []error
	cfg := Default()
	cfg.BlockSize = intValue(k, "block_size", cfg.BlockSize, &errs)
	cfg.Workers = intValue(k, "workers", cfg.Workers, &errs)
	cfg.Threshold = floatValue(k, "threshold", cfg.Threshold, &errs)
	cfg.MaxImageBytes = int64(intValue(k, "max_image_bytes", int(cfg.MaxImageBytes), &errs))
	cfg.Host = stringValue(k, "host", cfg.Host)
	cfg.Port = intValue(k, "port", cfg.Port, &errs)
	cfg.RequestTimeout = durationValue(k, "request_timeout", cfg.RequestTimeout, &errs)
	cfg.AnalysisTimeout = durationValue(k, "analysis_timeout", cfg.AnalysisTimeout, &errs)
	cfg.FetchTimeout = durationValue(k, "fetch_timeout", cfg.FetchTimeout, &errs)
	cfg.LogLevel = stringValue(k, "log_level", cfg.LogLevel)
	cfg.LogJSON = boolValue(k, "log_json", cfg.LogJSON, &errs)
	cfg.OverlayColor = stringValue(k, "overlay_color", cfg.OverlayColor)

	errs = append(errs, cfg.Validate())
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyFlags overrides settings with any of the following flags that were set
// explicitly: block-size, workers, threshold, max-image-bytes, host,
// port, log-level, log-json, overlay-color. Unknown flags are ignored.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	var errs []error
	changed := func(name string) bool {
		f := fs.Lookup(name)
		return f != nil && f.Changed
	}
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	var err error
	if changed("block-size") {
		c.BlockSize, err = fs.GetInt("block-size")
		collect(err)
	}
	if changed("workers") {
		c.Workers, err = fs.GetInt("workers")
		collect(err)
	}
	if changed("threshold") {
		c.Threshold, err = fs.GetFloat64("threshold")
		collect(err)
	}
	if changed("max-image-bytes") {
		c.MaxImageBytes, err = fs.GetInt64("max-image-bytes")
		collect(err)
	}
	if changed("host") {
		c.Host, err = fs.GetString("host")
		collect(err)
	}
	if changed("port") {
		c.Port, err = fs.GetInt("port")
		collect(err)
	}
	if changed("log-level") {
		c.LogLevel, err = fs.GetString("log-level")
		collect(err)
	}
	if changed("log-json") {
		c.LogJSON, err = fs.GetBool("log-json")
		collect(err)
	}
	if changed("overlay-color") {
		c.OverlayColor, err = fs.GetString("overlay-color")
		collect(err)
	}

	errs = append(errs, c.Validate())
	return errors.Join(errs...)
}

// Validate returns every problem with the configuration, joined.
func (c *Config) Validate() error {
	var errs []error

	if err := contrast.ValidateBlockSize(c.BlockSize); err != nil {
		errs = append(errs, err)
	}
	if c.Workers < 1 {
		errs = append(errs, ErrInvalidWorkers)
	}
	if err := contrast.ValidateThreshold(c.Threshold); err != nil {
		errs = append(errs, err)
	}
	if c.MaxImageBytes <= 0 {
		errs = append(errs, ErrInvalidMaxImageBytes)
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, ErrInvalidPort)
	}
	if c.RequestTimeout <= 0 || c.AnalysisTimeout <= 0 || c.FetchTimeout <= 0 {
		errs = append(errs, ErrInvalidTimeout)
	}
	if !logging.ValidLevel(c.LogLevel) {
		errs = append(errs, fmt.Errorf("%w: got %q", ErrInvalidLogLevel, c.LogLevel))
	}
	if _, err := colour.ParseHex(c.OverlayColor); err != nil {
		errs = append(errs, fmt.Errorf("overlay_color: %w", err))
	}

	return errors.Join(errs...)
}

// Overlay returns the parsed overlay colour, or the default on error.
func (c *Config) Overlay() colour.RGB {
	rgb, err := colour.ParseHex(c.OverlayColor)
	if err != nil {
		rgb, _ = colour.ParseHex(DefaultOverlayColor)
	}
	return rgb
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogSummary returns the settings as strings for startup logging.
func (c *Config) LogSummary() map[string]string {
	return map[string]string{
		"block_size":       strconv.Itoa(c.BlockSize),
		"workers":          strconv.Itoa(c.Workers),
		"threshold":        strconv.FormatFloat(c.Threshold, 'f', -1, 64),
		"max_image_bytes":  strconv.FormatInt(c.MaxImageBytes, 10),
		"addr":             c.Addr(),
		"request_timeout":  c.RequestTimeout.String(),
		"analysis_timeout": c.AnalysisTimeout.String(),
		"fetch_timeout":    c.FetchTimeout.String(),
		"log_level":        c.LogLevel,
		"log_json":         strconv.FormatBool(c.LogJSON),
		"overlay_color":    c.OverlayColor,
	}
}

// EnvKey returns the environment variable name for a config key.
func EnvKey(key string) string {
	return EnvPrefix + strings.ToUpper(key)
}

func lookupEnv(key string) (string, bool) {
	val := strings.TrimSpace(os.Getenv(EnvKey(key)))
	return val, val != ""
}

func stringValue(k *koanf.Koanf, key, def string) string {
	if val, ok := lookupEnv(key); ok {
		return val
	}
	if k.Exists(key) {
		return k.String(key)
	}
	return def
}

func intValue(k *koanf.Koanf, key string, def int, errs *[]error) int {
	if val, ok := lookupEnv(key); ok {
		i, err := strconv.Atoi(val)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("%s must be a valid integer: %w", EnvKey(key), err))
			return def
		}
		return i
	}
	if k.Exists(key) {
		return k.Int(key)
	}
	return def
}

func floatValue(k *koanf.Koanf, key string, def float64, errs *[]error) float64 {
	if val, ok := lookupEnv(key); ok {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("%s must be a valid number: %w", EnvKey(key), err))
			return def
		}
		return f
	}
	if k.Exists(key) {
		return k.Float64(key)
	}
	return def
}

func boolValue(k *koanf.Koanf, key string, def bool, errs *[]error) bool {
	if val, ok := lookupEnv(key); ok {
		switch strings.ToLower(val) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		default:
			*errs = append(*errs, fmt.Errorf("%s must be a boolean, got %q", EnvKey(key), val))
			return def
		}
	}
	if k.Exists(key) {
		return k.Bool(key)
	}
	return def
}

func durationValue(k *koanf.Koanf, key string, def time.Duration, errs *[]error) time.Duration {
	raw, ok := lookupEnv(key)
	if !ok {
		if !k.Exists(key) {
			return def
		}
		raw = k.String(key)
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s must be a duration such as 30s: %w", key, err))
		return def
	}
	return d
}
