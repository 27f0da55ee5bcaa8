package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	apperrors "github.com/msto63/etlap/pkg/core/errors"
)

// EnvConfigPath names the environment variable holding the config file path
const EnvConfigPath = "ETLAP_CONFIG"

// Config holds the complete application configuration
type Config struct {
	General GeneralConfig `toml:"general" yaml:"general"`
	Input   InputConfig   `toml:"input" yaml:"input"`
	Output  OutputConfig  `toml:"output" yaml:"output"`
	Parser  ParserConfig  `toml:"parser" yaml:"parser"`
	Store   StoreConfig   `toml:"store" yaml:"store"`
	Watch   WatchConfig   `toml:"watch" yaml:"watch"`

	// Path of the file the configuration was loaded from
	Source string `toml:"-" yaml:"-"`
}

// GeneralConfig holds general application settings
type GeneralConfig struct {
	LogLevel  string `toml:"log_level" yaml:"log_level"`
	LogFormat string `toml:"log_format" yaml:"log_format"`
}

// InputConfig describes the menu document to read
type InputConfig struct {
	Path string `toml:"path" yaml:"path"`

	// RowFilter is a regular expression matched against row headers.
	// Rows whose header does not match are dropped. Empty keeps all rows.
	RowFilter string `toml:"row_filter" yaml:"row_filter"`
}

// OutputConfig describes the export file
type OutputConfig struct {
	Path      string `toml:"path" yaml:"path"`
	Format    string `toml:"format" yaml:"format"`
	Delimiter string `toml:"delimiter" yaml:"delimiter"`
	Header    *bool  `toml:"header" yaml:"header"`
}

// ParserConfig holds parsing settings
type ParserConfig struct {
	Workers int `toml:"workers" yaml:"workers"`
}

// StoreConfig holds the SQLite archive settings
type StoreConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Path    string `toml:"path" yaml:"path"`
}

// WatchConfig holds settings of the watch command
type WatchConfig struct {
	Debounce Duration `toml:"debounce" yaml:"debounce"`
}

// Duration wraps time.Duration for TOML and YAML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalYAML parses a duration string from YAML
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}

// Default returns a configuration with all defaults applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a TOML or YAML file. The format is chosen by
// file extension; anything but .yaml/.yml is read as TOML.
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, apperrors.Newf("config file not found: %s", path).
			WithCode(apperrors.CodeMissingConfig).
			WithOperation("config.Load").
			WithDetail("path", path)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read config file").
			WithCode(apperrors.CodeConfigError).
			WithOperation("config.Load").
			WithDetail("path", path)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		_, err = toml.Decode(string(data), &cfg)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse config").
			WithCode(apperrors.CodeInvalidConfig).
			WithOperation("config.Load").
			WithDetail("path", path)
	}

	cfg.Source = path
	cfg.applyDefaults()
	cfg.expandEnvVars()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromEnv loads configuration from ETLAP_CONFIG or the default locations
func LoadFromEnv() (*Config, error) {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		path = findDefault()
	}
	if path == "" {
		return nil, apperrors.New("no config file found, set " + EnvConfigPath + " or create config.toml").
			WithCode(apperrors.CodeMissingConfig).
			WithOperation("config.LoadFromEnv")
	}
	return Load(path)
}

// DefaultPaths returns the locations searched when no path is given
func DefaultPaths() []string {
	return []string{
		"./config.toml",
		"./configs/config.toml",
		filepath.Join(os.Getenv("HOME"), ".config/etlap/config.toml"),
	}
}

func findDefault() string {
	for _, p := range DefaultPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	if c.General.LogLevel == "" {
		c.General.LogLevel = "info"
	}
	if c.General.LogFormat == "" {
		c.General.LogFormat = "text"
	}

	if c.Output.Format == "" {
		c.Output.Format = "csv"
	}
	if c.Output.Delimiter == "" {
		c.Output.Delimiter = ";"
	}
	if c.Output.Header == nil {
		header := true
		c.Output.Header = &header
	}

	if c.Parser.Workers <= 0 {
		c.Parser.Workers = 1
	}

	if c.Store.Path == "" {
		c.Store.Path = "./data/etlap.db"
	}

	if c.Watch.Debounce.Duration == 0 {
		c.Watch.Debounce.Duration = 500 * time.Millisecond
	}
}

// expandEnvVars expands environment variables in path values
func (c *Config) expandEnvVars() {
	c.Input.Path = os.ExpandEnv(c.Input.Path)
	c.Output.Path = os.ExpandEnv(c.Output.Path)
	c.Store.Path = os.ExpandEnv(c.Store.Path)
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	invalid := func(msg, key string, value interface{}) error {
		return apperrors.New(msg).
			WithCode(apperrors.CodeInvalidConfig).
			WithOperation("config.Validate").
			WithDetail("key", key).
			WithDetail("value", value)
	}

	if utf8.RuneCountInString(c.Output.Delimiter) != 1 {
		return invalid("delimiter must be a single character", "output.delimiter", c.Output.Delimiter)
	}
	switch c.Delimiter() {
	case '"', '\r', '\n', utf8.RuneError:
		return invalid("delimiter not usable in delimited output", "output.delimiter", c.Output.Delimiter)
	}

	switch strings.ToLower(c.Output.Format) {
	case "csv", "json", "yaml":
	default:
		return invalid("unsupported output format", "output.format", c.Output.Format)
	}

	if _, err := c.RowFilter(); err != nil {
		return apperrors.Wrap(err, "invalid row filter").
			WithCode(apperrors.CodeInvalidConfig).
			WithOperation("config.Validate").
			WithDetail("key", "input.row_filter")
	}

	if c.Watch.Debounce.Duration < 0 {
		return invalid("debounce must not be negative", "watch.debounce", c.Watch.Debounce.String())
	}
	return nil
}

// Delimiter returns the output delimiter as a rune
func (c *Config) Delimiter() rune {
	r, _ := utf8.DecodeRuneInString(c.Output.Delimiter)
	return r
}

// WriteHeader reports whether the CSV header line is written
func (c *Config) WriteHeader() bool {
	return c.Output.Header == nil || *c.Output.Header
}

// RowFilter compiles the row filter; nil means no filtering
func (c *Config) RowFilter() (*regexp.Regexp, error) {
	if c.Input.RowFilter == "" {
		return nil, nil
	}
	return regexp.Compile(c.Input.RowFilter)
}
