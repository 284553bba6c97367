package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/xeptore/soundbridge/redact"
)

const (
	PlaybackMethodStream   = "stream"
	PlaybackMethodDownload = "download"
)

type Config struct {
	Log   Log   `yaml:"log"`
	API   API   `yaml:"api"`
	Cache Cache `yaml:"cache"`
}

func (c *Config) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Dict("log", c.Log.ToDict()).
		Dict("api", c.API.ToDict()).
		Dict("cache", c.Cache.ToDict())
}

func (c *Config) setDefaults() {
	c.Log.setDefaults()
	c.API.setDefaults()
	c.Cache.setDefaults()
}

func (c *Config) validate() error {
	if err := c.Log.validate(); nil != err {
		return fmt.Errorf("log config validation failed: %v", err)
	}

	if err := c.API.validate(); nil != err {
		return fmt.Errorf("api config validation failed: %v", err)
	}

	if err := c.Cache.validate(); nil != err {
		return fmt.Errorf("cache config validation failed: %v", err)
	}

	return nil
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Log) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Str("level", c.Level).
		Str("format", c.Format)
}

func (c *Log) setDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}

	if c.Format == "" {
		c.Format = "pretty"
	}
}

func (c *Log) validate() error {
	if !slices.Contains([]string{"debug", "info", "warn", "error", "fatal", "panic"}, c.Level) {
		return fmt.Errorf(
			"level must be one of: debug, info, warn, error, fatal, panic, got: %s",
			c.Level,
		)
	}

	if !slices.Contains([]string{"json", "pretty"}, c.Format) {
		return fmt.Errorf("format must be 'json' or 'pretty', got: %s", c.Format)
	}

	return nil
}

type API struct {
	// Key is the OAuth credential. Empty means anonymous mode: authenticated
	// menu branches are hidden and server-side anonymous limits apply.
	Key            string      `yaml:"-"`
	ClientID       string      `yaml:"client_id"`
	BaseURL        string      `yaml:"base_url"`
	PlaybackMethod string      `yaml:"playback_method"`
	RateLimit      float64     `yaml:"rate_limit"`
	Timeouts       APITimeouts `yaml:"timeouts"`
}

func (c *API) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Str("key", redact.String(c.Key)).
		Str("client_id", redact.String(c.ClientID)).
		Str("base_url", c.BaseURL).
		Str("playback_method", c.PlaybackMethod).
		Float64("rate_limit", c.RateLimit).
		Dict("timeouts", c.Timeouts.ToDict())
}

func (c *API) setDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.soundcloud.com"
	}

	if c.PlaybackMethod == "" {
		c.PlaybackMethod = PlaybackMethodStream
	}

	if c.RateLimit == 0 {
		c.RateLimit = 5
	}

	c.Timeouts.setDefaults()
}

func (c *API) validate() error {
	if !slices.Contains([]string{PlaybackMethodStream, PlaybackMethodDownload}, c.PlaybackMethod) {
		return fmt.Errorf("playback_method must be 'stream' or 'download', got: %s", c.PlaybackMethod)
	}

	if c.RateLimit < 0 {
		return errors.New("rate_limit must be greater than 0")
	}

	if err := c.Timeouts.validate(); nil != err {
		return fmt.Errorf("timeouts config validation failed: %v", err)
	}

	return nil
}

// Authenticated reports whether a credential is configured.
func (c *API) Authenticated() bool {
	return c.Key != ""
}

type APITimeouts struct {
	Browse        int `yaml:"browse"`
	GetDescriptor int `yaml:"get_descriptor"`
	RedirectProbe int `yaml:"redirect_probe"`
}

func (c *APITimeouts) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Int("browse", c.Browse).
		Int("get_descriptor", c.GetDescriptor).
		Int("redirect_probe", c.RedirectProbe)
}

func (c *APITimeouts) setDefaults() {
	if c.Browse == 0 {
		c.Browse = 35
	}

	if c.GetDescriptor == 0 {
		c.GetDescriptor = 5
	}

	if c.RedirectProbe == 0 {
		c.RedirectProbe = 10
	}
}

func (c *APITimeouts) validate() error {
	if c.Browse < 0 {
		return errors.New("browse must be greater than 0")
	}

	if c.GetDescriptor < 0 {
		return errors.New("get_descriptor must be greater than 0")
	}

	if c.RedirectProbe < 0 {
		return errors.New("redirect_probe must be greater than 0")
	}

	return nil
}

type Cache struct {
	MetadataTTL Duration `yaml:"metadata_ttl"`
}

func (c *Cache) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Str("metadata_ttl", c.MetadataTTL.String())
}

func (c *Cache) setDefaults() {
	if c.MetadataTTL.Duration == 0 {
		c.MetadataTTL.Duration = 24 * time.Hour
	}
}

func (c *Cache) validate() error {
	if c.MetadataTTL.Duration < 0 {
		return errors.New("metadata_ttl must be greater than 0")
	}

	return nil
}

type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return fmt.Errorf("failed to parse duration: %v", err)
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("failed to parse duration: %v", err)
	}

	d.Duration = parsed

	return nil
}

func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(lo.Ternary(len(filename) > 0, filename, "config.yaml"))
	if nil != err {
		return nil, fmt.Errorf("failed to read config file %s: %v", filename, err)
	}

	var conf Config
	if err := yaml.Unmarshal(data, &conf); nil != err {
		return nil, fmt.Errorf("failed to parse config file %s: %v", filename, err)
	}

	conf.API.Key = os.Getenv("SOUNDCLOUD_API_KEY")
	conf.setDefaults()

	if err := conf.validate(); nil != err {
		return nil, fmt.Errorf("configuration validation failed: %v", err)
	}

	return &conf, nil
}
