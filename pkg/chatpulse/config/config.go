// Package config loads chatpulse settings from YAML or TOML files and
// builds the components they describe.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/chatpulse/pkg/chatpulse/internalerr"
	"github.com/cognicore/chatpulse/pkg/chatpulse/report"
	"github.com/cognicore/chatpulse/pkg/chatpulse/topics"
)

// Config is the top-level settings file.
type Config struct {
	Extractor Extractor `yaml:"extractor" toml:"extractor"`
	Store     Store     `yaml:"store" toml:"store"`
	Report    Report    `yaml:"report" toml:"report"`
	Retention Retention `yaml:"retention" toml:"retention"`
	Log       Log       `yaml:"log" toml:"log"`
}

// Extractor configures tokenization, filtering and ranking.
type Extractor struct {
	TopN           int      `yaml:"top_n" toml:"top_n"`
	MinLength      int      `yaml:"min_length" toml:"min_length"`
	CommandPrefix  string   `yaml:"command_prefix" toml:"command_prefix"`
	Adjacency      string   `yaml:"adjacency" toml:"adjacency"` // "filtered" or "raw"
	StoplistPath   string   `yaml:"stoplist" toml:"stoplist"`
	Snowball       bool     `yaml:"snowball" toml:"snowball"`
	ExtraStopwords []string `yaml:"extra_stopwords" toml:"extra_stopwords"`
}

// Store selects the persistence backend.
type Store struct {
	Driver string `yaml:"driver" toml:"driver"` // "sqlite" or "memory"
	Path   string `yaml:"path" toml:"path"`
}

// Report configures weekly reports.
type Report struct {
	Format      string `yaml:"format" toml:"format"`
	MemberLimit int    `yaml:"member_limit" toml:"member_limit"`
	Timezone    string `yaml:"timezone" toml:"timezone"`
}

// Retention configures pruning.
type Retention struct {
	Days   int  `yaml:"days" toml:"days"`
	RollUp bool `yaml:"roll_up" toml:"roll_up"`
}

// Log configures the CLI logger.
type Log struct {
	Level string `yaml:"level" toml:"level"`
}

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Extractor: Extractor{
			TopN:          topics.DefaultTopN,
			MinLength:     topics.DefaultMinLength,
			CommandPrefix: topics.DefaultCommandPrefix,
			Adjacency:     topics.AdjacencyFiltered.String(),
		},
		Store: Store{
			Driver: DriverSQLite,
			Path:   "chatpulse.db",
		},
		Report: Report{
			Format:      string(report.FormatJSON),
			MemberLimit: 10,
			Timezone:    "UTC",
		},
		Retention: Retention{
			Days:   90,
			RollUp: true,
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Load reads a config file. The format follows the extension (.yaml, .yml
// or .toml). Fields absent from the file keep their Default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("%w: config extension %q", internalerr.ErrUnknownFormat, ext)
	}

	if cfg.Extractor.StoplistPath != "" && !filepath.IsAbs(cfg.Extractor.StoplistPath) {
		cfg.Extractor.StoplistPath = filepath.Join(filepath.Dir(path), cfg.Extractor.StoplistPath)
	}
	return cfg, cfg.Validate()
}

// TopicOptions converts the extractor section.
func (c Config) TopicOptions() (topics.Options, error) {
	adj, err := topics.ParseAdjacency(c.Extractor.Adjacency)
	if err != nil {
		return topics.Options{}, err
	}
	opts := topics.Options{
		MinLength:     c.Extractor.MinLength,
		CommandPrefix: c.Extractor.CommandPrefix,
		Adjacency:     adj,
	}
	return opts, opts.Validate()
}

// Location resolves the report timezone.
func (c Config) Location() (*time.Location, error) {
	if c.Report.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Report.Timezone)
	if err != nil {
		return nil, internalerr.InvalidConfig("timezone %q: %v", c.Report.Timezone, err)
	}
	return loc, nil
}

// RetentionPeriod is Retention.Days as a duration.
func (c Config) RetentionPeriod() time.Duration {
	return time.Duration(c.Retention.Days) * 24 * time.Hour
}

// Validate checks every section.
func (c Config) Validate() error {
	if c.Extractor.TopN < 0 {
		return internalerr.InvalidConfig("extractor.top_n must not be negative")
	}
	if _, err := c.TopicOptions(); err != nil {
		return err
	}
	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.Path == "" {
			return internalerr.InvalidConfig("store.path is required for the sqlite driver")
		}
	case DriverMemory:
	default:
		return internalerr.InvalidConfig("unknown store driver %q", c.Store.Driver)
	}
	if _, err := report.ParseFormat(c.Report.Format); err != nil {
		return internalerr.InvalidConfig("report.format: %v", err)
	}
	if c.Report.MemberLimit < 0 {
		return internalerr.InvalidConfig("report.member_limit must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Retention.Days < 0 {
		return internalerr.InvalidConfig("retention.days must not be negative")
	}
	return nil
}

// Stoplist represents the stopword list configuration
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist loads stopwords from a YAML file
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, err
	}

	return &sl, nil
}

// SaveStoplist writes terms as a YAML stoplist readable by LoadStoplist.
func SaveStoplist(path string, terms []string) error {
	data, err := yaml.Marshal(Stoplist{Terms: terms})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
