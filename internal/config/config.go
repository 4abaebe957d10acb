package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"go-data-prep/internal/model"
	"go-data-prep/pkg/errors"
	"go-data-prep/pkg/utils"

	"github.com/spf13/viper"
)

// DefaultConfigFile is looked up in the working directory when no explicit
// config path is given.
const DefaultConfigFile = "prepare.toml"

// Config is the full application configuration.
type Config struct {
	OutputDir string        `mapstructure:"output_dir"`
	Strict    bool          `mapstructure:"strict"`
	Jobs      []model.Job   `mapstructure:"jobs"`
	History   HistoryConfig `mapstructure:"history"`
	Server    ServerConfig  `mapstructure:"server"`
	Log       LogConfig     `mapstructure:"log"`
}

// HistoryConfig controls the SQLite run history. An empty path disables it.
type HistoryConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string `mapstructure:"addr"`
	ShutdownTimeout string `mapstructure:"shutdown_timeout"`
	MaxBodyMB       int64  `mapstructure:"max_body_mb"`
}

// LogConfig configures logging output.
type LogConfig struct {
	JSON    bool `mapstructure:"json"`
	Verbose bool `mapstructure:"verbose"`
}

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("output_dir", ".")
	v.SetDefault("strict", true) // abort a job on the first malformed line

	jobs := make([]map[string]interface{}, 0, 2)
	for _, j := range model.DefaultJobs() {
		jobs = append(jobs, map[string]interface{}{
			"name":   j.Name,
			"source": j.Source,
			"dest":   j.Dest,
			"fields": j.Fields,
		})
	}
	v.SetDefault("jobs", jobs)

	v.SetDefault("history.path", "") // opt-in; a plain run writes nothing but its CSV files

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.max_body_mb", 64)

	v.SetDefault("log.json", false)
	v.SetDefault("log.verbose", false)
}

// New returns a Viper instance with defaults and PREPARE_* environment
// overrides. When configPath is empty, prepare.toml in the working directory
// is read if present.
func New(configPath string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("PREPARE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if configPath == "" {
		if _, err := os.Stat(DefaultConfigFile); err != nil {
			return v, nil
		}
		configPath = DefaultConfigFile
	}

	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.WithHint(
			errors.Wrapf(err, "failed to read config file %s", configPath),
			"config files may be TOML, YAML or JSON; the format follows the extension",
		)
	}
	return v, nil
}

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that every job is fully specified and uniquely named.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Jobs))
	for i, j := range c.Jobs {
		label := j.Name
		if label == "" {
			label = "#" + strconv.Itoa(i+1)
		}
		switch {
		case j.Name == "":
			return errors.Wrapf(errors.ErrInvalidRequest, "job %s: name is required", label)
		case seen[j.Name]:
			return errors.Wrapf(errors.ErrInvalidRequest, "job %s: duplicate name", label)
		case j.Source == "":
			return errors.Wrapf(errors.ErrInvalidRequest, "job %s: source is required", label)
		case j.Dest == "":
			return errors.Wrapf(errors.ErrInvalidRequest, "job %s: dest is required", label)
		case len(j.Fields) == 0:
			return errors.Wrapf(errors.ErrInvalidRequest, "job %s: at least one field is required", label)
		}
		seen[j.Name] = true
	}
	if c.Server.MaxBodyMB < 0 {
		return errors.Wrapf(errors.ErrInvalidRequest, "server.max_body_mb must not be negative, got %d", c.Server.MaxBodyMB)
	}
	return nil
}

// RunConfig builds the explicit configuration handed to a run.
func (c *Config) RunConfig(jobs []model.Job) model.RunConfig {
	return model.RunConfig{
		Jobs:      jobs,
		OutputDir: c.OutputDir,
		Strict:    c.Strict,
	}
}

// ShutdownTimeoutDuration is the grace period for in-flight requests on shutdown.
func (s ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return utils.ParseDuration(s.ShutdownTimeout, 10*time.Second)
}
