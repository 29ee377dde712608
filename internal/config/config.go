// Package config loads runtime configuration from an optional YAML file,
// environment variables, and defaults, in that order of increasing priority
// for env over file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// keyReplacer maps nested keys to env segments, gemini.api_key to
// GEMINAVERBLOG_GEMINI_API_KEY.
var keyReplacer = strings.NewReplacer(".", "_")

// EnvPrefix namespaces the environment variables, e.g.
// GEMINAVERBLOG_PIPELINE_CEILING.
const EnvPrefix = "GEMINAVERBLOG"

// Config is the full runtime configuration tree.
type Config struct {
	Gemini   GeminiConfig   `mapstructure:"gemini"`
	Browser  BrowserConfig  `mapstructure:"browser"`
	Harvest  HarvestConfig  `mapstructure:"harvest"`
	Render   RenderConfig   `mapstructure:"render"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Log      LogConfig      `mapstructure:"log"`
}

type GeminiConfig struct {
	// APIKey also binds to the bare GEMINI_API_KEY variable the service
	// documents.
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type BrowserConfig struct {
	Headless bool   `mapstructure:"headless"`
	ExecPath string `mapstructure:"exec_path"`
	Width    int    `mapstructure:"width"`
	Height   int    `mapstructure:"height"`
}

type HarvestConfig struct {
	HomeURL      string        `mapstructure:"home_url"`
	NavTimeout   time.Duration `mapstructure:"nav_timeout"`
	ListTimeout  time.Duration `mapstructure:"list_timeout"`
	PageDelayMin time.Duration `mapstructure:"page_delay_min"`
	PageDelayMax time.Duration `mapstructure:"page_delay_max"`
	BaseDir      string        `mapstructure:"base_dir"`
}

type RenderConfig struct {
	ContentHost   string        `mapstructure:"content_host"`
	NavTimeout    time.Duration `mapstructure:"nav_timeout"`
	SettleDelay   time.Duration `mapstructure:"settle_delay"`
	ViewportWidth int           `mapstructure:"viewport_width"`
}

type PipelineConfig struct {
	Ceiling     int           `mapstructure:"ceiling"`
	Concurrency int           `mapstructure:"concurrency"`
	PostDelay   time.Duration `mapstructure:"post_delay"`
}

type StorageConfig struct {
	// Backend selects the outcome store: json, sqlite, or postgres.
	Backend string `mapstructure:"backend"`
	// Path is the NDJSON file or the SQLite database path.
	Path string `mapstructure:"path"`
	// DSN is the Postgres connection string.
	DSN string `mapstructure:"dsn"`
}

type MetricsConfig struct {
	// Port of the /metrics server. Zero disables it.
	Port int `mapstructure:"port"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("gemini.model", "gemini-2.0-flash-lite")
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("gemini.timeout", 60*time.Second)

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.width", 1200)
	v.SetDefault("browser.height", 900)

	v.SetDefault("harvest.home_url", "https://section.blog.naver.com/")
	v.SetDefault("harvest.nav_timeout", 60*time.Second)
	v.SetDefault("harvest.list_timeout", 15*time.Second)
	v.SetDefault("harvest.page_delay_min", time.Second)
	v.SetDefault("harvest.page_delay_max", 2*time.Second)
	v.SetDefault("harvest.base_dir", ".")

	v.SetDefault("render.content_host", "blog.naver.com")
	v.SetDefault("render.nav_timeout", 60*time.Second)
	v.SetDefault("render.settle_delay", 2*time.Second)
	v.SetDefault("render.viewport_width", 1200)

	v.SetDefault("pipeline.ceiling", 100)
	v.SetDefault("pipeline.concurrency", 1)
	v.SetDefault("pipeline.post_delay", time.Second)

	v.SetDefault("storage.backend", "json")
	v.SetDefault("storage.path", "outcomes.ndjson")
	// Registered so the env override is visible to Unmarshal.
	v.SetDefault("storage.dsn", "")

	v.SetDefault("metrics.port", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
}

// Load reads the configuration. path names an explicit config file; empty
// looks for geminaverblog.yaml in the working directory and is not an error
// when absent.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(keyReplacer)
	v.AutomaticEnv()
	// The service's own variable name, honored without the prefix.
	if err := v.BindEnv("gemini.api_key", "GEMINI_API_KEY", EnvPrefix+"_GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("geminaverblog")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case "json", "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Backend == "postgres" && c.Storage.DSN == "" {
		return errors.New("storage backend postgres requires a dsn")
	}
	if c.Pipeline.Ceiling <= 0 {
		return fmt.Errorf("pipeline ceiling must be positive, got %d", c.Pipeline.Ceiling)
	}
	return nil
}
