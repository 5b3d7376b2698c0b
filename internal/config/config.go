package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv  = "SHORTS_NEWS_CONFIG"
	databaseDSNEnv = "DATABASE_DSN"
	mediaDirEnv    = "MEDIA_DIR"
	ytdlpPathEnv   = "YTDLP_PATH"
	logLevelEnv    = "LOG_LEVEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Media    MediaConfig    `yaml:"media"`
	Browser  BrowserConfig  `yaml:"browser"`
	Cleanup  CleanupConfig  `yaml:"cleanup"`
	Sources  []SourceConfig `yaml:"sources"`
}

// DatabaseConfig describes Postgres connection details. An empty DSN switches
// the pipeline to an in-memory repository.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// MediaConfig bounds the media acquirer and the artifact store.
type MediaConfig struct {
	Dir                     string `yaml:"dir"`
	MaxImageSizeMB          int64  `yaml:"maxImageSizeMb"`
	MaxVideoSizeMB          int64  `yaml:"maxVideoSizeMb"`
	MaxVideoDurationSeconds int    `yaml:"maxVideoDurationSeconds"`
	YtdlpPath               string `yaml:"ytdlpPath"`
	FfprobePath             string `yaml:"ffprobePath"`
	YtdlpTimeoutSeconds     int    `yaml:"ytdlpTimeoutSeconds"`
}

// MaxImageBytes converts the configured ceiling to bytes.
func (m MediaConfig) MaxImageBytes() int64 { return m.MaxImageSizeMB * 1024 * 1024 }

// MaxVideoBytes converts the configured ceiling to bytes.
func (m MediaConfig) MaxVideoBytes() int64 { return m.MaxVideoSizeMB * 1024 * 1024 }

// MaxVideoDuration converts the configured ceiling to a duration.
func (m MediaConfig) MaxVideoDuration() time.Duration {
	return time.Duration(m.MaxVideoDurationSeconds) * time.Second
}

// YtdlpTimeout bounds a single external downloader invocation.
func (m MediaConfig) YtdlpTimeout() time.Duration {
	return time.Duration(m.YtdlpTimeoutSeconds) * time.Second
}

// BrowserConfig bounds the shared headless browser session.
type BrowserConfig struct {
	Enabled                bool `yaml:"enabled"`
	NavigateTimeoutSeconds int  `yaml:"navigateTimeoutSeconds"`
}

// NavigateTimeout returns the per-navigation deadline.
func (b BrowserConfig) NavigateTimeout() time.Duration {
	return time.Duration(b.NavigateTimeoutSeconds) * time.Second
}

// CleanupConfig schedules removal of stale artifacts in daemon mode.
type CleanupConfig struct {
	CronExpression string `yaml:"cronExpression"`
	MaxAgeDays     int    `yaml:"maxAgeDays"`
}

// MaxAge returns the artifact retention window.
func (c CleanupConfig) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeDays) * 24 * time.Hour
}

// SourceConfig carries per-source policy: the mandatory-media flag and
// optional overrides of the validation length bands.
type SourceConfig struct {
	Name         string `yaml:"name"`
	RequireMedia *bool  `yaml:"requireMedia"`
	TitleMin     int    `yaml:"titleMin"`
	TitleMax     int    `yaml:"titleMax"`
	BodyMin      int    `yaml:"bodyMin"`
	BodyMax      int    `yaml:"bodyMax"`
}

// MediaMandatory resolves the tri-state flag with a per-source default.
func (s SourceConfig) MediaMandatory(fallback bool) bool {
	if s.RequireMedia == nil {
		return fallback
	}
	return *s.RequireMedia
}

// Source returns the policy block for a named engine, falling back to an
// empty block so engines always receive usable defaults.
func (c Config) Source(name string) SourceConfig {
	for _, s := range c.Sources {
		if s.Name == name {
			return s
		}
	}
	return SourceConfig{Name: name}
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(mediaDirEnv); v != "" {
		c.Media.Dir = v
	}

	if v := os.Getenv(ytdlpPathEnv); v != "" {
		c.Media.YtdlpPath = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.JSON {
		base.Logging.JSON = true
	}

	if override.Media.Dir != "" {
		base.Media.Dir = override.Media.Dir
	}
	if override.Media.MaxImageSizeMB > 0 {
		base.Media.MaxImageSizeMB = override.Media.MaxImageSizeMB
	}
	if override.Media.MaxVideoSizeMB > 0 {
		base.Media.MaxVideoSizeMB = override.Media.MaxVideoSizeMB
	}
	if override.Media.MaxVideoDurationSeconds > 0 {
		base.Media.MaxVideoDurationSeconds = override.Media.MaxVideoDurationSeconds
	}
	if override.Media.YtdlpPath != "" {
		base.Media.YtdlpPath = override.Media.YtdlpPath
	}
	if override.Media.FfprobePath != "" {
		base.Media.FfprobePath = override.Media.FfprobePath
	}
	if override.Media.YtdlpTimeoutSeconds > 0 {
		base.Media.YtdlpTimeoutSeconds = override.Media.YtdlpTimeoutSeconds
	}

	if override.Browser.NavigateTimeoutSeconds > 0 {
		base.Browser.NavigateTimeoutSeconds = override.Browser.NavigateTimeoutSeconds
	}

	if override.Cleanup.CronExpression != "" {
		base.Cleanup.CronExpression = override.Cleanup.CronExpression
	}
	if override.Cleanup.MaxAgeDays > 0 {
		base.Cleanup.MaxAgeDays = override.Cleanup.MaxAgeDays
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}

	return base
}

func defaultConfig() Config {
	mandatory := func(v bool) *bool { return &v }

	return Config{
		Database: DatabaseConfig{DSN: ""},
		Logging:  LoggingConfig{Level: "info"},
		Media: MediaConfig{
			Dir:                     "resources/media/news",
			MaxImageSizeMB:          10,
			MaxVideoSizeMB:          100,
			MaxVideoDurationSeconds: 300,
			YtdlpPath:               "yt-dlp",
			FfprobePath:             "ffprobe",
			YtdlpTimeoutSeconds:     60,
		},
		Browser: BrowserConfig{Enabled: true, NavigateTimeoutSeconds: 20},
		Cleanup: CleanupConfig{CronExpression: "0 4 * * *", MaxAgeDays: 7},
		Sources: []SourceConfig{
			{Name: "thehill", RequireMedia: mandatory(true)},
			{Name: "abcnews", RequireMedia: mandatory(false)},
			{Name: "nypost", RequireMedia: mandatory(true)},
			{Name: "twitterx", RequireMedia: mandatory(true), TitleMax: 300},
		},
	}
}
