package config

import "time"

// Config holds runtime settings for the picdrop CLI. These are fixed for the
// lifetime of the process; user-mutable display preferences live in the
// settings package instead.
//
// Fields:
//   - DatabasePath: sqlite file holding persisted preferences.
//   - PublicHost: host (optionally host/prefix) external links point at.
//   - S3BaseEndpoint/S3Region/S3Bucket/S3AccessKey/S3SecretKey: the
//     S3-compatible image host uploads go to.
//   - WatchDir: optional drop directory watched for new files; empty
//     disables the watcher.
//   - FetchTimeout: per-URL timeout when fetching pasted links.
type Config struct {
	DatabasePath   string
	PublicHost     string
	S3BaseEndpoint string
	S3Region       string
	S3Bucket       string
	S3AccessKey    string
	S3SecretKey    string
	WatchDir       string
	FetchTimeout   time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = "picdrop.db"
	c.PublicHost = "127.0.0.1:9000/picdrop"
	c.S3BaseEndpoint = "http://127.0.0.1:9000"
	c.S3Region = "us-east-1"
	c.S3Bucket = "picdrop"
	c.FetchTimeout = 30 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
