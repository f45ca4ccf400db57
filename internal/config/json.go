package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/picdrop/internal/flagx"
	"github.com/dmitrijs2005/picdrop/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "30s"
// or as integer nanoseconds. After parsing, values are copied into the
// runtime Config.
type JsonConfig struct {
	DatabasePath   string         `json:"database_path"`
	PublicHost     string         `json:"public_host"`
	S3BaseEndpoint string         `json:"s3_base_endpoint"`
	S3Region       string         `json:"s3_region"`
	S3Bucket       string         `json:"s3_bucket"`
	S3AccessKey    string         `json:"s3_access_key"`
	S3SecretKey    string         `json:"s3_secret_key"`
	WatchDir       string         `json:"watch_dir"`
	FetchTimeout   timex.Duration `json:"fetch_timeout"`
}

// parseJson overlays Config with values loaded from a JSON file. The file
// path comes from the -c/-config flags; when absent, nothing is loaded.
// Empty JSON fields leave the existing Config values untouched, so JSON can
// override a subset of defaults. Read or unmarshal errors panic (caller may
// recover).
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.PublicHost != "" {
		cfg.PublicHost = jc.PublicHost
	}
	if jc.S3BaseEndpoint != "" {
		cfg.S3BaseEndpoint = jc.S3BaseEndpoint
	}
	if jc.S3Region != "" {
		cfg.S3Region = jc.S3Region
	}
	if jc.S3Bucket != "" {
		cfg.S3Bucket = jc.S3Bucket
	}
	if jc.S3AccessKey != "" {
		cfg.S3AccessKey = jc.S3AccessKey
	}
	if jc.S3SecretKey != "" {
		cfg.S3SecretKey = jc.S3SecretKey
	}
	if jc.WatchDir != "" {
		cfg.WatchDir = jc.WatchDir
	}
	if jc.FetchTimeout.Duration != 0 {
		cfg.FetchTimeout = time.Duration(jc.FetchTimeout.Duration)
	}
}
