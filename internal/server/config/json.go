package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/syncbox/internal/flagx"
	"github.com/dmitrijs2005/syncbox/internal/timex"
)

// JsonConfig is the JSON shape of Config. Durations accept strings such as
// "30m" or integer nanoseconds; absent keys leave Config untouched.
type JsonConfig struct {
	HTTPAddr        string          `json:"http_addr"`
	DatabaseDSN     string          `json:"database_dsn"`
	SecretKey       string          `json:"secret_key"`
	RedisAddr       string          `json:"redis_addr"`
	RedisPrefix     string          `json:"redis_prefix"`
	DedupeTTL       *timex.Duration `json:"dedupe_ttl"`
	ShutdownTimeout *timex.Duration `json:"shutdown_timeout"`
	LogLevel        string          `json:"log_level"`
	LogFormat       string          `json:"log_format"`
}

// parseJson loads configuration values from the JSON file named by the -c
// or -config flag (or $CONFIG) into config. If the file cannot be read or
// contains invalid JSON, the function panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&config.HTTPAddr, c.HTTPAddr)
	set(&config.DatabaseDSN, c.DatabaseDSN)
	set(&config.SecretKey, c.SecretKey)
	set(&config.RedisAddr, c.RedisAddr)
	set(&config.RedisPrefix, c.RedisPrefix)
	if c.DedupeTTL != nil {
		config.DedupeTTL = c.DedupeTTL.Duration
	}
	if c.ShutdownTimeout != nil {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	set(&config.LogLevel, c.LogLevel)
	set(&config.LogFormat, c.LogFormat)
}
