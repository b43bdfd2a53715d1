package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/syncbox/internal/flagx"
	"github.com/dmitrijs2005/syncbox/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Absent keys
// leave the corresponding Config field untouched.
type JsonConfig struct {
	DBPath              string          `json:"db_path"`
	RemoteURL           string          `json:"remote_url"`
	RemoteToken         string          `json:"remote_token"`
	RemoteTimeout       *timex.Duration `json:"remote_timeout"`
	BridgeAddr          string          `json:"bridge_addr"`
	BridgeToken         string          `json:"bridge_token"`
	ProxyAddr           *string         `json:"proxy_addr"`
	AppOrigin           string          `json:"app_origin"`
	CacheVersion        string          `json:"cache_version"`
	CacheBackend        string          `json:"cache_backend"`
	RedisAddr           string          `json:"redis_addr"`
	RedisPrefix         string          `json:"redis_prefix"`
	S3                  *JsonS3         `json:"s3"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	DisableWatcher      *bool           `json:"disable_watcher"`
	BatchSize           int             `json:"batch_size"`
	MaxAttempts         int             `json:"max_attempts"`
	LogLevel            string          `json:"log_level"`
	LogFormat           string          `json:"log_format"`
}

type JsonS3 struct {
	Endpoint  string `json:"endpoint"`
	Region    string `json:"region"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Bucket    string `json:"bucket"`
	Prefix    string `json:"prefix"`
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

// parseJson overlays cfg with the file named by -c/-config or $CONFIG.
// Read and decode failures panic, like flag errors.
func parseJson(cfg *Config) {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}
	jc.apply(cfg)
}

func (jc *JsonConfig) apply(cfg *Config) {
	setString(&cfg.DBPath, jc.DBPath)
	setString(&cfg.RemoteURL, jc.RemoteURL)
	setString(&cfg.RemoteToken, jc.RemoteToken)
	if jc.RemoteTimeout != nil {
		cfg.RemoteTimeout = jc.RemoteTimeout.Duration
	}
	setString(&cfg.BridgeAddr, jc.BridgeAddr)
	setString(&cfg.BridgeToken, jc.BridgeToken)
	if jc.ProxyAddr != nil {
		cfg.ProxyAddr = *jc.ProxyAddr
	}
	setString(&cfg.AppOrigin, jc.AppOrigin)
	setString(&cfg.CacheVersion, jc.CacheVersion)
	setString(&cfg.CacheBackend, jc.CacheBackend)
	setString(&cfg.RedisAddr, jc.RedisAddr)
	setString(&cfg.RedisPrefix, jc.RedisPrefix)
	if s := jc.S3; s != nil {
		setString(&cfg.S3.Endpoint, s.Endpoint)
		setString(&cfg.S3.Region, s.Region)
		setString(&cfg.S3.AccessKey, s.AccessKey)
		setString(&cfg.S3.SecretKey, s.SecretKey)
		setString(&cfg.S3.Bucket, s.Bucket)
		setString(&cfg.S3.Prefix, s.Prefix)
	}
	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.DisableWatcher != nil {
		cfg.DisableWatcher = *jc.DisableWatcher
	}
	setInt(&cfg.BatchSize, jc.BatchSize)
	setInt(&cfg.MaxAttempts, jc.MaxAttempts)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
}
