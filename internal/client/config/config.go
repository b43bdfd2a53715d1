package config

import (
	"time"

	"github.com/dmitrijs2005/syncbox/internal/client/cache/storage"
)

const (
	CacheSQLite = "sqlite"
	CacheRedis  = "redis"
	CacheS3     = "s3"
)

// Config holds runtime settings shared by the syncd daemon and the CLI.
//
// Durations are time.Duration values; JSON accepts "3s" style strings.
type Config struct {
	DBPath string

	RemoteURL     string
	RemoteToken   string
	RemoteTimeout time.Duration

	BridgeAddr  string
	BridgeToken string

	ProxyAddr    string
	AppOrigin    string
	CacheVersion string
	CacheBackend string
	RedisAddr    string
	RedisPrefix  string
	S3           storage.S3Config

	OnlineCheckInterval time.Duration
	DisableWatcher      bool
	BatchSize           int
	MaxAttempts         int

	LogLevel  string
	LogFormat string
}

func (c *Config) LoadDefaults() {
	c.DBPath = "syncbox.db"
	c.RemoteURL = "http://127.0.0.1:8080"
	c.RemoteTimeout = 10 * time.Second
	c.BridgeAddr = "127.0.0.1:50061"
	c.ProxyAddr = "127.0.0.1:8090"
	c.AppOrigin = "http://127.0.0.1:5173"
	c.CacheVersion = "v1"
	c.CacheBackend = CacheSQLite
	c.RedisAddr = "127.0.0.1:6379"
	c.RedisPrefix = "syncbox:cache:"
	c.S3 = storage.S3Config{
		Endpoint: "http://127.0.0.1:9000",
		Region:   "us-east-1",
		Bucket:   "syncbox-cache",
		Prefix:   "cache",
	}
	c.OnlineCheckInterval = 3 * time.Second
	c.BatchSize = 50
	c.MaxAttempts = 5
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// LoadConfig applies defaults, then the JSON file (if any), then flags.
// Later sources win.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
