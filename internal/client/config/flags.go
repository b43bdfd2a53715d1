package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/syncbox/internal/flagx"
)

var ownFlags = []string{"-d", "-r", "-t", "-b", "-p", "-o", "-v", "-cache", "-i", "-log-level"}

// parseFlags overlays cfg with command-line flags:
//
//	-d string      SQLite database path
//	-r string      remote API base URL
//	-t string      remote API bearer token
//	-b string      bridge address
//	-p string      cache proxy listen address ("" disables the proxy)
//	-o string      application origin behind the proxy
//	-v string      cache version tag
//	-cache string  cache backend: sqlite, redis or s3
//	-i int         online check interval in seconds
//	-log-level     debug, info, warn or error
//	-no-watch      disable the connectivity watcher
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], ownFlags, "-no-watch")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "database path")
	fs.StringVar(&cfg.RemoteURL, "r", cfg.RemoteURL, "remote API base URL")
	fs.StringVar(&cfg.RemoteToken, "t", cfg.RemoteToken, "remote API bearer token")
	fs.StringVar(&cfg.BridgeAddr, "b", cfg.BridgeAddr, "bridge address")
	fs.StringVar(&cfg.ProxyAddr, "p", cfg.ProxyAddr, "cache proxy listen address")
	fs.StringVar(&cfg.AppOrigin, "o", cfg.AppOrigin, "application origin")
	fs.StringVar(&cfg.CacheVersion, "v", cfg.CacheVersion, "cache version tag")
	fs.StringVar(&cfg.CacheBackend, "cache", cfg.CacheBackend, "cache backend (sqlite, redis, s3)")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	fs.BoolVar(&cfg.DisableWatcher, "no-watch", cfg.DisableWatcher, "disable the connectivity watcher")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// only an explicit -i overrides; the seconds default would truncate a
	// sub-second interval from the JSON file
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "i" {
			cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
		}
	})
}
