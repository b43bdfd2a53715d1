package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/syncbox/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string          HTTP bind address (e.g., ":8080")
//	-d string          PostgreSQL DSN
//	-s string          JWT HMAC secret key
//	-redis string      Redis address for the idempotency cache
//	-ttl int           idempotency cache TTL, minutes
//	-log-level string  debug, info, warn or error
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-redis", "-ttl", "-log-level"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.RedisAddr, "redis", config.RedisAddr, "redis address")
	dedupeTTL := fs.Int("ttl", int(config.DedupeTTL.Minutes()), "idempotency cache ttl (in minutes)")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "ttl" {
			config.DedupeTTL = time.Duration(*dedupeTTL) * time.Minute
		}
	})
}
