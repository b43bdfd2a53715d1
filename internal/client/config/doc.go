// Package config loads runtime configuration for the syncd daemon and the
// syncbox CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c / -config, or the CONFIG
//     environment variable.
//  3. Command-line flags, which override earlier values.
//
// # JSON schema
//
// Intervals use timex.Duration, so values can be strings like "3s" or
// integer nanoseconds:
//
//	{
//	  "db_path": "/var/lib/syncbox/syncbox.db",
//	  "remote_url": "https://api.example.com",
//	  "bridge_addr": "127.0.0.1:50061",
//	  "proxy_addr": "127.0.0.1:8090",
//	  "app_origin": "http://127.0.0.1:5173",
//	  "cache_version": "v3",
//	  "cache_backend": "s3",
//	  "s3": {"endpoint": "http://127.0.0.1:9000", "bucket": "syncbox-cache"},
//	  "online_check_interval": "5s"
//	}
package config
