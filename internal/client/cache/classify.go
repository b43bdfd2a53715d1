package cache

import (
	"net/http"
	"path"
	"strings"
)

type Strategy int

const (
	PassThrough Strategy = iota
	NetworkFirst
	StaleWhileRevalidate
	CacheFirst
	RuntimeOnly
)

func (s Strategy) String() string {
	switch s {
	case NetworkFirst:
		return "network-first"
	case StaleWhileRevalidate:
		return "stale-while-revalidate"
	case CacheFirst:
		return "cache-first"
	case RuntimeOnly:
		return "runtime"
	default:
		return "pass-through"
	}
}

var (
	assetExt = map[string]bool{".js": true, ".mjs": true, ".css": true}
	imageExt = map[string]bool{
		".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
		".webp": true, ".svg": true, ".ico": true, ".avif": true,
	}
)

func isNavigation(r *http.Request) bool {
	if r.Header.Get("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html") && path.Ext(r.URL.Path) == ""
}

// Classify picks the strategy for a same-origin request.
func Classify(r *http.Request) Strategy {
	if r.Method != http.MethodGet {
		return PassThrough
	}
	if isNavigation(r) {
		return NetworkFirst
	}
	ext := strings.ToLower(path.Ext(r.URL.Path))
	switch {
	case assetExt[ext]:
		return StaleWhileRevalidate
	case imageExt[ext]:
		return CacheFirst
	default:
		return RuntimeOnly
	}
}
