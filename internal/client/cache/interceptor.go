package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/dmitrijs2005/syncbox/internal/client/cache/storage"
	"github.com/dmitrijs2005/syncbox/internal/common"
	"github.com/dmitrijs2005/syncbox/internal/logging"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultMaxImages = 60
	DefaultFallback  = "/index.html"
)

// DefaultShell is precached by Install.
var DefaultShell = []string{
	"/",
	"/index.html",
	"/manifest.json",
	"/icons/icon-192.png",
	"/icons/icon-512.png",
}

// Fetcher performs upstream requests; *http.Client satisfies it.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	Origin    string
	Version   string
	Shell     []string
	Fallback  string
	MaxImages int
}

type Interceptor struct {
	origin    *url.URL
	names     Names
	shell     []string
	fallback  string
	maxImages int

	store   storage.Storage
	fetcher Fetcher
	logger  logging.Logger

	inflight singleflight.Group
	wg       sync.WaitGroup
}

type Option func(*Interceptor)

func WithFetcher(f Fetcher) Option {
	return func(i *Interceptor) { i.fetcher = f }
}

func WithLogger(l logging.Logger) Option {
	return func(i *Interceptor) { i.logger = l }
}

func New(cfg Config, store storage.Storage, opts ...Option) (*Interceptor, error) {
	origin, err := url.Parse(cfg.Origin)
	if err != nil {
		return nil, fmt.Errorf("parse origin: %w", err)
	}
	if origin.Scheme == "" || origin.Host == "" {
		return nil, common.NewValidationError("origin", "must be an absolute URL")
	}
	if cfg.Version == "" {
		return nil, common.NewValidationError("version", "is required")
	}

	i := &Interceptor{
		origin:    origin,
		names:     NamesFor(cfg.Version),
		shell:     cfg.Shell,
		fallback:  cfg.Fallback,
		maxImages: cfg.MaxImages,
		store:     store,
		fetcher:   &http.Client{Timeout: 15 * time.Second},
		logger:    logging.Discard(),
	}
	if i.shell == nil {
		i.shell = DefaultShell
	}
	if i.fallback == "" {
		i.fallback = DefaultFallback
	}
	if i.maxImages <= 0 {
		i.maxImages = DefaultMaxImages
	}
	for _, o := range opts {
		o(i)
	}
	i.logger = i.logger.With("module", "cache")
	return i, nil
}

func (i *Interceptor) Names() Names { return i.names }

// Wait blocks until background refreshes and trims have finished.
func (i *Interceptor) Wait() {
	i.wg.Wait()
}

func (i *Interceptor) background(ctx context.Context, fn func(ctx context.Context)) {
	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		fn(context.WithoutCancel(ctx))
	}()
}

// resolve maps a path on the proxy to the origin URL, which is also the
// cache key.
func (i *Interceptor) resolve(u *url.URL) string {
	return i.origin.ResolveReference(&url.URL{Path: u.Path, RawQuery: u.RawQuery}).String()
}

func (i *Interceptor) crossOrigin(r *http.Request) bool {
	return r.URL.IsAbs() && r.URL.Host != i.origin.Host
}

func (i *Interceptor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if i.crossOrigin(r) {
		i.passThrough(w, r, r.URL.String())
		return
	}

	target := i.resolve(r.URL)
	strategy := Classify(r)
	i.logger.Debug(r.Context(), "intercept", "url", target, "strategy", strategy.String())

	switch strategy {
	case NetworkFirst:
		i.networkFirst(w, r, target)
	case StaleWhileRevalidate:
		i.staleWhileRevalidate(w, r, target, true)
	case CacheFirst:
		i.cacheFirst(w, r, target)
	case RuntimeOnly:
		i.staleWhileRevalidate(w, r, target, false)
	default:
		i.passThrough(w, r, target)
	}
}

func (i *Interceptor) fetch(ctx context.Context, method, target string, header http.Header, body io.Reader) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	if header != nil {
		req.Header = header.Clone()
		stripHop(req.Header)
		req.Header.Del("Accept-Encoding")
	}

	resp, err := i.fetcher.Do(req)
	if err != nil {
		return nil, &common.NetworkError{Op: "fetch " + target, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &common.NetworkError{Op: "fetch " + target, StatusCode: resp.StatusCode, Err: err}
	}

	h := resp.Header.Clone()
	stripHop(h)
	return &Response{Status: resp.StatusCode, StatusText: resp.Status, Header: h, Body: data}, nil
}

func (i *Interceptor) lookup(ctx context.Context, cache, key string) (*Response, bool) {
	e, err := i.store.Get(ctx, cache, key)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			i.logger.Warn(ctx, "cache read failed", "cache", cache, "key", key, "error", err)
		}
		return nil, false
	}
	return fromEntry(e), true
}

// put keeps only 200 responses.
func (i *Interceptor) put(ctx context.Context, cache, key string, resp *Response) bool {
	if resp.Status != http.StatusOK {
		return false
	}
	if err := i.store.Put(ctx, cache, resp.entry(key)); err != nil {
		i.logger.Warn(ctx, "cache write failed", "cache", cache, "key", key, "error", err)
		return false
	}
	return true
}

func (i *Interceptor) passThrough(w http.ResponseWriter, r *http.Request, target string) {
	var body io.Reader
	if r.Body != nil && r.Body != http.NoBody {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			synthetic(http.StatusBadRequest, "Bad Request").write(w, sourceSynthetic)
			return
		}
		body = bytes.NewReader(data)
	}

	resp, err := i.fetch(r.Context(), r.Method, target, r.Header, body)
	if err != nil {
		i.logger.Debug(r.Context(), "pass-through failed", "url", target, "error", err)
		synthetic(http.StatusBadGateway, "Bad Gateway").write(w, sourceSynthetic)
		return
	}
	resp.write(w, sourceBypass)
}

func (i *Interceptor) networkFirst(w http.ResponseWriter, r *http.Request, target string) {
	header := r.Header.Clone()
	header.Set("Cache-Control", "no-store")

	resp, err := i.fetch(r.Context(), http.MethodGet, target, header, nil)
	if err == nil {
		resp.write(w, sourceNetwork)
		return
	}

	fallbackKey := i.resolve(&url.URL{Path: i.fallback})
	if cached, ok := i.lookup(r.Context(), i.names.Static, fallbackKey); ok {
		cached.write(w, sourceFallback)
		return
	}
	synthetic(http.StatusServiceUnavailable, "Offline").write(w, sourceSynthetic)
}

// refresh fetches target and stores it. Concurrent refreshes of one key
// share a single upstream request.
func (i *Interceptor) refresh(ctx context.Context, cache, target string, header http.Header) (*Response, error) {
	v, err, _ := i.inflight.Do(cache+"|"+target, func() (any, error) {
		resp, err := i.fetch(ctx, http.MethodGet, target, header, nil)
		if err != nil {
			return nil, err
		}
		i.put(ctx, cache, target, resp)
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Response), nil
}

func (i *Interceptor) staleWhileRevalidate(w http.ResponseWriter, r *http.Request, target string, directRetry bool) {
	ctx := r.Context()
	header := r.Header.Clone()

	if cached, ok := i.lookup(ctx, i.names.Runtime, target); ok {
		i.background(ctx, func(ctx context.Context) {
			if _, err := i.refresh(ctx, i.names.Runtime, target, header); err != nil {
				i.logger.Debug(ctx, "revalidate failed", "url", target, "error", err)
			}
		})
		cached.write(w, sourceStale)
		return
	}

	resp, err := i.refresh(ctx, i.names.Runtime, target, header)
	if err != nil && directRetry {
		resp, err = i.fetch(ctx, http.MethodGet, target, header, nil)
	}
	if err != nil {
		synthetic(http.StatusServiceUnavailable, "Offline").write(w, sourceSynthetic)
		return
	}
	resp.write(w, sourceNetwork)
}

func (i *Interceptor) cacheFirst(w http.ResponseWriter, r *http.Request, target string) {
	ctx := r.Context()

	if cached, ok := i.lookup(ctx, i.names.Images, target); ok {
		cached.write(w, sourceHit)
		return
	}

	resp, err := i.fetch(ctx, http.MethodGet, target, r.Header, nil)
	if err != nil {
		synthetic(http.StatusGatewayTimeout, "Image unavailable offline").write(w, sourceSynthetic)
		return
	}
	if i.put(ctx, i.names.Images, target, resp) {
		i.background(ctx, func(ctx context.Context) {
			if _, err := i.Trim(ctx, i.names.Images, i.maxImages); err != nil {
				i.logger.Warn(ctx, "image cache trim failed", "error", err)
			}
		})
	}
	resp.write(w, sourceNetwork)
}
