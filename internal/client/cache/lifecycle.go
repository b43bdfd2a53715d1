package cache

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"

	"github.com/dmitrijs2005/syncbox/internal/common"
)

// Install precaches the application shell into the static cache. Nothing is
// stored unless every shell URL fetched with 200.
func (i *Interceptor) Install(ctx context.Context) error {
	if err := i.store.Open(ctx, i.names.Static); err != nil {
		return err
	}

	type fetched struct {
		key  string
		resp *Response
	}
	all := make([]fetched, 0, len(i.shell))
	for _, p := range i.shell {
		key := i.resolve(&url.URL{Path: p})
		resp, err := i.fetch(ctx, http.MethodGet, key, nil, nil)
		if err != nil {
			return fmt.Errorf("precache %s: %w", p, err)
		}
		if resp.Status != http.StatusOK {
			return &common.NetworkError{
				Op:         "precache " + p,
				StatusCode: resp.Status,
				Err:        fmt.Errorf("unexpected status %s", resp.StatusText),
			}
		}
		all = append(all, fetched{key: key, resp: resp})
	}

	for _, f := range all {
		if err := i.store.Put(ctx, i.names.Static, f.resp.entry(f.key)); err != nil {
			return err
		}
	}
	i.logger.Info(ctx, "shell precached", "cache", i.names.Static, "urls", len(all))
	return nil
}

// Activate drops every cache that does not belong to the current version.
func (i *Interceptor) Activate(ctx context.Context) ([]string, error) {
	names, err := i.store.Names(ctx)
	if err != nil {
		return nil, err
	}

	allow := i.names.AllowList()
	var dropped []string
	for _, n := range names {
		if slices.Contains(allow, n) {
			continue
		}
		if _, err := i.store.Drop(ctx, n); err != nil {
			return dropped, err
		}
		dropped = append(dropped, n)
	}
	if len(dropped) > 0 {
		i.logger.Info(ctx, "old caches dropped", "caches", dropped)
	}
	return dropped, nil
}

// Trim deletes the oldest-inserted entries of cache until at most limit
// remain, and reports how many were removed.
func (i *Interceptor) Trim(ctx context.Context, cache string, limit int) (int, error) {
	keys, err := i.store.Keys(ctx, cache)
	if err != nil {
		return 0, err
	}
	removed := 0
	for len(keys)-removed > limit {
		if _, err := i.store.Delete(ctx, cache, keys[removed]); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
