package cache

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/syncbox/internal/client/cache/storage"
)

const SourceHeader = "X-Syncbox-Cache"

// StatusTextHeader carries the status text of synthetic responses, since
// net/http always writes the standard reason phrase.
const StatusTextHeader = "X-Syncbox-Status-Text"

const (
	sourceNetwork   = "network"
	sourceHit       = "hit"
	sourceStale     = "stale"
	sourceFallback  = "fallback"
	sourceSynthetic = "synthetic"
	sourceBypass    = "bypass"
)

// Response is a fully read upstream or cached response.
type Response struct {
	Status     int
	StatusText string
	Header     http.Header
	Body       []byte
}

func fromEntry(e *storage.Entry) *Response {
	return &Response{Status: e.Status, StatusText: e.StatusText, Header: e.Header, Body: e.Body}
}

func (r *Response) entry(key string) *storage.Entry {
	return &storage.Entry{
		Key:        key,
		Status:     r.Status,
		StatusText: r.StatusText,
		Header:     r.Header.Clone(),
		Body:       r.Body,
	}
}

func (r *Response) write(w http.ResponseWriter, source string) {
	h := w.Header()
	for k, vs := range r.Header {
		for _, v := range vs {
			h.Add(k, v)
		}
	}
	h.Del("Content-Length")
	h.Set("Content-Length", strconv.Itoa(len(r.Body)))
	h.Set(SourceHeader, source)
	w.WriteHeader(r.Status)
	_, _ = w.Write(r.Body)
}

func synthetic(status int, text string) *Response {
	return &Response{
		Status:     status,
		StatusText: strconv.Itoa(status) + " " + text,
		Header: http.Header{
			"Content-Type":   {"text/plain; charset=utf-8"},
			StatusTextHeader: {text},
		},
		Body: []byte(text + "\n"),
	}
}

var hopHeaders = []string{
	"Connection", "Keep-Alive", "Proxy-Authenticate", "Proxy-Authorization",
	"Proxy-Connection", "Te", "Trailer", "Transfer-Encoding", "Upgrade",
}

func stripHop(h http.Header) {
	for _, k := range hopHeaders {
		h.Del(k)
	}
}
