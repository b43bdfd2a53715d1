package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/syncbox/internal/client/models"
	"github.com/dmitrijs2005/syncbox/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestCreate_SendsKeyAndDecodesEnvelope(t *testing.T) {
	var gotKey, gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/entries", r.URL.Path)
		gotKey = r.Header.Get(common.IdempotencyKeyHeader)
		gotAuth = r.Header.Get(common.AuthorizationHeader)
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "data": map[string]any{"id": 41, "title": "milk", "created_at": 1, "updated_at": 2}})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL+"/", time.Second, WithToken("tok"))
	e, err := c.Create(context.Background(), "key-1", models.Payload{ID: 7, Title: "milk", CreatedAt: 1, UpdatedAt: 2})
	require.NoError(t, err)

	assert.Equal(t, int64(41), e.ID)
	assert.Equal(t, "key-1", gotKey)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "milk", gotBody["title"])
	assert.NotContains(t, gotBody, "id", "local id is not sent")
}

func TestUpdate_NotFoundMapsToSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/entries/9", r.URL.Path)
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": "not found"})
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL, time.Second).Update(context.Background(), 9, models.Payload{Title: "x", UpdatedAt: 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.ErrorIs(t, err, common.ErrNetwork)

	var ne *common.NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, http.StatusNotFound, ne.StatusCode)
	assert.False(t, ne.Retryable())
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
		sentinel  error
	}{
		{http.StatusBadRequest, false, ErrRejected},
		{http.StatusUnauthorized, false, common.ErrorUnauthorized},
		{http.StatusServiceUnavailable, true, ErrUnavailable},
		{http.StatusTooManyRequests, true, ErrRejected},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			err := NewHTTPClient(srv.URL, time.Second).Ping(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Equal(t, tt.retryable, common.IsRetryable(err))
		})
	}
}

func TestTransportFailureIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewHTTPClient(url, time.Second).Delete(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)

	var ne *common.NetworkError
	require.True(t, errors.As(err, &ne))
	assert.Zero(t, ne.StatusCode)
	assert.True(t, ne.Retryable())
}

func TestDelete_NoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, NewHTTPClient(srv.URL, time.Second).Delete(context.Background(), 3))
}

func TestList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "data": []map[string]any{{"id": 2, "title": "b"}, {"id": 1, "title": "a"}}})
	}))
	defer srv.Close()

	list, err := NewHTTPClient(srv.URL, time.Second).List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].Title)
}

func TestMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL, time.Second).List(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNetwork)
}
