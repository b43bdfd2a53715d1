package httpapi

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/syncbox/internal/client/client"
	clientmodels "github.com/dmitrijs2005/syncbox/internal/client/models"
	"github.com/dmitrijs2005/syncbox/internal/common"
	"github.com/dmitrijs2005/syncbox/internal/logging"
	"github.com/dmitrijs2005/syncbox/internal/server/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The sync client and this server must agree on the wire format.
func TestClientRoundTrip(t *testing.T) {
	svc := newFakeService()
	srv := httptest.NewServer(New(svc, "secret", logging.Discard()))
	t.Cleanup(srv.Close)

	tok, err := auth.GenerateToken("device", []byte("secret"), time.Hour)
	require.NoError(t, err)
	c := client.NewHTTPClient(srv.URL, 5*time.Second, client.WithToken(tok))
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	p := clientmodels.Payload{Title: "milk", Notes: "2l", CreatedAt: 10, UpdatedAt: 10}
	first, err := c.Create(ctx, "key-1", p)
	require.NoError(t, err)
	again, err := c.Create(ctx, "key-1", p)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.NotEmpty(t, first.InsertedAt)

	p.Completed = true
	p.UpdatedAt = 20
	upd, err := c.Update(ctx, first.ID, p)
	require.NoError(t, err)
	assert.True(t, upd.Completed)

	list, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(20), list[0].UpdatedAt)

	_, err = c.Update(ctx, 404, p)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, c.Delete(ctx, first.ID))
	list, err = c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestClientRejectedCreate(t *testing.T) {
	srv := httptest.NewServer(New(newFakeService(), "", logging.Discard()))
	t.Cleanup(srv.Close)

	c := client.NewHTTPClient(srv.URL, 5*time.Second)
	_, err := c.Create(context.Background(), "k", clientmodels.Payload{UpdatedAt: 1})

	var ne *common.NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, 400, ne.StatusCode)
	assert.False(t, ne.Retryable())
}

func TestClientUnauthorized(t *testing.T) {
	srv := httptest.NewServer(New(newFakeService(), "secret", logging.Discard()))
	t.Cleanup(srv.Close)

	c := client.NewHTTPClient(srv.URL, 5*time.Second)
	_, err := c.List(context.Background())
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}
