package monitors

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/eventease-dev/eventease/internal/testutil"
	"github.com/eventease-dev/eventease/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/unauthorized":
			w.WriteHeader(http.StatusUnauthorized)
		case "/broken":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer server.Close()

	ctx := context.Background()

	assert.NoError(t, GetHTTP(ctx, &types.HttpConfig{URL: server.URL + "/ok", ExpectedStatus: http.StatusOK}))
	assert.NoError(t, GetHTTP(ctx, &types.HttpConfig{URL: server.URL + "/unauthorized"}))
	assert.Error(t, GetHTTP(ctx, &types.HttpConfig{URL: server.URL + "/broken"}))
	assert.Error(t, GetHTTP(ctx, &types.HttpConfig{URL: server.URL + "/unauthorized", ExpectedStatus: http.StatusOK}))
}

func TestCheckDatabase(t *testing.T) {
	database := testutil.SetupTestDB(t)
	assert.NoError(t, CheckDatabase(context.Background(), database))
}

func TestCheckDNSLiteralAndUnsupported(t *testing.T) {
	assert.NoError(t, CheckDNS(context.Background(), &types.DNSConfig{Domain: "127.0.0.1"}))
	assert.Error(t, CheckDNS(context.Background(), &types.DNSConfig{Domain: "example.com", RecordType: "TXT"}))
}

func TestRunProbes(t *testing.T) {
	ok := func(context.Context) error { return nil }
	fail := func(context.Context) error { return errors.New("down") }

	results, ready := RunProbes(context.Background(), []Probe{
		{Name: "database", Check: ok},
		{Name: "caption", Check: fail, Optional: true},
	})
	require.Len(t, results, 2)
	assert.True(t, ready)
	assert.Equal(t, "database", results[0].Name)
	assert.Equal(t, "down", results[1].Error)

	_, ready = RunProbes(context.Background(), []Probe{{Name: "database", Check: fail}})
	assert.False(t, ready)
}
