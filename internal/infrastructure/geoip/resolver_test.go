package geoip

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keygate-io/keygate/internal/shared/config"
	"github.com/keygate-io/keygate/internal/shared/logger"
)

func newResolver(endpoint string) *HTTPResolver {
	log := logger.NewLoggerWithSlog(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewHTTPResolver(&config.GeoIPConfig{
		Endpoint:       endpoint,
		TimeoutSeconds: 2,
	}, nil, log)
}

func TestCountry_ResolvesFromAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/203.0.113.10", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ip":"203.0.113.10","country":"DE"}`))
	}))
	defer srv.Close()

	country, err := newResolver(srv.URL).Country(context.Background(), "203.0.113.10")
	require.NoError(t, err)
	assert.Equal(t, "DE", country)
}

func TestCountry_ErrorsPropagate(t *testing.T) {
	t.Run("non-200 status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		_, err := newResolver(srv.URL).Country(context.Background(), "203.0.113.10")
		assert.Error(t, err)
	})

	t.Run("empty country", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"ip":"203.0.113.10"}`))
		}))
		defer srv.Close()

		_, err := newResolver(srv.URL).Country(context.Background(), "203.0.113.10")
		assert.Error(t, err)
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		_, err := newResolver("http://127.0.0.1:1").Country(context.Background(), "203.0.113.10")
		assert.Error(t, err)
	})
}
