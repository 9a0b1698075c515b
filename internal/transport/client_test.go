package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/gamemeta/pkg/errors"
)

func TestClientAppliesAuthAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"count": 2}`))
	}))
	defer srv.Close()

	c := New("rawg", WithAuth(&QueryAuth{Param: "key"}, "secret"), WithRateLimit(0))
	var out struct {
		Count int `json:"count"`
	}
	require.NoError(t, c.GetJSON(context.Background(), URL(srv.URL, "/api/games", url.Values{"search": {"x"}}), &out))
	assert.Equal(t, 2, out.Count)
}

func TestClientStatusErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		rateLimited bool
	}{
		{name: "throttled", status: http.StatusTooManyRequests, rateLimited: true},
		{name: "server error", status: http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := New("igdb", WithRateLimit(0))
			err := c.GetJSON(context.Background(), srv.URL, &struct{}{})
			require.Error(t, err)

			var apiErr *errors.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.rateLimited, errors.IsRateLimited(err))
			assert.Equal(t, !tt.rateLimited, errors.IsProtocol(err))
		})
	}
}

func TestClientMalformedBodyIsProtocolFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	err := New("hltb", WithRateLimit(0)).GetJSON(context.Background(), srv.URL, &struct{}{})
	require.Error(t, err)
	assert.True(t, errors.IsProtocol(err))
}

func TestClientTransportFailureHidesQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	c := New("gamespot", WithAuth(&QueryAuth{Param: "api_key"}, "top-secret"), WithRateLimit(0))
	_, err := c.Get(context.Background(), base+"/api/games/")
	require.Error(t, err)
	assert.True(t, errors.IsTransport(err))
	assert.NotContains(t, err.Error(), "top-secret")
}

func TestURL(t *testing.T) {
	assert.Equal(t, "https://a.test/api/games", URL("https://a.test/", "/api/games", nil))
	assert.Equal(t, "https://a.test/x?q=a+b", URL("https://a.test", "x", url.Values{"q": {"a b"}}))
}
