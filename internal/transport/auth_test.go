package transport

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newRequest(t *testing.T) *http.Request {
	t.Helper()
	u, err := url.Parse("https://api.example.com/games?search=hades")
	if err != nil {
		t.Fatal(err)
	}
	return &http.Request{Header: make(http.Header), URL: u}
}

func TestAuthenticators(t *testing.T) {
	t.Run("no auth", func(t *testing.T) {
		req := newRequest(t)
		(&NoAuth{}).Apply(req, "secret")
		assert.Empty(t, req.Header)
		assert.Equal(t, "search=hades", req.URL.RawQuery)
	})

	t.Run("bearer", func(t *testing.T) {
		req := newRequest(t)
		(&BearerAuth{}).Apply(req, "token")
		assert.Equal(t, "Bearer token", req.Header.Get("Authorization"))
	})

	t.Run("header", func(t *testing.T) {
		req := newRequest(t)
		(&HeaderAuth{Header: "Client-ID"}).Apply(req, "client")
		assert.Equal(t, "client", req.Header.Get("Client-ID"))
	})

	t.Run("query keeps existing parameters", func(t *testing.T) {
		req := newRequest(t)
		(&QueryAuth{Param: "key"}).Apply(req, "secret")
		assert.Equal(t, "secret", req.URL.Query().Get("key"))
		assert.Equal(t, "hades", req.URL.Query().Get("search"))
	})

	t.Run("empty credential is not applied", func(t *testing.T) {
		req := newRequest(t)
		(&BearerAuth{}).Apply(req, "")
		(&QueryAuth{Param: "key"}).Apply(req, "")
		assert.Empty(t, req.Header.Get("Authorization"))
		assert.False(t, req.URL.Query().Has("key"))
	})
}
