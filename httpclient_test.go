package dwd

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClientPassesErrorsThrough(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, "maintenance")
	}))
	defer srv.Close()

	c := NewHTTPClient(HTTPConfig{}, nil)
	rsp, err := c.Get(srv.URL)
	require.NoError(t, err)
	defer rsp.Body.Close()

	body, _ := io.ReadAll(rsp.Body)
	assert.Equal(t, http.StatusServiceUnavailable, rsp.StatusCode)
	assert.Equal(t, "maintenance", string(body))
	assert.EqualValues(t, 1, hits.Load())
}

func TestHTTPClientRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		io.WriteString(w, "203.0.113.7")
	}))
	defer srv.Close()

	c := NewHTTPClient(HTTPConfig{Retries: 1}, discard)
	rsp, err := c.Get(srv.URL)
	require.NoError(t, err)
	defer rsp.Body.Close()

	assert.Equal(t, http.StatusOK, rsp.StatusCode)
	assert.EqualValues(t, 2, hits.Load())
}
