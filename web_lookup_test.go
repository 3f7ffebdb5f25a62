package dwd

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func serve(body string, status int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
}

func TestWebLookup(t *testing.T) {
	srv := serve("192.168.2.1\n", http.StatusOK)
	defer srv.Close()

	wl := &webLookup{url: srv.URL, httpClient: srv.Client(), extract: firstLine}
	got, err := wl.LookupIP(context.Background())
	if err != nil {
		t.Fatalf("Request failed: %s", err)
	}
	if expected := "192.168.2.1"; expected != got {
		t.Fatalf("Expected %q; got %q", expected, got)
	}
}

func TestWebLookupIPIP(t *testing.T) {
	srv := serve("当前 IP：203.0.113.7  来自于：中国 上海 上海  电信\n", http.StatusOK)
	defer srv.Close()

	wl := &webLookup{url: srv.URL, httpClient: srv.Client(), extract: extractIPIP}
	got, err := wl.LookupIP(context.Background())
	if err != nil {
		t.Fatalf("Request failed: %s", err)
	}
	if expected := "203.0.113.7"; expected != got {
		t.Fatalf("Expected %q; got %q", expected, got)
	}

	if _, err := extractIPIP([]byte("<html>rate limited</html>")); err == nil {
		t.Fatalf("Expected an error for a body without an address")
	}
}

func TestWebLookupFailures(t *testing.T) {
	for name, srv := range map[string]*httptest.Server{
		"status": serve("203.0.113.7", http.StatusServiceUnavailable),
		"empty":  serve("\n", http.StatusOK),
	} {
		t.Run(name, func(t *testing.T) {
			defer srv.Close()
			wl := &webLookup{url: srv.URL, httpClient: srv.Client(), extract: firstLine}
			if got, err := wl.LookupIP(context.Background()); err == nil {
				t.Fatalf("Expected an error; got %q", got)
			}
		})
	}
}

func TestWebServices(t *testing.T) {
	for _, p := range []ProviderName{MyIPLa, MyIPIPIPNet, VnetOne, Icanhazip, CheckIPAWS} {
		wl := newWebLookup(p, nil)
		if wl.url == "" || wl.extract == nil {
			t.Fatalf("Expected %s to be a web lookup", p)
		}
	}
}
