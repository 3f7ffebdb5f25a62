package dwd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
)

// ipipPattern captures the address out of myip.ipip.net's free text answer,
// e.g. "当前 IP：203.0.113.7  来自于：中国 XX XX  电信".
var ipipPattern = regexp.MustCompile(`IP：((?:\d{1,3}\.){3}\d{1,3})`)

// maxBody bounds what a lookup service may send back.
const maxBody = 64 << 10

var webServices = map[ProviderName]struct {
	url     string
	extract func([]byte) (string, error)
}{
	MyIPLa:      {"https://api.myip.la", firstLine},
	MyIPIPIPNet: {"https://myip.ipip.net", extractIPIP},
	VnetOne:     {"https://ip.vnet.one/check.php", firstLine},
	Icanhazip:   {"https://icanhazip.com", firstLine},
	CheckIPAWS:  {"https://checkip.amazonaws.com", firstLine},
}

// webLookup asks an HTTP service for the caller's address.
type webLookup struct {
	url        string
	httpClient *http.Client
	extract    func([]byte) (string, error)
}

func newWebLookup(p ProviderName, httpClient *http.Client) *webLookup {
	svc := webServices[p]
	return &webLookup{url: svc.url, httpClient: httpClient, extract: svc.extract}
}

// LookupIP implements IPLookup.
func (wl *webLookup) LookupIP(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wl.url, nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	httpClient := wl.httpClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("http request returned %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}
	return wl.extract(body)
}

// firstLine returns the first line of body without surrounding spaces.
func firstLine(body []byte) (string, error) {
	line, _, _ := strings.Cut(string(body), "\n")
	line = strings.TrimSpace(line)
	if line == "" {
		return "", errors.New("empty response body")
	}
	return line, nil
}

func extractIPIP(body []byte) (string, error) {
	m := ipipPattern.FindSubmatch(body)
	if m == nil {
		return "", fmt.Errorf("can not capture ip from response %q", truncate(string(body), 120))
	}
	return string(m[1]), nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
