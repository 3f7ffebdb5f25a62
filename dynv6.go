package dwd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
)

const dynv6BaseURL = "https://dynv6.com/api/update"

// dynv6 updates a zone with a single idempotent request.
type dynv6 struct {
	conf       Dynv6ComConfig
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

func newDynv6(conf Dynv6ComConfig, httpClient *http.Client, log *slog.Logger) *dynv6 {
	base := conf.APIURL
	if base == "" {
		base = dynv6BaseURL
	}
	return &dynv6{conf: conf, baseURL: base, httpClient: httpClient, log: log}
}

func (d *dynv6) Publish(ctx context.Context, ip netip.Addr) error {
	token := credential(d.conf.Token, "DYNV6_COM_TOKEN")
	if token == "" {
		return &MissingCredentialsError{Provider: Dynv6Com, Env: []string{"DYNV6_COM_TOKEN"}}
	}

	params := url.Values{
		"zone":  []string{d.conf.Zone},
		"token": []string{token},
	}
	if ip.Is4() {
		params.Set("ipv4", ip.String())
	} else {
		params.Set("ipv6", ip.String())
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	rsp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do: %w", err)
	}
	defer func() { _ = rsp.Body.Close() }()

	byt, _ := io.ReadAll(io.LimitReader(rsp.Body, maxBody))
	if rsp.StatusCode < 200 || rsp.StatusCode > 299 {
		return &APIError{Provider: Dynv6Com, Status: rsp.StatusCode, Message: strings.TrimSpace(string(byt))}
	}
	d.log.Debug("dynv6 answered",
		slog.String("zone", d.conf.Zone),
		slog.String("body", truncate(string(byt), 120)))
	return nil
}
