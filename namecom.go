package dwd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
)

const nameComBaseURL = "https://api.name.com/v4/domains/"

type nameComRecord struct {
	ID         int    `json:"id"`
	DomainName string `json:"domainName"`
	Host       string `json:"host,omitempty"`
	FQDN       string `json:"fqdn,omitempty"`
	Type       string `json:"type"`
	Answer     string `json:"answer"`
	TTL        uint32 `json:"ttl"`
	Priority   uint32 `json:"priority,omitempty"`
}

type nameComRecordList struct {
	Records  []nameComRecord `json:"records"`
	NextPage int             `json:"nextPage,omitempty"`
	LastPage int             `json:"lastPage,omitempty"`
}

type nameComError struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// nameCom updates an existing record through the name.com v4 API.
// The API cannot fetch a record by host, so records are listed and
// filtered. Records are never created.
type nameCom struct {
	conf       NameComConfig
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

func newNameCom(conf NameComConfig, httpClient *http.Client, log *slog.Logger) *nameCom {
	base := conf.APIURL
	if base == "" {
		base = nameComBaseURL
	}
	return &nameCom{
		conf:       conf,
		baseURL:    strings.TrimSuffix(base, "/") + "/",
		httpClient: httpClient,
		log:        log,
	}
}

func (n *nameCom) Publish(ctx context.Context, ip netip.Addr) error {
	username := credential(n.conf.Username, "NAME_COM_USERNAME")
	token := credential(n.conf.Token, "NAME_COM_TOKEN")
	if username == "" || token == "" {
		return &MissingCredentialsError{
			Provider: NameCom,
			Env:      []string{"NAME_COM_USERNAME", "NAME_COM_TOKEN"},
		}
	}

	record, err := n.findRecord(ctx, username, token)
	if err != nil {
		return fmt.Errorf("find record: %w", err)
	}
	n.log.Debug("found record",
		slog.Int("id", record.ID),
		slog.String("host", record.Host),
		slog.String("answer", record.Answer))

	record.Type = recordTypeOr(n.conf.RecordType, ip)
	record.Answer = ip.String()
	record.TTL = ttlOr(n.conf.RecordTTL)

	uri := fmt.Sprintf("%s%s/records/%d", n.baseURL, url.PathEscape(record.DomainName), record.ID)
	if err := n.do(ctx, http.MethodPut, uri, username, token, record, nil); err != nil {
		return fmt.Errorf("update record %d: %w", record.ID, err)
	}
	n.log.Debug("updated record", slog.Int("id", record.ID), slog.String("answer", record.Answer))
	return nil
}

// findRecord pages through the domain's records for the configured host.
// An empty host matches the apex record.
func (n *nameCom) findRecord(ctx context.Context, username, token string) (nameComRecord, error) {
	for page := 1; page > 0; {
		uri := fmt.Sprintf("%s%s/records?page=%d", n.baseURL, url.PathEscape(n.conf.Domain), page)
		var list nameComRecordList
		if err := n.do(ctx, http.MethodGet, uri, username, token, nil, &list); err != nil {
			return nameComRecord{}, err
		}
		for _, r := range list.Records {
			if r.Host == n.conf.RecordHost {
				if r.DomainName == "" {
					r.DomainName = n.conf.Domain
				}
				return r, nil
			}
		}
		if list.NextPage <= page {
			break
		}
		page = list.NextPage
	}
	return nameComRecord{}, fmt.Errorf("host %q under %s: %w", n.conf.RecordHost, n.conf.Domain, ErrRecordNotFound)
}

func (n *nameCom) do(
	ctx context.Context,
	method, uri, username, token string,
	body, out any,
) error {
	var rd io.Reader
	if body != nil {
		byt, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal: %w", err)
		}
		rd = bytes.NewReader(byt)
	}
	req, err := http.NewRequestWithContext(ctx, method, uri, rd)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.SetBasicAuth(username, token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rsp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do: %w", err)
	}
	defer func() { _ = rsp.Body.Close() }()
	n.log.Debug("name.com api", slog.String("method", method), slog.Int("status", rsp.StatusCode))

	if rsp.StatusCode < 200 || rsp.StatusCode > 299 {
		byt, _ := io.ReadAll(io.LimitReader(rsp.Body, maxBody))
		msg := strings.TrimSpace(string(byt))
		var apiErr nameComError
		if json.Unmarshal(byt, &apiErr) == nil && apiErr.Message != "" {
			msg = apiErr.Message
		}
		return &APIError{Provider: NameCom, Status: rsp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(rsp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
