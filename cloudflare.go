package dwd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"

	"github.com/cloudflare/cloudflare-go"
)

const managedComment = "managed by dwd"

func newCloudflareProvider(conf CloudflareConfig, httpClient *http.Client, log *slog.Logger) *cloudflareProvider {
	cf := &cloudflareProvider{conf: conf, httpClient: httpClient, log: log}
	if cf.conf.Comment == "" {
		cf.conf.Comment = managedComment
	}
	return cf
}

// cloudflareProvider keeps exactly one record of the address's type under
// the configured name: stale records are deleted and the record is created
// when missing.
type cloudflareProvider struct {
	conf       CloudflareConfig
	httpClient *http.Client
	log        *slog.Logger
}

func (cf *cloudflareProvider) token() (string, error) {
	if cf.conf.Token != "" {
		return cf.conf.Token, nil
	}
	if cf.conf.TokenFile != "" {
		return ReadTokenFile(cf.conf.TokenFile)
	}
	if token := credential("", "CLOUDFLARE_API_TOKEN"); token != "" {
		return token, nil
	}
	return "", &MissingCredentialsError{Provider: Cloudflare, Env: []string{"CLOUDFLARE_API_TOKEN"}}
}

func (cf *cloudflareProvider) api() (*cloudflare.API, error) {
	token, err := cf.token()
	if err != nil {
		return nil, err
	}
	return newCloudflareAPI(token, cf.conf.APIURL, cf.httpClient)
}

func newCloudflareAPI(token, baseURL string, httpClient *http.Client) (*cloudflare.API, error) {
	var opts []cloudflare.Option
	if httpClient != nil {
		opts = append(opts, cloudflare.HTTPClient(httpClient))
	}
	if baseURL != "" {
		opts = append(opts, cloudflare.BaseURL(baseURL))
	}
	api, err := cloudflare.NewWithAPIToken(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("error creating cloudflare api client: %w", err)
	}
	return api, nil
}

func (cf *cloudflareProvider) Publish(ctx context.Context, ip netip.Addr) error {
	api, err := cf.api()
	if err != nil {
		return err
	}
	domain := cf.conf.Domain

	zid, err := getZoneIDFromDomain(ctx, api, domain)
	if err != nil {
		return fmt.Errorf("unable to get zone ID for %s: %w", domain, err)
	}
	cf.log.Debug("got zone ID", slog.String("zone", zid))

	rtype := recordType(ip)
	records, _, err := api.ListDNSRecords(ctx, cloudflare.ZoneIdentifier(zid), cloudflare.ListDNSRecordsParams{
		Type: rtype,
		Name: domain,
	})
	if err != nil {
		return fmt.Errorf("error listing %s records: %w", rtype, err)
	}
	cf.log.Debug("found existing records", slog.Int("count", len(records)))

	exists := false
	for _, r := range records {
		if a, err := netip.ParseAddr(r.Content); err == nil && a == ip {
			exists = true
			continue
		}
		cf.log.Debug("deleting stale record", slog.String("content", r.Content))
		if err := api.DeleteDNSRecord(ctx, cloudflare.ZoneIdentifier(zid), r.ID); err != nil {
			return fmt.Errorf("unable to delete DNS record %s: %w", r.ID, err)
		}
	}
	if exists {
		cf.log.Debug("record already exists", slog.String("ip", ip.String()))
		return nil
	}

	_, err = api.CreateDNSRecord(ctx, cloudflare.ZoneIdentifier(zid), cloudflare.CreateDNSRecordParams{
		Type:    rtype,
		Name:    domain,
		Content: ip.String(),
		ZoneID:  zid,
		TTL:     int(ttlOr(cf.conf.RecordTTL)),
		Comment: cf.conf.Comment,
	})
	if err != nil {
		return fmt.Errorf("error creating DNS record: %w", err)
	}
	cf.log.Debug("created record", slog.String("ip", ip.String()))
	return nil
}

func getZoneIDFromDomain(ctx context.Context, api *cloudflare.API, domain string) (string, error) {
	zones, err := api.ListZones(ctx)
	if err != nil {
		return "", fmt.Errorf("error listing zones: %w", err)
	}
	return matchZone(zones, domain)
}

// matchZone picks the zone with the longest name that domain belongs to.
func matchZone(zones []cloudflare.Zone, domain string) (zid string, err error) {
	max := 0
	for _, z := range zones {
		if (domain == z.Name || strings.HasSuffix(domain, "."+z.Name)) && len(z.Name) > max {
			max, zid = len(z.Name), z.ID
		}
	}
	if max == 0 {
		return "", fmt.Errorf("unable to find a zone matching \"%s\"", domain)
	}
	return zid, nil
}

// VerifyCloudflareToken checks that token is active.
func VerifyCloudflareToken(ctx context.Context, token string, httpClient *http.Client) error {
	api, err := newCloudflareAPI(token, "", httpClient)
	if err != nil {
		return err
	}
	result, err := api.VerifyAPIToken(ctx)
	if err != nil {
		return fmt.Errorf("unable to verify api token: %w", err)
	}
	if result.Status != "active" {
		return fmt.Errorf("expected api token status to be \"active\"; got \"%s\"", result.Status)
	}
	return nil
}
