package dwd

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"

	alidns "github.com/alibabacloud-go/alidns-20150109/v4/client"
	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	"github.com/alibabacloud-go/tea/tea"
)

const defaultAliyunEndpoint = "alidns.aliyuncs.com"

// aliyunProvider updates the record under RecordHost, creating it when no
// record exists.
type aliyunProvider struct {
	conf AliyunConfig
	log  *slog.Logger
}

func (a *aliyunProvider) client() (*alidns.Client, error) {
	id := credential(a.conf.AccessKeyID, "ALIYUN_AK")
	secret := credential(a.conf.AccessKeySecret, "ALIYUN_SK")
	if id == "" || secret == "" {
		return nil, &MissingCredentialsError{Provider: Aliyun, Env: []string{"ALIYUN_AK", "ALIYUN_SK"}}
	}
	endpoint := a.conf.Endpoint
	if endpoint == "" {
		endpoint = defaultAliyunEndpoint
	}
	c, err := alidns.NewClient(&openapi.Config{
		AccessKeyId:     tea.String(id),
		AccessKeySecret: tea.String(secret),
		Endpoint:        tea.String(endpoint),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create aliyun client: %w", err)
	}
	return c, nil
}

func (a *aliyunProvider) Publish(ctx context.Context, ip netip.Addr) error {
	c, err := a.client()
	if err != nil {
		return err
	}
	rr := hostOrApex(a.conf.RecordHost)
	rtype := recordTypeOr(a.conf.RecordType, ip)
	value := ip.String()
	ttl := int64(ttlOr(a.conf.RecordTTL))

	resp, err := c.DescribeDomainRecords(&alidns.DescribeDomainRecordsRequest{
		DomainName: tea.String(a.conf.Domain),
		RRKeyWord:  tea.String(rr),
	})
	if err != nil {
		return fmt.Errorf("unable to list records of %s: %w", a.conf.Domain, err)
	}
	var records []*alidns.DescribeDomainRecordsResponseBodyDomainRecordsRecord
	if resp.Body != nil && resp.Body.DomainRecords != nil {
		records = resp.Body.DomainRecords.Record
	}

	record := pickAliyunRecord(records, rr, rtype)
	if record == nil {
		_, err = c.AddDomainRecord(&alidns.AddDomainRecordRequest{
			DomainName: tea.String(a.conf.Domain),
			RR:         tea.String(rr),
			Type:       tea.String(rtype),
			Value:      tea.String(value),
			TTL:        tea.Int64(ttl),
		})
		if err != nil {
			return fmt.Errorf("unable to add record %s: %w", rr, err)
		}
		a.log.Debug("added record", slog.String("rr", rr), slog.String("ip", value))
		return nil
	}

	if tea.StringValue(record.Value) == value && tea.StringValue(record.Type) == rtype {
		a.log.Debug("record is up to date", slog.String("rr", rr), slog.String("ip", value))
		return nil
	}
	_, err = c.UpdateDomainRecord(&alidns.UpdateDomainRecordRequest{
		RecordId: record.RecordId,
		RR:       tea.String(rr),
		Type:     tea.String(rtype),
		Value:    tea.String(value),
		TTL:      tea.Int64(ttl),
	})
	if err != nil {
		return fmt.Errorf("unable to update record %s: %w", tea.StringValue(record.RecordId), err)
	}
	a.log.Debug("updated record",
		slog.String("rr", rr),
		slog.String("old", tea.StringValue(record.Value)),
		slog.String("ip", value))
	return nil
}

// pickAliyunRecord prefers a record of the wanted type. RRKeyWord is a
// fuzzy match, so the RR is compared exactly.
func pickAliyunRecord(records []*alidns.DescribeDomainRecordsResponseBodyDomainRecordsRecord, rr, rtype string) *alidns.DescribeDomainRecordsResponseBodyDomainRecordsRecord {
	var fallback *alidns.DescribeDomainRecordsResponseBodyDomainRecordsRecord
	for _, r := range records {
		if tea.StringValue(r.RR) != rr {
			continue
		}
		if tea.StringValue(r.Type) == rtype {
			return r
		}
		if fallback == nil {
			fallback = r
		}
	}
	return fallback
}

func hostOrApex(host string) string {
	if host == "" {
		return "@"
	}
	return host
}
