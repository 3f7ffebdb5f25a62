package dwd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"

	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	tcerrors "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/errors"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/regions"
	dnspod "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/dnspod/v20210323"
)

const defaultRecordLine = "默认"

type dnspodProvider struct {
	conf DNSPodConfig
	log  *slog.Logger
}

func (d *dnspodProvider) client() (*dnspod.Client, error) {
	id := credential(d.conf.SecretID, "TENCENTCLOUD_SECRET_ID")
	key := credential(d.conf.SecretKey, "TENCENTCLOUD_SECRET_KEY")
	if id == "" || key == "" {
		return nil, &MissingCredentialsError{Provider: DNSPod, Env: []string{"TENCENTCLOUD_SECRET_ID", "TENCENTCLOUD_SECRET_KEY"}}
	}
	region := d.conf.Region
	if region == "" {
		region = regions.Shanghai
	}
	c, err := dnspod.NewClient(common.NewCredential(id, key), region, profile.NewClientProfile())
	if err != nil {
		return nil, fmt.Errorf("unable to create dnspod client: %w", err)
	}
	return c, nil
}

func (d *dnspodProvider) Publish(ctx context.Context, ip netip.Addr) error {
	c, err := d.client()
	if err != nil {
		return err
	}
	sub := hostOrApex(d.conf.RecordHost)
	rtype := recordTypeOr(d.conf.RecordType, ip)
	value := ip.String()
	ttl := uint64(ttlOr(d.conf.RecordTTL))

	req := dnspod.NewDescribeRecordListRequest()
	req.Domain = common.StringPtr(d.conf.Domain)
	req.Subdomain = common.StringPtr(sub)
	resp, err := c.DescribeRecordListWithContext(ctx, req)
	if err != nil && !isNoDataOfRecord(err) {
		return fmt.Errorf("unable to list records of %s: %w", d.conf.Domain, err)
	}

	var record *dnspod.RecordListItem
	if err == nil && resp.Response != nil {
		record = pickDNSPodRecord(resp.Response.RecordList, sub, rtype)
	}

	if record == nil {
		create := dnspod.NewCreateRecordRequest()
		create.Domain = common.StringPtr(d.conf.Domain)
		create.SubDomain = common.StringPtr(sub)
		create.RecordType = common.StringPtr(rtype)
		create.RecordLine = common.StringPtr(defaultRecordLine)
		create.Value = common.StringPtr(value)
		create.TTL = common.Uint64Ptr(ttl)
		if _, err := c.CreateRecordWithContext(ctx, create); err != nil {
			return fmt.Errorf("unable to create record %s: %w", sub, err)
		}
		d.log.Debug("created record", slog.String("subdomain", sub), slog.String("ip", value))
		return nil
	}

	if stringValue(record.Value) == value && stringValue(record.Type) == rtype {
		d.log.Debug("record is up to date", slog.String("subdomain", sub), slog.String("ip", value))
		return nil
	}

	line := record.Line
	if stringValue(line) == "" {
		line = common.StringPtr(defaultRecordLine)
	}
	modify := dnspod.NewModifyRecordRequest()
	modify.Domain = common.StringPtr(d.conf.Domain)
	modify.RecordId = record.RecordId
	modify.SubDomain = common.StringPtr(sub)
	modify.RecordType = common.StringPtr(rtype)
	modify.RecordLine = line
	modify.Value = common.StringPtr(value)
	modify.TTL = common.Uint64Ptr(ttl)
	if _, err := c.ModifyRecordWithContext(ctx, modify); err != nil {
		return fmt.Errorf("unable to modify record %s: %w", sub, err)
	}
	d.log.Debug("modified record",
		slog.String("subdomain", sub),
		slog.String("old", stringValue(record.Value)),
		slog.String("ip", value))
	return nil
}

func isNoDataOfRecord(err error) bool {
	var sdkErr *tcerrors.TencentCloudSDKError
	return errors.As(err, &sdkErr) && sdkErr.GetCode() == "ResourceNotFound.NoDataOfRecord"
}

func pickDNSPodRecord(records []*dnspod.RecordListItem, sub, rtype string) *dnspod.RecordListItem {
	var fallback *dnspod.RecordListItem
	for _, r := range records {
		if stringValue(r.Name) != sub {
			continue
		}
		if stringValue(r.Type) == rtype {
			return r
		}
		if fallback == nil {
			fallback = r
		}
	}
	return fallback
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
