package dwd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/route53/types"
)

const defaultRoute53Region = "us-east-1"

// route53Provider upserts a single record set. Credentials come from the
// default AWS chain: environment, shared config and instance roles.
type route53Provider struct {
	conf       Route53Config
	httpClient *http.Client
	log        *slog.Logger

	mu     sync.Mutex
	client *route53.Client
}

func (r *route53Provider) route53Client(ctx context.Context) (*route53.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client != nil {
		return r.client, nil
	}
	region := r.conf.Region
	if region == "" {
		region = defaultRoute53Region
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if r.httpClient != nil {
		opts = append(opts, awsconfig.WithHTTPClient(r.httpClient))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load aws config: %w", err)
	}
	r.client = route53.NewFromConfig(cfg, func(o *route53.Options) {
		if r.conf.Endpoint != "" {
			o.BaseEndpoint = aws.String(r.conf.Endpoint)
		}
	})
	return r.client, nil
}

func (r *route53Provider) Publish(ctx context.Context, ip netip.Addr) error {
	client, err := r.route53Client(ctx)
	if err != nil {
		return err
	}
	rtype := recordTypeOr(r.conf.RecordType, ip)

	_, err = client.ChangeResourceRecordSets(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(r.conf.HostedZoneID),
		ChangeBatch: &types.ChangeBatch{
			Comment: aws.String(managedComment),
			Changes: []types.Change{{
				Action: types.ChangeActionUpsert,
				ResourceRecordSet: &types.ResourceRecordSet{
					Name: aws.String(r.conf.RecordName),
					Type: types.RRType(rtype),
					TTL:  aws.Int64(int64(ttlOr(r.conf.RecordTTL))),
					ResourceRecords: []types.ResourceRecord{
						{Value: aws.String(ip.String())},
					},
				},
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("unable to upsert %s record %s: %w", rtype, r.conf.RecordName, err)
	}
	r.log.Debug("upserted record",
		slog.String("name", r.conf.RecordName),
		slog.String("type", rtype),
		slog.String("ip", ip.String()))
	return nil
}
