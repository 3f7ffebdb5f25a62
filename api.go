package dwd

import (
	"context"
	"net/netip"
)

// IPLookup asks one external service for the caller's public address.
// The result is not validated; the discovery chain parses it.
type IPLookup interface {
	LookupIP(context.Context) (string, error)
}

// Publisher points a DNS record at ip.
type Publisher interface {
	Publish(ctx context.Context, ip netip.Addr) error
}

// LookupFunc adapts a function to IPLookup.
type LookupFunc func(context.Context) (string, error)

func (f LookupFunc) LookupIP(ctx context.Context) (string, error) {
	return f(ctx)
}

// PublishFunc adapts a function to Publisher.
type PublishFunc func(context.Context, netip.Addr) error

func (f PublishFunc) Publish(ctx context.Context, ip netip.Addr) error {
	return f(ctx, ip)
}
