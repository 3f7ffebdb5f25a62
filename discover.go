package dwd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
)

// Discoverer walks an ordered list of IP providers and returns the first
// valid address. It holds no state between calls.
type Discoverer struct {
	lookups map[ProviderName]IPLookup
}

// NewDiscoverer returns a Discoverer routing provider names to lookups.
func NewDiscoverer(lookups map[ProviderName]IPLookup) *Discoverer {
	return &Discoverer{lookups: lookups}
}

// Discover tries providers in order and returns the first one that produced
// a valid address. Later providers are never called once one succeeds.
// A provider that answers with something other than an IP address counts
// as failed, and the walk moves on to the next provider in the list.
// When all fail, or providers is empty, the error wraps ErrNoneSucceeded.
func (d *Discoverer) Discover(
	ctx context.Context,
	log *slog.Logger,
	providers []ProviderName,
) (ProviderName, netip.Addr, error) {
	var errs []error
	for _, name := range providers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		plog := log.With(slog.String("provider", string(name)))

		lookup, ok := d.lookups[name]
		if !ok {
			var err error
			if _, perr := ParseIPProvider(string(name)); perr == nil {
				err = fmt.Errorf("%s: %w", name, ErrNotConfigured)
				plog.Error("ip provider not configured", errAttr(err))
			} else {
				err = &UnsupportedProviderError{Kind: "ip", Name: string(name)}
				plog.Error("ip provider not supported", errAttr(err))
			}
			errs = append(errs, err)
			continue
		}

		plog.Debug("requesting public ip")
		var raw string
		err := try(func() (err error) {
			raw, err = lookup.LookupIP(ctx)
			return err
		})
		if err != nil {
			plog.Warn("ip provider failed", errAttr(err))
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		addr, err := ParseIP(raw)
		if err != nil {
			plog.Warn("ip provider returned an invalid address", errAttr(err))
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}

		plog.Debug("ip provider succeeded", slog.String("ip", addr.String()))
		return name, addr, nil
	}
	if len(errs) == 0 {
		return "", netip.Addr{}, ErrNoneSucceeded
	}
	return "", netip.Addr{}, fmt.Errorf("%w: %w", ErrNoneSucceeded, errors.Join(errs...))
}
