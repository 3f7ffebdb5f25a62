package dwd

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"
	"time"

	"github.com/sourcegraph/conc/pool"
)

// PublishResult is the outcome of one DNS provider within a publish call.
type PublishResult struct {
	Provider ProviderName
	Err      error
	Duration time.Duration
}

// PublishCoordinator pushes an address to every configured DNS provider.
// One provider's failure never stops the others.
type PublishCoordinator struct {
	publishers  map[ProviderName]Publisher
	concurrency int
	now         func() time.Time
}

// NewPublishCoordinator returns a coordinator routing provider names to
// publishers. Concurrency below 2 runs providers one after another in the
// given order.
func NewPublishCoordinator(
	publishers map[ProviderName]Publisher,
	concurrency int,
) *PublishCoordinator {
	return &PublishCoordinator{
		publishers:  publishers,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// Publish attempts every provider exactly once and reports each outcome in
// the order of providers. Failures are logged, never returned.
func (c *PublishCoordinator) Publish(
	ctx context.Context,
	log *slog.Logger,
	providers []ProviderName,
	ip netip.Addr,
) []PublishResult {
	results := make([]PublishResult, len(providers))
	if c.concurrency < 2 {
		for i, name := range providers {
			results[i] = c.publishOne(ctx, log, name, ip)
		}
		return results
	}

	p := pool.New().WithMaxGoroutines(c.concurrency)
	for i, name := range providers {
		i, name := i, name
		p.Go(func() {
			results[i] = c.publishOne(ctx, log, name, ip)
		})
	}
	p.Wait()
	return results
}

func (c *PublishCoordinator) publishOne(
	ctx context.Context,
	log *slog.Logger,
	name ProviderName,
	ip netip.Addr,
) PublishResult {
	res := PublishResult{Provider: name}
	plog := log.With(slog.String("provider", string(name)))

	publisher, ok := c.publishers[name]
	if !ok {
		if _, err := ParseDNSProvider(string(name)); err != nil {
			res.Err = err
		} else {
			res.Err = fmt.Errorf("%s: %w", name, ErrNotConfigured)
		}
		plog.Error("dns provider unavailable", errAttr(res.Err))
		return res
	}

	plog.Debug("updating dns record", slog.String("ip", ip.String()))
	start := c.now()
	res.Err = try(func() error { return publisher.Publish(ctx, ip) })
	d, measured := elapsed(start, c.now())
	res.Duration = d

	if res.Err != nil {
		plog.Error("update dns provider failed",
			errAttr(res.Err),
			durationAttr("duration", d, measured))
		return res
	}
	plog.Info("updated dns provider",
		slog.String("ip", ip.String()),
		durationAttr("duration", d, measured))
	return res
}

func failed(results []PublishResult) []ProviderName {
	var out []ProviderName
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r.Provider)
		}
	}
	return out
}
