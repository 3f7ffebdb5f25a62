package dwd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/rs/xid"
)

// DefaultInterval is used when no interval is configured.
const DefaultInterval = 60 * time.Second

var discard = slog.New(discardHandler{})

// New returns an Updater configured by options.
//
// The IP and DNS provider lists must be set, either with FromConfig or with
// WithIPProviders and WithDNSProviders. Lookups and publishers registered
// with UsingLookup and UsingPublisher take precedence over those built from
// a Config.
func New(options ...updaterOption) (*Updater, error) {
	u := &Updater{
		interval:    DefaultInterval,
		log:         discard,
		now:         time.Now,
		lookups:     map[ProviderName]IPLookup{},
		publishers:  map[ProviderName]Publisher{},
		concurrency: 1,
	}
	for i, opt := range options {
		if err := opt(u); err != nil {
			return nil, fmt.Errorf("dwd.New: option %d returned an error: %w", i, err)
		}
	}

	if u.config != nil {
		httpClient := u.httpClient
		if httpClient == nil {
			httpClient = NewHTTPClient(u.config.HTTP, u.log)
		}
		for name, l := range lookupsFromConfig(u.config, httpClient) {
			if _, ok := u.lookups[name]; !ok {
				u.lookups[name] = l
			}
		}
		for name, p := range publishersFromConfig(u.config, httpClient, u.log) {
			if _, ok := u.publishers[name]; !ok {
				u.publishers[name] = p
			}
		}
	}

	if len(u.ipProviders) == 0 {
		return nil, errors.New("dwd.New: no ip provider was selected")
	}
	if len(u.dnsProviders) == 0 {
		return nil, errors.New("dwd.New: no dns provider was selected")
	}
	if u.interval <= 0 {
		return nil, fmt.Errorf("dwd.New: interval must be positive, got %s", u.interval)
	}

	u.discoverer = NewDiscoverer(u.lookups)
	u.publisher = NewPublishCoordinator(u.publishers, u.concurrency)
	u.publisher.now = u.now
	return u, nil
}

type updaterOption func(*Updater) error

// FromConfig selects providers, interval and debounce policy from conf and
// builds an adapter for every selected provider.
func FromConfig(conf *Config) updaterOption {
	return func(u *Updater) error {
		if conf == nil {
			return errors.New("config is nil")
		}
		if !conf.UpdateOn.valid() {
			return fmt.Errorf("invalid update_on %q", conf.UpdateOn)
		}
		ips, err := conf.ipProviderNames()
		if err != nil {
			return err
		}
		dns, err := conf.dnsProviderNames()
		if err != nil {
			return err
		}
		u.config = conf
		u.ipProviders = ips
		u.dnsProviders = dns
		u.interval = time.Duration(conf.Interval) * time.Second
		u.policy = Policy{
			RepublishAfter: time.Duration(conf.RepublishAfter) * time.Second,
			UpdateOn:       conf.UpdateOn,
		}
		u.concurrency = conf.PublishConcurrency
		return nil
	}
}

func WithIPProviders(names ...ProviderName) updaterOption {
	return func(u *Updater) error {
		u.ipProviders = uniqueNames(names)
		return nil
	}
}

func WithDNSProviders(names ...ProviderName) updaterOption {
	return func(u *Updater) error {
		u.dnsProviders = uniqueNames(names)
		return nil
	}
}

// UsingLookup routes the IP provider name to lookup.
func UsingLookup(name ProviderName, lookup IPLookup) updaterOption {
	return func(u *Updater) error {
		if lookup == nil {
			return fmt.Errorf("lookup for %s is nil", name)
		}
		u.lookups[name] = lookup
		return nil
	}
}

// UsingPublisher routes the DNS provider name to publisher.
func UsingPublisher(name ProviderName, publisher Publisher) updaterOption {
	return func(u *Updater) error {
		if publisher == nil {
			return fmt.Errorf("publisher for %s is nil", name)
		}
		u.publishers[name] = publisher
		return nil
	}
}

// UsingHTTPClient sets the client used by adapters built from a Config.
func UsingHTTPClient(httpClient *http.Client) updaterOption {
	return func(u *Updater) error {
		u.httpClient = httpClient
		return nil
	}
}

func WithInterval(d time.Duration) updaterOption {
	return func(u *Updater) error {
		u.interval = d
		return nil
	}
}

func WithPolicy(p Policy) updaterOption {
	return func(u *Updater) error {
		if !p.UpdateOn.valid() {
			return fmt.Errorf("invalid update_on %q", p.UpdateOn)
		}
		u.policy = p
		return nil
	}
}

// WithPublishConcurrency lets up to n DNS providers be updated at once.
func WithPublishConcurrency(n int) updaterOption {
	return func(u *Updater) error {
		u.concurrency = n
		return nil
	}
}

// WithLogger sets the logger. A nil logger discards everything.
func WithLogger(log *slog.Logger) updaterOption {
	return func(u *Updater) error {
		if log == nil {
			log = discard
		}
		u.log = log
		return nil
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) updaterOption {
	return func(u *Updater) error {
		if now == nil {
			return errors.New("clock is nil")
		}
		u.now = now
		return nil
	}
}

// Updater is the update loop. It owns the LoopState; nothing else reads or
// writes it.
type Updater struct {
	discoverer *Discoverer
	publisher  *PublishCoordinator

	ipProviders  []ProviderName
	dnsProviders []ProviderName
	interval     time.Duration
	policy       Policy
	log          *slog.Logger
	now          func() time.Time

	// collected by options, consumed by New
	config      *Config
	httpClient  *http.Client
	lookups     map[ProviderName]IPLookup
	publishers  map[ProviderName]Publisher
	concurrency int

	state LoopState
}

// Outcome is how a cycle ended.
type Outcome int

const (
	// Skipped means nothing was published.
	Skipped Outcome = iota
	// Published means the publish call ran and the loop state was updated.
	Published
	// Unrecorded means the publish call ran but some provider failed and the
	// policy requires all to succeed, so the loop state was kept.
	Unrecorded
)

func (o Outcome) String() string {
	switch o {
	case Skipped:
		return "skipped"
	case Published:
		return "published"
	case Unrecorded:
		return "unrecorded"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Cycle reports one run of the loop.
type Cycle struct {
	ID       string
	Outcome  Outcome
	Reason   string
	Provider ProviderName
	IP       netip.Addr
	Results  []PublishResult
	Err      error
}

// Failed lists the DNS providers that failed during the cycle.
func (c Cycle) Failed() []ProviderName {
	return failed(c.Results)
}

// State returns a copy of the loop state.
func (u *Updater) State() LoopState {
	return u.state
}

func (u *Updater) String() string {
	return "dwd updater"
}

// RunOnce runs a single discover, decide and publish cycle.
// It never returns an error; failures end up in the log and in the Cycle.
func (u *Updater) RunOnce(ctx context.Context) Cycle {
	c := Cycle{ID: xid.New().String()}
	log := u.log.With(slog.String("cycle", c.ID))

	start := u.now()
	provider, ip, err := u.discoverer.Discover(ctx, log, u.ipProviders)
	d, ok := elapsed(start, u.now())
	if err != nil {
		c.Reason, c.Err = ReasonNoAddress, err
		log.Warn("skip",
			slog.String("reason", c.Reason),
			errAttr(err),
			durationAttr("discovery", d, ok))
		return c
	}
	c.Provider, c.IP = provider, ip
	log.Info("got current public ip",
		slog.String("ip", ip.String()),
		slog.String("provider", string(provider)),
		durationAttr("discovery", d, ok))

	publish, reason := u.policy.ShouldPublish(u.state, ip, u.now())
	c.Reason = reason
	if !publish {
		log.Info("skip", slog.String("reason", reason))
		return c
	}

	log.Debug("publishing",
		slog.String("reason", reason),
		slog.Any("dns_provider", u.dnsProviders))
	start = u.now()
	c.Results = u.publisher.Publish(ctx, log, u.dnsProviders, ip)
	d, ok = elapsed(start, u.now())

	if !u.policy.records(c.Results) {
		c.Outcome = Unrecorded
		log.Warn("publish incomplete, keeping last published ip",
			slog.Any("failed", c.Failed()),
			durationAttr("publish", d, ok))
		return c
	}
	u.state = LoopState{LastPublishedIP: ip, LastPublishedAt: u.now()}
	c.Outcome = Published
	log.Info("published dns records",
		slog.String("ip", ip.String()),
		slog.Int("providers", len(c.Results)),
		slog.Any("failed", c.Failed()),
		durationAttr("publish", d, ok))
	return c
}

// Serve runs a cycle right away and then once per interval until ctx is
// done. A cycle always finishes before the next tick is taken; ticks missed
// while a cycle runs are dropped.
//
// Serve implements suture.Service.
func (u *Updater) Serve(ctx context.Context) error {
	u.log.Info("dwd has started",
		slog.Any("ip_provider", u.ipProviders),
		slog.Any("dns_provider", u.dnsProviders),
		slog.Duration("interval", u.interval))

	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	for {
		u.RunOnce(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
