package dwd_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/netip"
	"testing"

	"github.com/linkdesu/dwd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

type countingLookup struct {
	calls int
	ip    string
	err   error
}

func (c *countingLookup) LookupIP(context.Context) (string, error) {
	c.calls++
	return c.ip, c.err
}

func TestDiscoverFallback(t *testing.T) {
	first := &countingLookup{err: errors.New("timeout")}
	second := &countingLookup{ip: "203.0.113.7"}
	third := &countingLookup{ip: "198.51.100.1"}
	d := dwd.NewDiscoverer(map[dwd.ProviderName]dwd.IPLookup{
		dwd.MyIPLa:    first,
		dwd.Icanhazip: second,
		dwd.OpenDNS:   third,
	})

	name, ip, err := d.Discover(context.Background(), testLog,
		[]dwd.ProviderName{dwd.MyIPLa, dwd.Icanhazip, dwd.OpenDNS})
	require.NoError(t, err)
	assert.Equal(t, dwd.Icanhazip, name)
	assert.Equal(t, netip.MustParseAddr("203.0.113.7"), ip)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.Zero(t, third.calls, "providers after the first success must not be called")
}

func TestDiscoverAllFail(t *testing.T) {
	a := &countingLookup{err: errors.New("connection refused")}
	b := &countingLookup{err: errors.New("status 502")}
	d := dwd.NewDiscoverer(map[dwd.ProviderName]dwd.IPLookup{
		dwd.MyIPLa:    a,
		dwd.Icanhazip: b,
	})

	_, ip, err := d.Discover(context.Background(), testLog,
		[]dwd.ProviderName{dwd.MyIPLa, dwd.Icanhazip})
	assert.ErrorIs(t, err, dwd.ErrNoneSucceeded)
	assert.False(t, ip.IsValid())
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
}

func TestDiscoverEmpty(t *testing.T) {
	d := dwd.NewDiscoverer(nil)
	_, _, err := d.Discover(context.Background(), testLog, nil)
	assert.ErrorIs(t, err, dwd.ErrNoneSucceeded)
}

func TestDiscoverInvalidAddressFallsThrough(t *testing.T) {
	bad := &countingLookup{ip: "not-an-ip"}
	good := &countingLookup{ip: "2001:db8::1"}
	d := dwd.NewDiscoverer(map[dwd.ProviderName]dwd.IPLookup{
		dwd.MyIPIPIPNet: bad,
		dwd.CheckIPAWS:  good,
	})

	name, ip, err := d.Discover(context.Background(), testLog,
		[]dwd.ProviderName{dwd.MyIPIPIPNet, dwd.CheckIPAWS})
	require.NoError(t, err)
	assert.Equal(t, dwd.CheckIPAWS, name)
	assert.Equal(t, "2001:db8::1", ip.String())

	_, _, err = d.Discover(context.Background(), testLog, []dwd.ProviderName{dwd.MyIPIPIPNet})
	assert.ErrorIs(t, err, dwd.ErrNoneSucceeded)
	var invalid *dwd.InvalidAddressError
	assert.ErrorAs(t, err, &invalid)
}

func TestDiscoverUnknownProvider(t *testing.T) {
	good := &countingLookup{ip: "203.0.113.7"}
	d := dwd.NewDiscoverer(map[dwd.ProviderName]dwd.IPLookup{dwd.Static: good})

	name, _, err := d.Discover(context.Background(), testLog,
		[]dwd.ProviderName{"whatismyip.example", dwd.Static})
	require.NoError(t, err)
	assert.Equal(t, dwd.Static, name)

	_, _, err = d.Discover(context.Background(), testLog,
		[]dwd.ProviderName{"whatismyip.example"})
	var unsupported *dwd.UnsupportedProviderError
	assert.ErrorAs(t, err, &unsupported)
}

func TestDiscoverKnownProviderWithoutLookup(t *testing.T) {
	d := dwd.NewDiscoverer(map[dwd.ProviderName]dwd.IPLookup{})

	_, _, err := d.Discover(context.Background(), testLog,
		[]dwd.ProviderName{dwd.RouterOS})
	require.Error(t, err)
	assert.ErrorIs(t, err, dwd.ErrNoneSucceeded)
	assert.ErrorIs(t, err, dwd.ErrNotConfigured)
	var unsupported *dwd.UnsupportedProviderError
	assert.False(t, errors.As(err, &unsupported), "routeros is a known provider: %v", err)
}

func TestDiscoverRecoversPanic(t *testing.T) {
	d := dwd.NewDiscoverer(map[dwd.ProviderName]dwd.IPLookup{
		dwd.MyIPLa: dwd.LookupFunc(func(context.Context) (string, error) {
			panic("nil map")
		}),
		dwd.Static: dwd.LookupFunc(func(context.Context) (string, error) {
			return "203.0.113.7", nil
		}),
	})

	name, _, err := d.Discover(context.Background(), testLog,
		[]dwd.ProviderName{dwd.MyIPLa, dwd.Static})
	require.NoError(t, err)
	assert.Equal(t, dwd.Static, name)
}

func TestDiscoverCanceled(t *testing.T) {
	l := &countingLookup{ip: "203.0.113.7"}
	d := dwd.NewDiscoverer(map[dwd.ProviderName]dwd.IPLookup{dwd.Static: l})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := d.Discover(ctx, testLog, []dwd.ProviderName{dwd.Static})
	assert.ErrorIs(t, err, dwd.ErrNoneSucceeded)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, l.calls)
}
