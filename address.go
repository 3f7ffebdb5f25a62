package dwd

import (
	"errors"
	"net/netip"
	"strings"
)

// ParseIP validates s as an IPv4 or IPv6 address.
// IPv4-mapped IPv6 addresses are unmapped; zoned addresses are rejected.
func ParseIP(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return netip.Addr{}, &InvalidAddressError{Raw: s, Err: err}
	}
	if addr.Zone() != "" {
		return netip.Addr{}, &InvalidAddressError{Raw: s, Err: errors.New("zoned addresses cannot be published")}
	}
	return addr.Unmap(), nil
}

func recordType(a netip.Addr) string {
	if a.Is4() {
		return "A"
	}
	return "AAAA"
}

// recordTypeOr returns configured when set, otherwise the type matching a.
func recordTypeOr(configured string, a netip.Addr) string {
	if configured != "" {
		return strings.ToUpper(configured)
	}
	return recordType(a)
}

// publicAddress returns the first global unicast, non-private address of
// the wanted family from prefixes such as "192.0.2.1/24".
func publicAddress(prefixes []string, ipv6 bool) (netip.Addr, error) {
	var errs []error
	for _, s := range prefixes {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			addr, aerr := netip.ParseAddr(s)
			if aerr != nil {
				errs = append(errs, err)
				continue
			}
			p = netip.PrefixFrom(addr, addr.BitLen())
		}
		a := p.Addr().Unmap()
		if a.Is6() != ipv6 {
			continue
		}
		if !a.IsGlobalUnicast() || a.IsPrivate() {
			continue
		}
		return a, nil
	}
	if len(errs) > 0 {
		return netip.Addr{}, errors.Join(append([]error{errors.New("no public address found")}, errs...)...)
	}
	return netip.Addr{}, errors.New("no public address found")
}
