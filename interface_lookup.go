package dwd

import (
	"context"
	"fmt"
	"net"
)

// interfaceLookup returns the public address assigned to a local interface,
// for hosts that hold their WAN address directly.
type interfaceLookup struct {
	name string
	ipv6 bool
}

func (r interfaceLookup) LookupIP(ctx context.Context) (string, error) {
	iface, err := net.InterfaceByName(r.name)
	if err != nil {
		return "", fmt.Errorf("error getting interface %s by name: %w", r.name, err)
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return "", fmt.Errorf("error looking up addresses for interface %s: %w", r.name, err)
	}
	// addr: ip+net:192.168.86.253/24
	// addr: ip+net:fe80::2cc9:801b:3551:9a43/64
	prefixes := make([]string, 0, len(addrs))
	for _, a := range addrs {
		prefixes = append(prefixes, a.String())
	}
	addr, err := publicAddress(prefixes, r.ipv6)
	if err != nil {
		return "", fmt.Errorf("interface %s: %w", r.name, err)
	}
	return addr.String(), nil
}
