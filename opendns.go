package dwd

import (
	"context"
	"errors"
	"fmt"

	"github.com/miekg/dns"
)

const (
	openDNSServer = "resolver1.opendns.com:53"
	openDNSName   = "myip.opendns.com."
)

// openDNSLookup asks an OpenDNS resolver for myip.opendns.com, which
// resolves to the address the query came from.
type openDNSLookup struct {
	server string
	qtype  uint16
	client *dns.Client
}

func newOpenDNSLookup(conf OpenDNSConfig) *openDNSLookup {
	l := &openDNSLookup{
		server: conf.Server,
		qtype:  dns.TypeA,
		client: new(dns.Client),
	}
	if l.server == "" {
		l.server = openDNSServer
	}
	if conf.IPv6 {
		l.qtype = dns.TypeAAAA
		l.client.Net = "udp6"
	}
	return l
}

func (l *openDNSLookup) LookupIP(ctx context.Context) (string, error) {
	m := new(dns.Msg)
	m.SetQuestion(openDNSName, l.qtype)
	r, _, err := l.client.ExchangeContext(ctx, m, l.server)
	if err != nil {
		return "", fmt.Errorf("query %s: %w", l.server, err)
	}
	if r.Rcode != dns.RcodeSuccess {
		return "", fmt.Errorf("query %s: %s", l.server, dns.RcodeToString[r.Rcode])
	}
	for _, a := range r.Answer {
		switch rr := a.(type) {
		case *dns.A:
			return rr.A.String(), nil
		case *dns.AAAA:
			return rr.AAAA.String(), nil
		}
	}
	return "", errors.New("no address in answer")
}
