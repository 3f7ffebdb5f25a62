package dwd

import (
	"slices"
	"strings"
)

// ProviderName identifies an IP lookup or DNS hosting service.
type ProviderName string

// IP lookup providers.
const (
	MyIPLa      ProviderName = "myip.la"
	MyIPIPIPNet ProviderName = "myip.ipip.net"
	VnetOne     ProviderName = "ip.vnet.one"
	Icanhazip   ProviderName = "icanhazip.com"
	CheckIPAWS  ProviderName = "checkip.amazonaws.com"
	OpenDNS     ProviderName = "opendns"
	RouterOS    ProviderName = "routeros"
	Interface   ProviderName = "interface"
	Static      ProviderName = "static"
)

// DNS providers.
const (
	NameCom    ProviderName = "name.com"
	Dynv6Com   ProviderName = "dynv6.com"
	Cloudflare ProviderName = "cloudflare"
	Route53    ProviderName = "route53"
	Aliyun     ProviderName = "aliyun"
	DNSPod     ProviderName = "dnspod"
)

var (
	ipProviders = []ProviderName{
		MyIPLa, MyIPIPIPNet, VnetOne, Icanhazip, CheckIPAWS,
		OpenDNS, RouterOS, Interface, Static,
	}
	dnsProviders = []ProviderName{
		NameCom, Dynv6Com, Cloudflare, Route53, Aliyun, DNSPod,
	}
)

// IPProviders lists every supported IP lookup provider.
func IPProviders() []ProviderName { return slices.Clone(ipProviders) }

// DNSProviders lists every supported DNS provider.
func DNSProviders() []ProviderName { return slices.Clone(dnsProviders) }

// ParseIPProvider returns the IP lookup provider called name.
func ParseIPProvider(name string) (ProviderName, error) {
	p := normalize(name)
	if !slices.Contains(ipProviders, p) {
		return "", &UnsupportedProviderError{Kind: "ip", Name: name}
	}
	return p, nil
}

// ParseDNSProvider returns the DNS provider called name.
func ParseDNSProvider(name string) (ProviderName, error) {
	p := normalize(name)
	if !slices.Contains(dnsProviders, p) {
		return "", &UnsupportedProviderError{Kind: "dns", Name: name}
	}
	return p, nil
}

func normalize(name string) ProviderName {
	return ProviderName(strings.ToLower(strings.TrimSpace(name)))
}
