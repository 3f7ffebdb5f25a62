package dwd

import (
	"log/slog"
	"net/http"
)

// lookupsFromConfig builds an IPLookup for every selected IP provider whose
// configuration is present. Unknown names are left for the discovery chain
// to report.
func lookupsFromConfig(conf *Config, httpClient *http.Client) map[ProviderName]IPLookup {
	lookups := map[ProviderName]IPLookup{}
	for _, name := range conf.IPProvider {
		p, err := ParseIPProvider(name)
		if err != nil {
			continue
		}
		switch p {
		case MyIPLa, MyIPIPIPNet, VnetOne, Icanhazip, CheckIPAWS:
			lookups[p] = newWebLookup(p, httpClient)
		case OpenDNS:
			var oc OpenDNSConfig
			if conf.OpenDNS != nil {
				oc = *conf.OpenDNS
			}
			lookups[p] = newOpenDNSLookup(oc)
		case RouterOS:
			if conf.RouterOS != nil {
				lookups[p] = &routerOSLookup{conf: *conf.RouterOS}
			}
		case Interface:
			if conf.Interface != nil {
				lookups[p] = interfaceLookup{name: conf.Interface.Name, ipv6: conf.Interface.IPv6}
			}
		case Static:
			if conf.Static != nil {
				lookups[p] = staticLookup(conf.Static.Address)
			}
		}
	}
	return lookups
}

// publishersFromConfig builds a Publisher for every selected DNS provider
// whose configuration is present. Missing blocks are reported by the
// publish coordinator.
func publishersFromConfig(
	conf *Config,
	httpClient *http.Client,
	log *slog.Logger,
) map[ProviderName]Publisher {
	publishers := map[ProviderName]Publisher{}
	for _, name := range conf.DNSProvider {
		p, err := ParseDNSProvider(name)
		if err != nil {
			continue
		}
		plog := log.With(slog.String("provider", string(p)))
		switch p {
		case NameCom:
			if conf.NameCom != nil {
				publishers[p] = newNameCom(*conf.NameCom, httpClient, plog)
			}
		case Dynv6Com:
			if conf.Dynv6Com != nil {
				publishers[p] = newDynv6(*conf.Dynv6Com, httpClient, plog)
			}
		case Cloudflare:
			if conf.Cloudflare != nil {
				publishers[p] = newCloudflareProvider(*conf.Cloudflare, httpClient, plog)
			}
		case Route53:
			if conf.Route53 != nil {
				publishers[p] = &route53Provider{conf: *conf.Route53, httpClient: httpClient, log: plog}
			}
		case Aliyun:
			if conf.Aliyun != nil {
				publishers[p] = &aliyunProvider{conf: *conf.Aliyun, log: plog}
			}
		case DNSPod:
			if conf.DNSPod != nil {
				publishers[p] = &dnspodProvider{conf: *conf.DNSPod, log: plog}
			}
		}
	}
	return publishers
}
