package ccs

import (
	"fmt"
	"net"

	"github.com/miekg/dns"
)

// DefaultResolverAddr is the local stub resolver queried for SRV records.
const DefaultResolverAddr = "127.0.0.53:53"

// ResolveEndpoints discovers Confidential Computation Service endpoints
// through DNS SRV records for the given domain. Each SRV answer yields
// one "host:port" endpoint.
func ResolveEndpoints(domain, resolverAddr string) ([]string, error) {
	if resolverAddr == "" {
		resolverAddr = DefaultResolverAddr
	}

	m := new(dns.Msg)
	m.Id = dns.Id()
	m.RecursionDesired = true
	m.Question = []dns.Question{{
		Name:   dns.Fqdn(domain),
		Qtype:  dns.TypeSRV,
		Qclass: dns.ClassINET,
	}}

	c := new(dns.Client)
	in, _, err := c.Exchange(m, resolverAddr)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", domain, err)
	}

	endpoints := make([]string, 0, len(in.Answer))
	for _, answer := range in.Answer {
		srv, ok := answer.(*dns.SRV)
		if !ok {
			continue
		}
		endpoints = append(endpoints, net.JoinHostPort(
			trimDot(srv.Target), fmt.Sprintf("%d", srv.Port)))
	}

	if len(endpoints) == 0 {
		return nil, fmt.Errorf("no SRV records for %s", domain)
	}
	return endpoints, nil
}

func trimDot(name string) string {
	if len(name) > 0 && name[len(name)-1] == '.' {
		return name[:len(name)-1]
	}
	return name
}
