package dyndns

import (
	"context"
	"net/netip"
)

// FromString constructs a resolver that always reports the given addresses.
func FromString(ipv4, ipv6 string) (Resolver, error) {
	v4, err := parseFamily(IPv4, ipv4)
	if err != nil {
		return nil, err
	}
	v6, err := parseFamily(IPv6, ipv6)
	if err != nil {
		return nil, err
	}
	return staticResolver{v4: v4, v6: v6}, nil
}

type staticResolver struct {
	v4, v6 netip.Addr
}

func (s staticResolver) CurrentIPv4(context.Context) (netip.Addr, error) { return s.v4, nil }
func (s staticResolver) CurrentIPv6(context.Context) (netip.Addr, error) { return s.v6, nil }
