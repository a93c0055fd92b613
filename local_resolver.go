package dyndns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
)

// InterfaceResolver constructs a resolver that returns the public addresses assigned to the given interfaces.
// Loopback, link-local and private (RFC 1918, fc00::/7) addresses are skipped.
// If no interfaces are provided then all interfaces will be used.
// The first matching address of each family wins.
//
// This is only useful on hosts that hold their public addresses directly, without NAT.
func InterfaceResolver(iface ...string) Resolver {
	return interfaceResolver{ifaces: iface}
}

type interfaceResolver struct {
	ifaces []string
}

func (r interfaceResolver) CurrentIPv4(ctx context.Context) (netip.Addr, error) {
	return r.first(IPv4)
}

func (r interfaceResolver) CurrentIPv6(ctx context.Context) (netip.Addr, error) {
	return r.first(IPv6)
}

func (r interfaceResolver) first(f Family) (netip.Addr, error) {
	addrs, err := r.addrs()
	for _, a := range addrs {
		if (f == IPv4 && a.Is4()) || (f == IPv6 && a.Is6()) {
			return a, nil
		}
	}
	if err != nil {
		return netip.Addr{}, err
	}
	return netip.Addr{}, &ParseError{Input: fmt.Sprint(r.ifaces), Family: f, Err: errors.New("no public address assigned")}
}

func (r interfaceResolver) addrs() ([]netip.Addr, error) {
	if len(r.ifaces) == 0 {
		a, err := net.InterfaceAddrs()
		if err != nil {
			return nil, fmt.Errorf("error getting addresses for interfaces: %w", err)
		}
		return public(a)
	}
	var addrs []netip.Addr
	var errs []error
	for _, ifs := range r.ifaces {
		iface, err := net.InterfaceByName(ifs)
		if err != nil {
			errs = append(errs, fmt.Errorf("error getting interface %s by name: %w", ifs, err))
			continue
		}
		a, err := iface.Addrs()
		if err != nil {
			errs = append(errs, fmt.Errorf("error looking up addresses for interface %s: %w", ifs, err))
			continue
		}
		g, err := public(a)
		if err != nil {
			errs = append(errs, fmt.Errorf("interface %s: %w", ifs, err))
		}
		addrs = append(addrs, g...)
	}
	return addrs, errors.Join(errs...)
}

// addr: ip+net:192.168.86.253/24
// addr: ip+net:fd64:9f44:fc30:0:b951:8b16:2812:a227/64
// addr: ip+net:fe80::2cc9:801b:3551:9a43/64
func public(in []net.Addr) (addrs []netip.Addr, err error) {
	var parseErrors []error
	for _, addr := range in {
		p, err := netip.ParsePrefix(addr.String())
		if err != nil {
			parseErrors = append(parseErrors, fmt.Errorf("error parsing local ip %s: %s", addr.String(), err))
			continue
		}
		a := p.Addr().Unmap()
		if !a.IsGlobalUnicast() || a.IsPrivate() {
			continue
		}
		addrs = append(addrs, a)
	}
	return addrs, errors.Join(parseErrors...)
}
