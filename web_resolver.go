package dyndns

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultIPv4URL = "https://ipv4.cyra.pink/"
	DefaultIPv6URL = "https://ipv6.cyra.pink/"
)

// WebResolver constructs a resolver which asks an external echo service for the caller's public address.
//
// Each URL must speak http and return status "200 OK",
// with the address as the first line of the response body.
// ipv4URL must only be reachable over IPv4 and ipv6URL only over IPv6,
// otherwise the service will echo whichever address the connection happened to use
// and the lookup fails with a *ParseError.
//
// An empty URL selects the default service for that family.
func WebResolver(ipv4URL, ipv6URL string) (Resolver, error) {
	if ipv4URL == "" {
		ipv4URL = DefaultIPv4URL
	}
	if ipv6URL == "" {
		ipv6URL = DefaultIPv6URL
	}
	v4, err := parseServiceURL(ipv4URL)
	if err != nil {
		return nil, fmt.Errorf("ipv4 service: %w", err)
	}
	v6, err := parseServiceURL(ipv6URL)
	if err != nil {
		return nil, fmt.Errorf("ipv6 service: %w", err)
	}
	return &webResolver{ipv4URL: v4, ipv6URL: v6}, nil
}

func parseServiceURL(s string) (*url.URL, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("error parsing URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
	return u, nil
}

type webResolver struct {
	httpClient *http.Client
	ipv4URL    *url.URL
	ipv6URL    *url.URL
}

func (wr *webResolver) SetHTTPClient(c *http.Client) { wr.httpClient = c }

// CurrentIPv4 implements Resolver.
func (wr *webResolver) CurrentIPv4(ctx context.Context) (netip.Addr, error) {
	return wr.lookup(ctx, wr.ipv4URL, IPv4)
}

// CurrentIPv6 implements Resolver.
func (wr *webResolver) CurrentIPv6(ctx context.Context) (netip.Addr, error) {
	return wr.lookup(ctx, wr.ipv6URL, IPv6)
}

func (wr *webResolver) lookup(ctx context.Context, u *url.URL, f Family) (netip.Addr, error) {
	if u == nil {
		return netip.Addr{}, errors.New("no IP lookup service configured")
	}
	// 15 seconds is an eternity for the size of the request we're making,
	// but this ensures that all calls to resolve will eventually complete even if the user supplied context.TODO or context.Background
	// using http.DefaultClient (with no timeout).
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	httpclient := wr.httpClient
	if httpclient == nil {
		httpclient = http.DefaultClient
	}

	resp, err := httpclient.Do(req)
	if err != nil {
		return netip.Addr{}, &NetworkError{URL: u.String(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return netip.Addr{}, &NetworkError{URL: u.String(), Err: fmt.Errorf("http request returned %s", resp.Status)}
	}

	r := bufio.NewReader(io.LimitReader(resp.Body, 1024))
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return netip.Addr{}, &NetworkError{URL: u.String(), Err: fmt.Errorf("error reading response body: %w", err)}
	}
	return parseFamily(f, strings.TrimSpace(line))
}
