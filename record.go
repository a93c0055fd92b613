package dyndns

import (
	"fmt"
	"net/netip"
)

const (
	typeA    = "A"
	typeAAAA = "AAAA"
)

// Family is an IP address family.
type Family string

const (
	IPv4 Family = "IPv4"
	IPv6 Family = "IPv6"
)

// Record is a snapshot of a DNS record held by a Provider.
type Record struct {
	ZoneID  string
	ID      string
	Name    string
	TTL     int
	Proxied bool
	Content Content
}

// Content is the typed value of a record.
// Addr is only valid when Type is "A" or "AAAA".
type Content struct {
	Type string
	Addr netip.Addr
	Raw  string
}

// IPv4Content returns A record content for addr.
func IPv4Content(addr netip.Addr) Content {
	return Content{Type: typeA, Addr: addr, Raw: addr.String()}
}

// IPv6Content returns AAAA record content for addr.
func IPv6Content(addr netip.Addr) Content {
	return Content{Type: typeAAAA, Addr: addr, Raw: addr.String()}
}

// ParseContent builds typed content from a provider's record type and content string.
// Records of other types keep only their raw content.
func ParseContent(recordType, raw string) (Content, error) {
	c := Content{Type: recordType, Raw: raw}
	switch recordType {
	case typeA:
		a, err := parseFamily(IPv4, raw)
		if err != nil {
			return c, err
		}
		c.Addr = a
	case typeAAAA:
		a, err := parseFamily(IPv6, raw)
		if err != nil {
			return c, err
		}
		c.Addr = a
	}
	return c, nil
}

func (c Content) IsIPv4() bool { return c.Type == typeA && c.Addr.Is4() }
func (c Content) IsIPv6() bool { return c.Type == typeAAAA && c.Addr.Is6() }

func (c Content) String() string {
	if c.Addr.IsValid() {
		return c.Addr.String()
	}
	return c.Raw
}

// Addresses is the pair of public addresses observed during one pass.
type Addresses struct {
	IPv4 netip.Addr
	IPv6 netip.Addr
}

// Outcome is the result of one scheduled record update.
// A nil Err means the record was updated.
type Outcome struct {
	Family Family
	Addr   netip.Addr
	Note   string
	Err    error
}

// Result describes a finished pass.
// Outcomes is empty and Message is "" when no record needed a change.
type Result struct {
	Addresses Addresses
	Outcomes  []Outcome
	Message   string
}

// Updated reports whether at least one record was changed.
func (r Result) Updated() bool {
	for _, o := range r.Outcomes {
		if o.Err == nil {
			return true
		}
	}
	return false
}

func changeNote(f Family, addr netip.Addr) string {
	return fmt.Sprintf("New %s address (%s)", f, addr)
}

// parseFamily parses s as an address of family f.
// IPv4-mapped IPv6 addresses are accepted as IPv4.
func parseFamily(f Family, s string) (netip.Addr, error) {
	a, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, &ParseError{Input: s, Family: f, Err: err}
	}
	switch f {
	case IPv4:
		a = a.Unmap()
		if !a.Is4() {
			return netip.Addr{}, &ParseError{Input: s, Family: f, Err: errWrongFamily}
		}
	case IPv6:
		if !a.Is6() || a.Is4In6() {
			return netip.Addr{}, &ParseError{Input: s, Family: f, Err: errWrongFamily}
		}
	}
	return a, nil
}
