package dyndns

import (
	"context"
	"net/netip"
)

// Resolver reports the caller's current public addresses.
type Resolver interface {
	CurrentIPv4(context.Context) (netip.Addr, error)
	CurrentIPv6(context.Context) (netip.Addr, error)
}

// Provider lists and updates DNS records at a DNS host.
type Provider interface {
	// ListRecords returns every record in the zone whose name equals name.
	ListRecords(ctx context.Context, zoneID, name string) ([]Record, error)
	// UpdateRecord replaces the content of record, keeping its name, TTL and proxy status.
	UpdateRecord(ctx context.Context, record Record, content Content) (Record, error)
}

// Notifier delivers a plain text message to an operator.
type Notifier interface {
	PostMessage(ctx context.Context, webhookURL, text string) error
}
