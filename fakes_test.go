package dyndns_test

import (
	"context"
	"net/netip"
	"sync"

	"github.com/Travis-Britz/dyndns"
)

type fakeResolver struct {
	v4, v6     string
	err4, err6 error
}

func (r fakeResolver) CurrentIPv4(ctx context.Context) (netip.Addr, error) {
	if r.err4 != nil {
		return netip.Addr{}, r.err4
	}
	return netip.MustParseAddr(r.v4), nil
}

func (r fakeResolver) CurrentIPv6(ctx context.Context) (netip.Addr, error) {
	if r.err6 != nil {
		return netip.Addr{}, r.err6
	}
	return netip.MustParseAddr(r.v6), nil
}

type update struct {
	Record  dyndns.Record
	Content dyndns.Content
}

type fakeProvider struct {
	records   []dyndns.Record
	listErr   error
	updateErr map[string]error // by record ID

	mu        sync.Mutex
	listCalls int
	updates   []update
}

func (p *fakeProvider) ListRecords(ctx context.Context, zoneID, name string) ([]dyndns.Record, error) {
	p.mu.Lock()
	p.listCalls++
	p.mu.Unlock()
	if p.listErr != nil {
		return nil, p.listErr
	}
	var out []dyndns.Record
	for _, r := range p.records {
		if r.ZoneID == zoneID && r.Name == name {
			out = append(out, r)
		}
	}
	return out, nil
}

func (p *fakeProvider) UpdateRecord(ctx context.Context, record dyndns.Record, content dyndns.Content) (dyndns.Record, error) {
	p.mu.Lock()
	p.updates = append(p.updates, update{Record: record, Content: content})
	p.mu.Unlock()
	if err := p.updateErr[record.ID]; err != nil {
		return dyndns.Record{}, err
	}
	record.Content = content
	return record, nil
}

func (p *fakeProvider) Updates() []update {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]update(nil), p.updates...)
}

type message struct {
	URL  string
	Text string
}

type fakeNotifier struct {
	err error

	mu       sync.Mutex
	messages []message
}

func (n *fakeNotifier) PostMessage(ctx context.Context, webhookURL, text string) error {
	n.mu.Lock()
	n.messages = append(n.messages, message{URL: webhookURL, Text: text})
	n.mu.Unlock()
	return n.err
}

func (n *fakeNotifier) Messages() []message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]message(nil), n.messages...)
}

const (
	testZone    = "023e105f4ecef8ad9ca31a8372d0c353"
	testName    = "home.example.com"
	testWebhook = "https://discord.example/api/webhooks/1/secret"
)

func aRecord(id, addr string) dyndns.Record {
	return dyndns.Record{ZoneID: testZone, ID: id, Name: testName, TTL: 1, Proxied: false, Content: dyndns.IPv4Content(netip.MustParseAddr(addr))}
}

func aaaaRecord(id, addr string) dyndns.Record {
	return dyndns.Record{ZoneID: testZone, ID: id, Name: testName, TTL: 300, Proxied: true, Content: dyndns.IPv6Content(netip.MustParseAddr(addr))}
}
