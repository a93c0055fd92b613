package dyndns_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"sync"
	"testing"

	"github.com/Travis-Britz/dyndns"
	"github.com/cloudflare/cloudflare-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "test-token-0123456789"

// fakeCloudflare serves the few v4 API endpoints the provider uses.
type fakeCloudflare struct {
	t       *testing.T
	records []map[string]any
	fail    bool

	mu          sync.Mutex
	listQueries []string
	updates     []map[string]any
	updateCalls int
}

func (f *fakeCloudflare) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Header.Get("Authorization") != "Bearer "+testToken {
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"success":false,"errors":[{"code":9109,"message":"Invalid access token"}],"messages":[],"result":null}`)
		return
	}
	if f.fail {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"success":false,"errors":[{"code":1004,"message":"DNS Validation Error"}],"messages":[],"result":null}`)
		return
	}
	prefix := "/zones/" + testZone + "/dns_records"
	switch {
	case r.Method == http.MethodGet && r.URL.Path == prefix:
		f.mu.Lock()
		f.listQueries = append(f.listQueries, r.URL.Query().Get("name"))
		f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{
			"success":  true,
			"errors":   []any{},
			"messages": []any{},
			"result":   f.records,
			"result_info": map[string]any{
				"page": 1, "per_page": 100, "count": len(f.records), "total_count": len(f.records), "total_pages": 1,
			},
		})
	case (r.Method == http.MethodPatch || r.Method == http.MethodPut) && strings.HasPrefix(r.URL.Path, prefix+"/"):
		var body map[string]any
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
		body["id"] = strings.TrimPrefix(r.URL.Path, prefix+"/")
		f.mu.Lock()
		f.updateCalls++
		f.updates = append(f.updates, body)
		f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{
			"success":  true,
			"errors":   []any{},
			"messages": []any{},
			"result":   body,
		})
	default:
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"success":false,"errors":[{"code":7003,"message":"Could not route"}],"messages":[],"result":null}`)
	}
}

func newCloudflareClient(t *testing.T, f *fakeCloudflare) *dyndns.Client {
	t.Helper()
	f.t = t
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	c, err := dyndns.New(
		dyndns.UsingCloudflare(testToken, cloudflare.BaseURL(srv.URL)),
		dyndns.UsingNotifier(&fakeNotifier{}),
	)
	require.NoError(t, err)
	return c
}

func cfRecord(id, typ, content string, ttl int, proxied bool) map[string]any {
	return map[string]any{
		"id": id, "type": typ, "name": testName, "content": content,
		"ttl": ttl, "proxied": proxied, "proxiable": true, "zone_id": testZone,
	}
}

func TestCloudflareListRecords(t *testing.T) {
	f := &fakeCloudflare{records: []map[string]any{
		cfRecord("a1", "A", "203.0.113.1", 1, true),
		cfRecord("aaaa1", "AAAA", "2001:db8::1", 300, false),
		cfRecord("txt1", "TXT", "hello", 300, false),
	}}
	c := newCloudflareClient(t, f)

	records, err := c.ListRecords(context.Background(), testZone, testName)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{testName}, f.listQueries)

	assert.Equal(t, dyndns.Record{
		ZoneID: testZone, ID: "a1", Name: testName, TTL: 1, Proxied: true,
		Content: dyndns.IPv4Content(netip.MustParseAddr("203.0.113.1")),
	}, records[0])
	assert.True(t, records[1].Content.IsIPv6())
	assert.Equal(t, 300, records[1].TTL)
	assert.False(t, records[2].Content.IsIPv4())
	assert.Equal(t, "hello", records[2].Content.Raw)
}

func TestCloudflareUpdatePreservesSettings(t *testing.T) {
	f := &fakeCloudflare{}
	c := newCloudflareClient(t, f)

	rec := dyndns.Record{
		ZoneID: testZone, ID: "a1", Name: testName, TTL: 120, Proxied: true,
		Content: dyndns.IPv4Content(netip.MustParseAddr("203.0.113.1")),
	}
	updated, err := c.UpdateRecord(context.Background(), rec, dyndns.IPv4Content(netip.MustParseAddr("203.0.113.7")))
	require.NoError(t, err)

	require.Len(t, f.updates, 1)
	body := f.updates[0]
	assert.Equal(t, "a1", body["id"])
	assert.Equal(t, "A", body["type"])
	assert.Equal(t, testName, body["name"])
	assert.Equal(t, "203.0.113.7", body["content"])
	assert.EqualValues(t, 120, body["ttl"])
	assert.Equal(t, true, body["proxied"])

	assert.Equal(t, "203.0.113.7", updated.Content.String())
	assert.Equal(t, 120, updated.TTL)
	assert.True(t, updated.Proxied)
}

func TestCloudflareErrors(t *testing.T) {
	f := &fakeCloudflare{fail: true}
	c := newCloudflareClient(t, f)

	_, err := c.ListRecords(context.Background(), testZone, testName)
	var pe *dyndns.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "list", pe.Op)

	rec := aRecord("a1", "203.0.113.1")
	_, err = c.UpdateRecord(context.Background(), rec, dyndns.IPv4Content(netip.MustParseAddr("203.0.113.7")))
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "update", pe.Op)
	assert.Equal(t, 0, f.updateCalls)
}

func TestCloudflareReconcile(t *testing.T) {
	f := &fakeCloudflare{records: []map[string]any{
		cfRecord("a1", "A", "203.0.113.1", 1, false),
		cfRecord("aaaa1", "AAAA", "2001:db8::1", 1, true),
	}}
	srv := httptest.NewServer(f)
	defer srv.Close()
	f.t = t
	n := &fakeNotifier{}
	c, err := dyndns.New(
		dyndns.UsingCloudflare(testToken, cloudflare.BaseURL(srv.URL)),
		dyndns.UsingResolver(fakeResolver{v4: "203.0.113.7", v6: "2001:db8::1"}),
		dyndns.UsingNotifier(n),
	)
	require.NoError(t, err)

	_, err = c.Reconcile(context.Background(), testName, testZone, testWebhook)
	require.NoError(t, err)
	require.Len(t, f.updates, 1)
	assert.Equal(t, "a1", f.updates[0]["id"])
	assert.Equal(t, "203.0.113.7", f.updates[0]["content"])
	require.Len(t, n.Messages(), 1)
}

func TestUsingCloudflareRequiresToken(t *testing.T) {
	_, err := dyndns.New(dyndns.UsingCloudflare(""))
	assert.Error(t, err)
}
