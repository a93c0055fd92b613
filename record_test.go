package dyndns_test

import (
	"testing"

	"github.com/Travis-Britz/dyndns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContent(t *testing.T) {
	tests := []struct {
		typ, raw   string
		ipv4, ipv6 bool
		wantErr    bool
	}{
		{"A", "203.0.113.1", true, false, false},
		{"AAAA", "2001:db8::1", false, true, false},
		{"A", "2001:db8::1", false, false, true},
		{"AAAA", "203.0.113.1", false, false, true},
		{"A", "not an ip", false, false, true},
		{"CNAME", "example.net", false, false, false},
		{"TXT", "203.0.113.1", false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.typ+" "+tt.raw, func(t *testing.T) {
			c, err := dyndns.ParseContent(tt.typ, tt.raw)
			if tt.wantErr {
				var pe *dyndns.ParseError
				require.ErrorAs(t, err, &pe)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ipv4, c.IsIPv4())
			assert.Equal(t, tt.ipv6, c.IsIPv6())
			assert.Equal(t, tt.raw, c.String())
		})
	}
}

func TestRecordNotFoundError(t *testing.T) {
	err := &dyndns.RecordNotFoundError{Family: dyndns.IPv6, Name: "home.example.com"}
	assert.EqualError(t, err, "No IPv6 record found for home.example.com")
	assert.ErrorIs(t, err, dyndns.ErrRecordNotFound)
}
