package dyndns

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cloudflare/cloudflare-go"
	"github.com/rs/zerolog"
)

func newCloudflareProvider(token string, opts ...cloudflare.Option) (cf *cloudflareProvider, err error) {
	if token == "" {
		return nil, errors.New("api token cannot be empty")
	}
	// Every call is attempted exactly once per pass; the next pass is the retry.
	opts = append([]cloudflare.Option{cloudflare.UsingRetryPolicy(0, 0, 0)}, opts...)
	cf = new(cloudflareProvider)
	cf.api, err = cloudflare.NewWithAPIToken(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("error creating cloudflare api client: %w", err)
	}
	cf.logger = zerolog.Nop()
	return cf, nil
}

// cloudflareProvider implements Provider on top of the Cloudflare v4 API.
type cloudflareProvider struct {
	api    *cloudflare.API
	logger zerolog.Logger
}

func (cf *cloudflareProvider) SetLogger(l zerolog.Logger) { cf.logger = l }

func (cf *cloudflareProvider) SetHTTPClient(c *http.Client) { cloudflare.HTTPClient(c)(cf.api) }

// ListRecords implements Provider.
func (cf *cloudflareProvider) ListRecords(ctx context.Context, zoneID, name string) ([]Record, error) {
	cf.logger.Debug().Str("zone", zoneID).Str("name", name).Msg("listing dns records")
	records, _, err := cf.api.ListDNSRecords(ctx, cloudflare.ZoneIdentifier(zoneID), cloudflare.ListDNSRecordsParams{
		Name: name,
	})
	if err != nil {
		return nil, &ProviderError{Op: "list", Err: err}
	}
	cf.logger.Debug().Int("count", len(records)).Msg("found existing records")

	out := make([]Record, 0, len(records))
	for _, r := range records {
		rec, err := fromCloudflare(zoneID, r)
		if err != nil {
			return nil, &ProviderError{Op: "list", Err: fmt.Errorf("record %s: %w", r.ID, err)}
		}
		out = append(out, rec)
	}
	return out, nil
}

// UpdateRecord implements Provider.
// Only the content changes; name, TTL and proxy status are sent back as they were
// so that settings changed by hand in the dashboard survive every update.
func (cf *cloudflareProvider) UpdateRecord(ctx context.Context, record Record, content Content) (Record, error) {
	proxied := record.Proxied
	cf.logger.Debug().Str("record", record.ID).Str("content", content.String()).Msg("updating dns record")
	updated, err := cf.api.UpdateDNSRecord(ctx, cloudflare.ZoneIdentifier(record.ZoneID), cloudflare.UpdateDNSRecordParams{
		ID:      record.ID,
		Type:    content.Type,
		Name:    record.Name,
		Content: content.String(),
		TTL:     record.TTL,
		Proxied: &proxied,
	})
	if err != nil {
		return Record{}, &ProviderError{Op: "update", Err: err}
	}
	rec, err := fromCloudflare(record.ZoneID, updated)
	if err != nil {
		return Record{}, &ProviderError{Op: "update", Err: err}
	}
	return rec, nil
}

// VerifyToken checks that the configured token is usable.
func (cf *cloudflareProvider) VerifyToken(ctx context.Context) error {
	result, err := cf.api.VerifyAPIToken(ctx)
	if err != nil {
		return fmt.Errorf("unable to verify api token: %w", err)
	}
	if result.Status != "active" {
		return fmt.Errorf("expected api token status to be \"active\"; got \"%s\"", result.Status)
	}
	return nil
}

func fromCloudflare(zoneID string, r cloudflare.DNSRecord) (Record, error) {
	content, err := ParseContent(r.Type, r.Content)
	if err != nil {
		return Record{}, err
	}
	rec := Record{
		ZoneID:  zoneID,
		ID:      r.ID,
		Name:    r.Name,
		TTL:     r.TTL,
		Content: content,
	}
	if r.Proxied != nil {
		rec.Proxied = *r.Proxied
	}
	return rec, nil
}

// VerifyCloudflareToken checks a Cloudflare API token without building a full client.
func VerifyCloudflareToken(ctx context.Context, token string, opts ...cloudflare.Option) error {
	cf, err := newCloudflareProvider(token, opts...)
	if err != nil {
		return err
	}
	return cf.VerifyToken(ctx)
}
