package dyndns

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"sync"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Reconcile runs one pass for the records called name in zone zoneID.
//
// The current addresses and the existing records are fetched concurrently and
// any failure there ends the pass before anything is changed.
// The A and AAAA records must already exist; they are never created.
// Records whose address drifted are updated concurrently, and a summary of
// every attempted update is posted to webhookURL even if some of them failed.
// When nothing drifted no update is made and no message is sent.
//
// The returned error covers lookups, missing records and the notification;
// failures of individual updates are reported in Result.Outcomes and in the message.
func (c *Client) Reconcile(ctx context.Context, name, zoneID, webhookURL string) (res Result, err error) {
	defer func() { c.metrics.observe(res, err) }()

	if name == "" || zoneID == "" || webhookURL == "" {
		return res, errors.New("name, zone ID and webhook URL are all required")
	}
	log := c.logger.With().Str("pass", xid.New().String()).Str("name", name).Str("zone", zoneID).Logger()

	var records []Record
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		if res.Addresses.IPv4, err = c.CurrentIPv4(gctx); err != nil {
			return fmt.Errorf("error getting current IPv4 address: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if res.Addresses.IPv6, err = c.CurrentIPv6(gctx); err != nil {
			return fmt.Errorf("error getting current IPv6 address: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if records, err = c.ListRecords(gctx, zoneID, name); err != nil {
			return fmt.Errorf("error listing records for %s: %w", name, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return res, err
	}
	log.Debug().
		Stringer("ipv4", res.Addresses.IPv4).
		Stringer("ipv6", res.Addresses.IPv6).
		Int("records", len(records)).
		Msg("resolved current addresses")

	v4, err := findRecord(records, name, IPv4)
	if err != nil {
		return res, err
	}
	v6, err := findRecord(records, name, IPv6)
	if err != nil {
		return res, err
	}

	var pending []update
	if v4.Content.Addr != res.Addresses.IPv4 {
		pending = append(pending, newUpdate(v4, IPv4, res.Addresses.IPv4))
	}
	if v6.Content.Addr != res.Addresses.IPv6 {
		pending = append(pending, newUpdate(v6, IPv6, res.Addresses.IPv6))
	}
	if len(pending) == 0 {
		log.Debug().Msg("records are up to date")
		return res, nil
	}

	// errgroup's context is already cancelled once Wait returns; updates run on ctx.
	res.Outcomes = c.applyUpdates(ctx, pending)
	for _, o := range res.Outcomes {
		if o.Err != nil {
			log.Error().Err(o.Err).Str("family", string(o.Family)).Stringer("addr", o.Addr).Msg("update failed: " + o.Note)
			continue
		}
		log.Info().Str("family", string(o.Family)).Stringer("addr", o.Addr).Msg("updated: " + o.Note)
	}

	res.Message = summary(name, res.Outcomes)
	// unlevelled so the operator sees the report at any log level
	log.WithLevel(zerolog.NoLevel).Msg(res.Message)
	if err := c.PostMessage(ctx, webhookURL, res.Message); err != nil {
		return res, fmt.Errorf("error sending notification: %w", err)
	}
	return res, nil
}

type update struct {
	record  Record
	content Content
	outcome Outcome
}

func newUpdate(r Record, f Family, addr netip.Addr) update {
	u := update{
		record:  r,
		outcome: Outcome{Family: f, Addr: addr, Note: changeNote(f, addr)},
	}
	if f == IPv4 {
		u.content = IPv4Content(addr)
	} else {
		u.content = IPv6Content(addr)
	}
	return u
}

// applyUpdates runs every update concurrently and waits for all of them.
// Outcomes keep the order of pending.
func (c *Client) applyUpdates(ctx context.Context, pending []update) []Outcome {
	outcomes := make([]Outcome, len(pending))
	var wg sync.WaitGroup
	wg.Add(len(pending))
	for i, u := range pending {
		go func(i int, u update) {
			defer wg.Done()
			o := u.outcome
			_, o.Err = c.UpdateRecord(ctx, u.record, u.content)
			outcomes[i] = o
		}(i, u)
	}
	wg.Wait()
	return outcomes
}

// findRecord returns the first record named name holding an address of family f.
// Duplicates are not detected; the provider's ordering decides which one is used.
func findRecord(records []Record, name string, f Family) (Record, error) {
	for _, r := range records {
		if r.Name != name {
			continue
		}
		if (f == IPv4 && r.Content.IsIPv4()) || (f == IPv6 && r.Content.IsIPv6()) {
			return r, nil
		}
	}
	return Record{}, &RecordNotFoundError{Family: f, Name: name}
}

func summary(name string, outcomes []Outcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dyndns update (%s)", name)
	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Fprintf(&b, "\n- Update failed: %s; Error was: %s", o.Note, o.Err)
			continue
		}
		fmt.Fprintf(&b, "\n- Updated: %s", o.Note)
	}
	return b.String()
}
