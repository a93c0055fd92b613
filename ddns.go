package dyndns

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cloudflare/cloudflare-go"
	"github.com/rs/zerolog"
)

// New returns a Client ready to run reconciliation passes.
//
// A Provider must be registered, usually with UsingCloudflare.
// Without UsingResolver or UsingWebResolver the client asks the default echo services,
// and without UsingNotifier it posts through a WebhookNotifier.
func New(options ...clientOption) (*Client, error) {
	c := &Client{
		logger: zerolog.Nop(),
	}
	for i, opt := range options {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("dyndns.New: option %d returned an error: %s", i, err)
		}
	}

	if c.Provider == nil {
		return nil, fmt.Errorf("dyndns.New: no DNS provider was registered and there is no default option - use dyndns.UsingCloudflare or similar")
	}
	if c.Resolver == nil {
		r, err := WebResolver(DefaultIPv4URL, DefaultIPv6URL)
		if err != nil {
			return nil, fmt.Errorf("dyndns.New: %w", err)
		}
		c.Resolver = r
	}
	if c.Notifier == nil {
		c.Notifier = NewWebhookNotifier(nil)
	}

	// this lets us propagate the logger and http client to dependencies registered after WithLogger or UsingHTTPClient
	c.propagate()
	return c, nil
}

type clientOption func(*Client) error

// UsingCloudflare registers the Cloudflare provider authenticated with an API token.
// opts are passed through to cloudflare-go, e.g. cloudflare.BaseURL.
func UsingCloudflare(token string, opts ...cloudflare.Option) clientOption {
	return func(c *Client) (err error) {
		if c.Provider, err = newCloudflareProvider(token, opts...); err != nil {
			return fmt.Errorf("dyndns.UsingCloudflare: error creating cloudflare DNS provider: %w", err)
		}
		return nil
	}
}

func UsingProvider(p Provider) clientOption {
	return func(c *Client) error {
		c.Provider = p
		return nil
	}
}

func UsingResolver(resolver Resolver) clientOption {
	return func(c *Client) error {
		c.Resolver = resolver
		return nil
	}
}

// UsingWebResolver is shorthand for UsingResolver(WebResolver(ipv4URL, ipv6URL)).
func UsingWebResolver(ipv4URL, ipv6URL string) clientOption {
	return func(c *Client) (err error) {
		c.Resolver, err = WebResolver(ipv4URL, ipv6URL)
		return err
	}
}

func UsingNotifier(n Notifier) clientOption {
	return func(c *Client) error {
		c.Notifier = n
		return nil
	}
}

func WithLogger(logger zerolog.Logger) clientOption {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// UsingHTTPClient sets the http client used by the resolver, the provider and the notifier,
// for those implementations that accept one.
func UsingHTTPClient(httpclient *http.Client) clientOption {
	return func(c *Client) error {
		if httpclient == nil {
			httpclient = http.DefaultClient
		}
		c.httpClient = httpclient
		return nil
	}
}

func WithMetrics(m *Metrics) clientOption {
	return func(c *Client) error {
		c.metrics = m
		return nil
	}
}

// Client runs reconciliation passes against one DNS provider.
type Client struct {
	Resolver
	Provider
	Notifier
	logger     zerolog.Logger
	httpClient *http.Client
	metrics    *Metrics
}

func (c *Client) propagate() {
	type setLogger interface {
		SetLogger(zerolog.Logger)
	}
	type setHTTPClient interface {
		SetHTTPClient(*http.Client)
	}
	for _, dep := range []any{c.Resolver, c.Provider, c.Notifier} {
		if l, ok := dep.(setLogger); ok {
			l.SetLogger(c.logger)
		}
		if c.httpClient == nil {
			continue
		}
		if h, ok := dep.(setHTTPClient); ok {
			h.SetHTTPClient(c.httpClient)
		}
	}
}

type daemon struct {
	timeout time.Duration
	after   func(ctx context.Context, res Result, err error)
}

type daemonOption func(*daemon)

// PassTimeout bounds each pass started by RunDaemon.
func PassTimeout(d time.Duration) daemonOption {
	return func(dm *daemon) { dm.timeout = d }
}

// AfterEachPass registers fn to run when a pass started by RunDaemon finishes,
// with the pass result and error. ctx is the daemon's context, not the pass context.
func AfterEachPass(fn func(ctx context.Context, res Result, err error)) daemonOption {
	return func(d *daemon) { d.after = fn }
}

// RunDaemon runs a pass immediately and then once per interval until ctx is done.
// Intervals shorter than a minute are raised to one minute.
// Pass errors are logged and do not stop the loop.
func RunDaemon(ctx context.Context, c *Client, interval time.Duration, name, zoneID, webhookURL string, options ...daemonOption) {
	var d daemon
	for _, opt := range options {
		opt(&d)
	}
	if interval < 1*time.Minute {
		interval = 1 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		res, err := d.pass(ctx, c, name, zoneID, webhookURL)
		if err != nil {
			c.logger.Error().Err(err).Str("name", name).Msg("dyndns.RunDaemon: pass failed")
		}
		if d.after != nil {
			d.after(ctx, res, err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (d daemon) pass(ctx context.Context, c *Client, name, zoneID, webhookURL string) (Result, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	return c.Reconcile(ctx, name, zoneID, webhookURL)
}
