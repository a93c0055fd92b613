package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Travis-Britz/dyndns"
	"github.com/Travis-Britz/dyndns/internal/config"
	"github.com/Travis-Britz/dyndns/internal/logger"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	// -v is taken by --verbose
	cli.VersionFlag = &cli.BoolFlag{Name: "version", Usage: "print the version"}
	return &cli.App{
		Name:    "ddnscf",
		Usage:   "keep the A and AAAA records of a Cloudflare name pointed at this host",
		Version: version,
		Flags:   flags(),
		Action:  runCmd,
		Commands: []*cli.Command{
			{
				Name:   "setup",
				Usage:  "prompt for a Cloudflare API token, verify it and store it in the key file",
				Flags:  flags(),
				Action: setupCmd,
			},
		},
	}
}

func flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to a YAML config file"},
		&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "dotenv file to load if present"},
		&cli.StringFlag{Name: "name", Aliases: []string{"d"}, Usage: "DNS entry to update"},
		&cli.StringFlag{Name: "zone", Aliases: []string{"z"}, Usage: "Cloudflare zone ID holding the entry"},
		&cli.StringFlag{Name: "webhook", Aliases: []string{"w"}, Usage: "webhook URL that receives change reports"},
		&cli.StringFlag{Name: "key-file", Aliases: []string{"k"}, Value: filepath.Join(os.Getenv("HOME"), ".cloudflare"), Usage: "path to cloudflare API credentials file"},
		&cli.StringFlag{Name: "ipv4-url", Usage: "IPv4-only echo service"},
		&cli.StringFlag{Name: "ipv6-url", Usage: "IPv6-only echo service"},
		&cli.StringSliceFlag{Name: "interface", Aliases: []string{"i"}, Usage: "read addresses from local interfaces instead of an echo service"},
		&cli.StringFlag{Name: "ipv4", Usage: "fixed IPv4 address to set"},
		&cli.StringFlag{Name: "ipv6", Usage: "fixed IPv6 address to set"},
		&cli.StringFlag{Name: "log-level", Usage: "trace, debug, info, warn or error"},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "shorthand for --log-level=debug"},
		&cli.BoolFlag{Name: "pretty", Usage: "human readable log output"},
		&cli.DurationFlag{Name: "timeout", Usage: "give up on a pass after this long"},
		&cli.DurationFlag{Name: "interval", Usage: "repeat the pass at this interval instead of exiting (minimum 1m)"},
		&cli.StringFlag{Name: "pushgateway", Usage: "Prometheus Pushgateway URL to push pass metrics to"},
	}
}

// loadConfig layers command line flags over the file and environment configuration.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"), c.String("env-file"))
	if err != nil {
		return nil, err
	}
	set := func(flag string, dst *string) {
		if c.IsSet(flag) {
			*dst = c.String(flag)
		}
	}
	set("name", &cfg.Name)
	set("zone", &cfg.ZoneID)
	set("webhook", &cfg.WebhookURL)
	set("ipv4-url", &cfg.IPv4URL)
	set("ipv6-url", &cfg.IPv6URL)
	set("ipv4", &cfg.IPv4)
	set("ipv6", &cfg.IPv6)
	set("log-level", &cfg.LogLevel)
	set("pushgateway", &cfg.PushgatewayURL)
	if c.IsSet("key-file") || cfg.KeyFile == "" {
		cfg.KeyFile = c.String("key-file")
	}
	if c.IsSet("interface") {
		cfg.Interfaces = c.StringSlice("interface")
	}
	if c.Bool("verbose") {
		cfg.LogLevel = zerolog.DebugLevel.String()
	}
	if c.IsSet("pretty") {
		cfg.Pretty = c.Bool("pretty")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Duration("timeout")
	}
	if c.IsSet("interval") {
		cfg.Interval = c.Duration("interval")
	}
	return cfg, nil
}

func runCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	l, err := logger.Init(cfg.LogLevel, cfg.Pretty)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	l.Debug().Str("name", cfg.Name).Str("zone", cfg.ZoneID).Msg("config is valid")

	if err := ensureKeyFile(c.Context, cfg); err != nil {
		return err
	}
	token, err := cfg.Token()
	if err != nil {
		return fmt.Errorf("error reading key: %w", err)
	}

	resolver, err := newResolver(cfg)
	if err != nil {
		return fmt.Errorf("error creating resolver: %w", err)
	}
	metrics := dyndns.NewMetrics()
	client, err := dyndns.New(
		dyndns.UsingCloudflare(token),
		dyndns.UsingResolver(resolver),
		dyndns.WithLogger(l),
		dyndns.WithMetrics(metrics),
		dyndns.UsingHTTPClient(&http.Client{Timeout: 30 * time.Second}),
	)
	if err != nil {
		return fmt.Errorf("error creating dyndns.Client: %w", err)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	push := pushMetrics(metrics, cfg.PushgatewayURL, l)
	if cfg.Interval > 0 {
		l.Info().Dur("interval", cfg.Interval).Msg("running as daemon")
		dyndns.RunDaemon(ctx, client, cfg.Interval, cfg.Name, cfg.ZoneID, cfg.WebhookURL,
			dyndns.PassTimeout(cfg.Timeout),
			dyndns.AfterEachPass(push),
		)
		return nil
	}

	passCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		passCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	res, err := client.Reconcile(passCtx, cfg.Name, cfg.ZoneID, cfg.WebhookURL)
	push(ctx, res, err)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if len(res.Outcomes) == 0 {
		l.Info().Stringer("ipv4", res.Addresses.IPv4).Stringer("ipv6", res.Addresses.IPv6).Msg("records are up to date")
	}
	return nil
}

// pushMetrics returns a pass hook that sends m to the Pushgateway at url.
// It does nothing when url is empty; push failures are only logged.
func pushMetrics(m *dyndns.Metrics, url string, l zerolog.Logger) func(context.Context, dyndns.Result, error) {
	return func(ctx context.Context, _ dyndns.Result, _ error) {
		if url == "" {
			return
		}
		// the pass may have ended because ctx was cancelled; the push still gets its own deadline
		pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := m.Push(pushCtx, url, "dyndns"); err != nil {
			l.Warn().Err(err).Msg("metrics were not pushed")
		}
	}
}

func newResolver(cfg *config.Config) (dyndns.Resolver, error) {
	switch {
	case cfg.IPv4 != "":
		return dyndns.FromString(cfg.IPv4, cfg.IPv6)
	case len(cfg.Interfaces) > 0:
		return dyndns.InterfaceResolver(cfg.Interfaces...), nil
	default:
		return dyndns.WebResolver(cfg.IPv4URL, cfg.IPv6URL)
	}
}

// ensureKeyFile runs the interactive setup when no token is configured and the key file does not exist yet.
func ensureKeyFile(ctx context.Context, cfg *config.Config) error {
	if cfg.APIToken != "" {
		return nil
	}
	_, err := os.Stat(cfg.KeyFile)
	if !errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	log.Info().Str("path", cfg.KeyFile).Msg("key file does not exist")
	if !term.IsTerminal(int(syscall.Stdin)) {
		return fmt.Errorf("key file \"%s\" does not exist; run \"ddnscf setup\" or set DDNS_API_TOKEN", cfg.KeyFile)
	}
	if err := runSetup(ctx, cfg.KeyFile); err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	return nil
}

func setupCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if _, err := logger.Init(cfg.LogLevel, true); err != nil {
		return err
	}
	return runSetup(c.Context, cfg.KeyFile)
}

func runSetup(ctx context.Context, keyFile string) error {
	log.Debug().Msg("running setup")
	fmt.Fprintln(os.Stderr, "Enter Cloudflare API Key:")
	bytekey, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return fmt.Errorf("runSetup: error reading from stdin: %w", err)
	}
	key := string(bytekey)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	log.Info().Msg("verifying token...")
	if err := dyndns.VerifyCloudflareToken(ctx, key); err != nil {
		return err
	}
	log.Info().Msg("token verified successfully")

	if err := config.WriteKey(keyFile, key); err != nil {
		return err
	}
	log.Info().Str("path", keyFile).Msg("token written")
	return nil
}
