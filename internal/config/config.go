// Package config loads the updater's settings.
//
// Values are applied in order, later sources winning:
// built-in defaults, a YAML file, a dotenv file, then DDNS_* environment variables.
// Command line flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	APIToken   string `yaml:"api_token" envconfig:"DDNS_API_TOKEN"`
	KeyFile    string `yaml:"key_file" envconfig:"DDNS_KEY_FILE"`
	Name       string `yaml:"name" envconfig:"DDNS_NAME"`
	ZoneID     string `yaml:"zone_id" envconfig:"DDNS_ZONE_ID"`
	WebhookURL string `yaml:"webhook_url" envconfig:"DDNS_WEBHOOK_URL"`

	IPv4URL    string   `yaml:"ipv4_url" envconfig:"DDNS_IPV4_URL"`
	IPv6URL    string   `yaml:"ipv6_url" envconfig:"DDNS_IPV6_URL"`
	Interfaces []string `yaml:"interfaces" envconfig:"DDNS_INTERFACES"`
	IPv4       string   `yaml:"ipv4" envconfig:"DDNS_IPV4"`
	IPv6       string   `yaml:"ipv6" envconfig:"DDNS_IPV6"`

	LogLevel       string        `yaml:"log_level" envconfig:"DDNS_LOG_LEVEL"`
	Pretty         bool          `yaml:"pretty" envconfig:"DDNS_PRETTY"`
	Timeout        time.Duration `yaml:"timeout" envconfig:"DDNS_TIMEOUT"`
	Interval       time.Duration `yaml:"interval" envconfig:"DDNS_INTERVAL"`
	PushgatewayURL string        `yaml:"pushgateway_url" envconfig:"DDNS_PUSHGATEWAY_URL"`
}

func Default() *Config {
	return &Config{
		LogLevel: "info",
		Timeout:  2 * time.Minute,
	}
}

// Load builds a Config from the YAML file at path and the dotenv file at envFile.
// Either may be empty to skip it. A missing envFile is not an error, a missing path is.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	if envFile != "" {
		// godotenv never overrides variables that are already set.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading env file: %w", err)
		}
	}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	return cfg, nil
}

// Validate reports every problem with cfg at once.
func (cfg *Config) Validate() error {
	var errs []error
	if cfg.Name == "" {
		errs = append(errs, errors.New("name cannot be empty"))
	} else if !strings.Contains(cfg.Name, ".") {
		errs = append(errs, errors.New("name must have at least one dot"))
	}
	if cfg.ZoneID == "" {
		errs = append(errs, errors.New("zone ID cannot be empty"))
	}
	if cfg.APIToken == "" && cfg.KeyFile == "" {
		errs = append(errs, errors.New("an API token or a key file is required"))
	}
	if err := checkURL(cfg.WebhookURL); err != nil {
		errs = append(errs, fmt.Errorf("webhook URL: %w", err))
	}
	for name, u := range map[string]string{"IPv4 service URL": cfg.IPv4URL, "IPv6 service URL": cfg.IPv6URL, "pushgateway URL": cfg.PushgatewayURL} {
		if u == "" {
			continue
		}
		if err := checkURL(u); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if (cfg.IPv4 == "") != (cfg.IPv6 == "") {
		errs = append(errs, errors.New("fixed addresses need both ipv4 and ipv6"))
	}
	if cfg.IPv4 != "" && len(cfg.Interfaces) > 0 {
		errs = append(errs, errors.New("fixed addresses and interfaces are mutually exclusive"))
	}
	if cfg.Timeout < 0 || cfg.Interval < 0 {
		errs = append(errs, errors.New("durations cannot be negative"))
	}
	return errors.Join(errs...)
}

func checkURL(s string) error {
	if s == "" {
		return errors.New("cannot be empty")
	}
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
