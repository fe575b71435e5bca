package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig      `yaml:"server"`
	Mailchimp  MailchimpConfig   `yaml:"mailchimp"`
	Polling    PollingConfig     `yaml:"polling"`
	Database   DatabaseConfig    `yaml:"database"`
	Redis      RedisConfig       `yaml:"redis"`
	Thresholds ThresholdDefaults `yaml:"thresholds"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// In a container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// Addr returns the host:port address to bind
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.GetHost(), c.Port)
}

// RegionCredentials holds Mailchimp API credentials for one regional account
type RegionCredentials struct {
	APIKey       string `yaml:"api_key"`
	ServerPrefix string `yaml:"server_prefix"`
}

// MailchimpConfig holds Mailchimp API configuration across regional accounts
type MailchimpConfig struct {
	Regions        map[string]RegionCredentials `yaml:"regions"`
	TimeoutSeconds int                          `yaml:"timeout_seconds"`
	MaxRetries     int                          `yaml:"max_retries"`
	// ReportWorkers caps concurrent report fetches per region so we stay
	// under the Mailchimp simultaneous connection limit.
	ReportWorkers int `yaml:"report_workers"`
}

// Timeout returns the configured timeout as a duration
func (c MailchimpConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RegionCodes returns the configured region codes in lexical order
func (c MailchimpConfig) RegionCodes() []string {
	codes := make([]string, 0, len(c.Regions))
	for code := range c.Regions {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// PollingConfig holds background sync configuration
type PollingConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
	LookbackDays    int `yaml:"lookback_days"`
}

// Interval returns the polling interval as a duration
func (c PollingConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// DatabaseConfig holds Postgres configuration for the campaign cache
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// RedisConfig holds Redis configuration for the dashboard response cache
type RedisConfig struct {
	Addr            string `yaml:"addr"`
	Password        string `yaml:"password"`
	DB              int    `yaml:"db"`
	Enabled         bool   `yaml:"enabled"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
}

// CacheTTL returns the response cache TTL as a duration
func (c RedisConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// ThresholdDefaults holds boot-time alert/review threshold values.
// Live values are owned by the threshold store and may diverge after
// PUT /api/thresholds calls; these only seed an empty store.
// Percentages are whole numbers (5 means 5%).
type ThresholdDefaults struct {
	BounceRate           float64 `yaml:"bounce_rate"`
	UnsubRate            float64 `yaml:"unsub_rate"`
	LowActivityCampaigns float64 `yaml:"low_activity_campaigns"`
	LowOpenRate          float64 `yaml:"low_open_rate"`
	LowClickRate         float64 `yaml:"low_click_rate"`
	ReviewOpenRate       float64 `yaml:"review_open_rate"`
	ReviewClickRate      float64 `yaml:"review_click_rate"`
	ReviewDeliveryRate   float64 `yaml:"review_delivery_rate"`
}

// Load reads and parses the configuration file. A missing file is not an
// error; the config then comes entirely from defaults and env overrides.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Mailchimp.TimeoutSeconds == 0 {
		cfg.Mailchimp.TimeoutSeconds = 30
	}
	if cfg.Mailchimp.MaxRetries == 0 {
		cfg.Mailchimp.MaxRetries = 3
	}
	if cfg.Mailchimp.ReportWorkers == 0 {
		cfg.Mailchimp.ReportWorkers = 5
	}
	if cfg.Polling.IntervalSeconds == 0 {
		cfg.Polling.IntervalSeconds = 900
	}
	if cfg.Polling.LookbackDays == 0 {
		cfg.Polling.LookbackDays = 30
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Redis.CacheTTLSeconds == 0 {
		cfg.Redis.CacheTTLSeconds = 300
	}
	applyThresholdDefaults(&cfg.Thresholds)

	return &cfg, nil
}

func applyThresholdDefaults(t *ThresholdDefaults) {
	if t.BounceRate == 0 {
		t.BounceRate = 5
	}
	if t.UnsubRate == 0 {
		t.UnsubRate = 1
	}
	if t.LowActivityCampaigns == 0 {
		t.LowActivityCampaigns = 2
	}
	if t.LowOpenRate == 0 {
		t.LowOpenRate = 15
	}
	if t.LowClickRate == 0 {
		t.LowClickRate = 1
	}
	if t.ReviewOpenRate == 0 {
		t.ReviewOpenRate = 20
	}
	if t.ReviewClickRate == 0 {
		t.ReviewClickRate = 2
	}
	if t.ReviewDeliveryRate == 0 {
		t.ReviewDeliveryRate = 95
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in production.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Region credentials from environment: MAILCHIMP_API_KEY_<REGION> +
	// MAILCHIMP_SERVER_PREFIX_<REGION> pairs add or override regions, so a
	// deployment can run with zero regions in the YAML file.
	if cfg.Mailchimp.Regions == nil {
		cfg.Mailchimp.Regions = make(map[string]RegionCredentials)
	}
	for _, region := range detectEnvRegions() {
		cfg.Mailchimp.Regions[region] = RegionCredentials{
			APIKey:       os.Getenv("MAILCHIMP_API_KEY_" + region),
			ServerPrefix: os.Getenv("MAILCHIMP_SERVER_PREFIX_" + region),
		}
	}
	// Fallback single-account credentials become the DEFAULT region
	if len(cfg.Mailchimp.Regions) == 0 {
		key := os.Getenv("MAILCHIMP_API_KEY")
		prefix := os.Getenv("MAILCHIMP_SERVER_PREFIX")
		if key != "" && prefix != "" {
			cfg.Mailchimp.Regions["DEFAULT"] = RegionCredentials{APIKey: key, ServerPrefix: prefix}
		}
	}

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
		cfg.Redis.Enabled = true
	}
	if pw := os.Getenv("REDIS_PASSWORD"); pw != "" {
		cfg.Redis.Password = pw
	}

	return cfg, nil
}

// detectEnvRegions scans the environment for region-suffixed credential
// pairs and returns the region codes that have both values set.
func detectEnvRegions() []string {
	const keyPrefix = "MAILCHIMP_API_KEY_"
	var regions []string
	for _, entry := range os.Environ() {
		name, _, ok := strings.Cut(entry, "=")
		if !ok || !strings.HasPrefix(name, keyPrefix) {
			continue
		}
		region := strings.TrimPrefix(name, keyPrefix)
		if region == "" {
			continue
		}
		if os.Getenv(keyPrefix+region) != "" && os.Getenv("MAILCHIMP_SERVER_PREFIX_"+region) != "" {
			regions = append(regions, region)
		}
	}
	sort.Strings(regions)
	return regions
}
