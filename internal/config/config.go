package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(NewConfig),
)

// Config holds all daemon configuration
type Config struct {
	// Status server settings
	ServerPort    int    `env:"SERVER_PORT" envDefault:"8787"`
	ServerAddress string `env:"SERVER_ADDRESS" envDefault:"0.0.0.0"`
	Environment   string `env:"ENVIRONMENT" envDefault:"local"`
	Debug         bool   `env:"DEBUG" envDefault:"false"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`

	// Hostname identifies this node in digests and alerts (defaults to the OS hostname)
	Hostname string `env:"HOSTNAME"`
	// RigName is the human label used in notification titles
	RigName string `env:"RIG_NAME" envDefault:"mine-lab"`

	Miner     MinerConfig
	Intervals IntervalsConfig
	Sync      SyncConfig
	Pushcut   PushcutConfig
	Email     EmailConfig
	Notify    NotifyConfig

	// SummaryMinersFile lists the miners included in the daily digest (JSON or YAML)
	SummaryMinersFile string `env:"SUMMARY_MINERS_FILE" envDefault:"/etc/miner-syncd/config.json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"10s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// MinerConfig describes the monitored miner process and its local API
type MinerConfig struct {
	// ProcessName is matched as a case-insensitive substring of process names
	ProcessName string `env:"MINER_PROCESS_NAME" envDefault:"xmrig"`
	// RestartCommand is executed to (re)start the miner
	RestartCommand []string `env:"MINER_RESTART_CMD" envSeparator:" " envDefault:"systemctl restart xmrig.service"`
	// APIURL is the base URL of the XMRig HTTP API
	APIURL string `env:"MINER_API_URL" envDefault:"http://127.0.0.1:18088"`
	// APIToken is the optional bearer token for the XMRig HTTP API
	APIToken string `env:"MINER_API_TOKEN"`
	// ProbeTimeout bounds a whole health sample, miner API query included
	ProbeTimeout time.Duration `env:"MINER_PROBE_TIMEOUT" envDefault:"2s"`
	// LaunchTimeout bounds the restart command
	LaunchTimeout time.Duration `env:"MINER_LAUNCH_TIMEOUT" envDefault:"30s"`
}

// IntervalsConfig holds the periodic task schedule
type IntervalsConfig struct {
	AlertCheck    time.Duration `env:"ALERT_CHECK_INTERVAL" envDefault:"300s"`
	AlertCooldown time.Duration `env:"ALERT_COOLDOWN" envDefault:"0"`
	Watchdog      time.Duration `env:"WATCHDOG_INTERVAL" envDefault:"300s"`
	Summary       time.Duration `env:"SUMMARY_INTERVAL" envDefault:"24h"`
	SummaryPoll   time.Duration `env:"SUMMARY_POLL_INTERVAL" envDefault:"300s"`
	// TaskTimeout bounds a single tick of any periodic task
	TaskTimeout time.Duration `env:"TASK_TIMEOUT" envDefault:"2m"`
}

// Cooldown returns the alert cool-down, defaulting to one alert check interval
func (i *IntervalsConfig) Cooldown() time.Duration {
	if i.AlertCooldown > 0 {
		return i.AlertCooldown
	}
	return i.AlertCheck
}

// SyncConfig controls the periodic "Miner Sync Update" heartbeat push
type SyncConfig struct {
	Enabled  bool          `env:"SYNC_PUSH_ENABLED" envDefault:"false"`
	Interval time.Duration `env:"SYNC_INTERVAL" envDefault:"300s"`
}

// PushcutConfig holds Pushcut webhook settings
type PushcutConfig struct {
	// Key is the notification name appended to BaseURL
	Key string `env:"PUSHCUT_KEY"`
	// WatchdogURL overrides the alert channel URL
	WatchdogURL string `env:"PUSHCUT_WATCHDOG_URL"`
	// SummaryURL overrides the summary channel URL
	SummaryURL string        `env:"PUSHCUT_SUMMARY_URL"`
	BaseURL    string        `env:"PUSHCUT_BASE_URL" envDefault:"https://api.pushcut.io/v1/notifications"`
	Timeout    time.Duration `env:"PUSHCUT_TIMEOUT" envDefault:"10s"`
}

// KeyURL returns the key-derived notification URL, or "" when no key is set
func (p *PushcutConfig) KeyURL() string {
	if p.Key == "" {
		return ""
	}
	return strings.TrimRight(p.BaseURL, "/") + "/" + p.Key
}

// AlertURL returns the URL used for watchdog and alert notifications
func (p *PushcutConfig) AlertURL() string {
	if p.WatchdogURL != "" {
		return p.WatchdogURL
	}
	return p.KeyURL()
}

// DigestURL returns the URL used for the daily summary
func (p *PushcutConfig) DigestURL() string {
	if p.SummaryURL != "" {
		return p.SummaryURL
	}
	return p.KeyURL()
}

// EmailConfig holds the optional Mailgun email sink settings
type EmailConfig struct {
	Enabled       bool   `env:"EMAIL_ENABLED" envDefault:"false"`
	MailgunDomain string `env:"MAILGUN_DOMAIN" envDefault:""`
	MailgunAPIKey string `env:"MAILGUN_API_KEY" envDefault:""`
	FromEmail     string `env:"EMAIL_FROM_ADDRESS" envDefault:""`
	FromName      string `env:"EMAIL_FROM_NAME" envDefault:"miner-syncd"`
	ToEmail       string `env:"EMAIL_TO_ADDRESS" envDefault:""`
}

// IsConfigured returns true if Mailgun is enabled and fully configured
func (e *EmailConfig) IsConfigured() bool {
	return e.Enabled && e.MailgunDomain != "" && e.MailgunAPIKey != "" && e.FromEmail != "" && e.ToEmail != ""
}

// NotifyConfig bounds outbound notification volume across all channels
type NotifyConfig struct {
	RatePerMinute int `env:"NOTIFY_RATE_PER_MINUTE" envDefault:"6"`
	Burst         int `env:"NOTIFY_BURST" envDefault:"3"`
}

// Addr returns the status server listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.ServerAddress, c.ServerPort)
}

// Validate rejects configurations the daemon cannot run with
func (c *Config) Validate() error {
	var errs []error
	positive := map[string]time.Duration{
		"ALERT_CHECK_INTERVAL":  c.Intervals.AlertCheck,
		"WATCHDOG_INTERVAL":     c.Intervals.Watchdog,
		"SUMMARY_INTERVAL":      c.Intervals.Summary,
		"SUMMARY_POLL_INTERVAL": c.Intervals.SummaryPoll,
		"TASK_TIMEOUT":          c.Intervals.TaskTimeout,
		"MINER_PROBE_TIMEOUT":   c.Miner.ProbeTimeout,
		"MINER_LAUNCH_TIMEOUT":  c.Miner.LaunchTimeout,
	}
	for name, d := range positive {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	if c.Intervals.AlertCooldown < 0 {
		errs = append(errs, fmt.Errorf("ALERT_COOLDOWN must not be negative"))
	}
	if c.Sync.Enabled && c.Sync.Interval <= 0 {
		errs = append(errs, fmt.Errorf("SYNC_INTERVAL must be positive when SYNC_PUSH_ENABLED is set"))
	}
	if strings.TrimSpace(c.Miner.ProcessName) == "" {
		errs = append(errs, errors.New("MINER_PROCESS_NAME is required"))
	}
	if len(c.Miner.RestartCommand) == 0 || c.Miner.RestartCommand[0] == "" {
		errs = append(errs, errors.New("MINER_RESTART_CMD is required"))
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("SERVER_PORT out of range: %d", c.ServerPort))
	}
	return errors.Join(errs...)
}

// Load parses the environment into a Config without logging or validation
func Load() (*Config, error) {
	cfg := &Config{}
	opts := env.Options{
		FuncMap: map[reflect.Type]env.ParserFunc{
			reflect.TypeOf(time.Duration(0)): parseDuration,
		},
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Hostname == "" {
		if h, err := os.Hostname(); err == nil {
			cfg.Hostname = h
		} else {
			cfg.Hostname = "unknown"
		}
	}
	return cfg, nil
}

// NewConfig loads and validates configuration from environment variables
func NewConfig(log *slog.Logger) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.String("addr", cfg.Addr()),
		slog.String("hostname", cfg.Hostname),
		slog.String("process", cfg.Miner.ProcessName),
		slog.Duration("alert_interval", cfg.Intervals.AlertCheck),
		slog.Duration("alert_cooldown", cfg.Intervals.Cooldown()),
		slog.Duration("watchdog_interval", cfg.Intervals.Watchdog),
		slog.Duration("summary_interval", cfg.Intervals.Summary),
		slog.Bool("pushcut_alerts", cfg.Pushcut.AlertURL() != ""),
		slog.Bool("email", cfg.Email.IsConfigured()),
	)

	return cfg, nil
}

// parseDuration accepts Go durations ("90s", "5m") and bare integers as seconds ("300").
func parseDuration(v string) (interface{}, error) {
	v = strings.TrimSpace(v)
	if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return nil, fmt.Errorf("invalid duration %q: %w", v, err)
	}
	return d, nil
}
