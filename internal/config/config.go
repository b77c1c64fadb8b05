package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"award-seat-alerts/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Watch     WatchConfig     `mapstructure:"watch"`
	State     StateConfig     `mapstructure:"state"`
	History   HistoryConfig   `mapstructure:"history"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// SchedulerConfig governs polling cadence.
type SchedulerConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	AlignToBucket bool          `mapstructure:"align_to_bucket"`
	StartupDelay  time.Duration `mapstructure:"startup_delay"`
}

// ProviderConfig covers seats.aero partner API access.
type ProviderConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryBackoff   time.Duration `mapstructure:"retry_backoff"`
	MinInterval    time.Duration `mapstructure:"min_interval"`
	PageSize       int           `mapstructure:"page_size"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// WatchConfig describes the single monitored route.
type WatchConfig struct {
	Origin      string        `mapstructure:"origin"`
	Destination string        `mapstructure:"destination"`
	StartDate   string        `mapstructure:"start_date"`
	EndDate     string        `mapstructure:"end_date"`
	Cabin       string        `mapstructure:"cabin"`
	Sources     []string      `mapstructure:"sources"`
	Filters     FiltersConfig `mapstructure:"filters"`
}

// FiltersConfig holds the eligibility criteria compiled into the evaluator.
type FiltersConfig struct {
	MinSeats   int     `mapstructure:"min_seats"`
	MaxMileage int     `mapstructure:"max_mileage"`
	MaxTaxes   float64 `mapstructure:"max_taxes"`
	DirectOnly bool    `mapstructure:"direct_only"`
}

// StateConfig locates the cooldown store and tunes suppression.
type StateConfig struct {
	Path      string          `mapstructure:"path"`
	Cooldown  time.Duration   `mapstructure:"cooldown"`
	Retention time.Duration   `mapstructure:"retention"`
	Signature SignatureConfig `mapstructure:"signature"`
}

// SignatureConfig selects which optional fields enter the offer signature.
// Volatile provider fields (freshness timestamp) are always excluded.
type SignatureConfig struct {
	IncludeMileage bool `mapstructure:"include_mileage"`
	IncludeSeats   bool `mapstructure:"include_seats"`
}

// HistoryConfig locates the per-cycle summary journal.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// AlertingConfig defines alert routing.
type AlertingConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig 描述 Telegram 告警参数。
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SEATWATCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.normalise()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "seatwatcher")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("scheduler.interval", "15m")
	v.SetDefault("scheduler.align_to_bucket", true)
	v.SetDefault("scheduler.startup_delay", "0s")

	v.SetDefault("provider.base_url", "https://seats.aero/partnerapi")
	v.SetDefault("provider.request_timeout", "20s")
	v.SetDefault("provider.max_retries", 3)
	v.SetDefault("provider.retry_backoff", "1s")
	v.SetDefault("provider.min_interval", "500ms")
	v.SetDefault("provider.page_size", 500)
	v.SetDefault("provider.user_agent", "seatwatcher/1.0")

	v.SetDefault("watch.cabin", "J")
	v.SetDefault("watch.filters.min_seats", 1)

	v.SetDefault("state.path", "state/cooldown.json")
	v.SetDefault("state.cooldown", "24h")
	v.SetDefault("state.retention", "72h")
	v.SetDefault("state.signature.include_mileage", true)
	v.SetDefault("state.signature.include_seats", false)

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "state/history.jsonl")

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("export.max_data_points", 100000)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// normalise upper-cases airport codes and cabin before validation.
func (c *Config) normalise() {
	c.Watch.Origin = strings.ToUpper(strings.TrimSpace(c.Watch.Origin))
	c.Watch.Destination = strings.ToUpper(strings.TrimSpace(c.Watch.Destination))
	c.Watch.Cabin = strings.ToUpper(strings.TrimSpace(c.Watch.Cabin))
	for i, s := range c.Watch.Sources {
		c.Watch.Sources[i] = strings.TrimSpace(s)
	}
}

var validCabins = map[string]struct{}{"Y": {}, "W": {}, "J": {}, "F": {}}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}
	if c.Provider.MaxRetries < 0 {
		return fmt.Errorf("provider.max_retries cannot be negative")
	}
	if c.Provider.PageSize <= 0 {
		return fmt.Errorf("provider.page_size must be greater than zero")
	}
	if c.Watch.Origin == "" || c.Watch.Destination == "" {
		return fmt.Errorf("watch.origin and watch.destination are required")
	}
	if _, ok := validCabins[c.Watch.Cabin]; !ok {
		return fmt.Errorf("watch.cabin must be one of Y/W/J/F, got %q", c.Watch.Cabin)
	}
	if c.Watch.StartDate == "" {
		return fmt.Errorf("watch.start_date is required")
	}
	if _, err := time.Parse("2006-01-02", c.Watch.StartDate); err != nil {
		return fmt.Errorf("watch.start_date must be YYYY-MM-DD: %w", err)
	}
	if c.Watch.EndDate != "" {
		end, err := time.Parse("2006-01-02", c.Watch.EndDate)
		if err != nil {
			return fmt.Errorf("watch.end_date must be YYYY-MM-DD: %w", err)
		}
		start, _ := time.Parse("2006-01-02", c.Watch.StartDate)
		if end.Before(start) {
			return fmt.Errorf("watch.end_date cannot precede watch.start_date")
		}
	}
	if len(c.Watch.Sources) == 0 {
		return fmt.Errorf("watch.sources must list at least one mileage program")
	}
	if c.State.Path == "" {
		return fmt.Errorf("state.path is required")
	}
	if c.State.Cooldown <= 0 {
		return fmt.Errorf("state.cooldown must be greater than zero")
	}
	if c.State.Retention < 0 {
		return fmt.Errorf("state.retention cannot be negative")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token 必须配置")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id 必须配置")
		}
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}

// EffectiveEndDate returns end_date, falling back to start_date for
// single-day watches.
func (c *Config) EffectiveEndDate() string {
	if c.Watch.EndDate != "" {
		return c.Watch.EndDate
	}
	return c.Watch.StartDate
}
