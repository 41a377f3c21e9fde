package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Warehouse WarehouseConfig `yaml:"warehouse" mapstructure:"warehouse"`
	Local     LocalConfig     `yaml:"local" mapstructure:"local"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Calendar  CalendarConfig  `yaml:"calendar" mapstructure:"calendar"`
	Schedule  ScheduleConfig  `yaml:"schedule" mapstructure:"schedule"`
	Export    ExportConfig    `yaml:"export" mapstructure:"export"`
}

// WarehouseConfig configures the Postgres database holding both the raw
// upstream tables and the fact tables.
type WarehouseConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
	// Upstream reads failing with a transient error are retried.
	RetryAttempts  int `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryBackoffMs int `yaml:"retry_backoff_ms" mapstructure:"retry_backoff_ms"`
}

// LocalConfig configures the SQLite sink used by dry runs.
type LocalConfig struct {
	SQLitePath string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// CalendarConfig configures business-day counting.
type CalendarConfig struct {
	IncludeSaturdays bool     `yaml:"include_saturdays" mapstructure:"include_saturdays"`
	Holidays         []string `yaml:"holidays" mapstructure:"holidays"`
}

// HolidayDates parses the configured YYYY-MM-DD holidays.
func (c CalendarConfig) HolidayDates() ([]time.Time, error) {
	out := make([]time.Time, 0, len(c.Holidays))
	for _, h := range c.Holidays {
		d, err := time.Parse(time.DateOnly, strings.TrimSpace(h))
		if err != nil {
			return nil, eris.Wrapf(err, "config: parse holiday %q", h)
		}
		out = append(out, d)
	}
	return out, nil
}

// ScheduleConfig configures the recurring run command.
type ScheduleConfig struct {
	Cron         string `yaml:"cron" mapstructure:"cron"`
	LookbackDays int    `yaml:"lookback_days" mapstructure:"lookback_days"`
}

// ExportConfig configures spreadsheet exports.
type ExportConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FACO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("warehouse.database_url", "")
	v.SetDefault("warehouse.max_conns", 10)
	v.SetDefault("warehouse.min_conns", 2)
	v.SetDefault("warehouse.retry_attempts", 3)
	v.SetDefault("warehouse.retry_backoff_ms", 500)
	v.SetDefault("local.sqlite_path", "faco-local.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("calendar.include_saturdays", false)
	v.SetDefault("calendar.holidays", []string{})
	v.SetDefault("schedule.cron", "0 6 * * *")
	v.SetDefault("schedule.lookback_days", 7)
	v.SetDefault("export.dir", "exports")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes: "run",
// "dry-run", "migrate", "schedule", "export".
func (c *Config) Validate(mode string) error {
	var errs []string

	needsDB := false
	switch mode {
	case "run", "migrate", "export":
		needsDB = true
	case "schedule":
		needsDB = true
		if strings.TrimSpace(c.Schedule.Cron) == "" {
			errs = append(errs, "schedule.cron is required")
		}
		if c.Schedule.LookbackDays < 0 {
			errs = append(errs, "schedule.lookback_days must be >= 0")
		}
	case "dry-run":
		needsDB = true
		if strings.TrimSpace(c.Local.SQLitePath) == "" {
			errs = append(errs, "local.sqlite_path is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if needsDB && c.Warehouse.DatabaseURL == "" {
		errs = append(errs, "warehouse.database_url is required")
	}
	if c.Warehouse.MinConns > c.Warehouse.MaxConns && c.Warehouse.MaxConns > 0 {
		errs = append(errs, "warehouse.min_conns must not exceed warehouse.max_conns")
	}
	if _, err := c.Calendar.HolidayDates(); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
