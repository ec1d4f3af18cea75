// Package config loads service configuration from config.yaml plus RECOND_*
// environment overrides.
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/fx"

	"github.com/sellerdesk/recond/internal/engine"
	"github.com/sellerdesk/recond/internal/engine/domain"
	"github.com/sellerdesk/recond/internal/engine/health"
	"github.com/sellerdesk/recond/internal/engine/riskalert"
)

type Config struct {
	Environment string         `mapstructure:"environment"`
	Server      ServerConfig   `mapstructure:"server"`
	Database    DatabaseConfig `mapstructure:"database"`
	Log         LogConfig      `mapstructure:"log"`
	Worker      WorkerConfig   `mapstructure:"worker"`
	Engine      EngineConfig   `mapstructure:"engine"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	Mode string `mapstructure:"mode"`
	// APIKey guards the ingest endpoints when set.
	APIKey string `mapstructure:"api_key"`
	// ReportTTLSeconds bounds how long a computed report may be served from
	// cache.
	ReportTTLSeconds int `mapstructure:"report_ttl_seconds"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type WorkerConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	IntervalSeconds int  `mapstructure:"interval_seconds"`
}

// EngineConfig is the rule section of the file; it maps onto engine.Config
// and is validated fail-fast when the engine is constructed.
type EngineConfig struct {
	MarginDropThresholdPct      float64 `mapstructure:"margin_drop_threshold_pct"`
	CommissionSpikeThresholdPct float64 `mapstructure:"commission_spike_threshold_pct"`
	DelayedAfterDays            int     `mapstructure:"delayed_after_days"`
	CriticalAfterDays           int     `mapstructure:"critical_after_days"`
	DelayHighDays               int     `mapstructure:"delay_high_days"`
	LargeLossThreshold          int64   `mapstructure:"large_loss_threshold"`

	CommissionBands []BandConfig `mapstructure:"commission_bands"`
	MarginBands     []BandConfig `mapstructure:"margin_bands"`
	RefundRateBands []BandConfig `mapstructure:"refund_rate_bands"`

	Weights WeightsConfig `mapstructure:"weights"`
}

type BandConfig struct {
	Min      float64 `mapstructure:"min"`
	Severity string  `mapstructure:"severity"`
}

type WeightsConfig struct {
	Matched        float64 `mapstructure:"matched"`
	Mismatch       float64 `mapstructure:"mismatch"`
	Delayed        float64 `mapstructure:"delayed"`
	ChargebackLoss float64 `mapstructure:"chargeback_loss"`
}

// Load reads config.yaml from the working directory or CONFIG_PATH and
// applies environment overrides.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/recond")
	v.SetEnvPrefix("RECOND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// a missing file is fine; defaults plus env cover local runs
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.report_ttl_seconds", 30)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "recond")
	v.SetDefault("database.dbname", "recond")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("log.level", "info")
	v.SetDefault("worker.enabled", true)
	v.SetDefault("worker.interval_seconds", 300)
}

// EngineRules maps the file section onto the engine's configuration. Fields
// left at zero fall back to the shipped defaults so a minimal file stays
// valid; whatever is set is still validated fail-fast by engine.New.
func (c Config) EngineRules() engine.Config {
	rules := engine.DefaultConfig()
	e := c.Engine

	if e.MarginDropThresholdPct != 0 {
		rules.MarginDropThresholdPct = e.MarginDropThresholdPct
	}
	if e.CommissionSpikeThresholdPct != 0 {
		rules.CommissionSpikeThresholdPct = e.CommissionSpikeThresholdPct
	}
	if e.DelayedAfterDays != 0 {
		rules.DelayedAfterDays = e.DelayedAfterDays
	}
	if e.CriticalAfterDays != 0 {
		rules.CriticalAfterDays = e.CriticalAfterDays
	}
	if e.DelayHighDays != 0 {
		rules.Severity.DelayHighDays = e.DelayHighDays
	}
	if e.LargeLossThreshold != 0 {
		rules.Severity.LargeLossThreshold = e.LargeLossThreshold
	}
	if len(e.CommissionBands) > 0 {
		rules.Severity.CommissionBands = toBands(e.CommissionBands)
	}
	if len(e.MarginBands) > 0 {
		rules.Severity.MarginBands = toBands(e.MarginBands)
	}
	if len(e.RefundRateBands) > 0 {
		rules.Severity.RefundRateBands = toBands(e.RefundRateBands)
	}
	if e.Weights != (WeightsConfig{}) {
		rules.Weights = health.Weights{
			Matched:        e.Weights.Matched,
			Mismatch:       e.Weights.Mismatch,
			Delayed:        e.Weights.Delayed,
			ChargebackLoss: e.Weights.ChargebackLoss,
		}
	}
	return rules
}

func toBands(in []BandConfig) []riskalert.Band {
	out := make([]riskalert.Band, 0, len(in))
	for _, b := range in {
		out = append(out, riskalert.Band{Min: b.Min, Severity: domain.Severity(b.Severity)})
	}
	return out
}

var Module = fx.Module("config",
	fx.Provide(Load),
)
