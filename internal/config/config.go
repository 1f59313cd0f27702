package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	DB      DBConfig      `mapstructure:"db"`
	Cron    CronConfig    `mapstructure:"cron"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type CronConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	DeadlineSweep string `mapstructure:"deadline_sweep"`
	ClickPrune    string `mapstructure:"click_prune"`
}

// EngineConfig holds the process-level engine knobs. The hot-tunable values
// (tick interval, step, weights) live in the database, not here.
type EngineConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Workers        int           `mapstructure:"workers"`
	SignalWindow   time.Duration `mapstructure:"signal_window"`
	ClickRetention time.Duration `mapstructure:"click_retention"`
}

type WebhookConfig struct {
	// EngineTag is the custom tag that marks an inbound email event as
	// addressed to the pricing engine. Untagged events are acknowledged and
	// ignored.
	EngineTag string `mapstructure:"engine_tag"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.deadline_sweep", "@every 1m")
	v.SetDefault("cron.click_prune", "@every 10m")
	v.SetDefault("engine.enabled", true)
	v.SetDefault("engine.workers", 8)
	v.SetDefault("engine.signal_window", "24h")
	v.SetDefault("engine.click_retention", "720h")
	v.SetDefault("webhook.engine_tag", "pricing-engine")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
