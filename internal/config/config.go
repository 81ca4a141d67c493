package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	API    APIConfig    `mapstructure:"api"`
	UI     UIConfig     `mapstructure:"ui"`
	Prefs  PrefsConfig  `mapstructure:"prefs"`
	DB     DBConfig     `mapstructure:"db"`
	Redis  RedisConfig  `mapstructure:"redis"`
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

// APIConfig points at the bot backend. A zero Timeout leaves requests unbounded.
type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	LogsLimit int           `mapstructure:"logs_limit"`
}

type UIConfig struct {
	NotificationDelay      time.Duration `mapstructure:"notification_delay"`
	NotificationTransition time.Duration `mapstructure:"notification_transition"`
	PollInterval           time.Duration `mapstructure:"poll_interval"`
	GatewayTestDelay       time.Duration `mapstructure:"gateway_test_delay"`
	DefaultTheme           string        `mapstructure:"default_theme"`
	BotCapacity            int           `mapstructure:"bot_capacity"`
	RecentLogs             int           `mapstructure:"recent_logs"`
}

// PrefsConfig selects where UI preferences live: memory, db or redis.
type PrefsConfig struct {
	Backend string `mapstructure:"backend"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	setDefaults(v)

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

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8090")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)

	v.SetDefault("api.base_url", "http://localhost:8000/api")
	v.SetDefault("api.timeout", "0s")
	v.SetDefault("api.logs_limit", 100)

	v.SetDefault("ui.notification_delay", "5s")
	v.SetDefault("ui.notification_transition", "300ms")
	v.SetDefault("ui.poll_interval", "30s")
	v.SetDefault("ui.gateway_test_delay", "3s")
	v.SetDefault("ui.default_theme", "light")
	v.SetDefault("ui.bot_capacity", 5)
	v.SetDefault("ui.recent_logs", 5)

	v.SetDefault("prefs.backend", "memory")
	v.SetDefault("db.dsn", "botpanel.db")
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 2)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "botpanel:")
}
