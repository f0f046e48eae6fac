package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	Store     StoreConfig     `mapstructure:"store"`
	Database  DatabaseConfig
	Redis     RedisConfig
	Playback  PlaybackConfig  `mapstructure:"playback"`
	Chat      ChatConfig      `mapstructure:"chat"`
	Log       LogConfig       `mapstructure:"log"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Port string
	Mode string
}

// UpstreamConfig 远端教学平台 API
type UpstreamConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	SocketURL     string        `mapstructure:"socket_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
}

type StoreConfig struct {
	Driver  string `mapstructure:"driver"` // memory | redis | mysql
	SealKey string `mapstructure:"seal_key"`
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type PlaybackConfig struct {
	SampleInterval      time.Duration `mapstructure:"sample_interval"`
	PersistInterval     time.Duration `mapstructure:"persist_interval"`
	CompletionThreshold float64       `mapstructure:"completion_threshold"`
	ProbeDirectVideos   bool          `mapstructure:"probe_direct_videos"`
}

type ChatConfig struct {
	ReconnectMin time.Duration `mapstructure:"reconnect_min"`
	ReconnectMax time.Duration `mapstructure:"reconnect_max"`
}

type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("upstream.timeout", 15*time.Second)
	v.SetDefault("upstream.rate_per_second", 20)
	v.SetDefault("upstream.burst", 40)

	v.SetDefault("store.driver", "memory")

	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parsetime", true)
	v.SetDefault("redis.port", 6379)

	v.SetDefault("playback.sample_interval", time.Second)
	v.SetDefault("playback.persist_interval", 10*time.Second)
	v.SetDefault("playback.completion_threshold", 0.8)

	v.SetDefault("chat.reconnect_min", time.Second)
	v.SetDefault("chat.reconnect_max", 30*time.Second)

	v.SetDefault("log.file", "logs/portal.log")
	v.SetDefault("log.level", "")

	v.SetDefault("rate_limit.max_requests", 6000)
	v.SetDefault("rate_limit.window_minutes", 1)
}

func LoadConfig(path string) (*Config, error) {
	// .env 可选
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("PORTAL")
	v.AutomaticEnv()
	setDefaults(v)

	// Server
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.mode", "SERVER_MODE")

	// Upstream
	v.BindEnv("upstream.base_url", "UPSTREAM_BASE_URL")
	v.BindEnv("upstream.socket_url", "UPSTREAM_SOCKET_URL")

	// Store
	v.BindEnv("store.driver", "STORE_DRIVER")
	v.BindEnv("store.seal_key", "STORE_SEAL_KEY")

	// Database
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验配置之间的约束
func (c *Config) Validate() error {
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	if c.Server.Mode == "release" && len(c.Store.SealKey) < 32 {
		return fmt.Errorf("store seal key is too short (%d chars), must be at least 32 characters in release mode", len(c.Store.SealKey))
	}
	if c.Playback.CompletionThreshold <= 0 || c.Playback.CompletionThreshold > 1 {
		return fmt.Errorf("playback.completion_threshold must be in (0,1], got %v", c.Playback.CompletionThreshold)
	}
	if c.Playback.SampleInterval <= 0 {
		return fmt.Errorf("playback.sample_interval must be positive")
	}
	if c.Playback.PersistInterval <= c.Playback.SampleInterval {
		return fmt.Errorf("playback.persist_interval (%s) must be longer than sample_interval (%s)",
			c.Playback.PersistInterval, c.Playback.SampleInterval)
	}
	switch c.Store.Driver {
	case "memory", "redis", "mysql":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	return nil
}
