package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "github.com/keygate-io/keygate/internal/shared/config"
)

type Config struct {
	Server    sharedConfig.ServerConfig    `mapstructure:"server"`
	Database  sharedConfig.DatabaseConfig  `mapstructure:"database"`
	Redis     sharedConfig.RedisConfig     `mapstructure:"redis"`
	Logger    sharedConfig.LoggerConfig    `mapstructure:"logger"`
	Crypto    sharedConfig.CryptoConfig    `mapstructure:"crypto"`
	Token     sharedConfig.TokenConfig     `mapstructure:"token"`
	GeoIP     sharedConfig.GeoIPConfig     `mapstructure:"geoip"`
	Notify    sharedConfig.NotifyConfig    `mapstructure:"notify"`
	RateLimit sharedConfig.RateLimitConfig `mapstructure:"ratelimit"`
	Auth      sharedConfig.AuthConfig      `mapstructure:"auth"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables
func Load(env string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../configs")
	viper.AddConfigPath("../../configs")

	viper.SetEnvPrefix("KEYGATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Allow env parameter to override server mode if provided
	if env != "" && env != "default" {
		viper.Set("server.mode", env)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	// Database defaults
	viper.SetDefault("database.driver", "mysql")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.username", "root")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.database", "keygate_dev")
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.max_open_conns", 100)
	viper.SetDefault("database.conn_max_lifetime", 60)

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("logger.output_path", "stdout")

	// Crypto defaults (empty by default, must be configured)
	viper.SetDefault("crypto.secret_key", "")
	viper.SetDefault("crypto.index_key", "")

	// Confirmation token defaults
	viper.SetDefault("token.secret", "change-me-in-production")
	viper.SetDefault("token.ttl_minutes", 10)

	// GeoIP defaults
	viper.SetDefault("geoip.endpoint", "https://api.country.is")
	viper.SetDefault("geoip.timeout_seconds", 3)
	viper.SetDefault("geoip.cache_ttl_minutes", 60)

	// Notification defaults
	viper.SetDefault("notify.webhook_url", "")
	viper.SetDefault("notify.email.enabled", false)
	viper.SetDefault("notify.email.host", "localhost")
	viper.SetDefault("notify.email.port", 1025)
	viper.SetDefault("notify.email.username", "")
	viper.SetDefault("notify.email.password", "")
	viper.SetDefault("notify.email.from", "noreply@keygate.local")
	viper.SetDefault("notify.email.to", "")

	// Rate limit defaults
	viper.SetDefault("ratelimit.enabled", true)
	viper.SetDefault("ratelimit.requests_per_min", 60)

	// Auth defaults
	viper.SetDefault("auth.bcrypt_cost", 12)
}
