package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort     string `mapstructure:"APP_PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	Env         string `mapstructure:"ENV"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	// Redis configuration.
	RedisAddr         string `mapstructure:"REDIS_ADDR"`
	RedisPassword     string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB      int    `mapstructure:"REDIS_CACHE_DB"`
	RedisVerifyDB     int    `mapstructure:"REDIS_VERIFY_DB"`
	RedisJobQueueDB   int    `mapstructure:"REDIS_JOB_QUEUE_DB"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	TrustProxyHeaders bool   `mapstructure:"TRUST_PROXY_HEADERS"`

	// Booking engine tuning.
	DefaultAutoCompleteDelayHours int `mapstructure:"DEFAULT_AUTO_COMPLETE_DELAY_HOURS"`
	IdempotencyTTLHours           int `mapstructure:"IDEMPOTENCY_TTL_HOURS"`
	CancellationCodeTTLMinutes    int `mapstructure:"CANCELLATION_CODE_TTL_MINUTES"`
	RecurringHorizonWeeks         int `mapstructure:"RECURRING_HORIZON_WEEKS"`
	SlotRetentionDays             int `mapstructure:"SLOT_RETENTION_DAYS"`
	SlotLockSeconds               int `mapstructure:"SLOT_LOCK_SECONDS"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("TRUST_PROXY_HEADERS", true)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_VERIFY_DB", 1)
	viper.SetDefault("REDIS_JOB_QUEUE_DB", 2)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DEFAULT_AUTO_COMPLETE_DELAY_HOURS", 2)
	viper.SetDefault("IDEMPOTENCY_TTL_HOURS", 24)
	viper.SetDefault("CANCELLATION_CODE_TTL_MINUTES", 15)
	viper.SetDefault("RECURRING_HORIZON_WEEKS", 4)
	viper.SetDefault("SLOT_RETENTION_DAYS", 30)
	viper.SetDefault("SLOT_LOCK_SECONDS", 30)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
