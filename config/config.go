package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Booking   BookingConfig
}

type AppConfig struct {
	Port           string
	Env            string
	LogLevel       string
	Timezone       string
	AllowedOrigins []string
}

// IsProduction reports whether internal error details must be hidden from clients
func (c AppConfig) IsProduction() bool {
	return c.Env == "production"
}

// Location returns the clinic time zone used to decide which calendar day "today" is
func (c AppConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Enabled     bool
	Host        string
	Port        string
	Password    string
	DB          int
	PoolSize    int
	DialTimeout time.Duration
}

// AuthConfig describes how identity provider tokens are verified.
// PublicKeyPEM enables RS256, Secret enables HS256.
type AuthConfig struct {
	Issuer               string
	Audience             string
	Secret               string
	PublicKeyPEM         string
	RequireEmailVerified bool
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

type BookingConfig struct {
	SlotLockTTL time.Duration
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	setDefaults()

	// .env is optional, the environment alone is enough
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	slotLockTTL, err := time.ParseDuration(viper.GetString("SLOT_LOCK_TTL"))
	if err != nil {
		slotLockTTL = 10 * time.Second
	}

	redisDialTimeout, err := time.ParseDuration(viper.GetString("REDIS_DIAL_TIMEOUT"))
	if err != nil {
		redisDialTimeout = 5 * time.Second
	}

	config := &Config{
		App: AppConfig{
			Port:           viper.GetString("APP_PORT"),
			Env:            viper.GetString("APP_ENV"),
			LogLevel:       viper.GetString("LOG_LEVEL"),
			Timezone:       viper.GetString("APP_TIMEZONE"),
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Name:     viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Enabled:     viper.GetBool("REDIS_ENABLED"),
			Host:        viper.GetString("REDIS_HOST"),
			Port:        viper.GetString("REDIS_PORT"),
			Password:    viper.GetString("REDIS_PASSWORD"),
			DB:          viper.GetInt("REDIS_DB"),
			PoolSize:    viper.GetInt("REDIS_POOL_SIZE"),
			DialTimeout: redisDialTimeout,
		},
		Auth: AuthConfig{
			Issuer:               viper.GetString("AUTH_ISSUER"),
			Audience:             viper.GetString("AUTH_AUDIENCE"),
			Secret:               viper.GetString("AUTH_SECRET"),
			PublicKeyPEM:         viper.GetString("AUTH_PUBLIC_KEY"),
			RequireEmailVerified: viper.GetBool("AUTH_REQUIRE_EMAIL_VERIFIED"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:             viper.GetInt("RATE_LIMIT_BURST"),
		},
		Booking: BookingConfig{
			SlotLockTTL: slotLockTTL,
		},
	}

	return config, nil
}

func setDefaults() {
	viper.SetDefault("APP_PORT", "5000")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("APP_TIMEZONE", "UTC")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_ENABLED", true)
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_POOL_SIZE", 10)
	viper.SetDefault("REDIS_DIAL_TIMEOUT", "5s")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	viper.SetDefault("AUTH_REQUIRE_EMAIL_VERIFIED", true)
	viper.SetDefault("RATE_LIMIT_RPS", 5)
	viper.SetDefault("RATE_LIMIT_BURST", 10)
	viper.SetDefault("SLOT_LOCK_TTL", "10s")
}

// splitList parses a comma separated env value such as "https://a.example, https://b.example"
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
