package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host           string
	Port           int
	RequestTimeout time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	AllowedOrigins []string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	AccessSecret string
}

type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	AlertStream string
}

type MQTTConfig struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	OccupancyTopic string
}

type NotificationConfig struct {
	ServiceURL    string
	InternalToken string
}

type ActionsConfig struct {
	Timeout     time.Duration
	Concurrency int
}

type Config struct {
	Environment   string
	HTTP          HTTPConfig
	DB            DBConfig
	Auth          AuthConfig
	Redis         RedisConfig
	MQTT          MQTTConfig
	Notifications NotificationConfig
	Actions       ActionsConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")

	v.AutomaticEnv()

	_ = v.ReadInConfig()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HTTP_HOST", "0.0.0.0")
	v.SetDefault("HTTP_PORT", 8080)
	v.SetDefault("REQUEST_TIMEOUT", 15*time.Second)
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", time.Hour)
	v.SetDefault("ALERT_STREAM", "zone-safety:alerts")
	v.SetDefault("MQTT_CLIENT_ID", "zone-safety-service")
	v.SetDefault("OCCUPANCY_MQTT_TOPIC", "zones/+/occupancy")
	v.SetDefault("ACTION_TIMEOUT", 10*time.Second)
	v.SetDefault("ACTION_CONCURRENCY", 4)

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host:           v.GetString("HTTP_HOST"),
			Port:           v.GetInt("HTTP_PORT"),
			RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
			RateLimitRPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			RateLimitBurst: v.GetInt("RATE_LIMIT_BURST"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Redis: RedisConfig{
			Addr:        v.GetString("REDIS_ADDR"),
			Password:    v.GetString("REDIS_PASSWORD"),
			DB:          v.GetInt("REDIS_DB"),
			AlertStream: v.GetString("ALERT_STREAM"),
		},
		MQTT: MQTTConfig{
			Broker:         v.GetString("MQTT_BROKER"),
			ClientID:       v.GetString("MQTT_CLIENT_ID"),
			Username:       v.GetString("MQTT_USERNAME"),
			Password:       v.GetString("MQTT_PASSWORD"),
			OccupancyTopic: v.GetString("OCCUPANCY_MQTT_TOPIC"),
		},
		Notifications: NotificationConfig{
			ServiceURL:    v.GetString("NOTIFICATION_SERVICE_URL"),
			InternalToken: v.GetString("NOTIFICATION_INTERNAL_TOKEN"),
		},
		Actions: ActionsConfig{
			Timeout:     v.GetDuration("ACTION_TIMEOUT"),
			Concurrency: v.GetInt("ACTION_CONCURRENCY"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// splitList reads a comma-separated env value, dropping empty entries.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if cfg.Actions.Concurrency < 1 {
		return fmt.Errorf("ACTION_CONCURRENCY must be positive")
	}
	if cfg.Actions.Timeout <= 0 {
		return fmt.Errorf("ACTION_TIMEOUT must be positive")
	}
	return nil
}
