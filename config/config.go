package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Logger     LoggerConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Elastic    ElasticsearchConfig
	Metrics    MetricsConfig
	Production ProductionConfig
}

type ServerConfig struct {
	AppEnv   string
	GRPCPort string
	HTTPAddr string
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
	AutoMigrate     bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers         []string
	PurchaseTopic   string
	ProductionTopic string
	GroupID         string
}

type ElasticsearchConfig struct {
	Addresses []string
	Username  string
	Password  string
}

type MetricsConfig struct {
	Enabled bool
}

type ProductionConfig struct {
	MaxConflictRetries int
	LockTTLSeconds     int
	CacheTTLSeconds    int
}

var defaults = map[string]interface{}{
	"APP_ENV":   "dev",
	"GRPC_PORT": ":8083",
	"HTTP_ADDR": ":9083",

	"LOGGER_LEVEL":              "debug",
	"LOGGER_ENCODING":           "console",
	"LOGGER_DISABLE_CALLER":     false,
	"LOGGER_DISABLE_STACKTRACE": true,

	"POSTGRES_HOST":               "localhost",
	"POSTGRES_PORT":               "5433",
	"POSTGRES_USER":               "omnipos",
	"POSTGRES_PASSWORD":           "omnipos",
	"POSTGRES_DB":                 "omnipos_production",
	"POSTGRES_SSLMODE":            "disable",
	"POSTGRES_MAX_OPEN_CONNS":     10,
	"POSTGRES_MAX_IDLE_CONNS":     5,
	"POSTGRES_CONN_MAX_LIFETIME":  300,
	"POSTGRES_CONN_MAX_IDLE_TIME": 60,
	"POSTGRES_AUTO_MIGRATE":       true,

	"REDIS_ADDR":     "localhost:6379",
	"REDIS_PASSWORD": "",
	"REDIS_DB":       0,

	"KAFKA_BROKERS":            "localhost:9092",
	"KAFKA_TOPIC_PURCHASES":    "inventory.purchases",
	"KAFKA_TOPIC_PRODUCTION":   "production.events",
	"KAFKA_GROUP_PRODUCTION":   "production",
	"ELASTICSEARCH_ADDRESSES":  "http://localhost:9200",
	"ELASTICSEARCH_USERNAME":   "",
	"ELASTICSEARCH_PASSWORD":   "",
	"METRICS_ENABLED":          true,
	"PRODUCTION_MAX_RETRIES":   3,
	"PRODUCTION_LOCK_TTL":      10,
	"PRODUCTION_CACHE_TTL":     60,
}

// LoadEnv reads configuration from the environment, falling back to defaults.
func LoadEnv() *Config {
	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	return &Config{
		Server: ServerConfig{
			AppEnv:   v.GetString("APP_ENV"),
			GRPCPort: v.GetString("GRPC_PORT"),
			HTTPAddr: v.GetString("HTTP_ADDR"),
		},
		Logger: LoggerConfig{
			Level:             v.GetString("LOGGER_LEVEL"),
			Encoding:          v.GetString("LOGGER_ENCODING"),
			DisableCaller:     v.GetBool("LOGGER_DISABLE_CALLER"),
			DisableStacktrace: v.GetBool("LOGGER_DISABLE_STACKTRACE"),
		},
		Postgres: PostgresConfig{
			Host:            v.GetString("POSTGRES_HOST"),
			Port:            v.GetString("POSTGRES_PORT"),
			User:            v.GetString("POSTGRES_USER"),
			Password:        v.GetString("POSTGRES_PASSWORD"),
			DBName:          v.GetString("POSTGRES_DB"),
			SSLMode:         v.GetString("POSTGRES_SSLMODE"),
			MaxOpenConns:    v.GetInt("POSTGRES_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("POSTGRES_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetInt("POSTGRES_CONN_MAX_LIFETIME"),
			ConnMaxIdleTime: v.GetInt("POSTGRES_CONN_MAX_IDLE_TIME"),
			AutoMigrate:     v.GetBool("POSTGRES_AUTO_MIGRATE"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Kafka: KafkaConfig{
			Brokers:         splitList(v.GetString("KAFKA_BROKERS")),
			PurchaseTopic:   v.GetString("KAFKA_TOPIC_PURCHASES"),
			ProductionTopic: v.GetString("KAFKA_TOPIC_PRODUCTION"),
			GroupID:         v.GetString("KAFKA_GROUP_PRODUCTION"),
		},
		Elastic: ElasticsearchConfig{
			Addresses: splitList(v.GetString("ELASTICSEARCH_ADDRESSES")),
			Username:  v.GetString("ELASTICSEARCH_USERNAME"),
			Password:  v.GetString("ELASTICSEARCH_PASSWORD"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("METRICS_ENABLED"),
		},
		Production: ProductionConfig{
			MaxConflictRetries: v.GetInt("PRODUCTION_MAX_RETRIES"),
			LockTTLSeconds:     v.GetInt("PRODUCTION_LOCK_TTL"),
			CacheTTLSeconds:    v.GetInt("PRODUCTION_CACHE_TTL"),
		},
	}
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
