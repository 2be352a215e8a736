package config

import "testing"

func TestLoadEnvDefaults(t *testing.T) {
	cfg := LoadEnv()

	if cfg.Production.MaxConflictRetries != 3 {
		t.Errorf("Expected 3 conflict retries, got %d", cfg.Production.MaxConflictRetries)
	}
	if cfg.Postgres.DBName != "omnipos_production" {
		t.Errorf("Expected default db name, got %q", cfg.Postgres.DBName)
	}
	if len(cfg.Kafka.Brokers) != 1 || cfg.Kafka.Brokers[0] != "localhost:9092" {
		t.Errorf("Expected default broker list, got %v", cfg.Kafka.Brokers)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PRODUCTION_MAX_RETRIES", "5")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("APP_ENV", "development")

	cfg := LoadEnv()

	if cfg.Production.MaxConflictRetries != 5 {
		t.Errorf("Expected 5 conflict retries, got %d", cfg.Production.MaxConflictRetries)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("Expected two trimmed brokers, got %v", cfg.Kafka.Brokers)
	}
	if cfg.Server.AppEnv != "development" {
		t.Errorf("Expected development env, got %q", cfg.Server.AppEnv)
	}
}
