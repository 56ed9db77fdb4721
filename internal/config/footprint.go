package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// NotifyConfig controls the push-notification sink.
type NotifyConfig struct {
	Driver  string // "log" or "kafka"
	Brokers []string
	Topic   string
}

// ShareConfig controls dashboard share codes.
type ShareConfig struct {
	CodeTimeout time.Duration
	QRImageSize int
	BaseURL     string // base URL embedded in generated share links
}

// LedgerConfig tunes the per-user ledger.
type LedgerConfig struct {
	LogRetention int // max retained alert/reward records per user
}

func LoadNotifyConfig() *NotifyConfig {
	return &NotifyConfig{
		Driver:  getEnv("NOTIFY_DRIVER", "log"),
		Brokers: splitList(getEnv("NOTIFY_KAFKA_BROKERS", "localhost:9092")),
		Topic:   getEnv("NOTIFY_KAFKA_TOPIC", "footprint.notifications"),
	}
}

func LoadShareConfig() *ShareConfig {
	return &ShareConfig{
		CodeTimeout: getEnvAsDuration("SHARE_CODE_TIMEOUT", 24*time.Hour),
		QRImageSize: getEnvAsInt("SHARE_QR_SIZE", 256),
		BaseURL:     getEnv("SHARE_BASE_URL", "https://ecostep.app/s/"),
	}
}

func LoadLedgerConfig() *LedgerConfig {
	return &LedgerConfig{
		LogRetention: getEnvAsInt("LEDGER_LOG_RETENTION", 1000),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}

func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
