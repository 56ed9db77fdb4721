package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadNotifyConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := LoadNotifyConfig()
		assert.Equal(t, "log", cfg.Driver)
		assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
		assert.Equal(t, "footprint.notifications", cfg.Topic)
	})

	t.Run("kafka with broker list", func(t *testing.T) {
		t.Setenv("NOTIFY_DRIVER", "kafka")
		t.Setenv("NOTIFY_KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")

		cfg := LoadNotifyConfig()
		assert.Equal(t, "kafka", cfg.Driver)
		assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Brokers)
	})
}

func TestLoadShareConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := LoadShareConfig()
		assert.Equal(t, 24*time.Hour, cfg.CodeTimeout)
		assert.Equal(t, 256, cfg.QRImageSize)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("SHARE_CODE_TIMEOUT", "15m")
		t.Setenv("SHARE_QR_SIZE", "512")

		cfg := LoadShareConfig()
		assert.Equal(t, 15*time.Minute, cfg.CodeTimeout)
		assert.Equal(t, 512, cfg.QRImageSize)
	})

	t.Run("bad values fall back to defaults", func(t *testing.T) {
		t.Setenv("SHARE_CODE_TIMEOUT", "soon")
		t.Setenv("SHARE_QR_SIZE", "big")

		cfg := LoadShareConfig()
		assert.Equal(t, 24*time.Hour, cfg.CodeTimeout)
		assert.Equal(t, 256, cfg.QRImageSize)
	})
}

func TestLoadLedgerConfig(t *testing.T) {
	t.Setenv("LEDGER_LOG_RETENTION", "50")
	assert.Equal(t, 50, LoadLedgerConfig().LogRetention)
}
