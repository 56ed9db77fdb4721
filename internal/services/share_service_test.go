package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecostep/backend/internal/config"
	"github.com/ecostep/backend/internal/ledger"
)

func shareTestService(t *testing.T) (*ShareService, redismock.ClientMock, *ledger.Registry) {
	t.Helper()
	rdb, mock := redismock.NewClientMock()
	t.Cleanup(func() { rdb.Close() })

	ledgers := ledger.NewRegistry()
	cfg := &config.ShareConfig{
		CodeTimeout: 15 * time.Minute,
		QRImageSize: 256,
		BaseURL:     "https://ecostep.app/share/",
	}
	return NewShareService(rdb, ledgers, cfg), mock, ledgers
}

func TestShareService_GenerateShare(t *testing.T) {
	service, mock, ledgers := shareTestService(t)

	_, _, err := ledgers.For("1234567890").RecordActivity(ledger.Transport, 12.5, nil)
	require.NoError(t, err)

	mock.Regexp().ExpectSet(`share:.+`, `.+`, 15*time.Minute).SetVal("OK")

	code, shareURL, qrImage, err := service.GenerateShare(context.Background(), "1234567890")
	require.NoError(t, err)

	assert.NotEmpty(t, code)
	assert.Equal(t, "https://ecostep.app/share/"+code, shareURL)
	assert.NotEmpty(t, qrImage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShareService_ResolveShare(t *testing.T) {
	service, mock, _ := shareTestService(t)

	snapshot := ShareSnapshot{
		AccountID: "1234567890",
		Totals:    map[ledger.Category]float64{ledger.Transport: 12.5},
		TotalKg:   12.5,
	}
	payload, err := json.Marshal(snapshot)
	require.NoError(t, err)

	t.Run("consumes a valid code", func(t *testing.T) {
		mock.ExpectGet("share:abc123").SetVal(string(payload))
		mock.ExpectDel("share:abc123").SetVal(1)

		resolved, err := service.ResolveShare(context.Background(), "abc123")
		require.NoError(t, err)
		assert.Equal(t, "1234567890", resolved.AccountID)
		assert.Equal(t, 12.5, resolved.TotalKg)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("expired code", func(t *testing.T) {
		mock.ExpectGet("share:gone").RedisNil()

		_, err := service.ResolveShare(context.Background(), "gone")
		assert.ErrorContains(t, err, "invalid or expired")
	})
}

func TestShareService_RequiresRedis(t *testing.T) {
	service := NewShareService(nil, ledger.NewRegistry(), &config.ShareConfig{})

	_, _, _, err := service.GenerateShare(context.Background(), "1234567890")
	assert.Error(t, err)

	_, err = service.ResolveShare(context.Background(), "code")
	assert.Error(t, err)
}
