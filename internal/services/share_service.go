package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/skip2/go-qrcode"

	"github.com/ecostep/backend/internal/config"
	"github.com/ecostep/backend/internal/ledger"
)

// ShareService issues short-lived dashboard share codes. A code resolves
// once to the snapshot that was captured when it was generated.
type ShareService struct {
	redis   *redis.Client
	ledgers *ledger.Registry
	cfg     *config.ShareConfig
}

// ShareSnapshot is the payload stored behind a share code.
type ShareSnapshot struct {
	AccountID   string                      `json:"account_id"`
	Totals      map[ledger.Category]float64 `json:"totals"`
	TotalKg     float64                     `json:"total_kg"`
	GeneratedAt time.Time                   `json:"generated_at"`
}

func NewShareService(rdb *redis.Client, ledgers *ledger.Registry, cfg *config.ShareConfig) *ShareService {
	return &ShareService{redis: rdb, ledgers: ledgers, cfg: cfg}
}

// GenerateShare captures the account's current totals, stores them behind a
// random code and renders a QR image pointing at the share URL. Returns the
// code, the share URL and the QR PNG as base64.
func (s *ShareService) GenerateShare(ctx context.Context, accountID string) (string, string, string, error) {
	if s.redis == nil {
		return "", "", "", fmt.Errorf("share codes require redis")
	}

	totals := s.ledgers.For(accountID).Totals()
	snapshot := ShareSnapshot{
		AccountID:   accountID,
		Totals:      totals,
		GeneratedAt: time.Now(),
	}
	for _, v := range totals {
		snapshot.TotalKg += v
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return "", "", "", err
	}

	code := s.generateCode()
	key := fmt.Sprintf("share:%s", code)
	if err := s.redis.Set(ctx, key, payload, s.cfg.CodeTimeout).Err(); err != nil {
		return "", "", "", err
	}

	shareURL := s.cfg.BaseURL + code

	qr, err := qrcode.New(shareURL, qrcode.Medium)
	if err != nil {
		return "", "", "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(s.cfg.QRImageSize)); err != nil {
		return "", "", "", err
	}
	qrImage := base64.StdEncoding.EncodeToString(buf.Bytes())

	return code, shareURL, qrImage, nil
}

// ResolveShare consumes a share code and returns its snapshot. Codes are
// single use.
func (s *ShareService) ResolveShare(ctx context.Context, code string) (*ShareSnapshot, error) {
	if s.redis == nil {
		return nil, fmt.Errorf("share codes require redis")
	}

	key := fmt.Sprintf("share:%s", code)
	data, err := s.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("invalid or expired share code")
	}
	if err != nil {
		return nil, err
	}

	var snapshot ShareSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, err
	}

	s.redis.Del(ctx, key)

	return &snapshot, nil
}

func (s *ShareService) generateCode() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
