package tracking

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ignite/engage-tracker/internal/pkg/logger"
	"github.com/ignite/engage-tracker/internal/store"
	"github.com/redis/go-redis/v9"
)

const qrCacheTTL = 5 * time.Minute

// QRCache keeps resolved QR codes in Redis so the redirect hot path can
// skip the Postgres lookup. A nil cache is a permanent miss.
type QRCache struct {
	client *redis.Client
}

func NewQRCache(client *redis.Client) *QRCache {
	return &QRCache{client: client}
}

// Get returns the cached QR code for a scan identifier, if present.
func (c *QRCache) Get(ctx context.Context, code string) (*store.QRCode, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, "qr:"+code).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("qr cache read failed", "code", code, "error", err)
		}
		return nil, false
	}
	var q store.QRCode
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, false
	}
	return &q, true
}

// Set caches a resolved QR code. Failures are logged and ignored.
func (c *QRCache) Set(ctx context.Context, q *store.QRCode) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(q)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, "qr:"+q.Code, data, qrCacheTTL).Err(); err != nil {
		logger.Warn("qr cache write failed", "code", q.Code, "error", err)
	}
}
