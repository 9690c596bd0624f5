package tracking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/engage-tracker/internal/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// firstTouchTTL must outlive any realistic engagement window for a send.
const firstTouchTTL = 90 * 24 * time.Hour

// FirstTouchGate records an idempotency key per (send, event type) in Redis
// via SET NX, so the journey-enrollment side effect fires at most once even
// when concurrent hits both win the DB's conditional update on different
// replicas. A nil gate (Redis not configured) always reports first touch;
// the storage-layer conditional update remains the primary gate.
type FirstTouchGate struct {
	client *redis.Client
}

func NewFirstTouchGate(client *redis.Client) *FirstTouchGate {
	return &FirstTouchGate{client: client}
}

// FirstTouch returns true when this is the first recorded occurrence of the
// event type for the send. Redis errors degrade to true so tracking never
// stalls on the gate.
func (g *FirstTouchGate) FirstTouch(ctx context.Context, sendID uuid.UUID, eventType string) bool {
	if g == nil || g.client == nil {
		return true
	}
	key := "firsttouch:" + sendID.String() + ":" + eventType
	ok, err := g.client.SetNX(ctx, key, 1, firstTouchTTL).Result()
	if err != nil {
		logger.Warn("first-touch gate unavailable", "error", err)
		return true
	}
	return ok
}
