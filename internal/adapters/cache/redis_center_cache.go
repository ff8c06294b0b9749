package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"scwm-service/internal/domain"
	"scwm-service/internal/ports"
)

const DefaultCenterKey = "scwm:centers:v1"

// CenterCache keeps a JSON snapshot of the center list in Redis in front of
// another CenterRepository. Redis failures degrade to the backing store.
type CenterCache struct {
	client redis.UniversalClient
	next   ports.CenterRepository
	key    string
	ttl    time.Duration
}

func NewCenterCache(client redis.UniversalClient, next ports.CenterRepository, ttl time.Duration) *CenterCache {
	return &CenterCache{
		client: client,
		next:   next,
		key:    DefaultCenterKey,
		ttl:    ttl,
	}
}

func (c *CenterCache) ListCenters(ctx context.Context) ([]domain.Center, error) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	switch {
	case err == nil:
		centers, derr := decodeSnapshot(raw)
		if derr == nil {
			return centers, nil
		}
		zap.L().Warn("discarding corrupt center snapshot", zap.String("key", c.key), zap.Error(derr))
	case errors.Is(err, redis.Nil):
	default:
		zap.L().Warn("center cache read failed", zap.String("key", c.key), zap.Error(err))
	}

	centers, err := c.next.ListCenters(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := encodeSnapshot(centers)
	if err != nil {
		return nil, eris.Wrap(err, "encode center snapshot")
	}
	if err := c.client.Set(ctx, c.key, payload, c.ttl).Err(); err != nil {
		zap.L().Warn("center cache write failed", zap.String("key", c.key), zap.Error(err))
	}

	return centers, nil
}

// Invalidate drops the snapshot so the next read goes to the backing store.
func (c *CenterCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return eris.Wrapf(err, "invalidate center cache %s", c.key)
	}
	return nil
}

func encodeSnapshot(centers []domain.Center) ([]byte, error) {
	records := make([]domain.CenterRecord, 0, len(centers))
	for _, c := range centers {
		records = append(records, domain.RecordFromCenter(c))
	}
	return json.Marshal(records)
}

func decodeSnapshot(raw []byte) ([]domain.Center, error) {
	centers, rejected, err := domain.DecodeCenters(raw)
	if err != nil {
		return nil, err
	}
	if len(rejected) > 0 {
		return nil, errors.Join(rejected...)
	}
	return centers, nil
}
