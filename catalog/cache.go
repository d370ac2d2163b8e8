package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/akm47777/feriwala-backend-new/models"
)

const productTTL = 60 * time.Second

// CachedReader is a read-through redis cache in front of a ProductReader.
// The TTL is short on purpose: a stale stock figure only affects the advisory
// pricing check, never the ledger's reservation.
type CachedReader struct {
	next   ProductReader
	rdb    *redis.Client
	logger *zap.Logger
}

func NewCachedReader(next ProductReader, rdb *redis.Client, logger *zap.Logger) *CachedReader {
	return &CachedReader{next: next, rdb: rdb, logger: logger}
}

func productKey(id uint) string {
	return fmt.Sprintf("product:%d", id)
}

func (c *CachedReader) Snapshots(ctx context.Context, ids []uint) (map[uint]*models.Product, error) {
	out := make(map[uint]*models.Product, len(ids))
	var missed []uint

	for _, id := range ids {
		data, err := c.rdb.Get(ctx, productKey(id)).Bytes()
		if err != nil {
			missed = append(missed, id)
			continue
		}
		var p models.Product
		if err := json.Unmarshal(data, &p); err != nil {
			missed = append(missed, id)
			continue
		}
		out[id] = &p
	}

	if len(missed) == 0 {
		return out, nil
	}

	fresh, err := c.next.Snapshots(ctx, missed)
	if err != nil {
		return nil, err
	}
	for id, p := range fresh {
		out[id] = p
		data, err := json.Marshal(p)
		if err != nil {
			continue
		}
		if err := c.rdb.Set(ctx, productKey(id), data, productTTL).Err(); err != nil {
			c.logger.Warn("product cache set failed", zap.Uint("product_id", id), zap.Error(err))
		}
	}
	return out, nil
}

// Invalidate drops cached snapshots, typically after a stock mutation.
func (c *CachedReader) Invalidate(ctx context.Context, ids []uint) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("product cache invalidate failed", zap.Error(err))
	}
}
