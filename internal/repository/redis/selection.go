package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

const keyPrefix = "storefront:selection:"

// saveIfNewer writes the selection unless the stored one carries a later
// timestamp. KEYS[1] = key, ARGV = payload, updated-at millis, ttl millis.
var saveIfNewer = redis.NewScript(`
local ts = redis.call('HGET', KEYS[1], 'ts')
if ts and tonumber(ts) > tonumber(ARGV[2]) then
  return 0
end
redis.call('HSET', KEYS[1], 'data', ARGV[1], 'ts', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

// SelectionRepository implements repository.SelectionRepository using Redis.
type SelectionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSelectionRepository creates a new Redis-backed selection repository.
func NewSelectionRepository(client *redis.Client, ttl time.Duration) *SelectionRepository {
	return &SelectionRepository{
		client: client,
		ttl:    ttl,
	}
}

// Key returns the Redis key of a shopper's selection for a product. Both
// parts are escaped so a ':' inside either cannot collide with another pair.
func Key(shopperID, slug string) string {
	return keyPrefix + url.QueryEscape(shopperID) + ":" + url.QueryEscape(slug)
}

// Get retrieves the remembered selection of a shopper for a product.
func (r *SelectionRepository) Get(ctx context.Context, shopperID, slug string) (*domain.SavedSelection, error) {
	data, err := r.client.HGet(ctx, Key(shopperID, slug), "data").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("selection", shopperID+"/"+slug)
		}
		return nil, fmt.Errorf("redis get selection: %w", err)
	}

	var sel domain.SavedSelection
	if err := json.Unmarshal(data, &sel); err != nil {
		return nil, fmt.Errorf("unmarshal selection: %w", err)
	}

	return &sel, nil
}

// Save persists the selection with the configured TTL unless a newer one
// is already stored.
func (r *SelectionRepository) Save(ctx context.Context, sel *domain.SavedSelection) (bool, error) {
	data, err := json.Marshal(sel)
	if err != nil {
		return false, fmt.Errorf("marshal selection: %w", err)
	}

	written, err := saveIfNewer.Run(ctx, r.client,
		[]string{Key(sel.ShopperID, sel.Slug)},
		data, sel.UpdatedAt.UnixMilli(), r.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis save selection: %w", err)
	}

	return written == 1, nil
}

// Delete removes the selection of a shopper for a product.
func (r *SelectionRepository) Delete(ctx context.Context, shopperID, slug string) error {
	if err := r.client.Del(ctx, Key(shopperID, slug)).Err(); err != nil {
		return fmt.Errorf("redis del selection: %w", err)
	}
	return nil
}
