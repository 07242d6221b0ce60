package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"auction-marketplace/internal/domain"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

const snapshotTTL = 24 * time.Hour

// storeSnapshotScript writes a lot snapshot unless the stored one is newer,
// and never reopens a lot that was stored as closed.
var storeSnapshotScript = redis.NewScript(`
    local stored_at = redis.call('HGET', KEYS[1], 'updated_at')
    local stored_open = redis.call('HGET', KEYS[1], 'open')

    if stored_at ~= false and tonumber(stored_at) > tonumber(ARGV[5]) then
        return 0
    end
    if stored_open == '0' and ARGV[4] == '1' then
        return 0
    end

    redis.call('HSET', KEYS[1],
        'last_amount', ARGV[1],
        'last_bidder', ARGV[2],
        'floor', ARGV[3],
        'open', ARGV[4],
        'updated_at', ARGV[5])
    redis.call('EXPIRE', KEYS[1], ARGV[6])
    return 1
`)

type RedisLotSnapshotCache struct {
	client *redis.Client
}

func NewRedisLotSnapshotCache(client *redis.Client) *RedisLotSnapshotCache {
	return &RedisLotSnapshotCache{client: client}
}

func snapshotKey(auctionID, itemID int64) string {
	return fmt.Sprintf("lot:%d:%d", auctionID, itemID)
}

func (r *RedisLotSnapshotCache) StoreSnapshot(ctx context.Context, s *domain.LotSnapshot) error {
	open := "0"
	if s.Open {
		open = "1"
	}
	return storeSnapshotScript.Run(ctx, r.client, []string{snapshotKey(s.AuctionID, s.ItemID)},
		s.LastAmount.String(),
		strconv.FormatInt(s.LastBidder, 10),
		s.Floor.String(),
		open,
		strconv.FormatInt(s.UpdatedAt.UnixMicro(), 10),
		int(snapshotTTL.Seconds()),
	).Err()
}

// GetSnapshot returns nil when nothing is cached for the lot.
func (r *RedisLotSnapshotCache) GetSnapshot(ctx context.Context, auctionID, itemID int64) (*domain.LotSnapshot, error) {
	fields, err := r.client.HGetAll(ctx, snapshotKey(auctionID, itemID)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}

	s := &domain.LotSnapshot{AuctionID: auctionID, ItemID: itemID, Open: fields["open"] == "1"}
	if s.LastAmount, err = decimal.NewFromString(fields["last_amount"]); err != nil {
		return nil, fmt.Errorf("snapshot last_amount: %w", err)
	}
	if s.Floor, err = decimal.NewFromString(fields["floor"]); err != nil {
		return nil, fmt.Errorf("snapshot floor: %w", err)
	}
	if s.LastBidder, err = strconv.ParseInt(fields["last_bidder"], 10, 64); err != nil {
		return nil, fmt.Errorf("snapshot last_bidder: %w", err)
	}
	micros, err := strconv.ParseInt(fields["updated_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("snapshot updated_at: %w", err)
	}
	s.UpdatedAt = time.UnixMicro(micros).UTC()
	return s, nil
}
