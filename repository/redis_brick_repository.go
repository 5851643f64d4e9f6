package repository

import (
	"context"
	"sort"
	"strconv"

	apperrors "github.com/pawaaan9/ictb-donations/errors"
	"github.com/pawaaan9/ictb-donations/models"

	"github.com/redis/go-redis/v9"
)

const (
	SponsoredKey = "bricks:sponsored"
	PurchasesKey = "bricks:purchases"
)

// applyPurchaseScript creates the purchase field and bumps the counter in a
// single server-side step. Returns 1 when the record was new.
var applyPurchaseScript = redis.NewScript(`
if redis.call('HSETNX', KEYS[2], ARGV[1], ARGV[2]) == 1 then
	redis.call('INCRBY', KEYS[1], ARGV[2])
	return 1
end
return 0
`)

type redisBrickRepository struct {
	client *redis.Client
	total  int64
}

func NewRedisBrickRepository(client *redis.Client, totalBricks int64) BrickRepository {
	return &redisBrickRepository{client: client, total: totalBricks}
}

func (r *redisBrickRepository) GetSponsoredCount(ctx context.Context) (int64, error) {
	n, err := r.client.Get(ctx, SponsoredKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, apperrors.Upstream("failed to read sponsored count", err)
	}
	return n, nil
}

func (r *redisBrickRepository) GetAvailableCount(ctx context.Context) (int64, error) {
	sponsored, err := r.GetSponsoredCount(ctx)
	if err != nil {
		return 0, err
	}
	return availableFrom(r.total, sponsored), nil
}

func (r *redisBrickRepository) IncrementSponsored(ctx context.Context, by int64) error {
	if by <= 0 {
		return apperrors.InvalidRequest("increment must be positive")
	}
	if err := r.client.IncrBy(ctx, SponsoredKey, by).Err(); err != nil {
		return apperrors.Upstream("failed to increment sponsored count", err)
	}
	return nil
}

func (r *redisBrickRepository) HasPurchaseRecord(ctx context.Context, sessionID string) (bool, error) {
	ok, err := r.client.HExists(ctx, PurchasesKey, sessionID).Result()
	if err != nil {
		return false, apperrors.Upstream("failed to read purchase record", err)
	}
	return ok, nil
}

func (r *redisBrickRepository) RecordPurchase(ctx context.Context, sessionID string, bricks int64) (bool, error) {
	if err := validatePurchase(sessionID, bricks); err != nil {
		return false, err
	}
	created, err := r.client.HSetNX(ctx, PurchasesKey, sessionID, bricks).Result()
	if err != nil {
		return false, apperrors.Upstream("failed to write purchase record", err)
	}
	return created, nil
}

func (r *redisBrickRepository) ApplyPurchase(ctx context.Context, sessionID string, bricks int64) (bool, error) {
	if err := validatePurchase(sessionID, bricks); err != nil {
		return false, err
	}
	res, err := applyPurchaseScript.Run(ctx, r.client, []string{SponsoredKey, PurchasesKey}, sessionID, bricks).Int64()
	if err != nil {
		return false, apperrors.Upstream("failed to apply purchase", err)
	}
	return res == 1, nil
}

func (r *redisBrickRepository) ListPurchases(ctx context.Context) ([]models.PurchaseRecord, error) {
	all, err := r.client.HGetAll(ctx, PurchasesKey).Result()
	if err != nil {
		return nil, apperrors.Upstream("failed to list purchase records", err)
	}

	records := make([]models.PurchaseRecord, 0, len(all))
	for sessionID, raw := range all {
		bricks, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, apperrors.Upstream("corrupt purchase record "+sessionID, err)
		}
		records = append(records, models.PurchaseRecord{SessionID: sessionID, Bricks: bricks})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].SessionID < records[j].SessionID })
	return records, nil
}
