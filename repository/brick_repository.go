package repository

import (
	"context"
	"strings"

	apperrors "github.com/pawaaan9/ictb-donations/errors"
	"github.com/pawaaan9/ictb-donations/models"
)

// BrickRepository is the inventory counter store: the shared sponsored
// counter plus one purchase record per checkout session. Implementations
// never cache; every call is a round trip to the backing store.
type BrickRepository interface {
	GetSponsoredCount(ctx context.Context) (int64, error)
	GetAvailableCount(ctx context.Context) (int64, error)
	IncrementSponsored(ctx context.Context, by int64) error
	HasPurchaseRecord(ctx context.Context, sessionID string) (bool, error)
	// RecordPurchase writes the record only if none exists for sessionID and
	// reports whether this call created it.
	RecordPurchase(ctx context.Context, sessionID string, bricks int64) (bool, error)
	// ApplyPurchase records the purchase and, only when the record is new,
	// increments the counter by bricks, as one atomic operation.
	ApplyPurchase(ctx context.Context, sessionID string, bricks int64) (bool, error)
	ListPurchases(ctx context.Context) ([]models.PurchaseRecord, error)
}

func validatePurchase(sessionID string, bricks int64) error {
	if strings.TrimSpace(sessionID) == "" {
		return apperrors.InvalidRequest("session id is required")
	}
	if bricks <= 0 {
		return apperrors.InvalidRequest("brick count must be positive")
	}
	return nil
}

// availableFrom clamps at zero so an oversold counter never reports a
// negative availability.
func availableFrom(total, sponsored int64) int64 {
	if sponsored >= total {
		return 0
	}
	return total - sponsored
}

type unconfiguredRepository struct {
	reason string
}

// NewUnconfiguredRepository returns a store whose every call fails with a
// configuration error. It stands in when the counter store settings are
// missing so the service can still start and serve checkout traffic.
func NewUnconfiguredRepository(reason string) BrickRepository {
	return &unconfiguredRepository{reason: reason}
}

func (r *unconfiguredRepository) err() error {
	return apperrors.Configuration(r.reason)
}

func (r *unconfiguredRepository) GetSponsoredCount(context.Context) (int64, error) {
	return 0, r.err()
}

func (r *unconfiguredRepository) GetAvailableCount(context.Context) (int64, error) {
	return 0, r.err()
}

func (r *unconfiguredRepository) IncrementSponsored(context.Context, int64) error {
	return r.err()
}

func (r *unconfiguredRepository) HasPurchaseRecord(context.Context, string) (bool, error) {
	return false, r.err()
}

func (r *unconfiguredRepository) RecordPurchase(context.Context, string, int64) (bool, error) {
	return false, r.err()
}

func (r *unconfiguredRepository) ApplyPurchase(context.Context, string, int64) (bool, error) {
	return false, r.err()
}

func (r *unconfiguredRepository) ListPurchases(context.Context) ([]models.PurchaseRecord, error) {
	return nil, r.err()
}
