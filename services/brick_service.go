package services

import (
	"context"

	"github.com/pawaaan9/ictb-donations/models"
	"github.com/pawaaan9/ictb-donations/repository"
)

// BrickService exposes read views over the counter store.
type BrickService interface {
	GetBrickStats(ctx context.Context) (*models.BrickStats, error)
	ListPurchases(ctx context.Context) (*models.PurchaseListing, error)
}

type brickServiceImpl struct {
	repo  repository.BrickRepository
	total int64
}

func NewBrickService(repo repository.BrickRepository, totalBricks int64) BrickService {
	return &brickServiceImpl{repo: repo, total: totalBricks}
}

func (s *brickServiceImpl) GetBrickStats(ctx context.Context) (*models.BrickStats, error) {
	sponsored, err := s.repo.GetSponsoredCount(ctx)
	if err != nil {
		return nil, err
	}
	available := s.total - sponsored
	if available < 0 {
		available = 0
	}
	return &models.BrickStats{Total: s.total, Sponsored: sponsored, Available: available}, nil
}

func (s *brickServiceImpl) ListPurchases(ctx context.Context) (*models.PurchaseListing, error) {
	sponsored, err := s.repo.GetSponsoredCount(ctx)
	if err != nil {
		return nil, err
	}
	purchases, err := s.repo.ListPurchases(ctx)
	if err != nil {
		return nil, err
	}
	return &models.PurchaseListing{Sponsored: sponsored, Purchases: purchases}, nil
}
