package repository

import (
	"context"

	"plate-auction/internal/domain"
)

// BidRepository exposes persistence operations for bids.
type BidRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, bid *domain.Bid) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Bid, error)
	GetByUserAndPlate(ctx context.Context, userID, plateID int64) (*domain.Bid, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Bid, error)
	// HighestAmount returns the largest amount on the plate, ignoring the bid
	// with id excludeBidID (0 ignores none). ok is false when no bid remains.
	HighestAmount(ctx context.Context, plateID, excludeBidID int64) (amount float64, ok bool, err error)
	CountByPlate(ctx context.Context, plateID int64) (int, error)
	UpdateAmount(ctx context.Context, id int64, amount float64) error
	Delete(ctx context.Context, id int64) error
}
