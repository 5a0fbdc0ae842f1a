package repository

import (
	"context"
	"time"

	"plate-auction/internal/domain"
)

// PlateRepository exposes persistence operations for plate listings.
type PlateRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, plate *domain.Plate) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Plate, error)
	// GetForUpdate reads the plate and holds it against concurrent writers
	// until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*domain.Plate, error)
	GetByNumber(ctx context.Context, plateNumber string) (*domain.Plate, error)
	Update(ctx context.Context, plate *domain.Plate) error
	Delete(ctx context.Context, id int64) error
	ListOpen(ctx context.Context, now time.Time, ordering domain.PlateOrdering) ([]domain.Plate, error)
}
