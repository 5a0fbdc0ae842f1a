package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"plate-auction/internal/domain"
	"plate-auction/internal/repository"
)

const createBidsTable = `
CREATE TABLE IF NOT EXISTS bids (
	id {{pk}},
	amount {{float}} NOT NULL,
	user_id BIGINT NOT NULL REFERENCES users(id),
	plate_id BIGINT NOT NULL REFERENCES plates(id),
	created_at BIGINT NOT NULL,
	UNIQUE (user_id, plate_id)
)`

const createBidsPlateIndex = `CREATE INDEX IF NOT EXISTS idx_bids_plate_id ON bids(plate_id, amount)`

const bidColumns = `id, amount, user_id, plate_id, created_at`

type BidRepository struct {
	q       querier
	dialect dialect
}

func (r *BidRepository) Init(ctx context.Context) error {
	if _, err := r.q.ExecContext(ctx, r.dialect.ddl(createBidsTable)); err != nil {
		return fmt.Errorf("create bids table: %w", err)
	}
	if _, err := r.q.ExecContext(ctx, createBidsPlateIndex); err != nil {
		return fmt.Errorf("create bids plate index: %w", err)
	}
	return nil
}

func (r *BidRepository) Create(ctx context.Context, bid *domain.Bid) (int64, error) {
	if bid.CreatedAt.IsZero() {
		bid.CreatedAt = time.Now().UTC()
	}

	var id int64
	err := r.q.QueryRowContext(ctx, r.dialect.rebind(`
INSERT INTO bids (amount, user_id, plate_id, created_at)
VALUES (?, ?, ?, ?)
RETURNING id`),
		bid.Amount,
		bid.UserID,
		bid.PlateID,
		toMillis(bid.CreatedAt),
	).Scan(&id)
	if err != nil {
		if r.dialect.isUniqueViolation(err) {
			return 0, fmt.Errorf("insert bid for plate %d: %w", bid.PlateID, repository.ErrDuplicate)
		}
		return 0, fmt.Errorf("insert bid: %w", err)
	}

	bid.ID = id
	return id, nil
}

func (r *BidRepository) Get(ctx context.Context, id int64) (*domain.Bid, error) {
	row := r.q.QueryRowContext(ctx, r.dialect.rebind(`
SELECT `+bidColumns+`
FROM bids
WHERE id = ?`),
		id,
	)
	return scanBid(row)
}

func (r *BidRepository) GetByUserAndPlate(ctx context.Context, userID, plateID int64) (*domain.Bid, error) {
	row := r.q.QueryRowContext(ctx, r.dialect.rebind(`
SELECT `+bidColumns+`
FROM bids
WHERE user_id = ? AND plate_id = ?`),
		userID,
		plateID,
	)
	return scanBid(row)
}

func (r *BidRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Bid, error) {
	rows, err := r.q.QueryContext(ctx, r.dialect.rebind(`
SELECT `+bidColumns+`
FROM bids
WHERE user_id = ?
ORDER BY id ASC`), userID)
	if err != nil {
		return nil, fmt.Errorf("query bids: %w", err)
	}
	defer rows.Close()

	bids := []domain.Bid{}
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		bids = append(bids, *bid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bids: %w", err)
	}
	return bids, nil
}

func (r *BidRepository) HighestAmount(ctx context.Context, plateID, excludeBidID int64) (float64, bool, error) {
	var highest sql.NullFloat64
	err := r.q.QueryRowContext(ctx, r.dialect.rebind(`
SELECT MAX(amount)
FROM bids
WHERE plate_id = ? AND id <> ?`),
		plateID,
		excludeBidID,
	).Scan(&highest)
	if err != nil {
		return 0, false, fmt.Errorf("query highest bid: %w", err)
	}
	return highest.Float64, highest.Valid, nil
}

func (r *BidRepository) CountByPlate(ctx context.Context, plateID int64) (int, error) {
	var count int
	err := r.q.QueryRowContext(ctx, r.dialect.rebind(`SELECT COUNT(*) FROM bids WHERE plate_id = ?`), plateID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count bids: %w", err)
	}
	return count, nil
}

func (r *BidRepository) UpdateAmount(ctx context.Context, id int64, amount float64) error {
	res, err := r.q.ExecContext(ctx, r.dialect.rebind(`UPDATE bids SET amount=? WHERE id=?`), amount, id)
	if err != nil {
		return fmt.Errorf("update bid amount: %w", err)
	}
	return expectOneRow(res, "bid")
}

func (r *BidRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, r.dialect.rebind(`DELETE FROM bids WHERE id=?`), id)
	if err != nil {
		return fmt.Errorf("delete bid: %w", err)
	}
	return expectOneRow(res, "bid")
}

func scanBid(row interface {
	Scan(dest ...any) error
}) (*domain.Bid, error) {
	var (
		bid       domain.Bid
		createdAt int64
	)
	if err := row.Scan(
		&bid.ID,
		&bid.Amount,
		&bid.UserID,
		&bid.PlateID,
		&createdAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("bid: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan bid: %w", err)
	}
	bid.CreatedAt = fromMillis(createdAt)
	return &bid, nil
}
