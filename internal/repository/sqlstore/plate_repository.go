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

const createPlatesTable = `
CREATE TABLE IF NOT EXISTS plates (
	id {{pk}},
	plate_number TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	deadline BIGINT NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_by_id BIGINT NOT NULL REFERENCES users(id),
	created_at BIGINT NOT NULL
)`

const createPlatesDeadlineIndex = `CREATE INDEX IF NOT EXISTS idx_plates_deadline ON plates(deadline)`

const plateColumns = `id, plate_number, description, deadline, is_active, created_by_id, created_at`

type PlateRepository struct {
	q       querier
	dialect dialect
}

func (r *PlateRepository) Init(ctx context.Context) error {
	if _, err := r.q.ExecContext(ctx, r.dialect.ddl(createPlatesTable)); err != nil {
		return fmt.Errorf("create plates table: %w", err)
	}
	if _, err := r.q.ExecContext(ctx, createPlatesDeadlineIndex); err != nil {
		return fmt.Errorf("create plates deadline index: %w", err)
	}
	return nil
}

func (r *PlateRepository) Create(ctx context.Context, plate *domain.Plate) (int64, error) {
	if plate.CreatedAt.IsZero() {
		plate.CreatedAt = time.Now().UTC()
	}

	var id int64
	err := r.q.QueryRowContext(ctx, r.dialect.rebind(`
INSERT INTO plates (plate_number, description, deadline, is_active, created_by_id, created_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id`),
		plate.PlateNumber,
		plate.Description,
		toMillis(plate.Deadline),
		plate.IsActive,
		plate.CreatedByID,
		toMillis(plate.CreatedAt),
	).Scan(&id)
	if err != nil {
		if r.dialect.isUniqueViolation(err) {
			return 0, fmt.Errorf("insert plate %s: %w", plate.PlateNumber, repository.ErrDuplicate)
		}
		return 0, fmt.Errorf("insert plate: %w", err)
	}

	plate.ID = id
	return id, nil
}

func (r *PlateRepository) Get(ctx context.Context, id int64) (*domain.Plate, error) {
	row := r.q.QueryRowContext(ctx, r.dialect.rebind(`
SELECT `+plateColumns+`
FROM plates
WHERE id = ?`),
		id,
	)
	return scanPlate(row)
}

func (r *PlateRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Plate, error) {
	row := r.q.QueryRowContext(ctx, r.dialect.rebind(`
SELECT `+plateColumns+`
FROM plates
WHERE id = ?`+r.dialect.lockSuffix),
		id,
	)
	return scanPlate(row)
}

func (r *PlateRepository) GetByNumber(ctx context.Context, plateNumber string) (*domain.Plate, error) {
	row := r.q.QueryRowContext(ctx, r.dialect.rebind(`
SELECT `+plateColumns+`
FROM plates
WHERE plate_number = ?`),
		plateNumber,
	)
	return scanPlate(row)
}

func (r *PlateRepository) Update(ctx context.Context, plate *domain.Plate) error {
	res, err := r.q.ExecContext(ctx, r.dialect.rebind(`
UPDATE plates
SET plate_number=?, description=?, deadline=?, is_active=?
WHERE id=?`),
		plate.PlateNumber,
		plate.Description,
		toMillis(plate.Deadline),
		plate.IsActive,
		plate.ID,
	)
	if err != nil {
		if r.dialect.isUniqueViolation(err) {
			return fmt.Errorf("update plate %d: %w", plate.ID, repository.ErrDuplicate)
		}
		return fmt.Errorf("update plate: %w", err)
	}
	return expectOneRow(res, "plate")
}

func (r *PlateRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, r.dialect.rebind(`DELETE FROM plates WHERE id=?`), id)
	if err != nil {
		return fmt.Errorf("delete plate: %w", err)
	}
	return expectOneRow(res, "plate")
}

// ListOpen returns active plates whose deadline is after now.
func (r *PlateRepository) ListOpen(ctx context.Context, now time.Time, ordering domain.PlateOrdering) ([]domain.Plate, error) {
	// ordering is one of the four validated keys, never raw input
	direction := "ASC"
	if ordering.Descending() {
		direction = "DESC"
	}
	query := `
SELECT ` + plateColumns + `
FROM plates
WHERE is_active = ? AND deadline > ?
ORDER BY ` + ordering.Column() + ` ` + direction + `, id ASC`

	rows, err := r.q.QueryContext(ctx, r.dialect.rebind(query), true, toMillis(now))
	if err != nil {
		return nil, fmt.Errorf("query open plates: %w", err)
	}
	defer rows.Close()

	plates := []domain.Plate{}
	for rows.Next() {
		plate, err := scanPlate(rows)
		if err != nil {
			return nil, err
		}
		plates = append(plates, *plate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plates: %w", err)
	}
	return plates, nil
}

func scanPlate(row interface {
	Scan(dest ...any) error
}) (*domain.Plate, error) {
	var (
		plate     domain.Plate
		deadline  int64
		createdAt int64
	)
	if err := row.Scan(
		&plate.ID,
		&plate.PlateNumber,
		&plate.Description,
		&deadline,
		&plate.IsActive,
		&plate.CreatedByID,
		&createdAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("plate: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan plate: %w", err)
	}
	plate.Deadline = fromMillis(deadline)
	plate.CreatedAt = fromMillis(createdAt)
	return &plate, nil
}

func expectOneRow(res sql.Result, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", entity, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", entity, repository.ErrNotFound)
	}
	return nil
}
