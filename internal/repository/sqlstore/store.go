package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"

	"plate-auction/internal/repository"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type repositories struct {
	users  *UserRepository
	plates *PlateRepository
	bids   *BidRepository
}

func bind(q querier, d dialect) repositories {
	return repositories{
		users:  &UserRepository{q: q, dialect: d},
		plates: &PlateRepository{q: q, dialect: d},
		bids:   &BidRepository{q: q, dialect: d},
	}
}

func (r repositories) Users() repository.UserRepository   { return r.users }
func (r repositories) Plates() repository.PlateRepository { return r.plates }
func (r repositories) Bids() repository.BidRepository     { return r.bids }

// Store implements repository.Store over database/sql.
type Store struct {
	repositories
	db         *sql.DB
	dialect    dialect
	maxRetries int
	logger     logrus.FieldLogger
}

var _ repository.Store = (*Store)(nil)

// New wraps an open database handle. driver is DriverSQLite or
// DriverPostgres.
func New(db *sql.DB, driver string, maxRetries int, logger logrus.FieldLogger) (*Store, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Store{
		repositories: bind(db, d),
		db:           db,
		dialect:      d,
		maxRetries:   maxRetries,
		logger:       logger,
	}, nil
}

// Init creates the tables in dependency order.
func (s *Store) Init(ctx context.Context) error {
	if err := s.users.Init(ctx); err != nil {
		return err
	}
	if err := s.plates.Init(ctx); err != nil {
		return err
	}
	return s.bids.Init(ctx)
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) InTx(ctx context.Context, fn func(tx repository.Repositories) error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 10 * time.Millisecond
	policy.MaxInterval = 250 * time.Millisecond

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := s.runTx(ctx, fn)
		switch {
		case err == nil:
			return struct{}{}, nil
		case s.dialect.isTransient(err):
			s.logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"error":   err.Error(),
			}).Warn("transaction conflict, retrying")
			return struct{}{}, err
		default:
			return struct{}{}, backoff.Permanent(err)
		}
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(s.maxRetries)+1),
		backoff.WithMaxElapsedTime(10*time.Second),
	)

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return permanent.Err
	}
	return err
}

func (s *Store) runTx(ctx context.Context, fn func(tx repository.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // safe no-op on commit

	if err := fn(bind(tx, s.dialect)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}
