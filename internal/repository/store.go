package repository

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by repositories when no row matches.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("record already exists")
)

// Repositories groups the repositories bound to one database handle or
// transaction.
type Repositories interface {
	Users() UserRepository
	Plates() PlateRepository
	Bids() BidRepository
}

// Store is the persistence collaborator. Reads outside a transaction use the
// embedded Repositories; every mutation goes through InTx.
type Store interface {
	Repositories
	Init(ctx context.Context) error
	// InTx runs fn in one transaction and commits when fn returns nil. fn may
	// run more than once when the store reports a transient conflict, so it
	// must not have side effects outside tx.
	InTx(ctx context.Context, fn func(tx Repositories) error) error
	Close() error
}
