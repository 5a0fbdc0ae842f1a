package sqlstore

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"plate-auction/internal/domain"
	"plate-auction/internal/repository"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func openTempStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(Options{
		Driver:     DriverSQLite,
		Path:       filepath.Join(t.TempDir(), "plates.db"),
		MaxRetries: 3,
		Logger:     quietLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	require.NoError(t, store.Init(context.Background()))
	return store
}

func seedUser(t *testing.T, store *Store, username string, role domain.Role) *domain.User {
	t.Helper()
	user := &domain.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		Role:         role,
	}
	_, err := store.Users().Create(context.Background(), user)
	require.NoError(t, err)
	return user
}

func seedPlate(t *testing.T, store *Store, number string, deadline time.Time, creatorID int64) *domain.Plate {
	t.Helper()
	plate := &domain.Plate{
		PlateNumber: number,
		Description: "plate " + number,
		Deadline:    deadline,
		IsActive:    true,
		CreatedByID: creatorID,
	}
	_, err := store.Plates().Create(context.Background(), plate)
	require.NoError(t, err)
	return plate
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Options{Driver: "oracle"})
	require.Error(t, err)

	_, err = Open(Options{Driver: DriverSQLite})
	require.Error(t, err, "sqlite requires a path")

	_, err = Open(Options{Driver: DriverPostgres})
	require.Error(t, err, "postgres requires a dsn")
}

func TestInitIsIdempotent(t *testing.T) {
	store := openTempStore(t)
	require.NoError(t, store.Init(context.Background()))
}

func TestUserRepository_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	staff := seedUser(t, store, "alice", domain.RoleStaff)
	require.NotZero(t, staff.ID)

	byName, err := store.Users().GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, staff.ID, byName.ID)
	require.Equal(t, domain.RoleStaff, byName.Role)
	require.Equal(t, "alice@example.com", byName.Email)

	byEmail, err := store.Users().GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, staff.ID, byEmail.ID)

	byID, err := store.Users().GetByID(ctx, staff.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", byID.Username)

	_, err = store.Users().GetByUsername(ctx, "nobody")
	require.ErrorIs(t, err, repository.ErrNotFound)

	dup := &domain.User{Username: "alice", Email: "other@example.com", PasswordHash: "x", Role: domain.RoleRegular}
	_, err = store.Users().Create(ctx, dup)
	require.ErrorIs(t, err, repository.ErrDuplicate)

	dup = &domain.User{Username: "alice2", Email: "alice@example.com", PasswordHash: "x", Role: domain.RoleRegular}
	_, err = store.Users().Create(ctx, dup)
	require.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestPlateRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)
	staff := seedUser(t, store, "alice", domain.RoleStaff)
	deadline := time.Date(2030, time.March, 3, 10, 0, 0, 0, time.UTC)

	plate := seedPlate(t, store, "01A777AA", deadline, staff.ID)

	got, err := store.Plates().Get(ctx, plate.ID)
	require.NoError(t, err)
	require.Equal(t, "01A777AA", got.PlateNumber)
	require.True(t, got.IsActive)
	require.True(t, deadline.Equal(got.Deadline))
	require.Equal(t, staff.ID, got.CreatedByID)

	byNumber, err := store.Plates().GetByNumber(ctx, "01A777AA")
	require.NoError(t, err)
	require.Equal(t, plate.ID, byNumber.ID)

	_, err = store.Plates().Create(ctx, &domain.Plate{PlateNumber: "01A777AA", Deadline: deadline, IsActive: true, CreatedByID: staff.ID})
	require.ErrorIs(t, err, repository.ErrDuplicate)

	got.Description = "changed"
	got.IsActive = false
	require.NoError(t, store.Plates().Update(ctx, got))
	got, err = store.Plates().GetForUpdate(ctx, plate.ID)
	require.NoError(t, err)
	require.Equal(t, "changed", got.Description)
	require.False(t, got.IsActive)

	require.NoError(t, store.Plates().Delete(ctx, plate.ID))
	_, err = store.Plates().Get(ctx, plate.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
	require.ErrorIs(t, store.Plates().Delete(ctx, plate.ID), repository.ErrNotFound)
	require.ErrorIs(t, store.Plates().Update(ctx, got), repository.ErrNotFound)
}

func TestPlateRepository_ListOpen(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)
	staff := seedUser(t, store, "alice", domain.RoleStaff)
	now := time.Date(2030, time.January, 1, 12, 0, 0, 0, time.UTC)

	b := seedPlate(t, store, "BBB", now.Add(3*time.Hour), staff.ID)
	a := seedPlate(t, store, "AAA", now.Add(5*time.Hour), staff.ID)
	c := seedPlate(t, store, "CCC", now.Add(1*time.Hour), staff.ID)
	seedPlate(t, store, "EXPIRED", now.Add(-time.Minute), staff.ID)
	seedPlate(t, store, "ATDEADLN", now, staff.ID)
	inactive := seedPlate(t, store, "OFF", now.Add(time.Hour), staff.ID)
	inactive.IsActive = false
	require.NoError(t, store.Plates().Update(ctx, inactive))

	ids := func(plates []domain.Plate) []int64 {
		out := make([]int64, len(plates))
		for i := range plates {
			out[i] = plates[i].ID
		}
		return out
	}

	tests := []struct {
		ordering domain.PlateOrdering
		want     []int64
	}{
		{ordering: domain.OrderByDeadline, want: []int64{c.ID, b.ID, a.ID}},
		{ordering: domain.OrderByDeadlineDesc, want: []int64{a.ID, b.ID, c.ID}},
		{ordering: domain.OrderByPlateNumber, want: []int64{a.ID, b.ID, c.ID}},
		{ordering: domain.OrderByPlateNumberDesc, want: []int64{c.ID, b.ID, a.ID}},
	}
	for _, tc := range tests {
		t.Run(string(tc.ordering), func(t *testing.T) {
			plates, err := store.Plates().ListOpen(ctx, now, tc.ordering)
			require.NoError(t, err)
			require.Equal(t, tc.want, ids(plates))
		})
	}
}

func TestBidRepository(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)
	staff := seedUser(t, store, "alice", domain.RoleStaff)
	bob := seedUser(t, store, "bob", domain.RoleRegular)
	carol := seedUser(t, store, "carol", domain.RoleRegular)
	plate := seedPlate(t, store, "01A777AA", time.Now().Add(time.Hour), staff.ID)

	_, ok, err := store.Bids().HighestAmount(ctx, plate.ID, 0)
	require.NoError(t, err)
	require.False(t, ok)

	bobBid := &domain.Bid{Amount: 100, UserID: bob.ID, PlateID: plate.ID}
	_, err = store.Bids().Create(ctx, bobBid)
	require.NoError(t, err)
	carolBid := &domain.Bid{Amount: 150.5, UserID: carol.ID, PlateID: plate.ID}
	_, err = store.Bids().Create(ctx, carolBid)
	require.NoError(t, err)

	_, err = store.Bids().Create(ctx, &domain.Bid{Amount: 500, UserID: bob.ID, PlateID: plate.ID})
	require.ErrorIs(t, err, repository.ErrDuplicate)

	highest, ok, err := store.Bids().HighestAmount(ctx, plate.ID, 0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 150.5, highest)

	highest, ok, err = store.Bids().HighestAmount(ctx, plate.ID, carolBid.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 100.0, highest)

	count, err := store.Bids().CountByPlate(ctx, plate.ID)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	found, err := store.Bids().GetByUserAndPlate(ctx, bob.ID, plate.ID)
	require.NoError(t, err)
	require.Equal(t, bobBid.ID, found.ID)

	require.NoError(t, store.Bids().UpdateAmount(ctx, bobBid.ID, 200))
	got, err := store.Bids().Get(ctx, bobBid.ID)
	require.NoError(t, err)
	require.Equal(t, 200.0, got.Amount)
	require.Equal(t, bobBid.CreatedAt.UnixMilli(), got.CreatedAt.UnixMilli())

	mine, err := store.Bids().ListByUser(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	require.NoError(t, store.Bids().Delete(ctx, bobBid.ID))
	_, err = store.Bids().Get(ctx, bobBid.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
	require.ErrorIs(t, store.Bids().UpdateAmount(ctx, bobBid.ID, 1), repository.ErrNotFound)
}

func TestForeignKeysAreEnforced(t *testing.T) {
	store := openTempStore(t)
	_, err := store.Bids().Create(context.Background(), &domain.Bid{Amount: 1, UserID: 42, PlateID: 42})
	require.Error(t, err)
}

func TestInTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)
	staff := seedUser(t, store, "alice", domain.RoleStaff)

	boom := errors.New("boom")
	err := store.InTx(ctx, func(tx repository.Repositories) error {
		_, err := tx.Plates().Create(ctx, &domain.Plate{
			PlateNumber: "ROLLBACK",
			Deadline:    time.Now().Add(time.Hour),
			IsActive:    true,
			CreatedByID: staff.ID,
		})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = store.Plates().GetByNumber(ctx, "ROLLBACK")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestInTx_BusinessErrorsAreNotRetried(t *testing.T) {
	store := openTempStore(t)

	calls := 0
	err := store.InTx(context.Background(), func(tx repository.Repositories) error {
		calls++
		return domain.ErrBidTooLow
	})
	require.ErrorIs(t, err, domain.ErrBidTooLow)
	require.Equal(t, 1, calls)
}
