package service

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"plate-auction/internal/auth"
	"plate-auction/internal/domain"
	"plate-auction/internal/repository/sqlstore"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2030, time.June, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	store  *sqlstore.Store
	clock  *fakeClock
	users  UserService
	plates PlateService
	bids   BidService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store, err := sqlstore.Open(sqlstore.Options{
		Driver:     sqlstore.DriverSQLite,
		Path:       filepath.Join(t.TempDir(), "plates.db"),
		MaxRetries: 5,
		Logger:     logger,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	require.NoError(t, store.Init(context.Background()))

	clock := newFakeClock()
	issuer, err := auth.NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	issuer = issuer.WithClock(clock.Now)

	return &testEnv{
		store:  store,
		clock:  clock,
		users:  NewUserService(store, issuer, clock.Now, logger),
		plates: NewPlateService(store, clock.Now, logger),
		bids:   NewBidService(store, clock.Now, logger),
	}
}

// addUser stores a user directly, skipping password hashing.
func (e *testEnv) addUser(t *testing.T, username string, role domain.Role) *domain.User {
	t.Helper()
	user := &domain.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "unused",
		Role:         role,
	}
	_, err := e.store.Users().Create(context.Background(), user)
	require.NoError(t, err)
	return user
}

func (e *testEnv) addPlate(t *testing.T, staff *domain.User, number string, in time.Duration) *domain.Plate {
	t.Helper()
	plate, err := e.plates.Create(context.Background(), staff, PlateInput{
		PlateNumber: number,
		Description: "listing " + number,
		Deadline:    e.clock.Now().Add(in).Format(time.RFC3339),
	})
	require.NoError(t, err)
	return plate
}
