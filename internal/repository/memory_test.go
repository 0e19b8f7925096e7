package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/ticketbooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededMemoryStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	require.NoError(t, s.Seed(context.Background(), domain.DefaultSeed()))
	return s
}

func available(t *testing.T, s *MemoryStore, name domain.TierName) int {
	t.Helper()
	entries, err := s.ListCatalog(context.Background())
	require.NoError(t, err)
	for _, e := range entries {
		if e.Name == name {
			return e.QuantityAvailable
		}
	}
	t.Fatalf("tier %s missing from catalog", name)
	return 0
}

func TestMemoryStore_SeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := seededMemoryStore(t)

	vip, err := s.GetTierByName(ctx, domain.TierVIP)
	require.NoError(t, err)

	require.NoError(t, s.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.LockInventory(ctx, vip.ID); err != nil {
			return err
		}
		return s.DecrementInventory(ctx, vip.ID, 5)
	}))

	require.NoError(t, s.Seed(ctx, domain.DefaultSeed()))
	assert.Equal(t, 95, available(t, s, domain.TierVIP))

	again, err := s.GetTierByName(ctx, domain.TierVIP)
	require.NoError(t, err)
	assert.Equal(t, vip.ID, again.ID)
}

func TestMemoryStore_SeedRejectsInvalid(t *testing.T) {
	err := NewMemoryStore().Seed(context.Background(), []domain.TierSeed{{Name: domain.TierVIP, Price: -1, Quantity: 1}})
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)
}

func TestMemoryStore_CatalogOrder(t *testing.T) {
	entries, err := seededMemoryStore(t).ListCatalog(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, domain.TierVIP, entries[0].Name)
	assert.Equal(t, domain.TierFrontRow, entries[1].Name)
	assert.Equal(t, domain.TierGA, entries[2].Name)
	assert.Equal(t, 500, entries[2].QuantityAvailable)
}

func TestMemoryStore_RollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	s := seededMemoryStore(t)
	ga, err := s.GetTierByName(ctx, domain.TierGA)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.LockInventory(ctx, ga.ID); err != nil {
			return err
		}
		if _, err := s.CreateBooking(ctx, domain.Booking{
			UserID: "u1",
			Status: domain.BookingStatusConfirmed,
			Items:  []domain.BookingItem{{TierID: ga.ID, Quantity: 3, Price: ga.Price}},
		}); err != nil {
			return err
		}
		if err := s.DecrementInventory(ctx, ga.ID, 3); err != nil {
			return err
		}
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 500, available(t, s, domain.TierGA))
	assert.Empty(t, s.Bookings())
}

func TestMemoryStore_CommitAppliesBookingAndDecrement(t *testing.T) {
	ctx := context.Background()
	s := seededMemoryStore(t)
	ga, err := s.GetTierByName(ctx, domain.TierGA)
	require.NoError(t, err)

	var id string
	require.NoError(t, s.WithTx(ctx, func(ctx context.Context) error {
		left, err := s.LockInventory(ctx, ga.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, 500, left)
		id, err = s.CreateBooking(ctx, domain.Booking{
			UserID: "u1",
			Status: domain.BookingStatusConfirmed,
			Items:  []domain.BookingItem{{TierID: ga.ID, Quantity: 4, Price: ga.Price}},
		})
		if err != nil {
			return err
		}
		if err := s.DecrementInventory(ctx, ga.ID, 4); err != nil {
			return err
		}
		left, err = s.LockInventory(ctx, ga.ID)
		assert.Equal(t, 496, left)
		return err
	}))

	assert.Equal(t, 496, available(t, s, domain.TierGA))
	b, err := s.GetBooking(ctx, id)
	require.NoError(t, err)
	require.Len(t, b.Items, 1)
	assert.Equal(t, domain.TierGA, b.Items[0].TierName)
	assert.Equal(t, id, b.Items[0].BookingID)
	assert.NotEmpty(t, b.Items[0].ID)
}

func TestMemoryStore_DecrementGuards(t *testing.T) {
	ctx := context.Background()
	s := seededMemoryStore(t)
	vip, err := s.GetTierByName(ctx, domain.TierVIP)
	require.NoError(t, err)

	assert.ErrorIs(t, s.DecrementInventory(ctx, vip.ID, 1), domain.ErrNoTransaction)
	_, err = s.LockInventory(ctx, vip.ID)
	assert.ErrorIs(t, err, domain.ErrNoTransaction)

	err = s.WithTx(ctx, func(ctx context.Context) error {
		return s.DecrementInventory(ctx, vip.ID, 1)
	})
	assert.ErrorIs(t, err, domain.ErrInventoryNotLocked)

	err = s.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.LockInventory(ctx, vip.ID); err != nil {
			return err
		}
		return s.DecrementInventory(ctx, vip.ID, 101)
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientInventory)
	assert.Equal(t, 100, available(t, s, domain.TierVIP))
}

func TestMemoryStore_LockWaitHonoursDeadline(t *testing.T) {
	ctx := context.Background()
	s := seededMemoryStore(t)
	vip, err := s.GetTierByName(ctx, domain.TierVIP)
	require.NoError(t, err)
	ga, err := s.GetTierByName(ctx, domain.TierGA)
	require.NoError(t, err)

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- s.WithTx(ctx, func(ctx context.Context) error {
			if _, err := s.LockInventory(ctx, vip.ID); err != nil {
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	// Another tier is not blocked by the held VIP lock.
	require.NoError(t, s.WithTx(ctx, func(ctx context.Context) error {
		_, err := s.LockInventory(ctx, ga.ID)
		return err
	}))

	short, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()
	err = s.WithTx(short, func(ctx context.Context) error {
		_, err := s.LockInventory(ctx, vip.ID)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrTransactionConflict)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.NoError(t, <-done)
}

func TestMemoryStore_ConcurrentDecrementsNeverOversell(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Seed(ctx, []domain.TierSeed{{Name: domain.TierVIP, Price: 100, Quantity: 10}}))
	vip, err := s.GetTierByName(ctx, domain.TierVIP)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.WithTx(ctx, func(ctx context.Context) error {
				left, err := s.LockInventory(ctx, vip.ID)
				if err != nil {
					return err
				}
				if left < 1 {
					return domain.ErrInsufficientInventory
				}
				return s.DecrementInventory(ctx, vip.ID, 1)
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, 0, available(t, s, domain.TierVIP))
}

func TestMemoryStore_UpdateTierPrice(t *testing.T) {
	ctx := context.Background()
	s := seededMemoryStore(t)

	require.NoError(t, s.UpdateTierPrice(ctx, domain.TierGA, 15))
	ga, err := s.GetTierByName(ctx, domain.TierGA)
	require.NoError(t, err)
	assert.Equal(t, int64(15), ga.Price)

	assert.ErrorIs(t, s.UpdateTierPrice(ctx, domain.TierGA, -1), domain.ErrInvalidPrice)
	assert.ErrorIs(t, NewMemoryStore().UpdateTierPrice(ctx, domain.TierGA, 1), domain.ErrTierNotFound)
}

func TestMemoryStore_GetBookingNotFound(t *testing.T) {
	_, err := seededMemoryStore(t).GetBooking(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}

func TestMemoryStore_GetTierByNameUnseeded(t *testing.T) {
	_, err := NewMemoryStore().GetTierByName(context.Background(), domain.TierVIP)
	assert.ErrorIs(t, err, domain.ErrTierNotFound)
}
