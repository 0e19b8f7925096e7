package booking_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/ticketbooking/internal/domain"
	"github.com/Domenick1991/ticketbooking/internal/payment"
	"github.com/Domenick1991/ticketbooking/internal/repository"
	"github.com/Domenick1991/ticketbooking/internal/service/booking"
	"github.com/Domenick1991/ticketbooking/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rendezvousStore holds every transaction after its tier lookup until the
// expected number of transactions have started, so both snapshots predate
// either commit.
type rendezvousStore struct {
	*repository.PGStore
	arrived sync.WaitGroup
}

func (s *rendezvousStore) GetTierByName(ctx context.Context, name domain.TierName) (domain.TicketTier, error) {
	tier, err := s.PGStore.GetTierByName(ctx, name)
	s.arrived.Done()
	s.arrived.Wait()
	return tier, err
}

func vipBookingState(t *testing.T, pool *pgxpool.Pool) (stock, bookings int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, pool.QueryRow(ctx, `
		SELECT i.quantity_available
		FROM ticket_inventory i JOIN ticket_tiers t ON t.id = i.tier_id
		WHERE t.name = $1`, string(domain.TierVIP)).Scan(&stock))
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM bookings`).Scan(&bookings))
	return stock, bookings
}

func TestBookingService_PG_LastTwoVIPTickets(t *testing.T) {
	cases := []struct {
		isolation repository.IsolationLevel
		loserErr  error
	}{
		{repository.ReadCommitted, domain.ErrInsufficientInventory},
		{repository.Serializable, domain.ErrTransactionConflict},
	}

	for _, tc := range cases {
		t.Run(string(tc.isolation), func(t *testing.T) {
			ctx := context.Background()
			pool := testutil.NewPool(t)
			pg := repository.NewPGStore(pool, repository.TxOptions{Isolation: tc.isolation, LockTimeout: 5 * time.Second})
			require.NoError(t, pg.Seed(ctx, testutil.SmallSeed(2, 10, 10)))

			store := &rendezvousStore{PGStore: pg}
			store.arrived.Add(2)
			svc := booking.NewBookingService(store, payment.Approve(), booking.WithTxTimeout(10*time.Second))

			var wg sync.WaitGroup
			results := make([]*booking.BookingResult, 2)
			errs := make([]error, 2)
			for i := range errs {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					results[i], errs[i] = svc.Book(ctx, booking.BookInput{Tier: "VIP", Quantity: 2})
				}(i)
			}
			wg.Wait()

			winners := 0
			for i, err := range errs {
				if err == nil {
					winners++
					assert.Equal(t, domain.BookingStatusConfirmed, results[i].Status)
					continue
				}
				assert.ErrorIs(t, err, tc.loserErr)
			}
			assert.Equal(t, 1, winners)

			stock, bookings := vipBookingState(t, pool)
			assert.Equal(t, 0, stock)
			assert.Equal(t, 1, bookings)
		})
	}
}

func TestBookingService_PG_TxTimeoutIsConflict(t *testing.T) {
	ctx := context.Background()
	pool := testutil.NewPool(t)
	store := repository.NewPGStore(pool, repository.TxOptions{LockTimeout: 10 * time.Second})
	require.NoError(t, store.Seed(ctx, domain.DefaultSeed()))

	vip, err := store.GetTierByName(ctx, domain.TierVIP)
	require.NoError(t, err)

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- store.WithTx(ctx, func(ctx context.Context) error {
			if _, err := store.LockInventory(ctx, vip.ID); err != nil {
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	svc := booking.NewBookingService(store, payment.Approve(), booking.WithTxTimeout(150*time.Millisecond))
	_, err = svc.Book(ctx, booking.BookInput{Tier: "VIP", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrTransactionConflict)
	assert.True(t, domain.IsRetryable(err))

	close(release)
	require.NoError(t, <-done)

	stock, bookings := vipBookingState(t, pool)
	assert.Equal(t, 100, stock)
	assert.Equal(t, 0, bookings)
}

func TestBookingService_PG_PriceCapturedAtBooking(t *testing.T) {
	ctx := context.Background()
	pool := testutil.NewPool(t)
	store := repository.NewPGStore(pool, repository.TxOptions{})
	require.NoError(t, store.Seed(ctx, domain.DefaultSeed()))
	svc := booking.NewBookingService(store, payment.Approve())

	res, err := svc.Book(ctx, booking.BookInput{Tier: "FRONT_ROW", Quantity: 3, UserID: "pg-user"})
	require.NoError(t, err)
	require.NoError(t, store.UpdateTierPrice(ctx, domain.TierFrontRow, 75))

	got, err := svc.GetBooking(ctx, res.BookingID)
	require.NoError(t, err)
	assert.Equal(t, "pg-user", got.UserID)
	require.Len(t, got.Items, 1)
	assert.Equal(t, int64(50), got.Items[0].Price)
	assert.Equal(t, 3, got.TotalQuantity())
}
