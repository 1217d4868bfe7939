//go:build integration

package order

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MikeMC777/cafe-orders/internal/database"
	"github.com/MikeMC777/cafe-orders/internal/loyalty"
	"github.com/MikeMC777/cafe-orders/internal/menu"
)

// Run with: POSTGRES_TEST_DSN=postgres://... go test -tags integration ./internal/order/
func newPGRepo(t *testing.T) (*PGRepo, *loyalty.PGStore) {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	ctx := context.Background()
	pool, err := database.Connect(ctx, dsn, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, database.Migrate(ctx, pool))
	store := loyalty.NewPGStore(pool)
	return NewPGRepo(pool, store), store
}

func pgOrder(shopID string) *Order {
	now := time.Now().UTC().Truncate(time.Microsecond)
	id := uuid.NewString()
	return &Order{
		ID:         id,
		ShopID:     shopID,
		CustomerID: uuid.NewString(),
		Status:     StatusPending,
		Items: []LineItem{{
			ID: uuid.NewString(), OrderID: id, MenuItemID: "latte", Name: "Latte", Quantity: 2,
			UnitPrice: dec("5.00"),
			Customizations: []SelectedCustomization{
				{ID: "oat", Name: "Oat milk", Kind: menu.RuleFlat, Price: dec("0.75")},
			},
		}},
		Subtotal:  dec("11.50"),
		Tax:       dec("0.92"),
		Total:     dec("12.42"),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestPGRepo_CreateAndGet(t *testing.T) {
	repo, _ := newPGRepo(t)
	ctx := context.Background()
	o := pgOrder(uuid.NewString())
	require.NoError(t, repo.Create(ctx, o))

	got, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "12.42", got.Total.StringFixed(2))
	require.Len(t, got.Items, 1)
	require.Len(t, got.Items[0].Customizations, 1)
	assert.True(t, got.Items[0].EffectiveUnitPrice().Equal(dec("5.75")))

	_, err = repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPGRepo_ConcurrentCompareAndSet(t *testing.T) {
	repo, _ := newPGRepo(t)
	ctx := context.Background()
	o := pgOrder(uuid.NewString())
	require.NoError(t, repo.Create(ctx, o))

	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
		stale   int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.CompareAndSetStatus(ctx, o.ID, StatusPending, StatusAccepted)
			mu.Lock()
			defer mu.Unlock()
			var te *TransitionError
			switch {
			case err == nil:
				applied++
			case errors.Is(err, ErrStaleStatus) && errors.As(err, &te):
				assert.Equal(t, StatusAccepted, te.Current)
				stale++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, applied)
	assert.Equal(t, n-1, stale)

	_, err := repo.CompareAndSetStatus(ctx, uuid.NewString(), StatusPending, StatusAccepted)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPGRepo_CompleteWithAccrualOnce(t *testing.T) {
	repo, store := newPGRepo(t)
	ctx := context.Background()
	o := pgOrder(uuid.NewString())
	require.NoError(t, repo.Create(ctx, o))
	for _, st := range []Status{StatusAccepted, StatusPreparing, StatusReady, StatusPickedUp} {
		cur, err := repo.GetByID(ctx, o.ID)
		require.NoError(t, err)
		_, err = repo.CompareAndSetStatus(ctx, o.ID, cur.Status, st)
		require.NoError(t, err)
	}

	credits := []loyalty.Credit{{CustomerID: o.CustomerID, ShopID: o.ShopID, OrderID: o.ID, Points: 115}}
	done, err := repo.CompleteWithAccrual(ctx, o.ID, StatusPickedUp, 115, credits)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
	assert.EqualValues(t, 115, done.LoyaltyPointsEarned)

	_, err = repo.CompleteWithAccrual(ctx, o.ID, StatusPickedUp, 115, credits)
	assert.ErrorIs(t, err, ErrStaleStatus)

	b, err := store.Balance(ctx, o.CustomerID, o.ShopID)
	require.NoError(t, err)
	assert.EqualValues(t, 115, b.Points)
}

func TestPGRepo_ListByShop(t *testing.T) {
	repo, _ := newPGRepo(t)
	ctx := context.Background()
	shopID := uuid.NewString()

	var ids []string
	for i := 0; i < 3; i++ {
		o := pgOrder(shopID)
		o.CreatedAt = o.CreatedAt.Add(time.Duration(i) * time.Millisecond)
		require.NoError(t, repo.Create(ctx, o))
		ids = append(ids, o.ID)
	}
	_, err := repo.CompareAndSetStatus(ctx, ids[1], StatusPending, StatusAccepted)
	require.NoError(t, err)

	all, err := repo.ListByShop(ctx, shopID, QueueStatuses, NoLimit)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[0], all[0].ID, "oldest first")

	pending, err := repo.ListByShop(ctx, shopID, []Status{StatusPending}, 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, ids[2], pending[1].ID)
}
