package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/acai_cart/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisStateStore instance
func setupTestRedis(t *testing.T, ttl time.Duration) (*RedisStateStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return NewRedisStateStore(client, ttl), mr
}

func sampleState() *State {
	p := domain.Product{
		ID:    "acai",
		Name:  "Açaí na tigela",
		Price: decimal.RequireFromString("10.00"),
		Variations: []domain.Variation{
			{ID: "700ml", Name: "700ml", PriceDelta: decimal.RequireFromString("2.00")},
		},
	}
	item := domain.CartItem{
		Product:           p,
		Quantity:          2,
		SelectedVariation: &p.Variations[0],
		SelectedComplements: []domain.Complement{
			{ID: "pacoca", Name: "Paçoca", PriceDelta: decimal.RequireFromString("1.50")},
		},
	}
	item.Recompute()

	return &State{
		CartItems:    []domain.CartItem{item},
		UserLocation: &domain.Location{State: "PA", City: "Belém"},
		CustomerInfo: &domain.CustomerInfo{Name: "Ana", PaymentMethod: domain.PaymentMethodPix},
	}
}

func TestRedisStateStore_RoundTripKeepsTotals(t *testing.T) {
	store, _ := setupTestRedis(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s1", sampleState()))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, loaded.CartItems, 1)

	item := loaded.CartItems[0]
	assert.True(t, decimal.RequireFromString("27").Equal(item.TotalPrice))
	recomputed := item
	recomputed.Recompute()
	assert.True(t, item.TotalPrice.Equal(recomputed.TotalPrice))
	assert.Equal(t, "acai|700ml|pacoca", item.Key())
	assert.Equal(t, "Belém", loaded.UserLocation.City)
	assert.Equal(t, domain.PaymentMethodPix, loaded.CustomerInfo.PaymentMethod)
}

func TestRedisStateStore_Miss(t *testing.T) {
	store, _ := setupTestRedis(t, time.Hour)

	state, err := store.Load(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrStateNotFound)
	assert.Nil(t, state)
}

func TestRedisStateStore_InvalidJSON(t *testing.T) {
	store, mr := setupTestRedis(t, time.Hour)
	require.NoError(t, mr.Set(stateKey("s1"), `{"cart_items": [`))

	_, err := store.Load(context.Background(), "s1")
	require.ErrorContains(t, err, "unmarshal session state failed")
	assert.ErrorIs(t, err, ErrCorruptState)
}

func TestRegistry_DeletesCorruptRedisState(t *testing.T) {
	store, mr := setupTestRedis(t, time.Hour)
	require.NoError(t, mr.Set(stateKey("s1"), `{"cart_items": [`))
	r := NewRegistry(Options{Store: store})
	defer r.Close()

	s, err := r.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, s.Cart.ItemsCount())
	assert.False(t, mr.Exists(stateKey("s1")))
}

func TestRedisStateStore_TTLAndDelete(t *testing.T) {
	store, mr := setupTestRedis(t, 30*time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s1", &State{}))
	assert.Equal(t, 30*time.Minute, mr.TTL(stateKey("s1")))

	require.NoError(t, store.Delete(ctx, "s1"))
	assert.False(t, mr.Exists(stateKey("s1")))
	assert.NoError(t, store.Delete(ctx, "s1"), "deleting a missing key is not an error")
}

func TestRedisStateStore_ConnectionError(t *testing.T) {
	store, mr := setupTestRedis(t, time.Hour)
	mr.Close()

	_, err := store.Load(context.Background(), "s1")
	require.ErrorContains(t, err, "redis get failed")
}

func TestStateKey_Format(t *testing.T) {
	assert.Equal(t, "acai-kija-store:abc", stateKey("abc"))
}
