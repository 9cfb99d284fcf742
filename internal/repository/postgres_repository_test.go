package repository

import (
	"context"
	"testing"
	"time"

	"github.com/fjod/acai_cart/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) *OrderRepository {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	repo, err := NewOrderRepository(ctx, &Credentials{
		Host:     host,
		Port:     port.Int(),
		User:     "testuser",
		Password: "testpass",
		DBName:   "testdb",
	})
	require.NoError(t, err)
	require.NoError(t, repo.RunMigrations("./migrations"))

	t.Cleanup(func() {
		repo.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})
	return repo
}

func newTestOrder() domain.Order {
	created := time.Date(2025, 5, 10, 19, 30, 0, 0, time.UTC)
	item := domain.CartItem{
		Product:  domain.Product{ID: "acai-700", Name: "Açaí 700ml", Price: decimal.RequireFromString("24.00")},
		Quantity: 2,
	}
	item.Recompute()

	return domain.Order{
		ID:       uuid.NewString(),
		Items:    []domain.CartItem{item},
		Subtotal: decimal.RequireFromString("48.00"),
		Discount: decimal.RequireFromString("2.40"),
		Total:    decimal.RequireFromString("45.60"),
		CustomerInfo: domain.CustomerInfo{
			Name:          "Maria",
			Phone:         "91 99999-0000",
			Address:       "Tv. Quintino, 45",
			City:          "Belém",
			State:         "PA",
			PaymentMethod: domain.PaymentMethodPix,
		},
		Status:            domain.OrderStatusReceived,
		CreatedAt:         created,
		EstimatedDelivery: created.Add(domain.DeliveryWindow),
	}
}

func TestRecordOrder_RoundTrip(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	o := newTestOrder()

	require.NoError(t, repo.RecordOrder(ctx, o))

	got, err := repo.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
	assert.True(t, o.Total.Equal(got.Total))
	assert.True(t, o.Discount.Equal(got.Discount))
	assert.Equal(t, domain.PaymentMethodPix, got.CustomerInfo.PaymentMethod)
	assert.Equal(t, domain.OrderStatusReceived, got.Status)
	assert.True(t, o.CreatedAt.Equal(got.CreatedAt))
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.True(t, decimal.RequireFromString("48").Equal(got.Items[0].TotalPrice))
}

func TestRecordOrder_Duplicate(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	o := newTestOrder()

	require.NoError(t, repo.RecordOrder(ctx, o))
	assert.ErrorIs(t, repo.RecordOrder(ctx, o), ErrDuplicateOrder)
}

func TestUpdateStatus(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	o := newTestOrder()
	require.NoError(t, repo.RecordOrder(ctx, o))

	require.NoError(t, repo.UpdateStatus(ctx, o.ID, domain.OrderStatusPreparing))
	got, err := repo.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPreparing, got.Status)

	err = repo.UpdateStatus(ctx, uuid.NewString(), domain.OrderStatusDelivered)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestGetOrder_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.GetOrder(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
