package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fjod/acai_cart/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// OrderRepository archives placed orders in PostgreSQL.
type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(ctx context.Context, cred *Credentials) (*OrderRepository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	return &OrderRepository{db: db}, nil
}

func (r *OrderRepository) RunMigrations(migrationsPath string) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "storefront_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

// RecordOrder stores the order as placed. Recording the same order twice
// returns ErrDuplicateOrder.
func (r *OrderRepository) RecordOrder(ctx context.Context, o domain.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}

	query := `INSERT INTO orders (id, customer_name, customer_phone, customer_address, customer_city,
	              customer_state, payment_method, subtotal, discount, total, status, items, created_at, estimated_delivery)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err = r.db.ExecContext(ctx, query,
		o.ID,
		o.CustomerInfo.Name,
		o.CustomerInfo.Phone,
		o.CustomerInfo.Address,
		o.CustomerInfo.City,
		o.CustomerInfo.State,
		string(o.CustomerInfo.PaymentMethod),
		o.Subtotal,
		o.Discount,
		o.Total,
		string(o.Status),
		itemsJSON,
		o.CreatedAt,
		o.EstimatedDelivery)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateOrder
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// UpdateStatus records the latest status seen for an order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT id, customer_name, customer_phone, customer_address, customer_city, customer_state,
	              payment_method, subtotal, discount, total, status, items, created_at, estimated_delivery
	          FROM orders WHERE id = $1`

	var (
		o         domain.Order
		method    string
		status    string
		itemsJSON []byte
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&o.ID,
		&o.CustomerInfo.Name,
		&o.CustomerInfo.Phone,
		&o.CustomerInfo.Address,
		&o.CustomerInfo.City,
		&o.CustomerInfo.State,
		&method,
		&o.Subtotal,
		&o.Discount,
		&o.Total,
		&status,
		&itemsJSON,
		&o.CreatedAt,
		&o.EstimatedDelivery,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}

	o.CustomerInfo.PaymentMethod = domain.PaymentMethod(method)
	o.Status = domain.OrderStatus(status)
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	return &o, nil
}

func (r *OrderRepository) Close() error {
	return r.db.Close()
}
