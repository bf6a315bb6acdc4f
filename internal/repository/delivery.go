// Package repository provides persistence implementations for smsgate
// delivery records: PostgreSQL for shared deployments and an in-memory
// store for local runs.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/twofzip/internal/models"
	"github.com/lib/pq"
)

// ErrDuplicate is returned when a delivery ID is already stored.
var ErrDuplicate = errors.New("delivery already exists")

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// PostgresDeliveryRepository stores deliveries in a PostgreSQL database.
type PostgresDeliveryRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresDeliveryRepository creates a new PostgresDeliveryRepository
// using the provided *sql.DB, which must already carry the deliveries schema.
func NewPostgresDeliveryRepository(db *sql.DB) *PostgresDeliveryRepository {
	return &PostgresDeliveryRepository{DB: db}
}

// Save inserts d.
func (r *PostgresDeliveryRepository) Save(ctx context.Context, d models.Delivery) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO deliveries (id, recipient, message_length, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, d.ID, d.Recipient, d.MessageLength, string(d.Status), d.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrDuplicate, d.ID)
		}
		return fmt.Errorf("insert delivery: %w", err)
	}
	return nil
}

// GetByID returns the delivery with the given ID or models.ErrNotFound.
func (r *PostgresDeliveryRepository) GetByID(ctx context.Context, id string) (*models.Delivery, error) {
	var (
		d      models.Delivery
		status string
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, recipient, message_length, status, created_at FROM deliveries WHERE id = $1
	`, id).Scan(&d.ID, &d.Recipient, &d.MessageLength, &status, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	d.Status = models.DeliveryStatus(status)
	return &d, nil
}

// CountAccepted returns how many texts to recipient were accepted at or
// after since.
func (r *PostgresDeliveryRepository) CountAccepted(ctx context.Context, recipient string, since time.Time) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM deliveries WHERE recipient = $1 AND status = $2 AND created_at >= $3
	`, recipient, string(models.StatusAccepted), since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("CountAccepted: %w", err)
	}
	return n, nil
}

// DeleteOlderThan removes deliveries created before cutoff and reports how
// many were removed.
func (r *PostgresDeliveryRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM deliveries WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("DeleteOlderThan: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return rows, nil
}
