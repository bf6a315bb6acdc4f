package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/atinyakov/twofzip/internal/models"
)

// MemoryDeliveryRepository keeps deliveries in process memory. It is used
// when smsgate runs without a database.
type MemoryDeliveryRepository struct {
	mu         sync.RWMutex
	deliveries map[string]models.Delivery
}

// NewMemoryDeliveryRepository returns an empty store.
func NewMemoryDeliveryRepository() *MemoryDeliveryRepository {
	return &MemoryDeliveryRepository{deliveries: make(map[string]models.Delivery)}
}

func (r *MemoryDeliveryRepository) Save(_ context.Context, d models.Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.deliveries[d.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, d.ID)
	}
	r.deliveries[d.ID] = d
	return nil
}

func (r *MemoryDeliveryRepository) GetByID(_ context.Context, id string) (*models.Delivery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.deliveries[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &d, nil
}

func (r *MemoryDeliveryRepository) CountAccepted(_ context.Context, recipient string, since time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, d := range r.deliveries {
		if d.Recipient == recipient && d.Status == models.StatusAccepted && !d.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *MemoryDeliveryRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for id, d := range r.deliveries {
		if d.CreatedAt.Before(cutoff) {
			delete(r.deliveries, id)
			removed++
		}
	}
	return removed, nil
}
