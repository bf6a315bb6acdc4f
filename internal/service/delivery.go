// Package service provides the smsgate business logic for accepting text
// requests, delegating persistence to a repository interface.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atinyakov/twofzip/internal/models"
	"github.com/google/uuid"
)

var (
	// ErrInvalidRequest is returned for a request without a number or
	// message.
	ErrInvalidRequest = errors.New("invalid text request")
	// ErrOutOfQuota is returned when the recipient's quota is used up.
	ErrOutOfQuota = errors.New("out of quota")
)

// DeliveryRepository defines the persistence operations needed by the
// DeliveryService.
type DeliveryRepository interface {
	// Save stores a new delivery.
	Save(ctx context.Context, d models.Delivery) error
	// GetByID fetches a delivery or returns models.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.Delivery, error)
	// CountAccepted counts accepted deliveries to recipient since the given time.
	CountAccepted(ctx context.Context, recipient string, since time.Time) (int, error)
}

// DeliveryService accepts text requests and records their metadata.
type DeliveryService struct {
	repo   DeliveryRepository
	quota  int
	window time.Duration

	now   func() time.Time
	newID func() string
}

// NewDeliveryService constructs a DeliveryService. A positive quota limits
// accepted texts per recipient within window; zero disables the limit.
func NewDeliveryService(repo DeliveryRepository, quota int, window time.Duration) *DeliveryService {
	return &DeliveryService{
		repo:   repo,
		quota:  quota,
		window: window,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Send accepts a text for number. The returned Delivery is also set when
// the quota rejected the text, so the caller can report its ID.
//
// The quota count and the insert are separate statements, so concurrent
// requests for one recipient can exceed the quota by the number in flight.
func (s *DeliveryService) Send(ctx context.Context, number, message string) (models.Delivery, error) {
	number = strings.TrimSpace(number)
	switch {
	case number == "":
		return models.Delivery{}, fmt.Errorf("%w: Invalid phone number", ErrInvalidRequest)
	case message == "":
		return models.Delivery{}, fmt.Errorf("%w: Message is empty", ErrInvalidRequest)
	}

	now := s.now().UTC()
	d := models.Delivery{
		ID:            s.newID(),
		Recipient:     number,
		MessageLength: len(message),
		Status:        models.StatusAccepted,
		CreatedAt:     now,
	}

	if s.quota > 0 {
		sent, err := s.repo.CountAccepted(ctx, number, now.Add(-s.window))
		if err != nil {
			return models.Delivery{}, err
		}
		if sent >= s.quota {
			d.Status = models.StatusRejected
			if err := s.repo.Save(ctx, d); err != nil {
				return models.Delivery{}, err
			}
			return d, ErrOutOfQuota
		}
	}

	if err := s.repo.Save(ctx, d); err != nil {
		return models.Delivery{}, err
	}
	return d, nil
}

// Get returns the delivery with the given ID.
func (s *DeliveryService) Get(ctx context.Context, id string) (*models.Delivery, error) {
	return s.repo.GetByID(ctx, id)
}
