// Package models defines the records kept by the smsgate development
// gateway.
package models

import (
	"errors"
	"time"
)

// ErrNotFound is returned when no delivery has the requested ID.
var ErrNotFound = errors.New("delivery not found")

// DeliveryStatus is the outcome recorded for a text request.
type DeliveryStatus string

const (
	// StatusAccepted marks a text the gateway took for delivery.
	StatusAccepted DeliveryStatus = "accepted"
	// StatusRejected marks a text refused because the recipient's quota
	// was used up.
	StatusRejected DeliveryStatus = "rejected"
)

// Delivery is the metadata of one text request. The message body is never
// kept: it carries the authentication code.
type Delivery struct {
	// ID is the textId returned to the caller.
	ID string `json:"id"`
	// Recipient is the number as submitted, unvalidated.
	Recipient string `json:"recipient"`
	// MessageLength is the length of the message in bytes.
	MessageLength int            `json:"message_length"`
	Status        DeliveryStatus `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
}
