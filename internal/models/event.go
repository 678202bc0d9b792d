package models

import (
	"time"

	"github.com/google/uuid"
)

// Product event types published after a successful write.
const (
	ProductCreated = "product.created"
	ProductUpdated = "product.updated"
	ProductDeleted = "product.deleted"
)

// ProductEvent describes a change to the catalog.
type ProductEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	ProductID  uint      `json:"product_id"`
	Product    *Product  `json:"product,omitempty"` // nil for deletions
	OccurredAt time.Time `json:"occurred_at"`
}

// NewProductEvent builds an event with a fresh id.
func NewProductEvent(eventType string, productID uint, product *Product) ProductEvent {
	return ProductEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		ProductID:  productID,
		Product:    product,
		OccurredAt: time.Now().UTC(),
	}
}
