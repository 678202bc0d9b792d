package repositories

import (
	"context"
	"errors"

	"productdesk/internal/models"
)

// ErrProductNotFound is returned when no product has the requested ID.
var ErrProductNotFound = errors.New("product not found")

// ProductRepository defines the interface for product data access.
// GetAll returns products ordered by ID.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uint) error
}
