package services

import (
	"context"
	"fmt"

	"productdesk/internal/models"
	"productdesk/internal/repositories"

	"go.uber.org/zap"
)

// EventPublisher delivers product change events to other systems.
type EventPublisher interface {
	PublishProductEvent(ctx context.Context, event models.ProductEvent) error
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo      repositories.ProductRepository
	publisher EventPublisher // may be nil
	logger    *zap.Logger
}

// NewProductService creates a new ProductService. publisher may be nil to disable events.
func NewProductService(repo repositories.ProductRepository, publisher EventPublisher, logger *zap.Logger) *ProductService {
	return &ProductService{
		repo:      repo,
		publisher: publisher,
		logger:    logger.Named("product_service"),
	}
}

// GetAllProducts retrieves all products ordered by ID.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.GetAll(ctx)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id uint) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateProduct stores a new product built from input. The repository assigns the ID.
func (s *ProductService) CreateProduct(ctx context.Context, input models.ProductInput) (*models.Product, error) {
	product := &models.Product{}
	input.ApplyTo(product)
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, models.NewProductEvent(models.ProductCreated, product.ID, product))
	return product, nil
}

// UpdateProduct replaces the editable fields of product id with input.
func (s *ProductService) UpdateProduct(ctx context.Context, id uint, input models.ProductInput) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	input.ApplyTo(product)
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, models.NewProductEvent(models.ProductUpdated, product.ID, product))
	return product, nil
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	s.publish(ctx, models.NewProductEvent(models.ProductDeleted, id, nil))
	return nil
}

// publish never fails the request: the write is already committed.
func (s *ProductService) publish(ctx context.Context, event models.ProductEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishProductEvent(ctx, event); err != nil {
		s.logger.Warn("failed to publish product event",
			zap.String("type", event.Type),
			zap.Uint("product_id", event.ProductID),
			zap.Error(err))
	}
}
