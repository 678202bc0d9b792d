package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"productdesk/internal/models"
	"productdesk/internal/repositories"
	"productdesk/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockProductRepository is a mock implementation of repositories.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockPublisher is a mock implementation of services.EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishProductEvent(ctx context.Context, event models.ProductEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func eventOfType(eventType string, productID uint) interface{} {
	return mock.MatchedBy(func(e models.ProductEvent) bool {
		return e.Type == eventType && e.ProductID == productID && e.ID != ""
	})
}

func TestProductService_GetAllProducts(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil, zap.NewNop())

	expectedProducts := []models.Product{
		{ID: 1, Name: "Product A", Price: decimal.NewFromInt(10), Quantity: 100},
		{ID: 2, Name: "Product B", Price: decimal.NewFromInt(20), Quantity: 50},
	}
	mockRepo.On("GetAll", ctx).Return(expectedProducts, nil).Once()

	products, err := service.GetAllProducts(ctx)

	assert.NoError(t, err)
	assert.Equal(t, expectedProducts, products)
	mockRepo.AssertExpectations(t)
}

func TestProductService_GetProductByID(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil, zap.NewNop())

	expectedProduct := &models.Product{ID: 1, Name: "Product A", Price: decimal.NewFromInt(10), Quantity: 100}
	mockRepo.On("GetByID", ctx, uint(1)).Return(expectedProduct, nil).Once()
	product, err := service.GetProductByID(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, expectedProduct, product)

	mockRepo.On("GetByID", ctx, uint(99)).Return(nil, fmt.Errorf("product with ID 99: %w", repositories.ErrProductNotFound)).Once()
	product, err = service.GetProductByID(ctx, 99)
	assert.ErrorIs(t, err, repositories.ErrProductNotFound)
	assert.Nil(t, product)
	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateProduct(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	publisher := new(MockPublisher)
	service := services.NewProductService(mockRepo, publisher, zap.NewNop())

	input := models.ProductInput{Name: "Widget", Price: price("9.999")}

	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.Product")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.Product).ID = 7
		}).
		Return(nil).Once()
	publisher.On("PublishProductEvent", ctx, eventOfType(models.ProductCreated, 7)).Return(nil).Once()

	product, err := service.CreateProduct(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, uint(7), product.ID)
	assert.Equal(t, "Widget", product.Name)
	assert.Equal(t, "10.00", product.Price.StringFixed(2))
	assert.Equal(t, 0, product.Quantity)

	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.Product")).Return(fmt.Errorf("database error")).Once()
	_, err = service.CreateProduct(ctx, input)
	assert.ErrorContains(t, err, "database error")

	mockRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestProductService_CreateProduct_PublishFailureIsIgnored(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	publisher := new(MockPublisher)
	service := services.NewProductService(mockRepo, publisher, zap.NewNop())

	mockRepo.On("Create", ctx, mock.Anything).Return(nil).Once()
	publisher.On("PublishProductEvent", ctx, mock.Anything).Return(errors.New("broker down")).Once()

	_, err := service.CreateProduct(ctx, models.ProductInput{Name: "Widget", Price: price("1")})
	assert.NoError(t, err)
	publisher.AssertExpectations(t)
}

func TestProductService_UpdateProduct(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	publisher := new(MockPublisher)
	service := services.NewProductService(mockRepo, publisher, zap.NewNop())

	existing := &models.Product{ID: 3, Name: "Gadget", Price: decimal.RequireFromString("12.50"), Quantity: 4}
	quantity := 9
	input := models.ProductInput{Name: "Gadget", Description: "new", Price: price("19.99"), Quantity: &quantity}

	mockRepo.On("GetByID", ctx, uint(3)).Return(existing, nil).Once()
	mockRepo.On("Update", ctx, mock.MatchedBy(func(p *models.Product) bool {
		return p.ID == 3 && p.Price.Equal(decimal.RequireFromString("19.99")) && p.Quantity == 9 && p.Description == "new"
	})).Return(nil).Once()
	publisher.On("PublishProductEvent", ctx, eventOfType(models.ProductUpdated, 3)).Return(nil).Once()

	product, err := service.UpdateProduct(ctx, 3, input)
	require.NoError(t, err)
	assert.Equal(t, uint(3), product.ID)

	mockRepo.On("GetByID", ctx, uint(99)).Return(nil, fmt.Errorf("product with ID 99: %w", repositories.ErrProductNotFound)).Once()
	_, err = service.UpdateProduct(ctx, 99, input)
	assert.ErrorIs(t, err, repositories.ErrProductNotFound)

	mockRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestProductService_DeleteProduct(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	publisher := new(MockPublisher)
	service := services.NewProductService(mockRepo, publisher, zap.NewNop())

	mockRepo.On("Delete", ctx, uint(1)).Return(nil).Once()
	publisher.On("PublishProductEvent", ctx, eventOfType(models.ProductDeleted, 1)).Return(nil).Once()
	err := service.DeleteProduct(ctx, 1)
	assert.NoError(t, err)

	mockRepo.On("Delete", ctx, uint(99)).Return(fmt.Errorf("product with ID 99 for deletion: %w", repositories.ErrProductNotFound)).Once()
	err = service.DeleteProduct(ctx, 99)
	assert.ErrorIs(t, err, repositories.ErrProductNotFound)

	mockRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}
