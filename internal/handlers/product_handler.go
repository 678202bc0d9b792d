package handlers

import (
	"errors"
	"strconv"

	"productdesk/internal/models"
	"productdesk/internal/repositories"
	"productdesk/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: models.NewValidator(),
		logger:   logger.Named("product_handler"),
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Put("/:id", h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
}

// HandleGetProducts lists every product.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts(c.UserContext())
	if err != nil {
		return h.internalError(c, "Could not retrieve products", err)
	}
	return respondData(c, fiber.StatusOK, products)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return respondMessage(c, fiber.StatusBadRequest, "Invalid product ID")
	}
	product, err := h.service.GetProductByID(c.UserContext(), id)
	if err != nil {
		return h.serviceError(c, "Could not retrieve product", err)
	}
	return respondData(c, fiber.StatusOK, product)
}

// HandleCreateProduct creates a product. Any id in the body is ignored.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	input, ok, err := h.bindInput(c)
	if !ok {
		return err
	}
	product, err := h.service.CreateProduct(c.UserContext(), input)
	if err != nil {
		return h.internalError(c, "Could not create product", err)
	}
	return respondData(c, fiber.StatusCreated, product)
}

// HandleUpdateProduct replaces the editable fields of an existing product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return respondMessage(c, fiber.StatusBadRequest, "Invalid product ID")
	}
	input, ok, err := h.bindInput(c)
	if !ok {
		return err
	}
	product, err := h.service.UpdateProduct(c.UserContext(), id, input)
	if err != nil {
		return h.serviceError(c, "Could not update product", err)
	}
	return respondData(c, fiber.StatusOK, product)
}

// HandleDeleteProduct deletes a product by its ID.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return respondMessage(c, fiber.StatusBadRequest, "Invalid product ID")
	}
	if err := h.service.DeleteProduct(c.UserContext(), id); err != nil {
		return h.serviceError(c, "Could not delete product", err)
	}
	return respondMessage(c, fiber.StatusOK, "Product deleted successfully")
}

// bindInput parses and validates the body. When ok is false the error response has been written
// and err is what the handler must return.
func (h *ProductHandler) bindInput(c *fiber.Ctx) (input models.ProductInput, ok bool, err error) {
	if err := c.BodyParser(&input); err != nil {
		h.logger.Debug("invalid product body", zap.Error(err))
		return input, false, respondMessage(c, fiber.StatusBadRequest, "Invalid request body")
	}
	input.Normalize()
	if err := h.validate.Struct(input); err != nil {
		return input, false, c.Status(fiber.StatusBadRequest).JSON(Envelope{
			Success: false,
			Message: "Validation failed",
			Errors:  validationMessages(err),
		})
	}
	return input, true, nil
}

func (h *ProductHandler) serviceError(c *fiber.Ctx, message string, err error) error {
	if errors.Is(err, repositories.ErrProductNotFound) {
		return respondMessage(c, fiber.StatusNotFound, "Product not found")
	}
	return h.internalError(c, message, err)
}

func (h *ProductHandler) internalError(c *fiber.Ctx, message string, err error) error {
	h.logger.Error(message, zap.Error(err), zap.String("path", c.Path()))
	return respondMessage(c, fiber.StatusInternalServerError, message)
}

func productID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid product ID")
	}
	return uint(id), nil
}
