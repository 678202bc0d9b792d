package handlers

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Envelope is the body of every product API response.
type Envelope struct {
	Success bool              `json:"success"`
	Data    interface{}       `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func respondData(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(Envelope{Success: true, Data: data})
}

func respondMessage(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(Envelope{Success: status < fiber.StatusBadRequest, Message: message})
}

// validationMessages turns validator errors into a field -> message map.
func validationMessages(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return map[string]string{"_": err.Error()}
	}
	errorMessages := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		if e.Param() != "" {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s=%s' tag", e.Field(), e.Tag(), e.Param())
			continue
		}
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return errorMessages
}
