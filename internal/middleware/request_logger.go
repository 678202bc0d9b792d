package middleware

import (
	"time"

	"productdesk/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestLogger assigns a request id (reusing the caller's X-Request-ID when present), stores it in
// the request's user context, and logs one line per request at a level chosen by status code.
func RequestLogger(log *zap.Logger) fiber.Handler {
	log = log.Named("http")
	return func(c *fiber.Ctx) error {
		start := time.Now()

		requestID := c.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(RequestIDHeader, requestID)
		c.SetUserContext(logger.WithRequestID(c.UserContext(), requestID))

		chainErr := c.Next()
		if chainErr != nil {
			// Let the app's error handler write the response so the logged status is final.
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.IP()),
		}
		if chainErr != nil {
			fields = append(fields, zap.Error(chainErr))
		}

		msg := "HTTP Request"
		switch {
		case status >= fiber.StatusInternalServerError:
			log.Error(msg, fields...)
		case status >= fiber.StatusBadRequest:
			log.Warn(msg, fields...)
		default:
			log.Info(msg, fields...)
		}
		return nil
	}
}
