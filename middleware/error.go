package middleware

import (
	"github.com/worklane/worklane/logger"
	"github.com/worklane/worklane/response"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// NewErrorHandler returns a Fiber ErrorHandler with unified logging and response formatting.
func NewErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		if err == nil {
			return nil
		}

		if log != nil {
			log.Error("unhandled error",
				zap.Error(err),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
			)
		}
		return response.Error(c, err)
	}
}
