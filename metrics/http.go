package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
)

// HTTPMiddlewareConfig configures the HTTP metrics middleware.
type HTTPMiddlewareConfig struct {
	// Skipper allows skipping metrics for specific requests.
	Skipper func(fiber.Ctx) bool
}

// HTTPMetricsMiddleware records request count and latency per route.
// The path label uses the registered route pattern, not the raw URL,
// so tenant ids and slugs never become label values.
func HTTPMetricsMiddleware(cfg *HTTPMiddlewareConfig) fiber.Handler {
	config := &HTTPMiddlewareConfig{}
	if cfg != nil {
		*config = *cfg
	}

	return func(c fiber.Ctx) error {
		if config.Skipper != nil && config.Skipper(c) {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()

		status := strconv.Itoa(c.Response().StatusCode())
		method := c.Method()
		path := ""
		if route := c.Route(); route != nil {
			path = route.Path
		}
		if path == "" || path == "/" {
			path = c.Path()
		}

		HTTPRequestTotal.WithLabelValues(method, path, status).Inc()
		HTTPRequestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())

		return err
	}
}
