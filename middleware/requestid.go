package middleware

import (
	ulidgen "github.com/worklane/worklane/utils/id-generator/ulid"

	"github.com/gofiber/fiber/v3"
)

// HeaderRequestID 请求 ID 头部, 网关传入则透传, 否则生成 ULID
const HeaderRequestID = "X-Request-ID"

const requestIDLocalKey = "wl_request_id"

// RequestIDFromFiber 取出当前请求 ID
func RequestIDFromFiber(c fiber.Ctx) string {
	id, _ := c.Locals(requestIDLocalKey).(string)
	return id
}

// RequestID 返回请求 ID 中间件
func RequestID() fiber.Handler {
	return func(c fiber.Ctx) error {
		id := c.Get(HeaderRequestID)
		if id == "" {
			id = ulidgen.GenerateString()
		}
		c.Locals(requestIDLocalKey, id)
		c.Set(HeaderRequestID, id)
		return c.Next()
	}
}
