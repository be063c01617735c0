package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/worklane/worklane/logger"
	"github.com/worklane/worklane/repository"
	"github.com/worklane/worklane/response"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

/* ========================================================================
 * Admin Key Authentication Middleware
 * ========================================================================
 * 职责: 验证内部管理端点的 Admin Key, 通过后授予跨租户系统范围
 * 支持两种方式:
 *   1. X-Admin-Key Header
 *   2. Authorization Bearer Token
 * 仅挂载在独立的 /admin 路由组 (不在 /v1 前缀下, 避免网关认证中间件
 * 按前缀命中), 普通请求永远走租户范围
 * ======================================================================== */

const adminKeyLocalKey = "wl_admin_key_id"

// AdminKeyConfig Admin Key 配置
type AdminKeyConfig struct {
	Enabled bool              `yaml:"enabled" mapstructure:"enabled"`
	Keys    map[string]string `yaml:"keys" mapstructure:"keys"` // key_id -> admin_key
}

// AdminKeyAuth Admin Key 认证中间件
type AdminKeyAuth struct {
	config *AdminKeyConfig
	log    *logger.Logger
}

// NewAdminKeyAuth 创建 Admin Key 认证中间件
func NewAdminKeyAuth(cfg *AdminKeyConfig, log *logger.Logger) *AdminKeyAuth {
	if cfg == nil {
		cfg = &AdminKeyConfig{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &AdminKeyAuth{
		config: cfg,
		log:    log,
	}
}

// AdminKeyIDFromFiber 取出验证通过的 key_id
func AdminKeyIDFromFiber(c fiber.Ctx) (string, bool) {
	keyID, ok := c.Locals(adminKeyLocalKey).(string)
	return keyID, ok && keyID != ""
}

// Authenticate 返回 Fiber 中间件
func (a *AdminKeyAuth) Authenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		// 未启用时关闭整个管理面, 而不是放行
		if !a.config.Enabled {
			return response.NotFound(c, "not found")
		}

		adminKey := c.Get("X-Admin-Key")
		if adminKey == "" {
			auth := c.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				adminKey = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		if adminKey == "" {
			a.log.Warn("Missing admin key",
				zap.String("ip", c.IP()),
				zap.String("path", c.Path()),
			)
			return response.Unauthorized(c, "missing admin key")
		}

		// constant-time 比较防止时序攻击
		keyID, valid := a.validateKey(adminKey)
		if !valid {
			a.log.Warn("Invalid admin key",
				zap.String("ip", c.IP()),
				zap.String("path", c.Path()),
			)
			return response.Unauthorized(c, "invalid admin key")
		}

		c.Locals(adminKeyLocalKey, keyID)
		c.SetContext(repository.WithSystemScope(c.Context()))

		return c.Next()
	}
}

func (a *AdminKeyAuth) validateKey(adminKey string) (string, bool) {
	for keyID, storedKey := range a.config.Keys {
		if subtle.ConstantTimeCompare([]byte(adminKey), []byte(storedKey)) == 1 {
			return keyID, true
		}
	}
	return "", false
}
