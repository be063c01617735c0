package middleware

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/worklane/worklane/repository"
	"github.com/worklane/worklane/response"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

const (
	defaultRateLimit  = 1000
	defaultRatePeriod = time.Second
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enable bool          `yaml:"enable" mapstructure:"enable"`
	Limit  int64         `yaml:"limit" mapstructure:"limit"`
	Period time.Duration `yaml:"period" mapstructure:"period"`
}

func (c RateLimitConfig) rate() limiter.Rate {
	rate := limiter.Rate{Period: defaultRatePeriod, Limit: defaultRateLimit}
	if c.Limit > 0 {
		rate.Limit = c.Limit
	}
	if c.Period > 0 {
		rate.Period = c.Period
	}
	return rate
}

// RateLimitKeyFunc returns an identifier used for rate limiting.
type RateLimitKeyFunc func(fiber.Ctx) string

var (
	rateLimiterMu      sync.RWMutex
	rateLimiter        *limiter.Limiter
	defaultLimiter     *limiter.Limiter
	defaultLimiterOnce sync.Once

	rateLimitKeyMu   sync.RWMutex
	rateLimitKeyFunc RateLimitKeyFunc
)

// SetRateLimiter replaces the global limiter and returns the previous one.
func SetRateLimiter(lim *limiter.Limiter) *limiter.Limiter {
	rateLimiterMu.Lock()
	defer rateLimiterMu.Unlock()
	prev := rateLimiter
	rateLimiter = lim
	return prev
}

// SetRateLimitKeyFunc replaces the key function and returns the previous one.
func SetRateLimitKeyFunc(fn RateLimitKeyFunc) RateLimitKeyFunc {
	rateLimitKeyMu.Lock()
	defer rateLimitKeyMu.Unlock()
	prev := rateLimitKeyFunc
	rateLimitKeyFunc = fn
	return prev
}

// InitRateLimiter initializes a redis-backed limiter from config.
func InitRateLimiter(client *redis.Client, cfg RateLimitConfig) error {
	if client == nil {
		return nil
	}
	store, err := redisstore.NewStore(client)
	if err != nil {
		return err
	}
	SetRateLimiter(limiter.New(store, cfg.rate()))
	return nil
}

// RateLimitMiddleware applies request rate limiting.
func RateLimitMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		lim := currentRateLimiter()
		key := rateLimitKey(c)

		ctx, err := lim.Get(c.Context(), key)
		if err != nil {
			return response.InternalError(c, fmt.Sprintf("rate limit check failed: %v", err))
		}

		c.Set("X-RateLimit-Limit", strconv.FormatInt(ctx.Limit, 10))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(ctx.Remaining, 10))

		if ctx.Reached {
			return response.TooManyRequests(c, "too many requests")
		}

		return c.Next()
	}
}

func currentRateLimiter() *limiter.Limiter {
	rateLimiterMu.RLock()
	if rateLimiter != nil {
		lim := rateLimiter
		rateLimiterMu.RUnlock()
		return lim
	}
	rateLimiterMu.RUnlock()

	defaultLimiterOnce.Do(func() {
		store := memory.NewStore()
		defaultLimiter = limiter.New(store, limiter.Rate{Period: defaultRatePeriod, Limit: defaultRateLimit})
	})

	return defaultLimiter
}

// rateLimitKey 优先按活跃账户限流, 未解析租户时回退为客户端 IP
func rateLimitKey(c fiber.Ctx) string {
	rateLimitKeyMu.RLock()
	fn := rateLimitKeyFunc
	rateLimitKeyMu.RUnlock()
	if fn != nil {
		key := strings.TrimSpace(fn(c))
		if key != "" {
			return key
		}
	}
	if scope, ok := repository.ScopeFromContext(c.Context()); ok && scope.HasAccount() {
		return "account:" + strconv.FormatInt(scope.AccountID, 10)
	}
	return "ip:" + c.IP()
}
