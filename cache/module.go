package cache

import (
	"github.com/worklane/worklane/cache/redis"
	"github.com/worklane/worklane/slug"

	"go.uber.org/fx"
)

/* ========================================================================
 * Cache Module
 * ========================================================================
 * 职责: 提供 Redis 缓存和 slug 分布式锁的依赖注入模块
 * ======================================================================== */

// Module 缓存模块
// 提供: *redis.Client, redis.Clienter, slug.Locker
var Module = fx.Module("cache",
	fx.Provide(
		redis.NewClient,
		func(c *redis.Client) redis.Clienter { return c },
		func(c *redis.Client) slug.Locker { return redis.NewSlugLocker(c) },
	),
)
