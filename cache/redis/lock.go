package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

/* ========================================================================
 * 分布式锁
 * ========================================================================
 * 职责: 跨实例串行化 slug 分配的 check-then-insert 序列
 * 设计: SetNX + 唯一 value，Lua 脚本保证只有持有者能释放；
 *       锁只是减小唯一索引冲突的概率，正确性不依赖它
 * ======================================================================== */

var (
	ErrLockFailed   = errors.New("failed to acquire lock")
	ErrUnlockFailed = errors.New("failed to release lock")
)

// Lock 分布式锁
type Lock struct {
	client *Client
	key    string
	value  string // 唯一标识，防止误删
	ttl    time.Duration
	retry  int
	delay  time.Duration
}

// LockOption 锁选项
type LockOption struct {
	TTL        time.Duration // 锁过期时间
	RetryTimes int           // 重试次数
	RetryDelay time.Duration // 重试间隔
}

// DefaultLockOption 默认锁选项
func DefaultLockOption() LockOption {
	return LockOption{
		TTL:        5 * time.Second,
		RetryTimes: 5,
		RetryDelay: 100 * time.Millisecond,
	}
}

// NewLock 创建分布式锁
func (c *Client) NewLock(key string, opts ...LockOption) *Lock {
	opt := DefaultLockOption()
	if len(opts) > 0 {
		opt = opts[0]
	}
	if opt.TTL <= 0 {
		opt.TTL = DefaultLockOption().TTL
	}

	return &Lock{
		client: c,
		key:    "lock:" + key,
		value:  uuid.New().String(),
		ttl:    opt.TTL,
		retry:  opt.RetryTimes,
		delay:  opt.RetryDelay,
	}
}

// Acquire 获取锁
func (l *Lock) Acquire(ctx context.Context) error {
	for i := 0; i <= l.retry; i++ {
		ok, err := l.client.SetNX(ctx, l.key, l.value, l.ttl)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.delay):
		}
	}

	return ErrLockFailed
}

// Release 释放锁
// 使用 Lua 脚本保证原子性：只有持有锁的人才能释放
func (l *Lock) Release(ctx context.Context) error {
	script := `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`

	result, err := l.client.rdb.Eval(ctx, script, []string{l.key}, l.value).Int64()
	if err != nil {
		return err
	}
	if result == 0 {
		return ErrUnlockFailed
	}
	return nil
}

// Extend 延长锁时间
func (l *Lock) Extend(ctx context.Context, ttl time.Duration) error {
	script := `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("PEXPIRE", KEYS[1], ARGV[2])
		else
			return 0
		end
	`

	result, err := l.client.rdb.Eval(ctx, script, []string{l.key}, l.value, ttl.Milliseconds()).Int64()
	if err != nil {
		return err
	}
	if result == 0 {
		return ErrLockFailed
	}
	return nil
}

/* ========================================================================
 * slug.Locker 适配
 * ======================================================================== */

// SlugLocker 把分布式锁适配成 slug 分配器需要的形态
type SlugLocker struct {
	client *Client
}

// NewSlugLocker 创建 slug 锁适配器
func NewSlugLocker(c *Client) *SlugLocker {
	return &SlugLocker{client: c}
}

// Acquire 实现 slug.Locker
func (s *SlugLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	lock := s.client.NewLock(key, LockOption{
		TTL:        ttl,
		RetryTimes: 3,
		RetryDelay: 50 * time.Millisecond,
	})
	if err := lock.Acquire(ctx); err != nil {
		return nil, err
	}
	return func() {
		// 释放失败说明锁已过期被他人持有，忽略即可
		_ = lock.Release(context.WithoutCancel(ctx))
	}, nil
}
