package slug

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/worklane/worklane/errors"
	"github.com/worklane/worklane/utils/id-generator/ulid"
)

/* ========================================================================
 * Slug Assigner - 短标识分配
 * ========================================================================
 * 职责: 把人类可读的名字转换成 URL 友好且在作用域内唯一的 slug
 * 设计: 归一化 → 作用域内探测 → -1/-2 后缀重试 → ULID 兜底；
 *       真正的唯一性由存储层唯一索引保证，探测只是减少冲突概率，
 *       冲突后的重建由创建方（tenancy 服务）负责
 * ======================================================================== */

const (
	// MaxLength slug 的最大长度
	MaxLength = 64

	// DefaultMaxAttempts 后缀重试次数上限，超过后改用 ULID 兜底
	DefaultMaxAttempts = 10

	// lockTTL 分布式锁的持有时长上限
	lockTTL = 5 * time.Second
)

// ExistsFunc 探测 slug 在目标作用域内是否已被占用
// 由调用方提供，内部查询必须走租户隔离的仓储层
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// Locker 可选的分布式锁，用于跨实例串行化 check-then-insert
type Locker interface {
	// Acquire 获取锁，返回释放函数；锁不可用时应返回错误而不是阻塞
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// Assigner slug 分配器
type Assigner struct {
	maxAttempts int
	locker      Locker
}

// Option Assigner 配置项
type Option func(*Assigner)

// WithMaxAttempts 设置后缀重试次数
func WithMaxAttempts(n int) Option {
	return func(a *Assigner) {
		if n > 0 {
			a.maxAttempts = n
		}
	}
}

// WithLocker 启用分布式锁
func WithLocker(l Locker) Option {
	return func(a *Assigner) {
		a.locker = l
	}
}

// NewAssigner 创建 slug 分配器
func NewAssigner(opts ...Option) *Assigner {
	a := &Assigner{maxAttempts: DefaultMaxAttempts}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Normalize 把任意名字归一化为 slug 形态
// 规则: 小写；连续的非字母数字折叠为单个连字符；去掉首尾连字符；
// 超长截断；结果为空时用 ULID 派生的随机 token 兜底
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	lastHyphen := true // 抑制开头的连字符
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	s := strings.TrimRight(b.String(), "-")
	if len(s) > MaxLength {
		s = strings.TrimRight(s[:MaxLength], "-")
	}
	if s == "" {
		s = randomToken()
	}
	return s
}

// randomToken ULID 派生的短随机 token
func randomToken() string {
	return strings.ToLower(ulid.GenerateString())[16:]
}

// Assign 为 name 分配一个作用域内未被占用的 slug
// lockKey 标识作用域（如 "account" 或 "workspace:<account_id>"），
// 仅在配置了 Locker 时用于串行化并发分配
func (a *Assigner) Assign(ctx context.Context, name, lockKey string, exists ExistsFunc) (string, error) {
	base := Normalize(name)

	if a.locker != nil {
		release, err := a.locker.Acquire(ctx, "slug:"+lockKey+":"+base, lockTTL)
		if err != nil {
			// 拿不到锁时退化为无锁探测，唯一索引仍然兜底
			release = func() {}
		}
		defer release()
	}

	candidate := base
	for attempt := 1; ; attempt++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeInternal, "slug probe failed", err)
		}
		if !taken {
			return candidate, nil
		}
		if attempt > a.maxAttempts {
			break
		}
		candidate = withSuffix(base, fmt.Sprintf("%d", attempt))
	}

	// 重试耗尽，改用随机后缀；不再探测，冲突交给唯一索引
	return withSuffix(base, randomToken()), nil
}

// withSuffix 拼接后缀并保证总长不超限
func withSuffix(base, suffix string) string {
	max := MaxLength - len(suffix) - 1
	if len(base) > max {
		base = strings.TrimRight(base[:max], "-")
	}
	return base + "-" + suffix
}
