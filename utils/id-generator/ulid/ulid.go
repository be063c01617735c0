package ulid

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

/* ========================================================================
 * ULID Generator - ULID 生成器
 * ========================================================================
 * 职责: 生成 URL 安全的唯一标识符（请求 ID、slug 兜底 token）
 * 特点: 26 字符、Crockford Base32、按时间戳字典序排序
 * ======================================================================== */

var (
	globalEntropy io.Reader
	once          sync.Once
	mu            sync.Mutex
)

// initEntropy 初始化全局熵源（仅执行一次）
// Monotonic 熵源保证同一毫秒内递增，但并发不安全，需配合互斥锁
func initEntropy() {
	globalEntropy = ulid.Monotonic(rand.Reader, 0)
}

// Generate 生成 ULID
func Generate() ulid.ULID {
	once.Do(initEntropy)

	mu.Lock()
	defer mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), globalEntropy)
}

// GenerateString 生成 ULID（字符串格式）
func GenerateString() string {
	return Generate().String()
}

// Parse 解析 ULID 字符串
func Parse(s string) (ulid.ULID, error) {
	return ulid.Parse(s)
}

// IsZero 检查 ULID 是否为零值
func IsZero(id ulid.ULID) bool {
	return id.Compare(ulid.ULID{}) == 0
}
