package shutdown

import "time"

/* ========================================================================
 * Shutdown Config - 优雅关停配置
 * ========================================================================
 * 职责: 定义优雅关停的配置结构
 * ======================================================================== */

// 优先级常量: 数值越小越先执行
// 先停入口流量, 再停后台投递, 最后断开存储连接
const (
	PriorityIngress = 10 // HTTP 等入口
	PriorityNormal  = 50 // 默认
	PriorityDeliver = 60 // 审计流等异步投递
	PriorityStorage = 90 // 数据库 / Redis 连接
)

// Config 优雅关停配置
type Config struct {
	// Timeout 整体关停超时时间
	// 超时后强制退出，即使有钩子未执行完成
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// HookTimeout 单个钩子的超时时间, 0 表示跟随整体超时
	HookTimeout time.Duration `yaml:"hook_timeout" mapstructure:"hook_timeout"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
