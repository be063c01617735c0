package snowflake

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
)

/* ========================================================================
 * Snowflake ID Generator - 雪花算法 ID 生成器
 * ========================================================================
 * 职责: 为所有持久化实体生成分布式唯一主键
 * 环境变量配置:
 *   SNOWFLAKE_NODE_ID: 节点 ID (0-1023)，多实例部署时必须配置
 * ======================================================================== */

const (
	// MaxNodeID 最大节点 ID (10 位)
	MaxNodeID = 1023
	// EnvNodeID 环境变量名
	EnvNodeID = "SNOWFLAKE_NODE_ID"
)

var (
	globalNode *snowflake.Node
	once       sync.Once
)

// ConfigError 节点配置错误
type ConfigError struct {
	Field   string
	Value   int64
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("snowflake config %s=%d: %s", e.Field, e.Value, e.Message)
}

// Generator ID 生成器
type Generator struct {
	node *snowflake.Node
}

// NewGenerator 创建新的 ID 生成器
// nodeID: 节点 ID (0-1023)
func NewGenerator(nodeID int64) (*Generator, error) {
	if nodeID < 0 || nodeID > MaxNodeID {
		return nil, &ConfigError{
			Field:   "nodeID",
			Value:   nodeID,
			Message: "nodeID must be between 0 and 1023",
		}
	}

	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, err
	}

	return &Generator{node: node}, nil
}

// Generate 生成雪花 ID
func (g *Generator) Generate() int64 {
	return g.node.Generate().Int64()
}

// initGlobalNode 初始化全局节点（仅执行一次）
// 节点 ID 从环境变量读取，缺省为 0
func initGlobalNode() {
	nodeID := int64(0)
	if raw := os.Getenv(EnvNodeID); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed >= 0 && parsed <= MaxNodeID {
			nodeID = parsed
		}
	}

	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		panic(fmt.Sprintf("snowflake: init node %d: %v", nodeID, err))
	}
	globalNode = node
}

// Generate 生成雪花 ID（全局节点）
func Generate() int64 {
	once.Do(initGlobalNode)
	return globalNode.Generate().Int64()
}
