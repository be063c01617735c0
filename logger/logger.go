package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

/* ========================================================================
 * Logger - 统一日志组件
 * ========================================================================
 * 职责: 提供结构化日志能力，支持 JSON / Console 格式
 * 技术: Uber Zap + lumberjack 日志轮转
 * ======================================================================== */

// Config Logger 配置
type Config struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json, console
	Output string `yaml:"output" mapstructure:"output"` // stdout, file

	// File 输出到文件时的轮转配置（Output = file 时生效）
	File FileConfig `yaml:"file" mapstructure:"file"`
}

// FileConfig 文件输出配置
type FileConfig struct {
	Path       string `yaml:"path" mapstructure:"path"`               // 日志文件路径
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"` // 单文件最大体积
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"` // 保留历史文件数
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
}

// Logger 封装 Zap Logger
type Logger struct {
	*zap.Logger
}

// NewLogger 初始化 Logger
func NewLogger(cfg Config) *Logger {
	// 解析日志级别
	level := zap.InfoLevel
	if cfg.Level != "" {
		_ = level.UnmarshalText([]byte(cfg.Level))
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	// 根据格式选择编码器
	var encoder zapcore.Encoder
	if cfg.Format == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	var writer zapcore.WriteSyncer
	if cfg.Output == "file" && cfg.File.Path != "" {
		maxSize := cfg.File.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 100
		}
		maxBackups := cfg.File.MaxBackups
		if maxBackups <= 0 {
			maxBackups = 5
		}
		writer = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    maxSize,
			MaxBackups: maxBackups,
			MaxAge:     cfg.File.MaxAgeDays,
			Compress:   cfg.File.Compress,
		})
	} else {
		writer = zapcore.AddSync(os.Stdout)
	}

	core := zapcore.NewCore(encoder, writer, level)

	logger := zap.New(core, zap.AddCaller())
	return &Logger{Logger: logger}
}

// NewNop 创建空日志器（测试或可选依赖缺省时使用）
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// Named 创建带名称的子日志器
func (l *Logger) Named(name string) *Logger {
	return &Logger{Logger: l.Logger.Named(name)}
}
