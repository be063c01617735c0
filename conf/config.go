package conf

import (
	"bytes"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

/* ========================================================================
 * Config Loader - 配置加载器
 * ========================================================================
 * 职责: 统一配置加载，YAML 文件 + 环境变量占位符 + 环境变量覆盖
 * 技术: Viper
 * ======================================================================== */

// Loader 定义配置加载接口
type Loader interface {
	Load(config any) error
}

// Option 调整加载器行为
type Option func(*viperLoader)

// WithEnvPrefix 覆盖默认的环境变量前缀
func WithEnvPrefix(prefix string) Option {
	return func(l *viperLoader) { l.envPrefix = prefix }
}

type viperLoader struct {
	configPath string
	configName string
	configType string
	envPrefix  string
}

// NewLoader 创建配置加载器
// configPath: 配置文件目录; configName: 文件名(不含扩展名); configType: yaml/json 等
func NewLoader(configPath, configName, configType string, opts ...Option) Loader {
	l := &viperLoader{
		configPath: configPath,
		configName: configName,
		configType: configType,
		envPrefix:  "WORKLANE",
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *viperLoader) Load(config any) error {
	v := viper.New()
	v.SetEnvPrefix(l.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigType(l.configType)

	raw, found, err := l.readConfigFile()
	if err != nil {
		return err
	}
	if found {
		// 占位符要在 viper 解析之前展开，否则 ${VAR:-x} 会被当成字面量
		expanded := expandEnvPlaceholders(string(raw))
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return err
		}
	}

	// 文件缺失不报错：纯环境变量部署（容器）只依赖 AutomaticEnv
	return v.Unmarshal(config)
}

// readConfigFile 沿用 viper 的搜索逻辑定位文件，再自行读取原始字节
func (l *viperLoader) readConfigFile() ([]byte, bool, error) {
	finder := viper.New()
	finder.AddConfigPath(l.configPath)
	finder.SetConfigName(l.configName)
	finder.SetConfigType(l.configType)

	if err := finder.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); notFound {
			return nil, false, nil
		}
		return nil, false, err
	}

	raw, err := os.ReadFile(finder.ConfigFileUsed())
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

var envPlaceholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// expandEnvPlaceholders 按 bash 的 ${VAR:-default} 语义展开：
// 变量未设置或为空字符串时取 default，default 省略时取空串
func expandEnvPlaceholders(raw string) string {
	return envPlaceholderPattern.ReplaceAllStringFunc(raw, func(match string) string {
		sub := envPlaceholderPattern.FindStringSubmatch(match)
		if len(sub) < 2 {
			return match
		}
		if val, ok := os.LookupEnv(sub[1]); ok && val != "" {
			return val
		}
		if len(sub) >= 3 {
			return sub[2]
		}
		return ""
	})
}
