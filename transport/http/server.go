package http

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/worklane/worklane/cache/redis"
	"github.com/worklane/worklane/logger"
	"github.com/worklane/worklane/metrics"

	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

/* ========================================================================
 * HTTP Server - Fiber v3 HTTP 服务器
 * ========================================================================
 * 职责: 提供 HTTP 服务，健康检查，指标暴露
 * 技术: Fiber v3
 * ======================================================================== */

// Config HTTP 服务器配置
type Config struct {
	Port               int           `yaml:"port" mapstructure:"port"`
	Host               string        `yaml:"host" mapstructure:"host"`
	AppName            string        `yaml:"app_name" mapstructure:"app_name"`
	ReadTimeout        time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout        time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	HealthCheckTimeout time.Duration `yaml:"health_check_timeout" mapstructure:"health_check_timeout"`

	// EnableRecover 是否启用 Panic 恢复中间件，默认 true
	// 设为 false 可在开发/测试环境直接暴露 panic，便于问题定位
	EnableRecover *bool `yaml:"enable_recover" mapstructure:"enable_recover"`

	// Listen 嵌套 ListenConfig 的可序列化配置项
	Listen ListenOptions `yaml:"listen" mapstructure:"listen"`
}

// ListenOptions 包含 Fiber ListenConfig 中可以通过 YAML 配置的字段
type ListenOptions struct {
	// 是否禁用启动消息，默认 false
	DisableStartupMessage bool `yaml:"disable_startup_message" mapstructure:"disable_startup_message"`

	// 是否打印所有路由，默认 false
	EnablePrintRoutes bool `yaml:"enable_print_routes" mapstructure:"enable_print_routes"`

	// 监听网络类型（tcp, tcp4, tcp6），默认 tcp4
	ListenerNetwork string `yaml:"listener_network" mapstructure:"listener_network"`

	// TLS 证书文件路径
	CertFile string `yaml:"cert_file" mapstructure:"cert_file"`

	// TLS 证书私钥文件路径
	CertKeyFile string `yaml:"cert_key_file" mapstructure:"cert_key_file"`

	// mTLS 客户端证书文件路径
	CertClientFile string `yaml:"cert_client_file" mapstructure:"cert_client_file"`

	// 优雅关闭超时时间，默认跟随 Fiber (10s)
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`

	// TLS 最低版本，默认 TLS 1.2
	TLSMinVersion uint16 `yaml:"tls_min_version" mapstructure:"tls_min_version"`
}

// RouteRegistrar 路由注册函数, handler 层通过 fx 提供
type RouteRegistrar func(app *fiber.App)

// AppConfigCustomizer 自定义 Fiber Config
// 用于设置 Fiber ErrorHandler 或其他高级选项
type AppConfigCustomizer func(*fiber.Config)

type ServerParams struct {
	fx.In
	Lc     fx.Lifecycle
	Config Config
	Logger *logger.Logger
	DB     *gorm.DB       `optional:"true"` // 就绪探针检查，可选
	Cache  redis.Clienter `optional:"true"` // 就绪探针检查，可选

	// ErrorHandler 可选的 Fiber ErrorHandler
	ErrorHandler fiber.ErrorHandler `optional:"true"`

	// Routes 路由注册函数，按 fx group 聚合
	Routes []RouteRegistrar `group:"http_routes"`

	// AppConfigCustomizer 可选的 Fiber Config 自定义函数
	AppConfigCustomizer AppConfigCustomizer `optional:"true"`
}

// NewHTTPServer 创建 HTTP 服务器并注册生命周期
func NewHTTPServer(p ServerParams) *fiber.App {
	readTimeout := p.Config.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 30 * time.Second
	}
	writeTimeout := p.Config.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}
	idleTimeout := p.Config.IdleTimeout
	if idleTimeout <= 0 {
		idleTimeout = 120 * time.Second
	}
	appName := p.Config.AppName
	if appName == "" {
		appName = "Worklane"
	}

	appConfig := fiber.Config{
		AppName:      appName,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	if p.AppConfigCustomizer != nil {
		p.AppConfigCustomizer(&appConfig)
	}
	if p.ErrorHandler != nil {
		appConfig.ErrorHandler = p.ErrorHandler
	}

	app := fiber.New(appConfig)

	// Recover 中间件默认启用，防止 panic 拖垮进程
	enableRecover := true
	if p.Config.EnableRecover != nil {
		enableRecover = *p.Config.EnableRecover
	}

	if enableRecover {
		app.Use(recoverer.New(recoverer.Config{
			EnableStackTrace: true,
			StackTraceHandler: func(c fiber.Ctx, e interface{}) {
				p.Logger.Error("Panic recovered",
					zap.Any("error", e),
					zap.String("path", c.Path()),
					zap.String("method", c.Method()),
					zap.String("ip", c.IP()),
				)
			},
		}))
	}

	healthCheckTimeout := p.Config.HealthCheckTimeout
	if healthCheckTimeout <= 0 {
		healthCheckTimeout = 2 * time.Second
	}
	registerHealthEndpoints(app, p.DB, p.Cache, healthCheckTimeout)

	metrics.RegisterMetricsEndpoint(app)

	for _, register := range p.Routes {
		register(app)
	}

	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			addr := fmt.Sprintf(":%d", p.Config.Port)
			if p.Config.Host != "" {
				addr = fmt.Sprintf("%s:%d", p.Config.Host, p.Config.Port)
			}

			// 预先创建 net.Listener，启动失败在 OnStart 阶段直接暴露
			listenConfig := buildListenConfig(p.Config.Listen)
			listener, err := createListener(addr, listenConfig)
			if err != nil {
				p.Logger.Error("Failed to create HTTP listener", zap.Error(err), zap.String("addr", addr))
				return fmt.Errorf("failed to bind to %s: %w", addr, err)
			}

			readyChan := make(chan struct{})
			errChan := make(chan error, 1)

			go func() {
				close(readyChan)

				p.Logger.Info("Starting HTTP Server", zap.String("addr", addr))
				if err := app.Listener(listener, listenConfig); err != nil {
					p.Logger.Error("HTTP Server failed", zap.Error(err))
					errChan <- err
				}
			}()

			select {
			case <-readyChan:
				return nil
			case err := <-errChan:
				return err
			case <-ctx.Done():
				return ctx.Err()
			}
		},
		OnStop: func(ctx context.Context) error {
			p.Logger.Info("Stopping HTTP Server")
			return app.ShutdownWithContext(ctx)
		},
	})

	return app
}

// AsRoute 将路由注册函数放入 http_routes group
func AsRoute(f any) any {
	return fx.Annotate(f, fx.ResultTags(`group:"http_routes"`))
}

// buildListenConfig 根据 ListenOptions 构建 Fiber ListenConfig，并应用默认值
func buildListenConfig(opts ListenOptions) fiber.ListenConfig {
	config := fiber.ListenConfig{
		DisableStartupMessage: opts.DisableStartupMessage,
		EnablePrintRoutes:     opts.EnablePrintRoutes,
		CertFile:              opts.CertFile,
		CertKeyFile:           opts.CertKeyFile,
		CertClientFile:        opts.CertClientFile,
	}

	if opts.ListenerNetwork != "" {
		config.ListenerNetwork = opts.ListenerNetwork
	} else {
		config.ListenerNetwork = "tcp4"
	}

	if opts.ShutdownTimeout > 0 {
		config.ShutdownTimeout = opts.ShutdownTimeout
	}
	if opts.TLSMinVersion > 0 {
		config.TLSMinVersion = opts.TLSMinVersion
	}

	return config
}

/* ========================================================================
 * Health Check Endpoints
 * ========================================================================
 * /healthz - 存活探针: 进程能响应即返回 200
 * /readyz  - 就绪探针: 检查数据库 / Redis 依赖
 * ======================================================================== */

func registerHealthEndpoints(app *fiber.App, db *gorm.DB, cache redis.Clienter, timeout time.Duration) {
	app.Get("/healthz", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	app.Get("/readyz", func(c fiber.Ctx) error {
		checks := make(map[string]string)
		healthy := true

		if db != nil {
			sqlDB, err := db.DB()
			if err != nil {
				checks["database"] = "error: " + err.Error()
				healthy = false
			} else {
				ctx, cancel := context.WithTimeout(context.Background(), timeout)
				defer cancel()
				if err := sqlDB.PingContext(ctx); err != nil {
					checks["database"] = "error: " + err.Error()
					healthy = false
				} else {
					checks["database"] = "ok"
				}
			}
		}

		if cache != nil {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if err := cache.Ping(ctx); err != nil {
				checks["redis"] = "error: " + err.Error()
				healthy = false
			} else {
				checks["redis"] = "ok"
			}
		}

		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		checks["memory_alloc_mb"] = fmt.Sprintf("%.2f", float64(m.Alloc)/1024/1024)
		checks["goroutines"] = fmt.Sprintf("%d", runtime.NumGoroutine())

		status := "ok"
		statusCode := fiber.StatusOK
		if !healthy {
			status = "unhealthy"
			statusCode = fiber.StatusServiceUnavailable
		}

		return c.Status(statusCode).JSON(fiber.Map{
			"status": status,
			"time":   time.Now().Format(time.RFC3339),
			"checks": checks,
		})
	})
}
