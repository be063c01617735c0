package main

import (
	"context"
	"flag"
	"log"

	"github.com/worklane/worklane/audit"
	"github.com/worklane/worklane/cache"
	cacheredis "github.com/worklane/worklane/cache/redis"
	"github.com/worklane/worklane/conf"
	"github.com/worklane/worklane/database/mysql"
	"github.com/worklane/worklane/database/postgres"
	"github.com/worklane/worklane/handler"
	"github.com/worklane/worklane/logger"
	"github.com/worklane/worklane/middleware"
	"github.com/worklane/worklane/model"
	"github.com/worklane/worklane/mq/kafka"
	"github.com/worklane/worklane/shutdown"
	"github.com/worklane/worklane/tenancy"
	transporthttp "github.com/worklane/worklane/transport/http"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

/* ========================================================================
 * worklane server - 多租户核心服务入口
 * ======================================================================== */

// appConfig 聚合配置, 对应 configs/config.yaml
type appConfig struct {
	Server    transporthttp.Config                `yaml:"server" mapstructure:"server"`
	Database  databaseConfig                      `yaml:"database" mapstructure:"database"`
	Redis     cacheredis.Config                   `yaml:"redis" mapstructure:"redis"`
	Log       logger.Config                       `yaml:"log" mapstructure:"log"`
	Kafka     kafka.Config                        `yaml:"kafka" mapstructure:"kafka"`
	Auth      middleware.AuthHeaderVerifierConfig `yaml:"auth" mapstructure:"auth"`
	AdminKeys middleware.AdminKeyConfig           `yaml:"admin_keys" mapstructure:"admin_keys"`
	RateLimit middleware.RateLimitConfig          `yaml:"rate_limit" mapstructure:"rate_limit"`
	Shutdown  shutdown.Config                     `yaml:"shutdown" mapstructure:"shutdown"`
}

type databaseConfig struct {
	postgres.Config `yaml:",inline" mapstructure:",squash"`

	// Driver 数据库驱动: postgres (默认) 或 mysql
	Driver string `yaml:"driver" mapstructure:"driver"`

	// Charset 仅 mysql 驱动使用, 默认 utf8mb4
	Charset string `yaml:"charset" mapstructure:"charset"`

	// AutoMigrate 启动时同步表结构, 仅用于开发环境
	AutoMigrate bool `yaml:"auto_migrate" mapstructure:"auto_migrate"`
}

// newDB 按配置选择数据库驱动
func newDB(c *appConfig, logg *logger.Logger) (*gorm.DB, error) {
	if c.Database.Driver == "mysql" {
		return mysql.NewDB(mysql.Config{
			Host:            c.Database.Host,
			Port:            c.Database.Port,
			User:            c.Database.User,
			Password:        c.Database.Password,
			DBName:          c.Database.DBName,
			Charset:         c.Database.Charset,
			MaxIdleConns:    c.Database.MaxIdleConns,
			MaxOpenConns:    c.Database.MaxOpenConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		}, logg)
	}
	return postgres.NewDB(c.Database.Config, logg)
}

func main() {
	var configPath, configName string
	flag.StringVar(&configPath, "config-path", "./configs", "config directory")
	flag.StringVar(&configName, "config-name", "config", "config file name without extension")
	flag.Parse()

	cfg := &appConfig{}
	if err := conf.NewLoader(configPath, configName, "yaml").Load(cfg); err != nil {
		log.Fatalf("load config: %v", err)
	}

	app := fx.New(
		fx.Supply(cfg),
		fx.Provide(
			func(c *appConfig) *logger.Logger { return logger.NewLogger(c.Log) },
			func(c *appConfig) transporthttp.Config { return c.Server },
			newDB,
			func(c *appConfig) cacheredis.Config { return c.Redis },
			func(c *appConfig) *middleware.AuthHeaderVerifierConfig { return &c.Auth },
			func(c *appConfig) *middleware.AdminKeyConfig { return &c.AdminKeys },
			func(c *appConfig) *shutdown.Config { return &c.Shutdown },
			newAuditStream,
		),
		cache.Module,
		tenancy.Module,
		handler.Module,
		shutdown.Module,
		fx.Provide(transporthttp.NewHTTPServer),
		fx.Invoke(
			autoMigrate,
			initRateLimiter,
			registerShutdownHooks,
			func(*fiber.App) {},
		),
	)

	app.Run()
}

// newAuditStream 按配置提供 Kafka 审计流, 未启用时返回 nil (Recorder 只落库)
func newAuditStream(lc fx.Lifecycle, c *appConfig, logg *logger.Logger) (audit.Stream, error) {
	if !c.Kafka.Enable {
		return nil, nil
	}
	publisher, err := kafka.NewPublisher(c.Kafka, logg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return publisher.Close() },
	})
	return publisher, nil
}

func autoMigrate(c *appConfig, db *gorm.DB, logg *logger.Logger) error {
	if !c.Database.AutoMigrate {
		return nil
	}
	logg.Info("Running schema auto-migration")
	return db.AutoMigrate(
		&model.User{},
		&model.Account{},
		&model.Workspace{},
		&model.Team{},
		&model.AccountMembership{},
		&model.WorkspaceMembership{},
		&model.TeamMembership{},
		&model.AuditEvent{},
	)
}

func initRateLimiter(c *appConfig, client *cacheredis.Client, logg *logger.Logger) error {
	if !c.RateLimit.Enable {
		return nil
	}
	if err := middleware.InitRateLimiter(client.Raw(), c.RateLimit); err != nil {
		// 限流器降级到进程内存储, 不阻塞启动
		logg.Warn("Redis rate limiter init failed, falling back to memory store", zap.Error(err))
	}
	return nil
}

// registerShutdownHooks 将入口关停交给 shutdown.Manager, 并挂到 fx 生命周期;
// 存储和流连接由各自的 fx OnStop 钩子负责关闭
func registerShutdownHooks(
	lc fx.Lifecycle,
	m *shutdown.Manager,
	server *fiber.App,
) {
	m.RegisterHookWithPriority("http", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	}, shutdown.PriorityIngress)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			m.Shutdown(ctx)
			return nil
		},
	})
}
