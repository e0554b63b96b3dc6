package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"

	"github.com/wyfcoding/pkg/app"
	"github.com/wyfcoding/pkg/config"
	"github.com/wyfcoding/pkg/database"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/messagequeue/kafka"
	"github.com/wyfcoding/pkg/messagequeue/outbox"
	"github.com/wyfcoding/pkg/metrics"
	"github.com/wyfcoding/pkg/middleware"
	"github.com/wyfcoding/quantsignal/internal/backtest/application"
	"github.com/wyfcoding/quantsignal/internal/backtest/domain"
	"github.com/wyfcoding/quantsignal/internal/backtest/infrastructure/persistence/mysql"
	"github.com/wyfcoding/quantsignal/internal/backtest/interfaces"
	signaldomain "github.com/wyfcoding/quantsignal/internal/signal/domain"
	signalinfra "github.com/wyfcoding/quantsignal/internal/signal/infrastructure"
)

// BootstrapName 服务唯一标识
const BootstrapName = "backtest"

// Config 服务扩展配置
type Config struct {
	config.Config `mapstructure:",squash"`
	Backtest      struct {
		SweepConcurrency    int `mapstructure:"sweep_concurrency" toml:"sweep_concurrency"`
		SweepTimeoutSeconds int `mapstructure:"sweep_timeout_seconds" toml:"sweep_timeout_seconds"`
	} `mapstructure:"backtest" toml:"backtest"`
}

// AppContext 应用上下文
type AppContext struct {
	Config      *Config
	Service     *application.BacktestService
	HTTPHandler *interfaces.HTTPHandler
	Metrics     *metrics.Metrics
}

func main() {
	if err := app.NewBuilder[*Config, *AppContext](BootstrapName).
		WithConfig(&Config{}).
		WithService(initService).
		WithGRPC(registerGRPC).
		WithGin(registerGin).
		WithGinMiddleware(
			middleware.CORS(),
			middleware.TimeoutMiddleware(30*time.Second),
		).
		Build().
		Run(); err != nil {
		slog.Error("service bootstrap failed", "error", err)
	}
}

func registerGRPC(s *grpc.Server, ctx *AppContext) {}

func registerGin(e *gin.Engine, ctx *AppContext) {
	if ctx.Config.Server.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	api := e.Group("/api")
	{
		ctx.HTTPHandler.RegisterRoutes(api)
	}
}

func initService(cfg *Config, m *metrics.Metrics) (*AppContext, func(), error) {
	bootLog := slog.With("module", "bootstrap")
	logger := logging.Default()

	// 1. 数据库
	dbWrapper, err := database.NewDB(cfg.Data.Database, cfg.CircuitBreaker, logger, m)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init db: %w", err)
	}
	db := dbWrapper.RawDB()

	if err := db.AutoMigrate(&domain.BacktestTask{}, &domain.BacktestReport{}, &outbox.Message{}); err != nil {
		return nil, nil, fmt.Errorf("failed to migrate tables: %w", err)
	}

	// 2. 消息队列 & Outbox
	producer := kafka.NewProducer(&cfg.MessageQueue.Kafka, logger, m)
	outboxMgr := outbox.NewManager(db, logger.Logger)
	outboxProc := outbox.NewProcessor(outboxMgr, func(ctx context.Context, topic, key string, payload []byte) error {
		return producer.PublishToTopic(ctx, topic, []byte(key), payload)
	}, 100, 5*time.Second)
	outboxProc.Start()
	publisher := outbox.NewPublisher(outboxMgr)

	// 3. 仓储
	repo := mysql.NewBacktestRepository(db)

	// 4. 领域组件与服务
	engine := domain.NewEngine()
	sweepTimeout := time.Duration(cfg.Backtest.SweepTimeoutSeconds) * time.Second
	sweeper := domain.NewSweeper(cfg.Backtest.SweepConcurrency, sweepTimeout)
	indicators := signaldomain.NewIndicatorService()
	marketData := signalinfra.NewSyntheticMarketDataClient()

	service := application.NewBacktestService(engine, sweeper, repo, marketData, indicators, publisher, logger.Logger)

	// 5. Handler
	httpHandler := interfaces.NewHTTPHandler(service)

	cleanup := func() {
		bootLog.Info("shutting down...")
		outboxProc.Stop()
		if producer != nil {
			producer.Close()
		}
		if sqlDB, err := db.DB(); err == nil && sqlDB != nil {
			sqlDB.Close()
		}
	}

	return &AppContext{
		Config:      cfg,
		Service:     service,
		HTTPHandler: httpHandler,
		Metrics:     m,
	}, cleanup, nil
}
