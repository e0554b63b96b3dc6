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
	"github.com/wyfcoding/quantsignal/internal/signal/application"
	"github.com/wyfcoding/quantsignal/internal/signal/domain"
	"github.com/wyfcoding/quantsignal/internal/signal/infrastructure"
	"github.com/wyfcoding/quantsignal/internal/signal/interfaces"
)

// BootstrapName 服务唯一标识
const BootstrapName = "signal"

// Config 服务扩展配置
type Config struct {
	config.Config `mapstructure:",squash"`
	Signal        struct {
		MinScore         float64 `mapstructure:"min_score" toml:"min_score"`
		RequireConsensus bool    `mapstructure:"require_consensus" toml:"require_consensus"`
		PrimaryTimeframe string  `mapstructure:"primary_timeframe" toml:"primary_timeframe"`
	} `mapstructure:"signal" toml:"signal"`
}

// AppContext 应用上下文
type AppContext struct {
	Config      *Config
	Service     *application.SignalService
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

	// 1. 数据库，仅承载 Outbox 消息表
	dbWrapper, err := database.NewDB(cfg.Data.Database, cfg.CircuitBreaker, logger, m)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init db: %w", err)
	}
	db := dbWrapper.RawDB()

	if err := db.AutoMigrate(&outbox.Message{}); err != nil {
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

	// 3. 领域组件
	indicators := domain.NewIndicatorService()
	registry := domain.NewDefaultRegistry(indicators)

	aggregatorCfg := domain.DefaultAggregatorConfig()
	if cfg.Signal.MinScore > 0 {
		aggregatorCfg.MinScore = cfg.Signal.MinScore
	}
	aggregatorCfg.RequireConsensus = cfg.Signal.RequireConsensus

	primary := domain.Timeframe15m
	if cfg.Signal.PrimaryTimeframe != "" {
		primary = domain.Timeframe(cfg.Signal.PrimaryTimeframe)
	}
	trendStrategy := domain.NewTripleEMAStrategy(indicators, domain.DefaultTripleEMAConfig())
	mtf := domain.NewMTFAnalyzer(indicators, trendStrategy, primary, nil)

	marketData := infrastructure.NewSyntheticMarketDataClient()

	// 4. 服务
	service := application.NewSignalService(registry, aggregatorCfg, mtf, indicators, marketData, publisher, logger.Logger)

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
