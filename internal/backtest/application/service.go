// Package application 回测应用层
package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/messagequeue"

	"github.com/wyfcoding/quantsignal/internal/backtest/domain"
	signal "github.com/wyfcoding/quantsignal/internal/signal/domain"
)

// RunBacktestCommand 运行回测命令
type RunBacktestCommand struct {
	Symbol          string
	Timeframe       signal.Timeframe
	Bars            int
	InitialCapital  float64
	PositionSizePct float64
	WarmupBars      int
	Strategy        TripleEMAParams
}

// TripleEMAParams 三重 EMA 策略参数（零值字段取默认）
type TripleEMAParams struct {
	FastPeriod      int     `json:"fast_period"`
	MediumPeriod    int     `json:"medium_period"`
	SlowPeriod      int     `json:"slow_period"`
	ATRMultiplier   float64 `json:"atr_multiplier"`
	VolumeThreshold float64 `json:"volume_threshold"`
	RequireVolume   bool    `json:"require_volume"`
}

// RunSweepCommand 参数寻优命令
type RunSweepCommand struct {
	Symbol          string
	Timeframe       signal.Timeframe
	Bars            int
	InitialCapital  float64
	PositionSizePct float64
	Grid            domain.ParamGrid
}

// BacktestService 回测应用服务
type BacktestService struct {
	engine         *domain.Engine
	sweeper        *domain.Sweeper
	repo           domain.BacktestRepository
	marketData     signal.MarketDataClient
	indicators     *signal.IndicatorService
	eventPublisher messagequeue.EventPublisher
	logger         *slog.Logger
}

// NewBacktestService 创建回测应用服务
func NewBacktestService(
	engine *domain.Engine,
	sweeper *domain.Sweeper,
	repo domain.BacktestRepository,
	marketData signal.MarketDataClient,
	indicators *signal.IndicatorService,
	eventPublisher messagequeue.EventPublisher,
	logger *slog.Logger,
) *BacktestService {
	return &BacktestService{
		engine:         engine,
		sweeper:        sweeper,
		repo:           repo,
		marketData:     marketData,
		indicators:     indicators,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

// RunBacktest 提交回测任务，立即返回任务 ID，引擎异步执行
func (s *BacktestService) RunBacktest(ctx context.Context, cmd RunBacktestCommand) (string, error) {
	taskID := fmt.Sprintf("BT%s%04d", time.Now().Format("20060102150405"), time.Now().UnixNano()%10000)

	params, _ := json.Marshal(cmd.Strategy)
	task := &domain.BacktestTask{
		TaskID:          taskID,
		Symbol:          cmd.Symbol,
		Timeframe:       string(cmd.Timeframe),
		Strategy:        signal.StrategyTripleEMA,
		InitialCapital:  cmd.InitialCapital,
		PositionSizePct: cmd.PositionSizePct,
		Params:          string(params),
		Status:          domain.TaskStatusPending,
	}
	if err := s.repo.SaveTask(ctx, task); err != nil {
		return "", fmt.Errorf("save backtest task: %w", err)
	}

	s.logger.InfoContext(ctx, "backtest task submitted", "task_id", taskID, "symbol", cmd.Symbol)

	// 异步运行回测
	go s.execute(context.Background(), task, cmd)
	return taskID, nil
}

func (s *BacktestService) execute(ctx context.Context, task *domain.BacktestTask, cmd RunBacktestCommand) {
	task.MarkRunning()
	if err := s.repo.SaveTask(ctx, task); err != nil {
		s.logger.ErrorContext(ctx, "save running task failed", "task_id", task.TaskID, "error", err)
	}

	result, err := s.runOnce(ctx, cmd)
	if err != nil {
		s.fail(ctx, task, err)
		return
	}

	tradesJSON, _ := json.Marshal(result.Trades)
	finalCapital, _ := result.FinalCapital.Float64()
	report := &domain.BacktestReport{
		TaskID:         task.TaskID,
		FinalCapital:   finalCapital,
		TotalReturnPct: result.TotalReturnPct,
		TotalTrades:    result.Stats.TotalTrades,
		WinningTrades:  result.Stats.WinningTrades,
		LosingTrades:   result.Stats.LosingTrades,
		WinRate:        result.Stats.WinRate,
		ProfitFactor:   clampForStorage(result.Stats.ProfitFactor),
		AvgWin:         result.Stats.AvgWin,
		AvgLoss:        result.Stats.AvgLoss,
		MaxDrawdownPct: result.Stats.MaxDrawdownPct,
		Trades:         string(tradesJSON),
	}
	if err := s.repo.SaveReport(ctx, report); err != nil {
		s.fail(ctx, task, fmt.Errorf("save report: %w", err))
		return
	}

	task.MarkCompleted()
	if err := s.repo.SaveTask(ctx, task); err != nil {
		s.logger.ErrorContext(ctx, "save completed task failed", "task_id", task.TaskID, "error", err)
	}

	event := &domain.BacktestCompletedEvent{
		TaskID:         task.TaskID,
		Symbol:         task.Symbol,
		Strategy:       task.Strategy,
		TotalReturnPct: result.TotalReturnPct,
		WinRate:        result.Stats.WinRate,
		MaxDrawdownPct: result.Stats.MaxDrawdownPct,
		TotalTrades:    result.Stats.TotalTrades,
		Timestamp:      time.Now(),
	}
	if err := s.eventPublisher.Publish(ctx, event.EventName(), task.TaskID, event); err != nil {
		s.logger.ErrorContext(ctx, "publish backtest completed event failed", "task_id", task.TaskID, "error", err)
	}

	s.logger.InfoContext(ctx, "backtest completed",
		"task_id", task.TaskID,
		"return_pct", result.TotalReturnPct,
		"trades", result.Stats.TotalTrades,
		"win_rate", result.Stats.WinRate,
	)
}

func (s *BacktestService) fail(ctx context.Context, task *domain.BacktestTask, err error) {
	s.logger.ErrorContext(ctx, "backtest failed", "task_id", task.TaskID, "error", err)
	task.MarkFailed(err)
	if saveErr := s.repo.SaveTask(ctx, task); saveErr != nil {
		s.logger.ErrorContext(ctx, "save failed task failed", "task_id", task.TaskID, "error", saveErr)
	}
	event := &domain.BacktestFailedEvent{
		TaskID:    task.TaskID,
		Symbol:    task.Symbol,
		Error:     err.Error(),
		Timestamp: time.Now(),
	}
	if pubErr := s.eventPublisher.Publish(ctx, event.EventName(), task.TaskID, event); pubErr != nil {
		s.logger.ErrorContext(ctx, "publish backtest failed event failed", "task_id", task.TaskID, "error", pubErr)
	}
}

// runOnce 拉取历史数据并执行一次完整回测
func (s *BacktestService) runOnce(ctx context.Context, cmd RunBacktestCommand) (*domain.Result, error) {
	limit := cmd.Bars
	if limit <= 0 {
		limit = 1500
	}
	bars, err := s.marketData.GetKlines(ctx, cmd.Symbol, cmd.Timeframe, limit)
	if err != nil {
		return nil, fmt.Errorf("get klines: %w", err)
	}
	if len(bars) == 0 {
		return nil, domain.ErrNoHistoricalData
	}

	strategy := signal.NewTripleEMAStrategy(s.indicators, s.strategyConfig(cmd.Strategy))
	engineCfg := s.engineConfig(cmd.InitialCapital, cmd.PositionSizePct, cmd.WarmupBars)
	return s.engine.Run(ctx, bars, decisionFrom(strategy), engineCfg)
}

// RunSweep 在参数网格上并发回测，返回按收益率降序的榜单
func (s *BacktestService) RunSweep(ctx context.Context, cmd RunSweepCommand) ([]domain.SweepEntry, error) {
	limit := cmd.Bars
	if limit <= 0 {
		limit = 1500
	}
	bars, err := s.marketData.GetKlines(ctx, cmd.Symbol, cmd.Timeframe, limit)
	if err != nil {
		return nil, fmt.Errorf("get klines: %w", err)
	}
	if len(bars) == 0 {
		return nil, domain.ErrNoHistoricalData
	}

	grid := cmd.Grid
	if len(grid) == 0 {
		grid = domain.DefaultParamGrid()
	}

	entries, err := s.sweeper.Run(ctx, grid, func(ctx context.Context, params map[string]float64) (*domain.Result, error) {
		strategyCfg := signal.DefaultTripleEMAConfig()
		if v, ok := params[domain.ParamFastPeriod]; ok {
			strategyCfg.FastPeriod = int(v)
		}
		if v, ok := params[domain.ParamMediumPeriod]; ok {
			strategyCfg.MediumPeriod = int(v)
		}
		if v, ok := params[domain.ParamSlowPeriod]; ok {
			strategyCfg.SlowPeriod = int(v)
		}
		if v, ok := params[domain.ParamATRMultiplier]; ok {
			strategyCfg.ATRMultiplier = v
		}
		if v, ok := params[domain.ParamVolumeThresh]; ok {
			strategyCfg.VolumeThreshold = v
		}
		positionPct := cmd.PositionSizePct
		if v, ok := params[domain.ParamPositionSize]; ok {
			positionPct = v
		}

		strategy := signal.NewTripleEMAStrategy(s.indicators, strategyCfg)
		engineCfg := s.engineConfig(cmd.InitialCapital, positionPct, 0)
		return s.engine.Run(ctx, bars, decisionFrom(strategy), engineCfg)
	})
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].ProfitFactor = clampForStorage(entries[i].ProfitFactor)
	}

	s.logger.InfoContext(ctx, "parameter sweep completed",
		"symbol", cmd.Symbol,
		"combinations", len(grid.Combinations()),
		"ranked", len(entries),
	)
	return entries, nil
}

// GetTask 查询任务状态
func (s *BacktestService) GetTask(ctx context.Context, taskID string) (*domain.BacktestTask, error) {
	return s.repo.FindTaskByID(ctx, taskID)
}

// GetReport 查询回测报告
func (s *BacktestService) GetReport(ctx context.Context, taskID string) (*domain.BacktestReport, error) {
	return s.repo.FindReportByTaskID(ctx, taskID)
}

func (s *BacktestService) strategyConfig(p TripleEMAParams) signal.TripleEMAConfig {
	cfg := signal.DefaultTripleEMAConfig()
	if p.FastPeriod > 0 {
		cfg.FastPeriod = p.FastPeriod
	}
	if p.MediumPeriod > 0 {
		cfg.MediumPeriod = p.MediumPeriod
	}
	if p.SlowPeriod > 0 {
		cfg.SlowPeriod = p.SlowPeriod
	}
	if p.ATRMultiplier > 0 {
		cfg.ATRMultiplier = p.ATRMultiplier
	}
	if p.VolumeThreshold > 0 {
		cfg.VolumeThreshold = p.VolumeThreshold
	}
	cfg.RequireVolume = p.RequireVolume
	return cfg
}

func (s *BacktestService) engineConfig(initialCapital, positionPct float64, warmup int) domain.Config {
	cfg := domain.DefaultConfig()
	if initialCapital > 0 {
		cfg.InitialCapital = decimal.NewFromFloat(initialCapital)
	}
	if positionPct > 0 {
		cfg.PositionSizePct = positionPct
	}
	if warmup > 0 {
		cfg.WarmupBars = warmup
	}
	cfg.Strategy = signal.StrategyTripleEMA
	return cfg
}

// decisionFrom 将策略评估包装为引擎决策函数
func decisionFrom(strategy *signal.TripleEMAStrategy) domain.DecideFunc {
	return func(bars []signal.Bar) domain.Decision {
		result := strategy.Evaluate(signal.EvaluationContext{
			Bars:  bars,
			Price: bars[len(bars)-1].Close,
		})
		if result.NoData || result.Signal == signal.SignalHold {
			return domain.Decision{Signal: signal.SignalHold}
		}
		return domain.Decision{
			Signal:     result.Signal,
			StopLoss:   result.Levels["stop"],
			TakeProfit: result.Levels["target"],
		}
	}
}

// clampForStorage JSON 与 mysql 无法承载 IEEE 无穷大
func clampForStorage(v float64) float64 {
	if math.IsInf(v, 1) {
		return math.MaxFloat64
	}
	return v
}
