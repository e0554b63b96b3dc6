// Package application 信号聚合应用层
package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wyfcoding/pkg/messagequeue"
	"github.com/wyfcoding/quantsignal/internal/signal/domain"
)

// barFetchLimit 每个周期拉取的 K 线数量
const barFetchLimit = 200

// AnalysisReport 一次完整分析的产出
type AnalysisReport struct {
	Symbol     string                  `json:"symbol"`
	Price      float64                 `json:"price"`
	Combined   domain.AggregatedSignal `json:"combined"`
	Strategies []domain.StrategyResult `json:"strategies"`
	AnalyzedAt time.Time               `json:"analyzed_at"`
}

// SignalService 多策略信号聚合服务
type SignalService struct {
	registry       *domain.Registry
	aggregator     *domain.Aggregator
	aggregatorCfg  domain.AggregatorConfig
	mtf            *domain.MTFAnalyzer
	indicators     *domain.IndicatorService
	marketData     domain.MarketDataClient
	eventPublisher messagequeue.EventPublisher
	logger         *slog.Logger
}

// NewSignalService 创建信号聚合服务
func NewSignalService(
	registry *domain.Registry,
	aggregatorCfg domain.AggregatorConfig,
	mtf *domain.MTFAnalyzer,
	indicators *domain.IndicatorService,
	marketData domain.MarketDataClient,
	eventPublisher messagequeue.EventPublisher,
	logger *slog.Logger,
) *SignalService {
	return &SignalService{
		registry:       registry,
		aggregator:     domain.NewAggregator(),
		aggregatorCfg:  aggregatorCfg,
		mtf:            mtf,
		indicators:     indicators,
		marketData:     marketData,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

// Analyze 运行全部策略并聚合为共识信号。
// 每个策略按其偏好周期取数，任一周期取数失败视为整体失败。
func (s *SignalService) Analyze(ctx context.Context, symbol string) (*AnalysisReport, error) {
	price, err := s.marketData.GetCurrentPrice(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("get current price for %s: %w", symbol, err)
	}

	series, err := s.fetchSeries(ctx, symbol, s.neededTimeframes())
	if err != nil {
		return nil, err
	}

	// 枢轴点策略需要主周期 RSI 作为辅助输入
	rsi := 50.0
	if primary, ok := series[domain.Timeframe15m]; ok && len(primary) > 0 {
		rsi = s.indicators.RSI(domain.Closes(primary), 14)
	}

	results := make([]domain.StrategyResult, 0, len(s.registry.IDs()))
	for _, eval := range s.registry.All() {
		bars := series[eval.Timeframe()]
		results = append(results, eval.Evaluate(domain.EvaluationContext{
			Bars:  bars,
			Price: price,
			RSI:   rsi,
		}))
	}

	combined := s.aggregator.Combine(results, s.aggregatorCfg)
	report := &AnalysisReport{
		Symbol:     symbol,
		Price:      price,
		Combined:   combined,
		Strategies: results,
		AnalyzedAt: time.Now(),
	}

	s.logger.InfoContext(ctx, "signal analysis completed",
		"symbol", symbol,
		"signal", combined.Signal,
		"strength", combined.Strength.String(),
		"score", combined.Score,
		"confidence", combined.Confidence,
	)

	event := &domain.SignalGeneratedEvent{
		SignalID:   fmt.Sprintf("SIG%s%04d", time.Now().Format("20060102150405"), time.Now().UnixNano()%10000),
		Symbol:     symbol,
		Signal:     combined.Signal,
		Strength:   combined.Strength,
		Score:      combined.Score,
		Confidence: combined.Confidence,
		Price:      price,
		Timestamp:  time.Now(),
	}
	if err := s.eventPublisher.Publish(ctx, event.EventName(), symbol, event); err != nil {
		s.logger.ErrorContext(ctx, "publish signal event failed", "symbol", symbol, "error", err)
	}
	return report, nil
}

// AnalyzeMTF 多周期分析
func (s *SignalService) AnalyzeMTF(ctx context.Context, symbol string) (*domain.MTFDecision, error) {
	series, err := s.fetchSeries(ctx, symbol, s.mtf.Timeframes())
	if err != nil {
		return nil, err
	}

	decision := s.mtf.Analyze(series)
	s.logger.InfoContext(ctx, "mtf analysis completed",
		"symbol", symbol,
		"primary_signal", decision.PrimarySignal,
		"final_signal", decision.FinalSignal,
		"strength", decision.Strength.String(),
		"trend", decision.OverallTrend,
	)

	var price float64
	if len(decision.Timeframes) > 0 {
		price = decision.Timeframes[0].Price
	}
	event := &domain.MTFAnalyzedEvent{
		Symbol:      symbol,
		FinalSignal: decision.FinalSignal,
		Strength:    decision.Strength.String(),
		Trend:       string(decision.OverallTrend),
		Price:       price,
		Timestamp:   time.Now(),
	}
	if err := s.eventPublisher.Publish(ctx, event.EventName(), symbol, event); err != nil {
		s.logger.ErrorContext(ctx, "publish mtf event failed", "symbol", symbol, "error", err)
	}
	return &decision, nil
}

// neededTimeframes 去重后的全部策略偏好周期
func (s *SignalService) neededTimeframes() []domain.Timeframe {
	seen := make(map[domain.Timeframe]bool)
	var out []domain.Timeframe
	for _, eval := range s.registry.All() {
		tf := eval.Timeframe()
		if !seen[tf] {
			seen[tf] = true
			out = append(out, tf)
		}
	}
	if !seen[domain.Timeframe15m] {
		out = append(out, domain.Timeframe15m)
	}
	return out
}

func (s *SignalService) fetchSeries(ctx context.Context, symbol string, timeframes []domain.Timeframe) (map[domain.Timeframe][]domain.Bar, error) {
	series := make(map[domain.Timeframe][]domain.Bar, len(timeframes))
	for _, tf := range timeframes {
		if _, ok := series[tf]; ok {
			continue
		}
		bars, err := s.marketData.GetKlines(ctx, symbol, tf, barFetchLimit)
		if err != nil {
			return nil, fmt.Errorf("get %s klines for %s: %w", tf, symbol, err)
		}
		if err := domain.ValidateSeries(bars); err != nil {
			return nil, fmt.Errorf("%s series for %s: %w", tf, symbol, err)
		}
		series[tf] = bars
	}
	return series, nil
}
